package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/dmitrijs2005/deltacheats/internal/logging"
)

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

var errUsage = errors.New("usage")

const usage = `usage:
  deltacheats identify [-hash sha256|sha1] [-extractor header|ndstool] [-ndstool path] <rom.nds|.zip|.7z|.rar>
  deltacheats lookup -catalog cheats.xml [-q term] [-extractor ...] <rom.nds|.zip|.7z|.rar>
  deltacheats apply -store in.sqlite -key KEY -cheats selection.json [-o out.sqlite]
`

type App struct {
	stdout io.Writer
	stderr io.Writer
	logger logging.Logger
	now    func() time.Time
}

func NewApp(stdout, stderr io.Writer) *App {
	return &App{
		stdout: stdout,
		stderr: stderr,
		logger: logging.New(stderr, "warn", "text"),
		now:    time.Now,
	}
}

// Run executes the sub-command in args and returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(a.stderr, usage)
		return 2
	}

	var err error
	switch args[0] {
	case "identify":
		err = a.Identify(ctx, args[1:])
	case "lookup":
		err = a.Lookup(ctx, args[1:])
	case "apply":
		err = a.Apply(ctx, args[1:])
	case "help", "-h", "--help":
		fmt.Fprint(a.stdout, usage)
		return 0
	default:
		err = fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}

	if errors.Is(err, errUsage) {
		fmt.Fprintf(a.stderr, "%v\n%s", err, usage)
		return 2
	}
	if err != nil {
		a.logger.Error(ctx, "command failed", "command", args[0], "error", err)
		return 1
	}
	return 0
}

// printJSON writes v as JSON, indented when stdout is a terminal.
func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	if f, ok := a.stdout.(*os.File); ok && isTerminal(int(f.Fd())) {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
