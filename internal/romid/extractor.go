// Package romid derives the identifiers of an uploaded ROM: the catalog
// GameIdentifier ("<product code> <JAMCRC>") and the content key (a digest of
// the whole file).
package romid

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/dmitrijs2005/deltacheats/internal/common"
)

// Extractor reads the 4-character product code of the ROM at path.
type Extractor interface {
	ExtractProductCode(ctx context.Context, path string) (string, error)
}

const gameCodeLabel = "Game code"

// NDSTool extracts the product code by running "ndstool -i <rom>" and
// parsing its header report.
type NDSTool struct {
	// Path is the ndstool binary; "ndstool" (looked up in PATH) when empty.
	Path string
}

func (n NDSTool) ExtractProductCode(ctx context.Context, path string) (string, error) {
	bin := n.Path
	if bin == "" {
		bin = "ndstool"
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "-i", path)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: ndstool: %v: %s", common.ErrExtraction, err, strings.TrimSpace(stderr.String()))
	}

	return ParseGameCode(stdout.String())
}

// ParseGameCode finds the "Game code" line of an ndstool report and returns
// the first four characters following the label, upper-cased.
//
//	0x0C	Game code                	IPKE (NTR-IPKE-USA)
func ParseGameCode(report string) (string, error) {
	sc := bufio.NewScanner(strings.NewReader(report))
	for sc.Scan() {
		line := sc.Text()
		_, rest, ok := strings.Cut(line, gameCodeLabel)
		if !ok {
			continue
		}
		rest = strings.TrimLeft(rest, " \t:")
		if len(rest) < 4 {
			return "", fmt.Errorf("%w: unexpected game code line %q", common.ErrExtraction, line)
		}
		return strings.ToUpper(rest[:4]), nil
	}
	return "", fmt.Errorf("%w: game code not found in ndstool output", common.ErrExtraction)
}

// gameCodeOffset is the position of the product code in the cartridge header.
const gameCodeOffset = 0x0C

// HeaderExtractor reads the product code straight from the cartridge header.
type HeaderExtractor struct{}

func (HeaderExtractor) ExtractProductCode(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open rom: %w", err)
	}
	defer f.Close()

	code := make([]byte, 4)
	if _, err := f.ReadAt(code, gameCodeOffset); err != nil {
		if err == io.EOF {
			return "", fmt.Errorf("%w: header too short for game code", common.ErrExtraction)
		}
		return "", fmt.Errorf("read rom header: %w", err)
	}

	for _, c := range code {
		if !isAlnum(c) {
			return "", fmt.Errorf("%w: game code %q is not alphanumeric", common.ErrExtraction, code)
		}
	}
	return strings.ToUpper(string(code)), nil
}

func isAlnum(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// StaticExtractor always returns Code, or Err when set.
type StaticExtractor struct {
	Code string
	Err  error
}

func (s StaticExtractor) ExtractProductCode(context.Context, string) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	return s.Code, nil
}

// NewExtractor returns the extractor registered under name: "header"
// (default) or "ndstool".
func NewExtractor(name, toolPath string) (Extractor, error) {
	switch strings.ToLower(name) {
	case "", "header":
		return HeaderExtractor{}, nil
	case "ndstool":
		return NDSTool{Path: toolPath}, nil
	default:
		return nil, fmt.Errorf("unknown extractor %q", name)
	}
}
