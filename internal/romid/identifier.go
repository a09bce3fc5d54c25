package romid

import (
	"context"
	"fmt"
	"hash/crc32"
	"io"
	"os"

	"github.com/dmitrijs2005/deltacheats/internal/common"
)

// HeaderSize is the number of leading bytes covered by the JAMCRC.
const HeaderSize = 512

// JamCRC returns the complemented CRC-32 (IEEE) of the first HeaderSize
// bytes of header as 8 upper-case hex digits.
func JamCRC(header []byte) (string, error) {
	if len(header) < HeaderSize {
		return "", fmt.Errorf("%w: got %d bytes, need %d", common.ErrTruncatedInput, len(header), HeaderSize)
	}
	return fmt.Sprintf("%08X", ^crc32.ChecksumIEEE(header[:HeaderSize])), nil
}

// Deriver computes GameIdentifiers.
type Deriver struct {
	extractor Extractor
}

func NewDeriver(e Extractor) *Deriver {
	return &Deriver{extractor: e}
}

// Derive returns "<code> <jamcrc>" for the ROM at path. A file shorter than
// HeaderSize fails with ErrTruncatedInput before the extractor runs.
func (d *Deriver) Derive(ctx context.Context, path string) (string, error) {
	header, err := readHeader(path)
	if err != nil {
		return "", err
	}

	crc, err := JamCRC(header)
	if err != nil {
		return "", err
	}

	code, err := d.extractor.ExtractProductCode(ctx, path)
	if err != nil {
		return "", err
	}
	if len(code) != 4 {
		return "", fmt.Errorf("%w: product code %q", common.ErrExtraction, code)
	}

	return Compose(code, crc), nil
}

// Compose joins a product code and a JAMCRC into a GameIdentifier.
func Compose(code, jamcrc string) string {
	return code + " " + jamcrc
}

func readHeader(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rom: %w", err)
	}
	defer f.Close()

	header := make([]byte, HeaderSize)
	n, err := io.ReadFull(f, header)
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		return header[:n], nil
	}
	if err != nil {
		return nil, fmt.Errorf("read rom header: %w", err)
	}
	return header, nil
}
