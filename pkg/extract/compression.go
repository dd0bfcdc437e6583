package extract

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/lzw"
	"errors"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4"
	"github.com/ulikunitz/xz"

	"github.com/helalist/hela/pkg/logging"
)

// peekSize covers the longest magic number below.
const peekSize = 8

// decompressor wraps a compressed stream.
type decompressor interface {
	decompress(r io.Reader) (io.Reader, error)
}

type signature struct {
	format string
	magic  []byte
	build  func(head []byte) decompressor
}

var signatures = []signature{
	{format: "gzip", magic: []byte{0x1F, 0x8B}, build: func([]byte) decompressor { return gzipDecompressor{} }},
	{format: "bzip2", magic: []byte{0x42, 0x5A}, build: func([]byte) decompressor { return bzip2Decompressor{} }},
	{format: "lzw", magic: []byte{0x1F, 0x9D}, build: newLZWDecompressor},
	{format: "lz4", magic: []byte{0x04, 0x22, 0x4D, 0x18}, build: func([]byte) decompressor { return lz4Decompressor{} }},
	{format: "zstd", magic: []byte{0x28, 0xB5, 0x2F, 0xFD}, build: func([]byte) decompressor { return zstdDecompressor{} }},
	{format: "xz", magic: []byte{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00}, build: func([]byte) decompressor { return xzDecompressor{} }},
}

// detectFormat matches the leading bytes of a stream against the known magic numbers. It returns
// nil for uncompressed input.
func detectFormat(head []byte) decompressor {
	if len(head) < 2 {
		return nil
	}
	if len(head) < peekSize {
		padded := make([]byte, peekSize)
		copy(padded, head)
		head = padded
	}
	logger := logging.GetLogger()
	for _, sig := range signatures {
		if bytes.HasPrefix(head, sig.magic) {
			logger.Debug().Str("type", sig.format).Msg("Compression Format")
			return sig.build(head)
		}
	}
	logger.Debug().Str("type", "none").Msg("Compression Format")
	return nil
}

// newLZWDecompressor reads the code width from the compress(1) header: the high 3 bits of the
// third byte, offset by the minimum width of 9.
func newLZWDecompressor(head []byte) decompressor {
	return lzwDecompressor{order: lzw.MSB, litWidth: int(head[2]>>5) + 9}
}

// Decompress sniffs the first bytes of r and returns a reader of the decompressed stream. Input
// in no known format is returned unchanged.
func Decompress(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(peekSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	d := detectFormat(head)
	if d == nil {
		return br, nil
	}
	return d.decompress(br)
}

type gzipDecompressor struct{}

func (d gzipDecompressor) decompress(r io.Reader) (io.Reader, error) {
	return gzip.NewReader(r)
}

type bzip2Decompressor struct{}

func (d bzip2Decompressor) decompress(r io.Reader) (io.Reader, error) {
	return bzip2.NewReader(r), nil
}

type xzDecompressor struct{}

func (d xzDecompressor) decompress(r io.Reader) (io.Reader, error) {
	return xz.NewReader(r)
}

type lzwDecompressor struct {
	litWidth int
	order    lzw.Order
}

func (d lzwDecompressor) decompress(r io.Reader) (io.Reader, error) {
	// skip the 3 byte compress(1) header
	if _, err := io.CopyN(io.Discard, r, 3); err != nil {
		return nil, err
	}
	return lzw.NewReader(r, d.order, d.litWidth), nil
}

type lz4Decompressor struct{}

func (d lz4Decompressor) decompress(r io.Reader) (io.Reader, error) {
	return lz4.NewReader(r), nil
}

type zstdDecompressor struct{}

func (d zstdDecompressor) decompress(r io.Reader) (io.Reader, error) {
	decoder, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	return decoder.IOReadCloser(), nil
}
