// Package consumer holds the sinks a downloaded stream can be handed to: a local file, an
// archive extractor, stdout, or nothing at all.
package consumer

import (
	"errors"
	"fmt"
	"io"
)

// Consumer drains reader into destPath. fileSize is the declared length of the stream, or -1
// when the server did not declare one.
type Consumer interface {
	Consume(reader io.Reader, destPath string, fileSize int64) error
	// EnableOverwrite sets the overwrite flag for the consumer, allowing it to overwrite files if necessary/supported
	EnableOverwrite()
}

// countingReader counts the bytes that pass through it.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// verifySize returns an error when the stream length was declared and does not match.
// ErrSizeMismatch is returned when a stream ends at a different length than announced.
var ErrSizeMismatch = errors.New("size mismatch")

func verifySize(expected, actual int64) error {
	if expected >= 0 && expected != actual {
		return fmt.Errorf("%w: expected %d bytes, read %d", ErrSizeMismatch, expected, actual)
	}
	return nil
}
