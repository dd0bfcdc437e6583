package consumer

import (
	"fmt"
	"io"
)

// NullWriter discards the stream after counting it.
type NullWriter struct{}

var _ Consumer = &NullWriter{}

func (NullWriter) Consume(reader io.Reader, destPath string, expectedBytes int64) error {
	bytesRead, err := io.Copy(io.Discard, reader)
	if err != nil {
		return fmt.Errorf("error reading stream: %w", err)
	}
	return verifySize(expectedBytes, bytesRead)
}

func (NullWriter) EnableOverwrite() {
	// no op
}
