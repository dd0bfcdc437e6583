package consumer

import (
	"fmt"
	"io"
	"os"
)

var _ Consumer = &StdoutConsumer{}

// StdoutConsumer copies the stream to Writer, or to os.Stdout when Writer is nil. destPath is
// ignored.
type StdoutConsumer struct {
	Writer io.Writer
}

func (s StdoutConsumer) Consume(reader io.Reader, destPath string, fileSize int64) error {
	w := s.Writer
	if w == nil {
		w = os.Stdout
	}
	written, err := io.Copy(w, reader)
	if err != nil {
		return fmt.Errorf("error writing to stdout: %w", err)
	}
	return verifySize(fileSize, written)
}

func (s StdoutConsumer) EnableOverwrite() {
	// no op
}
