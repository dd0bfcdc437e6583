package consumer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

type FileWriter struct {
	Overwrite bool
}

var _ Consumer = &FileWriter{}

func (f *FileWriter) Consume(reader io.Reader, destPath string, expectedBytes int64) error {
	if dir := filepath.Dir(destPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating directory: %w", err)
		}
	}
	openFlags := os.O_WRONLY | os.O_CREATE
	if f.Overwrite {
		openFlags |= os.O_TRUNC
	}
	out, err := os.OpenFile(destPath, openFlags, 0644)
	if err != nil {
		return fmt.Errorf("error writing file: %w", err)
	}
	defer out.Close()

	written, err := io.Copy(out, reader)
	if err != nil {
		return fmt.Errorf("error writing file: %w", err)
	}
	return verifySize(expectedBytes, written)
}

func (f *FileWriter) EnableOverwrite() {
	f.Overwrite = true
}
