package consumer

import (
	"fmt"
	"io"

	"github.com/helalist/hela/pkg/extract"
)

// TarExtractor unpacks a tar stream, optionally compressed, into the destination directory.
type TarExtractor struct {
	overwrite bool
}

var _ Consumer = &TarExtractor{}

func (f *TarExtractor) Consume(reader io.Reader, destPath string, fileSize int64) error {
	counter := &countingReader{r: reader}
	err := extract.TarFile(counter, destPath, f.overwrite)
	if err != nil {
		return fmt.Errorf("error extracting file: %w", err)
	}
	// tar stops at the end-of-archive marker; drain the trailing padding so the size check sees
	// the whole stream.
	if _, err := io.Copy(io.Discard, counter); err != nil {
		return fmt.Errorf("error draining archive: %w", err)
	}
	return verifySize(fileSize, counter.n)
}

func (f *TarExtractor) EnableOverwrite() {
	f.overwrite = true
}
