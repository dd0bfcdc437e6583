package consumer

import (
	"fmt"
	"io"

	"github.com/helalist/hela/pkg/extract"
)

type ZipExtractor struct {
	overwrite bool
}

var _ Consumer = &ZipExtractor{}

func (f *ZipExtractor) Consume(reader io.Reader, destPath string, size int64) error {
	counter := &countingReader{r: reader}
	err := extract.ZipStream(counter, destPath, f.overwrite)
	if err != nil {
		return fmt.Errorf("error extracting file: %w", err)
	}
	return verifySize(size, counter.n)
}

func (f *ZipExtractor) EnableOverwrite() {
	f.overwrite = true
}
