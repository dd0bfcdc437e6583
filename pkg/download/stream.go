package download

import (
	"io"
)

// stream copies chunks from the source into the pipe, reporting progress for each chunk before
// it is written.
type stream struct {
	chunks     *chunkReader
	dst        *io.PipeWriter
	total      int64
	loaded     int64
	onProgress ProgressFunc
}

func (s *stream) run() {
	for {
		chunk, err := s.chunks.next()
		if err == io.EOF {
			s.dst.Close()
			return
		}
		if err != nil {
			s.dst.CloseWithError(err)
			return
		}

		s.loaded += int64(len(chunk))
		if s.total > 0 && s.onProgress != nil {
			s.onProgress(percent(s.loaded, s.total))
		}

		// Write only fails once the reader side is closed.
		if _, err := s.dst.Write(chunk); err != nil {
			return
		}
	}
}
