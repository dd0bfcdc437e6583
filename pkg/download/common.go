package download

import (
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

const DefaultChunkSize = 32 * humanize.KiByte

// declaredTotal returns the size the server announced for the body, or 0 when it is unknown.
func declaredTotal(resp *http.Response) int64 {
	if resp.ContentLength > 0 {
		return resp.ContentLength
	}
	value := strings.TrimSpace(resp.Header.Get("Content-Length"))
	if value == "" {
		return 0
	}
	total, err := strconv.ParseInt(value, 10, 64)
	if err != nil || total <= 0 {
		return 0
	}
	return total
}

// percent computes round(loaded/total*100), capped at 100 for bodies longer than announced.
func percent(loaded, total int64) int {
	p := int(math.Round(float64(loaded) / float64(total) * 100))
	if p > 100 {
		return 100
	}
	return p
}

// chunkReader turns an io.Reader into a sequence of non-empty chunks. The returned slice is only
// valid until the next call.
type chunkReader struct {
	r   io.Reader
	buf []byte
	err error
}

func newChunkReader(r io.Reader, size int) *chunkReader {
	if size <= 0 {
		size = DefaultChunkSize
	}
	return &chunkReader{r: r, buf: make([]byte, size)}
}

// next returns the next chunk, or io.EOF once the source is exhausted.
func (c *chunkReader) next() ([]byte, error) {
	for c.err == nil {
		n, err := c.r.Read(c.buf)
		c.err = err
		if n > 0 {
			return c.buf[:n], nil
		}
	}
	return nil, c.err
}
