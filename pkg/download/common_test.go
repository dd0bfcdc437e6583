package download

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeclaredTotal(t *testing.T) {
	tests := []struct {
		name          string
		contentLength int64
		header        string
		expected      int64
	}{
		{"from response", 1000, "", 1000},
		{"from header", -1, "2048", 2048},
		{"header with spaces", -1, " 12 ", 12},
		{"unknown", -1, "", 0},
		{"unparsable", -1, "lots", 0},
		{"negative header", -1, "-5", 0},
		{"zero", 0, "0", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{ContentLength: tt.contentLength, Header: http.Header{}}
			if tt.header != "" {
				resp.Header.Set("Content-Length", tt.header)
			}
			assert.Equal(t, tt.expected, declaredTotal(resp))
		})
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		loaded, total int64
		expected      int
	}{
		{0, 100, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 200, 1},
		{500, 1000, 50},
		{1000, 1000, 100},
		{1500, 1000, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, percent(tt.loaded, tt.total), "%d/%d", tt.loaded, tt.total)
	}
}

func TestChunkReader(t *testing.T) {
	chunks := newChunkReader(strings.NewReader("abcdefg"), 3)

	var got []string
	for {
		chunk, err := chunks.next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, string(chunk))
	}
	assert.Equal(t, []string{"abc", "def", "g"}, got)

	// exhausted readers keep reporting EOF
	_, err := chunks.next()
	assert.Equal(t, io.EOF, err)
}

func TestChunkReaderDataWithError(t *testing.T) {
	// iotest.DataErrReader returns the final data together with io.EOF
	chunks := newChunkReader(iotest.DataErrReader(bytes.NewReader([]byte("xy"))), 8)

	chunk, err := chunks.next()
	require.NoError(t, err)
	assert.Equal(t, "xy", string(chunk))

	_, err = chunks.next()
	assert.Equal(t, io.EOF, err)
}

func TestChunkReaderError(t *testing.T) {
	boom := errors.New("connection reset")
	chunks := newChunkReader(io.MultiReader(strings.NewReader("ok"), iotest.ErrReader(boom)), 0)
	assert.Len(t, chunks.buf, DefaultChunkSize)

	chunk, err := chunks.next()
	require.NoError(t, err)
	assert.Equal(t, "ok", string(chunk))

	_, err = chunks.next()
	assert.ErrorIs(t, err, boom)
}

func TestStatusError(t *testing.T) {
	err := ErrUnexpectedHTTPStatus(http.StatusNotFound)
	assert.EqualError(t, err, "HTTP error! status: 404")

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}
