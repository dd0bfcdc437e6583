// Package download fetches remote files as a stream while reporting how much of the declared size
// has been consumed.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/helalist/hela/pkg/client"
	"github.com/helalist/hela/pkg/credential"
)

type Manager struct {
	BaseURL     *url.URL
	HTTP        client.Doer
	Credentials credential.Provider
	// ChunkSize bounds how many bytes are read from the source per progress event. Zero means
	// DefaultChunkSize.
	ChunkSize int
}

func NewManager(baseURL *url.URL, httpClient client.Doer, creds credential.Provider) *Manager {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Manager{BaseURL: baseURL, HTTP: httpClient, Credentials: creds}
}

// Fetch issues a GET for target and returns a response whose body re-streams the source bytes
// unchanged. onProgress, when non-nil, is called from the streaming goroutine once per chunk
// before that chunk is handed to the reader, and only when the server declared a Content-Length.
//
// Canceling ctx aborts the transfer: the body then fails with the context error. Closing the
// returned body early stops the transfer and releases the connection.
func (m *Manager) Fetch(ctx context.Context, target string, onProgress ProgressFunc) (*http.Response, error) {
	resolved, err := client.ResolveURL(m.BaseURL, target)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resolved, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	credential.Authorize(req.Header, m.Credentials)

	resp, err := m.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, ErrUnexpectedHTTPStatus(resp.StatusCode)
	}

	total := declaredTotal(resp)
	pr, pw := io.Pipe()
	body := &streamBody{PipeReader: pr, src: resp.Body}

	stop := context.AfterFunc(ctx, func() {
		pw.CloseWithError(context.Cause(ctx))
		resp.Body.Close()
	})
	s := &stream{
		chunks:     newChunkReader(resp.Body, m.ChunkSize),
		dst:        pw,
		total:      total,
		onProgress: onProgress,
	}
	go func() {
		defer stop()
		defer resp.Body.Close()
		s.run()
	}()

	contentLength := int64(-1)
	if total > 0 {
		contentLength = total
	}
	return &http.Response{
		Status:        "200 OK",
		StatusCode:    http.StatusOK,
		Proto:         resp.Proto,
		ProtoMajor:    resp.ProtoMajor,
		ProtoMinor:    resp.ProtoMinor,
		Header:        resp.Header.Clone(),
		ContentLength: contentLength,
		Body:          body,
		Request:       req,
	}, nil
}

// streamBody is the body handed to the caller. Closing it also closes the source so a pump
// blocked on the network returns promptly.
type streamBody struct {
	*io.PipeReader
	src io.Closer
}

func (b *streamBody) Close() error {
	err := b.PipeReader.Close()
	b.src.Close()
	return err
}
