// Package api issues calls against the HelaList REST API.
//
// Every call goes through Client.Do, which builds the request, attaches the bearer credential,
// and normalizes the reply. Replies that use the {code, message, data} envelope are unwrapped to
// their data; other JSON replies and plain text bodies are returned verbatim. Failures are either
// an *HTTPError (non-2xx status) or an *EnvelopeError (2xx status with a non-success code).
//
// The client performs exactly one exchange per call. It does not retry, cache or log.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"

	"github.com/helalist/hela/pkg/client"
	"github.com/helalist/hela/pkg/credential"
)

// Request describes one call. Path is either an absolute URL or a path resolved against the
// client's base URL. Body is nil, a *Form, or any JSON-serializable value.
type Request struct {
	Method string
	Path   string
	Header map[string]string
	Body   any
}

type Client struct {
	BaseURL     *url.URL
	HTTP        client.Doer
	Credentials credential.Provider
}

func NewClient(baseURL *url.URL, httpClient client.Doer, creds credential.Provider) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{BaseURL: baseURL, HTTP: httpClient, Credentials: creds}
}

// Do performs a single exchange and returns the unwrapped payload.
func (c *Client) Do(ctx context.Context, r Request) (*Result, error) {
	req, err := c.newRequest(ctx, r)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(resp.Body)
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(text)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	rep, err := classify(resp.Header.Get("Content-Type"), body)
	if err != nil {
		return nil, err
	}
	return resolve(rep)
}

func (c *Client) Get(ctx context.Context, path string) (*Result, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path})
}

// Post sends body as JSON, or as multipart form data when body is a *Form.
func (c *Client) Post(ctx context.Context, path string, body any) (*Result, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
}

func (c *Client) Put(ctx context.Context, path string, body any) (*Result, error) {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body})
}

func (c *Client) Delete(ctx context.Context, path string) (*Result, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path})
}

func (c *Client) newRequest(ctx context.Context, r Request) (*http.Request, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	target, err := client.ResolveURL(c.BaseURL, r.Path)
	if err != nil {
		return nil, err
	}
	body, contentType, err := encodeBody(r.Body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header = buildHeader(r.Header, contentType, c.Credentials)
	return req, nil
}

// buildHeader merges, in order: the Accept default, caller headers, the body content type, and
// the bearer credential. Later steps win, so callers cannot override Authorization.
func buildHeader(caller map[string]string, contentType string, creds credential.Provider) http.Header {
	h := http.Header{}
	h.Set("Accept", jsonContentType)

	keys := make([]string, 0, len(caller))
	for k := range caller {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.Set(k, caller[k])
	}

	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	credential.Authorize(h, creds)
	return h
}

func encodeBody(v any) (io.Reader, string, error) {
	switch body := v.(type) {
	case nil:
		return nil, "", nil
	case *Form:
		if body == nil {
			return nil, "", nil
		}
		buf, contentType, err := body.encode()
		if err != nil {
			return nil, "", err
		}
		return buf, contentType, nil
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, "", fmt.Errorf("encode request body: %w", err)
		}
		return bytes.NewReader(data), jsonContentType, nil
	}
}
