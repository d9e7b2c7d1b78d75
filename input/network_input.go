package input

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// NetworkInput streams the body of an HTTP GET.
// The request is issued lazily on the first Chunk, or eagerly on Reset.
type NetworkInput struct {
	url       string
	client    *http.Client
	userAgent string
	buf       []byte

	response *http.Response
	// cancels the request context, which outlives the call that issued the request
	cancel context.CancelFunc
}

// consecutive empty reads of the body tolerated before a chunk fails
const maxEmptyReads = 100

func NewNetworkInput(url string, opts ...Option) (*NetworkInput, error) {
	d := Descriptor{URL: url}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	o := newInputOptions(opts...)

	return &NetworkInput{
		url:       url,
		client:    o.client,
		userAgent: o.userAgent,
		buf:       make([]byte, o.chunkSize),
	}, nil
}

// Chunk implements [Input]
// Each chunk is the result of a single read of the response body, so its size is determined by the transport.
func (n *NetworkInput) Chunk(ctx context.Context) ([]byte, error) {
	if n.response == nil {
		if err := n.open(ctx); err != nil {
			return nil, err
		}
	}

	for range maxEmptyReads {
		read, err := n.response.Body.Read(n.buf)
		if read > 0 {
			return bytes.Clone(n.buf[:read]), nil
		}
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("error reading response from %s: %w", redact(n.url), err)
		}
	}
	return nil, fmt.Errorf("error reading response from %s: %w", redact(n.url), io.ErrNoProgress)
}

// Reset implements [Input]
// The request is always reissued from the start, no range requests are made.
func (n *NetworkInput) Reset(ctx context.Context) error {
	if err := n.Close(); err != nil {
		slog.Warn("NetworkInput error closing response", "url", redact(n.url), "error", err)
	}
	return n.open(ctx)
}

// Close implements [Input]
func (n *NetworkInput) Close() error {
	if n.response == nil {
		return nil
	}
	err := n.response.Body.Close()
	n.response = nil
	n.cancel()
	n.cancel = nil
	return err
}

func (n *NetworkInput) open(ctx context.Context) error {
	location := redact(n.url)
	reqCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, n.url, nil)
	if err != nil {
		cancel()
		return &OpenError{Location: location, Err: err}
	}
	if n.userAgent != "" {
		req.Header.Set("User-Agent", n.userAgent)
	}

	slog.Debug("NetworkInput requesting", "url", location)
	resp, err := n.client.Do(req)
	if err != nil {
		cancel()
		return &OpenError{Location: location, Err: err}
	}

	if err := validateResponse(resp, location); err != nil {
		resp.Body.Close()
		cancel()
		return &OpenError{Location: location, Err: err}
	}

	slog.Debug("NetworkInput opened", "url", location, "content_length", resp.ContentLength)
	n.response = resp
	n.cancel = cancel
	return nil
}

// validateResponse rejects non 200 responses and responses which advertise an empty body.
// An unknown content length is reported by net/http as -1 and is accepted.
func validateResponse(resp *http.Response, location string) error {
	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode, URL: location}
	}
	if resp.ContentLength == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyBody, location)
	}
	return nil
}

func (n *NetworkInput) String() string {
	return redact(n.url)
}
