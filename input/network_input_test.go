package input

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return server, &requests
}

func TestNetworkInput_Streams(t *testing.T) {
	content := listContent(400)
	server, requests := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write(content)
	})

	in, err := NewNetworkInput(server.URL+"/hosts", WithHTTPClient(server.Client()))
	require.NoError(t, err)
	defer in.Close()

	chunks := drain(t, in)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), DefaultChunkSize)
	}
	assert.Equal(t, content, bytes.Join(chunks, nil))
	assert.Equal(t, int32(1), requests.Load())
}

func TestNetworkInput_ChunkedTransfer(t *testing.T) {
	server, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		for _, part := range []string{"domain.one\n", "domain.two\n"} {
			_, _ = w.Write([]byte(part))
			flusher.Flush()
		}
	})

	in, err := NewNetworkInput(server.URL, WithHTTPClient(server.Client()))
	require.NoError(t, err)
	defer in.Close()

	assert.Equal(t, "domain.one\ndomain.two\n", string(bytes.Join(drain(t, in), nil)))
}

func TestNetworkInput_OpenErrors(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
		wantErr    error
	}{
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "no content",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name: "explicit zero content length",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Length", "0")
				w.WriteHeader(http.StatusOK)
			},
			wantErr: ErrEmptyBody,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newTestServer(t, tt.handler)
			in, err := NewNetworkInput(server.URL, WithHTTPClient(server.Client()))
			require.NoError(t, err)
			defer in.Close()

			chunk, err := in.Chunk(context.Background())
			assert.Nil(t, chunk)
			require.Error(t, err)
			assert.NotErrorIs(t, err, io.EOF)

			var openErr *OpenError
			assert.ErrorAs(t, err, &openErr)

			if tt.wantStatus != 0 {
				var statusErr *StatusError
				require.ErrorAs(t, err, &statusErr)
				assert.Equal(t, tt.wantStatus, statusErr.StatusCode)
				assert.Equal(t, server.URL, statusErr.URL)
			}
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Nil(t, in.response)
		})
	}
}

func TestNetworkInput_FailedOpenIsRetried(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	server, requests := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("domain.one\n"))
	})

	in, err := NewNetworkInput(server.URL, WithHTTPClient(server.Client()))
	require.NoError(t, err)
	defer in.Close()

	_, err = in.Chunk(context.Background())
	require.Error(t, err)

	fail.Store(false)
	assert.Equal(t, "domain.one\n", string(bytes.Join(drain(t, in), nil)))
	assert.Equal(t, int32(2), requests.Load())
}

func TestNetworkInput_ResetReissuesRequest(t *testing.T) {
	content := listContent(100)
	server, requests := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(content)
	})

	in, err := NewNetworkInput(server.URL, WithHTTPClient(server.Client()))
	require.NoError(t, err)
	defer in.Close()

	// reset on an unopened input opens eagerly
	require.NoError(t, in.Reset(context.Background()))
	assert.Equal(t, int32(1), requests.Load())

	_, err = in.Chunk(context.Background())
	require.NoError(t, err)

	// reset on an open input always issues a new request
	require.NoError(t, in.Reset(context.Background()))
	assert.Equal(t, int32(2), requests.Load())
	assert.Equal(t, content, bytes.Join(drain(t, in), nil))

	require.NoError(t, in.Reset(context.Background()))
	assert.Equal(t, int32(3), requests.Load())
	assert.Equal(t, content, bytes.Join(drain(t, in), nil))
}

func TestNetworkInput_UserAgent(t *testing.T) {
	server, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.UserAgent() + "\n"))
	})

	in, err := NewNetworkInput(server.URL, WithHTTPClient(server.Client()), WithUserAgent("hostspipe-test"))
	require.NoError(t, err)
	defer in.Close()

	assert.Equal(t, "hostspipe-test\n", string(bytes.Join(drain(t, in), nil)))
}

func TestNetworkInput_StreamOutlivesCallerContext(t *testing.T) {
	content := listContent(400)
	server, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(content)
	})

	in, err := NewNetworkInput(server.URL, WithHTTPClient(server.Client()))
	require.NoError(t, err)
	defer in.Close()

	ctx, cancel := context.WithCancel(context.Background())
	first, err := in.Chunk(ctx)
	require.NoError(t, err)
	cancel()

	rest := drain(t, in)
	assert.Equal(t, content, bytes.Join(append([][]byte{first}, rest...), nil))
}

func TestNetworkInput_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	client := server.Client()
	server.Close()

	in, err := NewNetworkInput(url, WithHTTPClient(client))
	require.NoError(t, err)

	_, err = in.Chunk(context.Background())
	var openErr *OpenError
	require.True(t, errors.As(err, &openErr))
	assert.Equal(t, url, openErr.Location)
}

// stalledBody never returns data or an error
type stalledBody struct {
	reads int
}

func (b *stalledBody) Read([]byte) (int, error) {
	b.reads++
	return 0, nil
}

func (b *stalledBody) Close() error { return nil }

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestNetworkInput_EmptyReadsFail(t *testing.T) {
	body := &stalledBody{}
	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode:    http.StatusOK,
			ContentLength: -1,
			Body:          body,
			Request:       r,
		}, nil
	})}

	in, err := NewNetworkInput("http://lists.example/hosts", WithHTTPClient(client))
	require.NoError(t, err)
	defer in.Close()

	_, err = in.Chunk(context.Background())
	assert.ErrorIs(t, err, io.ErrNoProgress)
	assert.Equal(t, maxEmptyReads, body.reads)
}
