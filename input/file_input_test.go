package input

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileInput_Plain(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantChunks []string
	}{
		{
			name:       "newline terminated lines",
			content:    "domain.one\ndomain.two\ndomain.three\n",
			wantChunks: []string{"domain.one\n", "domain.two\n", "domain.three\n"},
		},
		{
			name:       "final line without newline",
			content:    "domain.one\ndomain.two",
			wantChunks: []string{"domain.one\n", "domain.two"},
		},
		{
			name:       "blank lines are records",
			content:    "a\n\nb\n",
			wantChunks: []string{"a\n", "\n", "b\n"},
		},
		{
			name:    "empty file",
			content: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "list.txt", []byte(tt.content))
			in, err := NewFileInput(path, nil)
			require.NoError(t, err)
			defer in.Close()

			chunks := drain(t, in)

			var got []string
			for _, c := range chunks {
				got = append(got, string(c))
			}
			assert.Equal(t, tt.wantChunks, got)
			assert.Equal(t, tt.content, string(bytes.Join(chunks, nil)))
		})
	}
}

func TestFileInput_Gzip(t *testing.T) {
	content := listContent(500)
	path := writeFile(t, "list.txt.gz", gzipBytes(t, content))

	in, err := NewFileInput(path, &Compression{Kind: CompressionGzip})
	require.NoError(t, err)
	defer in.Close()

	chunks := drain(t, in)
	require.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		if i < len(chunks)-1 {
			assert.Len(t, c, DefaultChunkSize)
		} else {
			assert.LessOrEqual(t, len(c), DefaultChunkSize)
		}
	}
	assert.Equal(t, content, bytes.Join(chunks, nil))
}

func TestFileInput_GzipChunkSize(t *testing.T) {
	content := []byte("0123456789abcdefghij")
	path := writeFile(t, "list.gz", gzipBytes(t, content))

	in, err := NewFileInput(path, &Compression{Kind: CompressionGzip}, WithChunkSize(8))
	require.NoError(t, err)
	defer in.Close()

	chunks := drain(t, in)
	assert.Equal(t, [][]byte{[]byte("01234567"), []byte("89abcdef"), []byte("ghij")}, chunks)
}

func TestFileInput_GzipEmpty(t *testing.T) {
	tests := []struct {
		name string
		data func(t *testing.T) []byte
	}{
		{
			name: "valid stream with no content",
			data: func(t *testing.T) []byte { return gzipBytes(t, nil) },
		},
		{
			name: "zero byte file",
			data: func(t *testing.T) []byte { return nil },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "empty.gz", tt.data(t))
			in, err := NewFileInput(path, &Compression{Kind: CompressionGzip})
			require.NoError(t, err)
			defer in.Close()

			chunk, err := in.Chunk(context.Background())
			assert.Nil(t, chunk)
			assert.ErrorIs(t, err, io.EOF)
		})
	}
}

func TestFileInput_GzipInvalid(t *testing.T) {
	path := writeFile(t, "list.gz", []byte("this is not gzip data\n"))
	in, err := NewFileInput(path, &Compression{Kind: CompressionGzip})
	require.NoError(t, err)

	_, err = in.Chunk(context.Background())
	var openErr *OpenError
	require.ErrorAs(t, err, &openErr)
	assert.Equal(t, path, openErr.Location)
}

func TestFileInput_GzipTruncated(t *testing.T) {
	compressed := gzipBytes(t, listContent(2000))
	path := writeFile(t, "list.gz", compressed[:len(compressed)/2])

	in, err := NewFileInput(path, &Compression{Kind: CompressionGzip})
	require.NoError(t, err)
	defer in.Close()

	var readErr error
	for readErr == nil {
		_, readErr = in.Chunk(context.Background())
	}
	assert.NotErrorIs(t, readErr, io.EOF)
	assert.ErrorIs(t, readErr, io.ErrUnexpectedEOF)
}

func TestFileInput_TarGz(t *testing.T) {
	want := listContent(200)
	archive := tarGzBytes(t,
		tarMember{name: "lists", dir: true},
		tarMember{name: "lists/readme.md", data: []byte("# not this one\n")},
		tarMember{name: "list.txt.bak", data: []byte("nor this\n")},
		tarMember{name: "./list.txt", data: want},
		tarMember{name: "other.txt", data: []byte("after\n")},
	)
	path := writeFile(t, "lists.tar.gz", archive)

	in, err := NewFileInput(path, &Compression{Kind: CompressionTarGz, MemberPath: "list.txt"})
	require.NoError(t, err)
	defer in.Close()

	chunks := drain(t, in)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), DefaultChunkSize)
	}
	assert.Equal(t, want, bytes.Join(chunks, nil))
}

func TestFileInput_TarGzNestedMember(t *testing.T) {
	archive := tarGzBytes(t,
		tarMember{name: "a/list.txt", data: []byte("wrong\n")},
		tarMember{name: "b/list.txt", data: []byte("right\n")},
	)
	path := writeFile(t, "lists.tgz", archive)

	in, err := NewFileInput(path, &Compression{Kind: CompressionTarGz, MemberPath: "b/list.txt"})
	require.NoError(t, err)
	defer in.Close()

	assert.Equal(t, "right\n", string(bytes.Join(drain(t, in), nil)))
}

func TestFileInput_TarGzMemberMissing(t *testing.T) {
	tests := []struct {
		name    string
		archive func(t *testing.T) []byte
	}{
		{
			name: "other members only",
			archive: func(t *testing.T) []byte {
				return tarGzBytes(t, tarMember{name: "other.txt", data: []byte("x\n")})
			},
		},
		{
			name: "empty archive",
			archive: func(t *testing.T) []byte {
				return tarGzBytes(t)
			},
		},
		{
			name: "member is a directory",
			archive: func(t *testing.T) []byte {
				return tarGzBytes(t, tarMember{name: "list.txt", dir: true})
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "lists.tar.gz", tt.archive(t))
			in, err := NewFileInput(path, &Compression{Kind: CompressionTarGz, MemberPath: "list.txt"})
			require.NoError(t, err)

			chunk, err := in.Chunk(context.Background())
			assert.Nil(t, chunk)
			assert.NotErrorIs(t, err, io.EOF)
			assert.ErrorIs(t, err, ErrMemberNotFound)

			var openErr *OpenError
			assert.ErrorAs(t, err, &openErr)

			// still unopened, so the open is attempted again
			_, err = in.Chunk(context.Background())
			assert.ErrorIs(t, err, ErrMemberNotFound)
			assert.ErrorIs(t, in.Reset(context.Background()), ErrMemberNotFound)
		})
	}
}

func TestFileInput_OpenFailureIsRetryable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "late.txt")
	in, err := NewFileInput(path, nil)
	require.NoError(t, err)
	defer in.Close()

	_, err = in.Chunk(context.Background())
	var openErr *OpenError
	require.ErrorAs(t, err, &openErr)
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, os.WriteFile(path, []byte("domain.one\n"), 0600))

	assert.Equal(t, [][]byte{[]byte("domain.one\n")}, drain(t, in))
}

func TestFileInput_ResetReplays(t *testing.T) {
	content := listContent(300)
	tests := []struct {
		name        string
		fileName    string
		data        []byte
		compression *Compression
	}{
		{
			name:     "plain",
			fileName: "list.txt",
			data:     content,
		},
		{
			name:        "gzip",
			fileName:    "list.txt.gz",
			data:        gzipBytes(t, content),
			compression: &Compression{Kind: CompressionGzip},
		},
		{
			name:        "tar.gz",
			fileName:    "list.tar.gz",
			data:        tarGzBytes(t, tarMember{name: "list.txt", data: content}),
			compression: &Compression{Kind: CompressionTarGz, MemberPath: "list.txt"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.fileName, tt.data)
			in, err := NewFileInput(path, tt.compression)
			require.NoError(t, err)
			defer in.Close()

			first := drain(t, in)

			require.NoError(t, in.Reset(context.Background()))
			second := drain(t, in)
			assert.Equal(t, first, second)

			// reset part way through a drain
			require.NoError(t, in.Reset(context.Background()))
			_, err = in.Chunk(context.Background())
			require.NoError(t, err)
			require.NoError(t, in.Reset(context.Background()))
			assert.Equal(t, first, drain(t, in))
		})
	}
}

func TestFileInput_ResetBeforeFirstChunk(t *testing.T) {
	path := writeFile(t, "list.txt", []byte("a\nb\n"))
	in, err := NewFileInput(path, nil)
	require.NoError(t, err)
	defer in.Close()

	require.NoError(t, in.Reset(context.Background()))
	assert.Equal(t, [][]byte{[]byte("a\n"), []byte("b\n")}, drain(t, in))
}

func TestFileInput_Close(t *testing.T) {
	path := writeFile(t, "list.txt", []byte("a\nb\n"))
	in, err := NewFileInput(path, nil)
	require.NoError(t, err)

	// closing an unopened input is a no-op
	assert.NoError(t, in.Close())

	chunk, err := in.Chunk(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a\n", string(chunk))

	assert.NoError(t, in.Close())
	assert.Nil(t, in.handle)

	// after close the next chunk reopens from the start
	chunk, err = in.Chunk(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a\n", string(chunk))
	assert.NoError(t, in.Close())
}

func TestFileInput_CancelledContextDoesNotPreventOpen(t *testing.T) {
	path := writeFile(t, "list.txt", []byte("a\n"))
	in, err := NewFileInput(path, nil)
	require.NoError(t, err)
	defer in.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chunk, err := in.Chunk(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a\n", string(chunk))

	_, err = in.Chunk(ctx)
	assert.True(t, errors.Is(err, io.EOF))
}
