package input

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// drain reads the input until io.EOF, failing the test on any other error
func drain(t *testing.T, in Input) [][]byte {
	t.Helper()
	var chunks [][]byte
	for {
		chunk, err := in.Chunk(context.Background())
		if errors.Is(err, io.EOF) {
			return chunks
		}
		require.NoError(t, err)
		require.NotEmpty(t, chunk, "chunk must not be empty")
		chunks = append(chunks, chunk)
	}
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0600))
	return p
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write(data)
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

type tarMember struct {
	name string
	data []byte
	dir  bool
}

func tarGzBytes(t *testing.T, members ...tarMember) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, m := range members {
		header := &tar.Header{Name: m.name, Mode: 0600, Size: int64(len(m.data)), Typeflag: tar.TypeReg}
		if m.dir {
			header = &tar.Header{Name: m.name, Mode: 0700, Typeflag: tar.TypeDir}
		}
		require.NoError(t, tw.WriteHeader(header))
		if !m.dir {
			_, err := tw.Write(m.data)
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

// listContent returns n newline terminated entries, roughly 20 bytes each
func listContent(n int) []byte {
	var buf bytes.Buffer
	for i := 0; i < n; i++ {
		buf.WriteString("domain-")
		buf.WriteString(string(rune('a' + i%26)))
		buf.WriteString(".example.com\n")
	}
	return buf.Bytes()
}
