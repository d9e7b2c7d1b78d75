package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInput(t *testing.T) {
	in, err := NewInput(Descriptor{Path: "/tmp/list.txt"})
	require.NoError(t, err)
	assert.IsType(t, &FileInput{}, in)

	in, err = NewInput(Descriptor{Path: "/tmp/list.tar.gz", Compression: &Compression{Kind: CompressionTarGz, MemberPath: "list.txt"}}, WithChunkSize(64))
	require.NoError(t, err)
	require.IsType(t, &FileInput{}, in)
	assert.Equal(t, 64, in.(*FileInput).chunkSize)
	assert.Equal(t, "/tmp/list.tar.gz (tar.gz)", in.(*FileInput).String())

	in, err = NewInput(Descriptor{URL: "https://example.com/hosts"})
	require.NoError(t, err)
	assert.IsType(t, &NetworkInput{}, in)

	_, err = NewInput(Descriptor{})
	assert.Error(t, err)
}
