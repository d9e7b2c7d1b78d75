package input

import (
	"archive/tar"
	"bufio"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"path"
)

type handleKind string

const (
	handleKindFile  handleKind = "file"
	handleKindGzip  handleKind = "gzip"
	handleKindTarGz handleKind = "tar.gz"
)

// handle is the live, format specific resource behind a FileInput
type handle interface {
	kind() handleKind
	// next returns the next chunk of data, or io.EOF
	next() ([]byte, error)
	Close() error
}

// newHandle layers the readers required by compression over the raw stream.
// The handle takes ownership of raw, closing it on failure.
func newHandle(raw io.ReadCloser, compression *Compression, chunkSize int) (handle, error) {
	buffered := bufio.NewReader(raw)

	switch compression.kind() {
	case CompressionGzip:
		gz, err := newGzipReader(buffered)
		if err != nil {
			raw.Close()
			return nil, err
		}
		return &streamHandle{handleKind: handleKindGzip, reader: gz, buf: make([]byte, chunkSize), closers: []io.Closer{gz, raw}}, nil

	case CompressionTarGz:
		gz, err := newGzipReader(buffered)
		if err != nil {
			raw.Close()
			return nil, err
		}
		entry, err := findMember(tar.NewReader(gz), compression.MemberPath)
		if err != nil {
			gz.Close()
			raw.Close()
			return nil, err
		}
		return &streamHandle{handleKind: handleKindTarGz, reader: entry, buf: make([]byte, chunkSize), closers: []io.Closer{gz, raw}}, nil

	default:
		return &lineHandle{reader: buffered, closer: raw}, nil
	}
}

// newGzipReader returns a decompressing reader over r.
// A stream with no gzip header at all (a zero byte file) is treated as an empty source.
func newGzipReader(r io.Reader) (io.ReadCloser, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return io.NopCloser(bytes.NewReader(nil)), nil
		}
		return nil, fmt.Errorf("error creating gzip reader: %w", err)
	}
	return gz, nil
}

// findMember scans archive entries in order until one matches memberPath
func findMember(tr *tar.Reader, memberPath string) (io.Reader, error) {
	wanted := path.Clean(memberPath)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s", ErrMemberNotFound, memberPath)
		}
		if err != nil {
			return nil, fmt.Errorf("error reading archive: %w", err)
		}
		if header.Typeflag == tar.TypeReg && path.Clean(header.Name) == wanted {
			return tr, nil
		}
	}
}

// lineHandle returns a newline delimited record per call
type lineHandle struct {
	reader *bufio.Reader
	closer io.Closer
}

func (h *lineHandle) kind() handleKind {
	return handleKindFile
}

func (h *lineHandle) next() ([]byte, error) {
	line, err := h.reader.ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("error reading line: %w", err)
	}
	// a final line with no trailing newline is returned along with io.EOF
	if len(line) > 0 {
		return line, nil
	}
	return nil, io.EOF
}

func (h *lineHandle) Close() error {
	return h.closer.Close()
}

// streamHandle returns fixed size chunks from a decompressing or archive entry reader
type streamHandle struct {
	handleKind handleKind
	reader     io.Reader
	buf        []byte
	closers    []io.Closer
}

func (h *streamHandle) kind() handleKind {
	return h.handleKind
}

func (h *streamHandle) next() ([]byte, error) {
	n := 0
	for n < len(h.buf) {
		read, err := h.reader.Read(h.buf[n:])
		n += read
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading chunk: %w", err)
		}
	}
	if n == 0 {
		return nil, io.EOF
	}
	// the buffer is reused, so the caller gets a copy
	return bytes.Clone(h.buf[:n]), nil
}

func (h *streamHandle) Close() error {
	var errs []error
	for _, c := range h.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
