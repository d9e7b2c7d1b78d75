package output

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"
)

const (
	EntryPrefix = "0.0.0.0 "
	// MaxLineLength bounds a single line, whether it arrives whole or across chunks
	MaxLineLength = 64 * 1024
)

var (
	ErrInvalidUTF8 = errors.New("invalid utf-8")
	ErrLineTooLong = errors.New("line too long")
)

// Result is the output of transforming one chunk
type Result struct {
	// the rendered hosts-file records, possibly empty
	Data []byte
	// the number of records in Data
	Lines int
	// lines which held no entry
	Skipped int
	// lines which were dropped, one error per line
	DecodeErrors []error
}

// HostsFileTransform converts raw list chunks into "0.0.0.0 <entry>\n" records.
// Chunks need not end on a line boundary: an incomplete trailing line is held back
// until the next chunk, or until Flush.
// A HostsFileTransform is not safe for concurrent use.
type HostsFileTransform struct {
	extractor EntryExtractor
	pending   []byte
	// set once the pending line exceeds MaxLineLength, the rest of the line is dropped
	discarding bool
	// number of lines seen so far, used in decode errors
	lineNumber int
}

// NewHostsFileTransform returns a transform. A nil extractor uses each trimmed line as the entry.
func NewHostsFileTransform(extractor EntryExtractor) *HostsFileTransform {
	return &HostsFileTransform{extractor: extractor}
}

func (t *HostsFileTransform) Transform(chunk []byte) Result {
	var res Result
	for len(chunk) > 0 {
		idx := bytes.IndexByte(chunk, '\n')
		if idx == -1 {
			t.hold(chunk, &res)
			break
		}

		line := chunk[:idx]
		chunk = chunk[idx+1:]

		if t.discarding {
			t.discarding = false
			continue
		}
		if len(t.pending)+len(line) > MaxLineLength {
			t.dropLine(&res, ErrLineTooLong)
			t.pending = t.pending[:0]
			continue
		}
		if len(t.pending) > 0 {
			t.pending = append(t.pending, line...)
			line = t.pending
		}
		t.renderLine(line, &res)
		t.pending = t.pending[:0]
	}
	return res
}

// Flush renders any held back partial line. It is called once the input is exhausted.
func (t *HostsFileTransform) Flush() Result {
	var res Result
	if len(t.pending) > 0 {
		t.renderLine(t.pending, &res)
	}
	t.pending = t.pending[:0]
	t.discarding = false
	return res
}

// hold keeps an incomplete trailing line until the next chunk.
// Held bytes must be valid utf-8 apart from a rune split at the chunk boundary,
// anything else is dropped at once.
func (t *HostsFileTransform) hold(partial []byte, res *Result) {
	if t.discarding {
		return
	}
	t.pending = append(t.pending, partial...)
	if len(t.pending) > MaxLineLength {
		t.dropLine(res, ErrLineTooLong)
		t.pending = t.pending[:0]
		t.discarding = true
		return
	}

	complete := len(t.pending) - incompleteRuneLen(t.pending)
	if !utf8.Valid(t.pending[:complete]) {
		t.dropLine(res, ErrInvalidUTF8)
		t.pending = t.pending[:0]
	}
}

// incompleteRuneLen returns the length of the rune prefix at the end of b which
// the next chunk may still complete, or 0
func incompleteRuneLen(b []byte) int {
	for i := 1; i < utf8.UTFMax && i <= len(b); i++ {
		start := len(b) - i
		if !utf8.RuneStart(b[start]) {
			continue
		}
		if utf8.FullRune(b[start:]) {
			return 0
		}
		return i
	}
	return 0
}

func (t *HostsFileTransform) dropLine(res *Result, err error) {
	t.lineNumber++
	res.DecodeErrors = append(res.DecodeErrors, fmt.Errorf("line %d: %w", t.lineNumber, err))
}

func (t *HostsFileTransform) renderLine(line []byte, res *Result) {
	if !utf8.Valid(line) {
		t.dropLine(res, ErrInvalidUTF8)
		return
	}
	t.lineNumber++

	entry := string(bytes.TrimSpace(line))
	if entry != "" && t.extractor != nil {
		var ok bool
		entry, ok = t.extractor.Extract(entry)
		if !ok {
			entry = ""
		}
	}
	if entry == "" {
		res.Skipped++
		return
	}

	res.Data = append(res.Data, EntryPrefix...)
	res.Data = append(res.Data, entry...)
	res.Data = append(res.Data, '\n')
	res.Lines++
}
