package output

import (
	"fmt"
	"strings"

	"github.com/satyrius/gonx"
)

const (
	// FormatPlain treats each line as an entry
	FormatPlain = "plain"
	// FormatHosts reads "<ip> <domain>" lines, as found in hosts files
	FormatHosts = "hosts"

	// the gonx field holding the entry in hosts and custom formats
	domainField = "domain"
	hostsFormat = "$ip $" + domainField
)

// EntryExtractor pulls the entry out of a trimmed, non-empty line.
// It returns false if the line holds no entry.
type EntryExtractor interface {
	Extract(line string) (string, bool)
}

// NewEntryExtractor returns the extractor for a list format: "plain", "hosts", or a
// gonx format string with a $domain field such as "$domain $comment".
// The plain format returns a nil extractor.
func NewEntryExtractor(format string) (EntryExtractor, error) {
	switch format {
	case "", FormatPlain:
		return nil, nil
	case FormatHosts:
		return newGonxExtractor(hostsFormat), nil
	}
	if !strings.Contains(format, "$"+domainField) {
		return nil, fmt.Errorf("invalid format %q: expected %q, %q or a format containing $%s", format, FormatPlain, FormatHosts, domainField)
	}
	return newGonxExtractor(format), nil
}

// gonxExtractor parses lines with a gonx log format and returns the domain field
type gonxExtractor struct {
	parser *gonx.Parser
}

func newGonxExtractor(format string) *gonxExtractor {
	return &gonxExtractor{parser: gonx.NewParser(format)}
}

func (e *gonxExtractor) Extract(line string) (string, bool) {
	if strings.HasPrefix(line, "#") {
		return "", false
	}
	// collapse tabs and runs of spaces so single-space formats match
	entry, err := e.parser.ParseString(strings.Join(strings.Fields(line), " "))
	if err != nil {
		return "", false
	}
	domain, err := entry.Field(domainField)
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(domain), true
}
