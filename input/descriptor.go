package input

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

type CompressionKind string

const (
	CompressionNone  CompressionKind = ""
	CompressionGzip  CompressionKind = "gz"
	CompressionTarGz CompressionKind = "tar.gz"
)

func (k CompressionKind) IsValid() bool {
	switch k {
	case CompressionNone, CompressionGzip, CompressionTarGz:
		return true
	}
	return false
}

// Compression describes how a file-backed list is packaged.
// MemberPath is the path of the list inside a tar.gz archive and is only valid for CompressionTarGz.
type Compression struct {
	Kind       CompressionKind
	MemberPath string
}

func (c *Compression) kind() CompressionKind {
	if c == nil {
		return CompressionNone
	}
	return c.Kind
}

// Descriptor identifies where a list is read from and how it is packaged.
// Exactly one of Path and URL must be set, and Compression may only be used with Path.
type Descriptor struct {
	Path        string
	Compression *Compression
	URL         string
}

// IsNetwork returns true if the descriptor refers to an HTTP(S) endpoint
func (d Descriptor) IsNetwork() bool {
	return d.URL != ""
}

// Location returns the path or url for use in logs and errors.
// Any password in a url is redacted.
func (d Descriptor) Location() string {
	if d.Path != "" {
		return redact(d.Path)
	}
	return redact(d.URL)
}

func (d Descriptor) Validate() error {
	var validationErrors []error

	switch {
	case d.Path == "" && d.URL == "":
		validationErrors = append(validationErrors, errors.New("one of path or url must be set"))
	case d.Path != "" && d.URL != "":
		validationErrors = append(validationErrors, errors.New("path and url cannot both be set"))
	}

	if d.URL != "" {
		u, err := url.Parse(d.URL)
		switch {
		case err != nil:
			validationErrors = append(validationErrors, fmt.Errorf("invalid url: %w", err))
		case u.Scheme != "http" && u.Scheme != "https":
			validationErrors = append(validationErrors, fmt.Errorf("unsupported url scheme %q: expected http or https", u.Scheme))
		case u.Host == "":
			validationErrors = append(validationErrors, fmt.Errorf("url %s has no host", redact(d.URL)))
		}
		if d.Compression != nil {
			validationErrors = append(validationErrors, errors.New("compression is only supported for file-backed lists"))
		}
	}

	if d.Path != "" {
		if _, err := parseLocation(d.Path); err != nil {
			validationErrors = append(validationErrors, err)
		}
	}

	if c := d.Compression; c != nil {
		switch {
		case !c.Kind.IsValid():
			validationErrors = append(validationErrors, fmt.Errorf("unsupported compression %q: expected %q or %q", c.Kind, CompressionGzip, CompressionTarGz))
		case c.Kind == CompressionTarGz && c.MemberPath == "":
			validationErrors = append(validationErrors, fmt.Errorf("member_path is required for %q compression", CompressionTarGz))
		case c.Kind != CompressionTarGz && c.MemberPath != "":
			validationErrors = append(validationErrors, fmt.Errorf("member_path is only valid for %q compression", CompressionTarGz))
		case c.Kind == CompressionTarGz && path.Clean(c.MemberPath) == ".":
			validationErrors = append(validationErrors, fmt.Errorf("invalid member_path %q", c.MemberPath))
		}
	}

	return errors.Join(validationErrors...)
}

func redact(location string) string {
	if !strings.Contains(location, "://") {
		return location
	}
	u, err := url.Parse(location)
	if err != nil {
		return location
	}
	return u.Redacted()
}
