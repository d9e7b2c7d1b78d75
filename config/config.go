package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/iancoleman/strcase"
	"github.com/mitchellh/go-homedir"
	typehelpers "github.com/turbot/go-kit/types"
	"github.com/turbot/hostspipe/connection"
	"github.com/turbot/hostspipe/input"
	"github.com/turbot/hostspipe/observable"
	"github.com/turbot/hostspipe/output"
	"golang.org/x/exp/maps"
)

const (
	DefaultMaxConcurrency = 4
	DefaultRetries        = 1
	DefaultUserAgent      = "hostspipe"
	// the extension given to output files which do not set one explicitly
	OutputExtension = ".hosts"
)

// Config is the top level hostspipe configuration
type Config struct {
	TmpDir         *string  `hcl:"tmp_dir"`
	OutDir         string   `hcl:"out_dir,optional"`
	MaxConcurrency *int     `hcl:"max_concurrency"`
	FetchRate      *float64 `hcl:"fetch_rate"`
	Retries        *int     `hcl:"retries"`
	ChunkSize      *int     `hcl:"chunk_size"`
	MessageBuffer  *int     `hcl:"message_buffer"`
	Overflow       *string  `hcl:"overflow"`
	UserAgent      *string  `hcl:"user_agent"`
	RequestTimeout *int     `hcl:"request_timeout"`

	Aws *connection.AwsConnection `hcl:"aws,block"`
	Gcp *connection.GcpConnection `hcl:"gcp,block"`
	Ftp *connection.FtpConnection `hcl:"ftp,block"`

	Lists []*ListConfig `hcl:"list,block"`
}

// ListConfig describes a single list to fetch
type ListConfig struct {
	Name        string             `hcl:"name,label"`
	Path        *string            `hcl:"path"`
	URL         *string            `hcl:"url"`
	Format      *string            `hcl:"format"`
	Output      *string            `hcl:"output"`
	Compression *CompressionConfig `hcl:"compression,block"`
}

type CompressionConfig struct {
	Kind       string  `hcl:"kind"`
	MemberPath *string `hcl:"member_path"`
}

func (c *Config) setDefaults() error {
	if c.TmpDir == nil {
		c.TmpDir = ptr(filepath.Join(os.TempDir(), "hostspipe"))
	}
	for _, dir := range []*string{c.TmpDir, &c.OutDir} {
		expanded, err := homedir.Expand(*dir)
		if err != nil {
			return fmt.Errorf("invalid directory %q: %w", *dir, err)
		}
		*dir = expanded
	}

	if c.MaxConcurrency == nil {
		c.MaxConcurrency = ptr(DefaultMaxConcurrency)
	}
	if c.Retries == nil {
		c.Retries = ptr(DefaultRetries)
	}
	if c.ChunkSize == nil {
		c.ChunkSize = ptr(input.DefaultChunkSize)
	}
	if c.MessageBuffer == nil {
		c.MessageBuffer = ptr(observable.DefaultBufferSize)
	}
	if c.Overflow == nil {
		c.Overflow = ptr(string(observable.OverflowBlock))
	}
	if c.UserAgent == nil {
		c.UserAgent = ptr(DefaultUserAgent)
	}
	return nil
}

func (c *Config) Validate() error {
	var validationErrors []error
	if c.OutDir == "" {
		validationErrors = append(validationErrors, errors.New("out_dir must be set"))
	}
	if valueOf(c.MaxConcurrency) < 1 {
		validationErrors = append(validationErrors, errors.New("max_concurrency must be at least 1"))
	}
	if c.FetchRate != nil && *c.FetchRate <= 0 {
		validationErrors = append(validationErrors, errors.New("fetch_rate must be greater than 0"))
	}
	if valueOf(c.Retries) < 0 {
		validationErrors = append(validationErrors, errors.New("retries cannot be negative"))
	}
	if valueOf(c.ChunkSize) < 1 {
		validationErrors = append(validationErrors, errors.New("chunk_size must be at least 1"))
	}
	if valueOf(c.MessageBuffer) < 1 {
		validationErrors = append(validationErrors, errors.New("message_buffer must be at least 1"))
	}
	if !c.OverflowPolicy().IsValid() {
		validationErrors = append(validationErrors, fmt.Errorf("overflow must be %q or %q", observable.OverflowBlock, observable.OverflowDropOldest))
	}
	if c.RequestTimeout != nil && *c.RequestTimeout < 1 {
		validationErrors = append(validationErrors, errors.New("request_timeout must be at least 1 second"))
	}

	if c.Aws != nil {
		if err := c.Aws.Validate(); err != nil {
			validationErrors = append(validationErrors, fmt.Errorf("aws: %w", err))
		}
	}
	if c.Gcp != nil {
		if err := c.Gcp.Validate(); err != nil {
			validationErrors = append(validationErrors, fmt.Errorf("gcp: %w", err))
		}
	}
	if c.Ftp != nil {
		if err := c.Ftp.Validate(); err != nil {
			validationErrors = append(validationErrors, fmt.Errorf("ftp: %w", err))
		}
	}

	if len(c.Lists) == 0 {
		validationErrors = append(validationErrors, errors.New("at least one list must be configured"))
	}
	names := make(map[string]struct{})
	outputs := make(map[string]string)
	for _, l := range c.Lists {
		if _, ok := names[l.Name]; ok {
			validationErrors = append(validationErrors, fmt.Errorf("duplicate list name %q", l.Name))
			continue
		}
		names[l.Name] = struct{}{}

		if other, ok := outputs[l.OutputFileName()]; ok {
			validationErrors = append(validationErrors, fmt.Errorf("lists %q and %q write to the same output %s", other, l.Name, l.OutputFileName()))
		}
		outputs[l.OutputFileName()] = l.Name

		if err := l.Validate(); err != nil {
			validationErrors = append(validationErrors, fmt.Errorf("list %q: %w", l.Name, err))
		}
	}

	return errors.Join(validationErrors...)
}

func (c *Config) OverflowPolicy() observable.OverflowPolicy {
	return observable.OverflowPolicy(typehelpers.SafeString(c.Overflow))
}

// ListNames returns the configured list names, sorted
func (c *Config) ListNames() []string {
	names := make(map[string]struct{}, len(c.Lists))
	for _, l := range c.Lists {
		names[l.Name] = struct{}{}
	}
	res := maps.Keys(names)
	slices.Sort(res)
	return res
}

// InputOptions returns the options used to construct every list input
func (c *Config) InputOptions() []input.Option {
	opts := []input.Option{
		input.WithChunkSize(valueOf(c.ChunkSize)),
		input.WithUserAgent(typehelpers.SafeString(c.UserAgent)),
	}
	if c.RequestTimeout != nil {
		opts = append(opts, input.WithHTTPClient(connection.NewHTTPClient(time.Duration(*c.RequestTimeout)*time.Second)))
	}
	if c.Aws != nil {
		opts = append(opts, input.WithAwsConnection(c.Aws))
	}
	if c.Gcp != nil {
		opts = append(opts, input.WithGcpConnection(c.Gcp))
	}
	if c.Ftp != nil {
		opts = append(opts, input.WithFtpConnection(c.Ftp))
	}
	return opts
}

func (l *ListConfig) Validate() error {
	var validationErrors []error
	if l.Name == "" {
		validationErrors = append(validationErrors, errors.New("list name cannot be empty"))
	}
	if err := l.Descriptor().Validate(); err != nil {
		validationErrors = append(validationErrors, err)
	}
	if _, err := output.NewEntryExtractor(typehelpers.SafeString(l.Format)); err != nil {
		validationErrors = append(validationErrors, err)
	}
	if l.Output != nil && (*l.Output == "" || filepath.Base(*l.Output) != *l.Output) {
		validationErrors = append(validationErrors, fmt.Errorf("output %q must be a file name", *l.Output))
	}
	return errors.Join(validationErrors...)
}

// Descriptor returns the input descriptor for the list
func (l *ListConfig) Descriptor() input.Descriptor {
	d := input.Descriptor{
		Path: typehelpers.SafeString(l.Path),
		URL:  typehelpers.SafeString(l.URL),
	}
	if l.Compression != nil {
		d.Compression = &input.Compression{
			Kind:       input.CompressionKind(l.Compression.Kind),
			MemberPath: typehelpers.SafeString(l.Compression.MemberPath),
		}
	}
	return d
}

// Extractor returns the entry extractor for the list format
func (l *ListConfig) Extractor() (output.EntryExtractor, error) {
	return output.NewEntryExtractor(typehelpers.SafeString(l.Format))
}

// OutputFileName returns the name of the file the list is written to, within out_dir
func (l *ListConfig) OutputFileName() string {
	if l.Output != nil {
		return *l.Output
	}
	return strcase.ToSnake(l.Name) + OutputExtension
}

func ptr[T any](v T) *T {
	return &v
}

func valueOf[T any](p *T) T {
	var empty T
	if p == nil {
		return empty
	}
	return *p
}
