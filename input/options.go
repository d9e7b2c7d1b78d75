package input

import (
	"net/http"

	"github.com/turbot/hostspipe/connection"
)

// DefaultChunkSize is the transfer buffer size for all reads which are not line oriented
const DefaultChunkSize = 1024

type inputOptions struct {
	chunkSize int
	client    *http.Client
	userAgent string

	aws *connection.AwsConnection
	gcp *connection.GcpConnection
	ftp *connection.FtpConnection
}

func newInputOptions(opts ...Option) *inputOptions {
	o := &inputOptions{chunkSize: DefaultChunkSize}
	for _, opt := range opts {
		opt(o)
	}
	if o.client == nil {
		o.client = connection.SharedHTTPClient()
	}
	if o.aws == nil {
		o.aws = &connection.AwsConnection{}
	}
	if o.gcp == nil {
		o.gcp = &connection.GcpConnection{}
	}
	if o.ftp == nil {
		o.ftp = &connection.FtpConnection{}
	}
	return o
}

type Option func(*inputOptions)

// WithChunkSize sets the maximum chunk size for compressed, archive and network reads.
// Values less than 1 are ignored.
func WithChunkSize(size int) Option {
	return func(o *inputOptions) {
		if size > 0 {
			o.chunkSize = size
		}
	}
}

// WithHTTPClient sets the client used by network inputs
func WithHTTPClient(client *http.Client) Option {
	return func(o *inputOptions) {
		o.client = client
	}
}

// WithUserAgent sets the User-Agent header sent by network inputs
func WithUserAgent(userAgent string) Option {
	return func(o *inputOptions) {
		o.userAgent = userAgent
	}
}

// WithAwsConnection sets the connection used for s3:// locations
func WithAwsConnection(c *connection.AwsConnection) Option {
	return func(o *inputOptions) {
		o.aws = c
	}
}

// WithGcpConnection sets the connection used for gs:// locations
func WithGcpConnection(c *connection.GcpConnection) Option {
	return func(o *inputOptions) {
		o.gcp = c
	}
}

// WithFtpConnection sets the connection used for ftp:// locations
func WithFtpConnection(c *connection.FtpConnection) Option {
	return func(o *inputOptions) {
		o.ftp = c
	}
}
