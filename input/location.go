package input

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mitchellh/go-homedir"
	"github.com/turbot/hostspipe/connection"
)

type locationScheme string

const (
	schemeLocal locationScheme = "file"
	schemeS3    locationScheme = "s3"
	schemeGcs   locationScheme = "gs"
	schemeFtp   locationScheme = "ftp"
)

// location is a parsed file-backed list path
type location struct {
	scheme locationScheme
	// bucket or host, empty for local files
	host string
	// object key, remote path or local file path
	path string
}

func parseLocation(p string) (*location, error) {
	scheme, rest, found := strings.Cut(p, "://")
	if !found {
		expanded, err := homedir.Expand(p)
		if err != nil {
			return nil, fmt.Errorf("invalid path %q: %w", p, err)
		}
		return &location{scheme: schemeLocal, path: expanded}, nil
	}

	switch locationScheme(scheme) {
	case schemeLocal:
		return &location{scheme: schemeLocal, path: rest}, nil
	case schemeS3, schemeGcs:
		bucket, key, ok := strings.Cut(rest, "/")
		if !ok || bucket == "" || key == "" {
			return nil, fmt.Errorf("invalid location %q: expected %s://<bucket>/<object>", p, scheme)
		}
		return &location{scheme: locationScheme(scheme), host: bucket, path: key}, nil
	case schemeFtp:
		u, err := url.Parse(p)
		if err != nil {
			return nil, fmt.Errorf("invalid location %q: %w", redact(p), err)
		}
		if u.Host == "" || u.Path == "" || u.Path == "/" {
			return nil, fmt.Errorf("invalid location %q: expected ftp://<host>/<path>", redact(p))
		}
		return &location{scheme: schemeFtp, host: u.Host, path: u.Path}, nil
	default:
		return nil, fmt.Errorf("unsupported location scheme %q in %q", scheme, redact(p))
	}
}

// opener opens the raw byte stream of a file-backed list
type opener interface {
	open(ctx context.Context) (io.ReadCloser, error)
}

func newOpener(loc *location, opts *inputOptions) opener {
	switch loc.scheme {
	case schemeS3:
		return &s3Opener{bucket: loc.host, key: loc.path, conn: opts.aws}
	case schemeGcs:
		return &gcsOpener{bucket: loc.host, object: loc.path, conn: opts.gcp}
	case schemeFtp:
		return &ftpOpener{host: loc.host, path: loc.path, conn: opts.ftp}
	default:
		return &fileOpener{path: loc.path}
	}
}

type fileOpener struct {
	path string
}

func (o *fileOpener) open(_ context.Context) (io.ReadCloser, error) {
	return os.Open(o.path)
}

type s3Opener struct {
	bucket string
	key    string
	conn   *connection.AwsConnection

	// the client is created on first open and reused by subsequent resets
	clientLock sync.Mutex
	client     *s3.Client
}

func (o *s3Opener) open(ctx context.Context) (io.ReadCloser, error) {
	client, err := o.getClient(ctx)
	if err != nil {
		return nil, err
	}

	output, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(o.key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object, %w", err)
	}
	return output.Body, nil
}

func (o *s3Opener) getClient(ctx context.Context) (*s3.Client, error) {
	o.clientLock.Lock()
	defer o.clientLock.Unlock()

	if o.client != nil {
		return o.client, nil
	}
	client, err := o.conn.NewS3Client(ctx)
	if err != nil {
		return nil, err
	}
	o.client = client
	return client, nil
}

type gcsOpener struct {
	bucket string
	object string
	conn   *connection.GcpConnection
}

func (o *gcsOpener) open(ctx context.Context) (io.ReadCloser, error) {
	client, err := o.conn.NewStorageClient(ctx)
	if err != nil {
		return nil, err
	}

	reader, err := client.Bucket(o.bucket).Object(o.object).NewReader(ctx)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to get object reader: %w", err)
	}
	return &closeBoth{ReadCloser: reader, after: client.Close}, nil
}

type ftpOpener struct {
	host string
	path string
	conn *connection.FtpConnection
}

func (o *ftpOpener) open(ctx context.Context) (io.ReadCloser, error) {
	serverConn, err := o.conn.Dial(ctx, o.host)
	if err != nil {
		return nil, err
	}

	response, err := serverConn.Retr(o.path)
	if err != nil {
		_ = serverConn.Quit()
		return nil, fmt.Errorf("failed to retrieve %s: %w", o.path, err)
	}
	return &closeBoth{ReadCloser: response, after: serverConn.Quit}, nil
}

// closeBoth closes the stream and then the client it was read from
type closeBoth struct {
	io.ReadCloser
	after func() error
}

func (c *closeBoth) Close() error {
	return errors.Join(c.ReadCloser.Close(), c.after())
}
