package connection

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/storage"
	"github.com/mitchellh/go-homedir"
	"google.golang.org/api/impersonate"
	"google.golang.org/api/option"
)

// GcpConnection holds the settings used to read lists stored as GCS objects
type GcpConnection struct {
	Credentials  *string `hcl:"credentials"`
	QuotaProject *string `hcl:"quota_project"`
	Impersonate  *string `hcl:"impersonate"`
	// Endpoint overrides the storage API endpoint, e.g. for an emulator
	Endpoint *string `hcl:"endpoint"`
	// Anonymous reads public buckets without credentials
	Anonymous *bool `hcl:"anonymous"`
}

func (c *GcpConnection) Validate() error {
	if c.Anonymous != nil && *c.Anonymous && (c.Credentials != nil || c.Impersonate != nil) {
		return fmt.Errorf("anonymous cannot be combined with credentials or impersonate")
	}
	return nil
}

func (c *GcpConnection) Identifier() string {
	return "gcp"
}

func (c *GcpConnection) GetClientOptions(ctx context.Context) ([]option.ClientOption, error) {
	var opts []option.ClientOption

	if c.Endpoint != nil {
		opts = append(opts, option.WithEndpoint(*c.Endpoint))
	}

	if c.Anonymous != nil && *c.Anonymous {
		return append(opts, option.WithoutAuthentication()), nil
	}

	// credentials
	if c.Credentials != nil {
		contents, err := c.pathOrContents(*c.Credentials)
		if err != nil {
			return opts, fmt.Errorf("error reading credentials file: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON([]byte(contents)))
	}

	// quota project
	qp := os.Getenv("GOOGLE_CLOUD_QUOTA_PROJECT")
	if c.QuotaProject != nil {
		qp = *c.QuotaProject
	}
	if qp != "" {
		opts = append(opts, option.WithQuotaProject(qp))
	}

	// impersonation of service account
	if c.Impersonate != nil {
		ts, err := impersonate.CredentialsTokenSource(ctx, impersonate.CredentialsConfig{
			TargetPrincipal: *c.Impersonate,
			Scopes:          []string{"https://www.googleapis.com/auth/devstorage.read_only"},
		})
		if err != nil {
			return opts, err
		}

		opts = append(opts, option.WithTokenSource(ts))
	}
	return opts, nil
}

func (c *GcpConnection) NewStorageClient(ctx context.Context) (*storage.Client, error) {
	opts, err := c.GetClientOptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed setting GCP Storage client config: %w", err)
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCP Storage client: %w", err)
	}
	return client, nil
}

// pathOrContents accepts either a path to a credentials file or the
// credentials JSON itself
func (c *GcpConnection) pathOrContents(in string) (string, error) {
	if len(in) == 0 {
		return "", nil
	}

	filePath, err := homedir.Expand(in)
	if err != nil {
		return filePath, err
	}

	if _, err := os.Stat(filePath); err == nil {
		contents, err := os.ReadFile(filePath)
		if err != nil {
			return string(contents), err
		}
		return string(contents), nil
	}

	if len(filePath) > 1 && (filePath[0] == '/' || filePath[0] == '\\') {
		return "", fmt.Errorf("%s: no such file or dir", filePath)
	}

	return in, nil
}
