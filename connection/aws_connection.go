package connection

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	typehelpers "github.com/turbot/go-kit/types"
)

const defaultAwsRegion = "us-east-1"

// AwsConnection holds the credentials and client settings used to read lists
// stored as S3 objects
type AwsConnection struct {
	Region                *string `hcl:"region"`
	Profile               *string `hcl:"profile"`
	AccessKey             *string `hcl:"access_key"`
	SecretKey             *string `hcl:"secret_key"`
	SessionToken          *string `hcl:"session_token"`
	MaxErrorRetryAttempts *int    `hcl:"max_error_retry_attempts"`
	MinErrorRetryDelay    *int    `hcl:"min_error_retry_delay"`
	EndpointUrl           *string `hcl:"endpoint_url"`
	S3ForcePathStyle      *bool   `hcl:"s3_force_path_style"`
}

func (c *AwsConnection) Validate() error {
	if c.AccessKey != nil && c.SecretKey == nil {
		return fmt.Errorf("access_key set without secret_key")
	}

	if c.AccessKey == nil && c.SecretKey != nil {
		return fmt.Errorf("secret_key set without access_key")
	}

	if c.MinErrorRetryDelay != nil && *c.MinErrorRetryDelay < 1 {
		return fmt.Errorf("min_error_retry_delay must be greater than or equal to 1")
	}

	if c.MaxErrorRetryAttempts != nil && *c.MaxErrorRetryAttempts < 1 {
		return fmt.Errorf("max_error_retry_attempts must be greater than or equal to 1")
	}

	return nil
}

func (c *AwsConnection) Identifier() string {
	return "aws"
}

func (c *AwsConnection) GetClientConfiguration(ctx context.Context) (*aws.Config, error) {
	var configOptions []func(*config.LoadOptions) error

	if c.Profile != nil {
		configOptions = append(configOptions, config.WithSharedConfigProfile(aws.ToString(c.Profile)))
	}

	if c.AccessKey != nil && c.SecretKey != nil {
		provider := credentials.NewStaticCredentialsProvider(
			aws.ToString(c.AccessKey),
			aws.ToString(c.SecretKey),
			typehelpers.SafeString(c.SessionToken))
		configOptions = append(configOptions, config.WithCredentialsProvider(provider))
	}

	configOptions = append(configOptions, config.WithHTTPClient(awsHTTPClient()))

	if c.Region != nil {
		configOptions = append(configOptions, config.WithRegion(*c.Region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}
	if cfg.Region == "" {
		cfg.Region = defaultAwsRegion
	}

	maxRetries := getConfigOrEnvInt(c.MaxErrorRetryAttempts, "AWS_MAX_ATTEMPTS", 9)
	var minRetryDelay = 25 * time.Millisecond
	if c.MinErrorRetryDelay != nil {
		minRetryDelay = time.Duration(*c.MinErrorRetryDelay) * time.Millisecond
	}

	retryer := retry.NewStandard(func(o *retry.StandardOptions) {
		o.MaxAttempts = maxRetries
		o.MaxBackoff = 5 * time.Minute
		o.RateLimiter = NoOpRateLimit{}
		o.Backoff = NewExponentialJitterBackoff(minRetryDelay, maxRetries)
	})
	cfg.Retryer = func() aws.Retryer {
		// UnknownError is the code returned for a 408 from the aws go sdk
		return retry.AddWithErrorCodes(retryer, "UnknownError")
	}

	return &cfg, nil
}

// NewS3Client returns an S3 client honouring the custom endpoint and path style settings
func (c *AwsConnection) NewS3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := c.GetClientConfiguration(ctx)
	if err != nil {
		return nil, err
	}

	endpointUrl := getConfigOrEnv(c.EndpointUrl, "AWS_ENDPOINT_URL")
	forcePathStyle := c.S3ForcePathStyle != nil && *c.S3ForcePathStyle

	return s3.NewFromConfig(*cfg, func(o *s3.Options) {
		if endpointUrl != "" {
			o.BaseEndpoint = aws.String(endpointUrl)
		}
		o.UsePathStyle = forcePathStyle
	}), nil
}

// Helper function to get value from Config or environment variable
func getConfigOrEnv(configValue *string, env string) string {
	if configValue != nil {
		return *configValue
	}

	return os.Getenv(env)
}

func getConfigOrEnvInt(configValue *int, env string, defaultValue int) int {
	if configValue != nil {
		return *configValue
	}

	return readEnvVarToInt(env, defaultValue)
}

// awsHTTPClient uses the SDK's buildable client, so SDK defaults such as
// timeouts are kept, with the dialer swapped for the shared DNS cache.
func awsHTTPClient() aws.HTTPClient {
	client := awshttp.NewBuildableClient()

	if maxConns := readEnvVarToInt(EnvHTTPMaxConnsPerHost, 5000); maxConns > 0 {
		client = client.WithTransportOptions(func(tr *http.Transport) {
			tr.MaxConnsPerHost = maxConns
		})
	}

	if dial := cachingDialContext(client.GetDialer()); dial != nil {
		client = client.WithTransportOptions(func(tr *http.Transport) {
			tr.DialContext = dial
		})
	}
	return client
}

// NoOpRateLimit https://github.com/aws/aws-sdk-go-v2/issues/543
type NoOpRateLimit struct{}

func (NoOpRateLimit) AddTokens(uint) error { return nil }
func (NoOpRateLimit) GetToken(context.Context, uint) (func() error, error) {
	return noOpToken, nil
}
func noOpToken() error { return nil }

// ExponentialJitterBackoff provides backoff delays with jitter based on the
// number of attempts.
type ExponentialJitterBackoff struct {
	minDelay           time.Duration
	maxBackoffAttempts int
}

func NewExponentialJitterBackoff(minDelay time.Duration, maxAttempts int) *ExponentialJitterBackoff {
	return &ExponentialJitterBackoff{minDelay, maxAttempts}
}

// BackoffDelay returns the duration to wait before the next attempt should be
// made.
func (j *ExponentialJitterBackoff) BackoffDelay(attempt int, err error) (time.Duration, error) {
	// jitter is between [0.8, 1.2)
	var jitter = float64(rand.Intn(120-80)+80) / 100

	retryTime := time.Duration(int(float64(int(j.minDelay.Nanoseconds())*int(math.Pow(3, float64(attempt)))) * jitter))

	if retryTime > 5*time.Minute {
		retryTime = 5 * time.Minute
	}

	slog.Info("BackoffDelay:", "attempt", attempt, "retry_time", retryTime.String(), "error", err)

	return retryTime, nil
}
