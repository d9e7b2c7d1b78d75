package connection

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/jlaffaye/ftp"
)

const (
	defaultFtpPort    = "21"
	defaultFtpTimeout = 30 * time.Second
)

// FtpConnection holds the login used for ftp:// list locations.
// With no username set an anonymous login is performed.
type FtpConnection struct {
	Username       *string `hcl:"username"`
	Password       *string `hcl:"password"`
	TimeoutSeconds *int    `hcl:"timeout_seconds"`
}

func (c *FtpConnection) Validate() error {
	if c.Password != nil && c.Username == nil {
		return fmt.Errorf("password set without username")
	}
	if c.TimeoutSeconds != nil && *c.TimeoutSeconds < 1 {
		return fmt.Errorf("timeout_seconds must be greater than or equal to 1")
	}
	return nil
}

func (c *FtpConnection) Identifier() string {
	return "ftp"
}

// Dial connects and logs in to host, which may omit the port
func (c *FtpConnection) Dial(ctx context.Context, host string) (*ftp.ServerConn, error) {
	addr := host
	if _, _, err := net.SplitHostPort(host); err != nil {
		addr = net.JoinHostPort(host, defaultFtpPort)
	}

	timeout := defaultFtpTimeout
	if c.TimeoutSeconds != nil {
		timeout = time.Duration(*c.TimeoutSeconds) * time.Second
	}

	conn, err := ftp.Dial(addr, ftp.DialWithContext(ctx), ftp.DialWithTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("error connecting to %s: %w", addr, err)
	}

	user, password := "anonymous", "anonymous"
	if c.Username != nil {
		user = *c.Username
		password = ""
		if c.Password != nil {
			password = *c.Password
		}
	}
	if err := conn.Login(user, password); err != nil {
		_ = conn.Quit()
		return nil, fmt.Errorf("error logging in to %s as %s: %w", addr, user, err)
	}
	return conn, nil
}
