package jss

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// ErrConfig is wrapped by configuration validation failures.
var ErrConfig = errors.New("invalid jss config")

// Config holds the JSS connection settings. The field names mirror the
// python-jss preference keys jss_url, jss_user, jss_pass and verify.
type Config struct {
	URL             string        `json:"url" yaml:"url"`
	Username        string        `json:"username" yaml:"username"`
	Password        string        `json:"password" yaml:"password"`
	VerifySSL       bool          `json:"verify_ssl" yaml:"verify_ssl" default:"true"`
	Timeout         time.Duration `json:"timeout" yaml:"timeout" default:"30s"`
	MaxRetries      int           `json:"max_retries" yaml:"max_retries" default:"3"`
	RetryBaseDelay  time.Duration `json:"retry_base_delay" yaml:"retry_base_delay" default:"500ms"`
	BreakerFailures int           `json:"breaker_failures" yaml:"breaker_failures" default:"5"`
	BreakerTimeout  time.Duration `json:"breaker_timeout" yaml:"breaker_timeout" default:"30s"`
}

// Validate checks that the config can be used to build a client.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil config", ErrConfig)
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("%w: url: %v", ErrConfig, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: url %q needs an http or https scheme", ErrConfig, c.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: url %q has no host", ErrConfig, c.URL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrConfig)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: max_retries must not be negative", ErrConfig)
	}
	return nil
}
