package storage

import (
	"fmt"
	"time"
)

// Config holds S3-compatible storage configuration.
// Leaving Bucket empty disables report upload.
type Config struct {
	// Bucket is the target bucket name.
	Bucket string `env:"BUCKET"`

	// AccessKey is the access key ID.
	AccessKey string `env:"ACCESS_KEY"`

	// SecretKey is the secret access key.
	SecretKey string `env:"SECRET_KEY"`

	// Endpoint is a custom endpoint URL for MinIO or other S3-compatible services.
	Endpoint string `env:"ENDPOINT"`

	// Region is the bucket region.
	Region string `env:"REGION" envDefault:"us-east-1"`

	// Prefix is prepended to every object key.
	Prefix string `env:"PREFIX" envDefault:"reports"`

	// URLExpiry is the lifetime of pre-signed download URLs.
	URLExpiry time.Duration `env:"URL_EXPIRY" envDefault:"24h"`

	// PathStyle enables path-style addressing (required for MinIO).
	PathStyle bool `env:"PATH_STYLE"`
}

// FileInfo describes an uploaded object.
type FileInfo struct {
	Key         string
	ContentType string
	URL         string // pre-signed download URL, empty if presigning failed
	Size        int64
}

const (
	DefaultRegion    = "us-east-1"
	DefaultURLExpiry = 24 * time.Hour
)

// Enabled reports whether a bucket is configured.
func (c Config) Enabled() bool {
	return c.Bucket != ""
}

func (c *Config) applyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.URLExpiry <= 0 {
		c.URLExpiry = DefaultURLExpiry
	}
}

func (c *Config) validate() error {
	if c.Bucket == "" {
		return fmt.Errorf("%w: bucket is required", ErrInvalidConfig)
	}
	if c.AccessKey == "" || c.SecretKey == "" {
		return fmt.Errorf("%w: access key and secret key are required", ErrInvalidConfig)
	}
	return nil
}
