package storage

import (
	"fmt"

	"github.com/kbukum/memeforanyone/validation"
)

// Backend selects the object store driver.
type Backend string

// Supported backends.
const (
	BackendFS Backend = "fs"
	BackendS3 Backend = "s3"
)

// Default configuration values.
const (
	DefaultBackend = BackendFS
	DefaultRoot    = "./data"
)

// Config holds storage configuration. Empty optional fields are treated as
// absent and left to the driver's own defaults.
type Config struct {
	// Backend selects the driver: "fs" or "s3".
	Backend Backend `mapstructure:"backend" json:"backend"`

	// Root is the base directory for fs, or the bucket name for s3.
	Root string `mapstructure:"root" json:"root"`

	// S3Endpoint is a custom S3-compatible endpoint (e.g. MinIO).
	S3Endpoint string `mapstructure:"s3_endpoint" json:"s3_endpoint,omitempty"`

	// S3Region is the AWS region.
	S3Region string `mapstructure:"s3_region" json:"s3_region,omitempty"`

	// S3AccessKey is the access key ID.
	S3AccessKey string `mapstructure:"s3_access_key" json:"s3_access_key,omitempty"`

	// S3SecretKey is the secret access key.
	S3SecretKey string `mapstructure:"s3_secret_key" json:"s3_secret_key,omitempty"`
}

// Validate checks the required fields are set. Whether the backend is
// supported is decided by the driver registry in New.
func (c Config) Validate() error {
	return validation.New().
		Required("storage.backend", string(c.Backend)).
		Required("storage.root", c.Root).
		Err()
}

// Redacted returns a copy with credentials masked.
func (c Config) Redacted() Config {
	c.S3AccessKey = redact(c.S3AccessKey)
	c.S3SecretKey = redact(c.S3SecretKey)
	return c
}

// String describes the target without credentials, e.g. "s3 bucket=memes endpoint=http://minio:9000".
func (c Config) String() string {
	switch c.Backend {
	case BackendS3:
		s := fmt.Sprintf("s3 bucket=%s", c.Root)
		if c.S3Region != "" {
			s += " region=" + c.S3Region
		}
		if c.S3Endpoint != "" {
			s += " endpoint=" + c.S3Endpoint
		}
		return s
	default:
		return fmt.Sprintf("%s root=%s", c.Backend, c.Root)
	}
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "****"
}
