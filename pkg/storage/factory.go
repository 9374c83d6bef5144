package storage

import (
	"context"
	"fmt"
	"time"
)

// Options selects and configures an export driver.
type Options struct {
	Driver    string // local or r2
	LocalDir  string
	URLPrefix string

	R2AccountID       string
	R2AccessKeyID     string
	R2AccessKeySecret string
	R2BucketName      string
	R2PublicURL       string
	UploadTimeout     time.Duration
}

func New(ctx context.Context, opts Options) (Storage, error) {
	switch opts.Driver {
	case "", "local":
		return NewLocal(opts.LocalDir, opts.URLPrefix), nil
	case "r2":
		timeout := opts.UploadTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		return NewR2Storage(ctx, opts.R2AccountID, opts.R2AccessKeyID, opts.R2AccessKeySecret, opts.R2BucketName, opts.R2PublicURL, timeout)
	default:
		return nil, fmt.Errorf("unknown export driver: %s", opts.Driver)
	}
}
