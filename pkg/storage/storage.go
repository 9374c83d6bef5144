// Package storage puts export files somewhere an operator can fetch them.
package storage

import (
	"context"
	"io"
)

type PutInput struct {
	Filename    string // used for the extension and the key prefix
	ContentType string
}

type PutResult struct {
	Key string
	URL string
}

type Storage interface {
	Put(ctx context.Context, r io.Reader, in PutInput) (PutResult, error)
}
