package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"orders-dashboard/pkg/utils"
)

// Local writes objects into a directory on disk.
type Local struct {
	BaseDir   string
	URLPrefix string

	create func(path string) (io.WriteCloser, error)
}

func createFile(path string) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
}

func NewLocal(baseDir, urlPrefix string) *Local {
	return &Local{BaseDir: baseDir, URLPrefix: urlPrefix, create: createFile}
}

func (l *Local) Put(ctx context.Context, r io.Reader, in PutInput) (PutResult, error) {
	if err := ctx.Err(); err != nil {
		return PutResult{}, err
	}
	if err := os.MkdirAll(l.BaseDir, 0o755); err != nil {
		return PutResult{}, fmt.Errorf("failed to create export dir: %w", err)
	}

	create := l.create
	if create == nil {
		create = createFile
	}

	key := objectKey(in.Filename)
	f, err := create(filepath.Join(l.BaseDir, key))
	if err != nil {
		return PutResult{}, fmt.Errorf("failed to create export file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return PutResult{}, fmt.Errorf("failed to write export file: %w", err)
	}
	if err := f.Close(); err != nil {
		return PutResult{}, fmt.Errorf("failed to close export file: %w", err)
	}

	url := strings.TrimRight(l.URLPrefix, "/") + "/" + key
	return PutResult{Key: key, URL: url}, nil
}

// objectKey keeps the base name of filename and makes it unique.
func objectKey(filename string) string {
	base := filepath.Base(filename)
	ext := strings.ToLower(filepath.Ext(base))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		stem = "export"
	}
	return fmt.Sprintf("%s-%s%s", stem, utils.ShortID(), ext)
}
