package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_Put(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	s := NewLocal(dir, "file://exports/")

	res, err := s.Put(context.Background(), strings.NewReader("a,b\n"), PutInput{Filename: "orders.csv", ContentType: "text/csv"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Key, "orders-"))
	assert.True(t, strings.HasSuffix(res.Key, ".csv"))
	assert.Equal(t, "file://exports/"+res.Key, res.URL)

	data, err := os.ReadFile(filepath.Join(dir, res.Key))
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))
}

type failingFile struct {
	bytes.Buffer
	closeErr error
}

func (f *failingFile) Close() error { return f.closeErr }

func TestLocal_CloseErrorFailsPut(t *testing.T) {
	s := NewLocal(t.TempDir(), "/x")
	file := &failingFile{closeErr: errors.New("disk full")}
	s.create = func(string) (io.WriteCloser, error) { return file, nil }

	_, err := s.Put(context.Background(), strings.NewReader("a,b\n"), PutInput{Filename: "orders.csv"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, "a,b\n", file.String())
}

func TestLocal_KeysAreUnique(t *testing.T) {
	s := NewLocal(t.TempDir(), "/x")
	a, err := s.Put(context.Background(), strings.NewReader("1"), PutInput{Filename: "orders.csv"})
	require.NoError(t, err)
	b, err := s.Put(context.Background(), strings.NewReader("2"), PutInput{Filename: "orders.csv"})
	require.NoError(t, err)
	assert.NotEqual(t, a.Key, b.Key)
}

func TestLocal_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLocal(t.TempDir(), "/x").Put(ctx, strings.NewReader("x"), PutInput{Filename: "a.csv"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_Drivers(t *testing.T) {
	s, err := New(context.Background(), Options{Driver: "local", LocalDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &Local{}, s)

	_, err = New(context.Background(), Options{Driver: "ftp"})
	assert.Error(t, err)
}
