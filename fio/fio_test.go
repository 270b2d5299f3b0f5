package fio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/birdayz/flowz"
)

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.txt")
	assert.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	p := flowz.New()
	data, err := ReadFile(p, "read", path)
	assert.NoError(t, err)

	v, err := flowz.Run(p, data)
	assert.NoError(t, err)
	assert.Equal(t, []byte("hello"), v)
}

func TestReadMissingFile(t *testing.T) {
	p := flowz.New()
	data, err := ReadFile(p, "read", filepath.Join(t.TempDir(), "missing.txt"))
	assert.NoError(t, err)

	_, err = flowz.Run(p, data)
	assert.Error(t, err)
	// The I/O failure surfaces as a failed stage wrapping ErrIO.
	assert.True(t, errors.Is(err, flowz.ErrStageFailed))
}

func TestWriteThenReadOrdering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	p := flowz.New()
	content := flowz.MustAddSource(p, "content", func() ([]byte, error) {
		return []byte("written by pipeline"), nil
	})
	wrote, err := WriteFile(p, "write", content, path)
	assert.NoError(t, err)
	read, err := ReadFileAfter(p, "read", path, wrote)
	assert.NoError(t, err)

	v, err := flowz.Run(p, read, flowz.WithWorkers(1))
	assert.NoError(t, err)
	assert.Equal(t, []byte("written by pipeline"), v)

	onDisk, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, []byte("written by pipeline"), onDisk)
}

func TestWriteString(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	p := flowz.New()
	content := flowz.MustAddSource(p, "content", func() (string, error) { return "text", nil })
	wrote, err := WriteString(p, "write", content, path)
	assert.NoError(t, err)

	_, err = flowz.Run(p, wrote)
	assert.NoError(t, err)

	onDisk, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, "text", string(onDisk))
}

func TestReadString(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.txt")
	assert.NoError(t, os.WriteFile(path, []byte("typed"), 0o644))

	p := flowz.New()
	s, err := ReadString(p, "read", path)
	assert.NoError(t, err)

	upper, err := flowz.AddStage(p, "len", func(v string) (int, error) { return len(v), nil }, s)
	assert.NoError(t, err)

	v, err := flowz.Run(p, upper)
	assert.NoError(t, err)
	assert.Equal(t, 5, v)
}

func TestWriteToBadPath(t *testing.T) {
	p := flowz.New()
	content := flowz.MustAddSource(p, "content", func() ([]byte, error) { return []byte("x"), nil })
	wrote, err := WriteFile(p, "write", content, filepath.Join(t.TempDir(), "no", "such", "dir", "f"))
	assert.NoError(t, err)

	_, err = flowz.Run(p, wrote)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, flowz.ErrStageFailed))
}
