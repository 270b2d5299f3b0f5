// Package fio wraps file reads and writes as ordinary pipeline stages.
//
// The core owes these helpers nothing beyond the stage API: a read is a
// source stage, a write is a unary stage. Writes yield a Unit-valued port
// so a later read can be ordered after them.
//
// Failures wrap ErrIO; at run time they additionally surface under
// ErrStageFailed like any other failing user computation.
package fio

import (
	"fmt"
	"os"

	"github.com/birdayz/flowz"
	"go.uber.org/multierr"
)

// ReadFile registers a source stage that reads path and produces its
// contents.
func ReadFile(p *flowz.Pipeline, key, path string) (flowz.Port[[]byte], error) {
	return flowz.AddSource(p, key, func() ([]byte, error) {
		return readFile(path)
	})
}

// ReadString is ReadFile producing a string.
func ReadString(p *flowz.Pipeline, key, path string) (flowz.Port[string], error) {
	return flowz.AddSource(p, key, func() (string, error) {
		data, err := readFile(path)
		return string(data), err
	})
}

// WriteFile registers a stage that writes the upstream bytes to path. The
// returned Unit port orders dependents after the write.
func WriteFile(p *flowz.Pipeline, key string, in flowz.Port[[]byte], path string) (flowz.Port[flowz.Unit], error) {
	return flowz.AddStage(p, key, func(data []byte) (flowz.Unit, error) {
		return flowz.Unit{}, writeFile(path, data)
	}, in)
}

// WriteString is WriteFile for string-valued ports.
func WriteString(p *flowz.Pipeline, key string, in flowz.Port[string], path string) (flowz.Port[flowz.Unit], error) {
	return flowz.AddStage(p, key, func(data string) (flowz.Unit, error) {
		return flowz.Unit{}, writeFile(path, []byte(data))
	}, in)
}

// ReadFileAfter registers a read stage ordered after the given Unit port,
// typically the result of a WriteFile to the same path.
func ReadFileAfter(p *flowz.Pipeline, key, path string, after flowz.Port[flowz.Unit]) (flowz.Port[[]byte], error) {
	return flowz.AddStage(p, key, func(flowz.Unit) ([]byte, error) {
		return readFile(path)
	}, after)
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", flowz.ErrIO, path, err)
	}
	return data, nil
}

func writeFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", flowz.ErrIO, path, err)
	}
	_, werr := f.Write(data)
	if err := multierr.Append(werr, f.Close()); err != nil {
		return fmt.Errorf("%w: write %s: %v", flowz.ErrIO, path, err)
	}
	return nil
}
