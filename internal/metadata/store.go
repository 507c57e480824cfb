package metadata

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/theplant/speckit-extension/pkg/types"
)

// Parse returns the header of content. A document without a header yields
// an empty Header.
func Parse(content string) Header {
	h, _, _ := split(content)
	return h
}

// ReadTestDirectory returns the testDirectory value of the document at
// path. A missing file or header yields ok=false and no error.
func ReadTestDirectory(path string) (dir string, ok bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read %s: %w", path, err)
	}
	h := Parse(string(data))
	dir, ok = h.Get(TestDirectoryKey)
	return dir, ok, nil
}

// SetValue returns content with key set to value in its header. An empty
// value removes the key, and the header with it once no key remains.
func SetValue(content, key, value string) string {
	h, body, _ := split(content)
	h.Set(key, value)
	return h.render(body)
}

// PreviewTestDirectory returns the current content of the document and the
// content a WriteTestDirectory call with dir would produce.
func PreviewTestDirectory(path, dir string) (before, after string, err error) {
	data, err := readExisting(path)
	if err != nil {
		return "", "", err
	}
	before = string(data)
	return before, SetValue(before, TestDirectoryKey, dir), nil
}

// WriteTestDirectory stores dir in the header of the document at path; an
// empty dir removes it. The file must exist: a missing file returns an error
// wrapping types.ErrFileNotFound. atomic.WriteFile keeps the existing mode.
func WriteTestDirectory(path, dir string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", types.ErrFileNotFound, path)
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	before, after, err := PreviewTestDirectory(path, dir)
	if err != nil {
		return err
	}
	if before == after {
		return nil
	}
	if err := atomic.WriteFile(path, strings.NewReader(after)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func readExisting(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", types.ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
