package io

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	perrors "github.com/matzehuels/primgen/pkg/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadText reads all of r as template text.
func ReadText(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read: %w", err)
	}
	return string(bytes.TrimPrefix(data, utf8BOM)), nil
}

// ReadTemplate reads the template source at path. A missing file is
// reported with code FILE_NOT_FOUND.
func ReadTemplate(path string) (string, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", perrors.Wrap(perrors.ErrCodeFileNotFound, err, "template %s not found", path)
	}
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadText(f)
}
