package manifest

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	perrors "github.com/matzehuels/primgen/pkg/errors"
)

// Format is a manifest encoding.
type Format string

// Supported formats.
const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// DefaultFile is the manifest looked for when none is named.
const DefaultFile = "primgen.toml"

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", perrors.New(perrors.ErrCodeUnsupported,
			"unsupported manifest extension %q (want .toml, .yaml or .yml)", filepath.Ext(path))
	}
}

// Load reads, decodes and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, perrors.Wrap(perrors.ErrCodeFileNotFound, err, "manifest %s not found", path)
	}
	if err != nil {
		return nil, err
	}

	m, err := decode(data, format)
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidManifest, err, "%s", path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	m.Path = abs
	m.Dir = filepath.Dir(abs)

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Parse decodes and validates an in-memory manifest. Relative paths resolve
// against the working directory.
func Parse(data []byte, format Format) (*Manifest, error) {
	m, err := decode(data, format)
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidManifest, err, "decode %s manifest", format)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// decode rejects unknown keys so misspelled settings are not silently
// ignored.
func decode(data []byte, format Format) (*Manifest, error) {
	var m Manifest
	switch format {
	case FormatTOML:
		md, err := toml.Decode(string(data), &m)
		if err != nil {
			return nil, err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			sort.Strings(keys)
			return nil, perrors.New(perrors.ErrCodeInvalidManifest, "unknown keys: %s", strings.Join(keys, ", "))
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	default:
		return nil, perrors.New(perrors.ErrCodeUnsupported, "unsupported manifest format %q", format)
	}
	return &m, nil
}
