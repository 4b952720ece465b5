package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	perrors "github.com/matzehuels/primgen/pkg/errors"
)

// Backend names accepted by Open besides URLs.
const (
	SpecFile = "file"
	SpecNone = "none"
)

// Open returns the cache described by spec:
//
//	"", "file"          FileCache in dir
//	"none"              NullCache
//	"file:///some/dir"  FileCache in /some/dir
//	"redis://…"         RedisCache (also rediss://)
//	"mongodb://…"       MongoCache (also mongodb+srv://)
//
// Remote backends are contacted before Open returns; connection failures
// are reported with code CACHE_UNAVAILABLE.
func Open(ctx context.Context, spec, dir string) (Cache, error) {
	switch {
	case spec == "" || spec == SpecFile:
		if dir == "" {
			d, err := DefaultDir()
			if err != nil {
				return nil, err
			}
			dir = d
		}
		return NewFileCache(dir)
	case spec == SpecNone || spec == "off":
		return NewNullCache(), nil
	case strings.HasPrefix(spec, "file://"):
		return NewFileCache(strings.TrimPrefix(spec, "file://"))
	}

	if err := perrors.ValidateCacheURL(spec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedScheme, err)
	}

	var (
		c   Cache
		err error
	)
	if strings.HasPrefix(spec, "redis") {
		c, err = NewRedisCache(ctx, spec)
	} else {
		c, err = NewMongoCache(ctx, spec)
	}
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeCacheUnavailable, err, "open cache")
	}
	return c, nil
}

// DefaultDir is $XDG_CACHE_HOME/primgen, or ~/.cache/primgen.
func DefaultDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "primgen"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate cache directory: %w", err)
	}
	return filepath.Join(home, ".cache", "primgen"), nil
}

// Describe returns a short label for logs, with credentials removed.
func Describe(c Cache) string {
	switch v := c.(type) {
	case NullCache:
		return "disabled"
	case *FileCache:
		return "file " + v.Dir()
	case *RedisCache:
		return "redis " + v.client.Options().Addr
	case *MongoCache:
		return "mongodb " + v.coll.Database().Name() + "." + v.coll.Name()
	default:
		return fmt.Sprintf("%T", c)
	}
}
