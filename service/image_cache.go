package service

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Cache defaults
const (
	DefaultImageCacheDir      = "cache/images"
	DefaultImageCacheMaxBytes = 512 << 20
)

const cacheFileExt = ".img"

// ImageCache stores downloaded artwork on disk, keyed by a hash of its source.
// Once the files exceed maxBytes the least recently used ones are removed.
type ImageCache struct {
	dir      string
	maxBytes int64
	mu       sync.Mutex // serializes pruning
}

// NewImageCache creates a cache rooted at dir and ensures the directory exists.
// maxBytes <= 0 uses DefaultImageCacheMaxBytes.
func NewImageCache(dir string, maxBytes int64) (*ImageCache, error) {
	if dir == "" {
		dir = DefaultImageCacheDir
	}
	if maxBytes <= 0 {
		maxBytes = DefaultImageCacheMaxBytes
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &ImageCache{dir: dir, maxBytes: maxBytes}, nil
}

// Path returns the cache file path for a given image source
func (c *ImageCache) Path(src string) string {
	sum := sha256.Sum256([]byte(src))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+cacheFileExt)
}

// Get reads a cached image, ok is false on a miss
func (c *ImageCache) Get(src string) ([]byte, bool) {
	path := c.Path(src)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	now := time.Now()
	_ = os.Chtimes(path, now, now)
	return data, true
}

// Put saves an image to the cache. The write goes through a temp file so concurrent
// readers never see a partial image.
func (c *ImageCache) Put(src string, data []byte) error {
	path := c.Path(src)
	tmp, err := os.CreateTemp(c.dir, "partial-*")
	if err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	return c.prune()
}

// Size returns the total bytes of cached images
func (c *ImageCache) Size() (int64, error) {
	files, err := c.files()
	if err != nil {
		return 0, err
	}
	var total int64
	for _, f := range files {
		total += f.size
	}
	return total, nil
}

type cacheFile struct {
	path    string
	size    int64
	modTime time.Time
}

func (c *ImageCache) files() ([]cacheFile, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list cache: %w", err)
	}
	files := make([]cacheFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), cacheFileExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, cacheFile{
			path:    filepath.Join(c.dir, e.Name()),
			size:    info.Size(),
			modTime: info.ModTime(),
		})
	}
	return files, nil
}

// prune removes the least recently used images until the cache fits maxBytes
func (c *ImageCache) prune() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	files, err := c.files()
	if err != nil {
		return err
	}
	var total int64
	for _, f := range files {
		total += f.size
	}
	if total <= c.maxBytes {
		return nil
	}

	sort.Slice(files, func(i, j int) bool { return files[i].modTime.Before(files[j].modTime) })
	for _, f := range files {
		if total <= c.maxBytes {
			break
		}
		if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to prune cache: %w", err)
		}
		total -= f.size
	}
	return nil
}
