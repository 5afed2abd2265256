package cache

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/daxhub/dax/internal/domain"
)

// DiskCache keeps downloaded dataset archives under dir/<name>/<version>/.
type DiskCache struct {
	sync.RWMutex
	dir string
}

func New(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) GetPath(name, version string) string {
	c.RLock()
	defer c.RUnlock()
	return c.getPath(name, version)
}

// getPath expects a concrete version; the schema layer resolves "latest"
// before anything reaches the cache.
func (c *DiskCache) getPath(name, version string) string {
	dir := filepath.Join(c.dir, name, version)
	for _, ext := range domain.Extensions() {
		path := filepath.Join(dir, "dataset"+ext)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return filepath.Join(dir, "dataset.tar.gz")
}

func (c *DiskCache) Has(name, version string) bool {
	c.RLock()
	defer c.RUnlock()
	_, err := os.Stat(c.getPath(name, version))
	return err == nil
}

func (c *DiskCache) Store(name, version, src string) (string, error) {
	c.Lock()
	defer c.Unlock()

	ext := getArchiveExt(src)
	destDir := filepath.Join(c.dir, name, version)
	destPath := filepath.Join(destDir, "dataset"+ext)

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", err
	}

	if err := os.Rename(src, destPath); err != nil {
		return "", err
	}

	return destPath, nil
}

func (c *DiskCache) Size() (int64, error) {
	c.RLock()
	defer c.RUnlock()

	var size int64

	err := filepath.Walk(c.dir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})

	return size, err
}

func (c *DiskCache) Clear() error {
	c.Lock()
	defer c.Unlock()

	return os.RemoveAll(c.dir)
}

// Remove drops the cached archives for one dataset.
func (c *DiskCache) Remove(name string) error {
	c.Lock()
	defer c.Unlock()

	err := os.RemoveAll(filepath.Join(c.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func getArchiveExt(path string) string {
	lower := filepath.Base(path)
	for _, ext := range domain.Extensions() {
		if len(lower) > len(ext) && lower[len(lower)-len(ext):] == ext {
			return ext
		}
	}

	return ".tar.gz"
}
