// Package cache remembers which source files were already lowered to IR so
// that build can skip them when neither the source nor the tool changed.
package cache

import (
	"crypto/md5"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

const indexFile = "index.gob"

type Entry struct {
	Sum    string
	Output string
}

type Cache struct {
	Dir string

	mu      sync.Mutex
	entries map[string]Entry
}

// DefaultDir is the per-user cache location.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "cstmt"), nil
}

// Open loads the index in dir, creating the directory when needed. A
// missing or unreadable index yields an empty cache.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.Wrapf(err, "creating cache directory %s", dir)
	}
	c := &Cache{Dir: dir, entries: make(map[string]Entry)}

	f, err := os.Open(filepath.Join(dir, indexFile))
	if err != nil {
		return c, nil
	}
	defer f.Close()
	if err := gob.NewDecoder(f).Decode(&c.entries); err != nil {
		c.entries = make(map[string]Entry)
	}
	return c, nil
}

// Save writes the index, replacing the previous one atomically.
func (c *Cache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tmp, err := os.CreateTemp(c.Dir, "index-*.tmp")
	if err != nil {
		return errors.Wrap(err, "saving cache index")
	}
	if err := gob.NewEncoder(tmp).Encode(c.entries); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(err, "encoding cache index")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "saving cache index")
	}
	return errors.Wrap(os.Rename(tmp.Name(), filepath.Join(c.Dir, indexFile)), "saving cache index")
}

// SumFile hashes the file contents together with salt, which callers set to
// anything that changes the output for identical input.
func SumFile(path, salt string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	io.WriteString(h, salt)
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrapf(err, "reading %s", path)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// Sums hashes files concurrently. The first error wins.
func Sums(files []string, salt string) (map[string]string, error) {
	var wg sync.WaitGroup
	var mu sync.Mutex
	sums := make(map[string]string, len(files))
	errs := make(chan error, len(files))

	for _, file := range files {
		wg.Add(1)
		go func(file string) {
			defer wg.Done()
			sum, err := SumFile(file, salt)
			if err != nil {
				errs <- err
				return
			}
			mu.Lock()
			sums[file] = sum
			mu.Unlock()
		}(file)
	}
	wg.Wait()
	close(errs)

	if err := <-errs; err != nil {
		return nil, err
	}
	return sums, nil
}

// Fresh reports whether source was last built into output from content
// with the given sum, and output still exists.
func (c *Cache) Fresh(source, sum, output string) bool {
	c.mu.Lock()
	e, ok := c.entries[source]
	c.mu.Unlock()
	if !ok || e.Sum != sum || e.Output != output {
		return false
	}
	_, err := os.Stat(output)
	return err == nil
}

func (c *Cache) Record(source, sum, output string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[source] = Entry{Sum: sum, Output: output}
}

// Forget drops source so its next build is never skipped.
func (c *Cache) Forget(source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, source)
}
