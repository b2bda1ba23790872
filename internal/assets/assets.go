// Package assets supplies fonts and images to the renderer by logical name.
package assets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"invoicegen/internal/port"
)

// Logical asset names.
const (
	FontRegular = "font/regular"
	FontBold    = "font/bold"
	Logo        = "logo"
)

// ErrNotFound is returned when a provider has no asset under a name.
var ErrNotFound = errors.New("asset not found")

// Asset is a named blob. Type is the lowercase file extension without the
// dot ("ttf", "png") when known.
type Asset struct {
	Name string
	Type string
	Data []byte
}

// Provider looks up assets by logical name.
type Provider interface {
	Get(ctx context.Context, name string) (*Asset, error)
}

// Dir serves assets from files in a directory.
type Dir struct {
	root  string
	files map[string]string
}

// NewDir creates a provider reading files[name] below root.
func NewDir(root string, files map[string]string) *Dir {
	return &Dir{root: root, files: files}
}

func (d *Dir) Get(_ context.Context, name string) (*Asset, error) {
	file, ok := d.files[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	data, err := os.ReadFile(filepath.Join(d.root, file))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s (%s): %w", name, file, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading asset %s: %w", name, err)
	}
	return &Asset{Name: name, Type: extType(file), Data: data}, nil
}

// S3 serves assets from objects under a bucket prefix.
type S3 struct {
	storage port.ObjectStorage
	bucket  string
	prefix  string
	files   map[string]string
}

// NewS3 creates a provider reading bucket/prefix+files[name].
func NewS3(storage port.ObjectStorage, bucket, prefix string, files map[string]string) *S3 {
	return &S3{storage: storage, bucket: bucket, prefix: prefix, files: files}
}

func (s *S3) Get(ctx context.Context, name string) (*Asset, error) {
	file, ok := s.files[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	key := path.Join(s.prefix, file)
	data, err := s.storage.Download(ctx, s.bucket, key)
	if errors.Is(err, port.ErrObjectNotFound) {
		return nil, fmt.Errorf("%s (s3://%s/%s): %w", name, s.bucket, key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s from s3: %w", name, err)
	}
	return &Asset{Name: name, Type: extType(file), Data: data}, nil
}

// Memory serves assets held in memory.
type Memory map[string]*Asset

func (m Memory) Get(_ context.Context, name string) (*Asset, error) {
	a, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return a, nil
}

// Cached memoizes successful lookups of another provider. Misses are not
// cached so an asset added later is still found.
type Cached struct {
	next Provider
	mu   sync.RWMutex
	hits map[string]*Asset
}

// NewCached wraps next.
func NewCached(next Provider) *Cached {
	return &Cached{next: next, hits: map[string]*Asset{}}
}

func (c *Cached) Get(ctx context.Context, name string) (*Asset, error) {
	c.mu.RLock()
	a, ok := c.hits[name]
	c.mu.RUnlock()
	if ok {
		return a, nil
	}

	a, err := c.next.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.hits[name] = a
	c.mu.Unlock()
	return a, nil
}

// Layered tries each provider in turn and returns the first hit.
type Layered []Provider

func (l Layered) Get(ctx context.Context, name string) (*Asset, error) {
	for _, p := range l {
		a, err := p.Get(ctx, name)
		if err == nil {
			return a, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
}

func extType(file string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(file)), ".")
}
