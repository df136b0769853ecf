package dds

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Registry caches decoded textures by path. It is owned by the caller,
// typically for the lifetime of a scene or session, and is safe for
// concurrent use.
type Registry struct {
	opts *ReadOptions
	load func(path string, opts *ReadOptions) (*Image, error)

	mu      sync.Mutex
	entries map[string]*Image
}

// NewRegistry returns an empty registry decoding files with opts.
func NewRegistry(opts *ReadOptions) *Registry {
	return &Registry{
		opts:    opts,
		load:    ReadFile,
		entries: make(map[string]*Image),
	}
}

// Get returns a cached image.
func (r *Registry) Get(path string) (*Image, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	img, ok := r.entries[path]
	return img, ok
}

// Put stores img under key, replacing any previous entry.
func (r *Registry) Put(key string, img *Image) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[key] = img
}

// Load returns the cached image for path, decoding it on first use.
// Concurrent first loads of one path may decode twice; the first stored
// result wins.
func (r *Registry) Load(path string) (*Image, error) {
	if img, ok := r.Get(path); ok {
		return img, nil
	}

	img, err := r.load(path, r.opts)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.entries[path]; ok {
		return cached, nil
	}
	r.entries[path] = img

	return img, nil
}

// LoadAll loads paths with at most workers decodes in flight (GOMAXPROCS
// when workers <= 0). Results are in path order. The first error cancels
// files not yet started.
func (r *Registry) LoadAll(ctx context.Context, paths []string, workers int) ([]*Image, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	out := make([]*Image, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			img, err := r.Load(path)
			if err != nil {
				return err
			}
			out[i] = img

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

// Release drops one entry.
func (r *Registry) Release(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, key)
}

// Reset drops all entries.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	clear(r.entries)
}

// Len returns the number of cached entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.entries)
}
