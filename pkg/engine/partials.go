package engine

import (
	"crypto/sha256"
	"fmt"
	"io"
	"strings"
	"sync"
)

type partialSource struct {
	source string
	sum    [sha256.Size]byte
}

// partialLoader serves registered partials to pongo2 by name. It sits ahead
// of the filesystem loader so registered names shadow files.
type partialLoader struct {
	mu      sync.RWMutex
	sources map[string]partialSource
}

func newPartialLoader() *partialLoader {
	return &partialLoader{sources: make(map[string]partialSource)}
}

// Abs implements pongo2.TemplateLoader. Partial names are global, so the
// including template's location is ignored.
func (p *partialLoader) Abs(_, name string) string {
	return name
}

// Get implements pongo2.TemplateLoader.
func (p *partialLoader) Get(name string) (io.Reader, error) {
	p.mu.RLock()
	src, ok := p.sources[name]
	p.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("engine: partial %q not registered", name)
	}
	return strings.NewReader(src.source), nil
}

func (p *partialLoader) set(name, source string, sum [sha256.Size]byte) {
	p.mu.Lock()
	p.sources[name] = partialSource{source: source, sum: sum}
	p.mu.Unlock()
}

func (p *partialLoader) current(name string, sum [sha256.Size]byte) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	src, ok := p.sources[name]
	return ok && src.sum == sum
}

// swap registers source under name and returns the registration it replaced.
func (p *partialLoader) swap(name, source string, sum [sha256.Size]byte) (partialSource, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	prev, had := p.sources[name]
	p.sources[name] = partialSource{source: source, sum: sum}
	return prev, had
}

// restore reinstates prev under name, or removes name when nothing was
// registered before.
func (p *partialLoader) restore(name string, prev partialSource, had bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if had {
		p.sources[name] = prev
		return
	}
	delete(p.sources, name)
}
