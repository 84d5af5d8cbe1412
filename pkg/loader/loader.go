// Package loader reads template and partial sources from a root filesystem,
// normalizing page names and optionally passing content through a minifier.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"

	"github.com/goliatone/go-view/pkg/minify"
)

// Loader resolves page names against a root filesystem.
type Loader struct {
	fsys      fs.FS
	ext       string
	charset   string
	enc       encoding.Encoding
	minifier  minify.Minifier
	minifyOpt minify.Options
	exclude   map[string]struct{}
}

// New constructs a Loader reading from fsys.
func New(fsys fs.FS, options ...Option) (*Loader, error) {
	if fsys == nil {
		return nil, errors.New("loader: filesystem is required")
	}

	cfg := &config{
		extension: DefaultExtension,
		charset:   DefaultCharset,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	enc, err := htmlindex.Get(cfg.charset)
	if err != nil {
		return nil, fmt.Errorf("loader: unsupported charset %q: %w", cfg.charset, err)
	}

	l := &Loader{
		fsys:      fsys,
		ext:       cfg.extension,
		charset:   cfg.charset,
		enc:       enc,
		minifier:  cfg.minifier,
		minifyOpt: cfg.minifierOptions,
		exclude:   make(map[string]struct{}, len(cfg.exclude)),
	}
	for _, p := range cfg.exclude {
		l.exclude[p] = struct{}{}
	}
	return l, nil
}

// Extension reports the extension forced onto page names.
func (l *Loader) Extension() string {
	return l.ext
}

// Charset reports the configured charset name.
func (l *Loader) Charset() string {
	return l.charset
}

// PageName replaces any extension on page with the template extension while
// keeping its directory.
func (l *Loader) PageName(page string) string {
	clean := cleanPath(page)
	dir, file := path.Split(clean)
	// a leading dot names the file, it is not an extension.
	if ext := path.Ext(file); ext != file {
		file = strings.TrimSuffix(file, ext)
	}
	return path.Join(dir, file+l.ext)
}

// Exists reports whether the normalized template for name can be accessed.
func (l *Loader) Exists(name string) error {
	_, err := fs.Stat(l.fsys, l.PageName(name))
	return err
}

// Load reads the template for page. requestedPath is matched against the
// minifier exclusion list.
func (l *Loader) Load(page, requestedPath string) (string, error) {
	return l.read(l.PageName(page), requestedPath)
}

// ReadPartial reads a partial by its path relative to the root. Unlike pages,
// partial paths keep their extension.
func (l *Loader) ReadPartial(name, requestedPath string) (string, error) {
	return l.read(cleanPath(name), requestedPath)
}

// ResolveAll loads every partial concurrently and returns the sources keyed by
// partial name. All loads settle before an error is reported, and a failure
// never yields a partial result.
func (l *Loader) ResolveAll(partials map[string]string, requestedPath string) (map[string]string, error) {
	if len(partials) == 0 {
		return map[string]string{}, nil
	}

	var (
		g   errgroup.Group
		mu  sync.Mutex
		out = make(map[string]string, len(partials))
	)

	for name, file := range partials {
		g.Go(func() error {
			content, err := l.ReadPartial(file, requestedPath)
			if err != nil {
				return fmt.Errorf("loader: partial %q: %w", name, err)
			}
			mu.Lock()
			out[name] = content
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Templates lists every file under the root carrying the template extension.
func (l *Loader) Templates() ([]string, error) {
	return l.list(func(p string) bool { return path.Ext(p) == l.ext })
}

func (l *Loader) read(name, requestedPath string) (string, error) {
	raw, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if suggestion := l.suggest(name); suggestion != "" {
				return "", fmt.Errorf("loader: read %q: %w (did you mean %q?)", name, err, suggestion)
			}
		}
		return "", fmt.Errorf("loader: read %q: %w", name, err)
	}

	content, err := l.decode(raw)
	if err != nil {
		return "", fmt.Errorf("loader: decode %q as %s: %w", name, l.charset, err)
	}

	if l.shouldMinify(requestedPath) {
		content, err = l.minifier.Minify(content, l.minifyOpt)
		if err != nil {
			return "", fmt.Errorf("loader: minify %q: %w", name, err)
		}
	}
	return content, nil
}

func (l *Loader) decode(raw []byte) (string, error) {
	if l.enc == unicode.UTF8 {
		return string(raw), nil
	}
	out, err := l.enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (l *Loader) shouldMinify(requestedPath string) bool {
	if l.minifier == nil {
		return false
	}
	_, excluded := l.exclude[requestedPath]
	return !excluded
}

// suggest returns the closest existing file to name, if any is close enough
// to be a plausible typo.
func (l *Loader) suggest(name string) string {
	ext := path.Ext(name)
	candidates, err := l.list(func(p string) bool { return ext == "" || path.Ext(p) == ext })
	if err != nil || len(candidates) == 0 {
		return ""
	}

	best, bestDist := "", -1
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(name, c)
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}

	limit := len(name) / 3
	if limit < 2 {
		limit = 2
	}
	if bestDist > limit {
		return ""
	}
	return best
}

func (l *Loader) list(keep func(string) bool) ([]string, error) {
	var out []string
	err := fs.WalkDir(l.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		// skip hidden files and directories.
		if strings.HasPrefix(d.Name(), ".") && p != "." {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !keep(p) {
			return nil
		}
		out = append(out, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loader: list templates: %w", err)
	}
	sort.Strings(out)
	return out, nil
}

func cleanPath(name string) string {
	clean := path.Clean(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	return strings.TrimPrefix(clean, "/")
}
