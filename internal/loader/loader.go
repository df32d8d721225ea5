// Package loader reads a document directory into text records, keeping only
// files whose extension is on the allow-list.
package loader

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"docchat/internal/domain"
	"docchat/internal/pkg/logger"
)

const module = "loader"

// Extractor turns one file into one or more documents.
type Extractor func(path string) ([]domain.Document, error)

// DirectoryLoader implements domain.Loader over a local folder.
type DirectoryLoader struct {
	dir        string
	exts       map[string]struct{}
	recursive  bool
	extractors map[string]Extractor
	log        logger.Logger
}

// Option customises a DirectoryLoader.
type Option func(*DirectoryLoader)

// WithRecursive descends into subdirectories.
func WithRecursive(recursive bool) Option {
	return func(l *DirectoryLoader) { l.recursive = recursive }
}

// WithExtractor overrides the extractor used for ext.
func WithExtractor(ext string, fn Extractor) Option {
	return func(l *DirectoryLoader) { l.extractors[NormalizeExt(ext)] = fn }
}

// WithLogger reports skipped files to l.
func WithLogger(l logger.Logger) Option {
	return func(dl *DirectoryLoader) {
		if l != nil {
			dl.log = l
		}
	}
}

var _ domain.Loader = (*DirectoryLoader)(nil)

// New creates a loader for dir accepting the given extensions.
func New(dir string, exts []string, opts ...Option) *DirectoryLoader {
	l := &DirectoryLoader{
		dir:  dir,
		exts: make(map[string]struct{}, len(exts)),
		extractors: map[string]Extractor{
			".txt":  extractText,
			".md":   extractMarkdown,
			".docx": extractDocx,
			".pdf":  extractPDF,
		},
		log: logger.NewNop(),
	}
	for _, e := range exts {
		if n := NormalizeExt(e); n != "" {
			l.exts[n] = struct{}{}
		}
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NormalizeExt lower-cases ext and ensures a leading dot.
func NormalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Accepts reports whether path has an allow-listed extension.
func (l *DirectoryLoader) Accepts(path string) bool {
	_, ok := l.exts[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Load returns the documents found in the directory, sorted by path. An
// existing directory without matching files yields an empty slice. A file that
// cannot be read or parsed is logged and skipped.
func (l *DirectoryLoader) Load(ctx context.Context) ([]domain.Document, error) {
	info, err := os.Stat(l.dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", domain.ErrDirectoryNotFound, l.dir)
	}

	var paths []string
	err = filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path == l.dir {
				return nil
			}
			if !l.recursive || isHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if isHidden(d.Name()) || !d.Type().IsRegular() || !l.Accepts(path) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", l.dir, err)
	}
	sort.Strings(paths)

	var docs []domain.Document
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		extracted, err := l.extract(p)
		if err != nil {
			l.log.Warn(module, "failed to load file, skipping", map[string]any{"path": p, "error": err})
			continue
		}
		docs = append(docs, extracted...)
	}
	return docs, nil
}

func (l *DirectoryLoader) extract(path string) ([]domain.Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	fn, ok := l.extractors[ext]
	if !ok {
		fn = extractText
	}
	docs, err := fn(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		docs[i].Path = path
		if docs[i].Metadata == nil {
			docs[i].Metadata = make(map[string]any)
		}
		docs[i].Metadata["file_path"] = path
		docs[i].Metadata["file_name"] = filepath.Base(path)
		docs[i].Metadata["file_type"] = ext
		docs[i].Metadata["file_size"] = info.Size()
		docs[i].Metadata["last_modified"] = info.ModTime().Format("2006-01-02")
		key := path
		if page, ok := docs[i].Metadata["page_label"]; ok {
			key = fmt.Sprintf("%s#%v", path, page)
		}
		docs[i].ID = hashString(key)
	}
	return docs, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func hashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:8])
}
