// Package docs renders the bundled AsciiDoc guide pages to HTML for the
// dashboard's /docs page.
package docs

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/bytesparadise/libasciidoc"
	"github.com/bytesparadise/libasciidoc/pkg/configuration"
)

//go:embed content/*.adoc
var content embed.FS

type Service struct {
	fsys  fs.FS
	cache map[string]string // filename -> html content
	mu    sync.RWMutex
}

// NewService serves the pages embedded in the binary.
func NewService() *Service {
	sub, _ := fs.Sub(content, "content")
	return NewServiceFS(sub)
}

// NewServiceFS serves .adoc pages found at the root of fsys.
func NewServiceFS(fsys fs.FS) *Service {
	return &Service{
		fsys:  fsys,
		cache: make(map[string]string),
	}
}

func (s *Service) GetDoc(ctx context.Context, filename string) (string, error) {
	if filename != path.Base(filename) || !strings.HasSuffix(filename, ".adoc") {
		return "", fmt.Errorf("invalid doc name %q", filename)
	}

	s.mu.RLock()
	html, ok := s.cache[filename]
	s.mu.RUnlock()
	if ok {
		return html, nil
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := fs.ReadFile(s.fsys, filename)
	if err != nil {
		return "", fmt.Errorf("failed to read doc file: %w", err)
	}

	output := bytes.NewBuffer(nil)
	config := configuration.NewConfiguration(
		configuration.WithHeaderFooter(false), // embedded in our layout
		configuration.WithAttribute("toc", "left"),
	)

	if _, err := libasciidoc.Convert(bytes.NewReader(data), output, config); err != nil {
		return "", fmt.Errorf("failed to convert asciidoc: %w", err)
	}

	html = output.String()

	s.mu.Lock()
	s.cache[filename] = html
	s.mu.Unlock()

	return html, nil
}

func (s *Service) ListDocs() ([]string, error) {
	entries, err := fs.ReadDir(s.fsys, ".")
	if err != nil {
		return nil, err
	}

	var docs []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".adoc") {
			docs = append(docs, entry.Name())
		}
	}
	sort.Strings(docs)
	return docs, nil
}
