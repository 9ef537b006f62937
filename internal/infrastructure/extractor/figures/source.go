// Package figures indexes a directory of figure images by file name.
package figures

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kirillkom/paper-evidence/internal/core/domain"
)

var imageExts = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".webp": {},
	".svg":  {},
}

type Source struct {
	dir string
}

func NewSource(dir string) *Source {
	return &Source{dir: dir}
}

// LoadImages lists images sorted by path. A missing directory is an empty
// figure collection.
func (s *Source) LoadImages(_ context.Context) ([]domain.ImageItem, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read image dir: %w", err)
	}

	items := make([]domain.ImageItem, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if _, ok := imageExts[strings.ToLower(filepath.Ext(name))]; !ok {
			continue
		}
		items = append(items, domain.ImageItem{
			ItemID:  name,
			Path:    filepath.Join(s.dir, name),
			Caption: Caption(name),
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Path < items[j].Path })
	return items, nil
}

// Caption is the file stem with underscores read as spaces.
func Caption(name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return strings.ReplaceAll(stem, "_", " ")
}
