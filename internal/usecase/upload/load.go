package upload

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/autumnsgrove/cdnup/internal/model"
)

// LoadItem reads one media file into memory and classifies it by extension.
// Unknown and document extensions are rejected before any bytes are decoded.
func LoadItem(path string) (model.MediaItem, error) {
	kind := model.DetectKind(strings.ToLower(filepath.Ext(path)))
	if kind == model.KindUnknown || kind == model.KindDocument {
		return model.MediaItem{}, fmt.Errorf("%q: %w", path, model.ErrUnsupportedFormat)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return model.MediaItem{}, fmt.Errorf("reading %q: %w", path, err)
	}

	return model.MediaItem{
		Path:      path,
		Data:      data,
		Kind:      kind,
		SizeBytes: int64(len(data)),
	}, nil
}

// LoadItems loads every path, failing on the first unreadable one so a batch
// never starts half-formed.
func LoadItems(paths []string) ([]model.MediaItem, error) {
	items := make([]model.MediaItem, 0, len(paths))
	for _, p := range paths {
		item, err := LoadItem(p)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
