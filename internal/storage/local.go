// Package storage сохраняет загружаемые изображения магазина.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// ErrNotImage возвращается, если содержимое файла не является изображением.
var ErrNotImage = errors.New("file is not an image")

// Local хранит файлы в каталоге на диске и отдаёт ссылки вида <urlPrefix>/<имя>.
type Local struct {
	dir       string
	urlPrefix string
}

// NewLocal создаёт хранилище в каталоге dir, создавая его при необходимости.
func NewLocal(dir, urlPrefix string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{
		dir:       dir,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
	}, nil
}

// SaveImage проверяет, что data содержит изображение, и сохраняет его под случайным именем.
// Возвращает публичную ссылку на файл.
func (s *Local) SaveImage(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Errorf("%w: %s", ErrNotImage, mt.String())
	}

	name := uuid.New().String() + mt.Extension()
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	return s.urlPrefix + "/" + name, nil
}
