package upload

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Store сохраняет файл и возвращает URL. Ядро знает только про URL,
// само хранение файлов - внешняя забота.
type Store interface {
	Save(filename string, r io.Reader) (string, error)
}

// LocalStore кладет файлы на локальный диск под baseURL
type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{dir: dir, baseURL: baseURL}, nil
}

func (s *LocalStore) Save(filename string, r io.Reader) (string, error) {
	unique := fmt.Sprintf("%s_%s", uuid.New(), filepath.Base(filename))

	f, err := os.Create(filepath.Join(s.dir, unique))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", err
	}

	return s.baseURL + "/" + unique, nil
}
