package storage

import (
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// LocalStore writes uploads under Dir and returns URLs of the form
// /storage/<name>, matching the static file route registered in main.
type LocalStore struct {
	Dir string
}

func (s *LocalStore) Store(file multipart.File, name string) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create storage directory")
	}

	dst, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return "", errors.Wrap(err, "create file")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", errors.Wrap(err, "write file")
	}

	return path.Join("/storage", name), nil
}

func (s *LocalStore) Delete(url string) error {
	name := strings.TrimPrefix(url, "/storage/")
	if name == "" || name == url {
		return errors.Errorf("not a local storage URL: %s", url)
	}
	if err := os.Remove(filepath.Join(s.Dir, name)); err != nil {
		return errors.Wrap(err, "remove file")
	}
	return nil
}
