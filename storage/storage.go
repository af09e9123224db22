package storage

import (
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// BlobStore persists uploaded binary files and returns a public URL for each.
// The rest of the system only ever records that URL.
type BlobStore interface {
	Store(file multipart.File, name string) (string, error)
	Delete(url string) error
}

// ObjectName builds a collision-free object name keeping the upload's extension.
func ObjectName(originalName string) string {
	return uuid.New().String() + filepath.Ext(originalName)
}

// FromEnv selects the blob store. STORAGE_DRIVER=s3 uploads to S3; anything
// else writes to the local storage directory served under /storage/.
func FromEnv() BlobStore {
	if os.Getenv("STORAGE_DRIVER") == "s3" {
		return NewS3StoreFromEnv()
	}
	dir := os.Getenv("STORAGE_DIR")
	if dir == "" {
		dir = "./storage"
	}
	return &LocalStore{Dir: dir}
}
