package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var allowedImageExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// ErrUnsupportedFile is returned for uploads that are not images
var ErrUnsupportedFile = errors.New("unsupported image type")

// LocalStore keeps product images on disk under <root>/products/<productID>/
type LocalStore struct {
	root    string
	baseURL string
	maxSize int64
}

// NewLocalStore maxSize of zero disables the size limit
func NewLocalStore(root, baseURL string, maxSize int64) *LocalStore {
	return &LocalStore{root: root, baseURL: strings.TrimRight(baseURL, "/"), maxSize: maxSize}
}

// Root returns the directory served as media
func (s *LocalStore) Root() string {
	return s.root
}

// SaveProductImage writes r and returns the reference stored in the database
func (s *LocalStore) SaveProductImage(ctx context.Context, productID int64, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedImageExt[ext] {
		return "", ErrUnsupportedFile
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ref := path.Join("products", fmt.Sprintf("%d", productID), uuid.NewString()+ext)
	full := filepath.Join(s.root, filepath.FromSlash(ref))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", errors.Wrap(err, "create image directory")
	}

	f, err := os.OpenFile(full, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", errors.Wrap(err, "create image file")
	}
	src := r
	if s.maxSize > 0 {
		src = io.LimitReader(r, s.maxSize+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.maxSize > 0 && n > s.maxSize {
		err = fmt.Errorf("image larger than %d bytes", s.maxSize)
	}
	if err != nil {
		_ = os.Remove(full)
		return "", errors.Wrap(err, "write image file")
	}
	return ref, nil
}

// Remove deletes a stored file; a missing file is not an error
func (s *LocalStore) Remove(ref string) error {
	full, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove image file")
	}
	return nil
}

// RemoveAll deletes references, logging failures instead of returning them
func (s *LocalStore) RemoveAll(refs []string) {
	for _, ref := range refs {
		if err := s.Remove(ref); err != nil {
			zap.L().Warn("failed to remove media file", zap.String("ref", ref), zap.Error(err))
		}
	}
}

// URL returns the public address of ref
func (s *LocalStore) URL(ref string) string {
	return s.baseURL + "/" + strings.TrimLeft(ref, "/")
}

func (s *LocalStore) resolve(ref string) (string, error) {
	clean := path.Clean("/" + ref)
	if clean == "/" {
		return "", fmt.Errorf("empty media reference")
	}
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}
