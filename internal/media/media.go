// Package media stores uploaded event images and files on disk.
package media

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// URLPrefix is where stored media is served from.
const URLPrefix = "/uploads/"

type Kind string

const (
	Images Kind = "images"
	Files  Kind = "files"
)

var ErrEmptyUpload = errors.New("empty upload")

type Disk struct {
	Root string
}

func NewDisk(root string) (*Disk, error) {
	for _, k := range []Kind{Images, Files} {
		if err := os.MkdirAll(filepath.Join(root, string(k)), 0o755); err != nil {
			return nil, fmt.Errorf("create upload dir: %w", err)
		}
	}
	return &Disk{Root: root}, nil
}

// Save writes r under kind and returns the public path of the stored file.
func (d *Disk) Save(kind Kind, filename string, r io.Reader) (string, error) {
	name := uuid.NewString() + "-" + sanitize(filename)
	dst := filepath.Join(d.Root, string(kind), name)

	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dst, err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n == 0 {
		err = ErrEmptyUpload
	}
	if err != nil {
		os.Remove(dst)
		return "", err
	}
	return URLPrefix + string(kind) + "/" + name, nil
}

// Remove deletes the file behind a public path returned by Save.
func (d *Disk) Remove(publicPath string) error {
	p, err := d.diskPath(publicPath)
	if err != nil {
		return err
	}
	return os.Remove(p)
}

// RemoveAsync deletes publicPath in the background. Failures are logged only.
func (d *Disk) RemoveAsync(publicPath string) {
	go func() {
		if err := d.Remove(publicPath); err != nil {
			slog.Warn("failed to remove media", "path", publicPath, "error", err)
		}
	}()
}

// Handler serves stored media under URLPrefix.
func (d *Disk) Handler() http.Handler {
	return http.StripPrefix(URLPrefix, http.FileServer(http.Dir(d.Root)))
}

func (d *Disk) diskPath(publicPath string) (string, error) {
	rel := strings.TrimPrefix(path.Clean("/"+publicPath), URLPrefix)
	if rel == "" || strings.HasPrefix(rel, "/") || strings.Contains(rel, "..") {
		return "", fmt.Errorf("not a media path: %q", publicPath)
	}
	return filepath.Join(d.Root, filepath.FromSlash(rel)), nil
}

func sanitize(filename string) string {
	base := filepath.Base(filepath.Clean("/" + filename))
	if base == "/" || base == "." {
		return "upload"
	}
	return strings.ReplaceAll(base, " ", "_")
}
