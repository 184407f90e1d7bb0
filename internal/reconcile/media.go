package reconcile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/pliu/eventplanner/internal/apperr"
	"github.com/pliu/eventplanner/internal/database"
)

// MediaList is an event's images and files as this device sees them.
type MediaList struct {
	Images []database.ImageRef
	Files  []string
}

// UploadImage uploads the file at localPath and records it against the
// event. Local bookkeeping happens only after the upload succeeds.
func (r *Reconciler) UploadImage(ctx context.Context, eventID, localPath string) (*database.ImageRef, error) {
	if _, err := r.user(); err != nil {
		return nil, err
	}
	if !r.gate.Probe(ctx) {
		return nil, fmt.Errorf("upload image: %w", apperr.ErrConnectivityUnavailable)
	}
	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}
	defer f.Close()

	img, err := r.remote.UploadImage(ctx, eventID, filepath.Base(localPath), f)
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}
	ref := database.ImageRef{URI: localPath, ServerID: img.ID}

	existing, err := r.localCopy(eventID)
	if err != nil {
		return nil, fmt.Errorf("upload image: mirror: %w", err)
	}
	if existing != nil {
		existing.Images = append(existing.Images, ref)
		if err := r.local.UpdateEvent(*existing); err != nil {
			return nil, fmt.Errorf("upload image: mirror: %w", err)
		}
	}
	return &ref, nil
}

// UploadFile uploads the file at localPath and returns its server path.
func (r *Reconciler) UploadFile(ctx context.Context, eventID, localPath string) (string, error) {
	if _, err := r.user(); err != nil {
		return "", err
	}
	if !r.gate.Probe(ctx) {
		return "", fmt.Errorf("upload file: %w", apperr.ErrConnectivityUnavailable)
	}
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("upload file: %w", err)
	}
	defer f.Close()

	path, err := r.remote.UploadFile(ctx, eventID, filepath.Base(localPath), f)
	if err != nil {
		return "", fmt.Errorf("upload file: %w", err)
	}

	existing, err := r.localCopy(eventID)
	if err != nil {
		return "", fmt.Errorf("upload file: mirror: %w", err)
	}
	if existing != nil {
		existing.Files = append(existing.Files, path)
		if err := r.local.UpdateEvent(*existing); err != nil {
			return "", fmt.Errorf("upload file: mirror: %w", err)
		}
	}
	return path, nil
}

// DeleteImage removes one image. ref may be the local uri, the server id or
// the server path. Owner only.
func (r *Reconciler) DeleteImage(ctx context.Context, eventID, ref string) error {
	user, err := r.user()
	if err != nil {
		return err
	}
	existing, err := r.ownedCopy(eventID, user)
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	idx := -1
	if existing != nil {
		idx = findImage(existing.Images, ref)
	}

	if r.remoteFor(ctx, eventID) {
		serverRef := ref
		if idx >= 0 && existing.Images[idx].ServerID != "" {
			serverRef = existing.Images[idx].ServerID
		}
		if _, err := r.remote.DeleteImage(ctx, eventID, serverRef); err != nil {
			return fmt.Errorf("delete image: %w", err)
		}
		if idx >= 0 {
			existing.Images = slices.Delete(existing.Images, idx, idx+1)
			if err := r.local.UpdateEvent(*existing); err != nil {
				return fmt.Errorf("delete image: mirror: %w", err)
			}
		}
		return nil
	}

	if _, err := requireCopy(existing, eventID); err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	if idx < 0 {
		return fmt.Errorf("delete image %s: %w", ref, apperr.ErrNotFound)
	}
	existing.Images = slices.Delete(existing.Images, idx, idx+1)
	if err := r.local.UpdateEvent(*existing); err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	return nil
}

func findImage(images []database.ImageRef, ref string) int {
	return slices.IndexFunc(images, func(img database.ImageRef) bool {
		return img.URI == ref || (img.ServerID != "" && img.ServerID == ref)
	})
}

// DeleteFile removes one file entry matching path. Owner only.
func (r *Reconciler) DeleteFile(ctx context.Context, eventID, path string) error {
	user, err := r.user()
	if err != nil {
		return err
	}
	existing, err := r.ownedCopy(eventID, user)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	idx := -1
	if existing != nil {
		idx = slices.Index(existing.Files, path)
	}

	if r.remoteFor(ctx, eventID) {
		if _, err := r.remote.DeleteFile(ctx, eventID, path); err != nil {
			return fmt.Errorf("delete file: %w", err)
		}
		if idx >= 0 {
			existing.Files = slices.Delete(existing.Files, idx, idx+1)
			if err := r.local.UpdateEvent(*existing); err != nil {
				return fmt.Errorf("delete file: mirror: %w", err)
			}
		}
		return nil
	}

	if _, err := requireCopy(existing, eventID); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	if idx < 0 {
		return fmt.Errorf("delete file %s: %w", path, apperr.ErrNotFound)
	}
	existing.Files = slices.Delete(existing.Files, idx, idx+1)
	if err := r.local.UpdateEvent(*existing); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

func (r *Reconciler) Media(ctx context.Context, eventID string) (*MediaList, error) {
	if _, err := r.user(); err != nil {
		return nil, err
	}

	if r.remoteFor(ctx, eventID) {
		res, err := r.remote.Media(ctx, eventID)
		if err != nil {
			return nil, fmt.Errorf("media: %w", err)
		}
		existing, err := r.localCopy(eventID)
		if err != nil {
			r.logger.Warn("failed to read mirrored event", "event", eventID, "error", err)
		}
		files := res.Files
		if files == nil {
			files = []string{}
		}
		return &MediaList{Images: mergeImages(res.Images, existing), Files: files}, nil
	}

	ev, err := r.local.GetEvent(eventID)
	if err != nil {
		return nil, fmt.Errorf("media: %w", err)
	}
	return &MediaList{Images: ev.Images, Files: ev.Files}, nil
}
