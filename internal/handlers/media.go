package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pliu/eventplanner/internal/media"
	"github.com/pliu/eventplanner/internal/middleware"
	"github.com/pliu/eventplanner/internal/store"
)

// MediaStorage keeps the bytes of uploaded images and files.
type MediaStorage interface {
	Save(kind media.Kind, filename string, r io.Reader) (string, error)
	RemoveAsync(publicPath string)
}

const maxUploadSize = 32 << 20

type DeleteImageRequest struct {
	ImagePath string `json:"imagePath"`
}

type DeleteFileRequest struct {
	FilePath string `json:"filePath"`
}

// saveUpload stores the multipart field and returns its public path.
func (h *EventHandler) saveUpload(w http.ResponseWriter, r *http.Request, field string, kind media.Kind) (string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile(field)
	if err != nil {
		http.Error(w, "No "+field+" uploaded", http.StatusBadRequest)
		return "", false
	}
	defer file.Close()

	path, err := h.Media.Save(kind, header.Filename, file)
	if errors.Is(err, media.ErrEmptyUpload) {
		http.Error(w, "Uploaded "+field+" is empty", http.StatusBadRequest)
		return "", false
	}
	if err != nil {
		internalError(w, "failed to store upload", err)
		return "", false
	}
	return path, true
}

func (h *EventHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	event, ok := loadMemberEvent(w, h.Store, mux.Vars(r)["id"], middleware.UserID(r))
	if !ok {
		return
	}
	path, ok := h.saveUpload(w, r, "image", media.Images)
	if !ok {
		return
	}

	img, err := h.Store.AddImage(event.ID, path)
	if err != nil {
		h.Media.RemoveAsync(path)
		internalError(w, "failed to record image", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"image":  img,
		"images": append(event.Images, img),
	})
}

func (h *EventHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	event, ok := loadOwnedEvent(w, h.Store, mux.Vars(r)["id"], middleware.UserID(r))
	if !ok {
		return
	}
	var req DeleteImageRequest
	if !decode(w, r, &req) {
		return
	}

	img, err := h.Store.RemoveImage(event.ID, req.ImagePath)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Image not found", http.StatusNotFound)
		return
	}
	if err != nil {
		internalError(w, "failed to remove image", err)
		return
	}
	h.Media.RemoveAsync(img.Path)

	images := event.Images[:0:0]
	for _, existing := range event.Images {
		if existing.ID != img.ID {
			images = append(images, existing)
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"images": images})
}

func (h *EventHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	event, ok := loadMemberEvent(w, h.Store, mux.Vars(r)["id"], middleware.UserID(r))
	if !ok {
		return
	}
	path, ok := h.saveUpload(w, r, "file", media.Files)
	if !ok {
		return
	}

	if err := h.Store.AddFile(event.ID, path); err != nil {
		h.Media.RemoveAsync(path)
		internalError(w, "failed to record file", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"file":  path,
		"files": append(event.Files, path),
	})
}

func (h *EventHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	event, ok := loadOwnedEvent(w, h.Store, mux.Vars(r)["id"], middleware.UserID(r))
	if !ok {
		return
	}
	var req DeleteFileRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.Store.RemoveFile(event.ID, req.FilePath); errors.Is(err, store.ErrNotFound) {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	} else if err != nil {
		internalError(w, "failed to remove file", err)
		return
	}
	h.Media.RemoveAsync(req.FilePath)

	files := []string{}
	removed := false
	for _, f := range event.Files {
		if !removed && f == req.FilePath {
			removed = true
			continue
		}
		files = append(files, f)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"files": files})
}

func (h *EventHandler) GetMedia(w http.ResponseWriter, r *http.Request) {
	event, ok := loadMemberEvent(w, h.Store, mux.Vars(r)["id"], middleware.UserID(r))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"images": event.Images, "files": event.Files})
}
