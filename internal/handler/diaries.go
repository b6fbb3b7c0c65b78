package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/yingshengwanyue/zhouzhou/internal/middleware"
)

// Large enough for the form fields; file parts above this spill to disk.
const multipartMemoryLimit = 32 << 20

// ListDiaries returns all of the caller's entries, newest first, with the
// image list already expanded to an array.
func (h *Handler) ListDiaries(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "unauthorized, please log in")
		return
	}

	entries, err := h.svc.ListEntries(r.Context(), userID)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, entries)
}

// GetDiary returns a single owned entry.
func (h *Handler) GetDiary(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "unauthorized, please log in")
		return
	}
	id, err := entryID(r)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "diary entry not found")
		return
	}

	entry, err := h.svc.GetEntry(r.Context(), userID, id)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, entry)
}

// CreateDiary creates an entry from a multipart form: title, content and
// up to the configured number of image files. Files are validated and
// written before the record is committed; if the commit fails they are
// removed again so no request leaves orphaned uploads.
func (h *Handler) CreateDiary(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "unauthorized, please log in")
		return
	}
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	title := r.FormValue("title")
	content := r.FormValue("content")
	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		h.respondError(w, http.StatusBadRequest, "title and content are required")
		return
	}

	refs, err := h.saver.SaveAll(r.MultipartForm.File["images"])
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	id, err := h.svc.CreateEntry(r.Context(), userID, title, content, refs)
	if err != nil {
		h.saver.Remove(refs)
		h.respondDomainError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"id":      id,
		"message": "diary entry created",
	})
}

// UpdateDiary rewrites an owned entry. The form carries the retained image
// references as a JSON array plus any newly uploaded files; retained refs
// keep their position ahead of new uploads.
func (h *Handler) UpdateDiary(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "unauthorized, please log in")
		return
	}
	id, err := entryID(r)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "diary entry not found")
		return
	}
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	title := r.FormValue("title")
	content := r.FormValue("content")
	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		h.respondError(w, http.StatusBadRequest, "title and content are required")
		return
	}

	retained := []string{}
	if raw := r.FormValue("existingImages"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &retained); err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid existingImages value")
			return
		}
	}

	refs, err := h.saver.SaveAll(r.MultipartForm.File["images"])
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	images := append(retained, refs...)
	if err := h.svc.UpdateEntry(r.Context(), userID, id, title, content, images); err != nil {
		h.saver.Remove(refs)
		h.respondDomainError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "diary entry updated",
	})
}

// DeleteDiary removes an owned entry permanently.
func (h *Handler) DeleteDiary(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "unauthorized, please log in")
		return
	}
	id, err := entryID(r)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "diary entry not found")
		return
	}

	if err := h.svc.DeleteEntry(r.Context(), userID, id); err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "diary entry deleted",
	})
}

// SearchDiaries returns the caller's entries matching the path query as a
// literal substring, newest first.
func (h *Handler) SearchDiaries(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "unauthorized, please log in")
		return
	}

	entries, err := h.svc.SearchEntries(r.Context(), userID, mux.Vars(r)["query"])
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, entries)
}

// entryID parses the id path variable. Unparseable ids behave like absent
// entries so the error surface stays a plain 404.
func entryID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}
