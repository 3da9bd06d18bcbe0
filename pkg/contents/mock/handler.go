package mock

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

const apiPrefix = "/api/contents"

// Handler exposes the store over the contents REST protocol:
//
//	GET    /api/contents/<path>                 item (200)
//	POST   /api/contents/<dir>                  new untitled or copy (201)
//	PUT    /api/contents/<path>                 save (200, 201 when created)
//	PATCH  /api/contents/<path>                 rename (200)
//	DELETE /api/contents/<path>                 delete (204)
//	GET    /api/contents/<path>/checkpoints     list (200)
//	POST   /api/contents/<path>/checkpoints     create (201)
//	POST   /api/contents/<path>/checkpoints/<id> restore (204)
//	DELETE /api/contents/<path>/checkpoints/<id> delete (204)
func Handler(store *Store) http.Handler {
	return &handler{store: store}
}

type handler struct {
	store *Store
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rel, ok := strings.CutPrefix(r.URL.Path, apiPrefix)
	if !ok || (rel != "" && rel[0] != '/') {
		http.NotFound(w, r)
		return
	}
	rel = strings.Trim(rel, "/")

	if itemPath, cpID, isCheckpoint := splitCheckpointRoute(rel); isCheckpoint {
		h.serveCheckpoints(w, r, itemPath, cpID)
		return
	}
	h.serveContents(w, r, rel)
}

func (h *handler) serveContents(w http.ResponseWriter, r *http.Request, p string) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		includeContent := q.Get("content") != "0"
		model, err := h.store.Get(p, q.Get("type"), includeContent)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, model)

	case http.MethodPost:
		var body struct {
			CopyFrom string `json:"copy_from"`
			Ext      string `json:"ext"`
			Type     string `json:"type"`
			Name     string `json:"name"`
		}
		decodeBody(r, &body)
		var (
			model *Model
			err   error
		)
		if body.CopyFrom != "" {
			model, err = h.store.Copy(body.CopyFrom, p)
		} else {
			model, err = h.store.NewUntitled(p, body.Type, body.Ext, body.Name)
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, model)

	case http.MethodPut:
		var body SaveModel
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		model, created, err := h.store.Save(p, body)
		if err != nil {
			writeError(w, err)
			return
		}
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		writeJSON(w, status, model)

	case http.MethodPatch:
		var body struct {
			Path string `json:"path"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Path == "" {
			http.Error(w, "rename requires a path", http.StatusBadRequest)
			return
		}
		model, err := h.store.Rename(p, body.Path)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, model)

	case http.MethodDelete:
		if err := h.store.Delete(p); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *handler) serveCheckpoints(w http.ResponseWriter, r *http.Request, p, cpID string) {
	switch {
	case cpID == "" && r.Method == http.MethodGet:
		cps, err := h.store.ListCheckpoints(p)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cps)

	case cpID == "" && r.Method == http.MethodPost:
		cp, err := h.store.CreateCheckpoint(p)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, cp)

	case cpID != "" && r.Method == http.MethodPost:
		if err := h.store.RestoreCheckpoint(p, cpID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case cpID != "" && r.Method == http.MethodDelete:
		if err := h.store.DeleteCheckpoint(p, cpID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// splitCheckpointRoute recognizes ".../checkpoints" and
// ".../checkpoints/<id>" suffixes and peels them off the item path.
func splitCheckpointRoute(rel string) (itemPath, cpID string, ok bool) {
	segments := strings.Split(rel, "/")
	n := len(segments)
	if n >= 2 && segments[n-2] == "checkpoints" {
		return strings.Join(segments[:n-2], "/"), segments[n-1], true
	}
	if n >= 1 && segments[n-1] == "checkpoints" {
		return strings.Join(segments[:n-1], "/"), "", true
	}
	return "", "", false
}

func decodeBody(r *http.Request, out any) {
	if r.Body == nil {
		return
	}
	_ = json.NewDecoder(r.Body).Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrDirectoryNotEmpty), errors.Is(err, ErrNotDirectory):
		status = http.StatusBadRequest
	case errors.Is(err, ErrExists):
		status = http.StatusConflict
	}
	http.Error(w, err.Error(), status)
}
