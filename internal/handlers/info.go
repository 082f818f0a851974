package handlers

import (
	"errors"
	"io/fs"
	"net/http"

	"batch-resizer/internal/media"
	"batch-resizer/internal/mediatypes"
)

// FormatsResponse lists what the batch endpoints accept.
type FormatsResponse struct {
	Extensions []string `json:"extensions"`
	Modes      []string `json:"modes"`
	MinQuality int      `json:"minQuality"`
	MaxQuality int      `json:"maxQuality"`
}

// GetInfo returns the format, dimensions and size of one image.
func (h *Handlers) GetInfo(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSONError(w, "Path is required", http.StatusBadRequest)
		return
	}

	abs, err := h.resolvePath(path)
	if err != nil {
		err = h.pathError(err)
		writeJSONError(w, err.Error(), statusFor(err))
		return
	}

	if !mediatypes.IsSupported(abs) {
		writeJSONError(w, "Unsupported format", http.StatusUnsupportedMediaType)
		return
	}

	info, err := media.Inspect(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeJSONError(w, "File not found", http.StatusNotFound)
			return
		}
		writeJSONError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, info)
}

// GetFormats lists supported extensions and resize modes.
func (h *Handlers) GetFormats(w http.ResponseWriter, _ *http.Request) {
	modes := make([]string, 0, len(media.Modes))
	for _, m := range media.Modes {
		modes = append(modes, m.String())
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	writeJSON(w, FormatsResponse{
		Extensions: mediatypes.SupportedExtensions(),
		Modes:      modes,
		MinQuality: media.MinQuality,
		MaxQuality: media.MaxQuality,
	})
}
