package handler

import "net/http"

func (h *Handler) getImageDimensions(w http.ResponseWriter, r *http.Request) {
	uri := r.URL.Query().Get("uri")
	if uri == "" {
		respondError(w, http.StatusBadRequest, "uri is required")
		return
	}
	dims, ok := h.images.Dimensions(r.Context(), uri)
	if !ok {
		respondError(w, http.StatusNotFound, "image dimensions not cached")
		return
	}
	respond(w, http.StatusOK, dimensionsView{Width: dims.Width, Height: dims.Height})
}
