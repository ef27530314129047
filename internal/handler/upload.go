package handler

import (
	"io"
	"net/http"
)

type uploadResponse struct {
	URL string `json:"url"`
}

// multipart overhead on top of the file itself
const formOverhead = 1 << 20

// UploadImage принимает изображение из поля формы image и сохраняет его.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+formOverhead)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, _, err := r.FormFile("image")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "failed to read image")
		return
	}
	if int64(len(data)) > h.maxUploadBytes {
		writeMessage(w, http.StatusBadRequest, "image is too large")
		return
	}

	url, err := h.uploader.SaveImage(r.Context(), data)
	if err != nil {
		h.writeError(w, r, "upload image", err)
		return
	}
	writeJSON(w, http.StatusCreated, uploadResponse{URL: url})
}
