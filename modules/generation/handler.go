package generation

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"fashion-ai-server/modules/common/apperr"
	"fashion-ai-server/modules/common/session"
	"fashion-ai-server/modules/common/storage"
)

// Uploader - product image upload (satisfied by storage.Client)
type Uploader interface {
	UploadProductImage(ctx context.Context, data []byte) (string, error)
}

type Handler struct {
	service  *Service
	uploader Uploader
	watcher  *Watcher
}

func NewHandler(service *Service, uploader Uploader) *Handler {
	return &Handler{
		service:  service,
		uploader: uploader,
		watcher:  NewWatcher(service),
	}
}

// HandleSubmit - POST /api/generations
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	user := session.UserFrom(ctx)
	if user == nil {
		writeJSON(w, SubmitResponse{Success: false, Error: "请先登录"})
		return
	}

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, SubmitResponse{Success: false, Error: "无效的请求格式"})
		return
	}

	gen, err := h.service.Submit(ctx, user.ID, req.ProductImageURL, req.CampaignID)
	if err != nil {
		writeJSON(w, SubmitResponse{Success: false, Error: userMessage(err)})
		return
	}

	writeJSON(w, SubmitResponse{
		Success:      true,
		TaskID:       gen.ID,
		GenerationID: gen.ID,
	})
}

// HandleStatus - GET /api/generations/{id}/status
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	generationID := mux.Vars(r)["id"]

	data, err := h.service.GetStatus(r.Context(), generationID)
	if err != nil {
		// Status-check failures surface as a generic failure, never
		// the underlying provider/storage error.
		log.Printf("❌ [Status] %s: %v", generationID, err)
		writeJSON(w, StatusResponse{Success: false, Error: "查询失败"})
		return
	}

	writeJSON(w, StatusResponse{Success: true, Data: data})
}

// HandleUpload - POST /api/uploads (multipart form, field "file")
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	if session.UserFrom(ctx) == nil {
		writeJSON(w, UploadResponse{Success: false, Error: "请先登录"})
		return
	}

	if err := r.ParseMultipartForm(storage.MaxFileSize); err != nil {
		writeJSON(w, UploadResponse{Success: false, Error: "文件大小不能超过 10MB"})
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, UploadResponse{Success: false, Error: "请选择文件"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, storage.MaxFileSize+1))
	if err != nil {
		writeJSON(w, UploadResponse{Success: false, Error: "上传失败，请重试"})
		return
	}

	url, err := h.uploader.UploadProductImage(ctx, data)
	if err != nil {
		writeJSON(w, UploadResponse{Success: false, Error: userMessage(err)})
		return
	}

	writeJSON(w, UploadResponse{Success: true, URL: url})
}

// HandleWatch - GET /api/generations/{id}/watch (WebSocket)
func (h *Handler) HandleWatch(w http.ResponseWriter, r *http.Request) {
	if session.UserFrom(r.Context()) == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	h.watcher.Serve(w, r, mux.Vars(r)["id"])
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	json.NewEncoder(w).Encode(v)
}

// userMessage - user-facing text for an orchestrator error
func userMessage(err error) string {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr.UserMessage
	}
	return apperr.Message(err)
}
