package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	app "xray-assistant/internal/application"
	"xray-assistant/internal/domain/entity"
	"xray-assistant/internal/domain/port"
	"xray-assistant/internal/infrastructure/storage"
)

// DefaultMaxUploadBytes предельный размер тела запроса на загрузку
const DefaultMaxUploadBytes = 16 << 20

const multipartMemory = 8 << 20

var allowedExtensions = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"gif":  {},
}

// Analyzer операции сервиса анализа, нужные веб-интерфейсу
type Analyzer interface {
	Analyze(ctx context.Context, conversationID, imagePath string) (*entity.AnalysisResult, error)
	Chat(ctx context.Context, conversationID, text string) (string, error)
	History(ctx context.Context, conversationID string) ([]entity.Turn, error)
}

// Options параметры веб-интерфейса
type Options struct {
	StaticFS       afero.Fs // корень статики, отдаётся под /static/
	StaticDir      string   // тот же каталог в пространстве путей хранилища снимков
	MaxUploadBytes int64
}

type Handler struct {
	analyzer Analyzer
	images   port.ImageStore
	opts     Options
}

func NewHandler(analyzer Analyzer, images port.ImageStore, opts Options) *Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	return &Handler{
		analyzer: analyzer,
		images:   images,
		opts:     opts,
	}
}

// Routes собирает маршруты с CORS
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload", h.UploadHandler)
	mux.HandleFunc("POST /chat", h.ChatHandler)
	mux.HandleFunc("GET /history", h.HistoryHandler)
	mux.HandleFunc("GET /health", h.HealthHandler)

	if h.opts.StaticFS != nil {
		files := http.FileServer(afero.NewHttpFs(h.opts.StaticFS).Dir("/"))
		mux.Handle("GET /static/", http.StripPrefix("/static", files))
		mux.Handle("GET /{$}", files)
	}

	return corsMiddleware(mux)
}

// UploadHandler обрабатывает POST /upload
func (h *Handler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	session := sessionID(w, r)
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if isTooLarge(err) {
			respondError(w, "File too large", http.StatusRequestEntityTooLarge)
			return
		}
		respondError(w, "No file part", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, "No file part", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Filename == "" {
		respondError(w, "No selected file", http.StatusBadRequest)
		return
	}
	if !allowedFile(header.Filename) {
		respondError(w, "File type not allowed", http.StatusBadRequest)
		return
	}

	name := storage.SecureFilename(header.Filename)
	if !allowedFile(name) {
		respondError(w, "File type not allowed", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, "Failed to read file", http.StatusInternalServerError)
		return
	}
	if len(data) == 0 {
		respondError(w, "No selected file", http.StatusBadRequest)
		return
	}

	path, err := h.images.Save(r.Context(), name, data)
	if err != nil {
		slog.ErrorContext(r.Context(), "не удалось сохранить загрузку", "file", name, "error", err)
		respondError(w, "An unexpected error occurred during processing", http.StatusInternalServerError)
		return
	}

	result, err := h.analyzer.Analyze(r.Context(), session, path)
	if err != nil {
		if errors.Is(err, entity.ErrTimeout) {
			respondError(w, "Analysis timed out", http.StatusGatewayTimeout)
			return
		}
		slog.ErrorContext(r.Context(), "ошибка анализа загрузки", "file", name, "error", err)
		respondError(w, "An unexpected error occurred during processing", http.StatusInternalServerError)
		return
	}

	respondJSON(w, uploadResponse{
		Message:        "File uploaded and analyzed successfully",
		Analysis:       result,
		AnnotatedImage: h.staticURL(result.AnnotatedImagePath),
	}, http.StatusOK)
}

type uploadResponse struct {
	Message        string                 `json:"message"`
	Analysis       *entity.AnalysisResult `json:"analysis"`
	AnnotatedImage string                 `json:"annotated_image"`
}

type chatRequest struct {
	Message *string `json:"message"`
}

// ChatHandler обрабатывает POST /chat
func (h *Handler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	session := sessionID(w, r)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == nil {
		respondError(w, "No message provided", http.StatusBadRequest)
		return
	}

	answer, err := h.analyzer.Chat(r.Context(), session, *req.Message)
	switch {
	case err == nil:
		respondJSON(w, map[string]string{"response": answer}, http.StatusOK)
	case errors.Is(err, app.ErrEmptyMessage):
		respondError(w, "No message provided", http.StatusBadRequest)
	case errors.Is(err, entity.ErrTimeout):
		respondError(w, "Chat response timed out", http.StatusGatewayTimeout)
	default:
		slog.ErrorContext(r.Context(), "ошибка ответа в чате", "error", err)
		respondError(w, "An error occurred while processing your message", http.StatusInternalServerError)
	}
}

type turnView struct {
	Role     entity.Role `json:"role"`
	Text     string      `json:"text"`
	HasImage bool        `json:"has_image,omitempty"`
}

// HistoryHandler отдаёт историю диалога текущей сессии без вложений
func (h *Handler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	session := sessionID(w, r)

	turns, err := h.analyzer.History(r.Context(), session)
	if err != nil {
		respondError(w, "Failed to load history", http.StatusInternalServerError)
		return
	}

	views := make([]turnView, 0, len(turns))
	for _, t := range turns {
		views = append(views, turnView{Role: t.Role, Text: t.Text, HasImage: t.Image != nil})
	}
	respondJSON(w, map[string]any{"history": views}, http.StatusOK)
}

// HealthHandler проверка здоровья сервиса
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// staticURL превращает путь в хранилище в адрес под /static/
func (h *Handler) staticURL(path string) string {
	rel, err := filepath.Rel(h.opts.StaticDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(path)
	}
	return "/static/" + filepath.ToSlash(rel)
}

func isTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large")
}

func allowedFile(name string) bool {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return false
	}
	_, ok := allowedExtensions[strings.ToLower(name[i+1:])]
	return ok
}

func respondJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, map[string]string{"error": message}, status)
}
