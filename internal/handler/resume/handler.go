package resume

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/hlog"

	"github.com/zhouzirui/talent-coach/backend/internal/extract"
	"github.com/zhouzirui/talent-coach/backend/pkg/utils"
)

// MaxUploadSize caps uploaded resume files.
const MaxUploadSize = 10 << 20

// ObjectFetcher loads stored objects by key.
type ObjectFetcher interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// Handler extracts plain text from resumes.
type Handler struct {
	objects ObjectFetcher
}

// New builds a resume handler. objects may be nil when object storage is not configured.
func New(objects ObjectFetcher) *Handler {
	return &Handler{objects: objects}
}

// RegisterRoutes mounts the resume routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/resumes/extract", h.handleExtract)
}

type extractResponse struct {
	Text       string `json:"text"`
	Characters int    `json:"characters"`
}

func (h *Handler) handleExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var (
		data     []byte
		fileType string
		status   int
		err      error
	)
	if mediaType == "multipart/form-data" {
		data, fileType, status, err = h.readUpload(r)
	} else {
		data, fileType, status, err = h.readObject(r)
	}
	if err != nil {
		utils.RespondError(w, status, err.Error())
		return
	}

	text, err := extract.Extract(fileType, data)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupportedType) {
			utils.RespondError(w, http.StatusUnsupportedMediaType, err.Error())
			return
		}
		hlog.FromRequest(r).Error().Err(err).Str("mime", fileType).Msg("resume extraction failed")
		utils.RespondFailure(w, http.StatusUnprocessableEntity, "Failed to extract resume text", err.Error())
		return
	}

	text = strings.TrimSpace(text)
	utils.RespondJSON(w, http.StatusOK, extractResponse{Text: text, Characters: len([]rune(text))})
}

func (h *Handler) readUpload(r *http.Request) ([]byte, string, int, error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", http.StatusBadRequest, errors.New("file is required")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", http.StatusBadRequest, errors.New("failed to read upload")
	}

	fileType := header.Header.Get("Content-Type")
	if fileType == "" || fileType == "application/octet-stream" {
		fileType = extract.DetectType(header.Filename, data)
	}
	return data, fileType, http.StatusOK, nil
}

func (h *Handler) readObject(r *http.Request) ([]byte, string, int, error) {
	var payload struct {
		ObjectKey string `json:"object_key"`
		MIME      string `json:"mime"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return nil, "", http.StatusBadRequest, errors.New("invalid request body")
	}
	if strings.TrimSpace(payload.ObjectKey) == "" {
		return nil, "", http.StatusBadRequest, errors.New("object_key is required")
	}
	if h.objects == nil {
		return nil, "", http.StatusServiceUnavailable, errors.New("object storage unavailable")
	}

	data, err := h.objects.Get(r.Context(), payload.ObjectKey)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("key", payload.ObjectKey).Msg("resume download failed")
		return nil, "", http.StatusBadGateway, errors.New("failed to fetch resume")
	}

	fileType := payload.MIME
	if fileType == "" {
		fileType = extract.DetectType(payload.ObjectKey, data)
	}
	return data, fileType, http.StatusOK, nil
}
