package resume

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects map[string][]byte

func (f fakeObjects) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := f[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return data, nil
}

func setupRouter(objects ObjectFetcher) *chi.Mux {
	r := chi.NewRouter()
	New(objects).RegisterRoutes(r)
	return r
}

func uploadRequest(t *testing.T, name, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/resumes/extract", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	return out
}

func TestExtractUploadedText(t *testing.T) {
	resp := httptest.NewRecorder()
	setupRouter(nil).ServeHTTP(resp, uploadRequest(t, "cv.txt", "text/plain", []byte("  Go engineer, 5 years  \n")))

	require.Equal(t, http.StatusOK, resp.Code)
	out := decode(t, resp)
	assert.Equal(t, "Go engineer, 5 years", out["text"])
	assert.EqualValues(t, 20, out["characters"])
}

func TestExtractUploadDetectsTypeFromName(t *testing.T) {
	resp := httptest.NewRecorder()
	setupRouter(nil).ServeHTTP(resp, uploadRequest(t, "cv.txt", "application/octet-stream", []byte("plain resume")))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "plain resume", decode(t, resp)["text"])
}

func TestExtractUnsupportedUpload(t *testing.T) {
	resp := httptest.NewRecorder()
	setupRouter(nil).ServeHTTP(resp, uploadRequest(t, "photo.png", "image/png", []byte{0x89, 'P', 'N', 'G'}))

	assert.Equal(t, http.StatusUnsupportedMediaType, resp.Code)
}

func TestExtractMissingFile(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("note", "no file"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/resumes/extract", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp := httptest.NewRecorder()
	setupRouter(nil).ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestExtractStoredObject(t *testing.T) {
	objects := fakeObjects{"resumes/42.txt": []byte("stored resume")}
	req := httptest.NewRequest(http.MethodPost, "/resumes/extract", bytes.NewBufferString(`{"object_key":"resumes/42.txt"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	setupRouter(objects).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "stored resume", decode(t, resp)["text"])
}

func TestExtractStoredObjectErrors(t *testing.T) {
	tests := []struct {
		name    string
		objects ObjectFetcher
		body    string
		status  int
	}{
		{name: "no storage", objects: nil, body: `{"object_key":"a.txt"}`, status: http.StatusServiceUnavailable},
		{name: "missing key", objects: fakeObjects{}, body: `{}`, status: http.StatusBadRequest},
		{name: "bad json", objects: fakeObjects{}, body: `{`, status: http.StatusBadRequest},
		{name: "fetch failure", objects: fakeObjects{}, body: `{"object_key":"gone.pdf"}`, status: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/resumes/extract", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp := httptest.NewRecorder()

			setupRouter(tt.objects).ServeHTTP(resp, req)

			assert.Equal(t, tt.status, resp.Code)
			assert.Equal(t, false, decode(t, resp)["success"])
		})
	}
}
