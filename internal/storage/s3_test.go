package storage_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/talent-coach/backend/internal/config"
	"github.com/zhouzirui/talent-coach/backend/internal/storage"
)

type fakeBucket struct {
	mu      sync.Mutex
	methods []string
	paths   []string
}

func (b *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_, _ = io.Copy(io.Discard, r.Body)
	b.mu.Lock()
	b.methods = append(b.methods, r.Method)
	b.paths = append(b.paths, r.URL.Path)
	b.mu.Unlock()

	switch r.Method {
	case http.MethodPut:
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("resume body"))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newStore(t *testing.T, bucket *fakeBucket) *storage.S3Store {
	t.Helper()
	srv := httptest.NewServer(bucket)
	t.Cleanup(srv.Close)

	store, err := storage.NewS3Store(context.Background(), config.StorageConfig{
		AccessKey: "ak",
		SecretKey: "sk",
		Bucket:    "reports",
		Endpoint:  srv.URL,
		Region:    "auto",
	})
	require.NoError(t, err)
	return store
}

func TestS3StorePutAndGet(t *testing.T) {
	bucket := &fakeBucket{}
	store := newStore(t, bucket)
	ctx := context.Background()

	payload := []byte("%PDF-1.3 report")
	require.NoError(t, store.Put(ctx, "reports/s-1/report.pdf", bytes.NewReader(payload), int64(len(payload)), "application/pdf"))

	data, err := store.Get(ctx, "resumes/cv.txt")
	require.NoError(t, err)
	assert.Equal(t, "resume body", string(data))

	bucket.mu.Lock()
	defer bucket.mu.Unlock()
	assert.Equal(t, []string{http.MethodPut, http.MethodGet}, bucket.methods)
	assert.Equal(t, []string{"/reports/reports/s-1/report.pdf", "/reports/resumes/cv.txt"}, bucket.paths)
}

func TestNewS3StoreRequiresConfig(t *testing.T) {
	_, err := storage.NewS3Store(context.Background(), config.StorageConfig{Bucket: "reports"})
	assert.Error(t, err)
}
