package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpload(t *testing.T) {
	var gotMethod, gotPath, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		payload, _ := io.ReadAll(r.Body)
		gotBody = string(payload)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"url":"https://cdn.example/objects/rec.mp3"}`))
	}))
	defer server.Close()

	uploader := NewHTTPUploader(server.URL)
	data := "fake audio bytes"
	url, err := uploader.Upload(context.Background(), "rec.mp3", strings.NewReader(data), int64(len(data)), nil)
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example/objects/rec.mp3", url)
	assert.Equal(t, "PUT", gotMethod)
	assert.Equal(t, "/objects/rec.mp3", gotPath)
	assert.Equal(t, data, gotBody)
}

func TestUpload_ReportsProgress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		w.Write([]byte(`{"url":"https://cdn.example/objects/x"}`))
	}))
	defer server.Close()

	uploader := NewHTTPUploader(server.URL)
	data := strings.Repeat("a", 1<<16)

	var lastSent, lastTotal int64
	var calls int
	_, err := uploader.Upload(context.Background(), "x", strings.NewReader(data), int64(len(data)), func(sent, total int64) {
		require.GreaterOrEqual(t, sent, lastSent, "progress is cumulative")
		lastSent = sent
		lastTotal = total
		calls++
	})
	require.NoError(t, err)

	assert.Greater(t, calls, 0)
	assert.Equal(t, int64(len(data)), lastSent)
	assert.Equal(t, int64(len(data)), lastTotal)
}

func TestUpload_StorageError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInsufficientStorage)
		w.Write([]byte("bucket full"))
	}))
	defer server.Close()

	uploader := NewHTTPUploader(server.URL)
	_, err := uploader.Upload(context.Background(), "x", strings.NewReader("data"), 4, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 507")
	assert.Contains(t, err.Error(), "bucket full")
}

func TestUpload_MissingURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	uploader := NewHTTPUploader(server.URL)
	_, err := uploader.Upload(context.Background(), "x", strings.NewReader("data"), 4, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no URL")
}
