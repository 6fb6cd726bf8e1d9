package transcribe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmit(t *testing.T) {
	var gotAuth string
	var gotBody submitRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/transcript", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"id":"job-1","status":"queued"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key-123")
	id, err := client.Submit(context.Background(), "https://cdn.example/rec.mp3")
	require.NoError(t, err)

	assert.Equal(t, "job-1", id)
	assert.Equal(t, "key-123", gotAuth)
	assert.Equal(t, "https://cdn.example/rec.mp3", gotBody.AudioURL)
}

func TestSubmit_MissingJobID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"queued"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	_, err := client.Submit(context.Background(), "https://cdn.example/rec.mp3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no job id")
}

func TestTranscribe_PollsUntilCompleted(t *testing.T) {
	var gets atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Write([]byte(`{"id":"job-1","status":"queued"}`))
			return
		}
		require.Equal(t, "/v2/transcript/job-1", r.URL.Path)
		if gets.Add(1) < 3 {
			w.Write([]byte(`{"id":"job-1","status":"processing"}`))
			return
		}
		w.Write([]byte(`{"id":"job-1","status":"completed","text":"we agreed to ship Friday"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	client.pollInterval = time.Millisecond

	text, err := client.Transcribe(context.Background(), "https://cdn.example/rec.mp3")
	require.NoError(t, err)
	assert.Equal(t, "we agreed to ship Friday", text)
	assert.Equal(t, int32(3), gets.Load())
}

func TestTranscribe_ErrorStateIsTerminal(t *testing.T) {
	var gets atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Write([]byte(`{"id":"job-1","status":"queued"}`))
			return
		}
		gets.Add(1)
		w.Write([]byte(`{"id":"job-1","status":"error","error":"unsupported codec"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	client.pollInterval = time.Millisecond

	_, err := client.Transcribe(context.Background(), "https://cdn.example/rec.mp3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported codec")
	assert.Equal(t, int32(1), gets.Load(), "a settled error is not polled again")
}

func TestTranscribe_SubmitFailureShortCircuits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("bad key"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "wrong")
	_, err := client.Transcribe(context.Background(), "https://cdn.example/rec.mp3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}
