package uploader

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkpost/linkpost-bot/pkg/config"
	apperrors "github.com/linkpost/linkpost-bot/pkg/errors"
	"github.com/linkpost/linkpost-bot/pkg/logger"
)

// pngHeader is enough for filetype sniffing to accept the payload.
var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}

func newTestClient(uploadURL string, maxBytes int64) *Client {
	return &Client{
		uploadURL: uploadURL,
		maxBytes:  maxBytes,
		http:      &http.Client{Timeout: 5 * time.Second},
		logger:    logger.New(logger.Opts{}).WithComponent("Uploader"),
	}
}

func TestUploadHappyPath(t *testing.T) {
	var gotFilename string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		gotFilename = header.Filename
		fmt.Fprint(w, `{"url":"http://cdn/stored.png"}`)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 5*1024*1024)
	url, err := client.Upload(context.Background(), "photo.png", pngHeader)
	require.NoError(t, err)
	assert.Equal(t, "http://cdn/stored.png", url)
	assert.Equal(t, "photo.png", gotFilename)
}

func TestUploadRejectsOversizedFileWithoutNetworkCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("oversized file must be rejected before upload")
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 8)
	_, err := client.Upload(context.Background(), "big.png", pngHeader)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestUploadRejectsNonImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("non-image must be rejected before upload")
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 5*1024*1024)
	_, err := client.Upload(context.Background(), "notes.txt", []byte("plain text"))
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestUploadMissingURLIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 5*1024*1024)
	_, err := client.Upload(context.Background(), "photo.png", pngHeader)
	require.Error(t, err)
	assert.True(t, apperrors.IsTransport(err))
}

func TestUploadFromURL(t *testing.T) {
	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(pngHeader)
	}))
	defer source.Close()

	upload := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"url":"http://cdn/fetched.png"}`)
	}))
	defer upload.Close()

	client := newTestClient(upload.URL, 5*1024*1024)
	url, err := client.UploadFromURL(context.Background(), source.URL, "fetched.png")
	require.NoError(t, err)
	assert.Equal(t, "http://cdn/fetched.png", url)
}

// Keep the config-driven constructor honest.
func TestNewReadsCeilingFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.API.UploadURL = "http://backend/api/upload-image"
	cfg.API.MaxUploadBytes = 5 * 1024 * 1024

	client := New(Opts{Config: cfg, Logger: logger.New(logger.Opts{})})
	assert.Equal(t, int64(5*1024*1024), client.maxBytes)
	assert.Equal(t, "http://backend/api/upload-image", client.uploadURL)
}
