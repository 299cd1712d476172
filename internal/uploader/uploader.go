package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/h2non/filetype"

	"github.com/linkpost/linkpost-bot/pkg/config"
	apperrors "github.com/linkpost/linkpost-bot/pkg/errors"
	"github.com/linkpost/linkpost-bot/pkg/logger"
	"go.uber.org/fx"
)

// Client sends image files to the backend upload endpoint and returns the
// stored URL. Size and type are checked before any byte leaves the process.
type Client struct {
	uploadURL string
	maxBytes  int64
	http      *http.Client
	logger    logger.Logger
}

type Opts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
}

func New(opts Opts) *Client {
	return &Client{
		uploadURL: opts.Config.API.UploadURL,
		maxBytes:  opts.Config.API.MaxUploadBytes,
		http:      &http.Client{Timeout: 60 * time.Second},
		logger:    opts.Logger.WithComponent("Uploader"),
	}
}

// Upload validates and uploads one image. The ceiling check happens first so
// an oversized file is rejected without a network call.
func (c *Client) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	if int64(len(data)) > c.maxBytes {
		return "", apperrors.Validation(
			fmt.Sprintf("file exceeds the %d MB limit", c.maxBytes/(1024*1024)))
	}
	if !filetype.IsImage(data) {
		return "", apperrors.Validation("file is not a recognized image format")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", apperrors.Transport(err, "image upload failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperrors.Transport(nil, fmt.Sprintf("upload endpoint returned status %d", resp.StatusCode))
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", apperrors.Transport(err, "malformed upload response")
	}
	if out.URL == "" {
		return "", apperrors.Transport(nil, "upload endpoint returned no URL")
	}

	c.logger.Info("Image uploaded", "filename", filename, "url", out.URL)
	return out.URL, nil
}

// UploadFromURL fetches an image (a Telegram file link, typically) and
// re-uploads it to the backend. The download is capped one byte past the
// ceiling so oversized sources fail the same validation as local files.
func (c *Client) UploadFromURL(ctx context.Context, sourceURL, filename string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", apperrors.Transport(err, "could not fetch source image")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperrors.Transport(nil, fmt.Sprintf("source returned status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return "", apperrors.Transport(err, "could not read source image")
	}

	return c.Upload(ctx, filename, data)
}
