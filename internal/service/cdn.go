package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	cdnUploadEndpoint = "/upload"
	postImagesPath    = "post-images"
	maxCDNReplySize   = 4 << 10
)

// cdnClient stores hero images on the CDN. The CDN answers a successful
// upload with the public URL as a plain text body.
type cdnClient struct {
	logger *zap.Logger
	http   *http.Client
}

func newCDNClient(logger *zap.Logger) *cdnClient {
	return &cdnClient{
		logger: logger,
		http:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *cdnClient) UploadImage(ctx context.Context, path string, file multipart.File, fileHeader *multipart.FileHeader) (string, error) {
	body, contentType, err := imageForm(path, file, fileHeader.Filename)
	if err != nil {
		c.logger.Sugar().Errorf("failed to build CDN upload of %q: %s", fileHeader.Filename, err.Error())
		return "", ErrInternal
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, viper.GetString("cdn.origin")+cdnUploadEndpoint, body)
	if err != nil {
		c.logger.Sugar().Errorf("failed to create CDN request: %s", err.Error())
		return "", ErrInternal
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("type", "IMAGE")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Sugar().Errorf("CDN upload of %q failed: %s", fileHeader.Filename, err.Error())
		return "", ErrFailedToUploadPostImageToCDN
	}
	defer resp.Body.Close()

	reply, err := io.ReadAll(io.LimitReader(resp.Body, maxCDNReplySize))
	if err != nil {
		c.logger.Sugar().Errorf("failed to read CDN reply: %s", err.Error())
		return "", ErrFailedToUploadPostImageToCDN
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Sugar().Errorf("CDN endpoint(%s) answered %d: %s", cdnUploadEndpoint, resp.StatusCode, reply)
		return "", ErrFailedToUploadPostImageToCDN
	}

	return strings.TrimSpace(string(reply)), nil
}

// imageForm encodes the file and its target path as multipart form data.
func imageForm(path string, file multipart.File, filename string) (*bytes.Buffer, string, error) {
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, "", fmt.Errorf("rewind: %w", err)
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	if err := form.WriteField("path", path); err != nil {
		return nil, "", err
	}
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("copy: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, "", err
	}

	return &buf, form.FormDataContentType(), nil
}
