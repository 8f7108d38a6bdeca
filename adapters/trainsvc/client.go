package trainsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pipewiz/domain/dataset"
	"pipewiz/domain/training"
	"pipewiz/domain/wizard"
	"pipewiz/internal"
	"pipewiz/internal/errors"
	"pipewiz/ports"
)

// Config locates the training service.
type Config struct {
	BaseURL         string
	Timeout         time.Duration
	URLCheckTimeout time.Duration
}

// Client implements ports.TrainingService over HTTP.
type Client struct {
	baseURL         string
	http            *http.Client
	urlCheckTimeout time.Duration
	log             *internal.Logger
}

var _ ports.TrainingService = (*Client)(nil)

// NewClient creates a client for the training service at cfg.BaseURL
func NewClient(cfg Config, log *internal.Logger) *Client {
	if log == nil {
		log = internal.NopLogger()
	}
	return &Client{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		http:            &http.Client{Timeout: cfg.Timeout},
		urlCheckTimeout: cfg.URLCheckTimeout,
		log:             log.With("trainsvc"),
	}
}

// Upload posts the dataset as multipart field "file".
func (c *Client) Upload(ctx context.Context, file ports.Upload) (*dataset.ColumnStatistics, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", file.Filename)
	if err != nil {
		return nil, errors.Wrap(err, "build upload form")
	}
	if _, err := io.Copy(part, file.Content); err != nil {
		return nil, errors.InvalidInput(fmt.Sprintf("read %s: %v", file.Filename, err))
	}
	if err := mw.Close(); err != nil {
		return nil, errors.Wrap(err, "build upload form")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &buf)
	if err != nil {
		return nil, errors.Wrap(err, "build upload request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	body, err := c.do(req, "upload")
	if err != nil {
		return nil, err
	}
	return decodeColumnStatistics(body)
}

// TargetStats fetches the distribution of one column.
func (c *Client) TargetStats(ctx context.Context, column string) (*dataset.TargetColumnStats, error) {
	endpoint := c.baseURL + "/target_stats?" + url.Values{"col": {column}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build target stats request")
	}
	body, err := c.do(req, "target_stats")
	if err != nil {
		return nil, err
	}
	return decodeTargetStats(body)
}

// CheckURLs posts the URLs as a JSON array.
func (c *Client) CheckURLs(ctx context.Context, urls []string) (*dataset.URLValidationReport, error) {
	if c.urlCheckTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.urlCheckTimeout)
		defer cancel()
	}
	if urls == nil {
		urls = []string{}
	}
	raw, err := json.Marshal(urls)
	if err != nil {
		return nil, errors.Wrap(err, "marshal URL list")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/check_urls", bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(err, "build URL check request")
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req, "check_urls")
	if err != nil {
		return nil, err
	}
	return decodeURLReport(body)
}

// Train posts the request fields as a multipart form in their given order.
func (c *Client) Train(ctx context.Context, tr wizard.TrainingRequest) (training.Result, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range tr.Fields {
		if err := mw.WriteField(f.Name, f.Value); err != nil {
			return nil, errors.Wrap(err, "build train form")
		}
	}
	if err := mw.Close(); err != nil {
		return nil, errors.Wrap(err, "build train form")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/train", &buf)
	if err != nil {
		return nil, errors.Wrap(err, "build train request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	body, err := c.do(req, "train")
	if err != nil {
		return nil, err
	}
	return decodeResult(body)
}

// do sends req and classifies failures: transport errors are connectivity
// errors, non-2xx responses are service rejections.
func (c *Client) do(req *http.Request, op string) ([]byte, error) {
	start := time.Now()
	c.log.Debug("%s %s", req.Method, req.URL.Path)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("%s failed after %s: %v", op, time.Since(start), err)
		return nil, errors.Connectivity(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Connectivity(op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := detailMessage(body)
		c.log.Warn("%s rejected with HTTP %d: %s", op, resp.StatusCode, detail)
		return nil, errors.ServiceRejected(resp.StatusCode, detail)
	}

	c.log.Info("%s completed in %s", op, time.Since(start))
	return body, nil
}
