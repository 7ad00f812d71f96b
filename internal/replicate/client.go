package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"
)

const (
	StatusStarting   = "starting"
	StatusProcessing = "processing"
	StatusSucceeded  = "succeeded"
	StatusFailed     = "failed"
	StatusCanceled   = "canceled"
)

var ErrNoOutput = errors.New("prediction returned no output")

type Config struct {
	APIToken     string
	BaseURL      string
	Model        string
	Timeout      time.Duration
	PollInterval time.Duration
	MaxImageSize int64
}

type Client struct {
	apiToken     string
	baseURL      string
	model        string
	pollInterval time.Duration
	maxImageSize int64
	httpClient   *http.Client
	log          *slog.Logger
}

// Input mirrors the flux-2-pro input schema.
type Input struct {
	Prompt          string `json:"prompt"`
	Resolution      string `json:"resolution,omitempty"`
	AspectRatio     string `json:"aspect_ratio,omitempty"`
	OutputQuality   int    `json:"output_quality,omitempty"`
	SafetyTolerance int    `json:"safety_tolerance,omitempty"`
}

type Prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  any             `json:"error"`
}

// OutputURL returns the first URL in the prediction output. Image models
// answer with either a single URL or a list of URLs.
func (p *Prediction) OutputURL() (string, error) {
	raw := bytes.TrimSpace(p.Output)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", ErrNoOutput
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if single == "" {
			return "", ErrNoOutput
		}
		return single, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return "", fmt.Errorf("decode prediction output: %w", err)
	}
	for _, u := range list {
		if u != "" {
			return u, nil
		}
	}
	return "", ErrNoOutput
}

type Image struct {
	URL         string
	Bytes       []byte
	ContentType string
}

func NewClient(cfg Config, log *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = 2 * time.Second
	}
	maxSize := cfg.MaxImageSize
	if maxSize <= 0 {
		maxSize = 20 << 20
	}
	return &Client{
		apiToken:     cfg.APIToken,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		model:        strings.Trim(cfg.Model, "/"),
		pollInterval: poll,
		maxImageSize: maxSize,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Generate runs the configured model and returns the output image URL. The
// call blocks until the prediction finishes or ctx is done.
func (c *Client) Generate(ctx context.Context, input Input) (string, error) {
	pred, err := c.createPrediction(ctx, input)
	if err != nil {
		return "", fmt.Errorf("create prediction: %w", err)
	}

	if !isTerminal(pred.Status) {
		pred, err = c.waitPrediction(ctx, pred.ID)
		if err != nil {
			return "", err
		}
	}

	switch pred.Status {
	case StatusSucceeded:
		return pred.OutputURL()
	case StatusFailed, StatusCanceled:
		if c.log != nil {
			c.log.Error("replicate prediction failed", "prediction_id", pred.ID, "status", pred.Status, "error", pred.Error)
		}
		return "", fmt.Errorf("prediction %s %s: %v", pred.ID, pred.Status, pred.Error)
	default:
		return "", fmt.Errorf("unknown prediction status: %s", pred.Status)
	}
}

func (c *Client) createPrediction(ctx context.Context, input Input) (*Prediction, error) {
	fullURL := fmt.Sprintf("%s/v1/models/%s/predictions", c.baseURL, c.model)

	if c.log != nil {
		c.log.Info("creating replicate prediction", "model", c.model, "aspect_ratio", input.AspectRatio)
	}

	body, err := json.Marshal(map[string]any{"input": input})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// Let the API hold the connection until the prediction settles; polling
	// picks up anything that takes longer.
	req.Header.Set("Prefer", "wait")

	pred, err := c.doPrediction(req)
	if err != nil {
		return nil, err
	}
	if pred.ID == "" {
		return nil, fmt.Errorf("empty prediction id in response")
	}

	if c.log != nil {
		c.log.Info("replicate prediction created", "prediction_id", pred.ID, "status", pred.Status)
	}
	return pred, nil
}

func (c *Client) waitPrediction(ctx context.Context, id string) (*Prediction, error) {
	fullURL := fmt.Sprintf("%s/v1/predictions/%s", c.baseURL, id)

	for attempt := 0; ; attempt++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("wait prediction %s: %w", id, ctx.Err())
		case <-time.After(c.pollInterval):
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("new request: %w", err)
		}
		pred, err := c.doPrediction(req)
		if err != nil {
			return nil, fmt.Errorf("get prediction: %w", err)
		}
		if isTerminal(pred.Status) {
			if c.log != nil {
				c.log.Info("replicate prediction settled", "prediction_id", id, "status", pred.Status, "attempt", attempt+1)
			}
			return pred, nil
		}
		if c.log != nil && attempt%10 == 0 {
			c.log.Info("replicate prediction pending", "prediction_id", id, "status", pred.Status, "attempt", attempt+1)
		}
	}
}

func (c *Client) doPrediction(req *http.Request) (*Prediction, error) {
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call replicate: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= 300 {
		if c.log != nil {
			c.log.Error("replicate request failed", "status", resp.StatusCode, "url", req.URL.String(), "body", truncateBody(rawBody))
		}
		return nil, fmt.Errorf("replicate error: status=%d body=%s", resp.StatusCode, truncateBody(rawBody))
	}

	var pred Prediction
	if err := json.Unmarshal(rawBody, &pred); err != nil {
		return nil, fmt.Errorf("decode prediction: %w (body=%s)", err, truncateBody(rawBody))
	}
	return &pred, nil
}

// Download fetches a generated image. Bodies larger than the configured
// limit are rejected.
func (c *Client) Download(ctx context.Context, imageURL string) (*Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("download image: status=%d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("read image body: %w", err)
	}
	if int64(len(data)) > c.maxImageSize {
		return nil, fmt.Errorf("image exceeds %d bytes", c.maxImageSize)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("downloaded image is empty")
	}

	return &Image{
		URL:         imageURL,
		Bytes:       data,
		ContentType: detectContentType(resp.Header.Get("Content-Type"), data),
	}, nil
}

func detectContentType(header string, data []byte) string {
	if header != "" {
		if mediaType, _, err := mime.ParseMediaType(header); err == nil && strings.HasPrefix(mediaType, "image/") {
			return mediaType
		}
	}
	return http.DetectContentType(data)
}

func isTerminal(status string) bool {
	switch status {
	case StatusSucceeded, StatusFailed, StatusCanceled:
		return true
	}
	return false
}

func truncateBody(body []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(body))
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "…"
}
