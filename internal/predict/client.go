package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/san-kum/aksharpad/internal/applog"
	"github.com/san-kum/aksharpad/internal/surface"
)

// maxReply bounds how much of a reply body is read.
const maxReply = 1 << 20

// Predictor is anything that can classify a data-URL image.
type Predictor interface {
	Predict(ctx context.Context, dataURL string) (*Response, error)
}

type Client struct {
	endpoint string
	http     *http.Client
	timeout  time.Duration
	log      *log.Logger
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds each exchange. Zero, the default, means no timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

func WithLogger(l *log.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{},
		log:      applog.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

// Predict performs one POST of {"image": dataURL} and decodes the reply.
// Any JSON reply is returned whatever its status, because the classifier
// reports its own failures as {"error": ...} with a 4xx or 5xx status.
func (c *Client) Predict(ctx context.Context, dataURL string) (*Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(Request{Image: dataURL})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxReply))
	if err != nil {
		return nil, fmt.Errorf("%w: read reply: %w", ErrTransport, err)
	}
	c.log.Debug("prediction reply", "status", res.StatusCode, "bytes", len(data), "elapsed", time.Since(start))

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &StatusError{Code: res.StatusCode, Body: preview(data)}
	}
	resp.Status = res.StatusCode
	return &resp, nil
}

// PredictImage encodes img as a PNG data URL and submits it.
func (c *Client) PredictImage(ctx context.Context, img image.Image) (*Response, error) {
	url, err := surface.DataURL(img)
	if err != nil {
		return nil, err
	}
	return c.Predict(ctx, url)
}

func preview(b []byte) string {
	const n = 120
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
