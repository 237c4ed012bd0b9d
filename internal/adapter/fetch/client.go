package fetch

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/cwygoda/harvest/internal/domain"
)

// DefaultUserAgent identifies harvest to remote servers.
const DefaultUserAgent = "harvest/1.0"

// Options configures the HTTP client.
type Options struct {
	// MaxIdleConnsPerHost sets the maximum idle connections per host.
	// Default: 16
	MaxIdleConnsPerHost int

	// MaxBodyBytes caps the size of a downloaded body. Zero means no cap.
	MaxBodyBytes int64

	// UserAgent is sent with every request.
	// Default: DefaultUserAgent
	UserAgent string
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		MaxIdleConnsPerHost: 16,
		UserAgent:           DefaultUserAgent,
	}
}

// Client fetches whole response bodies. Deadlines come from the request
// context; the client itself imposes none.
type Client struct {
	client *http.Client
	opts   Options
}

// NewClient creates a new HTTP client with the given options.
func NewClient(opts Options) *Client {
	if opts.MaxIdleConnsPerHost <= 0 {
		opts.MaxIdleConnsPerHost = 16
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConnsPerHost: opts.MaxIdleConnsPerHost,
		MaxIdleConns:        opts.MaxIdleConnsPerHost * 4,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Client{
		client: &http.Client{Transport: transport},
		opts:   opts,
	}
}

// Fetch performs a GET and reads the full body. Any status code is returned
// as a response; only transport failures are errors.
func (c *Client) Fetch(ctx context.Context, url string) (*domain.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body io.Reader = resp.Body
	if c.opts.MaxBodyBytes > 0 {
		body = io.LimitReader(resp.Body, c.opts.MaxBodyBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if c.opts.MaxBodyBytes > 0 && int64(len(data)) > c.opts.MaxBodyBytes {
		return nil, fmt.Errorf("body exceeds %d bytes", c.opts.MaxBodyBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	return &domain.Response{
		URL:         resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Charset:     charsetOf(contentType),
		Body:        data,
	}, nil
}

// charsetOf returns the declared charset of a content type. Text types
// without one default to ISO-8859-1 as HTTP/1.1 specifies.
func charsetOf(contentType string) string {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	if cs := params["charset"]; cs != "" {
		return cs
	}
	if strings.HasPrefix(mediaType, "text/") {
		return "ISO-8859-1"
	}
	return ""
}
