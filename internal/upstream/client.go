package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/d60-Lab/post-batch/internal/apperr"
	"github.com/d60-Lab/post-batch/internal/model"
)

const defaultMaxBodyBytes = 4 << 20

// Client 从上游拉取帖子
type Client interface {
	// FetchPosts 返回最多 count 条，保持上游顺序
	FetchPosts(ctx context.Context, count int) ([]model.Post, error)
}

// record 上游返回的单条数据，指针字段用于区分缺失与零值
type record struct {
	UserID *int    `json:"userId" validate:"required"`
	ID     *int    `json:"id" validate:"required,gt=0"`
	Title  *string `json:"title" validate:"required"`
	Body   *string `json:"body" validate:"required"`
}

// HTTPClient 对固定 URL 发起 GET，无重试
type HTTPClient struct {
	url          string
	client       *http.Client
	maxBodyBytes int64
	validate     *validator.Validate
}

type Option func(*HTTPClient)

// WithHTTPClient 替换底层 http.Client
func WithHTTPClient(c *http.Client) Option { return func(h *HTTPClient) { h.client = c } }

// WithMaxBodyBytes 限制响应体大小
func WithMaxBodyBytes(n int64) Option {
	return func(h *HTTPClient) {
		if n > 0 {
			h.maxBodyBytes = n
		}
	}
}

func NewHTTPClient(url string, timeout time.Duration, opts ...Option) *HTTPClient {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 5 * time.Second,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
	}
	h := &HTTPClient{
		url: url,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(transport),
		},
		maxBodyBytes: defaultMaxBodyBytes,
		validate:     validator.New(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (c *HTTPClient) FetchPosts(ctx context.Context, count int) ([]model.Post, error) {
	if count <= 0 {
		return []model.Post{}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, apperr.Upstream("upstream.FetchPosts", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperr.Upstream("upstream.FetchPosts", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperr.Upstream("upstream.FetchPosts", fmt.Errorf("upstream returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return nil, apperr.Upstream("upstream.FetchPosts", err)
	}
	if int64(len(body)) > c.maxBodyBytes {
		return nil, apperr.Upstream("upstream.FetchPosts", fmt.Errorf("upstream body exceeds %d bytes", c.maxBodyBytes))
	}

	var records []record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, apperr.Upstream("upstream.FetchPosts", fmt.Errorf("decode upstream body: %w", err))
	}
	if records == nil {
		return nil, apperr.Upstream("upstream.FetchPosts", errors.New("upstream body is not a JSON array"))
	}

	if len(records) > count {
		records = records[:count]
	}
	posts := make([]model.Post, 0, len(records))
	for i, r := range records {
		if err := c.validate.Struct(r); err != nil {
			return nil, apperr.Upstream("upstream.FetchPosts", fmt.Errorf("record %d: %w", i, err))
		}
		posts = append(posts, model.Post{UserID: *r.UserID, ID: *r.ID, Title: *r.Title, Body: *r.Body})
	}
	return posts, nil
}
