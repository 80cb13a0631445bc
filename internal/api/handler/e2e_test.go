package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/post-batch/config"
	"github.com/d60-Lab/post-batch/internal/api/handler"
	"github.com/d60-Lab/post-batch/internal/api/middleware"
	"github.com/d60-Lab/post-batch/internal/api/router"
	"github.com/d60-Lab/post-batch/internal/model"
	"github.com/d60-Lab/post-batch/internal/repository"
	"github.com/d60-Lab/post-batch/internal/service"
	"github.com/d60-Lab/post-batch/internal/upstream"
	"github.com/d60-Lab/post-batch/pkg/database"
)

// fakeUpstream 模拟 jsonplaceholder，available 为返回条数
type fakeUpstream struct {
	srv       *httptest.Server
	available atomic.Int32
	status    atomic.Int32
	hits      atomic.Int32
}

func newFakeUpstream(t *testing.T, available int) *fakeUpstream {
	f := &fakeUpstream{}
	f.available.Store(int32(available))
	f.status.Store(http.StatusOK)
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		f.hits.Add(1)
		if code := int(f.status.Load()); code != http.StatusOK {
			http.Error(w, "unavailable", code)
			return
		}
		n := int(f.available.Load())
		posts := make([]model.Post, n)
		for i := range posts {
			id := i + 1
			posts[i] = model.Post{UserID: (id-1)/10 + 1, ID: id, Title: fmt.Sprintf("title %d", id), Body: fmt.Sprintf("body %d", id)}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(posts)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

type app struct {
	engine   *gin.Engine
	repo     repository.PostRepository
	upstream *fakeUpstream
}

func newApp(t *testing.T, available int, limiter middleware.Limiter) *app {
	t.Helper()
	cfg := &config.Config{
		Server:   config.ServerConfig{Mode: gin.TestMode},
		Database: config.DatabaseConfig{Driver: "sqlite", Path: ":memory:", LogLevel: "silent"},
		Swagger:  config.SwaggerConfig{Enabled: true},
	}
	db, err := database.InitDB(cfg)
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	up := newFakeUpstream(t, available)
	repo := repository.NewPostRepository(db)
	svc := service.NewBatchService(repo, upstream.NewHTTPClient(up.srv.URL, 2*time.Second))
	engine := router.New(cfg, handler.NewHandler(svc), router.Options{Limiter: limiter})
	return &app{engine: engine, repo: repo, upstream: up}
}

func (a *app) do(t *testing.T, method, target, body string) (int, map[string]any) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func (a *app) count(t *testing.T) int64 {
	t.Helper()
	n, err := a.repo.Count(context.Background())
	require.NoError(t, err)
	return n
}

func TestBatchInsertThenPaginate(t *testing.T) {
	a := newApp(t, 100, nil)

	code, body := a.do(t, http.MethodPost, "/api/batch_insert", `{"postNumber":7}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, float64(7), body["postsInserted"])
	assert.Equal(t, int64(7), a.count(t))

	code, body = a.do(t, http.MethodGet, "/api/fetch_record?page=0&size=3", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["content"], 3)
	assert.Equal(t, float64(3), body["totalPages"])
	assert.Equal(t, float64(7), body["totalElements"])
	assert.Equal(t, float64(3), body["pageSize"])
	assert.Equal(t, false, body["hasPrevious"])
	assert.Equal(t, true, body["hasNext"])
	assert.Equal(t, true, body["isFirst"])
	assert.Equal(t, false, body["isLast"])

	code, body = a.do(t, http.MethodGet, "/api/fetch_record?page=2&size=3", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["content"], 1)
	assert.Equal(t, float64(2), body["currentPage"])
	assert.Equal(t, false, body["hasNext"])
	assert.Equal(t, true, body["isLast"])
	assert.Equal(t, true, body["hasPrevious"])
}

func TestBatchInsertBounds(t *testing.T) {
	a := newApp(t, 100, nil)

	for _, payload := range []string{`{"postNumber":0}`, `{"postNumber":-1}`, `{}`, `{"postNumber":101}`} {
		code, _ := a.do(t, http.MethodPost, "/api/batch_insert", payload)
		assert.Equal(t, http.StatusBadRequest, code, payload)
	}
	assert.Zero(t, a.count(t))
	assert.Zero(t, a.upstream.hits.Load())

	code, _ := a.do(t, http.MethodPost, "/api/batch_insert", `{"postNumber":100}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(100), a.count(t))
}

func TestBatchInsertFewerAvailable(t *testing.T) {
	a := newApp(t, 4, nil)

	code, body := a.do(t, http.MethodPost, "/api/batch_insert", `{"postNumber":10}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(10), body["postsInserted"])
	assert.Equal(t, int64(4), a.count(t))
}

func TestBatchInsertIdempotent(t *testing.T) {
	a := newApp(t, 100, nil)

	for _, n := range []int{5, 5, 3, 8} {
		code, _ := a.do(t, http.MethodPost, "/api/batch_insert", fmt.Sprintf(`{"postNumber":%d}`, n))
		require.Equal(t, http.StatusOK, code)
	}
	assert.Equal(t, int64(8), a.count(t))
}

func TestBatchInsertUpstreamFailure(t *testing.T) {
	a := newApp(t, 100, nil)
	a.upstream.status.Store(http.StatusServiceUnavailable)

	code, body := a.do(t, http.MethodPost, "/api/batch_insert", `{"postNumber":5}`)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "UpstreamFetchError", body["error"])
	assert.Contains(t, body["message"], "Error inserting posts: ")
	assert.Zero(t, a.count(t))
}

func TestRoundTrip(t *testing.T) {
	a := newApp(t, 1, nil)

	code, _ := a.do(t, http.MethodPost, "/api/batch_insert", `{"postNumber":1}`)
	require.Equal(t, http.StatusOK, code)

	p, err := a.repo.FindByID(context.Background(), 1)
	require.NoError(t, err)
	want := model.Post{ID: 1, UserID: 1, Title: "title 1", Body: "body 1"}
	assert.Equal(t, want, *p)

	code, body := a.do(t, http.MethodGet, "/api/fetch_record", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{map[string]any{"userId": float64(1), "id": float64(1), "title": "title 1", "body": "body 1"}}, body["content"])

	code, body = a.do(t, http.MethodGet, "/api/posts/1", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "title 1", body["content"].(map[string]any)["title"])

	code, _ = a.do(t, http.MethodGet, "/api/posts/2", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestPaginationInvalidParams(t *testing.T) {
	a := newApp(t, 100, nil)
	for _, q := range []string{"size=0", "size=101", "page=-1"} {
		code, _ := a.do(t, http.MethodGet, "/api/fetch_record?"+q, "")
		assert.Equal(t, http.StatusBadRequest, code, q)
	}
}

func TestHealthUnaffectedByFailuresAndLimits(t *testing.T) {
	a := newApp(t, 100, middleware.NewMemoryLimiter(1, time.Hour, 1))
	a.upstream.status.Store(http.StatusInternalServerError)

	for i := 0; i < 3; i++ {
		code, body := a.do(t, http.MethodGet, "/api/health", "")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, map[string]any{"status": "UP", "message": "Posts API is running"}, body)
	}

	code, _ := a.do(t, http.MethodGet, "/api/fetch_record", "")
	assert.Equal(t, http.StatusOK, code)
	code, body := a.do(t, http.MethodGet, "/api/fetch_record", "")
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "RateLimited", body["error"])
}

func TestSwaggerDoc(t *testing.T) {
	a := newApp(t, 0, nil)

	code, body := a.do(t, http.MethodGet, "/swagger/doc.json", "")
	require.Equal(t, http.StatusOK, code)
	paths, ok := body["paths"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, paths, "/api/batch_insert")
	assert.Contains(t, paths, "/api/fetch_record")
}
