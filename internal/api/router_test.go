package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Ayash-Bera/docchat/internal/health"
	"github.com/Ayash-Bera/docchat/internal/middleware"
	"github.com/Ayash-Bera/docchat/internal/responses"
	"github.com/Ayash-Bera/docchat/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const completedResponse = `{
  "id": "resp_123",
  "object": "response",
  "status": "completed",
  "model": "gpt-4o-mini",
  "output": [
    {"id": "fs_1", "type": "file_search_call", "status": "completed", "queries": ["art initiation"]},
    {"id": "msg_1", "type": "message", "role": "assistant", "status": "completed", "content": [
      {"type": "output_text", "text": "Initiate ART within 7 days.", "annotations": [
        {"type": "file_citation", "index": 10, "file_id": "file-1", "filename": "guidelines.pdf"},
        {"type": "file_citation", "index": 20, "file_id": "file-2", "filename": "circular.pdf"},
        {"type": "file_citation", "index": 30, "file_id": "file-1", "filename": "guidelines.pdf"}
      ]}
    ]}
  ]
}`

type upstream struct {
	server *httptest.Server
	calls  int32
	status int
	body   string
	last   map[string]interface{}
}

func newUpstream(t *testing.T, status int, body string) *upstream {
	u := &upstream{status: status, body: body}
	u.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&u.calls, 1)
		assert.Equal(t, "/v1/responses", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &u.last)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(u.status)
		_, _ = w.Write([]byte(u.body))
	}))
	t.Cleanup(u.server.Close)
	return u
}

func newTestRouter(t *testing.T, baseURL string, limiter *middleware.RateLimiter) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	client := responses.NewClient(baseURL, "sk-test", logger)
	relay := responses.NewService(client, responses.SearchConfig{
		Model:         "gpt-4o-mini",
		VectorStoreID: "vs_abc",
	}, logger)
	chat := services.NewChatService(relay, nil, nil, services.ChatConfig{
		Model:          "gpt-4o-mini",
		MaxQueryLength: 4000,
		Timeout:        5 * time.Second,
	}, logger)

	r, err := BuildRouter(RouterDeps{
		ServiceName: "docchat",
		Version:     "test",
		Chat:        chat,
		Checker:     health.NewHealthChecker(time.Second, logger),
		Limiter:     limiter,
		Logger:      logger,
	})
	require.NoError(t, err)
	return r
}

func post(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestChat_EndToEnd(t *testing.T) {
	up := newUpstream(t, http.StatusOK, completedResponse)
	r := newTestRouter(t, up.server.URL+"/v1", nil)

	w := post(r, `{"query":"When should ART start?"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Answer  string   `json:"answer"`
		Sources []string `json:"sources"`
		Success bool     `json:"success"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "Initiate ART within 7 days.", body.Answer)
	assert.Equal(t, []string{"guidelines.pdf", "circular.pdf"}, body.Sources)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	assert.Equal(t, "gpt-4o-mini", up.last["model"])
	tools := up.last["tools"].([]interface{})
	tool := tools[0].(map[string]interface{})
	assert.Equal(t, "file_search", tool["type"])
	assert.Equal(t, []interface{}{"vs_abc"}, tool["vector_store_ids"])
}

func TestChat_EmptyQueryNeverReachesUpstream(t *testing.T) {
	up := newUpstream(t, http.StatusOK, completedResponse)
	r := newTestRouter(t, up.server.URL+"/v1", nil)

	for _, body := range []string{`{"query":""}`, `{}`, `{"query":"   "}`} {
		w := post(r, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&up.calls))
}

func TestChat_UpstreamErrorIs500(t *testing.T) {
	up := newUpstream(t, http.StatusUnauthorized,
		`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`)
	r := newTestRouter(t, up.server.URL+"/v1", nil)

	w := post(r, `{"query":"hello"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "Incorrect API key provided")
	assert.Equal(t, int32(1), atomic.LoadInt32(&up.calls))
}

func TestChat_MalformedUpstreamIs500(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `{"output": "nope"`)
	r := newTestRouter(t, up.server.URL+"/v1", nil)

	w := post(r, `{"query":"hello"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestChat_RateLimited(t *testing.T) {
	up := newUpstream(t, http.StatusOK, completedResponse)
	r := newTestRouter(t, up.server.URL+"/v1", middleware.NewRateLimiter(1, 1))

	assert.Equal(t, http.StatusOK, post(r, `{"query":"one"}`).Code)
	assert.Equal(t, http.StatusTooManyRequests, post(r, `{"query":"two"}`).Code)
}

func TestRouter_IndexAndHealth(t *testing.T) {
	r := newTestRouter(t, "http://127.0.0.1:0/v1", nil)

	for path, contentType := range map[string]string{
		"/":                 "text/html",
		"/static/style.css": "text/css",
		"/health":           "application/json",
		"/health/ready":     "application/json",
		"/metrics":          "text/plain",
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Header().Get("Content-Type"), contentType, path)
	}
}
