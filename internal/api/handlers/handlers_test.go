package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Ayash-Bera/docchat/internal/health"
	"github.com/Ayash-Bera/docchat/internal/models"
	"github.com/Ayash-Bera/docchat/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChat struct {
	resp       *models.ChatResponse
	err        error
	inputs     []models.ChatInput
	recent     []models.RecentQuery
	logActive  bool
	gotLimit   int
	gotSession string
}

func (f *fakeChat) Answer(ctx context.Context, input models.ChatInput) (*models.ChatResponse, error) {
	f.inputs = append(f.inputs, input)
	return f.resp, f.err
}

func (f *fakeChat) Recent(session string, limit int) ([]models.RecentQuery, error) {
	f.gotSession = session
	f.gotLimit = limit
	return f.recent, nil
}

type storedQueries struct {
	entries []models.ChatQuery
}

func (s *storedQueries) Create(query *models.ChatQuery) error { return nil }

func (s *storedQueries) GetRecent(limit int) ([]models.ChatQuery, error) {
	return s.entries, nil
}

func (s *storedQueries) GetBySession(session string, limit int) ([]models.ChatQuery, error) {
	var matched []models.ChatQuery
	for _, e := range s.entries {
		if e.UserSession == session {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

func (f *fakeChat) QueryLogEnabled() bool { return f.logActive }

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func setupChatRouter(chat ChatService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewChatHandler(chat, quietLogger())
	r.POST("/chat", h.HandleChat)
	r.GET("/chat/recent", h.HandleRecent)
	return r
}

func postChat(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "test-agent")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHandleChat_Success(t *testing.T) {
	chat := &fakeChat{resp: &models.ChatResponse{
		Answer:  "Use the 2022 guideline.",
		Sources: []string{"a.pdf", "b.pdf"},
		Success: true,
	}}
	r := setupChatRouter(chat)

	w := postChat(r, `{"query":"Which guideline?"}`)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Use the 2022 guideline.", body["answer"])
	assert.Equal(t, []interface{}{"a.pdf", "b.pdf"}, body["sources"])

	require.Len(t, chat.inputs, 1)
	assert.Equal(t, "Which guideline?", chat.inputs[0].Query)
	assert.Equal(t, "test-agent", chat.inputs[0].UserAgent)
	assert.Len(t, chat.inputs[0].UserSession, 16)
}

func TestHandleChat_EmptyQuery(t *testing.T) {
	r := setupChatRouter(&fakeChat{err: services.ErrEmptyQuery})

	w := postChat(r, `{"query":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body := decode(t, w)
	assert.Equal(t, "Query is required", body["error"])
	assert.Equal(t, false, body["success"])
}

func TestHandleChat_QueryTooLong(t *testing.T) {
	r := setupChatRouter(&fakeChat{err: fmt.Errorf("%w (max 10 characters)", services.ErrQueryTooLong)})

	w := postChat(r, `{"query":"a very long question"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["error"], "too long")
}

func TestHandleChat_MalformedBody(t *testing.T) {
	chat := &fakeChat{}
	r := setupChatRouter(chat)

	for _, body := range []string{``, `{"query":`, `["query"]`} {
		w := postChat(r, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Equal(t, "Invalid request body", decode(t, w)["error"])
	}
	assert.Empty(t, chat.inputs)
}

func TestHandleChat_UpstreamFailure(t *testing.T) {
	r := setupChatRouter(&fakeChat{err: errors.New("API request failed with status 401: invalid key")})

	w := postChat(r, `{"query":"hello"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "API request failed with status 401: invalid key", body["error"])
}

func TestHandleRecent(t *testing.T) {
	r := setupChatRouter(&fakeChat{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/chat/recent", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	chat := &fakeChat{logActive: true, recent: []models.RecentQuery{{QueryText: "q1"}}}
	r = setupChatRouter(chat)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/chat/recent?limit=5", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, chat.gotLimit)
	assert.Equal(t, "", chat.gotSession)

	body := decode(t, w)
	data := body["data"].([]interface{})
	require.Len(t, data, 1)
	assert.Equal(t, "q1", data[0].(map[string]interface{})["query_text"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/chat/recent?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/chat/recent?session=0123456789abcdef", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0123456789abcdef", chat.gotSession)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/chat/recent?session=not-a-session", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleRecent_HidesClientAttributes(t *testing.T) {
	stored := &storedQueries{entries: []models.ChatQuery{
		{
			QueryText:   "first line treatment",
			UserSession: "0123456789abcdef",
			UserAgent:   "Mozilla",
			IPAddress:   "203.0.113.7",
			Sources:     []string{"guide.txt"},
			Success:     true,
		},
		{
			QueryText:   "other user",
			UserSession: "fedcba9876543210",
			UserAgent:   "curl",
			IPAddress:   "198.51.100.2",
		},
	}}
	svc := services.NewChatService(nil, nil, stored, services.ChatConfig{}, quietLogger())
	r := setupChatRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/chat/recent", nil))
	require.Equal(t, http.StatusOK, w.Code)

	raw := w.Body.String()
	assert.NotContains(t, raw, "ip_address")
	assert.NotContains(t, raw, "user_agent")
	assert.NotContains(t, raw, "user_session")
	assert.NotContains(t, raw, "203.0.113.7")
	assert.NotContains(t, raw, "Mozilla")

	data := decode(t, w)["data"].([]interface{})
	require.Len(t, data, 2)
	first := data[0].(map[string]interface{})
	assert.Equal(t, "first line treatment", first["query_text"])
	assert.Equal(t, []interface{}{"guide.txt"}, first["sources"])
	assert.Equal(t, []interface{}{}, data[1].(map[string]interface{})["sources"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/chat/recent?session=fedcba9876543210", nil))
	require.Equal(t, http.StatusOK, w.Code)
	data = decode(t, w)["data"].([]interface{})
	require.Len(t, data, 1)
	assert.Equal(t, "other user", data[0].(map[string]interface{})["query_text"])
}

func TestStaticHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, err := NewStaticHandler()
	require.NoError(t, err)

	r := gin.New()
	h.RegisterRoutes(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "<form id=\"chat-form\"")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/script.js", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "fetch('/chat'")
}

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	checker := health.NewHealthChecker(time.Second, quietLogger())
	down := false
	checker.Register("vector_store", func(ctx context.Context) error {
		if down {
			return errors.New("vector store not found")
		}
		return nil
	})

	r := gin.New()
	NewHealthHandler("docchat", "test", checker).RegisterRoutes(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "docchat", decode(t, w)["service"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	down = true
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, health.StatusUnhealthy, decode(t, w)["status"])
}
