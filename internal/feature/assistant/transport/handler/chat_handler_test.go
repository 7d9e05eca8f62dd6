package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockAssistantUsecase はAssistantUsecaseインターフェースのモック実装です。
type mockAssistantUsecase struct {
	ReplyFunc       func(ctx context.Context, userText string) string
	StreamReplyFunc func(userText string) []string
}

// Reply はモックのReply関数を呼び出します。
func (m *mockAssistantUsecase) Reply(ctx context.Context, userText string) string {
	if m.ReplyFunc != nil {
		return m.ReplyFunc(ctx, userText)
	}
	return ""
}

// StreamReply はモックのStreamReply関数を呼び出します。
func (m *mockAssistantUsecase) StreamReply(userText string) []string {
	if m.StreamReplyFunc != nil {
		return m.StreamReplyFunc(userText)
	}
	return nil
}

// mockSessionRecorder はSessionRecorderインターフェースのモック実装です。
type mockSessionRecorder struct {
	TouchFunc func(ctx context.Context, sessionID, userText string) error
	calls     []string
}

// Touch はモックのTouch関数を呼び出し、session_idを記録します。
func (m *mockSessionRecorder) Touch(ctx context.Context, sessionID, userText string) error {
	m.calls = append(m.calls, sessionID)
	if m.TouchFunc != nil {
		return m.TouchFunc(ctx, sessionID, userText)
	}
	return nil
}

// setupRouter はテスト用のルートを登録したginエンジンを生成します。
func setupRouter(h *ChatHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/chat", h.Chat)
	r.POST("/stream_chat", h.StreamChat)
	r.POST("/stock_query", h.StockQuery)
	return r
}

// TestNewChatHandler はコンストラクタがnilのセッションストアを受け付けることを検証します。
func TestNewChatHandler(t *testing.T) {
	t.Parallel()

	h := NewChatHandler(&mockAssistantUsecase{}, nil)

	assert.NotNil(t, h, "handler should not be nil")
	assert.NotNil(t, h.uc, "usecase should not be nil")
}

// TestChatHandler_Chat はChatハンドラーの各種シナリオをテーブル駆動テストで検証します。
func TestChatHandler_Chat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name             string
		body             string
		replyFunc        func(ctx context.Context, userText string) string
		expectedStatus   int
		expectedBody     string
		expectedUserText string
	}{
		{
			name: "success: single turn query",
			body: `{"input":[{"role":"user","content":[{"type":"text","text":"What is NVIDIA current stock price?"}]}],"session_id":"test123"}`,
			replyFunc: func(ctx context.Context, userText string) string {
				return "NVIDIA Corporation (NVDA), Current Price: $180.05"
			},
			expectedStatus:   http.StatusOK,
			expectedBody:     `{"status":"success","response":"NVIDIA Corporation (NVDA), Current Price: $180.05","session_id":"test123"}`,
			expectedUserText: "What is NVIDIA current stock price?",
		},
		{
			name: "success: empty turn list becomes the default greeting",
			body: `{"input":[],"session_id":"s1"}`,
			replyFunc: func(ctx context.Context, userText string) string {
				return "echo:" + userText
			},
			expectedStatus:   http.StatusOK,
			expectedBody:     `{"status":"success","response":"echo:Hello","session_id":"s1"}`,
			expectedUserText: defaultGreeting,
		},
		{
			name: "success: missing session_id is echoed as empty",
			body: `{"input":[{"role":"user","content":[{"type":"text","text":"hi"}]}]}`,
			replyFunc: func(ctx context.Context, userText string) string {
				return "ok"
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"success","response":"ok","session_id":""}`,
		},
		{
			name:           "failure: malformed JSON returns 400",
			body:           `{"input": not-json`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"invalid request"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var gotUserText string
			mockUC := &mockAssistantUsecase{
				ReplyFunc: func(ctx context.Context, userText string) string {
					gotUserText = userText
					return tt.replyFunc(ctx, userText)
				},
			}
			if tt.replyFunc == nil {
				mockUC.ReplyFunc = nil
			}
			router := setupRouter(NewChatHandler(mockUC, nil))

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			if tt.expectedUserText != "" {
				assert.Equal(t, tt.expectedUserText, gotUserText)
			}
		})
	}
}

// TestChatHandler_Chat_SessionRecording はセッション記録の呼び出しと
// 記録エラーがレスポンスへ影響しないことを検証します。
func TestChatHandler_Chat_SessionRecording(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		body          string
		touchErr      error
		expectedCalls []string
	}{
		{
			name:          "touch is called with the session id",
			body:          `{"input":[{"role":"user","content":[{"type":"text","text":"NVDA"}]}],"session_id":"test123"}`,
			expectedCalls: []string{"test123"},
		},
		{
			name:          "empty session id skips recording",
			body:          `{"input":[{"role":"user","content":[{"type":"text","text":"NVDA"}]}]}`,
			expectedCalls: nil,
		},
		{
			name:          "touch error is swallowed",
			body:          `{"input":[{"role":"user","content":[{"type":"text","text":"NVDA"}]}],"session_id":"test123"}`,
			touchErr:      errors.New("redis connection refused"),
			expectedCalls: []string{"test123"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			recorder := &mockSessionRecorder{
				TouchFunc: func(ctx context.Context, sessionID, userText string) error {
					return tt.touchErr
				},
			}
			mockUC := &mockAssistantUsecase{
				ReplyFunc: func(ctx context.Context, userText string) string { return "ok" },
			}
			router := setupRouter(NewChatHandler(mockUC, recorder))

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code, "recording failures must not affect the response")
			assert.Equal(t, tt.expectedCalls, recorder.calls)
		})
	}
}

// TestChatHandler_StreamChat はフラグメントが改行区切りで書き出されることを検証します。
func TestChatHandler_StreamChat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		body          string
		fragments     []string
		expectedLines []string
	}{
		{
			name:      "success: each fragment becomes one line",
			body:      `{"input":[{"role":"user","content":[{"type":"text","text":"Tell me about NVDA stock"}]}],"session_id":"test456"}`,
			fragments: []string{"Processing query: Tell me about NVDA stock", "Stock: NVIDIA Corporation (NVDA)", "Current Price: $180.05"},
			expectedLines: []string{
				"Processing query: Tell me about NVDA stock",
				"Stock: NVIDIA Corporation (NVDA)",
				"Current Price: $180.05",
			},
		},
		{
			name:          "success: empty turn list streams the empty-query echo",
			body:          `{"input":[]}`,
			fragments:     []string{"Processing query: "},
			expectedLines: []string{"Processing query: "},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mockUC := &mockAssistantUsecase{
				StreamReplyFunc: func(userText string) []string { return tt.fragments },
			}
			router := setupRouter(NewChatHandler(mockUC, nil))

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/stream_chat", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			router.ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
			assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
			assert.Equal(t, strings.Join(tt.expectedLines, "\n")+"\n", w.Body.String())
		})
	}
}

// TestChatHandler_StreamChat_BadRequest は不正なJSONが400になることを検証します。
func TestChatHandler_StreamChat_BadRequest(t *testing.T) {
	t.Parallel()

	router := setupRouter(NewChatHandler(&mockAssistantUsecase{}, nil))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/stream_chat", strings.NewReader(`{`))
	req.Header.Set("Content-Type", "application/json")

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid request"}`, w.Body.String())
}

// TestChatHandler_StockQuery は受信リクエストがそのままエコーされることを検証します。
func TestChatHandler_StockQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "success: request payload is echoed back",
			body:           `{"input":[{"role":"user","content":[{"type":"text","text":"NVDA"}]}],"session_id":"q1"}`,
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"ok","payload":{"input":[{"role":"user","content":[{"type":"text","text":"NVDA"}]}],"session_id":"q1"},"message":"Use /chat for interactive queries"}`,
		},
		{
			name:           "success: empty body fields echo as zero values",
			body:           `{}`,
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"ok","payload":{"input":null,"session_id":""},"message":"Use /chat for interactive queries"}`,
		},
		{
			name:           "failure: malformed JSON returns 400",
			body:           `[`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"invalid request"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := setupRouter(NewChatHandler(&mockAssistantUsecase{}, nil))

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/stock_query", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}
