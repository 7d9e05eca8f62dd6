// Package handler はassistantフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"stock_agent/internal/api"
	"stock_agent/internal/feature/assistant/transport/http/dto"
)

const (
	// defaultGreeting はターン列が空の/chatリクエストに適用される入力です。
	defaultGreeting = "Hello"
	// stockQueryAdvisory は/stock_queryの固定案内メッセージです。
	stockQueryAdvisory = "Use /chat for interactive queries"
)

// AssistantUsecase はアシスタント応答生成のユースケースインターフェースです。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type AssistantUsecase interface {
	Reply(ctx context.Context, userText string) string
	StreamReply(userText string) []string
}

// SessionRecorder はチャットセッションの活動を記録します。
// 記録の失敗はレスポンスに影響しません（ログのみ）。
type SessionRecorder interface {
	Touch(ctx context.Context, sessionID, userText string) error
}

// ChatHandler はチャット系エンドポイントのHTTPリクエストを処理します。
// 各リクエストは独立しており、呼び出し間で状態を保持しません。
type ChatHandler struct {
	uc       AssistantUsecase
	sessions SessionRecorder
}

// NewChatHandler はChatHandlerの新しいインスタンスを生成します。
// sessionsにはnilを渡せます。
func NewChatHandler(uc AssistantUsecase, sessions SessionRecorder) *ChatHandler {
	return &ChatHandler{uc: uc, sessions: sessions}
}

// Chat は単発のチャット応答を返します。
//
// エンドポイント: POST /chat
// ターン列が空の場合はデフォルトの挨拶として処理し、エラーにしません。
func (h *ChatHandler) Chat(c *gin.Context) {
	var req dto.AgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("chat request validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}

	userText := req.FirstText(defaultGreeting)
	h.recordSession(c.Request.Context(), req.SessionID, userText)

	response := h.uc.Reply(c.Request.Context(), userText)
	c.JSON(http.StatusOK, dto.ChatResponse{
		Status:    "success",
		Response:  response,
		SessionID: req.SessionID,
	})
}

// StreamChat は改行区切りのテキストフラグメント列をストリーミングします。
//
// エンドポイント: POST /stream_chat
// フラグメント列は事前に確定しており、1件ごとにフラッシュして書き込みます。
// 途中で切断されたコンシューマーは残りのフラグメントを受け取れません
// （バッファリングや再送の契約はありません）。
func (h *ChatHandler) StreamChat(c *gin.Context) {
	var req dto.AgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("stream_chat request validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}

	userText := req.FirstText("")
	h.recordSession(c.Request.Context(), req.SessionID, userText)

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Cache-Control", "no-store")
	c.Status(http.StatusOK)

	for _, fragment := range h.uc.StreamReply(userText) {
		if _, err := c.Writer.WriteString(fragment + "\n"); err != nil {
			// 切断されたコンシューマーには残りを送らない
			return
		}
		c.Writer.Flush()
	}
}

// StockQuery は受信リクエストをそのまま応答に含める確認用エンドポイントです。
//
// エンドポイント: POST /stock_query
func (h *ChatHandler) StockQuery(c *gin.Context) {
	var req dto.AgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("stock_query request validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}

	c.JSON(http.StatusOK, dto.StockQueryResponse{
		Status:  "ok",
		Payload: req,
		Message: stockQueryAdvisory,
	})
}

// recordSession はセッション活動を記録します。ストアが未設定、または
// session_idが空の場合は何もしません。
func (h *ChatHandler) recordSession(ctx context.Context, sessionID, userText string) {
	if h.sessions == nil || sessionID == "" {
		return
	}
	if err := h.sessions.Touch(ctx, sessionID, userText); err != nil {
		slog.Warn("failed to record chat session", "session_id", sessionID, "error", err)
	}
}
