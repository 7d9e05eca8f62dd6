package router

import (
	assistanthandler "stock_agent/internal/feature/assistant/transport/handler"
	"stock_agent/internal/platform/http/handler"

	"github.com/gin-gonic/gin"
)

// NewRouter はサービスの全ルートを登録したginエンジンを生成します。
// デモ用途のため全エンドポイントは認証なしで公開されます。
func NewRouter(chat *assistanthandler.ChatHandler) *gin.Engine {
	r := gin.Default()

	// 導通確認用（K8sプローブからも参照）
	r.GET("/health", handler.Health)
	r.HEAD("/health", handler.Health)

	// エージェントエンドポイント
	r.POST("/chat", chat.Chat)
	r.POST("/stream_chat", chat.StreamChat)
	r.POST("/stock_query", chat.StockQuery)

	return r
}
