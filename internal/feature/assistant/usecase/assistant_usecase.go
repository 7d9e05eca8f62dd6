// Package usecase はassistantフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"stock_agent/internal/feature/quotes/domain/entity"
)

const (
	// DefaultPrompt は銘柄を認識できなかった場合の固定レスポンスです。
	DefaultPrompt = "Please specify a stock symbol (e.g., NVDA, AAPL, MSFT)"
)

// symbolAlias は発話テキスト中のキーワードとティッカーシンボルの対応です。
type symbolAlias struct {
	keyword string
	symbol  string
}

// aliases は部分一致で評価されるキーワードの一覧です。先頭から順に評価され、
// 最初に一致したものが優先されます（first-match）。
var aliases = []symbolAlias{
	{"nvidia", "NVDA"},
	{"nvda", "NVDA"},
	{"apple", "AAPL"},
	{"aapl", "AAPL"},
	{"microsoft", "MSFT"},
	{"msft", "MSFT"},
}

// QuoteLookup はシンボルから株価情報を取得するリポジトリインターフェースです。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type QuoteLookup interface {
	// Lookup はシンボルの株価情報を返します。全域関数であり失敗しません。
	Lookup(symbol string) entity.LookupResult
}

// Advisor は固定エイリアス外の自由質問に応答する外部エージェントです。
// 設定は任意で、未設定（nil）の場合は固定プロンプトへフォールバックします。
type Advisor interface {
	// Advise はユーザーテキストへの自由形式の回答を生成します。
	Advise(ctx context.Context, userText string) (string, error)
}

// AssistantUsecase は株価アシスタントの応答生成ロジックを提供します。
type AssistantUsecase struct {
	quotes  QuoteLookup
	advisor Advisor // nilのとき外部エージェントは使用しない
}

// NewAssistantUsecase はAssistantUsecaseの新しいインスタンスを生成します。
// advisorにはnilを渡せます。
func NewAssistantUsecase(quotes QuoteLookup, advisor Advisor) *AssistantUsecase {
	return &AssistantUsecase{quotes: quotes, advisor: advisor}
}

// matchSymbol はエイリアス一覧を先頭から走査し、テキストに含まれる
// 最初のキーワードに対応するシンボルを返します。
func matchSymbol(userText string) (string, bool) {
	lower := strings.ToLower(userText)
	for _, a := range aliases {
		if strings.Contains(lower, a.keyword) {
			return a.symbol, true
		}
	}
	return "", false
}

// Reply はユーザーテキストへの単発の応答を生成します。
// 既知の銘柄に一致した場合は固定順のフィールドをテキストに整形し、
// 一致しない場合はAdvisor（設定時のみ）に問い合わせます。
// Advisorが未設定またはエラーの場合は固定プロンプトを返します。
func (u *AssistantUsecase) Reply(ctx context.Context, userText string) string {
	if sym, ok := matchSymbol(userText); ok {
		res := u.quotes.Lookup(sym)
		if res.Found {
			return renderQuote(res.Quote)
		}
		return res.Message
	}

	if u.advisor != nil {
		answer, err := u.advisor.Advise(ctx, userText)
		if err != nil {
			slog.Warn("advisor request failed", "error", err)
			return DefaultPrompt
		}
		return answer
	}
	return DefaultPrompt
}

// StreamReply は1リクエスト分のフラグメント列を一括生成します。
// 先頭は受信クエリのエコー、以降は銘柄が認識できた場合のみ
// 固定順（銘柄、価格、騰落率、時価総額、PER）のフィールドです。
// 列は有限で、再開やバッファリングの契約はありません。
func (u *AssistantUsecase) StreamReply(userText string) []string {
	fragments := []string{fmt.Sprintf("Processing query: %s", userText)}

	sym, ok := matchSymbol(userText)
	if !ok {
		return append(fragments, DefaultPrompt)
	}
	res := u.quotes.Lookup(sym)
	if !res.Found {
		return append(fragments, res.Message)
	}

	q := res.Quote
	fragments = append(fragments,
		fmt.Sprintf("Stock: %s (%s)", q.Company, q.Symbol),
		fmt.Sprintf("Current Price: $%s", q.Price),
		fmt.Sprintf("Change: %s", q.Change),
		fmt.Sprintf("Market Cap: %s", q.MarketCap),
	)
	if q.HasPERatio() {
		fragments = append(fragments, fmt.Sprintf("P/E Ratio: %s", q.PERatio))
	}
	return fragments
}

// renderQuote は株価情報を固定順の1行テキストに整形します。
// 任意フィールド（PER、52週レンジ）は値がある場合のみ含めます。
func renderQuote(q entity.Quote) string {
	parts := []string{
		fmt.Sprintf("%s (%s)", q.Company, q.Symbol),
		fmt.Sprintf("Current Price: $%s", q.Price),
		fmt.Sprintf("Change: %s", q.Change),
		fmt.Sprintf("Market Cap: %s", q.MarketCap),
	}
	if q.HasPERatio() {
		parts = append(parts, fmt.Sprintf("P/E Ratio: %s", q.PERatio))
	}
	if q.HasWeek52Range() {
		parts = append(parts, fmt.Sprintf("52-Week Range: $%s - $%s", q.Week52Low, q.Week52High))
	}
	return strings.Join(parts, ", ")
}
