// Package memory は固定のデモデータを使用したインメモリの株価リポジトリを提供します。
package memory

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"stock_agent/internal/feature/assistant/usecase"
	"stock_agent/internal/feature/quotes/domain/entity"
)

// QuoteMemory は不変のインメモリテーブルから株価情報を提供します。
// テーブルは生成時に一度だけ構築され、以降は読み取り専用のため
// 同期なしで並行アクセスできます。
type QuoteMemory struct {
	quotes map[string]entity.Quote
}

// QuoteMemoryがQuoteLookupを実装していることをコンパイル時に検証します。
var _ usecase.QuoteLookup = (*QuoteMemory)(nil)

// NewQuoteMemory はデモ用の銘柄データを投入したQuoteMemoryを生成します。
func NewQuoteMemory() *QuoteMemory {
	return &QuoteMemory{
		quotes: map[string]entity.Quote{
			"NVDA": {
				Symbol:      "NVDA",
				Company:     "NVIDIA Corporation",
				Price:       decimal.RequireFromString("180.05"),
				Change:      "+1.06%",
				MarketCap:   "4.4T",
				PERatio:     decimal.RequireFromString("44.31"),
				Week52High:  decimal.RequireFromString("212.19"),
				Week52Low:   decimal.RequireFromString("86.62"),
				Description: "AI infrastructure and GPU computing company",
			},
			"AAPL": {
				Symbol:    "AAPL",
				Company:   "Apple Inc.",
				Price:     decimal.RequireFromString("189.50"),
				Change:    "+0.5%",
				MarketCap: "3.0T",
			},
			"MSFT": {
				Symbol:    "MSFT",
				Company:   "Microsoft Corporation",
				Price:     decimal.RequireFromString("378.20"),
				Change:    "+0.8%",
				MarketCap: "2.8T",
			},
		},
	}
}

// Lookup は指定されたシンボルの株価情報を返します。比較前に大文字へ正規化
// するため、入力の大小文字は区別されません。未知のシンボルは既知の銘柄を
// 案内するNotFound結果になります。Lookupは全域関数であり、失敗しません。
func (m *QuoteMemory) Lookup(symbol string) entity.LookupResult {
	q, ok := m.quotes[strings.ToUpper(symbol)]
	if !ok {
		return entity.LookupResult{
			Message: fmt.Sprintf("Stock symbol '%s' not found. Try NVDA, AAPL, or MSFT.", symbol),
		}
	}
	return entity.LookupResult{Found: true, Quote: q}
}
