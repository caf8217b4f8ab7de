// Package marketdata — справочная реализация поставщика котировок.
// Получение и форматирование рыночных данных лежит вне подсистемы доступа;
// этот поставщик отдаёт детерминированные значения, достаточные для
// демонстрационных и охраняемых маршрутов.
package marketdata

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/magabrotheeeer/access-guard/internal/models"
)

// ErrUnknownSymbol возвращается для инструментов, отсутствующих у поставщика.
var ErrUnknownSymbol = errors.New("unknown symbol")

// Provider — статический поставщик котировок.
type Provider struct {
	quotes map[string]models.Quote
}

// NewStatic создаёт поставщика с фиксированным набором инструментов.
func NewStatic() *Provider {
	updated := time.Date(2026, 8, 31, 16, 0, 0, 0, time.UTC)
	quotes := map[string]models.Quote{
		"AAPL": {Symbol: "AAPL", Price: 254.10, Change: 1.32, UpdatedAt: updated},
		"MSFT": {Symbol: "MSFT", Price: 512.44, Change: -0.87, UpdatedAt: updated},
		"GOOG": {Symbol: "GOOG", Price: 231.73, Change: 0.44, UpdatedAt: updated},
		"AMZN": {Symbol: "AMZN", Price: 228.15, Change: 2.05, UpdatedAt: updated},
	}
	return &Provider{quotes: quotes}
}

// Quote возвращает котировку инструмента по тикеру.
func (p *Provider) Quote(_ context.Context, symbol string) (*models.Quote, error) {
	q, ok := p.quotes[strings.ToUpper(symbol)]
	if !ok {
		return nil, ErrUnknownSymbol
	}
	return &q, nil
}

// DemoQuotes возвращает публичный демонстрационный срез котировок.
func (p *Provider) DemoQuotes(_ context.Context) []models.Quote {
	out := make([]models.Quote, 0, len(p.quotes))
	for _, q := range p.quotes {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}
