package models

import "time"

// Quote представляет котировку инструмента, отдаваемую тонкими обработчиками.
// Получение и форматирование рыночных данных выполняет внешний коллаборатор.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Change    float64   `json:"change"`
	UpdatedAt time.Time `json:"updated_at"`
}
