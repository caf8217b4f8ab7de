// Package models содержит доменные структуры уровня доступа, принципала
// и статуса подписки, используемые движком прав и middleware.
package models

// AccessLevel описывает уровень доступа принципала к возможностям сервиса.
// Уровни упорядочены по широте возможностей: None < Demo < Trial < Full.
// LevelExempt эквивалентен LevelFull по возможностям, но выделен отдельно
// для аудита и интерфейса.
type AccessLevel int

const (
	// LevelNone — доступ отсутствует.
	LevelNone AccessLevel = iota
	// LevelDemo — доступ только к публичным демонстрационным маршрутам.
	LevelDemo
	// LevelTrial — полный доступ на время пробного периода.
	LevelTrial
	// LevelFull — полный доступ по активной подписке.
	LevelFull
	// LevelExempt — полный доступ по статическому списку исключений.
	LevelExempt
)

// Meets сообщает, достаточно ли уровня l для маршрута, требующего required.
// Exempt и Full считаются равными по широте возможностей.
func (l AccessLevel) Meets(required AccessLevel) bool {
	return l.breadth() >= required.breadth()
}

func (l AccessLevel) breadth() AccessLevel {
	if l == LevelExempt {
		return LevelFull
	}
	return l
}

func (l AccessLevel) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelDemo:
		return "demo"
	case LevelTrial:
		return "trial"
	case LevelFull:
		return "full"
	case LevelExempt:
		return "exempt"
	default:
		return "unknown"
	}
}
