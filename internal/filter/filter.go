// Package filter реализует универсальный конвейер фильтрации и сортировки
// списков записей (товары, заказы, продажи). Конвейер не знает доменной
// семантики записей — доступ к полям задаётся аксессорами в Config.
package filter

import (
	"math"
	"sort"
	"strings"
	"time"
)

// SentinelAll — значение фильтра, означающее "без ограничения".
const SentinelAll = "all"

// KeySortBy — ключ состояния, задающий правило сортировки, а не фильтр.
const KeySortBy = "sortBy"

// Распознаваемые ключи фильтров
const (
	KeyCategory     = "category"
	KeyPriceRange   = "priceRange"
	KeyAmountRange  = "amountRange"
	KeyRevenueRange = "revenueRange"
	KeyDateRange    = "dateRange"
	KeyPeriod       = "period"
)

// State — выбранные пользователем значения фильтров по ключам секций.
// Передаётся по значению при каждом пересчёте, не хранится.
type State map[string]string

// Config описывает, какие поля записи соответствуют семантике
// категории/суммы/даты, плюс произвольные предикаты по ключам состояния.
// Незаданный аксессор означает "фильтр не применяется" — ошибок нет.
type Config[T any] struct {
	Category func(T) string
	Amount   func(T) float64
	Date     func(T) time.Time
	Name     func(T) string

	// Custom — предикаты по ключам состояния; каждый получает запись
	// и выбранное значение, должен быть чистым и синхронным.
	Custom map[string]func(record T, value string) bool

	// OnUnknownKey вызывается для активного ключа, который не распознан
	// и не имеет предиката. nil — ключ молча игнорируется.
	OnUnknownKey func(key string)

	// Now подменяет источник времени для границ дат (для тестов).
	Now func() time.Time
}

// numRange — фиксированные инклюзивные границы числового диапазона.
type numRange struct {
	min float64
	max float64
}

// Границы диапазонов фиксированы, а не выводятся из данных.
var numRanges = map[string]numRange{
	"low":     {0, 500},
	"medium":  {500, 1500},
	"high":    {1500, 5000},
	"premium": {5000, math.Inf(1)},
}

// Apply возвращает новый отфильтрованный и отсортированный список.
// Входной список и его элементы не изменяются. Активные фильтры
// комбинируются по логическому И; значение "all" и пустая строка
// деактивируют ключ. Ошибок нет: некорректная конфигурация означает
// "фильтр не применяется".
func Apply[T any](records []T, state State, cfg Config[T]) []T {
	out := make([]T, 0, len(records))
	for _, rec := range records {
		if matches(rec, state, cfg) {
			out = append(out, rec)
		}
	}
	if sortBy, ok := state[KeySortBy]; ok && sortBy != "" && sortBy != SentinelAll {
		applySort(out, sortBy, cfg)
	}
	return out
}

func matches[T any](rec T, state State, cfg Config[T]) bool {
	for key, value := range state {
		if key == KeySortBy || value == "" || value == SentinelAll {
			continue
		}
		switch {
		case key == KeyCategory && cfg.Category != nil:
			if !strings.EqualFold(cfg.Category(rec), value) {
				return false
			}
		case isRangeKey(key) && cfg.Amount != nil:
			if r, ok := numRanges[value]; ok {
				amount := cfg.Amount(rec)
				if amount < r.min || amount > r.max {
					return false
				}
			}
		case isDateKey(key) && cfg.Date != nil:
			if start, ok := periodStart(value, now(cfg)); ok {
				if cfg.Date(rec).Before(start) {
					return false
				}
			}
		default:
			if pred, ok := cfg.Custom[key]; ok {
				if !pred(rec, value) {
					return false
				}
			} else if cfg.OnUnknownKey != nil {
				// Нераспознанный ключ без предиката — разрешённая ситуация:
				// состояние может нести ключи, нужные только UI
				cfg.OnUnknownKey(key)
			}
		}
	}
	return true
}

func isRangeKey(key string) bool {
	return key == KeyPriceRange || key == KeyAmountRange || key == KeyRevenueRange
}

func isDateKey(key string) bool {
	return key == KeyDateRange || key == KeyPeriod
}

func now[T any](cfg Config[T]) time.Time {
	if cfg.Now != nil {
		return cfg.Now()
	}
	return time.Now()
}

// periodStart вычисляет нижнюю границу даты для выбранного периода.
// Второе значение false — период не ограничивает выборку.
func periodStart(period string, now time.Time) (time.Time, bool) {
	switch period {
	case "today":
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), true
	case "week":
		return now.AddDate(0, 0, -7), true
	case "month":
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), true
	case "quarter":
		qm := time.Month((int(now.Month())-1)/3*3 + 1)
		return time.Date(now.Year(), qm, 1, 0, 0, 0, 0, now.Location()), true
	case "year":
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()), true
	default:
		return time.Time{}, false
	}
}

// applySort сортирует срез на месте по правилу ключа сортировки.
// Сортировка стабильная; отсутствующий аксессор — сортировка не применяется.
func applySort[T any](records []T, sortBy string, cfg Config[T]) {
	switch {
	case sortBy == "newest" && cfg.Date != nil:
		sort.SliceStable(records, func(i, j int) bool {
			return cfg.Date(records[i]).After(cfg.Date(records[j]))
		})
	case sortBy == "oldest" && cfg.Date != nil:
		sort.SliceStable(records, func(i, j int) bool {
			return cfg.Date(records[i]).Before(cfg.Date(records[j]))
		})
	case sortBy == "name" && cfg.Name != nil:
		sort.SliceStable(records, func(i, j int) bool {
			return strings.ToLower(cfg.Name(records[i])) < strings.ToLower(cfg.Name(records[j]))
		})
	case strings.HasSuffix(sortBy, "-low") && cfg.Amount != nil:
		sort.SliceStable(records, func(i, j int) bool {
			return cfg.Amount(records[i]) < cfg.Amount(records[j])
		})
	case strings.HasSuffix(sortBy, "-high") && cfg.Amount != nil:
		sort.SliceStable(records, func(i, j int) bool {
			return cfg.Amount(records[i]) > cfg.Amount(records[j])
		})
	}
}
