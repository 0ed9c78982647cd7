package order

import (
	"errors"
	"fmt"

	"github.com/linemk/farm2go/internal/domain/models"
)

// Status — статус жизненного цикла заказа.
type Status string

// Статусы жизненного цикла заказа
const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// ErrInvalidTransition — запрошенный переход отсутствует в таблице переходов.
var ErrInvalidTransition = errors.New("invalid status transition")

// InvalidTransitionError описывает отклонённое ребро перехода.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition: %s -> %s", e.From, e.To)
}

// Is позволяет проверять ошибку через errors.Is(err, ErrInvalidTransition).
func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// Таблица допустимых переходов. Отмена возможна только из ранних статусов,
// delivered и cancelled — терминальные.
var transitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusReady},
	StatusReady:      {StatusDelivered},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

// Valid сообщает, входит ли значение в закрытый перечень статусов.
func Valid(s Status) bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal сообщает, является ли статус терминальным.
func IsTerminal(s Status) bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// NextStatuses возвращает множество допустимых следующих статусов.
// Для терминального или неизвестного статуса возвращается пустой список.
func NextStatuses(s Status) []Status {
	next := transitions[s]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// CanTransition возвращает true, если переход current -> target допустим.
// Повторный запрос того же статуса всегда допустим (идемпотентность).
func CanTransition(current, target Status) bool {
	if current == target {
		return true
	}
	for _, s := range transitions[current] {
		if s == target {
			return true
		}
	}
	return false
}

// Transition валидирует переход и возвращает копию заказа с новым статусом.
// Заказ-аргумент не изменяется. Запрос того же статуса — no-op: возвращается
// заказ без изменений, в том числе для терминальных статусов. Недопустимое
// ребро возвращает InvalidTransitionError, заказ остаётся прежним.
func Transition(o models.Order, target Status) (models.Order, error) {
	current := Status(o.Status)
	if current == target {
		return o, nil
	}
	if !CanTransition(current, target) {
		return o, &InvalidTransitionError{From: current, To: target}
	}
	o.Status = string(target)
	return o, nil
}
