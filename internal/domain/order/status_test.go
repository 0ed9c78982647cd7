package order_test

import (
	"errors"
	"testing"

	"github.com/linemk/farm2go/internal/domain/models"
	"github.com/linemk/farm2go/internal/domain/order"
	"github.com/stretchr/testify/assert"
)

func TestCanTransition_Table(t *testing.T) {
	// Проверяем таблицу переходов целиком: для каждого статуса разрешены
	// только перечисленные цели (плюс повтор того же статуса).
	allowed := map[order.Status][]order.Status{
		order.StatusPending:    {order.StatusConfirmed, order.StatusCancelled},
		order.StatusConfirmed:  {order.StatusProcessing, order.StatusCancelled},
		order.StatusProcessing: {order.StatusReady},
		order.StatusReady:      {order.StatusDelivered},
		order.StatusDelivered:  {},
		order.StatusCancelled:  {},
	}
	all := []order.Status{
		order.StatusPending, order.StatusConfirmed, order.StatusProcessing,
		order.StatusReady, order.StatusDelivered, order.StatusCancelled,
	}

	for from, targets := range allowed {
		allowedSet := map[order.Status]bool{from: true}
		for _, to := range targets {
			allowedSet[to] = true
		}
		for _, to := range all {
			got := order.CanTransition(from, to)
			assert.Equal(t, allowedSet[to], got, "transition %s -> %s", from, to)
		}
	}
}

func TestTransition_Success(t *testing.T) {
	o := models.Order{ID: 1, Status: string(order.StatusProcessing)}

	updated, err := order.Transition(o, order.StatusReady)
	assert.NoError(t, err, "processing -> ready should be allowed")
	assert.Equal(t, string(order.StatusReady), updated.Status)
	// Исходный заказ не должен измениться
	assert.Equal(t, string(order.StatusProcessing), o.Status, "input order must not be mutated")
}

func TestTransition_InvalidEdge(t *testing.T) {
	o := models.Order{ID: 1, Status: string(order.StatusProcessing)}

	// Отмена возможна только из pending/confirmed
	updated, err := order.Transition(o, order.StatusCancelled)
	assert.Error(t, err, "processing -> cancelled must be rejected")
	assert.True(t, errors.Is(err, order.ErrInvalidTransition))
	assert.Equal(t, o.Status, updated.Status, "order must stay unchanged on rejection")

	var invalidErr *order.InvalidTransitionError
	assert.True(t, errors.As(err, &invalidErr))
	assert.Equal(t, order.StatusProcessing, invalidErr.From)
	assert.Equal(t, order.StatusCancelled, invalidErr.To)
}

func TestTransition_SameStatusNoOp(t *testing.T) {
	// Повторный запрос того же статуса — идемпотентный успех,
	// в том числе для терминальных статусов.
	for _, s := range []order.Status{
		order.StatusPending, order.StatusConfirmed, order.StatusDelivered, order.StatusCancelled,
	} {
		o := models.Order{ID: 1, Status: string(s)}
		updated, err := order.Transition(o, s)
		assert.NoError(t, err, "same-status request should succeed for %s", s)
		assert.Equal(t, string(s), updated.Status)
	}
}

func TestTransition_TerminalRejectsOtherTargets(t *testing.T) {
	for _, s := range []order.Status{order.StatusDelivered, order.StatusCancelled} {
		o := models.Order{ID: 1, Status: string(s)}
		_, err := order.Transition(o, order.StatusConfirmed)
		assert.Error(t, err, "terminal status %s must reject other targets", s)
		assert.True(t, errors.Is(err, order.ErrInvalidTransition))
	}
}

func TestNextStatuses(t *testing.T) {
	assert.ElementsMatch(t,
		[]order.Status{order.StatusConfirmed, order.StatusCancelled},
		order.NextStatuses(order.StatusPending))
	assert.Empty(t, order.NextStatuses(order.StatusDelivered), "terminal status has no outgoing edges")
	assert.Empty(t, order.NextStatuses(order.Status("unknown")), "unknown status has no outgoing edges")
}

func TestValidAndIsTerminal(t *testing.T) {
	assert.True(t, order.Valid(order.StatusPending))
	assert.False(t, order.Valid(order.Status("shipped")))
	assert.True(t, order.IsTerminal(order.StatusCancelled))
	assert.False(t, order.IsTerminal(order.StatusReady))
	assert.False(t, order.IsTerminal(order.Status("unknown")))
}
