package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"xray-assistant/internal/domain/entity"
)

// withDeadline выполняет fn с отменяемым контекстом и ограничением по времени.
// Вызывающий получает ErrTimeout сразу по истечении срока, даже если fn не следит за контекстом;
// контекст fn при этом отменяется, и её результат отбрасывается.
func withDeadline[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	go func() {
		val, err := fn(callCtx)
		done <- result{val: val, err: err}
	}()

	var zero T
	select {
	case res := <-done:
		if res.err != nil {
			return zero, classify(callCtx, res.err)
		}
		return res.val, nil
	case <-callCtx.Done():
		return zero, classify(callCtx, callCtx.Err())
	}
}

// classify превращает истечение срока в ErrTimeout, прочие ошибки возвращает как есть.
func classify(ctx context.Context, err error) error {
	if errors.Is(err, entity.ErrTimeout) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", entity.ErrTimeout, err)
	}
	return err
}
