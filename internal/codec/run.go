package codec

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docfit-go/internal/domain"
)

// Run executes fn with a time budget. A zero timeout only honours ctx.
//
// Encoders cannot be interrupted, so on timeout the goroutine running fn is
// abandoned and its output discarded.
func Run(ctx context.Context, timeout time.Duration, fn func() ([]byte, error)) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, contextError(err)
	}

	type outcome struct {
		data []byte
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: domain.NewError(domain.KindInternalDecode, "codec", fmt.Errorf("panic: %v", r))}
			}
		}()
		data, err := fn()
		done <- outcome{data: data, err: err}
	}()

	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}

	select {
	case o := <-done:
		return o.data, o.err
	case <-ctx.Done():
		return nil, contextError(ctx.Err())
	case <-timer:
		return nil, domain.Errorf(domain.KindTimeout, "codec", "attempt exceeded %s", timeout)
	}
}

func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.NewError(domain.KindTimeout, "codec", err)
	}
	return domain.NewError(domain.KindCanceled, "codec", err)
}
