package health

import (
	"context"
	"runtime"

	"github.com/go-faster/errors"
)

// GoroutineCountCheck fails when more than threshold goroutines are running.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(_ context.Context) error {
		if n := runtime.NumGoroutine(); n > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", n, threshold)
		}
		return nil
	}
}

// NonEmptyCheck fails while count returns zero or an error. It suits
// readiness for data that must be loaded before serving, such as the menu.
func NonEmptyCheck(count func(ctx context.Context) (int, error)) CheckFunc {
	return func(ctx context.Context) error {
		n, err := count(ctx)
		if err != nil {
			return err
		}
		if n == 0 {
			return errors.New("no data loaded")
		}
		return nil
	}
}
