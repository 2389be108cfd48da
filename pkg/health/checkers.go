package health

import (
	"context"
	"database/sql"
	"runtime"
	"sync/atomic"

	"github.com/go-faster/errors"
)

// MaxGoroutines fails while more than limit goroutines are running.
func MaxGoroutines(limit int) CheckFunc {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > limit {
			return errors.Errorf("%d goroutines running, limit %d", n, limit)
		}
		return nil
	}
}

// PoolWaits fails when more than limit requests had to wait for a free
// database connection since the previous run. stats is usually (*sql.DB).Stats.
func PoolWaits(stats func() sql.DBStats, limit int64) CheckFunc {
	var last atomic.Int64
	last.Store(stats().WaitCount)

	return func(context.Context) error {
		now := stats().WaitCount
		waited := now - last.Swap(now)
		if waited > limit {
			return errors.Errorf("%d requests waited for a database connection", waited)
		}
		return nil
	}
}
