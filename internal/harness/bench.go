package harness

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"ordercore/internal/common"
	"ordercore/internal/engine"
)

// Report summarizes one benchmark run.
type Report struct {
	OrdersSubmitted int
	TradesEmitted   int
	ResultCounts    map[common.ResultCode]int
	Elapsed         time.Duration
}

// Bench drives an engine.Engine with a Feed, under tomb supervision — the
// same lifecycle pattern used for worker pools and TCP session loops,
// narrowed here to supervise a single feeder goroutine instead of a pool of
// connection handlers, since an Engine is not safe for concurrent
// submission (single-threaded, exclusively owned by its caller).
type Bench struct {
	eng  *engine.Engine
	feed *Feed
}

// NewBench builds a Bench around an already-constructed engine and feed.
func NewBench(eng *engine.Engine, feed *Feed) *Bench {
	return &Bench{eng: eng, feed: feed}
}

// Run submits n synthetic orders, stopping early if ctx is cancelled.
func (b *Bench) Run(ctx context.Context, n int) Report {
	t, ctx := tomb.WithContext(ctx)
	report := Report{ResultCounts: make(map[common.ResultCode]int)}

	t.Go(func() error {
		start := time.Now()
		for i := 0; i < n; i++ {
			select {
			case <-t.Dying():
				return nil
			default:
			}

			order := b.feed.Next("bench")
			code := b.eng.AddOrder(order, time.Now().UnixMilli())
			report.OrdersSubmitted++
			report.ResultCounts[code]++
			report.TradesEmitted += len(b.eng.LastTrades())

			if i%10000 == 0 && i > 0 {
				log.Debug().Int("submitted", i).Msg("harness: progress")
			}
		}
		report.Elapsed = time.Since(start)
		t.Kill(nil)
		return nil
	})

	<-t.Dead()
	if err := t.Err(); err != nil && err != tomb.ErrStillAlive {
		log.Error().Err(err).Msg("harness: bench run ended with error")
	}

	log.Info().
		Int("orders", report.OrdersSubmitted).
		Int("trades", report.TradesEmitted).
		Dur("elapsed", report.Elapsed).
		Msg("harness: run complete")
	return report
}
