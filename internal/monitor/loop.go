package monitor

import (
	"context"
	"log"
	"time"
)

// StartLoop runs the poll cycle on its own goroutine: one immediate tick,
// then one per interval, with cadence changes applied between ticks. The
// returned cancel stops the loop; done closes once it has fully exited.
func StartLoop(ctx context.Context, svc *Service) (context.CancelFunc, <-chan struct{}) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)

		interval := svc.Interval()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Printf("monitor loop started, interval %s", interval)
		svc.Tick(ctx)

		for {
			select {
			case <-ctx.Done():
				log.Printf("monitor loop stopped: %v", ctx.Err())
				return
			case next := <-svc.Reschedules():
				if next == interval {
					continue
				}
				interval = next
				ticker.Reset(interval)
				log.Printf("monitor loop rescheduled, interval %s", interval)
			case <-ticker.C:
				svc.Tick(ctx)
				// A slow tick can overrun the period. Dropping the queued
				// fire keeps cycles aligned to completion, not to backlog.
				select {
				case <-ticker.C:
				default:
				}
			}
		}
	}()

	return cancel, done
}
