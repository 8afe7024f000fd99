package monitor

import (
	"context"
	"time"

	"github.com/turnwatch/turnwatch/internal/journal"
	"github.com/turnwatch/turnwatch/internal/monitor/storage"
)

// callLog records cross-fake call ordering for persistence assertions.
type callLog struct {
	calls []string
}

func (l *callLog) add(name string) {
	if l == nil {
		return
	}
	l.calls = append(l.calls, name)
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type fetchStep struct {
	result FetchResult
	err    error
}

// fakeFetcher replays queued fetch outcomes. A drained queue answers like
// an unchanged resource, the steady state of a quiet game.
type fakeFetcher struct {
	steps []fetchStep
	urls  []string
}

func (f *fakeFetcher) push(result FetchResult, err error) {
	f.steps = append(f.steps, fetchStep{result: result, err: err})
}

func (f *fakeFetcher) pushState(state *GameState) {
	f.push(FetchResult{State: state}, nil)
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (FetchResult, error) {
	f.urls = append(f.urls, url)
	if len(f.steps) == 0 {
		return FetchResult{Unchanged: true}, nil
	}
	step := f.steps[0]
	f.steps = f.steps[1:]
	return step.result, step.err
}

type notifyCall struct {
	destination int64
	event       Event
}

type fakeNotifier struct {
	calls []notifyCall
	err   error
	log   *callLog
}

func (f *fakeNotifier) Notify(_ context.Context, destination int64, event Event) error {
	f.log.add("notify:" + string(event.Kind))
	f.calls = append(f.calls, notifyCall{destination: destination, event: event})
	return f.err
}

type fakeJournal struct {
	entries []journal.Entry
	err     error
}

func (f *fakeJournal) Append(_ context.Context, entry journal.Entry) (journal.Entry, error) {
	if f.err != nil {
		return journal.Entry{}, f.err
	}
	f.entries = append(f.entries, entry)
	return entry, nil
}

func (f *fakeJournal) ListRecent(_ context.Context, limit int) ([]journal.Entry, error) {
	if limit <= 0 || limit > len(f.entries) {
		limit = len(f.entries)
	}
	recent := make([]journal.Entry, 0, limit)
	for i := len(f.entries) - 1; i >= 0 && len(recent) < limit; i-- {
		recent = append(recent, f.entries[i])
	}
	return recent, nil
}

type fakeSnapshots struct {
	snapshot storage.Snapshot
	loaded   bool
	loadErr  error
	saveErr  error
	saves    []storage.Snapshot
	log      *callLog
}

func (f *fakeSnapshots) Load(context.Context) (storage.Snapshot, error) {
	if f.loadErr != nil {
		return storage.Snapshot{}, f.loadErr
	}
	if !f.loaded {
		return storage.Snapshot{}, storage.ErrNotFound
	}
	return f.snapshot, nil
}

func (f *fakeSnapshots) Save(_ context.Context, snapshot storage.Snapshot) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.log.add("persist")
	f.saves = append(f.saves, snapshot)
	return nil
}

func (f *fakeSnapshots) last() storage.Snapshot {
	if len(f.saves) == 0 {
		return storage.Snapshot{}
	}
	return f.saves[len(f.saves)-1]
}
