package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/turnwatch/turnwatch/internal/monitor/storage"
)

const testBaseURL = "https://game.example/files/"

type fixture struct {
	service   *Service
	fetcher   *fakeFetcher
	notifier  *fakeNotifier
	journal   *fakeJournal
	snapshots *fakeSnapshots
	clock     *fakeClock
	log       *callLog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := &callLog{}
	clk := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	fetcher := &fakeFetcher{}
	notifier := &fakeNotifier{log: log}
	journalStore := &fakeJournal{}
	snapshots := &fakeSnapshots{log: log}
	service, err := NewService(Config{
		BaseURL:    testBaseURL,
		Fetcher:    fetcher,
		Dispatcher: NewDispatcher(notifier, journalStore, clk.Now),
		Snapshots:  snapshots,
		Interval:   time.Minute,
		Clock:      clk.Now,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &fixture{
		service:   service,
		fetcher:   fetcher,
		notifier:  notifier,
		journal:   journalStore,
		snapshots: snapshots,
		clock:     clk,
		log:       log,
	}
}

// gameState builds a payload whose roster lists humans plus one AI entry.
// With no humans given the payload carries no civilization list at all.
func gameState(player string, humans ...string) *GameState {
	state := &GameState{CurrentPlayer: player}
	if humans != nil {
		for _, name := range humans {
			state.Civilizations = append(state.Civilizations, Civilization{Name: name, PlayerType: "Human"})
		}
		state.Civilizations = append(state.Civilizations, Civilization{Name: "Barbarians", PlayerType: "AI"})
	}
	return state
}

func (f *fixture) startGame(t *testing.T, humans ...string) {
	t.Helper()
	f.fetcher.pushState(gameState(humans[0], humans...))
	if _, err := f.service.SetGame(context.Background(), "game-1"); err != nil {
		t.Fatalf("set game: %v", err)
	}
}

func (f *fixture) observe(t *testing.T, state *GameState) {
	t.Helper()
	f.fetcher.pushState(state)
	f.service.Tick(context.Background())
}

func TestNewService_Validation(t *testing.T) {
	base := func() Config {
		return Config{
			BaseURL:    testBaseURL,
			Fetcher:    &fakeFetcher{},
			Dispatcher: NewDispatcher(&fakeNotifier{}, nil, nil),
			Snapshots:  &fakeSnapshots{},
		}
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "missing fetcher", mutate: func(c *Config) { c.Fetcher = nil }},
		{name: "missing dispatcher", mutate: func(c *Config) { c.Dispatcher = nil }},
		{name: "missing snapshots", mutate: func(c *Config) { c.Snapshots = nil }},
		{name: "missing base URL", mutate: func(c *Config) { c.BaseURL = "  " }},
		{name: "relative base URL", mutate: func(c *Config) { c.BaseURL = "files/games" }},
		{name: "unordered schedule", mutate: func(c *Config) { c.Schedule = Schedule{time.Hour, time.Minute} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			if _, err := NewService(cfg); err == nil {
				t.Fatal("config accepted")
			}
		})
	}
}

func TestNewService_Defaults(t *testing.T) {
	service, err := NewService(Config{
		BaseURL:    testBaseURL,
		Fetcher:    &fakeFetcher{},
		Dispatcher: NewDispatcher(&fakeNotifier{}, nil, nil),
		Snapshots:  &fakeSnapshots{},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if service.Interval() != time.Minute {
		t.Fatalf("interval = %s, want 1m", service.Interval())
	}
	if service.Locale() != "en" {
		t.Fatalf("locale = %q, want en", service.Locale())
	}
}

func TestService_SetGame_EstablishesSession(t *testing.T) {
	f := newFixture(t)
	f.fetcher.pushState(gameState("Rome", "Rome", "Babylon"))

	result, err := f.service.SetGame(context.Background(), "game-1")
	if err != nil {
		t.Fatalf("set game: %v", err)
	}
	if result.GameID != "game-1" {
		t.Fatalf("game id = %q, want game-1", result.GameID)
	}
	if len(result.Factions) != 2 || result.Factions[0] != "Rome" || result.Factions[1] != "Babylon" {
		t.Fatalf("factions = %v, want [Rome Babylon]", result.Factions)
	}
	if result.Interval != time.Minute {
		t.Fatalf("interval = %s, want 1m", result.Interval)
	}
	if len(f.fetcher.urls) != 1 || f.fetcher.urls[0] != testBaseURL+"game-1" {
		t.Fatalf("fetched %v, want [%s]", f.fetcher.urls, testBaseURL+"game-1")
	}

	snapshot := f.snapshots.last()
	if snapshot.GameID != "game-1" || snapshot.ResourceURL != testBaseURL+"game-1" {
		t.Fatalf("snapshot session = %q/%q", snapshot.GameID, snapshot.ResourceURL)
	}
	if snapshot.LastActiveKey != "" {
		t.Fatalf("snapshot last active = %q, want empty", snapshot.LastActiveKey)
	}
	if got := f.service.Status(); got.GameID != "game-1" || got.Faction != "" {
		t.Fatalf("status = %+v, want fresh session without holder", got)
	}
}

func TestService_SetGame_RejectsMalformedIDs(t *testing.T) {
	f := newFixture(t)

	for _, raw := range []string{"", "   ", "two words", "tab\tid"} {
		if _, err := f.service.SetGame(context.Background(), raw); !errors.Is(err, ErrBadGameID) {
			t.Fatalf("SetGame(%q) err = %v, want ErrBadGameID", raw, err)
		}
	}
	if len(f.fetcher.urls) != 0 {
		t.Fatalf("malformed ids reached the fetcher: %v", f.fetcher.urls)
	}
}

func TestService_SetGame_FetchFailureKeepsSession(t *testing.T) {
	f := newFixture(t)
	f.startGame(t, "Rome", "Babylon")
	if _, err := f.service.Subscribe(context.Background(), "Rome", "@kay"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	f.fetcher.push(FetchResult{}, errors.New("connection refused"))
	if _, err := f.service.SetGame(context.Background(), "game-2"); !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("err = %v, want ErrFetchFailed", err)
	}

	// A cached-validator answer is not proof the new game exists.
	f.fetcher.push(FetchResult{Unchanged: true}, nil)
	if _, err := f.service.SetGame(context.Background(), "game-2"); !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("unchanged err = %v, want ErrFetchFailed", err)
	}

	if got := f.service.Status(); got.GameID != "game-1" {
		t.Fatalf("game id = %q, want game-1 preserved", got.GameID)
	}
	if subs := f.service.Subscriptions(); len(subs) != 1 || subs[0].Handle != "@kay" {
		t.Fatalf("subscriptions = %+v, want preserved binding", subs)
	}
}

func TestService_SetGame_ResetsSessionState(t *testing.T) {
	f := newFixture(t)
	f.startGame(t, "Rome", "Babylon")
	if _, err := f.service.Subscribe(context.Background(), "Rome", "@kay"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	f.observe(t, gameState("Rome", "Rome", "Babylon"))

	f.fetcher.pushState(gameState("Greece", "Greece"))
	result, err := f.service.SetGame(context.Background(), "game-2")
	if err != nil {
		t.Fatalf("set game-2: %v", err)
	}
	if len(result.Factions) != 1 || result.Factions[0] != "Greece" {
		t.Fatalf("factions = %v, want [Greece]", result.Factions)
	}
	if subs := f.service.Subscriptions(); len(subs) != 0 {
		t.Fatalf("subscriptions = %+v, want cleared", subs)
	}
	if got := f.service.Status(); got.Faction != "" {
		t.Fatalf("holder = %q, want cleared", got.Faction)
	}
}

func TestService_Subscribe(t *testing.T) {
	f := newFixture(t)

	if _, err := f.service.Subscribe(context.Background(), "Rome", "@kay"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}

	f.startGame(t, "Rome", "Babylon")

	if _, err := f.service.Subscribe(context.Background(), "Rome", "kay"); !errors.Is(err, ErrBadHandle) {
		t.Fatalf("bare handle err = %v, want ErrBadHandle", err)
	}
	if _, err := f.service.Subscribe(context.Background(), "Rome", "@"); !errors.Is(err, ErrBadHandle) {
		t.Fatalf("empty handle err = %v, want ErrBadHandle", err)
	}
	if _, err := f.service.Subscribe(context.Background(), "Greece", "@kay"); !errors.Is(err, ErrUnknownFaction) {
		t.Fatalf("unknown faction err = %v, want ErrUnknownFaction", err)
	}

	display, err := f.service.Subscribe(context.Background(), "  rome ", "@kay")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if display != "Rome" {
		t.Fatalf("display = %q, want Rome", display)
	}
	if snapshot := f.snapshots.last(); snapshot.Subscriptions["ROME"] != "@kay" {
		t.Fatalf("snapshot subscriptions = %v, want ROME -> @kay", snapshot.Subscriptions)
	}

	// Subscribing the same faction again replaces the handle.
	if _, err := f.service.Subscribe(context.Background(), "ROME", "@sam"); err != nil {
		t.Fatalf("resubscribe: %v", err)
	}
	subs := f.service.Subscriptions()
	if len(subs) != 1 || subs[0].Handle != "@sam" {
		t.Fatalf("subscriptions = %+v, want single @sam binding", subs)
	}
}

func TestService_Unsubscribe(t *testing.T) {
	f := newFixture(t)
	f.startGame(t, "Rome", "Babylon")
	if _, err := f.service.Subscribe(context.Background(), "Rome", "@Kay"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	faction, err := f.service.Unsubscribe(context.Background(), "@kAY")
	if err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	if faction != "Rome" {
		t.Fatalf("faction = %q, want Rome", faction)
	}
	if subs := f.service.Subscriptions(); len(subs) != 0 {
		t.Fatalf("subscriptions = %+v, want empty", subs)
	}
	if _, err := f.service.Unsubscribe(context.Background(), "@ghost"); !errors.Is(err, ErrNotSubscribed) {
		t.Fatalf("err = %v, want ErrNotSubscribed", err)
	}
}

func TestService_SetInterval(t *testing.T) {
	f := newFixture(t)

	if err := f.service.SetInterval(context.Background(), MinPollInterval-time.Second); !errors.Is(err, ErrBadInterval) {
		t.Fatalf("err = %v, want ErrBadInterval", err)
	}
	if err := f.service.SetInterval(context.Background(), 30*time.Second); err != nil {
		t.Fatalf("set interval: %v", err)
	}
	if got := f.service.Interval(); got != 30*time.Second {
		t.Fatalf("interval = %s, want 30s", got)
	}
	if snapshot := f.snapshots.last(); snapshot.PollIntervalSeconds != 30 {
		t.Fatalf("snapshot interval = %d, want 30", snapshot.PollIntervalSeconds)
	}

	// Only the latest cadence survives coalescing.
	if err := f.service.SetInterval(context.Background(), 45*time.Second); err != nil {
		t.Fatalf("set interval again: %v", err)
	}
	select {
	case got := <-f.service.Reschedules():
		if got != 45*time.Second {
			t.Fatalf("reschedule = %s, want 45s", got)
		}
	default:
		t.Fatal("no reschedule queued")
	}
	select {
	case got := <-f.service.Reschedules():
		t.Fatalf("unexpected second reschedule %s", got)
	default:
	}
}

func TestService_TogglePause(t *testing.T) {
	f := newFixture(t)
	f.service.BindDestination(context.Background(), 7)
	f.startGame(t, "Rome", "Babylon")
	if _, err := f.service.Subscribe(context.Background(), "Rome", "@kay"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	f.observe(t, gameState("Rome", "Rome", "Babylon"))

	paused := f.service.TogglePause(context.Background())
	if !paused.Paused || paused.Waiting != nil {
		t.Fatalf("pause result = %+v, want paused without waiting", paused)
	}
	if snapshot := f.snapshots.last(); !snapshot.Paused {
		t.Fatal("snapshot not marked paused")
	}

	// Reminders stay quiet while paused even when long overdue.
	f.clock.Advance(2 * time.Hour)
	f.service.Tick(context.Background())
	if len(f.notifier.calls) != 0 {
		t.Fatalf("notifier calls while paused = %d, want 0", len(f.notifier.calls))
	}

	resumed := f.service.TogglePause(context.Background())
	if resumed.Paused {
		t.Fatal("second toggle still paused")
	}
	if resumed.Waiting == nil || resumed.Waiting.Faction != "Rome" || resumed.Waiting.Handle != "@kay" {
		t.Fatalf("waiting = %+v, want Rome/@kay", resumed.Waiting)
	}

	// Resume re-arms from now; nothing fires until a full first offset.
	f.clock.Advance(9 * time.Minute)
	f.service.Tick(context.Background())
	if len(f.notifier.calls) != 0 {
		t.Fatalf("notifier calls before re-armed offset = %d, want 0", len(f.notifier.calls))
	}
	f.clock.Advance(time.Minute)
	f.service.Tick(context.Background())
	if len(f.notifier.calls) != 1 {
		t.Fatalf("notifier calls = %d, want 1", len(f.notifier.calls))
	}
	event := f.notifier.calls[0].event
	if event.Kind != EventReminder || event.Index != 0 {
		t.Fatalf("event = %+v, want first reminder", event)
	}
}

func TestService_Tick_FirstObservationIsSilent(t *testing.T) {
	f := newFixture(t)
	f.service.BindDestination(context.Background(), 7)
	f.startGame(t, "Rome", "Babylon")

	f.observe(t, gameState("Rome", "Rome", "Babylon"))

	if len(f.notifier.calls) != 0 {
		t.Fatalf("notifier calls = %d, want 0", len(f.notifier.calls))
	}
	if got := f.service.Status(); got.Faction != "Rome" {
		t.Fatalf("holder = %q, want Rome", got.Faction)
	}
	if snapshot := f.snapshots.last(); snapshot.LastActiveKey != "ROME" {
		t.Fatalf("snapshot last active = %q, want ROME", snapshot.LastActiveKey)
	}
}

func TestService_Tick_UnchangedBeforeFirstObservationIsInert(t *testing.T) {
	f := newFixture(t)
	f.service.BindDestination(context.Background(), 7)
	f.startGame(t, "Rome", "Babylon")
	baseline := len(f.log.calls)

	// Cached-validator answers carry no holder, and there is no prior
	// observation to fall back on.
	f.service.Tick(context.Background())
	f.service.Tick(context.Background())

	if got := len(f.log.calls); got != baseline {
		t.Fatalf("calls after inert ticks = %v, want none past %d", f.log.calls, baseline)
	}
	if got := f.service.Status(); got.Faction != "" {
		t.Fatalf("holder = %q, want unobserved", got.Faction)
	}
}

func TestService_Tick_NewHolderNotifies(t *testing.T) {
	f := newFixture(t)
	f.service.BindDestination(context.Background(), 7)
	f.startGame(t, "Rome", "Babylon")
	if _, err := f.service.Subscribe(context.Background(), "Babylon", "@sam"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	f.observe(t, gameState("Rome", "Rome", "Babylon"))

	f.log.calls = nil
	f.observe(t, gameState("Babylon", "Rome", "Babylon"))

	if len(f.notifier.calls) != 1 {
		t.Fatalf("notifier calls = %d, want 1", len(f.notifier.calls))
	}
	call := f.notifier.calls[0]
	if call.destination != 7 {
		t.Fatalf("destination = %d, want 7", call.destination)
	}
	event := call.event
	if event.Kind != EventTurnChange || event.Faction != "Babylon" || event.Handle != "@sam" {
		t.Fatalf("event = %+v, want Babylon turn change pinging @sam", event)
	}
	if event.Locale != "en" {
		t.Fatalf("locale = %q, want en", event.Locale)
	}

	// State reaches disk before the chat room hears about it.
	if len(f.log.calls) < 2 || f.log.calls[0] != "persist" || f.log.calls[1] != "notify:turn_change" {
		t.Fatalf("call order = %v, want persist before notify", f.log.calls)
	}

	last := f.journal.entries[len(f.journal.entries)-1]
	if last.Kind != string(EventTurnChange) || last.Outcome != string(OutcomeDelivered) {
		t.Fatalf("journal entry = %+v, want delivered turn_change", last)
	}
}

func TestService_Tick_TurnChangeWhilePausedRecordsSilently(t *testing.T) {
	f := newFixture(t)
	f.service.BindDestination(context.Background(), 7)
	f.startGame(t, "Rome", "Babylon")
	f.observe(t, gameState("Rome", "Rome", "Babylon"))
	f.service.TogglePause(context.Background())

	f.observe(t, gameState("Babylon", "Rome", "Babylon"))

	if len(f.notifier.calls) != 0 {
		t.Fatalf("notifier calls = %d, want 0", len(f.notifier.calls))
	}
	if got := f.service.Status(); got.Faction != "Babylon" {
		t.Fatalf("holder = %q, want Babylon recorded despite pause", got.Faction)
	}
	last := f.journal.entries[len(f.journal.entries)-1]
	if last.Kind != string(EventTurnChange) || last.Outcome != string(OutcomeSuppressed) {
		t.Fatalf("journal entry = %+v, want suppressed turn_change", last)
	}
}

func TestService_Tick_RemindersEscalate(t *testing.T) {
	f := newFixture(t)
	f.service.BindDestination(context.Background(), 7)
	f.startGame(t, "Rome", "Babylon")
	if _, err := f.service.Subscribe(context.Background(), "Rome", "@kay"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	f.observe(t, gameState("Rome", "Rome", "Babylon"))

	f.clock.Advance(9 * time.Minute)
	f.service.Tick(context.Background())
	if len(f.notifier.calls) != 0 {
		t.Fatalf("premature reminder: %+v", f.notifier.calls)
	}

	f.log.calls = nil
	f.clock.Advance(time.Minute)
	f.service.Tick(context.Background())
	if len(f.notifier.calls) != 1 {
		t.Fatalf("notifier calls = %d, want 1", len(f.notifier.calls))
	}
	first := f.notifier.calls[0].event
	if first.Kind != EventReminder || first.Index != 0 || first.Elapsed != 10*time.Minute {
		t.Fatalf("first reminder = %+v", first)
	}
	if first.Handle != "@kay" || first.Faction != "Rome" {
		t.Fatalf("first reminder identity = %q/%q", first.Faction, first.Handle)
	}
	if len(f.log.calls) < 2 || f.log.calls[0] != "persist" || f.log.calls[1] != "notify:reminder" {
		t.Fatalf("call order = %v, want persist before notify", f.log.calls)
	}

	// Nothing new until the next offset.
	f.service.Tick(context.Background())
	if len(f.notifier.calls) != 1 {
		t.Fatalf("notifier calls = %d, want still 1", len(f.notifier.calls))
	}

	f.clock.Advance(20 * time.Minute)
	f.service.Tick(context.Background())
	f.clock.Advance(30 * time.Minute)
	f.service.Tick(context.Background())
	if len(f.notifier.calls) != 3 {
		t.Fatalf("notifier calls = %d, want 3", len(f.notifier.calls))
	}
	if second := f.notifier.calls[1].event; second.Index != 1 || second.Elapsed != 30*time.Minute {
		t.Fatalf("second reminder = %+v", second)
	}
	if third := f.notifier.calls[2].event; third.Index != 2 || third.Elapsed != time.Hour {
		t.Fatalf("third reminder = %+v", third)
	}

	// The schedule is exhausted; the player is left alone.
	f.clock.Advance(24 * time.Hour)
	f.service.Tick(context.Background())
	if len(f.notifier.calls) != 3 {
		t.Fatalf("notifier calls = %d, want 3 after exhaustion", len(f.notifier.calls))
	}
}

func TestService_Tick_OneReminderPerTick(t *testing.T) {
	f := newFixture(t)
	f.service.BindDestination(context.Background(), 7)
	f.startGame(t, "Rome", "Babylon")
	f.observe(t, gameState("Rome", "Rome", "Babylon"))

	// Every offset is overdue after a long outage; they drain one per tick.
	f.clock.Advance(5 * time.Hour)
	for want := 1; want <= 3; want++ {
		f.service.Tick(context.Background())
		if len(f.notifier.calls) != want {
			t.Fatalf("notifier calls = %d, want %d", len(f.notifier.calls), want)
		}
		if got := f.notifier.calls[want-1].event.Index; got != want-1 {
			t.Fatalf("reminder index = %d, want %d", got, want-1)
		}
	}
	f.service.Tick(context.Background())
	if len(f.notifier.calls) != 3 {
		t.Fatalf("notifier calls = %d, want 3", len(f.notifier.calls))
	}
}

func TestService_Tick_PayloadTurnStartAnchorsReminders(t *testing.T) {
	f := newFixture(t)
	f.service.BindDestination(context.Background(), 7)
	f.startGame(t, "Rome", "Babylon")

	// The turn began twenty minutes before we first saw it.
	state := gameState("Rome", "Rome", "Babylon")
	state.CurrentTurnStartTime = f.clock.Now().Add(-20 * time.Minute).UnixMilli()
	f.observe(t, state)
	if len(f.notifier.calls) != 0 {
		t.Fatalf("first observation notified: %+v", f.notifier.calls)
	}

	f.service.Tick(context.Background())
	if len(f.notifier.calls) != 1 {
		t.Fatalf("notifier calls = %d, want 1", len(f.notifier.calls))
	}
	event := f.notifier.calls[0].event
	if event.Kind != EventReminder || event.Index != 0 || event.Elapsed != 10*time.Minute {
		t.Fatalf("event = %+v, want overdue first reminder", event)
	}
}

func TestService_Tick_FetchErrorsDebounced(t *testing.T) {
	f := newFixture(t)
	f.service.BindDestination(context.Background(), 7)
	f.startGame(t, "Rome", "Babylon")
	f.observe(t, gameState("Rome", "Rome", "Babylon"))

	for range 3 {
		f.fetcher.push(FetchResult{}, errors.New("dial tcp: connection refused"))
	}

	f.service.Tick(context.Background())
	if len(f.notifier.calls) != 1 {
		t.Fatalf("notifier calls = %d, want 1", len(f.notifier.calls))
	}
	event := f.notifier.calls[0].event
	if event.Kind != EventError || event.Cause == "" {
		t.Fatalf("event = %+v, want error with cause", event)
	}

	f.clock.Advance(time.Minute)
	f.service.Tick(context.Background())
	if len(f.notifier.calls) != 1 {
		t.Fatalf("notifier calls = %d, want 1 within debounce window", len(f.notifier.calls))
	}

	f.clock.Advance(ErrorDebounce)
	f.service.Tick(context.Background())
	if len(f.notifier.calls) != 2 {
		t.Fatalf("notifier calls = %d, want 2 after window", len(f.notifier.calls))
	}

	// Failures never disturb the recorded turn.
	if got := f.service.Status(); got.Faction != "Rome" {
		t.Fatalf("holder = %q, want Rome", got.Faction)
	}
}

func TestService_Tick_RosterFollowsFreshPayloads(t *testing.T) {
	f := newFixture(t)
	f.startGame(t, "Rome", "Babylon")
	if _, err := f.service.Subscribe(context.Background(), "Babylon", "@b"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	// Babylon leaves, Greece joins; the roster is replaced wholesale.
	f.observe(t, gameState("Rome", "Rome", "Greece"))
	if _, err := f.service.Subscribe(context.Background(), "Greece", "@g"); err != nil {
		t.Fatalf("subscribe greece: %v", err)
	}
	if _, err := f.service.Subscribe(context.Background(), "Babylon", "@late"); !errors.Is(err, ErrUnknownFaction) {
		t.Fatalf("err = %v, want ErrUnknownFaction after roster replace", err)
	}

	// The departed faction's binding stays, listed by its bare key.
	subs := f.service.Subscriptions()
	if len(subs) != 2 {
		t.Fatalf("subscriptions = %+v, want 2", subs)
	}
	if subs[0].Faction != "BABYLON" || subs[0].Handle != "@b" {
		t.Fatalf("dormant binding = %+v, want BABYLON/@b", subs[0])
	}

	// A payload without a civilization list leaves the roster alone.
	f.observe(t, gameState("Rome"))
	if _, err := f.service.Subscribe(context.Background(), "Greece", "@g2"); err != nil {
		t.Fatalf("subscribe after listless payload: %v", err)
	}
}

func TestService_Restore(t *testing.T) {
	f := newFixture(t)
	f.snapshots.loaded = true
	f.snapshots.snapshot = storage.Snapshot{
		GameID:              "game-9",
		ChatID:              7,
		Subscriptions:       map[string]string{"rome": "@kay"},
		LastActiveKey:       "ROME",
		Locale:              "uk",
		PollIntervalSeconds: 120,
	}

	if err := f.service.Restore(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	got := f.service.Status()
	if got.GameID != "game-9" || got.Paused {
		t.Fatalf("status = %+v, want game-9 running", got)
	}
	if got.Faction != "ROME" || got.Handle != "@kay" {
		t.Fatalf("holder = %q/%q, want ROME/@kay", got.Faction, got.Handle)
	}
	if got.Interval != 2*time.Minute || got.Locale != "uk" {
		t.Fatalf("interval/locale = %s/%q, want 2m/uk", got.Interval, got.Locale)
	}

	// The resource URL is rebuilt from the base when the snapshot lacks it.
	f.service.Tick(context.Background())
	if len(f.fetcher.urls) != 1 || f.fetcher.urls[0] != testBaseURL+"game-9" {
		t.Fatalf("fetched %v, want [%s]", f.fetcher.urls, testBaseURL+"game-9")
	}
	if len(f.notifier.calls) != 0 {
		t.Fatalf("restart notified: %+v", f.notifier.calls)
	}

	// Reminders resume from the restore instant, not the lost turn start.
	f.clock.Advance(10 * time.Minute)
	f.service.Tick(context.Background())
	if len(f.notifier.calls) != 1 {
		t.Fatalf("notifier calls = %d, want 1", len(f.notifier.calls))
	}
	event := f.notifier.calls[0].event
	if event.Kind != EventReminder || event.Handle != "@kay" || event.Locale != "uk" {
		t.Fatalf("event = %+v, want uk reminder pinging @kay", event)
	}
}

func TestService_Restore_MissingSnapshotStartsClean(t *testing.T) {
	f := newFixture(t)
	if err := f.service.Restore(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if got := f.service.Status(); got.GameID != "" || got.Faction != "" {
		t.Fatalf("status = %+v, want empty", got)
	}
}

func TestService_Restore_LoadFailurePropagates(t *testing.T) {
	f := newFixture(t)
	f.snapshots.loadErr = errors.New("snapshot corrupt")
	if err := f.service.Restore(context.Background()); err == nil {
		t.Fatal("restore succeeded on corrupt snapshot")
	}
}

func TestService_Restore_IgnoresInvalidFields(t *testing.T) {
	f := newFixture(t)
	f.snapshots.loaded = true
	f.snapshots.snapshot = storage.Snapshot{
		GameID:              "game-9",
		PollIntervalSeconds: 1, // below the floor
		Subscriptions:       map[string]string{"  ": "@lost", "ROME": ""},
		Paused:              true,
	}

	if err := f.service.Restore(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if got := f.service.Interval(); got != time.Minute {
		t.Fatalf("interval = %s, want 1m default kept", got)
	}
	if subs := f.service.Subscriptions(); len(subs) != 0 {
		t.Fatalf("subscriptions = %+v, want empty-key and empty-handle entries dropped", subs)
	}
	if got := f.service.Status(); !got.Paused {
		t.Fatal("paused flag lost")
	}
}

func TestService_Tick_RepairsCorruptReminderState(t *testing.T) {
	f := newFixture(t)
	f.service.BindDestination(context.Background(), 7)
	f.startGame(t, "Rome", "Babylon")
	f.observe(t, gameState("Rome", "Rome", "Babylon"))

	f.service.mu.Lock()
	state := f.service.reminders["ROME"]
	state.TurnStartedAt = f.clock.Now().Add(48 * time.Hour)
	state.LastRemindedAt = time.Time{}
	f.service.mu.Unlock()

	saves := len(f.snapshots.saves)
	f.service.Tick(context.Background())
	if len(f.notifier.calls) != 0 {
		t.Fatalf("repair tick notified: %+v", f.notifier.calls)
	}
	if len(f.snapshots.saves) != saves+1 {
		t.Fatalf("saves = %d, want %d (repair persisted)", len(f.snapshots.saves), saves+1)
	}

	f.service.mu.Lock()
	repaired := *f.service.reminders["ROME"]
	f.service.mu.Unlock()
	if repaired.TurnStartedAt.After(f.clock.Now()) || repaired.TurnStartedAt.IsZero() {
		t.Fatalf("turn start = %s, want repaired to now", repaired.TurnStartedAt)
	}

	// The repaired machine runs the normal schedule from now.
	f.clock.Advance(10 * time.Minute)
	f.service.Tick(context.Background())
	if len(f.notifier.calls) != 1 || f.notifier.calls[0].event.Index != 0 {
		t.Fatalf("calls = %+v, want first reminder", f.notifier.calls)
	}
}

func TestService_LocaleFlowsIntoEvents(t *testing.T) {
	f := newFixture(t)
	f.service.BindDestination(context.Background(), 7)
	f.startGame(t, "Rome", "Babylon")
	if err := f.service.SetLocale(context.Background(), "UK"); err != nil {
		t.Fatalf("set locale: %v", err)
	}
	f.observe(t, gameState("Rome", "Rome", "Babylon"))
	f.observe(t, gameState("Babylon", "Rome", "Babylon"))

	if len(f.notifier.calls) != 1 {
		t.Fatalf("notifier calls = %d, want 1", len(f.notifier.calls))
	}
	if got := f.notifier.calls[0].event.Locale; got != "uk" {
		t.Fatalf("event locale = %q, want uk", got)
	}
}

func TestService_SetLocale(t *testing.T) {
	f := newFixture(t)
	if err := f.service.SetLocale(context.Background(), "   "); !errors.Is(err, ErrBadLocale) {
		t.Fatalf("err = %v, want ErrBadLocale", err)
	}
	if err := f.service.SetLocale(context.Background(), "UK"); err != nil {
		t.Fatalf("set locale: %v", err)
	}
	if got := f.service.Locale(); got != "uk" {
		t.Fatalf("locale = %q, want uk", got)
	}
	if snapshot := f.snapshots.last(); snapshot.Locale != "uk" {
		t.Fatalf("snapshot locale = %q, want uk", snapshot.Locale)
	}
}

func TestService_BindDestination(t *testing.T) {
	f := newFixture(t)

	f.service.BindDestination(context.Background(), 0)
	if len(f.snapshots.saves) != 0 {
		t.Fatalf("zero destination persisted: %d saves", len(f.snapshots.saves))
	}

	f.service.BindDestination(context.Background(), 7)
	if len(f.snapshots.saves) != 1 || f.snapshots.last().ChatID != 7 {
		t.Fatalf("saves = %+v, want one save with chat 7", f.snapshots.saves)
	}

	// Rebinding the same chat is a no-op.
	f.service.BindDestination(context.Background(), 7)
	if len(f.snapshots.saves) != 1 {
		t.Fatalf("saves = %d, want 1", len(f.snapshots.saves))
	}
}

func TestService_SubscriptionsSorted(t *testing.T) {
	f := newFixture(t)
	f.startGame(t, "Rome", "Babylon")
	if _, err := f.service.Subscribe(context.Background(), "Rome", "@r"); err != nil {
		t.Fatalf("subscribe rome: %v", err)
	}
	if _, err := f.service.Subscribe(context.Background(), "Babylon", "@b"); err != nil {
		t.Fatalf("subscribe babylon: %v", err)
	}

	subs := f.service.Subscriptions()
	if len(subs) != 2 || subs[0].Faction != "Babylon" || subs[1].Faction != "Rome" {
		t.Fatalf("subscriptions = %+v, want sorted by faction", subs)
	}
}

func TestService_PersistFailureDoesNotBlockCommands(t *testing.T) {
	f := newFixture(t)
	f.snapshots.saveErr = errors.New("disk full")
	f.startGame(t, "Rome", "Babylon")

	if _, err := f.service.Subscribe(context.Background(), "Rome", "@kay"); err != nil {
		t.Fatalf("subscribe with failing store: %v", err)
	}
	if subs := f.service.Subscriptions(); len(subs) != 1 {
		t.Fatalf("subscriptions = %+v, want in-memory binding", subs)
	}
}
