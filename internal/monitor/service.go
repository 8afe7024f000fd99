package monitor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/turnwatch/turnwatch/internal/monitor/storage"
)

const tracerName = "turnwatch/monitor"

// Command validation errors. The control surface maps these to localized
// replies; they are user input problems, not system faults.
var (
	ErrNoSession      = errors.New("no game session configured")
	ErrBadGameID      = errors.New("invalid game id")
	ErrBadInterval    = errors.New("poll interval out of range")
	ErrBadHandle      = errors.New("handle must start with @")
	ErrUnknownFaction = errors.New("faction not in roster")
	ErrNotSubscribed  = errors.New("handle has no subscription")
	ErrBadLocale      = errors.New("unsupported language")
	ErrFetchFailed    = errors.New("game state fetch failed")
)

// MinPollInterval guards against busy-looping the remote server on a typo.
const MinPollInterval = 5 * time.Second

// Session identifies the watched game and its derived resource URL.
type Session struct {
	GameID string
	URL    string
}

// Config assembles a Service.
type Config struct {
	BaseURL    string
	Fetcher    Fetcher
	Dispatcher *Dispatcher
	Snapshots  storage.Store
	Schedule   Schedule
	Interval   time.Duration
	Locale     string
	Clock      func() time.Time
}

// Service owns every piece of mutable monitoring state: the session, the
// roster, subscriptions, turn state, reminder machines, pause flag, locale,
// poll interval, and notification destination. A single mutex serializes
// command handlers and the poll tick; fetches and persistence complete
// inside the critical section, which is deliberate back-pressure on a
// single-session deployment.
type Service struct {
	baseURL    string
	fetcher    Fetcher
	dispatcher *Dispatcher
	snapshots  storage.Store
	schedule   Schedule
	clock      func() time.Time

	mu            sync.Mutex
	session       *Session
	destination   int64
	roster        Roster
	subscriptions map[string]string
	turn          TurnState
	reminders     map[string]*ReminderState
	paused        bool
	locale        string
	interval      time.Duration
	rescheduled   chan time.Duration
}

// NewService validates cfg and builds a Service with empty session state.
func NewService(cfg Config) (*Service, error) {
	if cfg.Fetcher == nil {
		return nil, errors.New("monitor: fetcher is required")
	}
	if cfg.Dispatcher == nil {
		return nil, errors.New("monitor: dispatcher is required")
	}
	if cfg.Snapshots == nil {
		return nil, errors.New("monitor: snapshot store is required")
	}
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return nil, errors.New("monitor: base URL is required")
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("monitor: malformed base URL %q", base)
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	schedule := cfg.Schedule
	if len(schedule) == 0 {
		schedule = DefaultReminderSchedule
	}
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	locale := strings.TrimSpace(cfg.Locale)
	if locale == "" {
		locale = "en"
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		baseURL:       base,
		fetcher:       cfg.Fetcher,
		dispatcher:    cfg.Dispatcher,
		snapshots:     cfg.Snapshots,
		schedule:      schedule,
		clock:         clock,
		subscriptions: make(map[string]string),
		reminders:     make(map[string]*ReminderState),
		locale:        locale,
		interval:      interval,
		rescheduled:   make(chan time.Duration, 1),
	}, nil
}

func (s *Service) now() time.Time {
	return s.clock().UTC()
}

// SetGameResult acknowledges a successful SetGame.
type SetGameResult struct {
	GameID   string
	Factions []string
	Interval time.Duration
}

// SetGame validates and fetches the new game before committing: a session
// swap only happens against a reachable, decodable resource. On success
// every piece of per-session state is cleared and the roster rebuilt from
// the fresh payload.
func (s *Service) SetGame(ctx context.Context, gameID string) (SetGameResult, error) {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" || strings.ContainsAny(gameID, " \t") {
		return SetGameResult{}, ErrBadGameID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.baseURL + gameID
	result, err := s.fetcher.Fetch(ctx, target)
	if err != nil {
		return SetGameResult{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	if result.State == nil {
		// An unchanged answer here means a stale cached token, not a
		// confirmed reachable game.
		return SetGameResult{}, ErrFetchFailed
	}

	s.session = &Session{GameID: gameID, URL: target}
	s.subscriptions = make(map[string]string)
	s.reminders = make(map[string]*ReminderState)
	s.turn = TurnState{}
	s.roster = newRoster(result.State.HumanFactions())
	s.persistLocked(ctx)

	return SetGameResult{GameID: gameID, Factions: s.roster.Factions(), Interval: s.interval}, nil
}

// SetInterval updates the poll cadence, persists it, and reschedules the
// loop. The pending tick under the old cadence is cancelled atomically.
func (s *Service) SetInterval(ctx context.Context, interval time.Duration) error {
	if interval < MinPollInterval {
		return ErrBadInterval
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval = interval
	s.persistLocked(ctx)
	s.requestReschedule(interval)
	return nil
}

// requestReschedule hands the loop a new period, coalescing bursts: only
// the latest value matters.
func (s *Service) requestReschedule(interval time.Duration) {
	for {
		select {
		case s.rescheduled <- interval:
			return
		case <-s.rescheduled:
		}
	}
}

// Reschedules is the loop's feed of cadence changes.
func (s *Service) Reschedules() <-chan time.Duration {
	return s.rescheduled
}

// Subscribe binds a chat handle to a roster faction. Matching is exact on
// the normalized key. It returns the faction's display form.
func (s *Service) Subscribe(ctx context.Context, faction, handle string) (string, error) {
	handle = strings.TrimSpace(handle)
	if !strings.HasPrefix(handle, "@") || len(handle) < 2 {
		return "", ErrBadHandle
	}
	key := NormalizeFaction(faction)
	if key == "" {
		return "", ErrUnknownFaction
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return "", ErrNoSession
	}
	display, ok := s.roster.Display(key)
	if !ok {
		return "", ErrUnknownFaction
	}
	s.subscriptions[key] = handle
	s.persistLocked(ctx)
	return display, nil
}

// Unsubscribe removes the subscription bound to handle and returns the
// freed faction's display form.
func (s *Service) Unsubscribe(ctx context.Context, handle string) (string, error) {
	handle = strings.TrimSpace(handle)
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, bound := range s.subscriptions {
		if strings.EqualFold(bound, handle) {
			delete(s.subscriptions, key)
			s.persistLocked(ctx)
			return s.displayNameLocked(key), nil
		}
	}
	return "", ErrNotSubscribed
}

// PauseResult reports the new pause state and, on resume, who is still up.
type PauseResult struct {
	Paused  bool
	Waiting *WaitingPlayer
}

// WaitingPlayer identifies the current holder at resume time.
type WaitingPlayer struct {
	Faction string
	Handle  string
}

// TogglePause flips notification suppression. Resuming with a known turn
// holder re-arms that holder's reminders from the resume instant, so no
// backlog of stale reminders fires at once.
func (s *Service) TogglePause(ctx context.Context) PauseResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = !s.paused
	result := PauseResult{Paused: s.paused}
	if !s.paused && s.turn.Key != "" {
		s.reminders[s.turn.Key] = newReminderState(s.now())
		result.Waiting = &WaitingPlayer{
			Faction: s.displayNameLocked(s.turn.Key),
			Handle:  s.subscriptions[s.turn.Key],
		}
	}
	s.persistLocked(ctx)
	return result
}

// SetLocale switches the outbound message language. Tag validation against
// the available catalogs belongs to the control surface.
func (s *Service) SetLocale(ctx context.Context, locale string) error {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if locale == "" {
		return ErrBadLocale
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locale = locale
	s.persistLocked(ctx)
	return nil
}

// BindDestination records the chat that future notifications target.
func (s *Service) BindDestination(ctx context.Context, destination int64) {
	if destination == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destination == destination {
		return
	}
	s.destination = destination
	s.persistLocked(ctx)
}

// Locale returns the active outbound language tag.
func (s *Service) Locale() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locale
}

// Interval returns the current poll cadence.
func (s *Service) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// StatusReport is the read-only state summary behind the status command.
type StatusReport struct {
	GameID   string
	Paused   bool
	Faction  string // current holder display form, empty when unobserved
	Handle   string // holder's subscribed handle, empty when none
	Interval time.Duration
	Locale   string
}

// Status snapshots current state without mutating anything.
func (s *Service) Status() StatusReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	report := StatusReport{Paused: s.paused, Interval: s.interval, Locale: s.locale}
	if s.session != nil {
		report.GameID = s.session.GameID
	}
	if s.turn.Key != "" {
		report.Faction = s.displayNameLocked(s.turn.Key)
		report.Handle = s.subscriptions[s.turn.Key]
	}
	return report
}

// Subscription is one faction-to-handle binding.
type Subscription struct {
	Faction string
	Handle  string
}

// Subscriptions lists current bindings sorted by faction display form.
// Bindings whose faction fell out of the roster are listed too; they are
// dormant, not errors.
func (s *Service) Subscriptions() []Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	subs := make([]Subscription, 0, len(s.subscriptions))
	for key, handle := range s.subscriptions {
		subs = append(subs, Subscription{Faction: s.displayNameLocked(key), Handle: handle})
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].Faction < subs[j].Faction })
	return subs
}

// Tick runs one monitoring pass. It never returns an error: every failure
// mode becomes a logged line, a debounced error notification, or both.
func (s *Service) Tick(ctx context.Context) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "monitor.tick")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return
	}

	result, err := s.fetcher.Fetch(ctx, s.session.URL)
	if err != nil {
		log.Printf("fetch game %s: %v", s.session.GameID, err)
		s.dispatcher.Dispatch(ctx, s.destination, Event{
			Kind:   EventError,
			Locale: s.locale,
			Cause:  err.Error(),
		}, s.paused)
		return
	}

	if result.State != nil {
		if factions := result.State.HumanFactions(); factions != nil {
			s.roster = newRoster(factions)
		}
	}

	obs := classify(result, s.turn)
	switch obs.Change {
	case ChangeIndeterminate:
		return
	case ChangeFirstObservation:
		s.turn = TurnState{Key: obs.Key, Display: obs.Display}
		s.reminders[obs.Key] = newReminderState(result.State.TurnStartedAt(s.now()))
		s.persistLocked(ctx)
	case ChangeNewHolder:
		s.turn = TurnState{Key: obs.Key, Display: obs.Display}
		s.reminders[obs.Key] = newReminderState(result.State.TurnStartedAt(s.now()))
		s.persistLocked(ctx)
		s.dispatcher.Dispatch(ctx, s.destination, Event{
			Kind:    EventTurnChange,
			Locale:  s.locale,
			Faction: s.displayNameLocked(obs.Key),
			Handle:  s.subscriptions[obs.Key],
		}, s.paused)
	case ChangeUnchanged:
		s.evaluateRemindersLocked(ctx, obs.Key)
	}
}

func (s *Service) evaluateRemindersLocked(ctx context.Context, key string) {
	if s.paused {
		return
	}
	now := s.now()
	state := s.reminders[key]
	if state == nil {
		// Holder known but machine missing (degraded snapshot); arm fresh.
		s.reminders[key] = newReminderState(now)
		s.persistLocked(ctx)
		return
	}
	if state.repair(now) {
		s.persistLocked(ctx)
	}
	index := state.dueReminder(s.schedule, now)
	if index < 0 {
		return
	}
	state.advance(now)
	s.persistLocked(ctx)
	s.dispatcher.Dispatch(ctx, s.destination, Event{
		Kind:    EventReminder,
		Locale:  s.locale,
		Faction: s.displayNameLocked(key),
		Handle:  s.subscriptions[key],
		Index:   index,
		Elapsed: s.schedule[index],
	}, s.paused)
}

// displayNameLocked resolves a key to the best known display form: the
// roster first, the retained turn display second, the bare key last.
func (s *Service) displayNameLocked(key string) string {
	if display, ok := s.roster.Display(key); ok {
		return display
	}
	if s.turn.Key == key && s.turn.Display != "" {
		return s.turn.Display
	}
	return key
}

// persistLocked writes the current snapshot. Failures are logged and
// tolerated: the operation still completes in memory.
func (s *Service) persistLocked(ctx context.Context) {
	if err := s.snapshots.Save(ctx, s.snapshotLocked()); err != nil {
		log.Printf("persist state: %v", err)
	}
}
