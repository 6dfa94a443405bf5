package authsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultInterval is how often Run re-validates the stored session.
const DefaultInterval = 60 * time.Second

type Option func(*Synchronizer)

func WithInterval(d time.Duration) Option {
	return func(s *Synchronizer) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Synchronizer) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(s *Synchronizer) { s.log = log }
}

func WithAuthState(state *AuthState) Option {
	return func(s *Synchronizer) {
		if state != nil {
			s.state = state
		}
	}
}

// WithAuthRequiredHandler sets the callback run after an "auth:required"
// event has been handled, typically to open a login prompt.
func WithAuthRequiredHandler(fn func(redirectURL string)) Option {
	return func(s *Synchronizer) { s.onAuthRequired = fn }
}

// Synchronizer reconciles AuthState with the session record in a Store.
type Synchronizer struct {
	store Store
	bus   *Bus
	state *AuthState

	interval       time.Duration
	now            func() time.Time
	log            zerolog.Logger
	onAuthRequired func(redirectURL string)

	// serializes passes that read or write the session
	mu sync.Mutex
}

func New(store Store, bus *Bus, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		store:    store,
		bus:      bus,
		state:    NewAuthState(),
		interval: DefaultInterval,
		now:      time.Now,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Synchronizer) State() *AuthState { return s.state }

// Synchronize re-validates the stored session. A valid record becomes the
// authenticated state; a malformed or expired one is purged. When no record
// is stored the state is reset and storage is left untouched.
func (s *Synchronizer) Synchronize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok, err := s.store.Get(ctx, SessionKey)
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}
	if !ok {
		if s.state.Load().IsAuthenticated {
			s.log.Info().Msg("session removed from storage")
		}
		s.state.Reset()
		return nil
	}

	rec, err := s.validRecord(raw)
	if err != nil {
		s.log.Info().Err(err).Msg("purging stored session")
		return s.logout(ctx)
	}

	s.state.Store(stateFromRecord(rec))
	return nil
}

// Logout removes the stored session and any pending redirect and resets the
// state. Calling it repeatedly has the same effect as calling it once.
func (s *Synchronizer) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logout(ctx)
}

func (s *Synchronizer) logout(ctx context.Context) error {
	s.state.Reset()

	var errs []error
	if err := s.store.Delete(ctx, SessionKey); err != nil {
		errs = append(errs, err)
	}
	if err := s.store.Delete(ctx, RedirectKey); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Login persists rec and marks the state authenticated. A token that is not
// currently valid is rejected with ErrInvalidToken and nothing is stored.
func (s *Synchronizer) Login(ctx context.Context, rec Record) error {
	if !IsTokenCurrentlyValid(rec.Token, s.now()) {
		return ErrInvalidToken
	}
	raw, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Set(ctx, SessionKey, raw); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	s.state.Store(stateFromRecord(rec))
	return nil
}

// Current reports whether the client is signed in. The in-memory state wins
// when it is authenticated; otherwise the stored record is read and
// validated without changing any state.
func (s *Synchronizer) Current(ctx context.Context) (bool, *User) {
	if st := s.state.Load(); st.IsAuthenticated {
		return true, st.User()
	}

	raw, ok, err := s.store.Get(ctx, SessionKey)
	if err != nil || !ok {
		return false, nil
	}
	rec, err := s.validRecord(raw)
	if err != nil {
		return false, nil
	}
	return true, rec.User()
}

// ConsumeRedirect returns the path saved by an "auth:required" event and
// removes it. An empty string means nothing was pending.
func (s *Synchronizer) ConsumeRedirect(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok, err := s.store.Get(ctx, RedirectKey)
	if err != nil {
		return "", fmt.Errorf("read redirect: %w", err)
	}
	if !ok {
		return "", nil
	}
	if err := s.store.Delete(ctx, RedirectKey); err != nil {
		return "", fmt.Errorf("delete redirect: %w", err)
	}
	return target, nil
}

// Run synchronizes once, then keeps the state current until ctx is done. It
// reacts to "auth:expired", "auth:required" and "storage" events on the bus,
// forwards store change notifications onto the bus and re-checks every
// interval. Subscriptions and timers are released before it returns.
func (s *Synchronizer) Run(ctx context.Context) error {
	if err := s.Synchronize(ctx); err != nil {
		s.log.Warn().Err(err).Msg("initial session sync failed")
	}

	unsubscribe := []func(){
		s.bus.Subscribe(TopicExpired, func(Event) {
			if err := s.Logout(ctx); err != nil {
				s.log.Error().Err(err).Msg("logout after expiry failed")
			}
		}),
		s.bus.Subscribe(TopicStorage, func(e Event) {
			if e.Key != "" && e.Key != SessionKey {
				return
			}
			s.syncLogged(ctx, "storage")
		}),
		s.bus.Subscribe(TopicRequired, func(e Event) {
			s.handleAuthRequired(ctx, e)
		}),
	}
	defer func() {
		for _, u := range unsubscribe {
			u()
		}
	}()

	changes := make(chan string, 16)
	stopWatch, err := s.store.Watch(ctx, func(key string) {
		select {
		case changes <- key:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return fmt.Errorf("watch storage: %w", err)
	}
	defer stopWatch()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.syncLogged(ctx, "interval")
		case key := <-changes:
			s.bus.Publish(Event{Topic: TopicStorage, Key: key})
		}
	}
}

func (s *Synchronizer) syncLogged(ctx context.Context, trigger string) {
	if err := s.Synchronize(ctx); err != nil {
		s.log.Warn().Err(err).Str("trigger", trigger).Msg("session sync failed")
	}
}

func (s *Synchronizer) handleAuthRequired(ctx context.Context, e Event) {
	if e.RedirectURL != "" {
		if err := s.store.Set(ctx, RedirectKey, e.RedirectURL); err != nil {
			s.log.Error().Err(err).Msg("saving redirect target failed")
		}
	}
	if s.onAuthRequired != nil {
		s.onAuthRequired(e.RedirectURL)
	}
}

func (s *Synchronizer) validRecord(raw string) (Record, error) {
	rec, err := decodeRecord(raw)
	if err != nil {
		return Record{}, err
	}
	if !IsTokenCurrentlyValid(rec.Token, s.now()) {
		return Record{}, ErrInvalidToken
	}
	return rec, nil
}
