package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dimitrije/unity-admin/internal/models"
	"github.com/dimitrije/unity-admin/internal/services"
	"github.com/google/uuid"
)

// ErrSessionUnresolved means the session is live but its profile could not be loaded.
var ErrSessionUnresolved = errors.New("session profile could not be resolved")

type Resolver interface {
	Resolve(ctx context.Context, user models.SessionUser, isExplicitLogin bool) *models.Profile
}

// State is what the rest of the application sees for one session.
type State struct {
	User    models.SessionUser
	Role    string
	Profile *models.Profile
}

func (s State) IsAdmin() bool {
	return s.Role == models.RoleAdmin
}

// Actor returns the feed actor for a resolved state.
func (s State) Actor() models.Actor {
	if s.Profile == nil {
		return models.Actor{UserID: s.User.ID, Email: s.User.Email, Role: s.Role}
	}
	return models.ActorFromProfile(s.Profile)
}

type LoginResult struct {
	Tokens *services.TokenPair
	State  State
}

type entry struct {
	state    State
	ended    bool
	storedAt time.Time
}

// Context publishes the current user, role and profile per session and keeps
// them in sync with store events.
type Context struct {
	store    *Store
	resolver Resolver
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu          sync.Mutex
	entries     map[uuid.UUID]*entry
	unsubscribe func()
}

func NewContext(store *Store, resolver Resolver, ttl time.Duration, logger *slog.Logger) *Context {
	return &Context{
		store:    store,
		resolver: resolver,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
		entries:  make(map[uuid.UUID]*entry),
	}
}

// Start subscribes to store events. Calling it again is a no-op.
func (c *Context) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unsubscribe != nil {
		return
	}
	c.unsubscribe = c.store.OnSessionChange(c.handleEvent)
}

// Close unsubscribes and drops all published state.
func (c *Context) Close() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.entries = make(map[uuid.UUID]*entry)
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (c *Context) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	res, err := c.store.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}

	state, ok := c.published(res.User.SessionID)
	if !ok {
		state = c.resolve(ctx, res.User, true)
	}
	return &LoginResult{Tokens: res.Tokens, State: state}, nil
}

func (c *Context) Logout(ctx context.Context, user models.SessionUser) error {
	if err := c.store.SignOut(ctx, user); err != nil {
		return err
	}
	c.end(user.SessionID)
	return nil
}

// Current returns the state of a session, resolving it when nothing fresh is published.
func (c *Context) Current(ctx context.Context, sessionID uuid.UUID) (*State, error) {
	c.mu.Lock()
	e, ok := c.entries[sessionID]
	if ok && e.ended {
		c.mu.Unlock()
		return nil, ErrSessionEnded
	}
	if ok && c.fresh(e) && e.state.Profile != nil {
		state := e.state
		c.mu.Unlock()
		return &state, nil
	}
	c.mu.Unlock()

	user, err := c.store.Lookup(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionEnded) {
			c.end(sessionID)
		}
		return nil, err
	}

	state := c.resolve(ctx, *user, false)
	if state.Profile == nil {
		return nil, ErrSessionUnresolved
	}
	return &state, nil
}

func (c *Context) handleEvent(ctx context.Context, ev Event) {
	switch ev.Type {
	case SignedIn, Refreshed:
		c.resolve(ctx, ev.User, ev.IsExplicitLogin)
	case SignedOut:
		c.end(ev.User.SessionID)
	}
}

// resolve loads the profile and publishes it unless the session ended meanwhile.
func (c *Context) resolve(ctx context.Context, user models.SessionUser, isExplicitLogin bool) State {
	profile := c.resolver.Resolve(ctx, user, isExplicitLogin)

	state := State{User: user, Profile: profile}
	if profile != nil {
		state.Role = profile.Role
	} else {
		c.logger.Warn("profile unresolved", "user_id", user.ID, "session_id", user.SessionID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[user.SessionID]; ok && e.ended {
		return state
	}
	c.entries[user.SessionID] = &entry{state: state, storedAt: c.now()}
	c.prune()
	return state
}

func (c *Context) published(sessionID uuid.UUID) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[sessionID]
	if !ok || e.ended {
		return State{}, false
	}
	return e.state, true
}

func (c *Context) end(sessionID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[sessionID] = &entry{ended: true, storedAt: c.now()}
}

func (c *Context) fresh(e *entry) bool {
	return c.ttl <= 0 || c.now().Sub(e.storedAt) < c.ttl
}

// prune drops expired entries. Callers hold c.mu.
func (c *Context) prune() {
	if c.ttl <= 0 {
		return
	}
	for id, e := range c.entries {
		if !c.fresh(e) {
			delete(c.entries, id)
		}
	}
}
