// Package authctx maintains the dashboard client's session state: the signed-in
// user, their resolved profile, and a loading flag. It is an owned state
// container handed to UI consumers by the gateway, not a package-level
// singleton, so lifecycle (init and teardown) stays explicit.
package authctx

import (
	"context"
	"sync"

	profiledomain "policysonar/backend/internal/profile/domain"
)

// EventKind identifies a backend auth-state change.
type EventKind string

const (
	EventSignedIn       EventKind = "signed_in"
	EventSignedOut      EventKind = "signed_out"
	EventTokenRefreshed EventKind = "token_refreshed"
)

// Event is a backend auth-state-change notification.
type Event struct {
	Kind   EventKind
	UserID string
}

// User is the backend's account view of the signed-in user.
type User struct {
	ID    string
	Email string
}

// Backend is the auth provider the context delegates to.
type Backend interface {
	SignIn(ctx context.Context, email, password string) (*User, error)
	SignOut(ctx context.Context) error
	CurrentUser(ctx context.Context) (*User, error)
	FetchProfile(ctx context.Context, userID string) (*profiledomain.Profile, error)
	// Subscribe registers a listener for auth-state changes and returns an
	// unsubscribe handle. The listener fires on sign-in, sign-out, and token
	// refresh.
	Subscribe(listener func(Event)) (unsubscribe func())
}

// Snapshot is a point-in-time copy of the context state.
type Snapshot struct {
	User      *User
	Profile   *profiledomain.Profile
	IsLoading bool
}

// Context tracks the current user and profile for the lifetime of a page
// session. Writes come from init, explicit calls, and backend notifications;
// those paths are not serialized against each other, so ordering between a
// manual action and a notification follows last-write-wins. The state itself
// is mutex-guarded, so reads are always consistent.
type Context struct {
	backend Backend

	mu        sync.Mutex
	user      *User
	profile   *profiledomain.Profile
	isLoading bool
	listeners map[int]func(Snapshot)
	nextID    int

	unsubscribe func()
}

// New returns a Context bound to backend, kicks off the initial async load,
// and subscribes to backend auth-state changes. Call Close when the consuming
// page/session ends.
func New(backend Backend) *Context {
	c := &Context{
		backend:   backend,
		isLoading: true,
		listeners: map[int]func(Snapshot){},
	}
	c.unsubscribe = backend.Subscribe(c.onAuthStateChange)
	go c.initialLoad()
	return c
}

// Close releases the backend subscription. The context remains readable but no
// longer reacts to backend events.
func (c *Context) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

// Snapshot returns a copy of the current state.
func (c *Context) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{User: c.user, Profile: c.profile, IsLoading: c.isLoading}
}

// Subscribe registers a listener notified with a snapshot after every state
// change and returns an unsubscribe handle.
func (c *Context) Subscribe(listener func(Snapshot)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = listener
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// SignIn delegates the credential check to the backend. On success the user
// and re-resolved profile replace the local state; on failure the backend
// error propagates unchanged and local state is untouched.
func (c *Context) SignIn(ctx context.Context, email, password string) error {
	user, err := c.backend.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	profile := c.resolveProfile(ctx, user)
	c.setState(user, profile, false)
	return nil
}

// SignOut delegates to the backend and clears local state unconditionally,
// whether or not the backend call succeeded.
func (c *Context) SignOut(ctx context.Context) error {
	err := c.backend.SignOut(ctx)
	c.setState(nil, nil, false)
	return err
}

// HasRole reports whether the loaded profile carries role. False when no
// profile is loaded.
func (c *Context) HasRole(role string) bool {
	c.mu.Lock()
	profile := c.profile
	c.mu.Unlock()
	if profile == nil {
		return false
	}
	return profile.HasRole(role)
}

// RefreshSession re-fetches the current user and profile on demand.
func (c *Context) RefreshSession(ctx context.Context) error {
	user, err := c.backend.CurrentUser(ctx)
	if err != nil {
		return err
	}
	profile := c.resolveProfile(ctx, user)
	c.setState(user, profile, false)
	return nil
}

func (c *Context) initialLoad() {
	ctx := context.Background()
	user, err := c.backend.CurrentUser(ctx)
	if err != nil {
		c.setState(nil, nil, false)
		return
	}
	c.setState(user, c.resolveProfile(ctx, user), false)
}

func (c *Context) onAuthStateChange(ev Event) {
	ctx := context.Background()
	switch ev.Kind {
	case EventSignedOut:
		c.setState(nil, nil, false)
	default:
		user, err := c.backend.CurrentUser(ctx)
		if err != nil {
			c.setState(nil, nil, false)
			return
		}
		c.setState(user, c.resolveProfile(ctx, user), false)
	}
}

func (c *Context) resolveProfile(ctx context.Context, user *User) *profiledomain.Profile {
	if user == nil {
		return nil
	}
	profile, err := c.backend.FetchProfile(ctx, user.ID)
	if err != nil {
		return nil
	}
	return profile
}

func (c *Context) setState(user *User, profile *profiledomain.Profile, loading bool) {
	c.mu.Lock()
	c.user = user
	c.profile = profile
	c.isLoading = loading
	snapshot := Snapshot{User: user, Profile: profile, IsLoading: loading}
	listeners := make([]func(Snapshot), 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.mu.Unlock()
	for _, l := range listeners {
		l(snapshot)
	}
}
