package authclient

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"sync"
)

// Backend is the subset of Client the Provider needs.
type Backend interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*User, error)
}

type Status int

const (
	// StatusUnknown means the initial session lookup has not answered yet.
	StatusUnknown Status = iota
	StatusAnonymous
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusAnonymous:
		return "anonymous"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// State is a snapshot of the provider's view of the session.
type State struct {
	Status Status
	User   *User
}

// Decision is the outcome of a route guard.
type Decision int

const (
	DecisionPending Decision = iota
	DecisionAllow
	DecisionRedirectLogin
	DecisionForbidden
)

// Provider caches the current user for one client session. Each Provider is
// independent; create one per signed-in context instead of sharing a global.
type Provider struct {
	backend Backend

	mu      sync.Mutex
	user    *User
	loading bool
	// gen increments on every Login and Logout so a slower Load cannot
	// overwrite a newer answer.
	gen uint64

	once    sync.Once
	loadErr error
}

func NewProvider(backend Backend) *Provider {
	return &Provider{backend: backend, loading: true}
}

// Load asks the server for the current user. Only the first call does any
// work; later calls return its result.
func (p *Provider) Load(ctx context.Context) error {
	p.once.Do(func() {
		p.mu.Lock()
		gen := p.gen
		p.mu.Unlock()

		user, err := p.backend.Me(ctx)

		p.mu.Lock()
		defer p.mu.Unlock()
		var apiErr *APIError
		if err != nil && !(errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized) {
			p.loadErr = err
		}
		if p.gen != gen {
			return
		}
		p.loading = false
		if err != nil {
			p.user = nil
			return
		}
		p.user = user
	})
	return p.loadErr
}

// State never reports StatusAnonymous before the server has answered.
func (p *Provider) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.loading:
		return State{Status: StatusUnknown}
	case p.user == nil:
		return State{Status: StatusAnonymous}
	default:
		u := *p.user
		return State{Status: StatusAuthenticated, User: &u}
	}
}

// Login authenticates and caches the returned user without another Me call.
func (p *Provider) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	resp, err := p.backend.Login(ctx, req)
	if err != nil {
		return nil, err
	}

	u := resp.User
	if u.Role == "" {
		u.Role = resp.Role
	}
	p.mu.Lock()
	p.gen++
	p.user = &u
	p.loading = false
	p.mu.Unlock()
	return resp, nil
}

// Logout forgets the user before calling the server, so the cache is clear
// even if the request fails. The request's error is still returned.
func (p *Provider) Logout(ctx context.Context) error {
	p.mu.Lock()
	p.gen++
	p.user = nil
	p.loading = false
	p.mu.Unlock()

	return p.backend.Logout(ctx)
}

// Guard decides whether a route limited to roles may render. No roles means
// any signed-in user is allowed.
func (p *Provider) Guard(roles ...Role) Decision {
	st := p.State()
	switch {
	case st.Status == StatusUnknown:
		return DecisionPending
	case st.Status == StatusAnonymous:
		return DecisionRedirectLogin
	case len(roles) == 0 || slices.Contains(roles, st.User.Role):
		return DecisionAllow
	default:
		return DecisionForbidden
	}
}
