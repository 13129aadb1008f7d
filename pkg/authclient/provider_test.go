package authclient

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	meCalls   atomic.Int32
	meStarted chan struct{}
	meRelease chan struct{}
	meUser    *User
	meErr     error
	loginResp *LoginResponse
	loginErr  error
	logoutErr error
}

func (f *fakeBackend) Me(context.Context) (*User, error) {
	f.meCalls.Add(1)
	if f.meStarted != nil {
		close(f.meStarted)
	}
	if f.meRelease != nil {
		<-f.meRelease
	}
	return f.meUser, f.meErr
}

func (f *fakeBackend) Login(context.Context, LoginRequest) (*LoginResponse, error) {
	return f.loginResp, f.loginErr
}

func (f *fakeBackend) Logout(context.Context) error { return f.logoutErr }

func TestProvider_UnknownUntilMeAnswers(t *testing.T) {
	backend := &fakeBackend{
		meRelease: make(chan struct{}),
		meUser:    &User{ID: "u-1", Role: RoleDriver},
	}
	p := NewProvider(backend)

	assert.Equal(t, StatusUnknown, p.State().Status)
	assert.Equal(t, DecisionPending, p.Guard(RoleDriver))

	done := make(chan error)
	go func() { done <- p.Load(context.Background()) }()

	assert.Equal(t, StatusUnknown, p.State().Status, "must not report anonymous while loading")
	close(backend.meRelease)
	require.NoError(t, <-done)

	st := p.State()
	assert.Equal(t, StatusAuthenticated, st.Status)
	assert.Equal(t, "u-1", st.User.ID)
	assert.Equal(t, DecisionAllow, p.Guard(RoleDriver))
	assert.Equal(t, DecisionForbidden, p.Guard(RoleRetailer))
}

func TestProvider_LoadCallsMeOnce(t *testing.T) {
	backend := &fakeBackend{meErr: &APIError{Status: http.StatusUnauthorized, Message: "not authenticated"}}
	p := NewProvider(backend)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, p.Load(context.Background()))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), backend.meCalls.Load())
	assert.Equal(t, StatusAnonymous, p.State().Status)
	assert.Equal(t, DecisionRedirectLogin, p.Guard())
}

func TestProvider_LoadReportsTransportErrors(t *testing.T) {
	boom := errors.New("connection refused")
	p := NewProvider(&fakeBackend{meErr: boom})

	assert.ErrorIs(t, p.Load(context.Background()), boom)
	assert.Equal(t, StatusAnonymous, p.State().Status)
}

func TestProvider_LoginWinsOverSlowLoad(t *testing.T) {
	backend := &fakeBackend{
		meStarted: make(chan struct{}),
		meRelease: make(chan struct{}),
		meErr:     &APIError{Status: http.StatusUnauthorized},
		loginResp: &LoginResponse{Role: RoleRetailer, Redirect: "/retailer", User: User{ID: "u-2", Role: RoleRetailer}},
	}
	p := NewProvider(backend)

	done := make(chan error)
	go func() { done <- p.Load(context.Background()) }()
	<-backend.meStarted

	resp, err := p.Login(context.Background(), LoginRequest{Email: "r@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "/retailer", resp.Redirect)
	assert.Equal(t, StatusAuthenticated, p.State().Status)

	// The earlier "not signed in" answer arrives late and must be ignored.
	close(backend.meRelease)
	require.NoError(t, <-done)

	st := p.State()
	require.Equal(t, StatusAuthenticated, st.Status)
	assert.Equal(t, "u-2", st.User.ID)
	assert.Equal(t, int32(1), backend.meCalls.Load())
}

func TestProvider_FailedLoginKeepsState(t *testing.T) {
	backend := &fakeBackend{
		meErr:    &APIError{Status: http.StatusUnauthorized},
		loginErr: &APIError{Status: http.StatusUnauthorized, Message: "invalid credentials"},
	}
	p := NewProvider(backend)
	require.NoError(t, p.Load(context.Background()))

	_, err := p.Login(context.Background(), LoginRequest{Email: "a@x.com", Password: "nope"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "invalid credentials", apiErr.Message)
	assert.Equal(t, StatusAnonymous, p.State().Status)
}

func TestProvider_LogoutClearsEvenOnFailure(t *testing.T) {
	boom := errors.New("network down")
	backend := &fakeBackend{
		meUser:    &User{ID: "u-1", Role: RoleCustomer},
		logoutErr: boom,
	}
	p := NewProvider(backend)
	require.NoError(t, p.Load(context.Background()))
	require.Equal(t, StatusAuthenticated, p.State().Status)

	assert.ErrorIs(t, p.Logout(context.Background()), boom)
	assert.Equal(t, StatusAnonymous, p.State().Status)
	assert.Equal(t, DecisionRedirectLogin, p.Guard(RoleCustomer))
}

func TestProvider_StateReturnsCopy(t *testing.T) {
	p := NewProvider(&fakeBackend{meUser: &User{ID: "u-1", Role: RoleCustomer}})
	require.NoError(t, p.Load(context.Background()))

	st := p.State()
	st.User.Role = RoleRetailer
	assert.Equal(t, RoleCustomer, p.State().User.Role)
}
