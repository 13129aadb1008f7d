package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/lastmile/delivery-api/internal/core/domain"
	"github.com/lastmile/delivery-api/internal/core/ports"
	"github.com/lastmile/delivery-api/internal/pkg/password"
	"github.com/lastmile/delivery-api/internal/pkg/token"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type stubUserRepo struct {
	mu      sync.Mutex
	users   map[string]*domain.User
	seq     int
	findErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[user.Email]; exists {
		return nil, domain.ErrUserExists
	}
	r.seq++
	copy := cloneUser(user)
	copy.ID = "user-" + strconv.Itoa(r.seq)
	r.users[copy.Email] = copy
	return cloneUser(copy), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	if u, ok := r.users[email]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

type stubDenylist struct {
	revoked map[string]time.Duration
	checks  int
	err     error
}

func newStubDenylist() *stubDenylist {
	return &stubDenylist{revoked: make(map[string]time.Duration)}
}

func (d *stubDenylist) Revoke(_ context.Context, id string, ttl time.Duration) error {
	if d.err != nil {
		return d.err
	}
	d.revoked[id] = ttl
	return nil
}

func (d *stubDenylist) IsRevoked(_ context.Context, id string) (bool, error) {
	d.checks++
	if d.err != nil {
		return false, d.err
	}
	_, ok := d.revoked[id]
	return ok, nil
}

func newTestAuthService(t *testing.T, repo ports.UserRepository, opts ...AuthOption) *AuthService {
	t.Helper()
	codec, err := token.NewCodec(testSecret)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	return NewAuthService(repo, password.NewHasher(bcrypt.MinCost), codec, time.Hour, opts...)
}

func signupInput() ports.SignupInput {
	return ports.SignupInput{
		FullName: "Ana Customer",
		Email:    "A@X.com ",
		Password: "secret1",
		Role:     domain.RoleCustomer,
	}
}

func TestAuthService_Signup_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(t, repo)

	user, err := svc.Signup(context.Background(), signupInput())
	if err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}
	if user.Email != "a@x.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if user.PasswordHash == "secret1" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret1")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if user.Role != domain.RoleCustomer {
		t.Fatalf("unexpected role: %s", user.Role)
	}
	if user.CreatedAt.IsZero() {
		t.Fatalf("expected created timestamp")
	}
}

func TestAuthService_Signup_Validation(t *testing.T) {
	svc := newTestAuthService(t, newStubUserRepo())

	cases := map[string]func(*ports.SignupInput){
		"missing name":   func(in *ports.SignupInput) { in.FullName = "  " },
		"missing email":  func(in *ports.SignupInput) { in.Email = "" },
		"missing pass":   func(in *ports.SignupInput) { in.Password = "" },
		"missing role":   func(in *ports.SignupInput) { in.Role = "" },
		"unknown role":   func(in *ports.SignupInput) { in.Role = "admin" },
		"short password": func(in *ports.SignupInput) { in.Password = "12345" },
		"long password":  func(in *ports.SignupInput) { in.Password = strings.Repeat("p", password.MaxLength+1) },
	}
	for name, mutate := range cases {
		in := signupInput()
		mutate(&in)
		if _, err := svc.Signup(context.Background(), in); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("%s: expected ErrValidation, got %v", name, err)
		}
	}
}

func TestAuthService_Signup_Duplicate(t *testing.T) {
	svc := newTestAuthService(t, newStubUserRepo())

	if _, err := svc.Signup(context.Background(), signupInput()); err != nil {
		t.Fatalf("first signup: %v", err)
	}
	in := signupInput()
	in.Email = "a@x.com"
	in.Role = domain.RoleDriver
	if _, err := svc.Signup(context.Background(), in); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthService_Signup_ConcurrentSameEmail(t *testing.T) {
	svc := newTestAuthService(t, newStubUserRepo())

	const n = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		exists  int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Signup(context.Background(), signupInput())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, domain.ErrUserExists):
				exists++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if created != 1 || exists != n-1 {
		t.Fatalf("expected exactly one account, got created=%d exists=%d", created, exists)
	}
}

func TestAuthService_Signup_LookupFailure(t *testing.T) {
	repo := newStubUserRepo()
	repo.findErr = errors.New("connection reset")
	svc := newTestAuthService(t, repo)

	_, err := svc.Signup(context.Background(), signupInput())
	if err == nil || errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	svc := newTestAuthService(t, newStubUserRepo())
	if _, err := svc.Signup(context.Background(), signupInput()); err != nil {
		t.Fatalf("signup: %v", err)
	}

	res, err := svc.Login(context.Background(), ports.LoginInput{Email: " a@x.COM", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if res.Token == "" {
		t.Fatalf("expected token")
	}
	if res.User.Role != domain.RoleCustomer {
		t.Fatalf("unexpected role %s", res.User.Role)
	}
	if until := time.Until(res.ExpiresAt); until <= 59*time.Minute || until > time.Hour {
		t.Fatalf("unexpected expiry in %s", until)
	}

	sess, err := svc.CurrentUser(context.Background(), res.Token)
	if err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
	if sess.UserID != res.User.ID || sess.Email != "a@x.com" || sess.Role != domain.RoleCustomer {
		t.Fatalf("unexpected session claims %+v", sess.Claims)
	}
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	svc := newTestAuthService(t, newStubUserRepo())
	if _, err := svc.Signup(context.Background(), signupInput()); err != nil {
		t.Fatalf("signup: %v", err)
	}

	cases := map[string]ports.LoginInput{
		"wrong password": {Email: "a@x.com", Password: "wrong-pass"},
		"unknown email":  {Email: "nobody@x.com", Password: "secret1"},
		"role mismatch":  {Email: "a@x.com", Password: "secret1", Role: domain.RoleDriver},
	}
	for name, in := range cases {
		if _, err := svc.Login(context.Background(), in); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("%s: expected ErrInvalidCredentials, got %v", name, err)
		}
	}
}

func TestAuthService_Login_Validation(t *testing.T) {
	svc := newTestAuthService(t, newStubUserRepo())
	if _, err := svc.Login(context.Background(), ports.LoginInput{Email: "a@x.com"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAuthService_CurrentUser_Rejects(t *testing.T) {
	svc := newTestAuthService(t, newStubUserRepo())

	if _, err := svc.CurrentUser(context.Background(), ""); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for empty token, got %v", err)
	}
	_, err := svc.CurrentUser(context.Background(), "garbage")
	if !errors.Is(err, domain.ErrUnauthenticated) || !errors.Is(err, domain.ErrTokenMalformed) {
		t.Fatalf("expected unauthenticated malformed token, got %v", err)
	}
}

func TestAuthService_Logout_WithoutDenylistIsNoop(t *testing.T) {
	svc := newTestAuthService(t, newStubUserRepo())
	if _, err := svc.Signup(context.Background(), signupInput()); err != nil {
		t.Fatalf("signup: %v", err)
	}
	res, err := svc.Login(context.Background(), ports.LoginInput{Email: "a@x.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	sess, err := svc.Logout(context.Background(), res.Token)
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	if sess == nil || sess.Email != "a@x.com" {
		t.Fatalf("expected verified session from logout, got %+v", sess)
	}
	if _, err := svc.CurrentUser(context.Background(), res.Token); err != nil {
		t.Fatalf("token stays valid without revocation, got %v", err)
	}
}

func TestAuthService_Logout_RevokesSession(t *testing.T) {
	deny := newStubDenylist()
	svc := newTestAuthService(t, newStubUserRepo(), WithDenylist(deny))
	if _, err := svc.Signup(context.Background(), signupInput()); err != nil {
		t.Fatalf("signup: %v", err)
	}
	res, err := svc.Login(context.Background(), ports.LoginInput{Email: "a@x.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	sess, err := svc.Logout(context.Background(), res.Token)
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	if sess == nil || sess.UserID != res.User.ID {
		t.Fatalf("expected verified session from logout, got %+v", sess)
	}
	if deny.checks != 0 {
		t.Fatalf("logout must not consult the denylist, got %d lookups", deny.checks)
	}
	if len(deny.revoked) != 1 {
		t.Fatalf("expected one revoked session, got %d", len(deny.revoked))
	}
	for _, ttl := range deny.revoked {
		if ttl <= 0 || ttl > time.Hour {
			t.Fatalf("unexpected revocation ttl %s", ttl)
		}
	}

	_, err = svc.CurrentUser(context.Background(), res.Token)
	if !errors.Is(err, domain.ErrUnauthenticated) || !errors.Is(err, domain.ErrSessionRevoked) {
		t.Fatalf("expected revoked session, got %v", err)
	}

	// Garbage tokens have nothing to revoke.
	if sess, err := svc.Logout(context.Background(), "garbage"); err != nil || sess != nil {
		t.Fatalf("logout garbage: %+v %v", sess, err)
	}
}

func TestAuthService_DenylistFailureFailsClosed(t *testing.T) {
	deny := newStubDenylist()
	svc := newTestAuthService(t, newStubUserRepo(), WithDenylist(deny))
	if _, err := svc.Signup(context.Background(), signupInput()); err != nil {
		t.Fatalf("signup: %v", err)
	}
	res, err := svc.Login(context.Background(), ports.LoginInput{Email: "a@x.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	deny.err = errors.New("redis down")
	_, err = svc.CurrentUser(context.Background(), res.Token)
	if err == nil {
		t.Fatalf("expected error when revocation store is unavailable")
	}
	if errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("store failure must surface as an internal error, got %v", err)
	}
	sess, err := svc.Logout(context.Background(), res.Token)
	if err == nil {
		t.Fatalf("expected revoke failure to be reported")
	}
	if sess == nil {
		t.Fatalf("expected the verified session alongside the revoke failure")
	}
}
