package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/adellanno/imob-api/internal/model"
	"github.com/adellanno/imob-api/internal/repository"
	"github.com/adellanno/imob-api/internal/utils"
)

// memUserStore is an in-memory UserStore backing the service tests.
type memUserStore struct {
	users map[string]*model.User // keyed by hex id
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: map[string]*model.User{}}
}

func (m *memUserStore) add(u model.User) *model.User {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.Email = strings.ToLower(u.Email)
	stored := u
	m.users[u.ID.Hex()] = &stored
	return &stored
}

func (m *memUserStore) Create(_ context.Context, u *model.User) error {
	for _, ex := range m.users {
		if ex.Email == strings.ToLower(u.Email) {
			return repository.ErrEmailExists
		}
	}
	u.ID = primitive.NewObjectID()
	m.add(*u)
	return nil
}

func (m *memUserStore) FindAll(_ context.Context, includeDisabled bool) ([]model.User, error) {
	out := []model.User{}
	for _, u := range m.users {
		if !includeDisabled && u.IsDisabled {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

func (m *memUserStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range m.users {
		if u.Email == strings.ToLower(email) {
			return *u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (m *memUserStore) FindByID(_ context.Context, id string) (model.User, error) {
	if u, ok := m.users[id]; ok {
		return *u, nil
	}
	return model.User{}, repository.ErrUserNotFound
}

func (m *memUserStore) UpdatePassword(_ context.Context, id primitive.ObjectID, hash string) error {
	u, ok := m.users[id.Hex()]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Password = hash
	return nil
}

func (m *memUserStore) SetResetCode(_ context.Context, id primitive.ObjectID, code string, expires time.Time) error {
	u, ok := m.users[id.Hex()]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordResetCode = code
	u.ResetPasswordExpires = &expires
	return nil
}

func (m *memUserStore) FindByResetCode(_ context.Context, email, code string, now time.Time) (model.User, error) {
	for _, u := range m.users {
		if u.Email != strings.ToLower(email) || u.PasswordResetCode == "" {
			continue
		}
		if u.PasswordResetCode == code && u.ResetPasswordExpires != nil && u.ResetPasswordExpires.After(now) {
			return *u, nil
		}
	}
	return model.User{}, repository.ErrResetCodeInvalid
}

func (m *memUserStore) ResetPassword(_ context.Context, id primitive.ObjectID, hash string) error {
	u, ok := m.users[id.Hex()]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Password = hash
	u.PasswordResetCode = ""
	u.ResetPasswordExpires = nil
	return nil
}

// memNotifier records reset code deliveries.
type memNotifier struct {
	email, name, code string
	calls             int
	fail              bool
}

func (n *memNotifier) SendResetCode(_ context.Context, email, name, code string) error {
	n.calls++
	n.email, n.name, n.code = email, name, code
	if n.fail {
		return errors.New("broker down")
	}
	return nil
}

func newTestService(store UserStore, notifier ResetNotifier) *Service {
	return NewService(store, notifier, "test-secret", 60, bcrypt.MinCost)
}

func mustHash(t *testing.T, plain string) string {
	t.Helper()
	h, err := utils.HashPassword(plain, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return h
}

func TestAuthenticate(t *testing.T) {
	store := newMemUserStore()
	store.add(model.User{Email: "joao@example.com", Password: mustHash(t, "senha123")})
	svc := newTestService(store, &memNotifier{})
	ctx := context.Background()

	cases := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"valid", "joao@example.com", "senha123", nil},
		{"case-insensitive email", "JOAO@Example.COM", "senha123", nil},
		{"wrong password", "joao@example.com", "nope", ErrInvalidCredentials},
		{"unknown email", "maria@example.com", "senha123", ErrInvalidCredentials},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := svc.Authenticate(ctx, c.email, c.password)
			if !errors.Is(err, c.wantErr) {
				t.Errorf("Authenticate(%q) err = %v, want %v", c.email, err, c.wantErr)
			}
		})
	}
}

func TestLoginIssuesToken(t *testing.T) {
	store := newMemUserStore()
	store.add(model.User{
		Email:    "joao@example.com",
		Name:     "João",
		Password: mustHash(t, "senha123"),
		Roles:    []string{model.RoleUser},
	})
	svc := newTestService(store, &memNotifier{})

	u, tok, err := svc.Login(context.Background(), "joao@example.com", "senha123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if u.Email != "joao@example.com" {
		t.Errorf("user email = %q", u.Email)
	}
	if tok.Token == "" {
		t.Error("no access token issued")
	}
	if !tok.Exp.After(time.Now()) {
		t.Error("token already expired")
	}
}

func TestChangePassword(t *testing.T) {
	store := newMemUserStore()
	u := store.add(model.User{Email: "joao@example.com", Password: mustHash(t, "old-pass")})
	svc := newTestService(store, &memNotifier{})
	ctx := context.Background()

	if err := svc.ChangePassword(ctx, u.ID.Hex(), "wrong", "new-pass"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("wrong current password: err = %v, want ErrWrongPassword", err)
	}
	if err := svc.ChangePassword(ctx, u.ID.Hex(), "old-pass", "new-pass"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "joao@example.com", "new-pass"); err != nil {
		t.Errorf("new password rejected after change: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "joao@example.com", "old-pass"); err == nil {
		t.Error("old password still accepted after change")
	}
}

func TestForgotPassword(t *testing.T) {
	store := newMemUserStore()
	u := store.add(model.User{Email: "joao@example.com", Name: "João", Password: mustHash(t, "x")})
	notifier := &memNotifier{}
	svc := newTestService(store, notifier)
	ctx := context.Background()

	// Unknown accounts answer success and nothing is sent, so the
	// endpoint cannot confirm which emails exist.
	if err := svc.ForgotPassword(ctx, "ghost@example.com"); err != nil {
		t.Fatalf("unknown email: %v", err)
	}
	if notifier.calls != 0 {
		t.Fatal("notifier called for unknown email")
	}

	if err := svc.ForgotPassword(ctx, "joao@example.com"); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	stored := store.users[u.ID.Hex()]
	if len(stored.PasswordResetCode) != 6 {
		t.Fatalf("stored code %q is not 6 digits", stored.PasswordResetCode)
	}
	if notifier.code != stored.PasswordResetCode {
		t.Errorf("notifier got code %q, stored %q", notifier.code, stored.PasswordResetCode)
	}
	if notifier.email != "joao@example.com" || notifier.name != "João" {
		t.Errorf("notifier addressed to %q/%q", notifier.email, notifier.name)
	}
	if stored.ResetPasswordExpires == nil {
		t.Fatal("no expiry stored")
	}
	until := time.Until(*stored.ResetPasswordExpires)
	if until < 59*time.Minute || until > 61*time.Minute {
		t.Errorf("expiry %v not about an hour away", until)
	}
}

func TestForgotPasswordNotifierFailureIsSwallowed(t *testing.T) {
	store := newMemUserStore()
	u := store.add(model.User{Email: "joao@example.com", Password: mustHash(t, "x")})
	svc := newTestService(store, &memNotifier{fail: true})

	if err := svc.ForgotPassword(context.Background(), "joao@example.com"); err != nil {
		t.Fatalf("delivery failure surfaced to caller: %v", err)
	}
	if store.users[u.ID.Hex()].PasswordResetCode == "" {
		t.Error("code not stored despite delivery failure")
	}
}

func TestResetPassword(t *testing.T) {
	store := newMemUserStore()
	notifier := &memNotifier{}
	svc := newTestService(store, notifier)
	ctx := context.Background()
	u := store.add(model.User{Email: "joao@example.com", Password: mustHash(t, "old")})

	if err := svc.ForgotPassword(ctx, "joao@example.com"); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	code := notifier.code

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	if err := svc.ResetPassword(ctx, "joao@example.com", wrong, "hacked"); !errors.Is(err, ErrInvalidResetCode) {
		t.Fatalf("wrong code: err = %v, want ErrInvalidResetCode", err)
	}
	if err := svc.ResetPassword(ctx, "joao@example.com", code, "fresh-pass"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "joao@example.com", "fresh-pass"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
	// The code is single use.
	if err := svc.ResetPassword(ctx, "joao@example.com", code, "again"); !errors.Is(err, ErrInvalidResetCode) {
		t.Errorf("replayed code: err = %v, want ErrInvalidResetCode", err)
	}
	if store.users[u.ID.Hex()].PasswordResetCode != "" {
		t.Error("code not cleared after use")
	}
}

func TestResetPasswordExpiredCode(t *testing.T) {
	store := newMemUserStore()
	svc := newTestService(store, &memNotifier{})
	u := store.add(model.User{Email: "joao@example.com", Password: mustHash(t, "old")})

	past := time.Now().UTC().Add(-time.Minute)
	if err := store.SetResetCode(context.Background(), u.ID, "123456", past); err != nil {
		t.Fatal(err)
	}
	err := svc.ResetPassword(context.Background(), "joao@example.com", "123456", "new")
	if !errors.Is(err, ErrInvalidResetCode) {
		t.Errorf("expired code: err = %v, want ErrInvalidResetCode", err)
	}
}

func TestMigratePlaintextPasswords(t *testing.T) {
	store := newMemUserStore()
	legacy := store.add(model.User{Email: "legacy@example.com", Password: "plaintext"})
	hashed := store.add(model.User{Email: "ok@example.com", Password: mustHash(t, "fine")})
	empty := store.add(model.User{Email: "empty@example.com"})
	svc := newTestService(store, &memNotifier{})

	if err := svc.MigratePlaintextPasswords(context.Background()); err != nil {
		t.Fatalf("MigratePlaintextPasswords: %v", err)
	}
	if !utils.IsBcryptHash(store.users[legacy.ID.Hex()].Password) {
		t.Error("plaintext password not re-hashed")
	}
	if !utils.VerifyPassword(store.users[legacy.ID.Hex()].Password, "plaintext") {
		t.Error("re-hashed password does not verify against the original value")
	}
	if store.users[hashed.ID.Hex()].Password != hashed.Password {
		t.Error("already hashed password was touched")
	}
	if store.users[empty.ID.Hex()].Password != "" {
		t.Error("empty password was touched")
	}
}

func TestEnsureAdmin(t *testing.T) {
	store := newMemUserStore()
	svc := newTestService(store, &memNotifier{})
	ctx := context.Background()

	if err := svc.EnsureAdmin(ctx); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	admin, err := store.FindByEmail(ctx, model.AdminEmail)
	if err != nil {
		t.Fatalf("admin not created: %v", err)
	}
	if len(admin.Roles) != 1 || admin.Roles[0] != model.RoleAdmin {
		t.Errorf("admin roles = %v", admin.Roles)
	}
	if !utils.VerifyPassword(admin.Password, "admin") {
		t.Error("admin password not the documented default")
	}
	if admin.Cargo != "Administrador" {
		t.Errorf("admin cargo = %q", admin.Cargo)
	}

	// Idempotent: a second run does not duplicate or reset the account.
	if err := svc.EnsureAdmin(ctx); err != nil {
		t.Fatalf("second EnsureAdmin: %v", err)
	}
	all, _ := store.FindAll(ctx, true)
	if len(all) != 1 {
		t.Errorf("expected one user after reseed, got %d", len(all))
	}
}

// brokenLookupStore simulates a store whose email lookups fail for
// reasons other than absence.
type brokenLookupStore struct {
	*memUserStore
	created int
}

func (s *brokenLookupStore) FindByEmail(context.Context, string) (model.User, error) {
	return model.User{}, errors.New("connection reset")
}

func (s *brokenLookupStore) Create(ctx context.Context, u *model.User) error {
	s.created++
	return s.memUserStore.Create(ctx, u)
}

func TestEnsureAdminSurfacesLookupFailure(t *testing.T) {
	store := &brokenLookupStore{memUserStore: newMemUserStore()}
	svc := newTestService(store, &memNotifier{})

	if err := svc.EnsureAdmin(context.Background()); err == nil {
		t.Fatal("lookup failure did not surface")
	}
	if store.created != 0 {
		t.Errorf("seeding attempted %d creates despite the lookup failing", store.created)
	}
}
