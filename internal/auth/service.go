// Package auth implements credential handling and session issuing:
// password verification, JWT login, the password change and 6-digit
// reset-code flows, and the startup passes that repair legacy plaintext
// passwords and seed the administrator account.
package auth

import (
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/adellanno/imob-api/internal/model"
	"github.com/adellanno/imob-api/internal/repository"
	"github.com/adellanno/imob-api/internal/utils"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong
	// password so callers cannot tell which check failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrWrongPassword is returned when the current password given to
	// a password change does not match.
	ErrWrongPassword = errors.New("current password incorrect")
	// ErrInvalidResetCode is returned when a reset code is unknown,
	// consumed or past its expiry.
	ErrInvalidResetCode = errors.New("reset code invalid or expired")
)

// resetCodeTTL is how long a generated reset code stays valid.
const resetCodeTTL = time.Hour

// defaultAdminPassword seeds the admin account; it is expected to be
// changed on first login.
const defaultAdminPassword = "admin"

// UserStore is the slice of the user repository the auth service needs.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	FindAll(ctx context.Context, includeDisabled bool) ([]model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	FindByID(ctx context.Context, id string) (model.User, error)
	UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error
	SetResetCode(ctx context.Context, id primitive.ObjectID, code string, expires time.Time) error
	FindByResetCode(ctx context.Context, email, code string, now time.Time) (model.User, error)
	ResetPassword(ctx context.Context, id primitive.ObjectID, hash string) error
}

// ResetNotifier delivers a generated reset code to the user, normally
// by publishing a mail event to the broker.
type ResetNotifier interface {
	SendResetCode(ctx context.Context, email, name, code string) error
}

// Service bundles the credential store and session issuer.
type Service struct {
	users      UserStore
	notifier   ResetNotifier
	jwtSecret  string
	ttlMin     int
	bcryptCost int
}

func NewService(users UserStore, notifier ResetNotifier, jwtSecret string, ttlMin, bcryptCost int) *Service {
	return &Service{
		users:      users,
		notifier:   notifier,
		jwtSecret:  jwtSecret,
		ttlMin:     ttlMin,
		bcryptCost: bcryptCost,
	}
}

// Authenticate validates an email/password pair and returns the user.
// Both failure modes collapse into ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (model.User, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return model.User{}, ErrInvalidCredentials
	}
	if !utils.VerifyPassword(u.Password, password) {
		return model.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// Login authenticates and issues a signed access token carrying the
// user's role claims.
func (s *Service) Login(ctx context.Context, email, password string) (model.User, utils.AccessToken, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return model.User{}, utils.AccessToken{}, err
	}
	tok, err := utils.NewAccessToken(s.jwtSecret, u.ID.Hex(), u.Email, u.Roles, s.ttlMin)
	if err != nil {
		return model.User{}, utils.AccessToken{}, err
	}
	return u, tok, nil
}

// HashPassword hashes a plaintext password with the configured cost.
func (s *Service) HashPassword(plain string) (string, error) {
	return utils.HashPassword(plain, s.bcryptCost)
}

// ChangePassword verifies the current password before storing the new
// digest.
func (s *Service) ChangePassword(ctx context.Context, id, current, newPassword string) error {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !utils.VerifyPassword(u.Password, current) {
		return ErrWrongPassword
	}
	hash, err := utils.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, u.ID, hash)
}

// ForgotPassword generates a reset code for the account and hands it to
// the notifier. Unknown emails are silently ignored so the endpoint
// cannot be used to enumerate accounts.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil
	}
	code, err := utils.NewResetCode()
	if err != nil {
		return err
	}
	expires := time.Now().UTC().Add(resetCodeTTL)
	if err := s.users.SetResetCode(ctx, u.ID, code, expires); err != nil {
		return err
	}
	if err := s.notifier.SendResetCode(ctx, u.Email, u.Name, code); err != nil {
		// Delivery problems must not leak to the caller; the code is
		// stored and support can resend it.
		log.Printf("auth: reset code delivery for %s failed: %v", u.Email, err)
	}
	return nil
}

// ResetPassword consumes a pending reset code and stores the new
// password. The code is cleared on success and cannot be replayed.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	u, err := s.users.FindByResetCode(ctx, email, code, time.Now().UTC())
	if err != nil {
		return ErrInvalidResetCode
	}
	hash, err := utils.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	return s.users.ResetPassword(ctx, u.ID, hash)
}

// MigratePlaintextPasswords is a one-time idempotent startup pass that
// re-hashes any user whose stored password is not a bcrypt digest.
// Legacy records were written as plaintext before hashing was enforced.
func (s *Service) MigratePlaintextPasswords(ctx context.Context) error {
	users, err := s.users.FindAll(ctx, true)
	if err != nil {
		return err
	}
	for _, u := range users {
		if u.Password == "" || utils.IsBcryptHash(u.Password) {
			continue
		}
		hash, err := utils.HashPassword(u.Password, s.bcryptCost)
		if err != nil {
			return err
		}
		if err := s.users.UpdatePassword(ctx, u.ID, hash); err != nil {
			return err
		}
		log.Printf("auth: re-hashed plaintext password for %s", u.Email)
	}
	return nil
}

// EnsureAdmin seeds the protected administrator account when absent.
// Only a confirmed miss triggers seeding; a failing lookup is surfaced
// instead of risking a duplicate insert.
func (s *Service) EnsureAdmin(ctx context.Context) error {
	_, err := s.users.FindByEmail(ctx, model.AdminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return err
	}
	hash, err := utils.HashPassword(defaultAdminPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	admin := &model.User{
		Name:     "admin",
		Email:    model.AdminEmail,
		Password: hash,
		Roles:    []string{model.RoleAdmin},
		Cargo:    "Administrador",
		CPF:      "000.000.000-00",
		Phone:    "00000-0000",
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return err
	}
	log.Printf("auth: seeded admin user %s", model.AdminEmail)
	return nil
}
