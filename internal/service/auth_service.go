package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"carrental/internal/auth"
	"carrental/internal/db"
	"carrental/internal/repository"
)

type UserStore interface {
	CreateUser(ctx context.Context, u *db.User) error
	GetUserByID(ctx context.Context, id int64) (*db.User, error)
	GetUserByUsername(ctx context.Context, username string) (*db.User, error)
	GetUserByVerificationCode(ctx context.Context, code string) (*db.User, error)
	MarkEmailVerified(ctx context.Context, id int64) error
	DeleteExpiredUnverified(ctx context.Context, now time.Time) (int64, error)
}

// TokenRevoker denies a session token before it expires.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
}

type AuthService struct {
	tx              Transactor
	users           UserStore
	tokens          *auth.TokenIssuer
	revoker         TokenRevoker
	sender          *SenderService
	logger          *zerolog.Logger
	verificationTTL time.Duration
	bcryptCost      int
	now             func() time.Time
}

// NewAuthService builds the account service. revoker may be nil, in which
// case logout only ends the session on the client.
func NewAuthService(tx Transactor, users UserStore, tokens *auth.TokenIssuer, revoker TokenRevoker,
	sender *SenderService, verificationTTL time.Duration, logger *zerolog.Logger) *AuthService {
	return &AuthService{
		tx:              tx,
		users:           users,
		tokens:          tokens,
		revoker:         revoker,
		sender:          sender,
		logger:          logger,
		verificationTTL: verificationTTL,
		bcryptCost:      bcrypt.DefaultCost,
		now:             time.Now,
	}
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Username  string    `json:"username"`
	Role      auth.Role `json:"role"`
}

func newVerificationCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Register creates an unverified customer and queues the verification email
// in the same transaction.
func (s *AuthService) Register(ctx context.Context, username, password, email string) (*db.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	u := &db.User{
		Username:              username,
		PasswordHash:          string(hash),
		Role:                  string(auth.RoleCustomer),
		Email:                 email,
		VerificationCode:      sql.NullString{String: newVerificationCode(), Valid: true},
		VerificationExpiresAt: sql.NullTime{Time: s.now().UTC().Add(s.verificationTTL), Valid: true},
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.users.CreateUser(ctx, u); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrUsernameTaken
			}
			return err
		}
		return s.sender.EnqueueVerification(ctx, *u)
	})
	if err != nil {
		return nil, err
	}

	s.sender.Trigger()
	s.logger.Info().Int64("user_id", u.ID).Str("username", u.Username).Msg("user registered")
	return u, nil
}

func (s *AuthService) Verify(ctx context.Context, code string) error {
	if strings.TrimSpace(code) == "" {
		return ErrInvalidCode
	}
	u, err := s.users.GetUserByVerificationCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrCodeNotFound
	}
	if err != nil {
		return err
	}
	if u.VerificationExpiresAt.Valid && s.now().After(u.VerificationExpiresAt.Time) {
		return ErrCodeExpired
	}
	if err := s.users.MarkEmailVerified(ctx, u.ID); err != nil {
		return err
	}
	s.logger.Info().Int64("user_id", u.ID).Msg("email verified")
	return nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	u, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if u.VerificationState() != db.Verified {
		return nil, ErrEmailNotVerified
	}

	role, err := auth.ParseRole(u.Role)
	if err != nil {
		return nil, err
	}
	token, id, err := s.tokens.Issue(u.ID, u.Username, role)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: id.ExpiresAt, Username: u.Username, Role: role}, nil
}

func (s *AuthService) Logout(ctx context.Context, who auth.Identity) error {
	if s.revoker == nil {
		return nil
	}
	return s.revoker.Revoke(ctx, who.TokenID, who.ExpiresAt)
}

func (s *AuthService) Me(ctx context.Context, who auth.Identity) (*db.User, error) {
	u, err := s.users.GetUserByID(ctx, who.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	return u, err
}

// EnsureAdmin creates the administrator account when it does not exist yet.
// It reports whether an account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password, email string) (bool, error) {
	if username == "" || password == "" {
		return false, nil
	}
	_, err := s.users.GetUserByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return false, err
	}
	u := &db.User{
		Username:      username,
		PasswordHash:  string(hash),
		Role:          string(auth.RoleAdmin),
		Email:         email,
		EmailVerified: true,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return false, nil
		}
		return false, err
	}
	s.logger.Info().Str("username", username).Msg("admin account created")
	return true, nil
}

// PurgeExpiredRegistrations deletes users who never verified their email
// before the code expired.
func (s *AuthService) PurgeExpiredRegistrations(ctx context.Context) (int64, error) {
	return s.users.DeleteExpiredUnverified(ctx, s.now().UTC())
}
