package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mrlokans/heartcheck/internal/database/users"
	"github.com/mrlokans/heartcheck/internal/entities"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// CredentialStore is the persistence the service needs. users.Repository
// implements it.
type CredentialStore interface {
	Insert(ctx context.Context, fullName, email, passwordHash string) (*entities.User, error)
	FindByEmail(ctx context.Context, email string) (*entities.User, error)
	FindByID(ctx context.Context, id uint) (*entities.User, error)
	UpdateFullName(ctx context.Context, id uint, fullName string) (*entities.User, error)
	UpdatePasswordHash(ctx context.Context, id uint, passwordHash string) error
}

var _ CredentialStore = (*users.Repository)(nil)

// Session is the result of a successful login or signup.
type Session struct {
	Token     string
	TokenType string
	ExpiresAt time.Time
	User      *entities.User
}

// Service handles registration, login and resolution of the current user.
type Service struct {
	store  CredentialStore
	hasher *Hasher
	tokens *TokenService
}

// NewService creates a new authentication service.
func NewService(store CredentialStore, hasher *Hasher, tokens *TokenService) *Service {
	return &Service{
		store:  store,
		hasher: hasher,
		tokens: tokens,
	}
}

// Register creates a user. It does not issue a token; see IssueSession.
func (s *Service) Register(ctx context.Context, fullName, email, password string) (*entities.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = users.NormalizeEmail(email)

	if fullName == "" {
		return nil, ErrFullNameRequired
	}
	// RFC 5321 limit is 254
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return nil, ErrEmailInvalid
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return nil, err
	}

	user, err := s.store.Insert(ctx, fullName, email, passwordHash)
	if err != nil {
		if errors.Is(err, users.ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	log.Printf("[AUTH] registered user id=%d", user.ID)
	return user, nil
}

// Login checks credentials and issues a token. Unknown email, wrong
// password and an unreadable stored hash all return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			s.hasher.VerifyDummy(ctx, password)
			log.Printf("[AUTH] login rejected: unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	ok, err := s.hasher.Verify(ctx, password, user.PasswordHash)
	if err != nil {
		if errors.Is(err, ErrInvalidHashFormat) {
			log.Printf("[AUTH] login rejected: user id=%d has a malformed password hash", user.ID)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !ok {
		log.Printf("[AUTH] login rejected: wrong password for user id=%d", user.ID)
		return nil, ErrInvalidCredentials
	}

	return s.IssueSession(user)
}

// IssueSession mints an access token for user.
func (s *Service) IssueSession(user *entities.User) (*Session, error) {
	token, expiresAt, err := s.tokens.IssueDefault(subjectFor(user))
	if err != nil {
		return nil, err
	}
	return &Session{
		Token:     token,
		TokenType: TokenType,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

// ResolveCurrentUser verifies token and loads the user it names.
func (s *Service) ResolveCurrentUser(ctx context.Context, token string) (*entities.User, error) {
	subject, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	id, err := strconv.ParseUint(subject, 10, 64)
	if err != nil || id == 0 {
		return nil, ErrUnknownSubject
	}

	user, err := s.store.FindByID(ctx, uint(id))
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, ErrUnknownSubject
		}
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	return user, nil
}

// UpdateProfile changes the display name of a user.
func (s *Service) UpdateProfile(ctx context.Context, userID uint, fullName string) (*entities.User, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, ErrFullNameRequired
	}

	user, err := s.store.UpdateFullName(ctx, userID, fullName)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, ErrUnknownSubject
		}
		return nil, err
	}
	return user, nil
}

// ChangePassword updates a user's password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return ErrUnknownSubject
		}
		return err
	}

	ok, err := s.hasher.Verify(ctx, oldPassword, user.PasswordHash)
	if err != nil && !errors.Is(err, ErrInvalidHashFormat) {
		return err
	}
	if !ok {
		return ErrInvalidCredentials
	}

	if err := validatePassword(newPassword); err != nil {
		return err
	}

	newHash, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return err
	}

	return s.store.UpdatePasswordHash(ctx, userID, newHash)
}

func validatePassword(password string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > maxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

func subjectFor(user *entities.User) string {
	return strconv.FormatUint(uint64(user.ID), 10)
}
