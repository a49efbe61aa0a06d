package customer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"honeyhive/internal/docstore"
	"honeyhive/internal/domain"
)

const customersCollection = "customers"

var (
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates the provided token could not be validated.
	ErrInvalidToken = errors.New("invalid token")
)

// AuthListener receives auth-state changes for a device: a user id on
// login, nil on logout.
type AuthListener func(ctx context.Context, deviceID string, userID *string)

// Service handles signup/login flows and fans auth-state changes out to
// subscribers.
type Service struct {
	docs        docstore.Store
	tokens      *tokenManager
	accessTTL   time.Duration
	passwordMin int

	subsMu sync.RWMutex
	subs   []AuthListener
}

// New creates a Service with sane defaults.
func New(docs docstore.Store) *Service {
	return &Service{
		docs:        docs,
		tokens:      newTokenManager(),
		accessTTL:   48 * time.Hour,
		passwordMin: 8,
	}
}

// Subscribe registers an auth-state listener. Listeners run synchronously
// on the login/logout call.
func (s *Service) Subscribe(fn AuthListener) {
	s.subsMu.Lock()
	s.subs = append(s.subs, fn)
	s.subsMu.Unlock()
}

func (s *Service) notify(ctx context.Context, deviceID string, userID *string) {
	s.subsMu.RLock()
	subs := make([]AuthListener, len(s.subs))
	copy(subs, s.subs)
	s.subsMu.RUnlock()
	for _, fn := range subs {
		fn(ctx, deviceID, userID)
	}
}

// SignupInput captures fields expected by the signup endpoint.
type SignupInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Signup registers a new customer.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*domain.Customer, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" {
		return nil, errors.New("email required")
	}
	password := strings.TrimSpace(in.Password)
	if len(password) < s.passwordMin {
		return nil, errors.New("password too short")
	}

	existing, err := s.docs.QueryByField(ctx, customersCollection, "email", docstore.OpEqual, email)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, domain.ErrAlreadyExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	c := domain.Customer{
		Email:        email,
		PasswordHash: string(hashed),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		CreatedAt:    time.Now().UTC(),
	}
	id, err := s.docs.Create(ctx, customersCollection, map[string]interface{}{
		"email":        c.Email,
		"passwordHash": c.PasswordHash,
		"firstName":    c.FirstName,
		"lastName":     c.LastName,
		"createdAt":    c.CreatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, err
	}
	c.ID = id
	return &c, nil
}

// Login validates credentials, issues an access token and signals the
// auth-state change for the calling device.
func (s *Service) Login(ctx context.Context, deviceID, email, password string) (string, *domain.Customer, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	records, err := s.docs.QueryByField(ctx, customersCollection, "email", docstore.OpEqual, email)
	if err != nil {
		return "", nil, err
	}
	if len(records) == 0 {
		return "", nil, ErrInvalidCredentials
	}
	c := customerFromRecord(records[0])
	if bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(c.ID, s.accessTTL)
	if err != nil {
		return "", nil, err
	}
	s.notify(ctx, deviceID, &c.ID)
	return token, &c, nil
}

// Logout revokes the token and signals the device's reversion to guest.
func (s *Service) Logout(ctx context.Context, deviceID, token string) {
	s.tokens.Revoke(token)
	s.notify(ctx, deviceID, nil)
}

// Authenticate resolves an access token to a user id.
func (s *Service) Authenticate(token string) (string, error) {
	userID, ok := s.tokens.Validate(token)
	if !ok {
		return "", ErrInvalidToken
	}
	return userID, nil
}

// NewDeviceID issues a stable identifier for an anonymous device.
func (s *Service) NewDeviceID() string {
	return uuid.NewString()
}

func customerFromRecord(rec docstore.Record) domain.Customer {
	c := domain.Customer{ID: rec.ID}
	if v, ok := rec.Data["email"].(string); ok {
		c.Email = v
	}
	if v, ok := rec.Data["passwordHash"].(string); ok {
		c.PasswordHash = v
	}
	if v, ok := rec.Data["firstName"].(string); ok {
		c.FirstName = v
	}
	if v, ok := rec.Data["lastName"].(string); ok {
		c.LastName = v
	}
	if raw, ok := rec.Data["createdAt"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			c.CreatedAt = t
		}
	}
	return c
}
