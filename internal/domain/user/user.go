package user

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"golang.org/x/crypto/bcrypt"
)

// Sentinel errors for user operations.
var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("User with this email already exists")
	ErrInvalid    = errors.New("invalid user")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// User is a registered customer. PasswordHash never leaves the process.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateRequest holds registration input.
type CreateRequest struct {
	Name     string
	Email    string
	Password string
}

// ValidationError carries the user-facing reason a registration was
// rejected. It unwraps to ErrInvalid.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrInvalid }

// Validate checks required fields and the email format.
func (r CreateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" || strings.TrimSpace(r.Email) == "" || r.Password == "" {
		return &ValidationError{Message: "Name, email, and password are required"}
	}
	if !emailPattern.MatchString(r.Email) {
		return &ValidationError{Message: "Invalid email format"}
	}
	return nil
}

// Repository persists users.
type Repository interface {
	// Create inserts u, assigning ID and timestamps. Returns ErrEmailTaken
	// when the email is already registered.
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context) ([]User, error)
}

// Service implements user registration and lookup.
type Service struct {
	repo Repository
	cost int
}

// NewService returns a Service hashing passwords with the given bcrypt cost.
// A cost of zero selects bcrypt.DefaultCost.
func NewService(repo Repository, cost int) *Service {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{repo: repo, cost: cost}
}

// Register validates req, hashes the password and stores the user. Emails
// are stored lower-cased.
func (s *Service) Register(ctx context.Context, req CreateRequest) (*User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}
	u := &User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Get returns a single user.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns all users.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}
