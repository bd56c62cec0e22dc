package goal

import (
	"time"

	"github.com/m-mizutani/euonia/pkg/repository"
)

const (
	// DefaultWindowDays is used when a window query carries no usable day count
	DefaultWindowDays = 7

	// MaxWindowDays bounds window queries the same way the get_goals tool schema does
	MaxWindowDays = 365
)

// UseCase provides goal operations scoped to a single user
type UseCase struct {
	repo repository.Repository
	now  func() time.Time
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithClock replaces the time source used for createdAt, updatedAt and day buckets
func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) {
		uc.now = now
	}
}

// New creates a new goal UseCase instance
func New(repo repository.Repository, opts ...Option) *UseCase {
	uc := &UseCase{
		repo: repo,
		now:  time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}
