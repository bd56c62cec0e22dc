package chat

import (
	"time"

	"github.com/m-mizutani/euonia/pkg/adapter"
	"github.com/m-mizutani/euonia/pkg/repository"
	"github.com/m-mizutani/euonia/pkg/tool"
	goaluc "github.com/m-mizutani/euonia/pkg/usecase/goal"
)

const (
	DefaultMaxRounds   = 5
	DefaultTurnTimeout = 2 * time.Minute

	// fallbackResponse is returned when the model finishes without any text
	fallbackResponse = "Request completed."
)

// Sampling holds the generation parameters sent with every model call
type Sampling struct {
	Temperature     float32
	TopP            float32
	MaxOutputTokens int32
}

// DefaultSampling returns the parameters the assistant was tuned with
func DefaultSampling() Sampling {
	return Sampling{
		Temperature:     0.6,
		TopP:            0.9,
		MaxOutputTokens: 4096,
	}
}

// UseCase runs conversation turns: it feeds the transcript to the model,
// executes requested tools and persists every step.
type UseCase struct {
	repo     repository.Repository
	gemini   adapter.Gemini
	registry *tool.Registry
	goals    *goaluc.UseCase

	storage  adapter.Storage
	bigquery adapter.BigQuery

	persona     *Persona
	sampling    Sampling
	maxRounds   int
	turnTimeout time.Duration
	now         func() time.Time

	locks *chatLocks
}

type Option func(*UseCase)

// WithStorage archives each completed transcript to Cloud Storage
func WithStorage(s adapter.Storage) Option {
	return func(u *UseCase) {
		u.storage = s
	}
}

// WithBigQuery records a turn log row for each completed turn
func WithBigQuery(bq adapter.BigQuery) Option {
	return func(u *UseCase) {
		u.bigquery = bq
	}
}

func WithPersona(p *Persona) Option {
	return func(u *UseCase) {
		u.persona = p
	}
}

func WithSampling(s Sampling) Option {
	return func(u *UseCase) {
		u.sampling = s
	}
}

// WithMaxRounds limits tool rounds per turn. Values below 1 keep the default.
func WithMaxRounds(n int) Option {
	return func(u *UseCase) {
		if n > 0 {
			u.maxRounds = n
		}
	}
}

// WithTurnTimeout bounds a whole turn. Zero disables the limit.
func WithTurnTimeout(d time.Duration) Option {
	return func(u *UseCase) {
		u.turnTimeout = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(u *UseCase) {
		u.now = now
	}
}

// New creates a chat use case
func New(repo repository.Repository, gemini adapter.Gemini, registry *tool.Registry, goals *goaluc.UseCase, opts ...Option) *UseCase {
	u := &UseCase{
		repo:        repo,
		gemini:      gemini,
		registry:    registry,
		goals:       goals,
		persona:     DefaultPersona(),
		sampling:    DefaultSampling(),
		maxRounds:   DefaultMaxRounds,
		turnTimeout: DefaultTurnTimeout,
		now:         time.Now,
		locks:       newChatLocks(),
	}

	for _, opt := range opts {
		opt(u)
	}

	return u
}
