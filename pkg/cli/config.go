package cli

import (
	"context"
	"io"
	"time"

	"github.com/m-mizutani/euonia/pkg/adapter"
	"github.com/m-mizutani/euonia/pkg/auth"
	"github.com/m-mizutani/euonia/pkg/repository"
	"github.com/m-mizutani/euonia/pkg/tool"
	goaltool "github.com/m-mizutani/euonia/pkg/tool/goal"
	"github.com/m-mizutani/euonia/pkg/usecase/chat"
	goaluc "github.com/m-mizutani/euonia/pkg/usecase/goal"
	"github.com/m-mizutani/euonia/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

const (
	repositoryFirestore = "firestore"
	repositoryMemory    = "memory"
)

// config holds configuration values
type config struct {
	logLevel string

	// Repository
	repository string
	project    string
	database   string

	// Adapters
	geminiAPIKey   string
	geminiProject  string
	geminiLocation string
	geminiModel    string
	archiveBucket  string
	bqDataset      string
	bqTable        string

	// Conversation
	personaFile string
	maxRounds   int64
	turnTimeout time.Duration

	sessionSecret string
}

// loggingFlags returns the log level flag
func loggingFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Aliases:     []string{"l"},
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("EUONIA_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
	}
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	flags := loggingFlags(cfg)
	return append(flags,
		&cli.StringFlag{
			Name:        "repository",
			Usage:       "Storage backend (firestore, memory)",
			Value:       repositoryFirestore,
			Sources:     cli.EnvVars("EUONIA_REPOSITORY"),
			Destination: &cfg.repository,
		},
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
	)
}

// llmFlags returns flags for model and conversation configuration
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-api-key",
			Usage:       "Gemini API key. Vertex AI is used when empty",
			Sources:     cli.EnvVars("GEMINI_API_KEY"),
			Destination: &cfg.geminiAPIKey,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini on Vertex AI",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Default generative model",
			Value:       "gemini-2.5-flash",
			Sources:     cli.EnvVars("GEMINI_MODEL"),
			Destination: &cfg.geminiModel,
		},
		&cli.StringFlag{
			Name:        "persona-file",
			Usage:       "Path to a persona YAML file replacing the built-in persona",
			Sources:     cli.EnvVars("EUONIA_PERSONA_FILE"),
			Destination: &cfg.personaFile,
		},
		&cli.IntFlag{
			Name:        "max-rounds",
			Usage:       "Maximum tool rounds per turn",
			Value:       chat.DefaultMaxRounds,
			Sources:     cli.EnvVars("EUONIA_MAX_ROUNDS"),
			Destination: &cfg.maxRounds,
		},
		&cli.DurationFlag{
			Name:        "turn-timeout",
			Usage:       "Time limit for one conversation turn",
			Value:       chat.DefaultTurnTimeout,
			Sources:     cli.EnvVars("EUONIA_TURN_TIMEOUT"),
			Destination: &cfg.turnTimeout,
		},
		&cli.StringFlag{
			Name:        "archive-bucket",
			Usage:       "Cloud Storage bucket for transcript archives (optional)",
			Sources:     cli.EnvVars("EUONIA_ARCHIVE_BUCKET"),
			Destination: &cfg.archiveBucket,
		},
		&cli.StringFlag{
			Name:        "bigquery-dataset",
			Usage:       "BigQuery dataset for turn logs (optional)",
			Sources:     cli.EnvVars("EUONIA_BIGQUERY_DATASET"),
			Destination: &cfg.bqDataset,
		},
		&cli.StringFlag{
			Name:        "bigquery-table",
			Usage:       "BigQuery table for turn logs",
			Value:       "turn_logs",
			Sources:     cli.EnvVars("EUONIA_BIGQUERY_TABLE"),
			Destination: &cfg.bqTable,
		},
	}
}

// sessionFlags returns flags for session token handling
func sessionFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "session-secret",
			Usage:       "HMAC secret for session tokens",
			Sources:     cli.EnvVars("EUONIA_SESSION_SECRET"),
			Destination: &cfg.sessionSecret,
		},
	}
}

// configureLogger installs the logger for the selected level and returns ctx carrying it
func (cfg *config) configureLogger(ctx context.Context, w io.Writer) context.Context {
	logger := logging.New(cfg.logLevel, w)
	logging.SetDefault(logger)
	return logging.With(ctx, logger)
}

// newRepository creates a new repository instance. The returned closer releases it.
func (cfg *config) newRepository(ctx context.Context) (repository.Repository, func(), error) {
	switch cfg.repository {
	case repositoryMemory:
		logging.From(ctx).Warn("using in-memory repository, data is lost on exit")
		return repository.NewMemory(), func() {}, nil

	case repositoryFirestore, "":
		if cfg.project == "" {
			return nil, nil, goerr.New("project is required")
		}
		if cfg.database == "" {
			return nil, nil, goerr.New("database is required")
		}

		repo, err := repository.New(ctx, cfg.project, cfg.database)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to create repository")
		}
		return repo, func() {
			if err := repo.Close(); err != nil {
				logging.From(ctx).Warn("failed to close repository", "error", err)
			}
		}, nil

	default:
		return nil, nil, goerr.New("unknown repository", goerr.V("repository", cfg.repository))
	}
}

// newGemini creates a new Gemini adapter instance
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	opts := []adapter.GeminiOption{adapter.WithGenerativeModel(cfg.geminiModel)}

	if cfg.geminiAPIKey != "" {
		return adapter.NewGeminiWithAPIKey(ctx, cfg.geminiAPIKey, opts...)
	}

	if cfg.geminiProject == "" {
		return nil, goerr.New("gemini-api-key or gemini-project is required")
	}
	if cfg.geminiLocation == "" {
		return nil, goerr.New("gemini-location is required")
	}
	return adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation, opts...)
}

// newStorage creates the archive storage, or nil when no bucket is configured
func (cfg *config) newStorage(ctx context.Context) (adapter.Storage, error) {
	if cfg.archiveBucket == "" {
		return nil, nil
	}

	storage, err := adapter.NewStorage(ctx, cfg.archiveBucket)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage")
	}
	return storage, nil
}

// newBigQuery creates the turn log sink, or nil when no dataset is configured
func (cfg *config) newBigQuery(ctx context.Context) (adapter.BigQuery, error) {
	if cfg.bqDataset == "" {
		return nil, nil
	}
	if cfg.project == "" {
		return nil, goerr.New("project is required for BigQuery turn logs")
	}

	bq, err := adapter.NewBigQuery(ctx, cfg.project, cfg.bqDataset, cfg.bqTable)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create BigQuery client")
	}
	return bq, nil
}

func (cfg *config) newVerifier() (*auth.Verifier, error) {
	if cfg.sessionSecret == "" {
		return nil, goerr.New("session-secret is required")
	}
	return auth.New(cfg.sessionSecret)
}

func newGoalTool(goals *goaluc.UseCase) (*goaltool.Tool, error) {
	t, err := goaltool.New(goals)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build goal tools")
	}
	return t, nil
}

// newChatUseCase wires the conversation loop with every configured adapter
func (cfg *config) newChatUseCase(ctx context.Context, repo repository.Repository, goals *goaluc.UseCase) (*chat.UseCase, error) {
	gemini, err := cfg.newGemini(ctx)
	if err != nil {
		return nil, err
	}

	goalTool, err := newGoalTool(goals)
	if err != nil {
		return nil, err
	}

	opts := []chat.Option{
		chat.WithMaxRounds(int(cfg.maxRounds)),
		chat.WithTurnTimeout(cfg.turnTimeout),
	}

	if cfg.personaFile != "" {
		persona, err := chat.LoadPersona(cfg.personaFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, chat.WithPersona(persona))
	}

	storage, err := cfg.newStorage(ctx)
	if err != nil {
		return nil, err
	}
	if storage != nil {
		opts = append(opts, chat.WithStorage(storage))
	}

	bq, err := cfg.newBigQuery(ctx)
	if err != nil {
		return nil, err
	}
	if bq != nil {
		opts = append(opts, chat.WithBigQuery(bq))
	}

	registry := tool.New(goalTool)
	logging.From(ctx).Debug("conversation loop configured",
		"model", gemini.Model(),
		"tools", registry.Names(),
		"max_rounds", cfg.maxRounds,
	)
	return chat.New(repo, gemini, registry, goals, opts...), nil
}
