package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/ecalab/internal/automaton"
	"github.com/nvandessel/ecalab/internal/classifier"
	"github.com/nvandessel/ecalab/internal/config"
	"github.com/nvandessel/ecalab/internal/logging"
	"github.com/nvandessel/ecalab/internal/pathutil"
	"github.com/nvandessel/ecalab/internal/ratelimit"
	"github.com/nvandessel/ecalab/internal/store"
)

// Server wraps the MCP SDK server and exposes ecalab's engine as tools.
type Server struct {
	server            *sdk.Server
	settings          *config.EcalabConfig
	boundary          automaton.Boundary
	classifier        *classifier.Memoized
	store             store.ResultStore
	ownsStore         bool
	toolLimiters      ratelimit.ToolLimiters
	allowedExportDirs []string
	auditLogger       *AuditLogger
	logger            *slog.Logger
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "ecalab")
	Version string // Server version

	// Settings supplies simulation and classifier defaults. Nil uses config.Default().
	Settings *config.EcalabConfig

	// Store records runs and memoizes classifications. Nil opens the store
	// described by Settings, or an in-memory store when it is disabled.
	// A store passed in is not closed by the server.
	Store store.ResultStore

	// DataDir holds the audit log. Empty disables auditing.
	DataDir string

	// ExportDirs are allowed export destinations in addition to ~/.ecalab/exports.
	ExportDirs []string

	Logger    *slog.Logger
	Decisions *logging.DecisionLogger
}

// NewServer creates a new MCP server with the ecalab tools registered.
func NewServer(cfg *Config) (*Server, error) {
	settings := cfg.Settings
	if settings == nil {
		settings = config.Default()
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	boundary, err := automaton.ParseBoundary(settings.Simulation.Boundary)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	allowed, err := pathutil.AllowedExportDirsWith(cfg.ExportDirs...)
	if err != nil {
		return nil, fmt.Errorf("failed to determine allowed export dirs: %w", err)
	}

	resultStore, owns := cfg.Store, false
	if resultStore == nil {
		owns = true
		if settings.Store.Enabled {
			sqlStore, err := store.NewSQLiteStore(settings.Store.Path)
			if err != nil {
				return nil, fmt.Errorf("failed to open result store: %w", err)
			}
			resultStore = sqlStore
		} else {
			resultStore = store.NewInMemoryStore()
		}
	}

	c := classifier.New(classifier.Config{
		Size:          settings.Classifier.AnalysisSize,
		Generations:   settings.Classifier.AnalysisGenerations,
		UseLiterature: settings.Classifier.UseLiterature,
		Workers:       settings.Classifier.Workers,
		Logger:        logger,
		Decisions:     cfg.Decisions,
	})

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			logger.Debug("mcp client initialized")
		},
	})

	s := &Server{
		server:            mcpServer,
		settings:          settings,
		boundary:          boundary,
		classifier:        classifier.NewMemoized(c, resultStore),
		store:             resultStore,
		ownsStore:         owns,
		toolLimiters:      ratelimit.NewToolLimiters(),
		allowedExportDirs: allowed,
		logger:            logger,
	}
	if cfg.DataDir != "" {
		s.auditLogger = NewAuditLogger(cfg.DataDir, logger)
	}

	s.registerTools()
	return s, nil
}

// Run serves MCP over stdio until the client disconnects, the context is
// cancelled or the process is interrupted.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	s.logger.Info("mcp server listening on stdio")
	err := s.server.Run(ctx, &sdk.StdioTransport{})

	if closeErr := s.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

// Close releases the audit log and, if the server opened it, the store.
func (s *Server) Close() error {
	var firstErr error
	if err := s.auditLogger.Close(); err != nil {
		firstErr = err
	}
	if s.ownsStore && s.store != nil {
		if err := s.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.store = nil
	}
	return firstErr
}
