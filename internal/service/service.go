// Package service assembles the application components from configuration.
package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Emilianodz/multiagent-orch-system/internal/agent"
	"github.com/Emilianodz/multiagent-orch-system/internal/audit"
	"github.com/Emilianodz/multiagent-orch-system/internal/classifier"
	"github.com/Emilianodz/multiagent-orch-system/internal/config"
	"github.com/Emilianodz/multiagent-orch-system/internal/conversation"
	"github.com/Emilianodz/multiagent-orch-system/internal/llm"
	natsclient "github.com/Emilianodz/multiagent-orch-system/internal/nats"
	"github.com/Emilianodz/multiagent-orch-system/internal/orchestrator"
	"github.com/Emilianodz/multiagent-orch-system/internal/router"
	"github.com/Emilianodz/multiagent-orch-system/internal/tools"
	"github.com/Emilianodz/multiagent-orch-system/pkg/logger"
)

// OrchestratorLibrary is the search library consulted by the router.
const OrchestratorLibrary = "doc_orch"

// Services holds the wired application components.
type Services struct {
	NATS         *natsclient.Client
	Store        conversation.Store
	Audit        *audit.Logger
	Router       *router.Router
	AgentOne     *agent.Agent
	AgentTwo     *agent.Agent
	Orchestrator *orchestrator.Orchestrator

	logger *logger.Logger
}

// New connects the backends named by cfg and wires every component.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Services, error) {
	s := &Services{logger: log}

	if cfg.NATSURL != "" {
		nc, err := natsclient.Connect(ctx, natsclient.Config{
			Name:     "multiagent-orch-system",
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log.Named("nats"))
		if err != nil {
			return nil, err
		}
		s.NATS = nc
	}

	store, err := openStore(ctx, cfg, s.NATS, log)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Store = store

	client, err := llm.NewClient(llm.Provider(cfg.LLMProvider), llm.Options{
		APIKey:  apiKey(cfg),
		BaseURL: cfg.OpenAIBaseURL,
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	completer := llm.Timeout(llm.NewCompleter(client, cfg.LLMModel, cfg.LLMTemperature), cfg.CapabilityTimeout)
	cls := classifier.New(completer, cfg.CapabilityTimeout, log)

	auditOpts := audit.DefaultOptions(cfg.AuditLogFile)
	if cfg.AuditMaxSizeMB > 0 {
		auditOpts.MaxSizeMB = cfg.AuditMaxSizeMB
	}
	if cfg.AuditMaxBackups > 0 {
		auditOpts.MaxBackups = cfg.AuditMaxBackups
	}
	auditOpts.Compress = cfg.AuditCompress
	s.Audit = audit.New(auditOpts, log.Named("audit"))

	searcher := func(library string) tools.Searcher {
		if s.NATS == nil {
			return tools.DisabledSearcher{}
		}
		return tools.NewNATSSearcher(s.NATS, cfg.SearchSubject, library, cfg.CapabilityTimeout, log)
	}

	generator := tools.NewGenerator(completer)
	pdfAnalyzer := tools.NewDocumentAnalyzer(cfg.PDFDir, completer, log)

	s.AgentOne = agent.New(agent.PersonaOne, agent.Deps{
		Completer:  completer,
		Classifier: cls,
		Searcher:   searcher(filepath.Base(cfg.AgentOneDocsDir)),
		Generator:  generator,
		Library:    tools.NewDocumentLibrary(cfg.AgentOneDocsDir),
		Analyzer:   pdfAnalyzer,
	}, log)

	s.AgentTwo = agent.New(agent.PersonaTwo, agent.Deps{
		Completer:  completer,
		Classifier: cls,
		Searcher:   searcher(filepath.Base(cfg.AgentTwoDocsDir)),
		Generator:  generator,
		Library:    tools.NewDocumentLibrary(cfg.AgentTwoDocsDir),
		Analyzer:   pdfAnalyzer,
	}, log)

	s.Router = router.New(cls, router.Handlers{
		Search:           searcher(OrchestratorLibrary).Search,
		Generate:         generator.Generate,
		AnalyzeDocuments: pdfAnalyzer.AnalyzeDocuments,
		AgentOne:         s.AgentOne.HandleQuery,
		AgentTwo:         s.AgentTwo.HandleQuery,
	}, log)

	s.Orchestrator = orchestrator.New(s.Store, completer, cls, s.Router, s.Audit, log)

	log.Info("services initialized",
		zap.String("store", cfg.StoreBackend),
		zap.String("llm_provider", client.Name()),
		zap.Bool("nats", s.NATS != nil),
	)
	return s, nil
}

func openStore(ctx context.Context, cfg *config.Config, nc *natsclient.Client, log *logger.Logger) (conversation.Store, error) {
	switch cfg.StoreBackend {
	case config.StoreNATS:
		if nc == nil {
			return nil, errors.New("nats store requires a NATS connection")
		}
		kv, err := nc.EnsureBucket(ctx, cfg.KVBucket)
		if err != nil {
			return nil, err
		}
		return conversation.NewKVStore(kv, log.Named("store")), nil
	default:
		return conversation.OpenBolt(cfg.StorePath, log.Named("store"))
	}
}

func apiKey(cfg *config.Config) string {
	if llm.Provider(cfg.LLMProvider) == llm.ProviderAnthropic {
		return cfg.AnthropicAPIKey
	}
	return cfg.OpenAIAPIKey
}

// Close releases the store, the audit sink and the NATS connection.
func (s *Services) Close() {
	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			s.logger.Warn("failed to close conversation store", zap.Error(err))
		}
	}
	if s.Audit != nil {
		if err := s.Audit.Close(); err != nil {
			s.logger.Warn("failed to close audit log", zap.Error(err))
		}
	}
	if s.NATS != nil {
		s.NATS.Close()
	}
}
