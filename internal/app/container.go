package app

import (
	"context"

	"github.com/doeshing/opsgpt/internal/application/agent"
	"github.com/doeshing/opsgpt/internal/application/mediator"
	"github.com/doeshing/opsgpt/internal/domain"
	"github.com/doeshing/opsgpt/internal/infrastructure/config"
	"github.com/doeshing/opsgpt/internal/infrastructure/executor"
	"github.com/doeshing/opsgpt/internal/infrastructure/llm"
	"github.com/doeshing/opsgpt/internal/infrastructure/parser"
	"github.com/doeshing/opsgpt/internal/infrastructure/plugins"
	"github.com/doeshing/opsgpt/internal/infrastructure/security"
	"github.com/doeshing/opsgpt/internal/infrastructure/state"
	"github.com/doeshing/opsgpt/internal/pkg/logger"
	"github.com/doeshing/opsgpt/internal/ports"
)

// Container wires up application services with infrastructure adapters.
type Container struct {
	Config       domain.Config
	AgentService *agent.Service
	Registry     ports.Registry
	StateStore   ports.StateRepository
	AuditStore   ports.AuditRepository
	Logger       *logger.ZapLogger
}

// BuildContainer constructs the dependency graph. The AgentService carries no
// confirmation prompter; confirm-mode requests stay pending unless a surface
// attaches its own prompter via agent.Service.With.
func BuildContainer(ctx context.Context, verbose bool) (*Container, error) {
	cfgLoader := config.NewFileLoader("")
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(verbose)
	if err != nil {
		return nil, err
	}

	provider, err := llm.NewFactory(log).Build(cfg.LLM)
	if err != nil {
		return nil, err
	}

	intentParser, err := parser.New(parser.DefaultPatterns(), provider, cfg.LLM.MaxTokens, log)
	if err != nil {
		return nil, err
	}

	exec := executor.NewLocalExecutor(cfg.Execution.Shell)

	registry := plugins.NewRegistry(log)
	troubleshooting := plugins.NewTroubleshootingPlugin(exec)
	cicd := plugins.NewCICDPlugin(exec)
	monitoring := plugins.NewMonitoringPlugin("")
	securityPlugin := plugins.NewSecurityPlugin(exec)
	cost := plugins.NewCostPlugin("")
	registry.Register(troubleshooting.Descriptor(), troubleshooting)
	registry.Register(cicd.Descriptor(), cicd)
	registry.Register(monitoring.Descriptor(), monitoring)
	registry.Register(securityPlugin.Descriptor(), securityPlugin)
	registry.Register(cost.Descriptor(), cost)

	policy, err := security.NewPolicy(cfg.Security)
	if err != nil {
		return nil, err
	}

	store, err := state.NewStore(cfg.State, log)
	if err != nil {
		return nil, err
	}

	opts := []agent.Option{}
	var auditStore ports.AuditRepository
	if cfg.Audit.Enabled {
		audit, err := state.NewAuditStore(cfg.Audit.File)
		if err != nil {
			return nil, err
		}
		auditStore = audit
		opts = append(opts, agent.WithAudit(audit))
	}

	med := mediator.New(registry, policy, log)
	service := agent.NewService(intentParser, med, store, log, opts...)

	return &Container{
		Config:       cfg,
		AgentService: service,
		Registry:     registry,
		StateStore:   store,
		AuditStore:   auditStore,
		Logger:       log,
	}, nil
}

// Close flushes logs and persists the final state snapshot.
func (c *Container) Close() error {
	err := c.StateStore.Close()
	c.Logger.Sync()
	return err
}
