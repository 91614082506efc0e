// Package app wires config, stores, runner and orchestrator into one context
// shared by the server and the CLI.
package app

import (
	"loanline/internal/config"
	"loanline/internal/events"
	"loanline/internal/orchestrator"
	"loanline/internal/runner"
	"loanline/internal/seed"
	"loanline/internal/store"
)

type App struct {
	Config    *config.Config
	Loans     *store.LoanStore
	Tasks     *store.TaskStore
	Templates *store.TemplateRepository
	Runner    *runner.Runner
	Log       *events.Log
	Facade    *orchestrator.Orchestrator
}

// New builds the full application context from config. The demo dataset is
// loaded when seed.demo is set.
func New(cfg *config.Config) *App {
	if cfg == nil {
		cfg = config.Default()
	}
	templates := store.NewTemplateRepository()
	loans := store.NewLoanStore()
	tasks := store.NewTaskStore(templates)
	r := runner.New(cfg.StartDelay(), cfg.CompleteDelay())
	log := events.NewLog()

	facade := orchestrator.New(loans, tasks, r, log)
	facade.Stagger = cfg.Stagger()

	if cfg.Seed.Demo {
		seed.Apply(loans, tasks)
	}
	return &App{
		Config:    cfg,
		Loans:     loans,
		Tasks:     tasks,
		Templates: templates,
		Runner:    r,
		Log:       log,
		Facade:    facade,
	}
}

// Close drains in-flight automation.
func (a *App) Close() {
	a.Runner.CancelAll()
	a.Runner.Wait()
}

// ResolveConfig loads config from the workspace, falling back to defaults
// when no file exists.
func ResolveConfig(workspace string) (*config.Config, error) {
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.Default()
	}
	return cfg, nil
}
