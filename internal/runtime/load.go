package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/statelab/internal/validator"
	"github.com/aretw0/statelab/pkg/domain"
)

// Load replaces the machine with a private copy of cfg and notifies listeners.
// A nil configuration or one without states is rejected with
// domain.ErrInvalidConfig and the prior machine is left untouched.
// The initial state is not required to exist; structural problems are logged
// as warnings and surface later as an orphaned state.
func (e *Engine) Load(ctx context.Context, cfg *domain.Configuration) error {
	if err := e.lock(); err != nil {
		return err
	}
	defer e.opMu.Unlock()
	return e.load(ctx, cfg)
}

// Reset reloads the last configuration. It is a no-op when nothing was loaded.
func (e *Engine) Reset(ctx context.Context) error {
	if err := e.lock(); err != nil {
		return err
	}
	defer e.opMu.Unlock()
	return e.reset(ctx)
}

func (e *Engine) load(ctx context.Context, cfg *domain.Configuration) error {
	if cfg == nil {
		e.logger.Error("Invalid config provided", "err", "configuration is nil")
		return fmt.Errorf("%w: configuration is nil", domain.ErrInvalidConfig)
	}
	e.logger.Info("Loading config", "config_id", cfg.ID)
	if cfg.States == nil {
		e.logger.Error("Invalid config provided", "config_id", cfg.ID, "err", "missing states")
		return fmt.Errorf("%w: configuration %q has no states", domain.ErrInvalidConfig, cfg.ID)
	}

	loaded := cloneConfig(cfg)

	e.mu.Lock()
	e.config = loaded
	e.context = orEmpty(clone(loaded.Context))
	e.currentID = loaded.InitialState
	e.history = nil
	e.recordHistory(domain.InitialEvent, nil)
	e.mu.Unlock()

	report := validator.ValidateConfig(loaded, e.sandbox)
	for _, issue := range report.Issues {
		e.logger.Warn("Configuration issue",
			"config_id", loaded.ID,
			"severity", string(issue.Severity),
			"state", issue.State,
			"event", issue.Event,
			"msg", issue.Message,
		)
	}

	if e.hooks.OnLoad != nil {
		e.hooks.OnLoad(ctx, loaded.ID)
	}
	e.notify()
	e.logger.Info("Load complete", "config_id", loaded.ID, "state", loaded.InitialState)
	return nil
}

func (e *Engine) reset(ctx context.Context) error {
	if e.config == nil {
		e.logger.Debug("Reset ignored: no configuration loaded")
		return nil
	}
	e.logger.Info("Resetting", "config_id", e.config.ID)
	return e.load(ctx, e.config)
}
