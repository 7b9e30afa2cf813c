package main

import (
	"context"
	"fmt"
	"log/slog"

	"redraft/auth"
	"redraft/clip"
	"redraft/config"
	"redraft/hotkey"
	"redraft/platform"
	"redraft/prompts"
	"redraft/storage"
	"redraft/systray"
	"redraft/transform"
	"redraft/web"
)

// Agent owns the long-lived pieces and wires hotkey fires through the
// coordinator to the clipboard and the transformation provider.
type Agent struct {
	cfg      *config.Config
	db       *storage.DB
	session  *auth.Bridge
	store    *prompts.Store
	registry *hotkey.Registry
	osKeys   platform.Hotkeys
	coord    *Coordinator
	server   *web.Server
	tray     *systray.Manager
}

func NewAgent(cfg *config.Config) (*Agent, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config dir: %w", err)
	}
	db, err := storage.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	session := auth.NewBridge()

	store, err := prompts.Open(db.PromptLocal(), prompts.NewClient(cfg.API.BaseURL, session))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open prompt store: %w", err)
	}

	provider, err := transform.NewProvider(cfg.API, session)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}

	osKeys, err := platform.NewHotkeys()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize hotkeys: %w", err)
	}

	registry := hotkey.NewRegistry(osKeys)
	coord := NewCoordinator(
		clip.NewBridge(platform.NewClipboard(), platform.NewCopier(), cfg.Processing.CopySettle()),
		provider,
		store,
		session,
		cfg.Processing.Debounce(),
		cfg.Processing.Timeout(),
	)

	a := &Agent{
		cfg:      cfg,
		db:       db,
		session:  session,
		store:    store,
		registry: registry,
		osKeys:   osKeys,
		coord:    coord,
	}

	if cfg.Web.Enabled {
		a.server = web.NewServer(db, cfg, store, registry, session, a.rebindHotkeys)
	}
	a.tray = systray.NewManager(cfg.Web.Port, nil, func(paused bool) {
		if paused {
			registry.SuspendAll()
			slog.Info("Hotkeys paused from tray")
		} else {
			registry.ResumeAll()
			slog.Info("Hotkeys resumed from tray")
		}
	})

	return a, nil
}

// rebindHotkeys re-arms the registry from the stored bindings and logs any
// combos the OS refused.
func (a *Agent) rebindHotkeys() []hotkey.Status {
	stored := a.store.Hotkeys()
	bindings := make([]hotkey.Binding, 0, len(stored))
	for _, b := range stored {
		bindings = append(bindings, hotkey.Binding{
			ID:         b.ID,
			PromptCode: b.PromptCode,
			Combo:      b.Combo,
			IsActive:   b.IsActive,
		})
	}

	statuses := a.registry.ReloadAll(bindings)
	for _, st := range statuses {
		if st.Error != "" {
			slog.Warn("Hotkey not registered", "combo", st.Combo, "error", st.Error)
		}
	}
	return statuses
}

// Run starts the agent's main event loop.
func (a *Agent) Run(ctx context.Context) error {
	defer a.db.Close()
	defer a.osKeys.Close()

	if !platform.InputMonitoringGranted() {
		slog.Warn("Input monitoring not granted; hotkeys will not fire until permission is given")
	}

	a.rebindHotkeys()

	unsubscribe := a.registry.Subscribe(func(f hotkey.Fire) {
		go a.coord.Handle(ctx, f)
	})
	defer unsubscribe()

	// Login pulls the server's library wholesale; logout wipes the local
	// mirror. Both re-arm the registry from whatever survives.
	unwatch := a.session.OnChange(func(authenticated bool) {
		if authenticated {
			result, err := a.store.SyncFromServer(ctx)
			if err != nil {
				slog.Error("Initial sync after login failed", "error", err)
			} else {
				slog.Info("Library synced", "prompts", result.Applied, "conflicts", len(result.Conflicts))
			}
		} else {
			if err := a.store.ClearLocal(); err != nil {
				slog.Error("Failed to clear local library", "error", err)
			}
		}
		a.rebindHotkeys()
	})
	defer unwatch()

	if a.server != nil {
		go func() {
			if err := a.server.Start(); err != nil {
				slog.Error("Web server stopped", "error", err)
			}
		}()
	}

	go a.tray.Run()
	defer a.tray.Stop()

	go a.consumeOutcomes(ctx)

	slog.Info("Redraft started",
		"provider", a.coord.provider.Name(),
		"bindings", len(a.registry.Bindings()),
		"web", a.cfg.Web.Enabled,
	)

	select {
	case <-ctx.Done():
		return nil
	case <-a.tray.WaitForQuit():
		return nil
	}
}

// consumeOutcomes drains the coordinator's outcome stream: every fire is
// logged, recorded in history, and pushed to connected dashboards.
func (a *Agent) consumeOutcomes(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case out := <-a.coord.Outcomes():
			a.recordOutcome(out)
		}
	}
}

func (a *Agent) recordOutcome(out Outcome) {
	if out.Success() {
		slog.Info("Transformation complete",
			"code", out.Code, "chars", out.SourceChars, "elapsed", out.Elapsed)
	} else {
		slog.Warn("Fire did not complete",
			"kind", out.Kind, "code", out.Code, "message", out.Message)
	}

	activity := &storage.Activity{
		PromptCode:   out.Code,
		Outcome:      string(out.Kind),
		SourceChars:  out.SourceChars,
		ResultChars:  len(out.Result),
		LatencyMs:    out.Elapsed.Milliseconds(),
		Success:      out.Success(),
		ErrorMessage: out.Message,
	}
	if err := a.db.SaveActivity(activity); err != nil {
		slog.Error("Failed to record activity", "error", err)
	}

	if a.server != nil {
		a.server.BroadcastOutcome(map[string]any{
			"kind":        string(out.Kind),
			"code":        out.Code,
			"message":     out.Message,
			"sourceChars": out.SourceChars,
			"latencyMs":   out.Elapsed.Milliseconds(),
			"authError":   out.AuthError,
		})
	}
}
