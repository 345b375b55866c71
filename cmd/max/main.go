package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arjunsk/max/internal/actions"
	"github.com/arjunsk/max/internal/confirm"
	"github.com/arjunsk/max/internal/dispatch"
	"github.com/arjunsk/max/internal/gateway"
	"github.com/arjunsk/max/internal/observability"
	"github.com/arjunsk/max/internal/orchestrator"
	"github.com/arjunsk/max/internal/plan"
	"github.com/arjunsk/max/internal/planner"
	"github.com/arjunsk/max/internal/safety"
	"github.com/arjunsk/max/internal/store"
	"github.com/arjunsk/max/pkg/config"
)

func main() {
	observability.PrintBanner()
	observability.InitializeTerminal()

	// Route all log output through the terminal mutex so it never
	// interrupts the dashboard's cursor save/restore sequence.
	log.SetOutput(observability.NewTermWriter())

	cfg := config.LoadConfig("config.yaml")

	memory, err := store.NewMemory(cfg.Memory.Path)
	if err != nil {
		log.Fatal(err)
	}
	defer memory.Close()

	if cfg.Memory.KeepLast > 0 {
		if err := memory.PruneConversations(cfg.Memory.KeepLast); err != nil {
			log.Printf("Warning: failed to prune conversation history: %v", err)
		}
	}

	policy := safety.NewPolicy(cfg.Safety.ProtectedPaths)
	safetyValidator := safety.NewValidator(policy, cfg.Safety.SafeMode)

	// A spoken safe-mode toggle from a previous session outlives the
	// process; the persisted preference wins over the config default.
	if v := memory.GetPreference("safe_mode", ""); v != "" {
		safetyValidator.SetSafeMode(v == "on")
	}
	planValidator := &plan.Validator{Strict: cfg.Safety.Strict}

	browser := actions.NewBrowser()
	defer browser.Close()

	registry := dispatch.NewRegistry()
	actions.RegisterAll(registry, browser)
	dispatcher := dispatch.NewDispatcher(registry)

	brain, err := planner.New(cfg.Providers)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Planner ready: %s", brain.Name())

	logger := observability.NewLogger()

	// The gateway both sources commands and presents confirmations.
	var gw gateway.Messenger
	broker := confirm.NewBroker(cfg.ConfirmTimeout(), nil)
	if tgCfg, ok := cfg.GetTelegramConfig(); ok {
		tg, err := gateway.NewTelegramGateway(tgCfg.Token, tgCfg.ChatID, broker)
		if err != nil {
			log.Fatal(err)
		}
		gw = tg
	} else {
		gw = gateway.NewConsoleGateway(broker)
	}
	broker.SetNotify(func(p *confirm.Pending) {
		if err := gw.Send(p.Message); err != nil {
			log.Printf("Failed to deliver confirmation prompt: %v", err)
		}
	})

	orch := &orchestrator.Orchestrator{
		Planner:       brain,
		PlanValidator: planValidator,
		Safety:        safetyValidator,
		Gate:          broker,
		Dispatcher:    dispatcher,
		Store:         memory,
		Speaker:       gw,
		Logger:        logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Live Resource Dashboard (1-second updates)
	go func() {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				observability.PrintLiveStatus()
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				observability.Heartbeat()
				logger.LogHeartbeat()
			}
		}
	}()

	go func() {
		if err := gw.Start(); err != nil {
			log.Printf("\033[91m[ FAIL ] GATEWAY CRITICAL ERROR: %v\033[0m", err)
			stop()
		}
	}()

	go orch.Run(ctx, gw.Commands())

	// Wait for shutdown signal
	<-ctx.Done()

	_ = gw.Stop()
	observability.CleanupTerminal()

	// Give a short time for final logs/syncs
	time.Sleep(500 * time.Millisecond)
	log.Println("\033[95m[ EXIT ] MAX SHUT DOWN. GOODBYE.\033[0m")
}
