// Package app assembles the backend from configuration. It is shared by the
// HTTP server, the Lambda entrypoint and the admin CLI.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"gorm.io/gorm"

	"github.com/zhouzirui/rizzmate/backend/internal/auth"
	"github.com/zhouzirui/rizzmate/backend/internal/config"
	"github.com/zhouzirui/rizzmate/backend/internal/handler"
	"github.com/zhouzirui/rizzmate/backend/internal/model/tone"
	"github.com/zhouzirui/rizzmate/backend/internal/service/admin"
	"github.com/zhouzirui/rizzmate/backend/internal/service/credits"
	"github.com/zhouzirui/rizzmate/backend/internal/service/gateway"
	"github.com/zhouzirui/rizzmate/backend/internal/service/orchestrator"
	"github.com/zhouzirui/rizzmate/backend/internal/service/reply"
	"github.com/zhouzirui/rizzmate/backend/internal/store"
)

// App holds the wired HTTP application.
type App struct {
	Router http.Handler
}

// Open connects to the database and migrates it.
func Open(cfg *config.Config) (*gorm.DB, error) {
	db, err := store.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(db); err != nil {
		Close(db)
		return nil, err
	}
	return db, nil
}

// Close releases the database connection.
func Close(db *gorm.DB) {
	if db == nil {
		return
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// NewLedger builds the credit ledger with the configured provisioning policy.
func NewLedger(db *gorm.DB, cfg config.CreditsConfig) *credits.Ledger {
	return credits.NewLedger(store.NewProfileRepository(db), credits.Policy{
		AccountCredits: cfg.AccountDefault,
		AdminCredits:   cfg.AdminDefault,
		AdminEmail:     cfg.AdminEmail,
	})
}

// NewAdminService builds the admin service over db.
func NewAdminService(db *gorm.DB, cfg config.CreditsConfig) *admin.Service {
	return admin.NewService(store.NewProfileRepository(db), NewLedger(db, cfg))
}

// NewProvider returns the upstream model behind the gateway endpoint.
func NewProvider(ctx context.Context, cfg *config.Config) (gateway.Gateway, error) {
	switch cfg.Gateway.Provider {
	case "ark":
		chatModel, err := cfg.AI.NewChatModel(ctx)
		if err != nil {
			return nil, fmt.Errorf("init ark model: %w", err)
		}
		log.Printf("[app] gateway provider ark model=%s", cfg.AI.Model)
		provider, err := gateway.NewArkProvider(ctx, chatModel)
		if err != nil {
			return nil, err
		}
		return provider, nil
	default:
		if cfg.Gateway.OpenRouterAPIKey == "" {
			log.Println("[app] OPENROUTER_API_KEY 未配置，网关调用将失败")
		}
		log.Printf("[app] gateway provider openrouter model=%s", cfg.Gateway.OpenRouterModel)
		return gateway.NewOpenRouterProvider(cfg.Gateway), nil
	}
}

// Build wires the full HTTP application onto db.
func Build(ctx context.Context, cfg *config.Config, db *gorm.DB) (*App, error) {
	services := handler.Services{
		Tones:          tone.NewMemoryStore(tone.Seed()),
		GuestCredits:   cfg.Credits.GuestDefault,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}

	var provider gateway.Gateway
	if cfg.Gateway.URL == "" || cfg.Gateway.EndpointEnabled {
		var err error
		if provider, err = NewProvider(ctx, cfg); err != nil {
			return nil, err
		}
	}

	// 配置了 GATEWAY_URL 时回复生成走远程网关，否则直接调用上游
	replyGateway := provider
	if cfg.Gateway.URL != "" {
		replyGateway = gateway.NewClient(cfg.Gateway.URL, cfg.Gateway.Timeout)
		log.Printf("[app] reply generation via remote gateway %s", cfg.Gateway.URL)
	}

	if cfg.Gateway.EndpointEnabled {
		log.Println("[app] gateway endpoint enabled; it is not credit-metered, keep it off the public edge")
		services.Gateway = provider
	}

	if cfg.Auth.Enabled() {
		verifier, err := auth.NewVerifier(cfg.Auth.Issuer, cfg.Auth.Audience, cfg.Auth.JWKSURL)
		if err != nil {
			return nil, fmt.Errorf("init token verifier: %w", err)
		}
		services.Verifier = verifier
	} else {
		log.Println("[app] auth disabled, every caller is a guest")
	}

	ledger := NewLedger(db, cfg.Credits)
	generator := reply.NewGenerator(replyGateway, services.Tones)

	services.Ledger = ledger
	services.Admin = admin.NewService(store.NewProfileRepository(db), ledger)
	services.Orchestrator = orchestrator.New(credits.NewGate(ledger), generator)

	return &App{Router: handler.NewRouter(services)}, nil
}
