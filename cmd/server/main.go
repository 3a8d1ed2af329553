package main // Entry point package

import (
	"context"
	"log"
	"strings"

	"github.com/joho/godotenv" // Loads .env files into the environment
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-session-billing/internal/config"
	"github.com/iliyamo/table-session-billing/internal/database"
	"github.com/iliyamo/table-session-billing/internal/handler"
	appmw "github.com/iliyamo/table-session-billing/internal/middleware"
	"github.com/iliyamo/table-session-billing/internal/pos"
	"github.com/iliyamo/table-session-billing/internal/queue"
	"github.com/iliyamo/table-session-billing/internal/repository"
	"github.com/iliyamo/table-session-billing/internal/router"
)

// envTokenSource satisfies pos.TokenSource with the pre-issued access
// token from the environment.  Token refresh belongs to the host
// deployment; this process only presents whatever token it was given.
type envTokenSource struct{ token string }

func (s envTokenSource) Token(ctx context.Context, storeID string) (string, error) {
	return s.token, nil
}

func main() {
	_ = godotenv.Load() // Load .env if present; real env vars win

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs the rate limiter and the charge quote cache.  Both
	// degrade gracefully, so a nil client only disables them.
	rdb := config.NewRedisClient()

	// Repositories
	sessionRepo := repository.NewSessionRepo(db)
	tableRepo := repository.NewTableRepo(db)
	seatTypeRepo := repository.NewSeatTypeRepo(db)
	seatChargeRepo := repository.NewSeatChargeRepo(db)
	orderRepo := repository.NewOrderRepo(db)
	nominationRepo := repository.NewNominationRepo(db)
	castRepo := repository.NewCastRepo(db)
	storeRepo := repository.NewStoreRepo(db, cfg.TaxRatePercent)
	checkoutRepo := repository.NewCheckoutRepo(db)
	historyRepo := repository.NewHistoryRepo(db)

	// POS client.  Construction is unconditional; whether a checkout
	// actually syncs is a per-store flag, and an empty base URL leaves
	// the client unset entirely.
	var posClient *pos.Client
	if cfg.PosBaseURL != "" {
		posCfg := pos.Config{
			BaseURL:      cfg.PosBaseURL,
			Mode:         pos.AuthOAuth,
			ClientID:     cfg.PosClientID,
			ClientSecret: cfg.PosClientSecret,
			ContractID:   cfg.PosContractID,
		}
		var tokens pos.TokenSource
		if strings.EqualFold(cfg.PosAuthMode, "static") {
			posCfg.Mode = pos.AuthStatic
		} else {
			tokens = envTokenSource{token: cfg.PosAccessToken}
		}
		posClient = pos.New(posCfg, tokens)
	}

	// Handlers
	sessionHandler := handler.NewSessionHandler(sessionRepo, tableRepo, seatTypeRepo, seatChargeRepo, orderRepo, nominationRepo, rdb)
	orderHandler := handler.NewOrderHandler(sessionRepo, orderRepo, castRepo)
	nominationHandler := handler.NewNominationHandler(sessionRepo, nominationRepo, castRepo)
	checkoutHandler := handler.NewCheckoutHandler(sessionRepo, tableRepo, seatTypeRepo, seatChargeRepo, orderRepo, nominationRepo, castRepo, storeRepo, checkoutRepo, historyRepo, posClient, rdb)

	// Background consumer journaling completed checkouts.  Runs its own
	// reconnect loop; a broker outage never blocks the HTTP surface.
	go func() {
		if err := queue.StartCheckoutConsumer(); err != nil {
			log.Printf("checkout-consumer stopped: %v", err)
		}
	}()

	e := echo.New() // Create Echo instance
	e.Use(appmw.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e) // Health check
	router.RegisterSessions(e, sessionHandler)
	router.RegisterOrders(e, orderHandler)
	router.RegisterNominations(e, nominationHandler)
	router.RegisterCheckout(e, checkoutHandler)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err)
	}
}
