package main

import (
	"database/sql"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/ardentlabs/ardent-pos-backend/internal/config"
	"github.com/ardentlabs/ardent-pos-backend/internal/modules/auth"
	"github.com/ardentlabs/ardent-pos-backend/internal/modules/catalog"
	"github.com/ardentlabs/ardent-pos-backend/internal/modules/customer"
	"github.com/ardentlabs/ardent-pos-backend/internal/modules/payment"
	"github.com/ardentlabs/ardent-pos-backend/internal/modules/sale"
	"github.com/ardentlabs/ardent-pos-backend/internal/modules/stock"
	"github.com/ardentlabs/ardent-pos-backend/internal/modules/user"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	// .env is optional outside local development.
	_ = godotenv.Load()
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}
	logger.Info("connected to database")

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	guard := auth.NewGuard([]byte(cfg.JWTSecret))

	// ── Identity ────────────────────────────────────────────
	userRepo := user.NewPostgresRepository(db)
	userService := user.NewService(userRepo)
	user.NewHandler(userService, guard.Require(user.RoleAdmin)).RegisterRoutes(router)

	authService := auth.NewService(userRepo, []byte(cfg.JWTSecret))
	auth.NewHandler(authService).RegisterRoutes(router)

	// ── Catalog & Stock ─────────────────────────────────────
	catalogRepo := catalog.NewPostgresRepository(db)
	catalogService := catalog.NewService(catalogRepo)
	catalog.NewHandler(catalogService, guard.Require).RegisterRoutes(router)

	ledger := stock.NewLedger()
	stockRepo := stock.NewPostgresRepository(db, ledger)
	stockService := stock.NewService(stockRepo)
	stock.NewHandler(stockService, guard.Require).RegisterRoutes(router)

	customerRepo := customer.NewPostgresRepository(db)
	customerService := customer.NewService(customerRepo)
	customer.NewHandler(customerService, guard.Require(user.RoleCashier)).RegisterRoutes(router)

	// ── Sales ───────────────────────────────────────────────
	saleRepo := sale.NewPostgresRepository(db, ledger)
	saleBuilder := sale.NewBuilder(saleRepo, logger)
	saleService := sale.NewService(saleRepo, saleBuilder, logger)
	sale.NewHandler(saleService, guard.Require).RegisterRoutes(router)

	// ── Payments ────────────────────────────────────────────
	gateway := payment.NewPaystackGateway(cfg.PaystackSecretKey, cfg.PaystackBaseURL, cfg.GatewayTimeout)
	paymentRepo := payment.NewPostgresRepository(db)
	paymentService := payment.NewService(paymentRepo, gateway,
		[]byte(cfg.PaystackSecretKey), cfg.AppURL+"/payment/callback", logger)
	payment.NewHandler(paymentService, guard.Require(user.RoleCashier)).RegisterRoutes(router)

	// ── Start Server ────────────────────────────────────────
	logger.Info("Ardent POS API server starting", "port", cfg.AppPort)
	log.Fatal(http.ListenAndServe(":"+cfg.AppPort, router))
}
