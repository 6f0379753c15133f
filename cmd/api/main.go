// Package main is the entrypoint for the hisab API server.
//
// @title           Hisab API
// @version         1.0
// @description     Shared bill settlement service. All monetary amounts are integer minor units (paisa).
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/hisab-app/hisab/internal/bill"
	"github.com/hisab-app/hisab/internal/config"
	"github.com/hisab-app/hisab/internal/database"
	"github.com/hisab-app/hisab/internal/obs"
	"github.com/hisab-app/hisab/internal/room"
	"github.com/hisab-app/hisab/internal/settlement"
	"github.com/hisab-app/hisab/internal/user"
	"github.com/hisab-app/hisab/pkg/auth"
	"github.com/hisab-app/hisab/pkg/logging"
	mw "github.com/hisab-app/hisab/pkg/middleware"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	logging.Setup()

	cfg := config.Load()

	db, err := database.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	slog.Info("connected to database")

	obs.Init()

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenDuration)

	// User feature
	userRepo := user.NewRepository(db)
	userService := user.NewService(userRepo, jwtManager)
	userHandler := user.NewHandler(userService)

	// Room feature
	roomRepo := room.NewRepository(db)
	roomService := room.NewService(roomRepo)
	roomHandler := room.NewHandler(roomService)

	// Bill feature
	billRepo := bill.NewRepository(db)
	billService := bill.NewService(billRepo, roomRepo)
	billHandler := bill.NewHandler(billService)

	// Settlement feature (clamps writes through the bill service's locks)
	settlementRepo := settlement.NewRepository(db)
	settlementService := settlement.NewService(settlementRepo, billService)
	settlementHandler := settlement.NewHandler(settlementService)

	r := chi.NewRouter()

	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RequestID)
	r.Use(obs.Instrument)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", obs.Handler())
	r.Get("/swagger/*", httpSwagger.Handler())

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/auth", userHandler.Routes())

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAuth(jwtManager))

			r.Mount("/users", userHandler.ProtectedRoutes())
			r.Mount("/rooms", roomHandler.Routes())
			r.Mount("/bills", billHandler.Routes())
			r.Mount("/settlements", settlementHandler.Routes())
		})
	})

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	slog.Info("server starting", "port", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
