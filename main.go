package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"launchPadAPI/handlers"
	"launchPadAPI/internal/config"
	"launchPadAPI/internal/db"
	"launchPadAPI/internal/logger"
	"launchPadAPI/internal/metrics"
	"launchPadAPI/internal/rank"
	"launchPadAPI/internal/station"
	"launchPadAPI/internal/workers"
	"launchPadAPI/middleware"
	"launchPadAPI/services"

	_ "net/http/pprof"
)

var (
	cfg                config.Config
	dbPool             *pgxpool.Pool
	appLog             *logger.Logger
	votingService      *services.VotingService
	launchService      *services.LaunchService
	stationService     *services.StationService
	boardService       *services.BoardService
	leaderboardService *services.LeaderboardService
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	var err error
	cfg, err = config.LoadFromEnv()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	clerkSecretKey := os.Getenv("CLERK_SECRET_KEY")
	if clerkSecretKey == "" {
		log.Fatal("CLERK_SECRET_KEY environment variable is not set")
	}
	clerk.SetKey(clerkSecretKey)
	log.Println("Clerk initialized successfully")

	appLog = logger.New("launchPad-api")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbPool, err = db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	log.Println("Successfully connected to Postgres")

	if err := db.CreateSchema(ctx, dbPool); err != nil {
		log.Fatal("Failed to apply schema:", err)
	}

	tierCfg := rank.DefaultTierConfig()
	stationService = services.NewStationService(dbPool, station.DefaultRoles(), appLog)
	votingService = services.NewVotingService(dbPool, tierCfg, stationService, cfg.AllowSelfVotes, appLog)
	launchService = services.NewLaunchService(dbPool, stationService, appLog)
	boardService = services.NewBoardService(dbPool, tierCfg.PotenThreshold, appLog)
	leaderboardService = services.NewLeaderboardService(dbPool, appLog)

	middleware.InitPrometheus()
	metrics.Register()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()

	workerCtx, stopWorkers := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopWorkers()

	go workers.StartFinalizeWorker(workerCtx, launchService, cfg.FinalizeCheckInterval, appLog)
	go workers.StartSnapshotWorker(workerCtx, leaderboardService, cfg.SnapshotInterval, appLog)

	launchHandler := handlers.NewLaunchHandler(launchService)
	voteHandler := handlers.NewVoteHandler(votingService)
	stationHandler := handlers.NewStationHandler(stationService)
	boardHandler := handlers.NewBoardHandler(boardService)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService)

	r := mux.NewRouter()

	go middleware.CleanupVisitors()

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))
	r.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(http.DefaultServeMux))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "launchPad-api"}`))
	}).Methods("GET")

	// -------------------------------------------------------------------------
	// API V1 SUBROUTER
	// -------------------------------------------------------------------------
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/launches/current", launchHandler.GetCurrentWeekLaunches).Methods("GET")
	api.HandleFunc("/launches/week/{weekNumber}", launchHandler.GetWeeklyLaunches).Methods("GET")
	api.HandleFunc("/launches/week/{weekNumber}/result", launchHandler.GetWeeklyResult).Methods("GET")
	api.HandleFunc("/leaderboard", leaderboardHandler.GetSnapshot).Methods("GET")
	api.HandleFunc("/leaderboard/rank", leaderboardHandler.GetUserRank).Methods("GET")
	api.HandleFunc("/board", boardHandler.GetBoard).Methods("GET")

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware)

	protected.HandleFunc("/launches", launchHandler.SubmitLaunch).Methods("POST")
	protected.HandleFunc("/launches/{launchId}/vote", voteHandler.CastVote).Methods("POST")
	protected.HandleFunc("/launches/{launchId}/vote", voteHandler.RemoveVote).Methods("DELETE")
	protected.HandleFunc("/launches/{launchId}/station", stationHandler.GetStationByLaunch).Methods("GET")
	protected.HandleFunc("/leaderboard/analysis", leaderboardHandler.UpsertAnalysis).Methods("POST")
	protected.HandleFunc("/board/posts", boardHandler.CreatePost).Methods("POST")
	protected.HandleFunc("/board/posts/{postId}/vote", boardHandler.VotePost).Methods("POST")
	protected.HandleFunc("/admin/finalize-week", launchHandler.FinalizeWeek).Methods("POST")

	// CORS configuration
	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	server := http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	log.Println("Got signal:", sig)
	stopWorkers()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}
