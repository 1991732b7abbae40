package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/frozenpond/benchboss/internal/auth"
	"github.com/frozenpond/benchboss/internal/clickhouse"
	"github.com/frozenpond/benchboss/internal/dal"
	"github.com/frozenpond/benchboss/internal/handlers"
	"github.com/frozenpond/benchboss/internal/logger"
	"github.com/frozenpond/benchboss/internal/metrics"
	"github.com/frozenpond/benchboss/internal/mocks"
	"github.com/frozenpond/benchboss/internal/pubsub"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	dataStore    dal.RosterDAL
	authProvider auth.AuthProvider
	ps           interface {
		Publish(pubsub.Event)
		Subscribe() chan pubsub.Event
		Unsubscribe(chan pubsub.Event)
	}
	shiftSource interface {
		SyncPairMinutes(ctx context.Context, teamID string, seed func(pairs map[string]float64) error) error
		Close() error
	}
	rosterMetrics *metrics.RosterMetrics
)

func main() {
	// Initialize logger first
	logger.Init()

	logger.Info("Starting BenchBoss roster service")

	environment := os.Getenv("ENVIRONMENT")

	// Initialize database driver
	dbDriver := os.Getenv("DB_DRIVER")
	if dbDriver == "" {
		dbDriver = "memory"
	}

	var err error
	switch dbDriver {
	case "memory":
		dataStore = dal.NewMemoryDAL()
		logger.Info("Using in-memory data store with the seed league")
	case "sqlite":
		sqliteFile := os.Getenv("SQLITE_FILE")
		if sqliteFile == "" {
			sqliteFile = "dev.sqlite"
		}
		dataStore, err = dal.NewSQLiteDAL(sqliteFile)
		if err != nil {
			logger.Error("Failed to initialize SQLite", "error", err)
			log.Fatalf("Failed to initialize SQLite: %v", err)
		}
		logger.Info("Connected to SQLite database", "file", sqliteFile)
	case "postgres":
		dbConnString := os.Getenv("DATABASE_URL")
		if dbConnString == "" {
			logger.Error("DATABASE_URL environment variable is required for postgres driver")
			log.Fatal("DATABASE_URL environment variable is required for postgres driver")
		}
		dataStore, err = dal.NewPostgresDAL(dbConnString)
		if err != nil {
			logger.Error("Failed to initialize Postgres", "error", err)
			log.Fatalf("Failed to initialize Postgres: %v", err)
		}
		logger.Info("Connected to Postgres database")
	default:
		logger.Error("Unknown DB_DRIVER", "driver", dbDriver)
		log.Fatalf("Unknown DB_DRIVER: %s (valid: memory, sqlite, postgres)", dbDriver)
	}

	// Initialize pub/sub (NATS JetStream or embedded NATS for local development)
	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://localhost:4222"
	}
	natsSubject := os.Getenv("NATS_SUBJECT")
	if natsSubject == "" {
		natsSubject = "lines.events"
	}

	if environment == "" || environment == "development" {
		logger.Info("Starting embedded NATS server for local development")
		embeddedNats, err := pubsub.NewEmbeddedNATSPubSub(pubsub.EmbeddedNATSOptions{
			Port:       -1, // random available port
			Subject:    natsSubject,
			StreamName: pubsub.StreamName,
			StoreDir:   "", // in-memory storage
		})
		if err != nil {
			logger.Error("Failed to initialize embedded NATS", "error", err)
			log.Fatalf("Failed to initialize embedded NATS: %v", err)
		}
		ps = embeddedNats
		logger.Info("Embedded NATS server ready", "url", embeddedNats.GetServerURL())
	} else {
		realNats, err := pubsub.NewNATSPubSub(natsURL, natsSubject)
		if err != nil {
			logger.Error("Failed to initialize NATS", "error", err)
			log.Fatalf("Failed to initialize NATS: %v", err)
		}
		ps = realNats
		logger.Info("Connected to NATS", "url", natsURL)
	}

	// Initialize the shift-tracking source (ClickHouse, or its mock in
	// development)
	if environment == "" || environment == "development" {
		shiftSource = mocks.NewMockClickHouseClient()
	} else {
		chAddr := os.Getenv("CLICKHOUSE_ADDR")
		if chAddr == "" {
			chAddr = "localhost:9000"
		}
		chDB := os.Getenv("CLICKHOUSE_DB")
		if chDB == "" {
			chDB = "default"
		}
		chUser := os.Getenv("CLICKHOUSE_USER")
		if chUser == "" {
			chUser = "default"
		}
		chPass := os.Getenv("CLICKHOUSE_PASSWORD")

		chClient, chErr := clickhouse.NewClient(chAddr, chDB, chUser, chPass)
		if chErr != nil {
			logger.Error("Failed to initialize ClickHouse", "error", chErr, "address", chAddr)
			log.Fatalf("Failed to initialize ClickHouse: %v", chErr)
		}
		shiftSource = chClient
		logger.Info("Connected to ClickHouse", "address", chAddr, "database", chDB)
	}
	defer shiftSource.Close()

	// Initialize authentication: mock in development, league SSO in
	// production
	if environment == "" || environment == "development" {
		logger.Info("Using mock authentication for local development")
		authProvider = auth.NewMockAuth()
	} else {
		issuerURL := os.Getenv("OIDC_ISSUER_URL")
		clientID := os.Getenv("OIDC_CLIENT_ID")
		clientSecret := os.Getenv("OIDC_CLIENT_SECRET")
		redirectURL := os.Getenv("OIDC_REDIRECT_URL")

		if issuerURL == "" || clientID == "" || clientSecret == "" {
			logger.Error("OIDC_ISSUER_URL, OIDC_CLIENT_ID, and OIDC_CLIENT_SECRET environment variables are required for production")
			log.Fatal("OIDC_ISSUER_URL, OIDC_CLIENT_ID, and OIDC_CLIENT_SECRET environment variables are required for production")
		}

		if redirectURL == "" {
			redirectURL = "http://localhost:8080/auth/callback"
		}

		authProvider = auth.NewOIDCAuth(&auth.OIDCConfig{
			IssuerURL:    issuerURL,
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "profile", "email"},
		})
		logger.Info("Connected to league SSO", "issuer", issuerURL)
	}

	// Metrics registry
	rosterMetrics = metrics.Default()

	// API handlers
	api := handlers.NewAPIHandlers(dataStore, convertPubSub(ps), rosterMetrics, shiftSource)

	// Periodic shift-data sync keeps long-lived engines current
	go func() {
		ticker := time.NewTicker(15 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			logger.Info("Syncing pair minutes from shift tracking")
			api.SyncAllShiftData(context.Background())
		}
	}()

	// Set up HTTP routes
	mux := http.NewServeMux()

	// Auth routes (public)
	mux.HandleFunc("/auth/login", authProvider.LoginHandler)
	mux.HandleFunc("/auth/callback", authProvider.CallbackHandler)
	mux.HandleFunc("/auth/logout", authProvider.LogoutHandler)

	// Teams and rosters
	mux.HandleFunc("/api/teams", api.ListTeams)
	mux.HandleFunc("/api/teams/add", authProvider.Middleware(api.AddTeam))
	mux.HandleFunc("/api/roster", api.GetRoster)
	mux.HandleFunc("/api/players/add", authProvider.Middleware(api.AddPlayer))
	mux.HandleFunc("/api/players/update", authProvider.Middleware(api.UpdatePlayer))
	mux.HandleFunc("/api/players/delete", authProvider.Middleware(api.DeletePlayer))

	// Coaching staff
	mux.HandleFunc("/api/coach", api.GetCoach)
	mux.HandleFunc("/api/coach/set", authProvider.Middleware(api.SetCoach))

	// Line generation and game effects
	mux.HandleFunc("/api/lines/generate", api.GenerateLines)
	mux.HandleFunc("/api/lines/update", api.UpdateLines)
	mux.HandleFunc("/api/lines/deployment", api.LineDeployment)
	mux.HandleFunc("/api/lines/matchups", api.Matchups)
	mux.HandleFunc("/api/game/simulate", api.SimulateGame)
	mux.HandleFunc("/api/chemistry/pair", api.PairMinutes)

	// Line presets
	mux.HandleFunc("/api/presets", api.ListPresets)
	mux.HandleFunc("/api/presets/save", api.SavePreset)
	mux.HandleFunc("/api/presets/load", api.LoadPreset)

	// Trade valuation
	mux.HandleFunc("/api/trade/profile", api.GetTradeProfile)
	mux.HandleFunc("/api/trade/profile/set", authProvider.Middleware(api.SetTradeProfile))
	mux.HandleFunc("/api/trade/evaluate", api.EvaluateTrade)

	// League administration
	mux.HandleFunc("/api/league/reset", authProvider.Middleware(api.ResetLeague))

	// SSE for realtime updates
	mux.HandleFunc("/api/events", api.EventsSSE)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.HandlerFor(rosterMetrics.Registry(), promhttp.HandlerOpts{}))

	// Health check endpoints
	mux.HandleFunc("/api/health", healthHandler)
	mux.HandleFunc("/healthz", livenessHandler) // Kubernetes liveness probe
	mux.HandleFunc("/readyz", readinessHandler) // Kubernetes readiness probe

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	addr := "0.0.0.0:" + port
	server := &http.Server{Addr: addr, Handler: instrument(mux)}

	go func() {
		logger.Info("Server starting", "address", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			log.Fatal(err)
		}
	}()

	// Block until shutdown is requested, then drain in-flight requests
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
}

// instrument counts and times every request. The route set is fixed and
// query-driven, so the raw path is a bounded label.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		rosterMetrics.RecordRequest(r.Method, r.URL.Path, strconv.Itoa(sw.status), time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush keeps the event stream flowing through the wrapper
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	// Check database connectivity
	if dataStore != nil {
		_, err := dataStore.ListTeams()
		if err != nil {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
			checks["database"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
		} else {
			checks["database"] = map[string]interface{}{
				"status": "healthy",
			}
		}
	} else {
		checks["database"] = map[string]interface{}{
			"status": "not_configured",
		}
	}

	// NATS connection health is handled internally by the client
	if ps != nil {
		checks["nats"] = map[string]interface{}{
			"status": "healthy",
		}
	}

	response := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Unix(),
		"checks":    checks,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(response)
}

// livenessHandler handles Kubernetes liveness probes
// Returns 200 if the application is running (doesn't check dependencies)
func livenessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now().Unix(),
	})
}

// readinessHandler handles Kubernetes readiness probes
// Returns 200 if the application is ready to serve traffic (checks critical dependencies)
func readinessHandler(w http.ResponseWriter, r *http.Request) {
	// Database connectivity is critical for readiness
	if dataStore != nil {
		_, err := dataStore.ListTeams()
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":    "not_ready",
				"reason":    "database_unavailable",
				"timestamp": time.Now().Unix(),
			})
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "ready",
		"timestamp": time.Now().Unix(),
	})
}

// convertPubSub wraps the NATS pubsub to provide a local *pubsub.PubSub for handlers
// This creates a bidirectional bridge: publishes go to NATS, and NATS events come to local subscribers
func convertPubSub(ps interface {
	Publish(pubsub.Event)
	Subscribe() chan pubsub.Event
	Unsubscribe(chan pubsub.Event)
}) *pubsub.PubSub {
	return pubsub.NewWithUpstream(ps)
}
