package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fincoach/coach/internal/agent"
	"github.com/fincoach/coach/internal/api/handlers"
	"github.com/fincoach/coach/internal/api/middleware"
	"github.com/fincoach/coach/internal/demo"
	infraBQ "github.com/fincoach/coach/internal/infra/bigquery"
	"github.com/fincoach/coach/internal/knowledge"
	"github.com/fincoach/coach/internal/logger"
	"github.com/fincoach/coach/internal/memory"
	"github.com/fincoach/coach/internal/narrator"
)

func main() {
	// Parse command-line flags
	var (
		port        = flag.String("port", "8080", "HTTP server port")
		source      = flag.String("source", "demo", "transaction source: demo or bigquery")
		narratorKey = flag.String("narrator", "static", "narrator backend: static or gemini")
		project     = flag.String("project", os.Getenv("GOOGLE_CLOUD_PROJECT"), "GCP project for the bigquery source (or set GOOGLE_CLOUD_PROJECT env)")
		dataset     = flag.String("dataset", "", "BigQuery dataset holding coach tables")
		bucket      = flag.String("bucket", os.Getenv("KNOWLEDGE_BUCKET"), "GCS bucket with guidance articles (or set KNOWLEDGE_BUCKET env)")
	)
	flag.Parse()

	// Initialize logger
	log := logger.New()

	ctx := context.Background()

	// Initialize transaction source and customer memory store
	var (
		transactions agent.TransactionSource
		customers    memory.CustomerStore
	)
	switch *source {
	case "demo":
		transactions = demo.Personas(time.Now)
		customers = memory.NewInMemoryCustomerStore()
	case "bigquery":
		repo, err := infraBQ.NewRepository(ctx, *project, *dataset)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery repository")
		}
		defer repo.Close()
		transactions = repo
		customers = repo
	default:
		log.Fatal().Str("source", *source).Msg("Unknown transaction source")
	}

	sessions := memory.NewInMemorySessionStore()

	// Knowledge base: bundled guidance articles, optionally replaced from GCS
	base := knowledge.NewBase()
	if *bucket != "" {
		base = knowledge.LoadFromGCS(ctx, log, *bucket, "guidance/")
	}

	// Narrator backend
	var narrate narrator.Narrator
	switch *narratorKey {
	case "static":
		narrate = narrator.Static{}
	case "gemini":
		gem, err := narrator.NewGemini(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Gemini narrator")
		}
		narrate = gem
	default:
		log.Fatal().Str("narrator", *narratorKey).Msg("Unknown narrator backend")
	}

	coach, err := agent.New(agent.Config{
		Sessions:     sessions,
		Customers:    customers,
		Transactions: transactions,
		Narrator:     narrate,
		Knowledge:    base,
		Logger:       logger.Component(log, "agent"),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create agent")
	}

	// Initialize handlers
	chatHandler := handlers.NewChatHandler(coach, log)
	insightsHandler := handlers.NewInsightsHandler(transactions, time.Now, log)

	// Create router
	mux := http.NewServeMux()

	// Session endpoints
	mux.HandleFunc("/api/sessions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			chatHandler.CreateSession(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Chat endpoint
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			chatHandler.Chat(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Insights endpoint
	mux.HandleFunc("/api/insights", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			insightsHandler.Insights(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", *port).Str("source", *source).Str("narrator", *narratorKey).Msg("Starting coach API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
