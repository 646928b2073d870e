package main

import (
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/kioku-app/kioku-api/config"
	"github.com/kioku-app/kioku-api/handlers"
	"github.com/kioku-app/kioku-api/logger"
	"github.com/kioku-app/kioku-api/middleware"
	"github.com/kioku-app/kioku-api/scheduler"
	"github.com/kioku-app/kioku-api/store"
)

func init() {
	// Load .env file if not in production environment
	if os.Getenv("RAILWAY_ENVIRONMENT_NAME") == "" {
		err := godotenv.Load()
		if err != nil {
			log.Printf("Warning: .env file not found, environment variables might not be loaded: %v", err)
		}
	}
}

func main() {
	baseLog, err := logger.New(config.Env.LogMode)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer baseLog.Sync()
	middleware.SetLogger(baseLog)

	// Initialize database connection
	config.Connect()
	authMiddleware := middleware.EnsureValidToken()

	reviewStore := store.NewGormReviewStore(config.Database, baseLog)
	catalog := store.NewGormCatalog(config.Database, baseLog)

	studyHandler := &handlers.StudyHandler{
		DB:       config.Database,
		Store:    reviewStore,
		Builder:  scheduler.NewQueueBuilder(reviewStore, catalog, baseLog),
		Sessions: scheduler.NewSessionManager(reviewStore, catalog, baseLog),
		Log:      baseLog.With("component", "StudyHandler"),
	}
	mux := http.NewServeMux()

	// Study
	mux.HandleFunc("GET /api/study/queue", middleware.SyncUserMiddleware(studyHandler.GetStudyQueue))
	mux.HandleFunc("POST /api/study/sessions", middleware.SyncUserMiddleware(studyHandler.StartSession))
	mux.HandleFunc("GET /api/study/sessions/{sessionID}/next", middleware.SyncUserMiddleware(studyHandler.GetNextCard))
	mux.HandleFunc("POST /api/study/sessions/{sessionID}/grades", middleware.SyncUserMiddleware(studyHandler.SubmitGrade))
	mux.HandleFunc("DELETE /api/study/sessions/{sessionID}", middleware.SyncUserMiddleware(studyHandler.CloseSession))
	mux.HandleFunc("GET /api/study/cards/{cardID}/preview", middleware.SyncUserMiddleware(studyHandler.PreviewCard))

	// Settings
	mux.HandleFunc("GET /api/study/settings", middleware.SyncUserMiddleware(studyHandler.GetSettings))
	mux.HandleFunc("PUT /api/study/settings", middleware.SyncUserMiddleware(studyHandler.UpdateSettings))

	// Catalog
	mux.HandleFunc("GET /api/decks", middleware.SyncUserMiddleware(studyHandler.GetDecks))
	mux.HandleFunc("GET /api/decks/{deckID}/cards", middleware.SyncUserMiddleware(studyHandler.GetCardsForDeck))
	mux.HandleFunc("POST /api/decks/{deckID}/unlock", middleware.SyncUserMiddleware(studyHandler.UnlockDeck))

	// User
	mux.HandleFunc("GET /api/me", middleware.SyncUserMiddleware(studyHandler.GetCurrentUser))

	handler := http.Handler(mux)
	if config.Env.IsDevelopment {
		// Local login endpoint for setups without an Auth0 tenant
		devMux := http.NewServeMux()
		devMux.HandleFunc("POST /api/auth/login", handlers.DevLogin)
		devMux.Handle("/", authMiddleware(mux))
		handler = devMux
	} else {
		handler = authMiddleware(mux)
	}

	// Configure CORS with specific options
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "https://app.kioku.study"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With", "Accept", "Origin"},
		AllowCredentials: true,
		MaxAge:           86400,
	}).Handler(handler)

	// Server configuration

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080" // fallback port for local development
	}
	serverAddr := "0.0.0.0:" + port

	baseLog.Info("listening", "addr", serverAddr)
	http.ListenAndServe(serverAddr, corsHandler)
}
