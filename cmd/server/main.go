package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/smartquiz/backend/internal/auth"
	"github.com/smartquiz/backend/internal/cache"
	"github.com/smartquiz/backend/internal/database"
	"github.com/smartquiz/backend/internal/generator"
	"github.com/smartquiz/backend/internal/middleware"
	"github.com/smartquiz/backend/internal/quiz"
	"github.com/smartquiz/backend/internal/ratelimit"
)

func main() {
	// Initialize database
	db, err := database.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Redis backs the result cache and the rate limiter. Both are soft
	// dependencies: the server starts and serves without it.
	rdb := cache.NewRedisClient()
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Printf("WARN: Redis not reachable, caching and rate limiting degraded: %v", err)
	} else {
		log.Println("Redis connected successfully")
	}

	resultCache := cache.NewResultCache(rdb)
	limiter := ratelimit.NewLimiter(rdb)
	gen := generator.NewFromEnv()

	// Initialize services and handlers
	quizStore := quiz.NewStore(db)
	quizService := quiz.NewService(quizStore, gen, resultCache, limiter)
	quizHandler := quiz.NewHandler(quizService)
	authHandler := auth.NewHandler(db, limiter)

	// Setup router
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware)
	protected.HandleFunc("/auth/me", authHandler.GetCurrentUser).Methods("GET")
	protected.HandleFunc("/questions/generate", quizHandler.GenerateQuestions).Methods("POST")
	protected.HandleFunc("/quiz/feedback", quizHandler.GenerateFeedback).Methods("POST")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		services := map[string]string{
			"database": "healthy",
			"redis":    "healthy",
			"provider": "configured",
		}
		status := "healthy"

		if err := db.Ping(); err != nil {
			services["database"] = "unhealthy"
			status = "degraded"
		}
		if err := resultCache.Ping(req.Context()); err != nil {
			services["redis"] = "unhealthy"
			status = "degraded"
		}
		if !gen.Available() {
			services["provider"] = "not_configured"
			status = "degraded"
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":    status,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"services":  services,
		})
	}).Methods("GET")

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	handler := c.Handler(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
