package main

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"fashion-ai-server/modules/account"
	"fashion-ai-server/modules/common/auth"
	"fashion-ai-server/modules/common/cache"
	"fashion-ai-server/modules/common/config"
	"fashion-ai-server/modules/common/database"
	"fashion-ai-server/modules/common/quota"
	"fashion-ai-server/modules/common/session"
	"fashion-ai-server/modules/common/storage"
	"fashion-ai-server/modules/generation"
	"fashion-ai-server/modules/script"
	"fashion-ai-server/modules/vton"
)

// CORS middleware
func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Health check endpoint
func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "fashion-ai-server",
	})
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	dbClient := database.NewClient(cfg)
	if dbClient == nil {
		log.Fatal("❌ Failed to initialize database client")
	}

	authClient := auth.NewClient(cfg)
	storageClient := storage.NewClient(cfg)
	quotas := quota.NewManager(dbClient)
	statuses := cache.NewStatusCache(cache.Connect(cfg))

	// Try-on provider: mock keeps the whole lifecycle working without
	// provider credentials.
	var provider vton.Provider
	if cfg.UseMockVTON {
		provider = vton.NewMock()
	} else {
		provider = vton.NewService(cfg)
	}

	scriptService := script.NewService(cfg)
	if scriptService == nil {
		log.Fatal("❌ Failed to initialize script service")
	}

	generationService := generation.NewService(dbClient, provider, quotas, storageClient, statuses)

	accountHandler := account.NewHandler(authClient)
	scriptHandler := script.NewHandler(scriptService, quotas, dbClient)
	generationHandler := generation.NewHandler(generationService, storageClient)

	r := mux.NewRouter()
	r.Use(enableCORS)
	r.Use(session.Guard(authClient))

	r.HandleFunc("/health", healthCheck).Methods("GET")

	r.HandleFunc("/api/auth/login", accountHandler.HandleLogin).Methods("POST")
	r.HandleFunc("/api/auth/signup", accountHandler.HandleSignup).Methods("POST")
	r.HandleFunc("/api/auth/logout", accountHandler.HandleLogout).Methods("POST")

	r.HandleFunc("/api/scripts", scriptHandler.HandleGenerate).Methods("POST")

	r.HandleFunc("/api/uploads", generationHandler.HandleUpload).Methods("POST")
	r.HandleFunc("/api/generations", generationHandler.HandleSubmit).Methods("POST")
	r.HandleFunc("/api/generations/{id}/status", generationHandler.HandleStatus).Methods("GET")
	r.HandleFunc("/api/generations/{id}/watch", generationHandler.HandleWatch).Methods("GET")

	log.Printf("🚀 Fashion AI Server starting on port %s", cfg.Port)
	log.Printf("❤️  Health check: http://localhost:%s/health", cfg.Port)

	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
