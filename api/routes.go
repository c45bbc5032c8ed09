package api

import (
	"github.com/gorilla/mux"

	"github.com/garnizeh/snaglist/internal/blob"
	"github.com/garnizeh/snaglist/internal/config"
	"github.com/garnizeh/snaglist/internal/db"
	"github.com/garnizeh/snaglist/internal/history"
	"github.com/garnizeh/snaglist/internal/repository/sqlite"
	"github.com/garnizeh/snaglist/internal/workflow"
)

func SetupRoutes(cfg *config.Config, version, buildTime string, database *db.DB, blobs blob.Store) (*mux.Router, error) {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)

	// Repository and domain service
	repo := sqlite.New(database, logger)
	rec, err := history.NewRecorder()
	if err != nil {
		return nil, err
	}
	svc := workflow.New(repo, rec, blobs, logger)

	// Create handlers
	systemHandler := &SystemHandler{}
	authHandler := NewAuthHandler(repo, svc, cfg.JWTSecret, cfg.TokenDuration)
	objectsHandler := NewObjectsHandler(svc)
	defectsHandler := NewDefectsHandler(svc)
	commentsHandler := NewCommentsHandler(svc)
	attachmentsHandler := NewAttachmentsHandler(svc)
	usersHandler := NewUsersHandler(svc)
	historyHandler := NewHistoryHandler(svc)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	r.HandleFunc("/v1/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/v1/auth/signin", authHandler.Signin).Methods("POST")

	// API v1 Protected routes
	apiV1 := r.PathPrefix("/v1").Subrouter()
	apiV1.Use(JWTAuthMiddlewareWithSecret(cfg.JWTSecret))

	// Auth endpoints
	authV1 := apiV1.PathPrefix("/auth").Subrouter()
	authV1.HandleFunc("/signout", authHandler.Signout).Methods("POST")

	// Object endpoints
	apiV1.HandleFunc("/objects", objectsHandler.CreateObject).Methods("POST")
	apiV1.HandleFunc("/objects", objectsHandler.ListObjects).Methods("GET")
	apiV1.HandleFunc("/objects/{id}", objectsHandler.GetObject).Methods("GET")
	apiV1.HandleFunc("/objects/{id}", objectsHandler.UpdateObject).Methods("PUT")
	apiV1.HandleFunc("/objects/{id}", objectsHandler.DeleteObject).Methods("DELETE")

	// Defect endpoints
	apiV1.HandleFunc("/defects", defectsHandler.CreateDefect).Methods("POST")
	apiV1.HandleFunc("/defects", defectsHandler.ListDefects).Methods("GET")
	apiV1.HandleFunc("/defects/{id}", defectsHandler.GetDefect).Methods("GET")
	apiV1.HandleFunc("/defects/{id}", defectsHandler.UpdateDefect).Methods("PUT")
	apiV1.HandleFunc("/defects/{id}", defectsHandler.DeleteDefect).Methods("DELETE")
	apiV1.HandleFunc("/defects/{id}/assign", defectsHandler.AssignDefect).Methods("POST")
	apiV1.HandleFunc("/defects/{id}/status", defectsHandler.TransitionDefect).Methods("POST")

	// Comment endpoints
	apiV1.HandleFunc("/defects/{id}/comments", commentsHandler.AddComment).Methods("POST")
	apiV1.HandleFunc("/defects/{id}/comments", commentsHandler.ListComments).Methods("GET")
	apiV1.HandleFunc("/comments/{id}", commentsHandler.EditComment).Methods("PUT")
	apiV1.HandleFunc("/comments/{id}", commentsHandler.DeleteComment).Methods("DELETE")

	// Attachment endpoints
	apiV1.HandleFunc("/defects/{id}/attachments", attachmentsHandler.Upload).Methods("POST")
	apiV1.HandleFunc("/defects/{id}/attachments", attachmentsHandler.List).Methods("GET")
	apiV1.HandleFunc("/attachments/{id}", attachmentsHandler.Download).Methods("GET")
	apiV1.HandleFunc("/attachments/{id}", attachmentsHandler.Delete).Methods("DELETE")

	// User endpoints
	apiV1.HandleFunc("/users", usersHandler.CreateUser).Methods("POST")
	apiV1.HandleFunc("/users", usersHandler.ListUsers).Methods("GET")
	apiV1.HandleFunc("/users/me", usersHandler.UpdateProfile).Methods("PUT")
	apiV1.HandleFunc("/users/{id}", usersHandler.DeleteUser).Methods("DELETE")

	// History endpoints
	apiV1.HandleFunc("/history/{entity_type}/{id}", historyHandler.ListHistory).Methods("GET")

	return r, nil
}
