package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"taskflow/services/tasks-service/handlers"
	"taskflow/services/tasks-service/logging"
	"taskflow/services/tasks-service/middleware"
	"taskflow/services/tasks-service/notifications"
	"taskflow/services/tasks-service/repositories"
	"taskflow/services/tasks-service/services"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	logging.InitLogger()

	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Tasks Service...")
	if err := godotenv.Load(".env"); err != nil {
		logging.Logger.Warnf("Event ID: ENV_LOAD_ERROR, Description: Error loading .env file: %v", err)
	}

	mongoURI := os.Getenv("MONGO_URI")
	mongoDBName := os.Getenv("MONGO_DB_NAME")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Database connection for MongoDB failed: %v", err)
	}
	defer client.Disconnect(ctx)

	if err := client.Ping(ctx, nil); err != nil {
		logging.Logger.Fatalf("Event ID: DB_PING_FAILED, Description: MongoDB connection ping error: %v", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB at %s.", mongoURI)

	db := client.Database(mongoDBName)
	tasksCollection := db.Collection("tasks")
	usersCollection := db.Collection("users")
	rolesCollection := db.Collection("roles")
	countersCollection := db.Collection("counters")

	taskRepo := repositories.NewTaskRepo(tasksCollection, usersCollection, countersCollection)
	roleRepo := repositories.NewRoleRepo(rolesCollection)
	userRepo := repositories.NewUserRepo(usersCollection, rolesCollection)

	if err := roleRepo.EnsureDefaultRoles(ctx); err != nil {
		logging.Logger.Fatalf("Event ID: ROLE_SEED_FAILED, Description: Could not seed default roles: %v", err)
	}

	notificationsBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "notifications-cb",
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' state changed from %s to %s", name, from.String(), to.String())
		},
	})
	notifier := notifications.NewHTTPNotifier(os.Getenv("NOTIFICATIONS_SERVICE_URL"), nil, notificationsBreaker)

	taskService := services.NewTaskService(taskRepo, roleRepo, userRepo, notifier)
	roleService := services.NewRoleService(roleRepo, userRepo)
	authService := services.NewAuthService(userRepo, roleRepo)

	taskHandler := handlers.NewTaskHandler(taskService)
	roleHandler := handlers.NewRoleHandler(roleService)
	authHandler := handlers.NewAuthHandler(authService)

	r := mux.NewRouter()

	r.HandleFunc("/api/auth/login", authHandler.Login).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.JWTAuthMiddleware)

	api.HandleFunc("/tasks", taskHandler.CreateTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks", taskHandler.GetTasks).Methods(http.MethodGet)
	api.HandleFunc("/tasks/approvals", taskHandler.GetPendingApprovals).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{id}", taskHandler.GetTask).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{id}", taskHandler.DeleteTask).Methods(http.MethodDelete)
	api.HandleFunc("/tasks/{id}/status", taskHandler.UpdateTaskStatus).Methods(http.MethodPatch)
	api.HandleFunc("/tasks/{id}/forward", taskHandler.ForwardTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{id}/comments", taskHandler.AddComment).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{id}/approve", taskHandler.ApproveTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{id}/reject", taskHandler.RejectTask).Methods(http.MethodPost)

	api.HandleFunc("/roles", roleHandler.GetRoles).Methods(http.MethodGet)
	api.HandleFunc("/roles", roleHandler.CreateRole).Methods(http.MethodPost)
	api.HandleFunc("/roles/{id}", roleHandler.GetRole).Methods(http.MethodGet)
	api.HandleFunc("/roles/{id}", roleHandler.UpdateRole).Methods(http.MethodPut)
	api.HandleFunc("/roles/{id}", roleHandler.DeleteRole).Methods(http.MethodDelete)

	corsRouter := enableCORS(r)

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: SERVER_PORT is not set in the environment variables.")
	}

	serverAddress := fmt.Sprintf(":%s", serverPort)
	logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", serverAddress)

	if err := http.ListenAndServe(serverAddress, corsRouter); err != nil {
		logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
	}
}
