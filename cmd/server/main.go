package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"olimpiada_backend/internal/api"
	"olimpiada_backend/internal/app/service"
	"olimpiada_backend/internal/app/worker"
	"olimpiada_backend/internal/common/security"
	"olimpiada_backend/internal/domain/repository"
	"olimpiada_backend/internal/platform/config"
	"olimpiada_backend/internal/platform/database"
	"olimpiada_backend/internal/platform/queue"
)

func main() {
	// 1. Load Configuration
	config.Load()
	fmt.Println("Configuration loaded.")

	// 2. Initialize JWT
	security.InitJWT()
	fmt.Println("JWT initialized.")

	// 3. Initialize Database
	database.Connect()
	defer database.Close()
	fmt.Println("Database connected.")

	if err := database.EnsureSchema(database.DB); err != nil {
		log.Fatalf("Could not ensure database schema: %v", err)
	}
	fmt.Println("Database schema ensured.")

	// 4. Initialize Redis
	queue.ConnectRedis()
	defer queue.CloseRedis()
	fmt.Println("Redis connected.")

	// 5. Initialize Repositories
	personRepo := repository.NewPgPersonRepository(database.DB)
	catalogRepo := repository.NewPgCatalogRepository(database.DB)
	modalityRepo := repository.NewPgModalityRepository(database.DB)
	competitionRepo := repository.NewPgCompetitionRepository(database.DB)
	enrollmentRepo := repository.NewPgEnrollmentRepository(database.DB)

	// 6. Initialize Services
	authService := service.NewAuthService(personRepo)
	modalityService := service.NewModalityService(catalogRepo, modalityRepo)
	registryService := service.NewRegistryService(personRepo, catalogRepo, database.DB)
	enrollmentService := service.NewEnrollmentService(personRepo, catalogRepo, competitionRepo, enrollmentRepo, modalityService, registryService, database.DB, queue.RDB)
	competitionService := service.NewCompetitionService(competitionRepo, database.DB)
	cashierService := service.NewCashierService(enrollmentRepo)
	consultaService := service.NewConsultaService(personRepo, catalogRepo, competitionRepo, enrollmentRepo)

	// 7. Initialize Receipt Worker (as a goroutine)
	receiptWorker := worker.NewReceiptWorker(queue.RDB, enrollmentRepo, personRepo, competitionRepo)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go receiptWorker.Start(workerCtx)
	fmt.Println("Receipt worker started.")

	// 8. Initialize Router & HTTP Server
	router := api.NewRouter(authService, enrollmentService, competitionService, registryService, cashierService, consultaService)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 9. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", config.AppConfig.APIPort, err)
		}
	}()
	log.Println("Server started successfully.")

	<-stop // Wait for interrupt signal

	log.Println("Shutting down server...")
	workerCancel() // Signal worker to stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server and worker stopped gracefully.")
}
