package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"hotel-rooming/config"
	"hotel-rooming/controllers"
	"hotel-rooming/routes"
	"hotel-rooming/services"
)

func main() {
	// Load .env (optional)
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env not found or couldn't load it; continuing with environment variables")
	}

	settings, err := config.LoadSettings()
	if err != nil {
		log.Fatalf("❌ ERROR: %v", err)
	}

	if err := config.ConnectDatabase(settings); err != nil {
		log.Fatalf("❌ Database connect failed: %v", err)
	}
	db := config.DB
	log.Printf("✅ Database (%s) connected and migrated.", settings.DBDriver)

	// Lock backend: redis when asked for and reachable, else in-process
	var locker services.KeyLocker = services.NewLocalLocker()
	if settings.LockBackend == "redis" {
		if client := config.NewRedisClient(); client != nil {
			defer client.Close()
			locker = services.NewRedisLocker(client, settings.LockTTL, settings.LockPrefix)
			log.Println("✅ Redis layout locks enabled.")
		} else {
			log.Println("⚠️  Redis unavailable; layout locks are local to this process")
		}
	}

	var events services.EventPublisher = services.NoopPublisher{}
	if settings.EventsEnabled {
		events = services.NewAMQPPublisher(settings.AMQPURL)
		log.Printf("✅ Publishing %s events.", services.RoomsAssignedQueue)
	}

	roomingService := services.NewRoomingService(db, locker, events)
	roomingService.LockWait = settings.LockWait
	roomingController := controllers.NewRoomingController(roomingService)

	router := routes.SetupRouter(roomingController, settings.JWTSecret, settings.CORSOrigins)

	addr := ":" + settings.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("🚀 Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ ListenAndServe(): %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("⚠️  Shutdown signal received, shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}
