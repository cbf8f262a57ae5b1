package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/biruk-77/bysell-backend-sub000/config"
	"github.com/biruk-77/bysell-backend-sub000/internal/database"
	"github.com/biruk-77/bysell-backend-sub000/internal/repository"
	"github.com/biruk-77/bysell-backend-sub000/internal/router"
	"github.com/biruk-77/bysell-backend-sub000/pkg/cloudinary"
	"github.com/biruk-77/bysell-backend-sub000/pkg/sms"
)

func main() {
	cfg := config.Load()

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	database.SeedAdmin(db, &cfg.Admin)

	cloud, err := cloudinary.NewClientFromParams(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret)
	if err != nil {
		log.Fatalf("cloudinary: %v", err)
	}

	var sender sms.Sender
	if cfg.SMS.BaseURL != "" && cfg.SMS.APIKey != "" {
		sender = sms.NewHTTPProvider(cfg.SMS.BaseURL, cfg.SMS.APIKey, cfg.SMS.SenderID)
	} else {
		log.Println("[sms] no provider configured, codes will be logged")
		sender = sms.LogProvider{}
	}

	engine, sweeper := router.Setup(cfg, db, cloud, sender)
	sweeper.Start()

	// expired login codes are dead weight; sweep them daily
	otpRepo := repository.NewOTPRepository(db)
	otpPurge := time.NewTicker(24 * time.Hour)
	defer otpPurge.Stop()
	go func() {
		for range otpPurge.C {
			if err := otpRepo.PurgeExpired(time.Now().Add(-24 * time.Hour)); err != nil {
				log.Printf("[otp] purge failed: %v", err)
			}
		}
	}()

	srv := &http.Server{
		Addr:        ":" + cfg.Server.Port,
		Handler:     engine,
		ReadTimeout: cfg.Server.ReadTimeout,
		// no WriteTimeout: it would sever long-lived websocket sessions
	}
	go func() {
		log.Printf("server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server shutdown: %v", err)
	}
	log.Println("server stopped")
}
