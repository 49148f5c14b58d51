package main

import (
	"database/sql"
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"lockerbox/internal/api"
	"lockerbox/internal/auth"
	"lockerbox/internal/config"
	"lockerbox/internal/logger"
	"lockerbox/internal/repository"
	"lockerbox/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Initialize(cfg.LogLevel, cfg.LogFormat)

	database, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	if err := database.Ping(); err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}

	reservationRepo := repository.NewReservationRepository(database)
	pricingRepo := repository.NewPricingRepository(database)
	consentRepo := repository.NewConsentRepository(database)
	jobRepo := repository.NewJobRepository(database)
	adminAuthRepo := repository.NewAdminAuthRepository(database)

	var stripeService *service.StripeService
	if cfg.StripeSecretKey != "" {
		stripeService = service.NewStripeService(cfg.StripeSecretKey, cfg.Currency, cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL)
	}
	pricingService := service.NewPricingService(pricingRepo, cfg.Currency)
	senderService := service.NewSenderService(cfg)
	reservationService := service.NewReservationService(reservationRepo, consentRepo, pricingService, senderService, stripeService)
	jobService := service.NewJobService(jobRepo)
	adminAuthService := service.NewAdminAuthService(adminAuthRepo, cfg.JWTSecret)

	selfServiceHandler := api.NewSelfServiceHandler(reservationService, pricingService)
	adminHandler := api.NewAdminHandler(reservationService)
	adminAuthHandler := api.NewAdminAuthHandler(adminAuthService)

	r := mux.NewRouter()

	// Public self-service endpoints
	r.HandleFunc("/api/price-estimate", selfServiceHandler.EstimatePrice).Methods("POST")
	r.HandleFunc("/api/prices", selfServiceHandler.GetPrices).Methods("GET")
	r.HandleFunc("/api/reservations", selfServiceHandler.CreateReservation).Methods("POST")
	r.HandleFunc("/api/reservations/{code}", selfServiceHandler.LookupReservation).Methods("GET")
	r.HandleFunc("/api/reservations/{code}", selfServiceHandler.CancelReservation).Methods("DELETE")
	r.HandleFunc("/api/reservations/{code}/handover", selfServiceHandler.RecordHandover).Methods("POST")
	r.HandleFunc("/api/reservations/{code}/return", selfServiceHandler.ConfirmReturn).Methods("POST")

	// Payment webhook
	if stripeService != nil {
		stripeHandler := api.NewStripeWebhookHandler(cfg.StripeWebhookSecret, reservationService, senderService)
		r.HandleFunc("/api/stripe/webhook", stripeHandler.HandleWebhook).Methods("POST")
	}

	// Partner admin endpoints (protected)
	r.HandleFunc("/admin/login", adminAuthHandler.Login).Methods("POST")
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(auth.AdminAuthMiddleware(cfg.JWTSecret))
	admin.HandleFunc("/users", adminAuthHandler.CreateAdmin).Methods("POST")
	admin.HandleFunc("/reservations", adminHandler.ListReservations).Methods("GET")
	admin.HandleFunc("/reservations/{code}", adminHandler.GetReservation).Methods("GET")
	admin.HandleFunc("/reservations/{code}", adminHandler.CancelReservation).Methods("DELETE")

	c := cron.New()
	c.AddFunc(cfg.CronExpireSpec, func() {
		if err := jobService.ExpireUnclaimedReservations(); err != nil {
			logger.Error("expire job failed", "error", err)
		}
		if err := jobService.CompleteReturnedReservations(); err != nil {
			logger.Error("complete job failed", "error", err)
		}
	})
	c.Start()
	defer c.Stop()

	corsHandler := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)(r)

	logger.Info("server running", "port", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, corsHandler))
}
