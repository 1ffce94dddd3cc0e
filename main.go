// Package main vehicle rental booking API.
//
// @title           Vehicle Rental Booking API
// @version         1.0
// @description     Booking reservation and payment-hold lifecycle service.
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vehiclerental/app/echoServer"
	bookingctrl "vehiclerental/app/echoServer/controller/booking"
	paymentctrl "vehiclerental/app/echoServer/controller/payment"
	"vehiclerental/app/echoServer/validation"
	"vehiclerental/config"
	"vehiclerental/migrations"
	bookingrepo "vehiclerental/repository/booking"
	inventoryrepo "vehiclerental/repository/inventory"
	midtransrepo "vehiclerental/repository/midtrans"
	verificationrepo "vehiclerental/repository/verification"
	bookingsvc "vehiclerental/service/booking"
	holdsvc "vehiclerental/service/hold"
	"vehiclerental/service/notify"
	paymentsvc "vehiclerental/service/payment"
	"vehiclerental/util/clock"
	"vehiclerental/util/database"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	echoSwagger "github.com/swaggo/echo-swagger"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// DB
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := migrations.Apply(ctx, db); err != nil {
		log.Error("apply migrations failed", "err", err)
		os.Exit(1)
	}

	// event publisher
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	publisher, err := notify.NewRedisPublisher(redisClient, watermill.NewSlogLogger(log))
	if err != nil {
		log.Error("event publisher init failed", "err", err)
		os.Exit(1)
	}
	defer publisher.Close()
	notifier := notify.New(publisher, log)

	// repos
	br := bookingrepo.New(db)
	ir := inventoryrepo.NewHTTP(cfg.InventoryBaseURL)
	vr := verificationrepo.NewHTTP(cfg.VerificationBaseURL)
	mr := midtransrepo.NewHTTP(cfg.MidtransBaseURL, cfg.MidtransServerKey)

	// services
	clk := clock.NewSystem()
	bs := bookingsvc.New(db, br, ir, vr, mr, clk)
	hs := holdsvc.New(db, br, ir, notifier, clk, log)
	ps := paymentsvc.New(db, br, ir, mr, notifier, log)

	// expiry sweep: the server-side authority on hold expiry, whatever
	// any client countdown shows
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go hs.Run(sweepCtx, cfg.SweepInterval)

	// controllers
	v := validation.New()
	bookingC := &bookingctrl.Controller{Svc: bs, Holds: hs, V: v, Log: log}
	paymentC := &paymentctrl.Controller{Svc: ps, Log: log}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = v

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Booking:   bookingC,
		Payment:   paymentC,
		JWTSecret: cfg.JWTSecret,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	go func() {
		log.Info("starting server", "port", port)
		if err := e.Start(":" + port); err != nil {
			log.Info("server stopped", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info("shutdown signal received")

	stopSweep()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "err", err)
	}
}
