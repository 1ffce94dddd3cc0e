package config

import (
	"log/slog"
	"os"
	"time"
)

func Load() App {
	cfg := App{
		Port:                getenv("APP_PORT", "8080"),
		DatabaseURL:         must("DATABASE_URL"),
		JWTSecret:           getenv("JWT_SECRET", "local_dev_secret"),
		RedisAddr:           getenv("REDIS_ADDR", "localhost:6379"),
		InventoryBaseURL:    must("INVENTORY_BASE_URL"),
		VerificationBaseURL: must("VERIFICATION_BASE_URL"),
		MidtransBaseURL:     getenv("MIDTRANS_BASE_URL", "https://app.sandbox.midtrans.com"),
		MidtransServerKey:   must("MIDTRANS_SERVER_KEY"),
		SweepInterval:       getdur("SWEEP_INTERVAL", time.Minute),
		Env:                 getenv("APP_ENV", "dev"),
	}
	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("bad duration env, using default", "key", k, "value", v)
		return def
	}
	return d
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		slog.Error("required env missing", "key", k)
		panic("missing env " + k)
	}
	return v
}
