package config

import "time"

type App struct {
	Port                string        `env:"APP_PORT" default:"8080"`
	DatabaseURL         string        `env:"DATABASE_URL,required"`
	JWTSecret           string        `env:"JWT_SECRET,required"`
	RedisAddr           string        `env:"REDIS_ADDR" default:"localhost:6379"`
	InventoryBaseURL    string        `env:"INVENTORY_BASE_URL,required"`
	VerificationBaseURL string        `env:"VERIFICATION_BASE_URL,required"`
	MidtransBaseURL     string        `env:"MIDTRANS_BASE_URL" default:"https://app.sandbox.midtrans.com"`
	MidtransServerKey   string        `env:"MIDTRANS_SERVER_KEY,required"`
	SweepInterval       time.Duration `env:"SWEEP_INTERVAL" default:"1m"`
	Env                 string        `env:"APP_ENV" default:"dev"`
}
