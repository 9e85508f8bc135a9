package config

import (
	"os"
	"strconv"
	"time"

	"ptc_mining/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort     string
	DatabaseURL string
	JWTSecret   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Mining economy
	BaseRate       float64 // coins per completed cycle before multipliers
	CycleDuration  time.Duration
	AdBuffDuration time.Duration

	// Rate limiting
	APIRateLimit  int
	APIRateWindow time.Duration
}

// Загрузка конфига из env
func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	baseRate := 0.1
	if v := os.Getenv("BASE_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			baseRate = f
		}
	}

	cycleDuration := 24 * time.Hour
	if v := os.Getenv("CYCLE_DURATION_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cycleDuration = time.Duration(n) * time.Hour
		}
	}

	adBuffDuration := 2 * time.Hour
	if v := os.Getenv("AD_BUFF_DURATION_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			adBuffDuration = time.Duration(n) * time.Minute
		}
	}

	apiRateLimit := 60
	if v := os.Getenv("API_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			apiRateLimit = n
		}
	}

	apiRateWindow := time.Minute
	if v := os.Getenv("API_RATE_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			apiRateWindow = time.Duration(n) * time.Second
		}
	}

	return &Config{
		AppPort:        port,
		DatabaseURL:    dbURL,
		JWTSecret:      jwtSecret,
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        redisDB,
		BaseRate:       baseRate,
		CycleDuration:  cycleDuration,
		AdBuffDuration: adBuffDuration,
		APIRateLimit:   apiRateLimit,
		APIRateWindow:  apiRateWindow,
	}
}
