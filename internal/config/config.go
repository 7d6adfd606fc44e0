package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"marktplatz/internal/records"
	"marktplatz/internal/vision"
)

type Config struct {
	Port    string
	DBDSN   string
	LogFile string

	BackendURL           string
	BackendSessionCookie string
	BackendSession       string
	// BackendTimeout and VisionTimeout bound outbound calls; zero means none.
	BackendTimeout       time.Duration

	VisionURL       string
	VisionAPIKey    string
	VisionModel     string
	VisionMaxTokens int
	VisionTimeout   time.Duration

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3PublicURL string

	AdminEmail    string
	AdminPassword string

	MaxUploadBytes int
}

func Load() Config {
	// a missing .env is normal outside development
	_ = godotenv.Load()

	cfg := Config{
		Port:    getEnv("PORT", "8080"),
		DBDSN:   getEnv("DB_DSN", "marktplatz.db"),
		LogFile: getEnv("LOG_FILE", "./marktplatz.log"),

		BackendURL:           getEnv("BACKEND_URL", records.Host),
		BackendSessionCookie: getEnv("BACKEND_SESSION_COOKIE", "sessionid"),
		BackendSession:       os.Getenv("BACKEND_SESSION"),
		BackendTimeout:       getEnvAsSeconds("BACKEND_TIMEOUT_SECONDS", 0),

		VisionURL:       getEnv("VISION_URL", vision.DefaultURL),
		VisionAPIKey:    os.Getenv("VISION_API_KEY"),
		VisionModel:     getEnv("VISION_MODEL", vision.DefaultModel),
		VisionMaxTokens: getEnvAsInt("VISION_MAX_TOKENS", vision.DefaultMaxTokens),
		VisionTimeout:   getEnvAsSeconds("VISION_TIMEOUT_SECONDS", 0),

		S3Bucket:    os.Getenv("S3_BUCKET"),
		S3Region:    getEnv("S3_REGION", "eu-central-1"),
		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3PublicURL: os.Getenv("S3_PUBLIC_URL"),

		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		MaxUploadBytes: getEnvAsInt("MAX_UPLOAD_BYTES", 8<<20),
	}
	log.Printf("[config] PORT=%s DB_DSN=%s LOG_FILE=%s BACKEND_URL=%s VISION_URL=%s VISION_MODEL=%s S3_BUCKET=%s",
		cfg.Port, cfg.DBDSN, cfg.LogFile, cfg.BackendURL, cfg.VisionURL, cfg.VisionModel, cfg.S3Bucket)
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSeconds(key string, defaultValue int) time.Duration {
	n := getEnvAsInt(key, defaultValue)
	if n < 0 {
		n = defaultValue
	}
	return time.Duration(n) * time.Second
}
