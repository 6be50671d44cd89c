package config

import (
	"flag"
	"os"
	"strconv"
	"time"
)

type Config struct {
	RunAddress    string
	PublicBaseURL string

	// first platform (YemekSepeti) upstream API; all optional, absence
	// degrades to polling-only mode
	YemekSepetiBaseURL string
	ChainCode          string
	Username           string
	Password           string
	CheckInterval      time.Duration

	// static POS polling secrets, one per integration
	YemekSepetiAPIKey string
	GetirYemekAPIKey  string

	// fallback secret key stamped on GetirYemek events without a header
	GetirSecretKey string

	// remove orders from the polling set on accepted/rejected callbacks
	// instead of keeping them with a terminal status
	TerminalDelete bool
}

func New() *Config {
	cfg := &Config{}

	flag.StringVar(&cfg.RunAddress, "a", ":3000", "server address and port")
	flag.StringVar(&cfg.PublicBaseURL, "b", "", "public base URL for synthesized callback URLs")
	flag.StringVar(&cfg.YemekSepetiBaseURL, "r", "https://integration-middleware.stg.restaurant-partners.com", "yemeksepeti middleware base URL")
	flag.Parse()

	cfg.RunAddress = getEnv("RUN_ADDRESS", cfg.RunAddress)
	cfg.PublicBaseURL = getEnv("PUBLIC_BASE_URL", cfg.PublicBaseURL)
	cfg.YemekSepetiBaseURL = getEnv("YEMEKSEPETI_BASE_URL", cfg.YemekSepetiBaseURL)
	cfg.ChainCode = getEnv("YEMEKSEPETI_CHAIN_CODE", "")
	cfg.Username = getEnv("YEMEKSEPETI_USERNAME", "")
	cfg.Password = getEnv("YEMEKSEPETI_PASSWORD", "")
	cfg.CheckInterval = time.Duration(getEnvInt("YEMEKSEPETI_CHECK_INTERVAL_MINUTES", 5)) * time.Minute
	cfg.YemekSepetiAPIKey = getEnv("YEMEKSEPETI_API_KEY", "yemeksepeti-polling-secret")
	cfg.GetirYemekAPIKey = getEnv("GETIRYEMEK_API_KEY", "getiryemek-polling-secret")
	cfg.GetirSecretKey = getEnv("GETIRYEMEK_DEFAULT_SECRET_KEY", "")
	cfg.TerminalDelete = getEnvBool("TERMINAL_DELETE", false)

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
