package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config centraliza a configuração carregada do ambiente.
type Config struct {
	Port              int
	Ambiente          string
	DBDSN             string
	RedisURL          string
	SessaoTTL         time.Duration
	AllowOrigins      []string
	RateLimitPublic   RateLimitConfig
	RateLimitAuth     RateLimitConfig
	EmailAPIURL       string
	EmergencyAdminKey string
	AdminSenhaInicial string
}

// RateLimitConfig representa limites simples para throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// Load carrega variáveis de ambiente e aplica defaults seguros.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return nil, errors.New("PORT inválida")
	}
	cfg.Port = port

	cfg.Ambiente = strings.TrimSpace(getEnv("AMBIENTE", "development"))

	cfg.DBDSN = getEnv("DB_DSN", "")
	if cfg.DBDSN == "" {
		return nil, errors.New("DB_DSN obrigatório")
	}

	cfg.RedisURL = getEnv("REDIS_URL", "")
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL obrigatório")
	}

	sessaoTTL, err := parseDurationEnv("SESSAO_TTL", 12*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.SessaoTTL = sessaoTTL

	allowOrigins := strings.Split(getEnv("ALLOW_ORIGINS", ""), ",")
	cfg.AllowOrigins = nil
	for _, origin := range allowOrigins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		}
	}

	cfg.RateLimitPublic = RateLimitConfig{RequestsPerSecond: 10, Burst: 20}
	cfg.RateLimitAuth = RateLimitConfig{RequestsPerSecond: 10, Burst: 40}

	cfg.EmailAPIURL = strings.TrimSpace(getEnv("EMAIL_API_URL", ""))
	if cfg.EmailAPIURL == "" {
		return nil, errors.New("EMAIL_API_URL obrigatório")
	}

	cfg.EmergencyAdminKey = strings.TrimSpace(getEnv("EMERGENCY_ADMIN_KEY", ""))
	if cfg.Producao() && cfg.EmergencyAdminKey == "" {
		return nil, errors.New("EMERGENCY_ADMIN_KEY obrigatório em produção")
	}

	cfg.AdminSenhaInicial = getEnv("ADMIN_INITIAL_PASSWORD", "admin123")

	return cfg, nil
}

// Producao indica se a API roda em ambiente de produção.
func (c *Config) Producao() bool {
	return strings.EqualFold(c.Ambiente, "production")
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	val := getEnv(key, "")
	if val == "" {
		return def, nil
	}
	dur, err := time.ParseDuration(val)
	if err != nil {
		return 0, errors.New(key + " inválido")
	}
	return dur, nil
}
