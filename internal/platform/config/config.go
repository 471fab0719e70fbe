// Pacote config centraliza o carregamento das variáveis de ambiente usadas pelos binários.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config agrega todos os parâmetros necessários para API, worker e awardsctl.
type Config struct {
	HTTPAddress string
	LogLevel    string

	DBDriver   string
	SQLitePath string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	RedisAddr               string
	RedisPassword           string
	RedisDB                 int
	RedisPoolSize           int
	RedisPoolTimeoutSeconds int

	QueueKey      string
	CounterPrefix string
	AsyncCounters bool

	RateLimitEnabled        bool
	RateLimitMaxActions     int
	RateLimitOriginFailures int
	RateLimitWindowSeconds  int
	RateLimitKeyPrefix      string

	// TrustedProxies lista as redes cujos X-Forwarded-For/X-Real-IP são aceitos.
	TrustedProxies []netip.Prefix

	UploadEndpoint       string
	UploadAPIKey         string
	UploadTimeoutSeconds int

	AutoMigrate bool

	SessionTTLHours int

	WorkerMetricsAddress string
}

// Load lê o ambiente. Um arquivo .env (ou ENV_FILE) é carregado antes, sem sobrescrever
// variáveis já definidas no processo.
func Load() (Config, error) {
	envFile := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: falha lendo %s: %w", envFile, err)
	}

	// Defaults priorizam execução local; variáveis permitem sobrescrever em Docker/K8s.
	cfg := Config{
		HTTPAddress:             getEnv("HTTP_ADDRESS", ":8080"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		DBDriver:                getEnv("DB_DRIVER", "postgres"),
		SQLitePath:              getEnv("SQLITE_PATH", "awards.db"),
		PostgresHost:            getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:            getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:            getEnv("POSTGRES_USER", "awards"),
		PostgresPassword:        getEnv("POSTGRES_PASSWORD", "awards"),
		PostgresDB:              getEnv("POSTGRES_DB", "awards"),
		PostgresSSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
		RedisAddr:               getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:           os.Getenv("REDIS_PASSWORD"),
		RedisPoolSize:           getEnvAsInt("REDIS_POOL_SIZE", 50),
		RedisPoolTimeoutSeconds: getEnvAsInt("REDIS_POOL_TIMEOUT_SECONDS", 5),
		QueueKey:                getEnv("REDIS_QUEUE_KEY", "fila:cedulas"),
		CounterPrefix:           getEnv("REDIS_COUNTER_PREFIX", "contador"),
		AsyncCounters:           getEnvAsBool("COUNTERS_ASYNC", true),
		RateLimitEnabled:        getEnvAsBool("ANTIFRAUDE_RATE_LIMIT_ENABLED", true),
		RateLimitMaxActions:     getEnvAsInt("ANTIFRAUDE_RATE_LIMIT_MAX", 5),
		RateLimitOriginFailures: getEnvAsInt("ANTIFRAUDE_ORIGIN_MAX_FAILURES", 20),
		RateLimitWindowSeconds:  getEnvAsInt("ANTIFRAUDE_RATE_LIMIT_WINDOW", 60),
		RateLimitKeyPrefix:      getEnv("ANTIFRAUDE_RATE_LIMIT_PREFIX", "ratelimit"),
		UploadEndpoint:          os.Getenv("UPLOAD_ENDPOINT"),
		UploadAPIKey:            os.Getenv("UPLOAD_API_KEY"),
		UploadTimeoutSeconds:    getEnvAsInt("UPLOAD_TIMEOUT_SECONDS", 15),
		AutoMigrate:             getEnvAsBool("DB_AUTO_MIGRATE", true),
		SessionTTLHours:         getEnvAsInt("SESSION_TTL_HOURS", 720),
		WorkerMetricsAddress:    getEnv("WORKER_METRICS_ADDRESS", ":9090"),
	}

	dbStr := getEnv("REDIS_DB", "0")
	dbInt, err := strconv.Atoi(dbStr)
	if err != nil {
		return Config{}, fmt.Errorf("config: REDIS_DB invalido: %w", err)
	}
	cfg.RedisDB = dbInt

	proxies, err := parseTrustedProxies(os.Getenv("TRUSTED_PROXIES"))
	if err != nil {
		return Config{}, err
	}
	cfg.TrustedProxies = proxies

	switch cfg.DBDriver {
	case "postgres", "sqlite":
	default:
		return Config{}, fmt.Errorf("config: DB_DRIVER invalido: %q", cfg.DBDriver)
	}

	return cfg, nil
}

// SessionTTL é a validade das sessões emitidas pelo awardsctl.
func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

func (c Config) PostgresDSN() string {
	// Mantemos o formato DSN compatível com GORM e ferramentas de migração.
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.PostgresUser,
		c.PostgresPassword,
		c.PostgresHost,
		c.PostgresPort,
		c.PostgresDB,
		c.PostgresSSLMode,
	)
}

// parseTrustedProxies aceita CIDRs ou IPs soltos separados por vírgula.
func parseTrustedProxies(raw string) ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if !strings.Contains(item, "/") {
			addr, err := netip.ParseAddr(item)
			if err != nil {
				return nil, fmt.Errorf("config: TRUSTED_PROXIES invalido %q: %w", item, err)
			}
			prefixes = append(prefixes, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
			continue
		}
		prefix, err := netip.ParsePrefix(item)
		if err != nil {
			return nil, fmt.Errorf("config: TRUSTED_PROXIES invalido %q: %w", item, err)
		}
		prefixes = append(prefixes, prefix.Masked())
	}
	return prefixes, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvAsInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

func getEnvAsBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	switch value {
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return true
	}
}
