package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/example/cobunny/internal/application"
)

// Store backends selectable through COBUNNY_STORE_BACKEND.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// DefaultEnvFile is read by Load when present.
const DefaultEnvFile = ".env"

// Config captures environment driven configuration values for the cobunny service.
type Config struct {
	HTTPPort       int
	StoreBackend   string
	SQLitePath     string
	RedisAddr      string
	RedisDB        int
	Namespace      string
	PasswordScheme application.PasswordScheme
	SeedUsersPath  string
	LogLevel       slog.Level
}

// Load parses configuration values from the process environment, falling back
// to values from DefaultEnvFile when it exists.
func Load() (Config, error) {
	return LoadWithEnvFiles(DefaultEnvFile)
}

// LoadWithEnvFiles parses configuration values from the process environment.
// Variables missing from the environment are looked up in the given dotenv
// files; files that do not exist are skipped. Every invalid value is reported
// in a single error.
func LoadWithEnvFiles(files ...string) (Config, error) {
	fileValues, err := readEnvFiles(files)
	if err != nil {
		return Config{}, err
	}
	lookup := func(key string) string {
		if value, ok := os.LookupEnv(key); ok {
			return strings.TrimSpace(value)
		}
		return strings.TrimSpace(fileValues[key])
	}

	cfg := Config{
		HTTPPort:       8080,
		StoreBackend:   BackendSQLite,
		SQLitePath:     "cobunny.db",
		RedisAddr:      "localhost:6379",
		Namespace:      "cobunny",
		PasswordScheme: application.PasswordSchemePlain,
		LogLevel:       slog.LevelInfo,
	}

	invalid := make([]string, 0, 4)

	if portValue := lookup("COBUNNY_HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "COBUNNY_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if backend := strings.ToLower(lookup("COBUNNY_STORE_BACKEND")); backend != "" {
		switch backend {
		case BackendSQLite, BackendRedis, BackendMemory:
			cfg.StoreBackend = backend
		default:
			invalid = append(invalid, "COBUNNY_STORE_BACKEND")
		}
	}

	if path := lookup("COBUNNY_SQLITE_PATH"); path != "" {
		cfg.SQLitePath = path
	}

	if addr := lookup("COBUNNY_REDIS_ADDR"); addr != "" {
		cfg.RedisAddr = addr
	}

	if dbValue := lookup("COBUNNY_REDIS_DB"); dbValue != "" {
		db, err := strconv.Atoi(dbValue)
		if err != nil || db < 0 {
			invalid = append(invalid, "COBUNNY_REDIS_DB")
		} else {
			cfg.RedisDB = db
		}
	}

	if namespace := lookup("COBUNNY_NAMESPACE"); namespace != "" {
		cfg.Namespace = namespace
	}

	if schemeValue := lookup("COBUNNY_PASSWORD_SCHEME"); schemeValue != "" {
		scheme, err := application.ParsePasswordScheme(schemeValue)
		if err != nil {
			invalid = append(invalid, "COBUNNY_PASSWORD_SCHEME")
		} else {
			cfg.PasswordScheme = scheme
		}
	}

	cfg.SeedUsersPath = lookup("COBUNNY_SEED_USERS")

	if levelValue := lookup("COBUNNY_LOG_LEVEL"); levelValue != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(levelValue)); err != nil {
			invalid = append(invalid, "COBUNNY_LOG_LEVEL")
		} else {
			cfg.LogLevel = level
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func readEnvFiles(files []string) (map[string]string, error) {
	values := make(map[string]string)
	for _, file := range files {
		if strings.TrimSpace(file) == "" {
			continue
		}
		parsed, err := godotenv.Read(file)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("read env file %s: %w", file, err)
		}
		for key, value := range parsed {
			if _, seen := values[key]; !seen {
				values[key] = value
			}
		}
	}
	return values, nil
}
