package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Krimson/heart-risk/internal/advisory"
	"github.com/Krimson/heart-risk/internal/canary"
	"github.com/Krimson/heart-risk/internal/modelstore"
)

// DefaultPath файл конфигурации, если CONFIG_PATH не задан.
const DefaultPath = "config.yaml"

// Источники модели.
const (
	ModelSourceFile     = "file"
	ModelSourcePostgres = "postgres"
	ModelSourceRemote   = "remote"
)

// Config содержит все настройки приложения
type Config struct {
	HTTPPort string `yaml:"http_port"`
	GRPCPort string `yaml:"grpc_port"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Модель: источники перебираются в порядке ModelSources
	ModelSources  []string      `yaml:"model_sources"`
	ModelPaths    []string      `yaml:"model_paths"`
	ModelName     string        `yaml:"model_name"`
	MLServiceAddr string        `yaml:"ml_service_addr"`
	MLTimeout     time.Duration `yaml:"ml_timeout"`

	// PostgreSQL хранит только артефакты модели; пустой DSN отключает источник
	PostgresDSN string `yaml:"postgres_dsn"`

	// Redis для ленты оценок; пустой адрес: лента только внутри процесса
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	FeedChannel   string `yaml:"feed_channel"`

	Advisory advisory.Thresholds `yaml:"advisory"`

	// CanarySchedule cron-выражение; пустая строка отключает периодическую проверку
	CanarySchedule string `yaml:"canary_schedule"`

	DatasetPath string `yaml:"dataset_path"`
	CORSOrigin  string `yaml:"cors_origin"`
}

// Default значения по умолчанию.
func Default() *Config {
	return &Config{
		HTTPPort:       "8080",
		GRPCPort:       "50052",
		LogLevel:       "info",
		LogFormat:      "text",
		ModelSources:   []string{ModelSourceFile},
		ModelPaths:     append([]string(nil), modelstore.DefaultCandidates...),
		ModelName:      "heart_disease_model",
		MLServiceAddr:  "localhost:50052",
		MLTimeout:      3 * time.Second,
		RedisDB:        0,
		FeedChannel:    "heartrisk:assessments",
		Advisory:       advisory.DefaultThresholds(),
		CanarySchedule: "@every 1h",
		DatasetPath:    "heart.csv",
		CORSOrigin:     "*",
	}
}

// Load читает YAML поверх Default и применяет переменные окружения.
// path пустой: берётся CONFIG_PATH или DefaultPath, отсутствие файла не ошибка.
// Явно указанный path обязан существовать.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = getEnvString("CONFIG_PATH", DefaultPath)
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	overrideString(&c.HTTPPort, "HTTP_PORT")
	overrideString(&c.GRPCPort, "GRPC_PORT")
	overrideString(&c.LogLevel, "LOG_LEVEL")
	overrideString(&c.LogFormat, "LOG_FORMAT")
	overrideList(&c.ModelSources, "MODEL_SOURCES")
	overrideList(&c.ModelPaths, "MODEL_PATHS")
	overrideString(&c.ModelName, "MODEL_NAME")
	overrideString(&c.MLServiceAddr, "ML_SERVICE_ADDR")
	overrideString(&c.PostgresDSN, "POSTGRES_DSN")
	overrideString(&c.RedisAddr, "REDIS_ADDR")
	overrideString(&c.RedisPassword, "REDIS_PASSWORD")
	overrideString(&c.FeedChannel, "FEED_CHANNEL")
	overrideString(&c.CanarySchedule, "CANARY_SCHEDULE")
	overrideString(&c.DatasetPath, "DATASET_PATH")
	overrideString(&c.CORSOrigin, "CORS_ORIGIN")

	return errors.Join(
		overrideDuration(&c.MLTimeout, "ML_TIMEOUT"),
		overrideInt(&c.RedisDB, "REDIS_DB"),
		overrideInt(&c.Advisory.LowHeartRateWithHighBP, "ADVISORY_LOW_HEART_RATE_WITH_HIGH_BP"),
		overrideInt(&c.Advisory.ExertionalAnginaHeartRate, "ADVISORY_EXERTIONAL_ANGINA_HEART_RATE"),
	)
}

// Validate проверяет согласованность настроек.
func (c *Config) Validate() error {
	var errs []error
	if len(c.ModelSources) == 0 {
		errs = append(errs, errors.New("model_sources is empty"))
	}
	for _, src := range c.ModelSources {
		switch src {
		case ModelSourceFile:
			if len(c.ModelPaths) == 0 {
				errs = append(errs, errors.New("model_paths is empty"))
			}
		case ModelSourcePostgres:
			if c.PostgresDSN == "" {
				errs = append(errs, errors.New("model source postgres requires postgres_dsn"))
			}
		case ModelSourceRemote:
			if c.MLServiceAddr == "" {
				errs = append(errs, errors.New("model source remote requires ml_service_addr"))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown model source %q", src))
		}
	}
	if c.Advisory.LowHeartRateWithHighBP <= 0 || c.Advisory.ExertionalAnginaHeartRate <= 0 {
		errs = append(errs, fmt.Errorf("advisory thresholds must be positive, got %+v", c.Advisory))
	}
	if schedule := strings.TrimSpace(c.CanarySchedule); schedule != "" {
		if err := canary.ValidateSchedule(schedule); err != nil {
			errs = append(errs, err)
		}
	}
	if c.MLTimeout <= 0 {
		errs = append(errs, fmt.Errorf("ml_timeout must be positive, got %s", c.MLTimeout))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func overrideString(field *string, key string) {
	*field = getEnvString(key, *field)
}

// overrideList список через запятую.
func overrideList(field *[]string, key string) {
	value := os.Getenv(key)
	if value == "" {
		return
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	*field = items
}

func overrideInt(field *int, key string) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	*field = parsed
	return nil
}

func overrideDuration(field *time.Duration, key string) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	*field = parsed
	return nil
}
