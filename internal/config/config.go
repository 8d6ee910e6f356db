package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Leganyst/route-planner/internal/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DBConfig struct {
	Driver          string `yaml:"driver"`
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	Name            string `yaml:"name"`
	SSLMode         string `yaml:"sslmode"`
	TimeZone        string `yaml:"timezone"`
	SQLitePath      string `yaml:"sqlite_path"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifeTime int    `yaml:"conn_max_lifetime_min"` // минут
}

type SchedulerConfig struct {
	// Часовой пояс арендаторов: по нему выравниваются недели и считаются даты.
	TimeZone string `yaml:"timezone"`
	// Время начала работ по умолчанию для маршрутов без своего, HH:MM.
	DefaultStart string `yaml:"default_start"`
	// Cron-выражение еженедельной материализации (5 полей).
	Cron        string `yaml:"cron"`
	CronEnabled bool   `yaml:"cron_enabled"`
	// Сколько недель вперёд материализует cron, начиная с текущей.
	WeeksAhead int `yaml:"weeks_ahead"`
	// Параллелизм пакетного переноса визитов.
	BatchConcurrency int `yaml:"batch_concurrency"`
}

type ServerConfig struct {
	GRPCAddr  string `yaml:"grpc_addr"`
	AdminAddr string `yaml:"admin_addr"`
}

type Config struct {
	DB        DBConfig        `yaml:"db"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Server    ServerConfig    `yaml:"server"`
	Log       logger.Config   `yaml:"log"`
}

func defaults() Config {
	return Config{
		DB: DBConfig{
			Driver:          DriverPostgres,
			Host:            "postgres",
			User:            "routes",
			Password:        "routes",
			Name:            "routes_db",
			SSLMode:         "disable",
			TimeZone:        "UTC",
			SQLitePath:      "route-planner.db",
			Port:            5432,
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifeTime: 30,
		},
		Scheduler: SchedulerConfig{
			TimeZone:         "UTC",
			DefaultStart:     "08:00",
			Cron:             "0 5 * * 1",
			CronEnabled:      true,
			WeeksAhead:       2,
			BatchConcurrency: 8,
		},
		Server: ServerConfig{
			GRPCAddr:  ":50051",
			AdminAddr: ":9090",
		},
		Log: logger.Config{Level: "info"},
	}
}

// Load собирает конфигурацию: значения по умолчанию, затем YAML-файл
// (ROUTEPLANNER_CONFIG, если задан), затем переменные окружения.
// Перед чтением окружения подгружаются .env.local и .env, если они есть.
func Load() (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, err
	}

	cfg := defaults()

	if path := getEnv("ROUTEPLANNER_CONFIG", ""); path != "" {
		if err := loadYAML(path, &cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadEnvFiles() error {
	// .env.local имеет приоритет: godotenv.Load не перезаписывает уже заданные переменные.
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.DB.Driver = getEnv("DB_DRIVER", cfg.DB.Driver)
	cfg.DB.Host = getEnv("DB_HOST", cfg.DB.Host)
	cfg.DB.User = getEnv("DB_USER", cfg.DB.User)
	cfg.DB.Password = getEnv("DB_PASSWORD", cfg.DB.Password)
	cfg.DB.Name = getEnv("DB_NAME", cfg.DB.Name)
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", cfg.DB.SSLMode)
	cfg.DB.TimeZone = getEnv("DB_TIMEZONE", cfg.DB.TimeZone)
	cfg.DB.SQLitePath = getEnv("DB_SQLITE_PATH", cfg.DB.SQLitePath)
	cfg.DB.Port = getEnvInt("DB_PORT", cfg.DB.Port)
	cfg.DB.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", cfg.DB.MaxOpenConns)
	cfg.DB.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", cfg.DB.MaxIdleConns)
	cfg.DB.ConnMaxLifeTime = getEnvInt("DB_CONN_MAX_LIFETIME_MIN", cfg.DB.ConnMaxLifeTime)

	cfg.Scheduler.TimeZone = getEnv("SCHEDULER_TIMEZONE", cfg.Scheduler.TimeZone)
	cfg.Scheduler.DefaultStart = getEnv("SCHEDULER_DEFAULT_START", cfg.Scheduler.DefaultStart)
	cfg.Scheduler.Cron = getEnv("SCHEDULER_CRON", cfg.Scheduler.Cron)
	cfg.Scheduler.CronEnabled = getEnvBool("SCHEDULER_CRON_ENABLED", cfg.Scheduler.CronEnabled)
	cfg.Scheduler.WeeksAhead = getEnvInt("SCHEDULER_WEEKS_AHEAD", cfg.Scheduler.WeeksAhead)
	cfg.Scheduler.BatchConcurrency = getEnvInt("SCHEDULER_BATCH_CONCURRENCY", cfg.Scheduler.BatchConcurrency)

	cfg.Server.GRPCAddr = getEnv("GRPC_ADDR", cfg.Server.GRPCAddr)
	cfg.Server.AdminAddr = getEnv("ADMIN_ADDR", cfg.Server.AdminAddr)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Development = getEnvBool("LOG_DEVELOPMENT", cfg.Log.Development)
}

// Validate делает минимальную проверку перед стартом.
func (c *Config) Validate() error {
	var problems []string

	switch c.DB.Driver {
	case DriverPostgres:
		if c.DB.Host == "" || c.DB.User == "" || c.DB.Name == "" {
			problems = append(problems, "db host/user/name must not be empty")
		}
	case DriverSQLite:
		if c.DB.SQLitePath == "" {
			problems = append(problems, "db sqlite_path must not be empty")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown db driver %q", c.DB.Driver))
	}

	if _, err := c.Scheduler.Location(); err != nil {
		problems = append(problems, err.Error())
	}
	if _, err := c.Scheduler.DefaultStartMinute(); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Scheduler.WeeksAhead < 1 {
		problems = append(problems, "scheduler weeks_ahead must be >= 1")
	}
	if c.Scheduler.BatchConcurrency < 1 {
		problems = append(problems, "scheduler batch_concurrency must be >= 1")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Location загружает часовой пояс планировщика.
func (s SchedulerConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(s.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("scheduler timezone %q: %w", s.TimeZone, err)
	}
	return loc, nil
}

// DefaultStartMinute переводит HH:MM в минуты от полуночи.
func (s SchedulerConfig) DefaultStartMinute() (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s.DefaultStart))
	if err != nil {
		return 0, fmt.Errorf("scheduler default_start %q: expected HH:MM", s.DefaultStart)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}
