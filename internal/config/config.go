package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	SMTP       SMTPConfig       `mapstructure:"smtp"`
	Scheduling SchedulingConfig `mapstructure:"scheduling"`
	Worker     WorkerConfig     `mapstructure:"worker"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// SchedulingConfig carries the clinic-wide slot grid defaults. A doctor
// row may override the window and step; the reminder offsets apply to
// every appointment.
type SchedulingConfig struct {
	WorkStart             string        `mapstructure:"work_start"`
	WorkEnd               string        `mapstructure:"work_end"`
	SlotMinutes           int           `mapstructure:"slot_minutes"`
	DoctorReminderOffset  time.Duration `mapstructure:"doctor_reminder_offset"`
	PatientReminderOffset time.Duration `mapstructure:"patient_reminder_offset"`
}

type WorkerConfig struct {
	BatchSize     int           `mapstructure:"batch_size"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
}

// envOverrides are applied on top of the file config so containers can
// point at their own database and redis without editing config.yml.
type envOverrides struct {
	DBHost     string `envconfig:"DB_HOST"`
	DBPort     int    `envconfig:"DB_PORT"`
	DBUser     string `envconfig:"DB_USER"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME"`
	RedisURL   string `envconfig:"REDIS_URL"`
	ServerPort int    `envconfig:"SERVER_PORT"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/app")
	viper.AddConfigPath("/app/config")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var env envOverrides
	if err := envconfig.Process("clinic", &env); err != nil {
		return nil, fmt.Errorf("failed to read environment overrides: %w", err)
	}
	applyOverrides(&config, env)
	applyDefaults(&config)

	return &config, nil
}

func applyOverrides(config *Config, env envOverrides) {
	if env.DBHost != "" {
		config.Database.Host = env.DBHost
	}
	if env.DBPort != 0 {
		config.Database.Port = env.DBPort
	}
	if env.DBUser != "" {
		config.Database.User = env.DBUser
	}
	if env.DBPassword != "" {
		config.Database.Password = env.DBPassword
	}
	if env.DBName != "" {
		config.Database.Name = env.DBName
	}
	if env.RedisURL != "" {
		config.Redis.URL = env.RedisURL
	}
	if env.ServerPort != 0 {
		config.Server.Port = env.ServerPort
	}
}

func applyDefaults(config *Config) {
	if config.Scheduling.WorkStart == "" {
		config.Scheduling.WorkStart = "08:00"
	}
	if config.Scheduling.WorkEnd == "" {
		config.Scheduling.WorkEnd = "18:00"
	}
	if config.Scheduling.SlotMinutes == 0 {
		config.Scheduling.SlotMinutes = 30
	}
	if config.Scheduling.DoctorReminderOffset == 0 {
		config.Scheduling.DoctorReminderOffset = time.Hour
	}
	if config.Scheduling.PatientReminderOffset == 0 {
		config.Scheduling.PatientReminderOffset = 24 * time.Hour
	}
	if config.Worker.BatchSize == 0 {
		config.Worker.BatchSize = 100
	}
	if config.Worker.PollInterval == 0 {
		config.Worker.PollInterval = 15 * time.Second
	}
	if config.Worker.RetryAttempts == 0 {
		config.Worker.RetryAttempts = 3
	}
	if config.Worker.RetryDelay == 0 {
		config.Worker.RetryDelay = 2 * time.Second
	}
}
