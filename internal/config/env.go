package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env      string `envconfig:"ENV" default:"local"`
	HTTPHost string `envconfig:"HTTP_HOST" default:""`
	HTTPPort string `envconfig:"HTTP_PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"debug"`
}

type DatabaseEnv struct {
	Driver   string `envconfig:"DB_DRIVER" default:"postgres"`
	Host     string `envconfig:"DB_HOST" default:"database"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_DATABASE" default:"project"`
	User     string `envconfig:"DB_USERNAME" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	// Path is the database file when Driver is "sqlite3".
	Path string `envconfig:"DB_PATH" default:"sprintforge.db"`
}

type RabbitMQEnv struct {
	Host          string        `envconfig:"RABBITMQ_HOST" default:"rabbitmq"`
	Port          string        `envconfig:"RABBITMQ_PORT" default:"5672"`
	User          string        `envconfig:"RABBITMQ_USER" default:"user"`
	Password      string        `envconfig:"RABBITMQ_PASS" default:"password"`
	TaskQueue     string        `envconfig:"RABBITMQ_TASK_QUEUE" default:"task_queue"`
	AuditExchange string        `envconfig:"RABBITMQ_AUDIT_EXCHANGE" default:"audit_logs"`
	ServiceName   string        `envconfig:"RABBITMQ_SERVICE_NAME" default:"SprintForge"`
	PublishRetry  int           `envconfig:"RABBITMQ_PUBLISH_RETRY" default:"3"`
	RetryBackoff  time.Duration `envconfig:"RABBITMQ_RETRY_BACKOFF" default:"200ms"`
	DialTimeout   time.Duration `envconfig:"RABBITMQ_DIAL_TIMEOUT" default:"5s"`
}

type StorageEnv struct {
	Type    string `envconfig:"STORAGE_TYPE" default:"local"`
	BaseDir string `envconfig:"STORAGE_BASE_DIR" default:".sprintforge/spool"`
	// S3 settings (used when Type == "s3")
	S3Bucket string `envconfig:"S3_BUCKET"`
	S3Prefix string `envconfig:"S3_PREFIX" default:"sprintforge/"`
	S3Region string `envconfig:"S3_REGION" default:"eu-central-1"`
}

type Env struct {
	BaseEnv
	DatabaseEnv
	RabbitMQEnv
	StorageEnv
}

const namespace = "SPRINTFORGE"

// LoadEnv reads an optional .env file from the working directory and then
// processes SPRINTFORGE_* variables. Variables already set in the process
// environment take precedence over the file.
func LoadEnv() (*Env, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelDebug
	}
	return level
}

// DSN returns the driver-specific data source name.
func (e *DatabaseEnv) DSN() string {
	if e.Driver == "sqlite3" {
		return e.Path
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		e.Host, e.Port, e.User, e.Password, e.Name, e.SSLMode)
}

func (e *RabbitMQEnv) URL() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(e.User, e.Password),
		Host:   net.JoinHostPort(e.Host, e.Port),
		Path:   "/",
	}
	return u.String()
}

func DatabaseEnvFromEnv(env *Env) *DatabaseEnv {
	return &env.DatabaseEnv
}

func RabbitMQEnvFromEnv(env *Env) *RabbitMQEnv {
	return &env.RabbitMQEnv
}

func StorageEnvFromEnv(env *Env) *StorageEnv {
	return &env.StorageEnv
}
