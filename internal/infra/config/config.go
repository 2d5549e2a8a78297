package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	Port   int    `envconfig:"PORT" default:"8080"`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	RabbitURL string `envconfig:"RABBITMQ_URL"`

	Firebase struct {
		CredentialsFile string `envconfig:"FIREBASE_CREDENTIALS_FILE"`
		ProjectID       string `envconfig:"FIREBASE_PROJECT_ID"`
	} `envconfig:""`

	Schedule struct {
		// DefaultTimezone присваивается парам, не указавшим часовой пояс.
		DefaultTimezone string        `envconfig:"DEFAULT_TIMEZONE" default:"Europe/Paris"`
		TickInterval    time.Duration `envconfig:"SCHEDULE_TICK_INTERVAL" default:"1h"`
	} `envconfig:""`

	Limits struct {
		// GenerateWindow — окно ограничения частоты ручной генерации.
		GenerateWindow time.Duration `envconfig:"GENERATE_RATE_WINDOW" default:"1m"`
		ReportsMax     int           `envconfig:"REPORTS_LIST_MAX" default:"100"`
	} `envconfig:""`

	Queues struct {
		Notifications string `envconfig:"NOTIFICATIONS_QUEUE_KEY" default:"partner_notifications"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
