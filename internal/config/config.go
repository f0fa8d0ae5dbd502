package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// APIServerConfig 保存 API 服务器特有的配置。
type APIServerConfig struct {
	Host         string        `mapstructure:"HOST"`
	Port         string        `mapstructure:"PORT"`
	ReadTimeout  time.Duration `mapstructure:"READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"WRITE_TIMEOUT"`
	IdleTimeout  time.Duration `mapstructure:"IDLE_TIMEOUT"`
	CORS         CORSConfig    `mapstructure:"CORS"`
}

// CORSConfig holds configuration for CORS.
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"ALLOWED_ORIGINS"`
	AllowedMethods   []string `mapstructure:"ALLOWED_METHODS"`
	AllowedHeaders   []string `mapstructure:"ALLOWED_HEADERS"`
	ExposedHeaders   []string `mapstructure:"EXPOSED_HEADERS"`
	AllowCredentials bool     `mapstructure:"ALLOW_CREDENTIALS"`
	MaxAge           int      `mapstructure:"MAX_AGE"`
}

// RedisConfig holds configuration for Redis.
type RedisConfig struct {
	Addr     string `mapstructure:"ADDR"`
	Password string `mapstructure:"PASSWORD"`
	DB       int    `mapstructure:"DB"`
}

// Config holds all configuration for the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	AppName       string              `mapstructure:"APP_NAME"`
	AppVersion    string              `mapstructure:"APP_VERSION"`
	LogLevel      string              `mapstructure:"LOG_LEVEL"`
	LogFormat     string              `mapstructure:"LOG_FORMAT"`
	APIServer     APIServerConfig     `mapstructure:"API_SERVER"`
	Kafka         KafkaConfig         `mapstructure:"KAFKA"`
	Database      DatabaseConfig      `mapstructure:"DATABASE"`
	Auth          AuthConfig          `mapstructure:"AUTH"`
	Redis         RedisConfig         `mapstructure:"REDIS"`
	Search        SearchConfig        `mapstructure:"SEARCH"`
	Notifications NotificationsConfig `mapstructure:"NOTIFICATIONS"`
	WebSocket     WebSocketConfig     `mapstructure:"WEBSOCKET"`
}

// KafkaConfig holds configuration for Kafka.
type KafkaConfig struct {
	Enabled           bool     `mapstructure:"ENABLED"`
	Brokers           []string `mapstructure:"BROKERS"`
	ClientID          string   `mapstructure:"CLIENT_ID"`
	Protocol          string   `mapstructure:"PROTOCOL"`
	RelationshipTopic string   `mapstructure:"RELATIONSHIP_TOPIC"` // 好友关系事件
	ConsumerGroup     string   `mapstructure:"CONSUMER_GROUP"`     // 通知消费者组
}

// DatabaseConfig holds configuration for the database.
// Type 为 "postgres" 时使用 Host/Port 等字段，为 "sqlite" 时使用 Path。
type DatabaseConfig struct {
	Type     string `mapstructure:"TYPE"`
	Host     string `mapstructure:"HOST"`
	Port     int    `mapstructure:"PORT"`
	User     string `mapstructure:"USER"`
	Password string `mapstructure:"PASSWORD"`
	DBName   string `mapstructure:"DB_NAME"`
	SSLMode  string `mapstructure:"SSL_MODE"`
	Path     string `mapstructure:"PATH"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
}

// AuthConfig holds configuration for authentication (e.g., JWT).
type AuthConfig struct {
	JWTSecretKey string        `mapstructure:"JWT_SECRET_KEY"`
	JWTExpiry    time.Duration `mapstructure:"JWT_EXPIRY"`
	Issuer       string        `mapstructure:"ISSUER"`
}

// SearchConfig tunes the memory search directory.
type SearchConfig struct {
	FuzzyThreshold float64 `mapstructure:"FUZZY_THRESHOLD"`
}

// NotificationsConfig 控制每个用户在 Redis 中保留的通知数量。
type NotificationsConfig struct {
	MaxKept int64 `mapstructure:"MAX_KEPT"`
}

// WebSocketConfig 控制实时通知推送连接。
type WebSocketConfig struct {
	WriteWaitSeconds    int      `mapstructure:"WRITE_WAIT_SECONDS"`
	PongWaitSeconds     int      `mapstructure:"PONG_WAIT_SECONDS"`
	PingPeriodSeconds   int      `mapstructure:"PING_PERIOD_SECONDS"`
	MaxMessageSizeBytes int      `mapstructure:"MAX_MESSAGE_SIZE_BYTES"`
	SendBufferSize      int      `mapstructure:"SEND_BUFFER_SIZE"`
	AllowedOrigins      []string `mapstructure:"ALLOWED_ORIGINS"` // 为空时不校验 Origin
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()

	v.SetDefault("APP_NAME", "Reunion")
	v.SetDefault("APP_VERSION", "0.1.0")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")

	v.SetDefault("API_SERVER.HOST", "0.0.0.0")
	v.SetDefault("API_SERVER.PORT", "8081")
	v.SetDefault("API_SERVER.READ_TIMEOUT", 30*time.Second)
	v.SetDefault("API_SERVER.WRITE_TIMEOUT", 30*time.Second)
	v.SetDefault("API_SERVER.IDLE_TIMEOUT", 60*time.Second)
	v.SetDefault("API_SERVER.CORS.ALLOWED_ORIGINS", []string{"http://localhost:5173"})
	v.SetDefault("API_SERVER.CORS.ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("API_SERVER.CORS.ALLOWED_HEADERS", []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"})
	v.SetDefault("API_SERVER.CORS.EXPOSED_HEADERS", []string{"Content-Length"})
	v.SetDefault("API_SERVER.CORS.ALLOW_CREDENTIALS", true)
	v.SetDefault("API_SERVER.CORS.MAX_AGE", 300) // 5 minutes

	v.SetDefault("KAFKA.ENABLED", true)
	v.SetDefault("KAFKA.BROKERS", []string{"localhost:9092"})
	v.SetDefault("KAFKA.CLIENT_ID", "reunion-api")
	v.SetDefault("KAFKA.PROTOCOL", "plaintext")
	v.SetDefault("KAFKA.RELATIONSHIP_TOPIC", "reunion-relationship-events")
	v.SetDefault("KAFKA.CONSUMER_GROUP", "reunion-notifications")

	v.SetDefault("DATABASE.TYPE", "postgres")
	v.SetDefault("DATABASE.HOST", "localhost")
	v.SetDefault("DATABASE.PORT", 5432)
	v.SetDefault("DATABASE.USER", "postgres")
	v.SetDefault("DATABASE.PASSWORD", "password")
	v.SetDefault("DATABASE.DB_NAME", "reunion_db")
	v.SetDefault("DATABASE.SSL_MODE", "disable")
	v.SetDefault("DATABASE.PATH", "reunion.db")
	v.SetDefault("DATABASE.LOG_LEVEL", "warn")

	v.SetDefault("AUTH.JWT_SECRET_KEY", "a_very_secret_key_that_should_be_changed")
	v.SetDefault("AUTH.JWT_EXPIRY", 15*time.Minute)
	v.SetDefault("AUTH.ISSUER", "reunion-server")

	v.SetDefault("REDIS.ADDR", "localhost:6379")
	v.SetDefault("REDIS.PASSWORD", "")
	v.SetDefault("REDIS.DB", 0)

	v.SetDefault("SEARCH.FUZZY_THRESHOLD", 70)
	v.SetDefault("NOTIFICATIONS.MAX_KEPT", 100)

	v.SetDefault("WEBSOCKET.WRITE_WAIT_SECONDS", 10)
	v.SetDefault("WEBSOCKET.PONG_WAIT_SECONDS", 60)
	v.SetDefault("WEBSOCKET.PING_PERIOD_SECONDS", 54) // (60 * 9) / 10
	v.SetDefault("WEBSOCKET.MAX_MESSAGE_SIZE_BYTES", 512)
	v.SetDefault("WEBSOCKET.SEND_BUFFER_SIZE", 64)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.AutomaticEnv()
	// DATABASE_TYPE overrides Database.Type, API_SERVER_CORS_MAX_AGE overrides APIServer.CORS.MaxAge
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err = v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		// 没有配置文件时使用默认值
		err = nil
	}

	err = v.Unmarshal(&config)
	return
}
