package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database    DatabaseConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	HTTP        HTTPConfig
	OpenWeather OpenWeatherConfig
	Cache       CacheConfig
	Worker      WorkerConfig
	Aggregation AggregationConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (d DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers       []string
	TopicReadings string
	ConsumerGroup string
	NumPartitions int
}

type HTTPConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type OpenWeatherConfig struct {
	APIKey       string
	GeocodeURL   string
	PollutionURL string
	Timeout      time.Duration
	GeocodeLimit int
}

type CacheConfig struct {
	ReadingTTL      time.Duration
	RefreshInterval time.Duration
}

type WorkerConfig struct {
	BatchSize     int
	FlushInterval time.Duration
}

type AggregationConfig struct {
	DailyTime string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "aqi_user"),
			Password: getEnv("DB_PASSWORD", "aqi_pass"),
			DBName:   getEnv("DB_NAME", "aqi_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers:       strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			TopicReadings: getEnv("KAFKA_TOPIC_READINGS", "aqi.readings.served"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "aqi-worker"),
			NumPartitions: getEnvAsInt("KAFKA_NUM_PARTITIONS", 10),
		},
		HTTP: HTTPConfig{
			Port:         getEnvAsInt("HTTP_PORT", 8080),
			ReadTimeout:  getEnvAsDuration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getEnvAsDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
		},
		OpenWeather: OpenWeatherConfig{
			APIKey:       getEnv("OPENWEATHER_API_KEY", ""),
			GeocodeURL:   getEnv("OPENWEATHER_GEOCODE_URL", "http://api.openweathermap.org/geo/1.0"),
			PollutionURL: getEnv("OPENWEATHER_POLLUTION_URL", "http://api.openweathermap.org/data/2.5"),
			Timeout:      getEnvAsDuration("OPENWEATHER_TIMEOUT", 10*time.Second),
			GeocodeLimit: getEnvAsInt("OPENWEATHER_GEOCODE_LIMIT", 5),
		},
		Cache: CacheConfig{
			ReadingTTL:      getEnvAsDuration("CACHE_READING_TTL", 10*time.Minute),
			RefreshInterval: getEnvAsDuration("CACHE_REFRESH_INTERVAL", 15*time.Minute),
		},
		Worker: WorkerConfig{
			BatchSize:     getEnvAsInt("WORKER_BATCH_SIZE", 100),
			FlushInterval: getEnvAsDuration("WORKER_FLUSH_INTERVAL", 5*time.Second),
		},
		Aggregation: AggregationConfig{
			DailyTime: getEnv("AGGREGATION_DAILY_TIME", "00:05"),
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
