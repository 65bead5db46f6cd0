package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	App     AppConfig
	Engine  EngineConfig
	Cache   CacheConfig
	Storage StorageConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type AppConfig struct {
	SalesFile string
	DataDir   string
	ExportDir string
	LogLevel  string
	LogFormat string
}

// EngineConfig carries the dashboard defaults for the decision pipeline.
type EngineConfig struct {
	HoldingCostPerUnit  float64
	StockoutCostPerUnit float64
	ForecastHorizon     int
	ForecastTrend       string
	OptimizerMethod     string
}

type CacheConfig struct {
	Enabled            bool
	RedisURL           string
	RedisHost          string
	RedisPort          string
	RedisPassword      string
	RedisDB            int
	DecisionTTLSeconds int
}

// StorageConfig points at the bucket holding the sales file and receiving
// exports. Driver is "s3" (any S3-compatible endpoint) or "local" (a
// directory under LocalRoot).
type StorageConfig struct {
	Enabled        bool
	Driver         string
	LocalRoot      string
	Endpoint       string
	AccessKey      string
	SecretKey      string
	Bucket         string
	Region         string
	UseSSL         bool
	SalesObjectKey string
	ExportPrefix   string
}

var (
	once     sync.Once
	instance *Config
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("APP_SALES_FILE", "./data/sales_data.csv")
	v.SetDefault("APP_DATA_DIR", "./data")
	v.SetDefault("APP_EXPORT_DIR", "./data/exports")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("ENGINE_HOLDING_COST", 0.5)
	v.SetDefault("ENGINE_STOCKOUT_COST", 1.5)
	v.SetDefault("ENGINE_FORECAST_HORIZON", 14)
	v.SetDefault("ENGINE_FORECAST_TREND", "additive")
	v.SetDefault("ENGINE_OPTIMIZER_METHOD", "numeric")
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_DECISION_TTL_SECONDS", 300)
	v.SetDefault("STORAGE_ENABLED", false)
	v.SetDefault("STORAGE_DRIVER", "s3")
	v.SetDefault("STORAGE_LOCAL_ROOT", "./data/bucket")
	v.SetDefault("STORAGE_ENDPOINT", "localhost:9000")
	v.SetDefault("STORAGE_ACCESS_KEY", "")
	v.SetDefault("STORAGE_SECRET_KEY", "")
	v.SetDefault("STORAGE_BUCKET", "restock")
	v.SetDefault("STORAGE_REGION", "us-east-1")
	v.SetDefault("STORAGE_USE_SSL", false)
	v.SetDefault("STORAGE_SALES_OBJECT_KEY", "sales_data.csv")
	v.SetDefault("STORAGE_EXPORT_PREFIX", "exports/")
}

// Load reads .env (if present) and the environment once per process.
func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		instance = fromViper(viper.GetViper())

		ensureDir(instance.App.DataDir)
		ensureDir(instance.App.ExportDir)
	})

	return instance
}

func fromViper(v *viper.Viper) *Config {
	setDefaults(v)
	v.AutomaticEnv()

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		App: AppConfig{
			SalesFile: v.GetString("APP_SALES_FILE"),
			DataDir:   v.GetString("APP_DATA_DIR"),
			ExportDir: v.GetString("APP_EXPORT_DIR"),
			LogLevel:  v.GetString("LOG_LEVEL"),
			LogFormat: v.GetString("LOG_FORMAT"),
		},
		Engine: EngineConfig{
			HoldingCostPerUnit:  v.GetFloat64("ENGINE_HOLDING_COST"),
			StockoutCostPerUnit: v.GetFloat64("ENGINE_STOCKOUT_COST"),
			ForecastHorizon:     v.GetInt("ENGINE_FORECAST_HORIZON"),
			ForecastTrend:       v.GetString("ENGINE_FORECAST_TREND"),
			OptimizerMethod:     v.GetString("ENGINE_OPTIMIZER_METHOD"),
		},
		Cache: CacheConfig{
			Enabled:            v.GetBool("CACHE_ENABLED"),
			RedisURL:           v.GetString("REDIS_URL"),
			RedisHost:          v.GetString("REDIS_HOST"),
			RedisPort:          v.GetString("REDIS_PORT"),
			RedisPassword:      v.GetString("REDIS_PASSWORD"),
			RedisDB:            v.GetInt("REDIS_DB"),
			DecisionTTLSeconds: v.GetInt("CACHE_DECISION_TTL_SECONDS"),
		},
		Storage: StorageConfig{
			Enabled:        v.GetBool("STORAGE_ENABLED"),
			Driver:         v.GetString("STORAGE_DRIVER"),
			LocalRoot:      v.GetString("STORAGE_LOCAL_ROOT"),
			Endpoint:       v.GetString("STORAGE_ENDPOINT"),
			AccessKey:      v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey:      v.GetString("STORAGE_SECRET_KEY"),
			Bucket:         v.GetString("STORAGE_BUCKET"),
			Region:         v.GetString("STORAGE_REGION"),
			UseSSL:         v.GetBool("STORAGE_USE_SSL"),
			SalesObjectKey: v.GetString("STORAGE_SALES_OBJECT_KEY"),
			ExportPrefix:   v.GetString("STORAGE_EXPORT_PREFIX"),
		},
	}
}

func ensureDir(dir string) {
	if dir == "" {
		return
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
