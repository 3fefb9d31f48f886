package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	SQLite    SQLiteConfig
	Redis     RedisConfig
	Models    ModelsConfig
	Inference InferenceConfig
	RateLimit RateLimitConfig
	History   HistoryConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
	StaticDir    string
	// AllowedOrigins feeds CORS and the CSP connect-src; empty allows any origin.
	AllowedOrigins []string
	Development    bool
	AccessLog      bool
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled         bool
	Host            string
	Port            int
	Password        string
	DB              int
	InferenceTTLSec int
	StatsTTLSec     int
}

type ModelsConfig struct {
	Dir                  string
	GradientBoostingFile string
	CatBoostFile         string
	KNNFile              string
}

// Path resolves a model file name against the models directory.
func (m ModelsConfig) Path(file string) string {
	if file == "" || filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(m.Dir, file)
}

type InferenceConfig struct {
	FailureThreshold int
	OpenTimeoutSec   int
}

type RateLimitConfig struct {
	RequestsPerMinute int
}

type HistoryConfig struct {
	Limit int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/glucorisk")

	v.SetEnvPrefix("GLUCORISK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)
	v.SetDefault("server.bodyLimit", 1048576)
	v.SetDefault("server.staticDir", "./static")
	v.SetDefault("server.allowedOrigins", []string{})
	v.SetDefault("server.development", false)
	v.SetDefault("server.accessLog", true)

	v.SetDefault("sqlite.path", "./database/prediksi_diabetes.db")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.inferenceTTLSec", 3600)
	v.SetDefault("redis.statsTTLSec", 30)

	v.SetDefault("models.dir", "./models")
	v.SetDefault("models.gradientBoostingFile", "model_gb.json")
	v.SetDefault("models.catboostFile", "model_catboost.json")
	v.SetDefault("models.knnFile", "model_knn.json")

	v.SetDefault("inference.failureThreshold", 5)
	v.SetDefault("inference.openTimeoutSec", 30)

	v.SetDefault("rateLimit.requestsPerMinute", 120)

	v.SetDefault("history.limit", 50)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputPath", "stdout")
}
