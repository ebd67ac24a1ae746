package config

import (
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisGeoDB    int    `mapstructure:"REDIS_GEO_DB"`
	RedisEventsDB int    `mapstructure:"REDIS_EVENTS_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Live provider index.
	GeoTTL                time.Duration `mapstructure:"GEO_TTL"`
	GeoSweepInterval      time.Duration `mapstructure:"GEO_SWEEP_INTERVAL"`
	DefaultSearchRadiusKm float64       `mapstructure:"DEFAULT_SEARCH_RADIUS_KM"`

	// Comma separated candidate durations in minutes, e.g. "30,45,60,75,90".
	SlotDurations string `mapstructure:"SLOT_DURATIONS"`

	// Collaborators.
	StripeKey               string `mapstructure:"STRIPE_KEY"`
	FirebaseCredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`
}

var AppConfig Config

func LoadConfig() {
	// A local .env file is optional; real environment variables win.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "servicely")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_GEO_DB", 0)
	v.SetDefault("REDIS_EVENTS_DB", 1)
	v.SetDefault("REDIS_QUEUE_DB", 2)
	v.SetDefault("GEO_TTL", "600s")
	v.SetDefault("GEO_SWEEP_INTERVAL", "60s")
	v.SetDefault("DEFAULT_SEARCH_RADIUS_KM", 5.0)
	v.SetDefault("SLOT_DURATIONS", "30,45,60,75,90")
	v.SetDefault("STRIPE_KEY", "")
	v.SetDefault("FIREBASE_CREDENTIALS_FILE", "")
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// Durations parses SlotDurations. Invalid or non-positive entries are skipped.
func (c Config) Durations() []int {
	var out []int
	for _, part := range strings.Split(c.SlotDurations, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n <= 0 {
			continue
		}
		out = append(out, n)
	}
	return out
}
