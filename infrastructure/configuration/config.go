package configuration

import (
	"fmt"
	"os"
	"strconv"

	"tubepulse/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	App         App         `json:"app"`
	Database    Database    `json:"database"`
	RedisClient RedisClient `json:"redisClient"`
	Logger      Logger      `json:"logger"`
	YouTube     YouTube     `json:"youtube"`
	Analyzer    Analyzer    `json:"analyzer"`
}

type App struct {
	Port      int    `json:"port"`
	SecretKey string `json:"secretKey"`
}

type Database struct {
	Psql Db `json:"psql"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
}

type RedisClient struct {
	Host         string `json:"host"`
	Port         string `json:"port"`
	Password     string `json:"password"`
	DatabaseName string `json:"databaseName"`
	Username     string `json:"username"`
}

type Logger struct {
	Format string `json:"format"`
}

type YouTube struct {
	APIKey       string    `json:"apiKey"`
	ClientID     string    `json:"clientId"`
	ClientSecret string    `json:"clientSecret"`
	RedirectURI  string    `json:"redirectURI"`
	Scopes       []string  `json:"scopes"`
	Quota        Quota     `json:"quota"`
	RateLimit    RateLimit `json:"rateLimit"`
	// Costs maps operation kinds to their per-call unit price. Unknown
	// kinds are charged at the most expensive known operation.
	Costs map[string]int64 `json:"costs"`
	// CacheTTLSeconds maps operation kinds to response cache lifetimes.
	CacheTTLSeconds map[string]int `json:"cacheTtlSeconds"`
}

type Quota struct {
	DailyLimit       int64   `json:"dailyLimit"`
	WarningThreshold float64 `json:"warningThreshold"`
	// Timezone anchors the daily reset, matching the upstream billing day.
	Timezone string `json:"timezone"`
}

type RateLimit struct {
	MaxPerSecond   float64 `json:"maxPerSecond"`
	MaxPerMinute   float64 `json:"maxPerMinute"`
	MaxWaitSeconds int     `json:"maxWaitSeconds"`
}

type Analyzer struct {
	Workers             int     `json:"workers"`
	MaxVideos           int     `json:"maxVideos"`
	MaxShorts           int     `json:"maxShorts"`
	TrendingTop         int     `json:"trendingTop"`
	TrendingWindowHours float64 `json:"trendingWindowHours"`
	FetchCount          int     `json:"fetchCount"`
	MaxPages            int     `json:"maxPages"`
	MaxChannels         int     `json:"maxChannels"`
	BatchTimeoutSeconds int     `json:"batchTimeoutSeconds"`
	LiveStickySeconds   int     `json:"liveStickySeconds"`
	Horizon             string  `json:"horizon"`
}

// Load reads config[-ENV].json, applies environment overrides, fills
// defaults, and returns an immutable snapshot for constructor injection.
func Load() *Config {
	name := configName()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().Warn("Config file not found")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}

	initDatabase(&cfg)
	initApp(&cfg)
	applyDefaults(&cfg)

	logger.GetLogger().WithField("config", name).Info("Config set up successfully")
	return &cfg
}

func configName() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func initDatabase(cfg *Config) {
	if cfg.Database.Psql.Name == "" {
		cfg.Database.Psql.Name = os.Getenv("DB_NAME")
	}
	if cfg.Database.Psql.Host == "" {
		cfg.Database.Psql.Host = os.Getenv("DB_HOST")
	}
	if cfg.Database.Psql.User == "" {
		cfg.Database.Psql.User = os.Getenv("DB_USER")
	}
	if cfg.Database.Psql.Password == "" {
		cfg.Database.Psql.Password = os.Getenv("DB_PASSWORD")
	}
	if cfg.Database.Psql.Port == "" {
		cfg.Database.Psql.Port = os.Getenv("DB_PORT")
	}
}

func initApp(cfg *Config) {
	if v := os.Getenv("SECRET_KEY"); v != "" {
		cfg.App.SecretKey = v
	}
	if v := os.Getenv("YOUTUBE_API_KEY"); v != "" {
		cfg.YouTube.APIKey = v
	}
	// Port resolution order (env overrides config): APP_PORT -> PORT -> config -> default
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.App.Port = p
		}
	}
	if cfg.App.Port == 0 {
		cfg.App.Port = 10001
	}
	if cfg.App.SecretKey == "" {
		logger.GetLogger().Warn("App.SecretKey not set; admin endpoints will reject every token. Provide SECRET_KEY via environment.")
	}
}

func applyDefaults(cfg *Config) {
	q := &cfg.YouTube.Quota
	if q.DailyLimit == 0 {
		q.DailyLimit = 10000
	}
	if q.WarningThreshold == 0 {
		q.WarningThreshold = 0.8
	}
	if q.Timezone == "" {
		q.Timezone = "America/Los_Angeles"
	}

	rl := &cfg.YouTube.RateLimit
	if rl.MaxPerSecond == 0 {
		rl.MaxPerSecond = 10
	}
	if rl.MaxPerMinute == 0 {
		rl.MaxPerMinute = 100
	}
	if rl.MaxWaitSeconds == 0 {
		rl.MaxWaitSeconds = 10
	}

	if cfg.YouTube.Costs == nil {
		cfg.YouTube.Costs = map[string]int64{}
	}
	for op, units := range defaultCosts {
		if _, ok := cfg.YouTube.Costs[op]; !ok {
			cfg.YouTube.Costs[op] = units
		}
	}
	if cfg.YouTube.CacheTTLSeconds == nil {
		cfg.YouTube.CacheTTLSeconds = map[string]int{}
	}
	for op, seconds := range defaultTTLSeconds {
		if _, ok := cfg.YouTube.CacheTTLSeconds[op]; !ok {
			cfg.YouTube.CacheTTLSeconds[op] = seconds
		}
	}

	a := &cfg.Analyzer
	if a.Workers == 0 {
		a.Workers = 4
	}
	if a.MaxVideos == 0 {
		a.MaxVideos = 5
	}
	if a.MaxShorts == 0 {
		a.MaxShorts = 5
	}
	if a.TrendingTop == 0 {
		a.TrendingTop = 3
	}
	if a.TrendingWindowHours == 0 {
		a.TrendingWindowHours = 3
	}
	if a.FetchCount == 0 {
		a.FetchCount = 50
	}
	if a.MaxPages == 0 {
		a.MaxPages = 2
	}
	if a.MaxChannels == 0 {
		a.MaxChannels = 10
	}
	if a.BatchTimeoutSeconds == 0 {
		a.BatchTimeoutSeconds = 60
	}
	if a.LiveStickySeconds == 0 {
		a.LiveStickySeconds = 60
	}
	if a.Horizon == "" {
		a.Horizon = "all"
	}
}

var defaultCosts = map[string]int64{
	"channel_info":  1,
	"playlist_page": 1,
	"video_batch":   1,
	"search":        100,
}

var defaultTTLSeconds = map[string]int{
	"channel_info":  86400,
	"playlist_page": 1800,
	"video_batch":   1800,
	"search":        3600,
	"trending":      300,
	"live":          60,
}
