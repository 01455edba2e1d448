package configuration

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"pin-scheduler/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	App          App          `json:"app"`
	Pinterest    Pinterest    `json:"pinterest"`
	Scheduler    Scheduler    `json:"scheduler"`
	TokenRefresh TokenRefresh `json:"tokenRefresh"`
	Store        Store        `json:"store"`
	Database     Database     `json:"database"`
	RedisClient  RedisClient  `json:"redisClient"`
	Events       Events       `json:"events"`
	Pubsub       Pubsub       `json:"pubsub"`
	ServiceBus   ServiceBus   `json:"serviceBus"`
	Logger       Logger       `json:"logger"`
}

type App struct {
	Port        int    `json:"port"`
	SecretKey   string `json:"secretKey"`
	TLSEnabled  bool   `json:"tlsEnabled"`
	TLSCertFile string `json:"tlsCertFile"`
	TLSKeyFile  string `json:"tlsKeyFile"`
}

// Pinterest holds the provider OAuth client and REST endpoints.
type Pinterest struct {
	ClientID            string   `json:"clientId"`
	ClientSecret        string   `json:"clientSecret"`
	CallbackBaseURL     string   `json:"callbackBaseURL"`
	APIBaseURL          string   `json:"apiBaseURL"`
	AuthorizeURL        string   `json:"authorizeURL"`
	Scopes              []string `json:"scopes"`
	PlaceholderImageURL string   `json:"placeholderImageURL"`
	TimeoutSeconds      int      `json:"timeoutSeconds"`
}

type Scheduler struct {
	Disabled       bool   `json:"disabled"`
	Cron           string `json:"cron"`
	MinLeadMinutes int    `json:"minLeadMinutes"`
	MaxPostsPerDay int    `json:"maxPostsPerDay"`
	Timezone       string `json:"timezone"`
}

type TokenRefresh struct {
	Disabled         bool `json:"disabled"`
	IntervalMinutes  int  `json:"intervalMinutes"`
	RefreshAfterDays int  `json:"refreshAfterDays"`
}

// Store selects the pin and credential backend: memory, postgres, mssql, mysql, redis or mongo.
type Store struct {
	Driver string `json:"driver"`
}

type Database struct {
	Psql  Db `json:"psql"`
	MySql Db `json:"mysql"`
	Mongo Db `json:"mongo"`
	Mssql Db `json:"mssql"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	// URL wins over the discrete fields when set.
	URL string `json:"url"`
}

type RedisClient struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Username string `json:"username"`
}

// Events selects where pin status events go: none, pubsub or servicebus.
type Events struct {
	Driver string `json:"driver"`
	Topic  string `json:"topic"`
}

type Pubsub struct {
	ProjectID string `json:"projectID"`
}

type ServiceBus struct {
	Namespace string `json:"namespace"`
}

type Logger struct {
	Format string `json:"format"`
	Level  string `json:"level"`
}

var C Config

func init() {
	LoadConfig()
	ApplyEnv(&C)
	ApplyDefaults(&C)
}

func LoadConfig() {
	name := getConfig()
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

	logger.GetLogger().WithField("config", name).Info("Config set up successfully")
	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
}

func getConfig() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

// ApplyEnv lets environment variables override whatever the config file provided.
func ApplyEnv(c *Config) {
	if v := os.Getenv("SECRET_KEY"); v != "" {
		c.App.SecretKey = v
	}
	// APP_PORT -> PORT -> config
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.App.Port = p
		}
	}
	if v := os.Getenv("TLS_ENABLED"); v != "" {
		switch v {
		case "1", "true", "TRUE", "True":
			c.App.TLSEnabled = true
		case "0", "false", "FALSE", "False":
			c.App.TLSEnabled = false
		}
	}
	c.App.TLSCertFile = getConfigValue(c.App.TLSCertFile, "TLS_CERT_FILE", "")
	c.App.TLSKeyFile = getConfigValue(c.App.TLSKeyFile, "TLS_KEY_FILE", "")

	c.Pinterest.ClientID = getConfigValue(c.Pinterest.ClientID, "PINTEREST_CLIENT_ID", "")
	c.Pinterest.ClientSecret = getConfigValue(c.Pinterest.ClientSecret, "PINTEREST_CLIENT_SECRET", "")
	c.Pinterest.CallbackBaseURL = getConfigValue(c.Pinterest.CallbackBaseURL, "PINTEREST_CALLBACK_BASE_URL", "")
	c.Pinterest.APIBaseURL = getConfigValue(c.Pinterest.APIBaseURL, "PINTEREST_API_URL", "")

	c.Store.Driver = getConfigValue(c.Store.Driver, "STORE_DRIVER", "")
	c.Database.Psql.URL = getConfigValue(c.Database.Psql.URL, "DATABASE_URL", "")
	c.Database.Psql.Name = getConfigValue(c.Database.Psql.Name, "DB_NAME", "")
	c.Database.Psql.Host = getConfigValue(c.Database.Psql.Host, "DB_HOST", "")
	c.Database.Psql.Port = getConfigValue(c.Database.Psql.Port, "DB_PORT", "")
	c.Database.Psql.User = getConfigValue(c.Database.Psql.User, "DB_USER", "")
	c.Database.Psql.Password = getConfigValue(c.Database.Psql.Password, "DB_PASSWORD", "")
	c.Database.Mssql.Name = getConfigValue(c.Database.Mssql.Name, "MSSQL_DB_NAME", "")
	c.Database.Mssql.Host = getConfigValue(c.Database.Mssql.Host, "MSSQL_HOST", "")
	c.Database.Mssql.Port = getConfigValue(c.Database.Mssql.Port, "MSSQL_PORT", "")
	c.Database.Mssql.User = getConfigValue(c.Database.Mssql.User, "MSSQL_USER", "")
	c.Database.Mssql.Password = getConfigValue(c.Database.Mssql.Password, "MSSQL_PASSWORD", "")
	c.Database.Mongo.URL = getConfigValue(c.Database.Mongo.URL, "MONGO_URI", "")
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		if host, port, ok := strings.Cut(v, ":"); ok {
			c.RedisClient.Host, c.RedisClient.Port = host, port
		} else {
			c.RedisClient.Host = v
		}
	}
	c.RedisClient.Password = getConfigValue(c.RedisClient.Password, "REDIS_PASSWORD", "")

	c.Events.Driver = getConfigValue(c.Events.Driver, "EVENTS_DRIVER", "")
	c.Scheduler.Cron = getConfigValue(c.Scheduler.Cron, "SCHEDULER_CRON", "")
	c.Scheduler.Timezone = getConfigValue(c.Scheduler.Timezone, "SCHEDULER_TIMEZONE", "")
	if v := os.Getenv("SCHEDULER_ENABLED"); v != "" {
		c.Scheduler.Disabled = v == "false" || v == "0"
	}
	if v := os.Getenv("TOKEN_REFRESH_ENABLED"); v != "" {
		c.TokenRefresh.Disabled = v == "false" || v == "0"
	}
	c.Logger.Level = getConfigValue(c.Logger.Level, "LOG_LEVEL", "")
	c.Logger.Format = getConfigValue(c.Logger.Format, "LOG_FORMAT", "")
}

// ApplyDefaults fills every unset knob. Client id and secret have no default.
func ApplyDefaults(c *Config) {
	if c.App.Port == 0 {
		c.App.Port = 10001
	}
	if c.Pinterest.APIBaseURL == "" {
		c.Pinterest.APIBaseURL = "https://api-sandbox.pinterest.com/v5"
	}
	if c.Pinterest.AuthorizeURL == "" {
		c.Pinterest.AuthorizeURL = "https://www.pinterest.com/oauth/"
	}
	if len(c.Pinterest.Scopes) == 0 {
		c.Pinterest.Scopes = []string{"boards:read", "pins:read", "pins:write", "user_accounts:read", "boards:write"}
	}
	if c.Pinterest.PlaceholderImageURL == "" {
		c.Pinterest.PlaceholderImageURL = "https://picsum.photos/800/600"
	}
	if c.Pinterest.CallbackBaseURL == "" {
		scheme := "http"
		if c.App.TLSEnabled {
			scheme = "https"
		}
		c.Pinterest.CallbackBaseURL = fmt.Sprintf("%s://localhost:%d", scheme, c.App.Port)
	}
	if c.Scheduler.Cron == "" {
		c.Scheduler.Cron = "*/5 * * * *"
	}
	if c.Scheduler.MinLeadMinutes <= 0 {
		c.Scheduler.MinLeadMinutes = 5
	}
	if c.Scheduler.MaxPostsPerDay <= 0 {
		c.Scheduler.MaxPostsPerDay = 15
	}
	if c.TokenRefresh.IntervalMinutes <= 0 {
		c.TokenRefresh.IntervalMinutes = 60
	}
	if c.TokenRefresh.RefreshAfterDays <= 0 {
		c.TokenRefresh.RefreshAfterDays = 27
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "memory"
	}
	if c.Database.Mssql.Port == "" {
		c.Database.Mssql.Port = "1433"
	}
	if c.RedisClient.Host == "" {
		c.RedisClient.Host = "localhost"
	}
	if c.RedisClient.Port == "" {
		c.RedisClient.Port = "6379"
	}
	if c.Events.Driver == "" {
		c.Events.Driver = "none"
	}
	if c.Events.Topic == "" {
		c.Events.Topic = "pin-status"
	}
	if c.App.TLSEnabled && c.App.TLSCertFile == "" {
		if _, err := os.Stat("certs/localhost.crt"); err == nil {
			c.App.TLSCertFile = "certs/localhost.crt"
		}
	}
	if c.App.TLSEnabled && c.App.TLSKeyFile == "" {
		if _, err := os.Stat("certs/localhost.key"); err == nil {
			c.App.TLSKeyFile = "certs/localhost.key"
		}
	}
	if c.Pinterest.ClientID == "" || c.Pinterest.ClientSecret == "" {
		logger.GetLogger().Warn("Pinterest client id/secret not set; provide PINTEREST_CLIENT_ID and PINTEREST_CLIENT_SECRET")
	}
	if c.App.SecretKey == "" {
		logger.GetLogger().Warn("App.SecretKey not set; OAuth state tokens cannot be signed. Provide SECRET_KEY via environment.")
	}
}

// RedirectURI is the OAuth callback registered with Pinterest.
func (p Pinterest) RedirectURI() string {
	return strings.TrimRight(p.CallbackBaseURL, "/") + "/callback"
}

func (p Pinterest) Timeout() time.Duration {
	if p.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// Location resolves the scheduler timezone, falling back to the process local zone.
func (s Scheduler) Location() *time.Location {
	if s.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		logger.GetLogger().WithField("timezone", s.Timezone).WithField("error", err).Warn("Unknown scheduler timezone, using local")
		return time.Local
	}
	return loc
}

func (s Scheduler) MinLead() time.Duration {
	return time.Duration(s.MinLeadMinutes) * time.Minute
}

func (t TokenRefresh) Interval() time.Duration {
	return time.Duration(t.IntervalMinutes) * time.Minute
}

func (t TokenRefresh) RefreshAfter() time.Duration {
	return time.Duration(t.RefreshAfterDays) * 24 * time.Hour
}

// getConfigValue gets value from environment first, then config, then default
func getConfigValue(configValue, envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	if configValue != "" && !strings.HasPrefix(configValue, "YOUR_") {
		return configValue
	}
	return defaultValue
}
