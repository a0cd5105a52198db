package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	sdklogging "github.com/Layr-Labs/eigensdk-go/logging"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/AvaProtocol/ercx-bot/core/conversation"
	"github.com/AvaProtocol/ercx-bot/core/ercx"
	"github.com/AvaProtocol/ercx-bot/core/telegram"
	"github.com/AvaProtocol/ercx-bot/pkg/logger"
)

const (
	TelegramTokenEnv = "TG_TOKEN"
	ErcxAPIKeyEnv    = "ERCX_API_KEY"
)

// Config is the resolved runtime configuration of the bot.
type Config struct {
	Environment sdklogging.LogLevel
	Logger      logger.Logger `json:"-"`

	// secrets only come from the environment
	TelegramToken string `json:"-" validate:"required"`
	ErcxAPIKey    string `json:"-" validate:"required"`

	TelegramAPIURL      string        `validate:"required,url"`
	TelegramPollTimeout time.Duration `validate:"gt=0"`

	ErcxBaseURL    string `validate:"required,url"`
	ErcxGraphQLURL string `validate:"omitempty,url"`
	ErcxTimeout    time.Duration
	ReportCacheTTL time.Duration `validate:"gte=0"`

	ConfirmGeneration bool
	PollInterval      time.Duration `validate:"gt=0"`
	PollTimeout       time.Duration `validate:"gtefield=PollInterval"`

	// SessionDbPath keeps sessions in badger, empty means in memory
	SessionDbPath       string
	MaintenanceInterval time.Duration `validate:"gt=0"`
	// BackupDir enables periodic session backups, requires SessionDbPath
	BackupDir      string        `validate:"excluded_without=SessionDbPath"`
	BackupInterval time.Duration `validate:"gt=0"`

	HttpBindAddress string
	SentryDsn       string
	ServerName      string
}

// These are read from the yaml config file
type ConfigRaw struct {
	Environment     sdklogging.LogLevel `yaml:"environment"`
	HttpBindAddress string              `yaml:"http_bind_address"`
	SentryDsn       string              `yaml:"sentry_dsn"`
	ServerName      string              `yaml:"server_name"`

	Telegram struct {
		ApiUrl      string        `yaml:"api_url"`
		PollTimeout time.Duration `yaml:"poll_timeout"`
	} `yaml:"telegram"`

	Ercx struct {
		BaseUrl           string        `yaml:"base_url"`
		GraphqlUrl        string        `yaml:"graphql_url"`
		Timeout           time.Duration `yaml:"timeout"`
		CacheTTL          time.Duration `yaml:"cache_ttl"`
		ConfirmGeneration *bool         `yaml:"confirm_generation"`
	} `yaml:"ercx"`

	Poller struct {
		Interval time.Duration `yaml:"interval"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"poller"`

	Session struct {
		DbPath              string        `yaml:"db_path"`
		MaintenanceInterval time.Duration `yaml:"maintenance_interval"`
		BackupDir           string        `yaml:"backup_dir"`
		BackupInterval      time.Duration `yaml:"backup_interval"`
	} `yaml:"session"`
}

// NewConfig reads the yaml file at configFilePath, takes secrets from the
// environment (and a .env file when present) and builds the logger.
func NewConfig(configFilePath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("cannot load .env file: %w", err)
	}

	var raw ConfigRaw
	if configFilePath != "" {
		data, err := os.ReadFile(configFilePath)
		if err != nil {
			return nil, fmt.Errorf("cannot read config file %s: %w", configFilePath, err)
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("cannot parse config file %s: %w", configFilePath, err)
		}
	}

	c := fromRaw(raw)
	c.TelegramToken = os.Getenv(TelegramTokenEnv)
	c.ErcxAPIKey = os.Getenv(ErcxAPIKeyEnv)

	if err := c.validate(); err != nil {
		return nil, err
	}

	log, err := logger.New(string(c.Environment))
	if err != nil {
		return nil, fmt.Errorf("cannot create logger: %w", err)
	}
	c.Logger = log

	return c, nil
}

func fromRaw(raw ConfigRaw) *Config {
	c := &Config{
		Environment:         raw.Environment,
		TelegramAPIURL:      raw.Telegram.ApiUrl,
		TelegramPollTimeout: raw.Telegram.PollTimeout,
		ErcxBaseURL:         raw.Ercx.BaseUrl,
		ErcxGraphQLURL:      raw.Ercx.GraphqlUrl,
		ErcxTimeout:         raw.Ercx.Timeout,
		ReportCacheTTL:      raw.Ercx.CacheTTL,
		ConfirmGeneration:   true,
		PollInterval:        raw.Poller.Interval,
		PollTimeout:         raw.Poller.Timeout,
		SessionDbPath:       raw.Session.DbPath,
		MaintenanceInterval: raw.Session.MaintenanceInterval,
		BackupDir:           raw.Session.BackupDir,
		BackupInterval:      raw.Session.BackupInterval,
		HttpBindAddress:     raw.HttpBindAddress,
		SentryDsn:           raw.SentryDsn,
		ServerName:          raw.ServerName,
	}

	if raw.Ercx.ConfirmGeneration != nil {
		c.ConfirmGeneration = *raw.Ercx.ConfirmGeneration
	}
	if c.Environment != sdklogging.Development {
		c.Environment = sdklogging.Production
	}
	if c.TelegramAPIURL == "" {
		c.TelegramAPIURL = telegram.DefaultAPIURL
	}
	if c.TelegramPollTimeout == 0 {
		c.TelegramPollTimeout = 30 * time.Second
	}
	if c.ErcxBaseURL == "" {
		c.ErcxBaseURL = ercx.DefaultBaseURL
	}
	if c.ErcxTimeout == 0 {
		c.ErcxTimeout = 30 * time.Second
	}
	if c.PollInterval == 0 {
		c.PollInterval = conversation.DefaultPollInterval
	}
	if c.PollTimeout == 0 {
		c.PollTimeout = conversation.DefaultPollTimeout
	}
	if c.MaintenanceInterval == 0 {
		c.MaintenanceInterval = 10 * time.Minute
	}
	if c.BackupInterval == 0 {
		c.BackupInterval = 6 * time.Hour
	}

	return c
}

func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				switch fe.Field() {
				case "TelegramToken":
					return fmt.Errorf("%s environment variable is required", TelegramTokenEnv)
				case "ErcxAPIKey":
					return fmt.Errorf("%s environment variable is required", ErcxAPIKeyEnv)
				}
			}
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ErcxConfig is the report client configuration.
func (c *Config) ErcxConfig() ercx.Config {
	return ercx.Config{
		BaseURL:    c.ErcxBaseURL,
		GraphQLURL: c.ErcxGraphQLURL,
		APIKey:     c.ErcxAPIKey,
		Timeout:    c.ErcxTimeout,
		CacheTTL:   c.ReportCacheTTL,
	}
}

func (c *Config) TelegramConfig() telegram.Config {
	return telegram.Config{
		Token:       c.TelegramToken,
		APIURL:      c.TelegramAPIURL,
		PollTimeout: c.TelegramPollTimeout,
	}
}

func (c *Config) ConversationOptions() conversation.Options {
	return conversation.Options{
		ConfirmGeneration: c.ConfirmGeneration,
		ReportBaseURL:     c.ErcxBaseURL,
		PollInterval:      c.PollInterval,
		PollTimeout:       c.PollTimeout,
	}
}
