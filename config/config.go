package config

import (
	"strings"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/parleybot/parley/internal"
)

// We're bootstrapping so avoid any imports from other packages
var log = logrus.New()

var defaultConfig = Config{
	RPC: RPCConfig{
		Host:         "0.0.0.0",
		Port:         8056,
		MaxFrameSize: 1 << 20,
	},
	Server: ServerConfig{
		Port: 8057,
	},
	Log: LogConfig{
		Level: "info",
	},
	Training: TrainingConfig{
		JobTimeoutSeconds: 300,
		QueueBufferSize:   64,
	},
	Dialog: DialogConfig{
		FallbackMessage: "我没有理解您的意思",
		ResolvedMessage: "好的，已经为您记下了",
	},
}

// LoadConfig loads the config file and ENV variables into a Config struct.
// Values not present in the file fall back to defaultConfig.
func LoadConfig(configFile string) (*Config, error) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("PARLEY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Environment variables take precedence over config file
	loadDotEnv()

	var cfg Config
	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine, we run on defaults + ENV
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := mergo.Merge(&cfg, defaultConfig); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadDotEnv loads environment variables from .env file
func loadDotEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Debug(".env file not found or unable to load")
	}
}

// SetLogLevel sets the log level based on the config file. Defaults to INFO
// if not set or invalid.
func SetLogLevel(cfg *Config) {
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	internal.SetLogLevel(level)
	log.Info("Log level set to: ", level)
}
