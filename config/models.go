package config

// Config holds the configuration of the application.
// Use config.LoadConfig to create a new instance.
type Config struct {
	RPC      RPCConfig      `mapstructure:"rpc"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Training TrainingConfig `mapstructure:"training"`
	Dialog   DialogConfig   `mapstructure:"dialog"`
}

// RPCConfig configures the framed binary RPC listener, the primary
// surface of the service.
type RPCConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	MaxFrameSize int    `mapstructure:"max_frame_size"`
}

// ServerConfig configures the read-only HTTP admin API.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type AuthConfig struct {
	Secret   string `mapstructure:"secret"`
	Required bool   `mapstructure:"required"`
}

// TrainingConfig holds the training coordinator knobs. JobTimeoutSeconds
// caps a single compile; jobs exceeding it are force-failed.
type TrainingConfig struct {
	JobTimeoutSeconds int `mapstructure:"job_timeout_seconds"`
	QueueBufferSize   int `mapstructure:"queue_buffer_size"`
}

type DialogConfig struct {
	// FallbackMessage is returned when no intent can be classified.
	FallbackMessage string `mapstructure:"fallback_message"`
	// ResolvedMessage is returned on the final confirmation turn.
	ResolvedMessage string `mapstructure:"resolved_message"`
}
