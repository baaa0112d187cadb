// Package config loads host configuration for running basm guests.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/basm-dev/basm-sdk-go/domain/errors"
)

// EnvPrefix prefixes environment overrides, e.g. BASM_HOST_REUSE_INSTANCES=true.
const EnvPrefix = "BASM"

type HostConfig struct {
	LogLevel       string               `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	Host           RuntimeConfig        `mapstructure:"host"`
	HTTP           HTTPConfig           `mapstructure:"http"`
	AttestationLog AttestationLogConfig `mapstructure:"attestation_log"`
}

// RuntimeConfig holds wasm runtime configuration.
type RuntimeConfig struct {
	// Host import module name guests link against.
	ModuleName string `mapstructure:"module_name" validate:"required"`
	// Largest request or log buffer read from guest memory.
	MaxRequestSize uint32 `mapstructure:"max_request_size" validate:"gt=0"`
	// Keep one guest instance across invocations.
	ReuseInstances bool `mapstructure:"reuse_instances"`
	// Check buffers against the guest manifest schemas before each call.
	ValidateInput bool `mapstructure:"validate_input"`
	// Memory limit per instance (in pages, 64KB each). Zero means the wasm maximum.
	MemoryPages uint32 `mapstructure:"memory_pages" validate:"lte=65536"`
}

// HTTPConfig configures the httpRequest host service.
type HTTPConfig struct {
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxBodySize int           `mapstructure:"max_body_size" validate:"gt=0"`
	// Zero answers with the redirect response itself.
	MaxRedirects    int  `mapstructure:"max_redirects" validate:"gte=0"`
	FollowRedirects bool `mapstructure:"follow_redirects"`
}

// AttestationLogConfig selects where attestation-log lines are stored. Backend "none"
// logs them instead of storing them.
type AttestationLogConfig struct {
	Backend string `mapstructure:"backend" validate:"oneof=none memdb goleveldb"`
	Name    string `mapstructure:"name" validate:"required"`
	Dir     string `mapstructure:"dir" validate:"required_if=Backend goleveldb"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")

	v.SetDefault("host.module_name", "env")
	v.SetDefault("host.max_request_size", 1024*1024) // 1MB
	v.SetDefault("host.reuse_instances", false)
	v.SetDefault("host.validate_input", false)
	v.SetDefault("host.memory_pages", 0)

	v.SetDefault("http.timeout", 30*time.Second)
	v.SetDefault("http.max_body_size", 10*1024*1024) // 10MB
	v.SetDefault("http.max_redirects", 10)
	v.SetDefault("http.follow_redirects", true)

	v.SetDefault("attestation_log.backend", "none")
	v.SetDefault("attestation_log.name", "attestation")
	v.SetDefault("attestation_log.dir", "")
}

// Load reads defaults, then the optional file at configPath, then BASM_ environment
// overrides, and validates the result.
func Load(configPath string) (*HostConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, &errors.ConfigError{Err: fmt.Errorf("read %s: %w", configPath, err)}
		}
	}

	var cfg HostConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &errors.ConfigError{Err: err}
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks cfg and reports the first invalid field as a *errors.ConfigError.
func Validate(cfg any) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &errors.ConfigError{
			Field: fe.Namespace(),
			Err:   fmt.Errorf("failed on the '%s' rule (value %v)", fe.Tag(), fe.Value()),
		}
	}
	return &errors.ConfigError{Err: err}
}
