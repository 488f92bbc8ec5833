// Package config loads and validates the YAML configuration for
// aesdsocketd, grounded on the same load-defaults-then-unmarshal shape
// the bird-adapter server command uses.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/aesdsocket/aesdsocketd/internal/logging"
)

// tcpAddr validates that a field is a well-formed "host:port" address
// with a numeric port in [0, 65535], where host may be empty to mean "all
// interfaces" (net.Listen's convention, used by the reference server's
// "bind on all interfaces").
func tcpAddr(fl validator.FieldLevel) bool {
	_, port, err := net.SplitHostPort(fl.Field().String())
	if err != nil {
		return false
	}
	p, err := strconv.Atoi(port)
	return err == nil && p >= 0 && p <= 65535
}

// Backend selects which storage backend the log service uses.
type Backend string

const (
	// BackendRing is the in-process circular log backend.
	BackendRing Backend = "ring"
	// BackendDevice is the external character-device backend.
	BackendDevice Backend = "device"
)

// Config is the configuration for aesdsocketd.
type Config struct {
	// ListenAddr is the TCP address the server listens on.
	ListenAddr string `yaml:"listen_addr" validate:"required,tcpaddr"`
	// Backend selects the ring or device storage backend.
	Backend Backend `yaml:"backend" validate:"required,oneof=ring device"`
	// DevicePath is the character device path used when Backend is
	// BackendDevice.
	DevicePath string `yaml:"device_path" validate:"required_if=Backend device"`
	// ShadowPath is the plain-file shadow of committed entries used
	// when Backend is BackendRing.
	ShadowPath string `yaml:"shadow_path" validate:"required_if=Backend ring"`
	// RingCapacity is N, the maximum number of resident entries.
	RingCapacity int `yaml:"ring_capacity" validate:"required,min=1"`
	// ChunkSize is the read chunk size used by connection workers.
	ChunkSize datasize.ByteSize `yaml:"chunk_size" validate:"required"`
	// TimerPeriod is the interval between periodic timestamp entries.
	// Zero disables the timer.
	TimerPeriod time.Duration `yaml:"timer_period" validate:"min=0"`
	// MetricsAddr is the address the Prometheus endpoint listens on.
	// Empty disables the metrics server.
	MetricsAddr string `yaml:"metrics_addr" validate:"omitempty,tcpaddr"`
	// Logging configures the logging subsystem.
	Logging logging.Config `yaml:"logging"`
}

// Default returns the reference configuration values.
func Default() *Config {
	return &Config{
		ListenAddr:   ":9000",
		Backend:      BackendRing,
		DevicePath:   "/dev/aesdchar",
		ShadowPath:   "/var/tmp/aesdsocketdata",
		RingCapacity: 10,
		ChunkSize:    1024 * datasize.B,
		TimerPeriod:  10 * time.Second,
		MetricsAddr:  ":9100",
		Logging: logging.Config{
			Level: zapcore.InfoLevel,
		},
	}
}

// Load reads and validates the configuration at path, layering it over
// Default(). An empty path returns the defaults unmodified.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("failed to deserialize config: %w", err)
		}
	}

	v := validator.New()
	if err := v.RegisterValidation("tcpaddr", tcpAddr); err != nil {
		return nil, fmt.Errorf("failed to register validator: %w", err)
	}
	if err := v.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
