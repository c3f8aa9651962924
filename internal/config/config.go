package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config is the homedash configuration.
type Config struct {
	Bluetooth BluetoothConfig `toml:"bluetooth"`
	Netatmo   NetatmoConfig   `toml:"netatmo"`
	Display   DisplayConfig   `toml:"display"`
	Log       LogConfig       `toml:"log"`
}

// Device is a tracked Bluetooth device.
type Device struct {
	Name    string `toml:"name" validate:"required"`
	Address string `toml:"address" validate:"required,mac"`
}

type BluetoothConfig struct {
	Devices []Device `toml:"devices" validate:"min=1,dive"`
}

// NetatmoConfig holds API credentials and polling settings. Secrets are
// usually supplied through the environment rather than the file.
type NetatmoConfig struct {
	ClientID       string   `toml:"client_id"`
	ClientSecret   string   `toml:"client_secret"`
	RefreshToken   string   `toml:"refresh_token"`
	Username       string   `toml:"username"`
	Password       string   `toml:"password"`
	BaseURL        string   `toml:"base_url" validate:"omitempty,url"`
	Station        string   `toml:"station"`
	Rooms          []string `toml:"rooms"`
	PollInterval   Duration `toml:"poll_interval"`
	RequestTimeout Duration `toml:"request_timeout"`
}

// Enabled reports whether enough is configured to talk to the API.
func (n NetatmoConfig) Enabled() bool {
	return n.ClientID != "" && (n.RefreshToken != "" || n.Username != "")
}

type DisplayConfig struct {
	Enabled        bool     `toml:"enabled"`
	PreferredModel string   `toml:"preferred_model"`
	PollInterval   Duration `toml:"poll_interval"`
	SysfsDRM       string   `toml:"sysfs_drm"`
	DevDir         string   `toml:"dev_dir"`
}

type LogConfig struct {
	Path  string `toml:"path"`
	Level string `toml:"level" validate:"oneof=debug info warn error"`
}

// Duration is a time.Duration written as a Go duration string ("90s").
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

const (
	defaultConfigPath     = "~/.config/homedash/config.toml"
	defaultLogPath        = "~/.local/state/homedash/homedash.log"
	defaultLogLevel       = "info"
	defaultPreferredModel = "DELL U3421WE"
	defaultSysfsDRM       = "/sys/class/drm"
	defaultDevDir         = "/dev"
	envPrefix             = "HOMEDASH_"
)

// Default returns the configuration used for anything the file omits.
func Default() Config {
	return Config{
		Netatmo: NetatmoConfig{
			PollInterval:   Duration(time.Minute),
			RequestTimeout: Duration(10 * time.Second),
		},
		Display: DisplayConfig{
			Enabled:        true,
			PreferredModel: defaultPreferredModel,
			PollInterval:   Duration(time.Second),
			SysfsDRM:       defaultSysfsDRM,
			DevDir:         defaultDevDir,
		},
		Log: LogConfig{
			Path:  defaultLogPath,
			Level: defaultLogLevel,
		},
	}
}

// Load reads the TOML file at path (empty uses the default location), then
// applies HOMEDASH_* environment overrides, optionally read from envFile,
// and validates the result. A missing config file is an error because at
// least one Bluetooth device must be configured.
func Load(path, envFile string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(bytes, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := loadEnvFile(envFile); err != nil {
		return Config{}, err
	}
	applyEnv(&cfg)
	normalize(&cfg)

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadEnvFile loads envFile into the environment without overriding
// variables that are already set. With no envFile a .env in the working
// directory is used when present.
func loadEnvFile(envFile string) error {
	if strings.TrimSpace(envFile) == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	}
	path, err := expandPath(envFile)
	if err != nil {
		return err
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	overrides := map[string]*string{
		"NETATMO_CLIENT_ID":     &cfg.Netatmo.ClientID,
		"NETATMO_CLIENT_SECRET": &cfg.Netatmo.ClientSecret,
		"NETATMO_REFRESH_TOKEN": &cfg.Netatmo.RefreshToken,
		"NETATMO_USERNAME":      &cfg.Netatmo.Username,
		"NETATMO_PASSWORD":      &cfg.Netatmo.Password,
		"LOG_LEVEL":             &cfg.Log.Level,
	}
	for key, dest := range overrides {
		if v, ok := os.LookupEnv(envPrefix + key); ok && strings.TrimSpace(v) != "" {
			*dest = strings.TrimSpace(v)
		}
	}
}

func normalize(cfg *Config) {
	for i := range cfg.Bluetooth.Devices {
		d := &cfg.Bluetooth.Devices[i]
		d.Name = strings.TrimSpace(d.Name)
		d.Address = strings.TrimSpace(d.Address)
	}
	cfg.Netatmo.BaseURL = strings.TrimSpace(cfg.Netatmo.BaseURL)
	cfg.Netatmo.Station = strings.TrimSpace(cfg.Netatmo.Station)
	if cfg.Netatmo.PollInterval <= 0 {
		cfg.Netatmo.PollInterval = Duration(time.Minute)
	}
	cfg.Display.PreferredModel = strings.TrimSpace(cfg.Display.PreferredModel)
	if cfg.Display.PollInterval <= 0 {
		cfg.Display.PollInterval = Duration(time.Second)
	}
	if strings.TrimSpace(cfg.Display.SysfsDRM) == "" {
		cfg.Display.SysfsDRM = defaultSysfsDRM
	}
	if strings.TrimSpace(cfg.Display.DevDir) == "" {
		cfg.Display.DevDir = defaultDevDir
	}
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
	}
	if strings.TrimSpace(cfg.Log.Path) == "" {
		cfg.Log.Path = defaultLogPath
	}
	cfg.Log.Path = mustExpand(cfg.Log.Path)
}

var validate = validator.New()

// Validate checks cfg for missing or malformed fields.
func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	seen := make(map[string]bool, len(cfg.Bluetooth.Devices))
	for _, d := range cfg.Bluetooth.Devices {
		if seen[d.Name] {
			return fmt.Errorf("invalid config: duplicate bluetooth device name %q", d.Name)
		}
		seen[d.Name] = true
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
