package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the config file read when no path is given. It is optional.
const ConfigPath = "jamctl.yaml"

const (
	TokenStoreMemory = "memory"
	TokenStoreFile   = "file"
	TokenStoreRedis  = "redis"

	ImageMirrorNone  = "none"
	ImageMirrorMinio = "minio"
	ImageMirrorDisk  = "disk"
)

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	APIBaseURL            string  `yaml:"apiBaseURL"`
	LogLevel              string  `yaml:"logLevel"`
	HTTPTimeout           string  `yaml:"httpTimeout"`
	TokenStore            string  `yaml:"tokenStore"`
	TokenFile             string  `yaml:"tokenFile"`
	TokenKey              string  `yaml:"tokenKey"`
	TokenPassphrase       string  `yaml:"tokenPassphrase"`
	RedisAddr             string  `yaml:"redisAddr"`
	RedisPassword         string  `yaml:"redisPassword"`
	GeocoderURL           string  `yaml:"geocoderURL"`
	GeocoderUserAgent     string  `yaml:"geocoderUserAgent"`
	GeocoderRatePerSecond float64 `yaml:"geocoderRatePerSecond"`
	ImageMirror           string  `yaml:"imageMirror"`
	ImageDir              string  `yaml:"imageDir"`
	MinioEndpoint         string  `yaml:"minioEndpoint"`
	MinioAccessKey        string  `yaml:"minioAccessKey"`
	MinioSecretKey        string  `yaml:"minioSecretKey"`
	MinioBucket           string  `yaml:"minioBucket"`
	MinioUseSSL           bool    `yaml:"minioUseSSL"`
}

// Defaults returns the configuration used when no file is present.
func Defaults() FileConfig {
	return FileConfig{
		APIBaseURL:            "http://localhost:8080",
		LogLevel:              "warn",
		HTTPTimeout:           "10s",
		TokenStore:            TokenStoreFile,
		TokenFile:             defaultTokenFile(),
		TokenKey:              "jamsession:token:default",
		GeocoderURL:           "https://nominatim.openstreetmap.org",
		GeocoderUserAgent:     "jamsession-client/1.0",
		GeocoderRatePerSecond: 1,
		ImageMirror:           ImageMirrorNone,
		ImageDir:              "images",
		MinioBucket:           "jamsession-images",
	}
}

// Load reads config from path (defaults to jamctl.yaml) on top of Defaults,
// then applies environment overrides. A missing default file is not an
// error; a missing explicit file is.
func Load(path string) (FileConfig, error) {
	cfg := Defaults()
	explicit := path != ""
	if !explicit {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}
	applyEnv(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *FileConfig) {
	if v := os.Getenv("JAM_API_URL"); v != "" {
		cfg.APIBaseURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("JAM_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.TrimSpace(v)
	}
	if v := os.Getenv("JAM_HTTP_TIMEOUT"); v != "" {
		cfg.HTTPTimeout = strings.TrimSpace(v)
	}
	if v := os.Getenv("JAM_TOKEN_STORE"); v != "" {
		cfg.TokenStore = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("JAM_TOKEN_FILE"); v != "" {
		cfg.TokenFile = strings.TrimSpace(v)
	}
	if v := os.Getenv("JAM_TOKEN_KEY"); v != "" {
		cfg.TokenKey = strings.TrimSpace(v)
	}
	if v := os.Getenv("JAM_TOKEN_PASSPHRASE"); v != "" {
		cfg.TokenPassphrase = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("JAM_GEOCODER_URL"); v != "" {
		cfg.GeocoderURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("JAM_GEOCODER_USER_AGENT"); v != "" {
		cfg.GeocoderUserAgent = strings.TrimSpace(v)
	}
	if v := os.Getenv("JAM_GEOCODER_RATE_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			cfg.GeocoderRatePerSecond = f
		}
	}
	if v := os.Getenv("JAM_IMAGE_MIRROR"); v != "" {
		cfg.ImageMirror = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("JAM_IMAGE_DIR"); v != "" {
		cfg.ImageDir = strings.TrimSpace(v)
	}
	if v := os.Getenv("MINIO_ENDPOINT"); v != "" {
		cfg.MinioEndpoint = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.MinioAccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.MinioSecretKey = v
	}
	if v := os.Getenv("MINIO_BUCKET"); v != "" {
		cfg.MinioBucket = v
	}
	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			cfg.MinioUseSSL = b
		}
	}
}

func validateConfig(cfg FileConfig) error {
	u, err := url.Parse(strings.TrimSpace(cfg.APIBaseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("config: apiBaseURL must be an absolute URL (set in jamctl.yaml or JAM_API_URL)")
	}
	if _, err := ParseHTTPTimeout(cfg.HTTPTimeout); err != nil {
		return err
	}
	switch cfg.TokenStore {
	case TokenStoreMemory:
	case TokenStoreFile:
		if strings.TrimSpace(cfg.TokenFile) == "" {
			return errors.New("config: tokenFile is required for the file token store")
		}
	case TokenStoreRedis:
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return errors.New("config: redisAddr is required for the redis token store")
		}
	default:
		return fmt.Errorf("config: unknown tokenStore %q (memory, file or redis)", cfg.TokenStore)
	}
	if cfg.GeocoderRatePerSecond <= 0 {
		return errors.New("config: geocoderRatePerSecond must be > 0")
	}
	switch cfg.ImageMirror {
	case "", ImageMirrorNone:
	case ImageMirrorDisk:
		if strings.TrimSpace(cfg.ImageDir) == "" {
			return errors.New("config: imageDir is required for the disk image mirror")
		}
	case ImageMirrorMinio:
		if cfg.MinioEndpoint == "" || cfg.MinioAccessKey == "" || cfg.MinioSecretKey == "" || cfg.MinioBucket == "" {
			return errors.New("config: minio endpoint, access key, secret key and bucket are required for the minio image mirror")
		}
	default:
		return fmt.Errorf("config: unknown imageMirror %q (none, disk or minio)", cfg.ImageMirror)
	}
	return nil
}

// ParseHTTPTimeout parses the optional request timeout; empty means 10s.
func ParseHTTPTimeout(s string) (time.Duration, error) {
	if strings.TrimSpace(s) == "" {
		return 10 * time.Second, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid httpTimeout duration: %w", err)
	}
	if d <= 0 {
		return 0, errors.New("config: httpTimeout must be > 0")
	}
	return d, nil
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return ".jamctl-token"
	}
	return filepath.Join(dir, "jamctl", "token")
}
