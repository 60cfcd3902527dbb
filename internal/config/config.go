package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kozaktomas/facegate/internal/vision"
	"gopkg.in/yaml.v3"
)

//go:embed detection.yaml
var detectionYAML []byte

type Config struct {
	Web       WebConfig
	Database  DatabaseConfig
	Dataset   DatasetConfig
	Vision    VisionConfig
	Logging   LoggingConfig
	Detection DetectionConfig
}

type WebConfig struct {
	Host           string
	Port           int
	APIKey         string   // X-API-Key required on /api routes when set
	AllowedOrigins []string // CORS whitelist, localhost is always allowed
}

// Addr returns the listen address for the HTTP server.
func (c *WebConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type DatabaseConfig struct {
	Driver       string // "mysql" or "postgres"
	URL          string // DSN (mysql) or connection URL (postgres); empty disables metadata sync
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

// Enabled reports whether a metadata database is configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

type DatasetConfig struct {
	Dir       string // root of the per-user sample directories
	ModelPath string // the single trained model artifact
}

type VisionConfig struct {
	Detector         string // "haar" or "pigo"
	HaarCascadePath  string
	PigoCascadePath  string
	RecognizerRadius int // LBPH radius, 0 keeps the library default
}

type LoggingConfig struct {
	Level  string
	Format string // "text" or "json"
	File   string
}

// DetectionConfig holds detection parameters for each pipeline stage.
type DetectionConfig struct {
	Capture   vision.DetectParams `yaml:"capture"`
	Recognize vision.DetectParams `yaml:"recognize"`
	Train     vision.DetectParams `yaml:"train"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func envList(key string) []string {
	var out []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// databaseDriver picks the SQL driver, inferring postgres from the URL scheme.
func databaseDriver(url string) string {
	if d := os.Getenv("DATABASE_DRIVER"); d != "" {
		return strings.ToLower(d)
	}
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return "postgres"
	}
	return "mysql"
}

// LoadDetection parses the embedded detection defaults and applies the optional
// override file on top. Keys missing from the override keep their defaults.
func LoadDetection(overridePath string) (DetectionConfig, error) {
	var det DetectionConfig
	if err := yaml.Unmarshal(detectionYAML, &det); err != nil {
		// embedded file, a failure here is a build defect
		panic("failed to unmarshal embedded detection.yaml: " + err.Error())
	}
	if overridePath == "" {
		return det, nil
	}
	data, err := os.ReadFile(overridePath)
	if err != nil {
		return det, fmt.Errorf("read detection config: %w", err)
	}
	if err := yaml.Unmarshal(data, &det); err != nil {
		return det, fmt.Errorf("parse detection config %s: %w", overridePath, err)
	}
	return det, nil
}

func Load() (*Config, error) {
	det, err := LoadDetection(os.Getenv("DETECTION_CONFIG"))
	if err != nil {
		return nil, err
	}

	dbURL := os.Getenv("DATABASE_URL")
	return &Config{
		Web: WebConfig{
			Host:           envString("WEB_HOST", "0.0.0.0"),
			Port:           envInt("WEB_PORT", 5000),
			APIKey:         os.Getenv("WEB_API_KEY"),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Driver:       databaseDriver(dbURL),
			URL:          dbURL,
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Dataset: DatasetConfig{
			Dir:       envString("DATASET_DIR", "dataset"),
			ModelPath: envString("MODEL_PATH", "trainer/trainer.yml"),
		},
		Vision: VisionConfig{
			Detector:         strings.ToLower(envString("VISION_DETECTOR", "haar")),
			HaarCascadePath:  envString("HAAR_CASCADE_PATH", "haarcascade_frontalface_default.xml"),
			PigoCascadePath:  envString("PIGO_CASCADE_PATH", "cascade/facefinder"),
			RecognizerRadius: envInt("LBPH_RADIUS", 0),
		},
		Logging: LoggingConfig{
			Level:  envString("LOG_LEVEL", "info"),
			Format: envString("LOG_FORMAT", "text"),
			File:   os.Getenv("LOG_FILE"),
		},
		Detection: det,
	}, nil
}
