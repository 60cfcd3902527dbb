package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnvInt(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected int
	}{
		{"unset", "", 25},
		{"valid", "40", 40},
		{"zero falls back", "0", 25},
		{"negative falls back", "-3", 25},
		{"garbage falls back", "lots", 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("FACEGATE_TEST_INT", tt.value)
			if got := envInt("FACEGATE_TEST_INT", 25); got != tt.expected {
				t.Errorf("envInt() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestDatabaseDriver(t *testing.T) {
	tests := []struct {
		name     string
		driver   string
		url      string
		expected string
	}{
		{"mysql dsn", "", "root:@tcp(127.0.0.1:3306)/faces", "mysql"},
		{"postgres url", "", "postgres://u:p@localhost/faces", "postgres"},
		{"postgresql url", "", "postgresql://u:p@localhost/faces", "postgres"},
		{"explicit wins", "POSTGRES", "root:@tcp(127.0.0.1:3306)/faces", "postgres"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_DRIVER", tt.driver)
			if got := databaseDriver(tt.url); got != tt.expected {
				t.Errorf("databaseDriver(%q) = %q, want %q", tt.url, got, tt.expected)
			}
		})
	}
}

func TestLoadDetection_EmbeddedDefaults(t *testing.T) {
	det, err := LoadDetection("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if det.Capture.ScaleFactor != 1.3 || det.Capture.MinNeighbors != 5 {
		t.Errorf("capture params = %+v, want scale 1.3 neighbors 5", det.Capture)
	}
	if det.Recognize.ScaleFactor != 1.2 || det.Recognize.MinNeighbors != 5 {
		t.Errorf("recognize params = %+v, want scale 1.2 neighbors 5", det.Recognize)
	}
	if det.Train.ScaleFactor != 1.1 || det.Train.MinNeighbors != 3 {
		t.Errorf("train params = %+v, want scale 1.1 neighbors 3", det.Train)
	}
}

func TestLoadDetection_OverrideKeepsMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "detection.yaml")
	content := "recognize:\n  scale_factor: 1.05\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write override: %v", err)
	}

	det, err := LoadDetection(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if det.Recognize.ScaleFactor != 1.05 {
		t.Errorf("expected overridden scale 1.05, got %v", det.Recognize.ScaleFactor)
	}
	if det.Recognize.MinNeighbors != 5 {
		t.Errorf("expected default min_neighbors 5 to survive, got %d", det.Recognize.MinNeighbors)
	}
	if det.Capture.ScaleFactor != 1.3 {
		t.Errorf("expected capture untouched, got %v", det.Capture.ScaleFactor)
	}
}

func TestLoadDetection_MissingFile(t *testing.T) {
	_, err := LoadDetection(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing override file")
	}
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"WEB_HOST", "WEB_PORT", "DATABASE_URL", "DATABASE_DRIVER", "DATASET_DIR", "MODEL_PATH", "VISION_DETECTOR", "DETECTION_CONFIG"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Web.Addr() != "0.0.0.0:5000" {
		t.Errorf("expected default addr 0.0.0.0:5000, got %s", cfg.Web.Addr())
	}
	if cfg.Database.Enabled() {
		t.Error("expected metadata database to be disabled without DATABASE_URL")
	}
	if cfg.Dataset.Dir != "dataset" {
		t.Errorf("expected dataset dir 'dataset', got %q", cfg.Dataset.Dir)
	}
	if cfg.Dataset.ModelPath != "trainer/trainer.yml" {
		t.Errorf("expected model path 'trainer/trainer.yml', got %q", cfg.Dataset.ModelPath)
	}
	if cfg.Vision.Detector != "haar" {
		t.Errorf("expected haar detector by default, got %q", cfg.Vision.Detector)
	}
}

func TestLoad_AllowedOrigins(t *testing.T) {
	t.Setenv("DETECTION_CONFIG", "")
	t.Setenv("WEB_ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Web.AllowedOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.Web.AllowedOrigins)
	}
	if cfg.Web.AllowedOrigins[1] != "https://b.example.com" {
		t.Errorf("unexpected origin %q", cfg.Web.AllowedOrigins[1])
	}
}
