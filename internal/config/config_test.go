package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigFile_Defaults(t *testing.T) {
	cfg, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadConfigFile failed: %v", err)
	}

	if cfg.GetEndpoint() != DefaultEndpoint {
		t.Errorf("endpoint = %q, want %q", cfg.GetEndpoint(), DefaultEndpoint)
	}
	if cfg.GetMode() != ModeVanishing {
		t.Errorf("mode = %q, want vanishing", cfg.GetMode())
	}
	if cfg.FormField != "image" {
		t.Errorf("form field = %q, want image", cfg.FormField)
	}
	if cfg.GetRequestTimeout() != 0 {
		t.Errorf("timeout = %v, want none", cfg.GetRequestTimeout())
	}
}

func TestLoadConfigFile_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"endpoint": "http://detector.local:9000/detect-line", "mode": "line", "marker_radius": 20, "request_timeout_ms": 1500}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("VPDETECT_MARKER_RADIUS", "7")

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile failed: %v", err)
	}

	if cfg.GetEndpoint() != "http://detector.local:9000/detect-line" {
		t.Errorf("endpoint = %q", cfg.GetEndpoint())
	}
	if cfg.GetMode() != ModeLine {
		t.Errorf("mode = %q, want line", cfg.GetMode())
	}
	if cfg.GetMarkerRadius() != 7 {
		t.Errorf("marker radius = %d, want env override 7", cfg.GetMarkerRadius())
	}
	if cfg.GetRequestTimeout() != 1500*time.Millisecond {
		t.Errorf("timeout = %v, want 1.5s", cfg.GetRequestTimeout())
	}
	if cfg.GetStrokeWidth() != 3 {
		t.Errorf("stroke width = %d, want default 3", cfg.GetStrokeWidth())
	}
}

func TestLoadConfigFile_EnvEndpoint(t *testing.T) {
	t.Setenv("VPDETECT_ENDPOINT", "ws://localhost:8080/ws")

	cfg, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadConfigFile failed: %v", err)
	}
	if cfg.GetEndpoint() != "ws://localhost:8080/ws" {
		t.Errorf("endpoint = %q", cfg.GetEndpoint())
	}
}

func TestLoadConfigFile_Invalid(t *testing.T) {
	t.Setenv("VPDETECT_ENDPOINT", "ftp://example.com")
	t.Setenv("VPDETECT_MODE", "sideways")

	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Fatal("LoadConfigFile should reject an invalid config")
	}
	if !strings.Contains(err.Error(), "endpoint scheme") || !strings.Contains(err.Error(), "mode must be") {
		t.Errorf("error should list every problem, got: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}

	cfg.SetStrokeWidth(0)
	cfg.MarkerColor = "red"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate should fail")
	}
	for _, want := range []string{"stroke_width", "marker_color"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q: %v", want, err)
		}
	}
}

func TestValidateEndpoint(t *testing.T) {
	valid := []string{"http://127.0.0.1:5000/detect-vanishing", "https://x.example/detect", "wss://x.example/ws"}
	for _, e := range valid {
		if err := ValidateEndpoint(e); err != nil {
			t.Errorf("ValidateEndpoint(%q) = %v", e, err)
		}
	}

	invalid := []string{"", "127.0.0.1:5000", "http://", "file:///tmp/x"}
	for _, e := range invalid {
		if err := ValidateEndpoint(e); err == nil {
			t.Errorf("ValidateEndpoint(%q) should fail", e)
		}
	}
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := NewDefaultConfig()
	cfg.SetEndpoint("http://detector.local/detect-line")
	cfg.SetMode(ModeLine)
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile failed: %v", err)
	}
	if loaded.GetEndpoint() != cfg.GetEndpoint() || loaded.GetMode() != ModeLine {
		t.Errorf("saved config not restored: %+v", loaded)
	}
}

func TestMode_NotFoundText(t *testing.T) {
	if got := ModeVanishing.NotFoundText(); got != "No vanishing point found." {
		t.Errorf("vanishing text = %q", got)
	}
	if got := ModeLine.NotFoundText(); got != "No line found." {
		t.Errorf("line text = %q", got)
	}
}
