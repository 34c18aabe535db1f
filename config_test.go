package ordinato

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/soundprediction/ordinato/pkg/types"
)

func TestDefaultRankerConfig(t *testing.T) {
	config := DefaultRankerConfig()

	if config.Model != DefaultModel {
		t.Errorf("Expected model %s, got %s", DefaultModel, config.Model)
	}
	if config.TopK != DefaultTopK {
		t.Errorf("Expected top_k %d, got %d", DefaultTopK, config.TopK)
	}
	if !config.ScaleScore {
		t.Error("Expected scale_score to default to true")
	}
	if config.CalibrationFactor == nil || *config.CalibrationFactor != 1.0 {
		t.Errorf("Expected calibration factor 1.0, got %v", config.CalibrationFactor)
	}
	if config.Separator != "\n" {
		t.Errorf("Expected newline separator, got %q", config.Separator)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Default config should validate, got: %v", err)
	}
}

func TestRankerConfigValidate(t *testing.T) {
	config := DefaultRankerConfig()
	config.TopK = 0
	if err := config.Validate(); !errors.Is(err, types.ErrInvalidTopK) {
		t.Errorf("Expected ErrInvalidTopK, got: %v", err)
	}

	config = DefaultRankerConfig()
	config.CalibrationFactor = nil
	if err := config.Validate(); !errors.Is(err, ErrNilCalibrationFactor) {
		t.Errorf("Expected ErrNilCalibrationFactor, got: %v", err)
	}

	config.ScaleScore = false
	if err := config.Validate(); err != nil {
		t.Errorf("Unscaled config without factor should validate, got: %v", err)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	config := DefaultRankerConfig()
	config.Model = "BAAI/bge-reranker-base"
	config.TopK = 5
	config.QueryPrefix = "query: "
	config.DocumentPrefix = "passage: "
	config.MetaFields = []string{"title", "section"}
	config.Separator = " | "
	config.ScoreThreshold = Float64(0.25)
	config.CalibrationFactor = Float64(1.5)

	path := filepath.Join(t.TempDir(), "ranker.yaml")
	if err := SaveConfig(config, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if loaded.Model != config.Model {
		t.Errorf("Model: expected %s, got %s", config.Model, loaded.Model)
	}
	if loaded.TopK != config.TopK {
		t.Errorf("TopK: expected %d, got %d", config.TopK, loaded.TopK)
	}
	if loaded.QueryPrefix != config.QueryPrefix || loaded.DocumentPrefix != config.DocumentPrefix {
		t.Errorf("Prefixes: expected %q/%q, got %q/%q",
			config.QueryPrefix, config.DocumentPrefix, loaded.QueryPrefix, loaded.DocumentPrefix)
	}
	if len(loaded.MetaFields) != 2 || loaded.MetaFields[0] != "title" || loaded.MetaFields[1] != "section" {
		t.Errorf("MetaFields: expected %v, got %v", config.MetaFields, loaded.MetaFields)
	}
	if loaded.Separator != config.Separator {
		t.Errorf("Separator: expected %q, got %q", config.Separator, loaded.Separator)
	}
	if loaded.ScoreThreshold == nil || *loaded.ScoreThreshold != 0.25 {
		t.Errorf("ScoreThreshold: expected 0.25, got %v", loaded.ScoreThreshold)
	}
	if loaded.CalibrationFactor == nil || *loaded.CalibrationFactor != 1.5 {
		t.Errorf("CalibrationFactor: expected 1.5, got %v", loaded.CalibrationFactor)
	}
	if !loaded.ScaleScore {
		t.Error("ScaleScore: expected true")
	}
}

func TestLoadConfigKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("model: my-model\n"), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if loaded.Model != "my-model" {
		t.Errorf("Expected model my-model, got %s", loaded.Model)
	}
	// Fields absent from the file keep their defaults
	if loaded.TopK != DefaultTopK {
		t.Errorf("Expected default top_k %d, got %d", DefaultTopK, loaded.TopK)
	}
	if !loaded.ScaleScore {
		t.Error("Expected scale_score to keep its default")
	}
	if loaded.CalibrationFactor == nil || *loaded.CalibrationFactor != 1.0 {
		t.Errorf("Expected default calibration factor, got %v", loaded.CalibrationFactor)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid.yaml")
	if err := os.WriteFile(path, []byte("top_k: -3\n"), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	if _, err := LoadConfig(path); !errors.Is(err, types.ErrInvalidTopK) {
		t.Errorf("Expected ErrInvalidTopK, got: %v", err)
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}
