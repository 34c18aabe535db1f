package ordinato

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/soundprediction/ordinato/pkg/types"
)

const (
	// DefaultModel is the cross-encoder model used when none is configured.
	DefaultModel = "cross-encoder/ms-marco-MiniLM-L-6-v2"

	// DefaultTopK is the number of documents returned when none is configured.
	DefaultTopK = 10

	defaultSeparator = "\n"
	defaultBatchSize = 16
)

// RankerConfig holds the ranking configuration. It round-trips through YAML
// and JSON so pipelines can be persisted and restored.
type RankerConfig struct {
	// Model is the cross-encoder model name, interpreted by the provider.
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// TopK is the maximum number of documents to return. Must be positive.
	TopK int `json:"top_k" yaml:"top_k" mapstructure:"top_k"`

	// QueryPrefix is prepended to the query before scoring. Some models,
	// e.g. bge rerankers, expect instruction prefixes.
	QueryPrefix string `json:"query_prefix,omitempty" yaml:"query_prefix,omitempty" mapstructure:"query_prefix"`

	// DocumentPrefix is prepended to each document text before scoring.
	DocumentPrefix string `json:"document_prefix,omitempty" yaml:"document_prefix,omitempty" mapstructure:"document_prefix"`

	// MetaFields lists metadata keys whose values are joined with the
	// document content when building the text pair.
	MetaFields []string `json:"meta_fields,omitempty" yaml:"meta_fields,omitempty" mapstructure:"meta_fields"`

	// Separator joins metadata values and content. Empty means newline.
	Separator string `json:"separator,omitempty" yaml:"separator,omitempty" mapstructure:"separator"`

	// ScaleScore maps raw model logits to 0-1 via
	// sigmoid(logit * CalibrationFactor).
	ScaleScore bool `json:"scale_score" yaml:"scale_score" mapstructure:"scale_score"`

	// CalibrationFactor steepens or flattens the sigmoid. Required when
	// ScaleScore is set.
	CalibrationFactor *float64 `json:"calibration_factor,omitempty" yaml:"calibration_factor,omitempty" mapstructure:"calibration_factor"`

	// ScoreThreshold drops documents scoring below it. Nil keeps all.
	ScoreThreshold *float64 `json:"score_threshold,omitempty" yaml:"score_threshold,omitempty" mapstructure:"score_threshold"`

	// BatchSize is the number of pairs scored per client call.
	BatchSize int `json:"batch_size,omitempty" yaml:"batch_size,omitempty" mapstructure:"batch_size"`
}

// DefaultRankerConfig returns the default ranking configuration.
func DefaultRankerConfig() RankerConfig {
	factor := 1.0
	return RankerConfig{
		Model:             DefaultModel,
		TopK:              DefaultTopK,
		Separator:         defaultSeparator,
		ScaleScore:        true,
		CalibrationFactor: &factor,
		BatchSize:         defaultBatchSize,
	}
}

// Validate checks the configuration for contradictions.
func (c RankerConfig) Validate() error {
	if c.TopK <= 0 {
		return fmt.Errorf("%w: %d", types.ErrInvalidTopK, c.TopK)
	}
	if c.ScaleScore && c.CalibrationFactor == nil {
		return ErrNilCalibrationFactor
	}
	return nil
}

// LoadConfig reads a RankerConfig from a YAML file. Fields absent from the
// file keep their defaults.
func LoadConfig(path string) (RankerConfig, error) {
	config := DefaultRankerConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

// SaveConfig writes a RankerConfig to a YAML file.
func SaveConfig(config RankerConfig, path string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
