package ingest

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy holds the tunable ingestion thresholds: the quality-gate limits
// and extra tracking parameters for URL canonicalization. The check order
// itself is fixed in the gate and never configurable, so the reasons list
// stays reproducible across runs.
type Policy struct {
	// MinTextLength is the minimum text length in runes.
	MinTextLength int `yaml:"min_text_length"`
	// MinWordCount is the minimum number of word tokens.
	MinWordCount int `yaml:"min_word_count"`
	// MinDistinctWordRatio is the low-information floor: distinct words
	// over total words, applied once the word-count floor is met.
	MinDistinctWordRatio float64 `yaml:"min_distinct_word_ratio"`
	// TrackingParams lists query parameters stripped during URL
	// canonicalization in addition to the built-in set.
	TrackingParams []string `yaml:"tracking_params"`
}

// DefaultPolicy returns the compiled-in thresholds. The defaults are
// deliberately lenient, catching empty-ish and degenerate bodies only;
// deployments tighten them through the policy file.
func DefaultPolicy() *Policy {
	return &Policy{
		MinTextLength:        10,
		MinWordCount:         2,
		MinDistinctWordRatio: 0.2,
	}
}

// LoadPolicy reads a YAML policy file, applying file values on top of the
// defaults. Unknown keys are rejected to catch typos early.
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}

	policy := DefaultPolicy()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(policy); err != nil {
		return nil, fmt.Errorf("parse policy file %s: %w", path, err)
	}

	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("policy file %s: %w", path, err)
	}
	return policy, nil
}

// Validate checks the thresholds are usable.
func (p *Policy) Validate() error {
	if p.MinTextLength < 0 {
		return fmt.Errorf("min_text_length must not be negative")
	}
	if p.MinWordCount < 0 {
		return fmt.Errorf("min_word_count must not be negative")
	}
	if p.MinDistinctWordRatio < 0 || p.MinDistinctWordRatio > 1 {
		return fmt.Errorf("min_distinct_word_ratio must be between 0 and 1")
	}
	return nil
}
