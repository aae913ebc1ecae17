package config

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func parseConfig(t *testing.T, data string) Config {
	t.Helper()
	var cfg Config
	if err := yaml.Unmarshal(expandEnvVars([]byte(data)), &cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults_HighAccuracy(t *testing.T) {
	cfg := parseConfig(t, `
http:
  port: 8000
embedding:
  api_key: test
index:
  host: https://idx.example.dev
`)

	if cfg.Embedding.Variant != VariantHighAccuracy {
		t.Fatalf("expected default variant, got %q", cfg.Embedding.Variant)
	}
	if cfg.Embedding.Model != DefaultHighAccuracyModel {
		t.Fatalf("unexpected model: %q", cfg.Embedding.Model)
	}
	if cfg.Embedding.Dimensions != 1024 || cfg.Index.Dimensions != 1024 {
		t.Fatalf("unexpected dimensions: %d / %d", cfg.Embedding.Dimensions, cfg.Index.Dimensions)
	}
	if cfg.Index.Name != "audiencelab-embeddings-1024" {
		t.Fatalf("unexpected index name: %q", cfg.Index.Name)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config: %v", err)
	}
}

func TestApplyDefaults_FastVariant(t *testing.T) {
	cfg := parseConfig(t, `
http:
  port: 8000
embedding:
  variant: fast
  api_key: test
index:
  host: https://idx.example.dev
  dimensions: 384
`)

	if cfg.Embedding.Model != DefaultFastModel {
		t.Fatalf("unexpected model: %q", cfg.Embedding.Model)
	}
	if cfg.Embedding.Dimensions != 384 {
		t.Fatalf("unexpected dimensions: %d", cfg.Embedding.Dimensions)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config: %v", err)
	}
}

func TestValidate_DimensionMismatch(t *testing.T) {
	cfg := parseConfig(t, `
http:
  port: 8000
embedding:
  variant: fast
  api_key: test
index:
  host: https://idx.example.dev
`)

	// fast model is 384-dimensional, index defaults to 1024
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "must match index.dimensions") {
		t.Fatalf("expected dimension mismatch error, got %v", err)
	}
}

func TestValidate_DisabledVariantNeedsNoKey(t *testing.T) {
	cfg := parseConfig(t, `
http:
  port: 8000
embedding:
  variant: disabled
index:
  host: https://idx.example.dev
`)

	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid keyword-only config: %v", err)
	}
}

func TestValidate_UnknownVariant(t *testing.T) {
	cfg := parseConfig(t, `
http:
  port: 8000
embedding:
  variant: gigantic
index:
  host: https://idx.example.dev
`)

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown variant")
	}
}

func TestValidate_HeuristicEntries(t *testing.T) {
	cfg := parseConfig(t, `
http:
  port: 8000
embedding:
  variant: disabled
index:
  host: https://idx.example.dev
heuristics:
  patterns:
    - pattern: "  "
      topics: [X]
`)

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for blank heuristic pattern")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("SEGMATCH_TEST_KEY", "sekret")

	out := string(expandEnvVars([]byte("api_key: ${SEGMATCH_TEST_KEY}\nhost: ${SEGMATCH_UNSET:-fallback}")))
	if !strings.Contains(out, "sekret") {
		t.Fatalf("env var not expanded: %q", out)
	}
	if !strings.Contains(out, "fallback") {
		t.Fatalf("default not applied: %q", out)
	}
}

func TestHeuristicsEnabled_DefaultTrue(t *testing.T) {
	var cfg Config
	if !cfg.HeuristicsEnabled() {
		t.Fatal("expected heuristics enabled by default")
	}

	off := false
	cfg.Heuristics.Enabled = &off
	if cfg.HeuristicsEnabled() {
		t.Fatal("expected heuristics disabled")
	}
}
