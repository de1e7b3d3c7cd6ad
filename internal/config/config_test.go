package config

import "testing"

func TestParse_ValidMinimal(t *testing.T) {
	yaml := `
backend:
  verifyta_path: /usr/bin/verifyta
matching:
  support_shifted_matching: true
  allowed_deviations:
    speed: 2
`
	cfg, err := Parse([]byte(yaml), "test.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Backend.VerifytaPath != "/usr/bin/verifyta" {
		t.Errorf("verifyta_path = %q", cfg.Backend.VerifytaPath)
	}
	if !cfg.Matching.SupportShiftedMatching {
		t.Error("expected support_shifted_matching = true")
	}
	if cfg.Matching.AllowedDeviations["speed"] != 2 {
		t.Errorf("allowed_deviations[speed] = %d, want 2", cfg.Matching.AllowedDeviations["speed"])
	}
	// defaults
	if cfg.GRPC.Address != "127.0.0.1:7070" {
		t.Errorf("default grpc address = %q", cfg.GRPC.Address)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("default log level = %q, want info", cfg.LogLevel)
	}
}

func TestParse_MissingVerifytaPath(t *testing.T) {
	if _, err := Parse([]byte("matching:\n  support_shifted_matching: true\n"), "test.yaml"); err == nil {
		t.Fatal("expected an error for a missing verifyta_path")
	}
}

func TestParse_NegativeDeviationRejected(t *testing.T) {
	yaml := `
backend:
  verifyta_path: /usr/bin/verifyta
matching:
  allowed_deviations:
    speed: -1
`
	if _, err := Parse([]byte(yaml), "test.yaml"); err == nil {
		t.Fatal("expected an error for a negative allowed deviation")
	}
}

func TestParse_CacheEnabledRequiresPath(t *testing.T) {
	yaml := `
backend:
  verifyta_path: /usr/bin/verifyta
cache:
  enabled: true
`
	if _, err := Parse([]byte(yaml), "test.yaml"); err == nil {
		t.Fatal("expected an error for cache.enabled without cache.path")
	}
}
