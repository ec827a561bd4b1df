package config

import (
	"strings"
	"testing"
)

const validYAML = `
database:
  host: db.internal
  port: 3307
  database: compass_prod
server:
  port: 9090
scoring:
  gap_threshold: 3.0
frameworks:
  - key: spm
    name: Strategic Portfolio Management
  - key: finops
    name: FinOps
`

func TestParse_Valid(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("host = %q, want db.internal", cfg.Database.Host)
	}
	if cfg.Database.Port != 3307 {
		t.Errorf("port = %d, want 3307", cfg.Database.Port)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("server port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Scoring.GapThreshold != 3.0 {
		t.Errorf("gap threshold = %v, want 3.0", cfg.Scoring.GapThreshold)
	}
	if len(cfg.Frameworks) != 2 {
		t.Fatalf("frameworks = %d, want 2", len(cfg.Frameworks))
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("frameworks:\n  - key: spm\n    name: SPM\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Database.Host != "127.0.0.1" {
		t.Errorf("default host = %q, want 127.0.0.1", cfg.Database.Host)
	}
	if cfg.Database.Port != 3306 {
		t.Errorf("default port = %d, want 3306", cfg.Database.Port)
	}
	if cfg.Database.User != "root" {
		t.Errorf("default user = %q, want root", cfg.Database.User)
	}
	if cfg.Database.Database != "compass" {
		t.Errorf("default database = %q, want compass", cfg.Database.Database)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default server port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Scoring.GapThreshold != 3.5 {
		t.Errorf("default gap threshold = %v, want 3.5", cfg.Scoring.GapThreshold)
	}
	if cfg.Digest.Schedule != "0 6 * * *" {
		t.Errorf("default digest schedule = %q, want 0 6 * * *", cfg.Digest.Schedule)
	}
	if cfg.Digest.StaleDays != 14 {
		t.Errorf("default stale days = %d, want 14", cfg.Digest.StaleDays)
	}
}

func TestParse_NoFrameworks(t *testing.T) {
	_, err := Parse([]byte("server:\n  port: 8080\n"))
	if err == nil {
		t.Fatal("expected validation error without frameworks")
	}
	if !strings.Contains(err.Error(), "at least one framework") {
		t.Errorf("error = %q, want framework requirement", err.Error())
	}
}

func TestParse_DuplicateFrameworkKey(t *testing.T) {
	yaml := `
frameworks:
  - key: spm
    name: SPM
  - key: spm
    name: SPM again
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("expected validation error for duplicate key")
	}
	if !strings.Contains(err.Error(), "duplicated") {
		t.Errorf("error = %q, want duplicate complaint", err.Error())
	}
}

func TestParse_ThresholdOutOfRange(t *testing.T) {
	yaml := `
scoring:
  gap_threshold: 9.5
frameworks:
  - key: spm
    name: SPM
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("expected validation error for threshold out of range")
	}
	if !strings.Contains(err.Error(), "gap_threshold") {
		t.Errorf("error = %q, want gap_threshold complaint", err.Error())
	}
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte("frameworks: [unclosed"))
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/compass.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
