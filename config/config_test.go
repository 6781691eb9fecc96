package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func TestAllowsOriginWildcard(t *testing.T) {
	c := &Config{CORSOrigins: []string{"*"}}
	if !c.AllowsOrigin("https://anything.example") {
		t.Fatalf("expected wildcard to allow any origin")
	}
}

func TestAllowsOriginExactMatch(t *testing.T) {
	c := &Config{CORSOrigins: []string{"https://a.example", "https://b.example"}}
	if !c.AllowsOrigin("https://b.example") {
		t.Fatalf("expected configured origin to be allowed")
	}
	if c.AllowsOrigin("https://c.example") {
		t.Fatalf("expected unconfigured origin to be rejected")
	}
}

func TestBindFlagsDefaultsWithoutArgs(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg := BindFlags(fs, viper.New())

	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Fatalf("expected default cors origins of [*], got %v", cfg.CORSOrigins)
	}
	if cfg.CleanupInterval != DefaultCleanupInterval {
		t.Fatalf("expected default cleanup interval, got %s", cfg.CleanupInterval)
	}
}

func TestBindFlagsExplicitFlagOverridesDefault(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs, viper.New()) // registers the flags so Parse recognises them

	if err := fs.Parse([]string{"--port", "9090", "--cors-origins", "https://a.example,https://b.example"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	cfg := BindFlags(fs, viper.New()) // re-finalise against the now-parsed flags

	if cfg.Port != "9090" {
		t.Fatalf("expected flag-provided port 9090, got %q", cfg.Port)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("expected two configured origins, got %v", cfg.CORSOrigins)
	}
}
