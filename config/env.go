package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the process-wide, operator-tunable settings. Everything in
// here is read once at startup; the engine and store take plain values or
// durations, never a *Config, so tests don't need to fabricate one.
type Config struct {
	Port                string
	CORSOrigins         []string
	CleanupInterval     time.Duration
	WaitingTTL          time.Duration
	SelectionTTL        time.Duration
	FinishedTTL         time.Duration
}

// AllowsOrigin reports whether origin is permitted by CORSOrigins, honoring
// a literal "*" wildcard entry.
func (c *Config) AllowsOrigin(origin string) bool {
	for _, o := range c.CORSOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

// BindFlags registers every setting as a pflag bound to v, then finalises a
// Config from the flag set's current state. Following the env-or-flag
// pattern, a flag wins if explicitly set on the command line, otherwise the
// environment variable of the same name (uppercased, underscored; durations
// use that name plus an _MS suffix, in milliseconds) is used.
//
// Registration and parsing are both the caller's concern in the general
// case (cobra parses its own Flags() before RunE runs), so when fs hasn't
// been parsed yet, BindFlags parses it itself against a nil argument list —
// i.e. defaults only — so a caller that only wants the env/default view
// (tests, or a BindFlags call made purely to register flags ahead of a
// framework's own parse) never needs to care. Call BindFlags again after
// the real parse to pick up whatever the command line actually set.
func BindFlags(fs *pflag.FlagSet, v *viper.Viper) *Config {
	registerFlags(fs)

	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
	})

	if !fs.Parsed() {
		_ = fs.Parse(nil)
	}
	return finalise(fs, v)
}

// registerFlags declares every setting on fs with its default, idempotently
// skipping any flag fs already has (so BindFlags can be called more than
// once on the same flag set, e.g. once to register ahead of a framework's
// parse and once after to read the result).
func registerFlags(fs *pflag.FlagSet) {
	if fs.Lookup("port") != nil {
		return
	}
	fs.String("port", "8080", "TCP port to listen on (env: PORT)")
	fs.String("cors-origins", "*", "comma-separated list of allowed CORS origins, or * (env: CORS_ORIGINS)")
	fs.Duration("room-cleanup-interval", DefaultCleanupInterval, "interval between cleanup sweeps (env: ROOM_CLEANUP_INTERVAL_MS, milliseconds)")
	fs.Duration("room-waiting-ttl", WaitingRoomTTL, "max age of a waiting-phase room before sweep (env: ROOM_WAITING_TTL_MS, milliseconds)")
	fs.Duration("room-selection-ttl", SelectionRoomTTL, "max age of a selection-phase room before sweep (env: ROOM_SELECTION_TTL_MS, milliseconds)")
	fs.Duration("room-finished-ttl", FinishedRoomTTL, "max age of a finished room before sweep (env: ROOM_FINISHED_TTL_MS, milliseconds)")
}

func finalise(fs *pflag.FlagSet, v *viper.Viper) *Config {
	cfg := &Config{}

	// Durations arrive from the environment as bare milliseconds per
	// spec.md §6, not Go duration strings, so they're parsed explicitly
	// rather than left to viper's generic Unmarshal.
	cfg.CleanupInterval = durationMsOrFlag(v, fs, "room-cleanup-interval")
	cfg.WaitingTTL = durationMsOrFlag(v, fs, "room-waiting-ttl")
	cfg.SelectionTTL = durationMsOrFlag(v, fs, "room-selection-ttl")
	cfg.FinishedTTL = durationMsOrFlag(v, fs, "room-finished-ttl")

	cfg.Port = mustGetString(fs, "port")
	if !fs.Changed("port") {
		if p := v.GetString("port"); p != "" {
			cfg.Port = p
		}
	}

	corsOrigins := mustGetString(fs, "cors-origins")
	if !fs.Changed("cors-origins") {
		if o := v.GetString("cors-origins"); o != "" {
			corsOrigins = o
		}
	}
	cfg.CORSOrigins = splitOrigins(corsOrigins)

	return cfg
}

func mustGetString(fs *pflag.FlagSet, name string) string {
	s, err := fs.GetString(name)
	if err != nil {
		return ""
	}
	return s
}

func durationMsOrFlag(v *viper.Viper, fs *pflag.FlagSet, name string) time.Duration {
	if fs.Changed(name) {
		d, _ := fs.GetDuration(name)
		return d
	}
	envKey := strings.ToUpper(strings.ReplaceAll(name, "-", "_")) + "_MS"
	if ms := v.GetInt64(envKey); ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	d, _ := fs.GetDuration(name)
	return d
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		out = []string{"*"}
	}
	return out
}

func (c *Config) String() string {
	return fmt.Sprintf("port=%s cors=%v cleanup=%s waitingTTL=%s selectionTTL=%s finishedTTL=%s",
		c.Port, c.CORSOrigins, c.CleanupInterval, c.WaitingTTL, c.SelectionTTL, c.FinishedTTL)
}
