// Package appcore wires storage, the poll scheduler, and the trap receiver
// into one Application and owns their start/stop order (§6, §4.7).
package appcore

import (
	"os"
	"strconv"
)

// Config is the top-level, environment-sourced configuration for the
// transmitter monitoring core. Use ConfigFromEnv to populate it.
type Config struct {
	// DatabaseURL is the Postgres connection string (required).
	DatabaseURL string

	// TrapPrimaryPort is SNMP_TRAP_PORT / TRAP_PORT (default 162).
	TrapPrimaryPort int
	// TrapFallbackPort is SNMP_TRAP_FALLBACK_PORT (default 10162).
	TrapFallbackPort int
	// TrapRequirePrivileged is SNMP_TRAP_REQUIRE_PRIVILEGED (default true).
	TrapRequirePrivileged bool
	// TrapAutoFallback is SNMP_TRAP_AUTO_FALLBACK (default false).
	TrapAutoFallback bool

	// MibMapDir is MIB_MAP_DIR (default "./config/mibmap").
	MibMapDir string

	// Port is recorded for forward compatibility with a future HTTP layer
	// but unused by this module (§6).
	Port string
}

// ConfigFromEnv populates a Config from the environment variables named in
// §6: DATABASE_URL, SNMP_TRAP_PORT/TRAP_PORT, SNMP_TRAP_FALLBACK_PORT,
// SNMP_TRAP_REQUIRE_PRIVILEGED, SNMP_TRAP_AUTO_FALLBACK, MIB_MAP_DIR, PORT.
func ConfigFromEnv() Config {
	cfg := Config{
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		TrapPrimaryPort:       envInt("SNMP_TRAP_PORT", envInt("TRAP_PORT", 162)),
		TrapFallbackPort:      envInt("SNMP_TRAP_FALLBACK_PORT", 10162),
		TrapRequirePrivileged: envBool("SNMP_TRAP_REQUIRE_PRIVILEGED", true),
		TrapAutoFallback:      envBool("SNMP_TRAP_AUTO_FALLBACK", false),
		MibMapDir:             os.Getenv("MIB_MAP_DIR"),
		Port:                  os.Getenv("PORT"),
	}
	if cfg.MibMapDir == "" {
		cfg.MibMapDir = "./config/mibmap"
	}
	return cfg
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
