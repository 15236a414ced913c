package store

// schemaStatements are run in order, every process start. Every statement is
// naturally idempotent (IF NOT EXISTS / additive ALTER), so — per §4.2 —
// there is no tracked migrations ledger; adapted from akz4ol-gatewayops's
// MigrationRunner (idempotent, tracked-by-filename migrations) into inline
// idempotent DDL, since a separate ledger table buys nothing when every
// statement is already safe to re-run.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS sites (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		location    TEXT NOT NULL DEFAULT '',
		latitude    DOUBLE PRECISION,
		longitude   DOUBLE PRECISION,
		address     TEXT NOT NULL DEFAULT '',
		contact     TEXT NOT NULL DEFAULT '{}',
		is_active   BOOLEAN NOT NULL DEFAULT TRUE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS transmitters (
		id                    TEXT PRIMARY KEY,
		site_id               TEXT NOT NULL REFERENCES sites(id) ON DELETE CASCADE,
		name                  TEXT NOT NULL,
		host                  TEXT NOT NULL,
		port                  INTEGER NOT NULL DEFAULT 161,
		community             TEXT NOT NULL DEFAULT 'public',
		version               INTEGER NOT NULL DEFAULT 1,
		vendor                TEXT NOT NULL DEFAULT '',
		model                 TEXT NOT NULL DEFAULT '',
		poll_interval         INTEGER NOT NULL DEFAULT 10000,
		oids                  TEXT[] NOT NULL DEFAULT '{}',
		is_active             BOOLEAN NOT NULL DEFAULT TRUE,
		created_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at            TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	// Additive columns for deployments that predate display_label /
	// display_order (§9 Device/Transmitter collapse note).
	`ALTER TABLE transmitters ADD COLUMN IF NOT EXISTS display_label TEXT NOT NULL DEFAULT ''`,
	`ALTER TABLE transmitters ADD COLUMN IF NOT EXISTS display_order INTEGER NOT NULL DEFAULT 0`,

	// Migrate legacy poll_interval defaults (NULL or 30000) to the new
	// 10000ms default, per §4.2.
	`UPDATE transmitters SET poll_interval = 10000 WHERE poll_interval IS NULL OR poll_interval = 30000`,

	`CREATE TABLE IF NOT EXISTS transmitter_metrics (
		transmitter_id   TEXT NOT NULL REFERENCES transmitters(id) ON DELETE CASCADE,
		timestamp        TIMESTAMPTZ NOT NULL,
		power_output     DOUBLE PRECISION,
		forward_power    DOUBLE PRECISION,
		reflected_power  DOUBLE PRECISION,
		frequency_mhz    DOUBLE PRECISION,
		vswr             DOUBLE PRECISION,
		temperature      DOUBLE PRECISION,
		status           TEXT NOT NULL DEFAULT 'unknown',
		raw_varbinds     JSONB NOT NULL DEFAULT '[]',
		error            TEXT,
		PRIMARY KEY (transmitter_id, timestamp)
	)`,

	`CREATE TABLE IF NOT EXISTS snmp_traps (
		id               TEXT PRIMARY KEY,
		transmitter_id   TEXT REFERENCES transmitters(id) ON DELETE SET NULL,
		site_id          TEXT REFERENCES sites(id) ON DELETE SET NULL,
		source_host      TEXT NOT NULL,
		source_port      INTEGER NOT NULL,
		community        TEXT NOT NULL DEFAULT '',
		version          INTEGER NOT NULL DEFAULT 1,
		trap_oid         TEXT NOT NULL DEFAULT '',
		enterprise_oid   TEXT NOT NULL DEFAULT '',
		varbinds         JSONB NOT NULL DEFAULT '[]',
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_snmp_traps_created_at ON snmp_traps (created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_snmp_traps_source_host ON snmp_traps (source_host)`,
	`CREATE INDEX IF NOT EXISTS idx_snmp_traps_transmitter_id ON snmp_traps (transmitter_id)`,

	`CREATE TABLE IF NOT EXISTS alarms (
		id                TEXT PRIMARY KEY,
		transmitter_id    TEXT NOT NULL REFERENCES transmitters(id) ON DELETE CASCADE,
		severity          TEXT NOT NULL,
		type              TEXT NOT NULL,
		message           TEXT NOT NULL DEFAULT '',
		active            BOOLEAN NOT NULL DEFAULT TRUE,
		acknowledged_by   TEXT NOT NULL DEFAULT '',
		acknowledged_at   TIMESTAMPTZ,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}
