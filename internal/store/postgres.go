package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/txfleet/txcore/internal/models"
)

// PostgresStore is the production Store implementation backed by a
// pgxpool.Pool. Grounded on carverauto-serviceradar's pgxpool construction
// (pkg/db/cnpg_pool.go) and raw parameterized-SQL style
// (pkg/db/cnpg_metrics.go).
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Open parses databaseURL and opens a connection pool. It does not verify
// connectivity — callers should follow with InitializeSchema, which will
// surface connection failures as ErrTransient.
func Open(ctx context.Context, databaseURL string, logger *slog.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}

	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("store: parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("store: open pool: %w", err)
	}

	logger.Info("store: connected", "max_conns", poolConfig.MaxConns)
	return &PostgresStore{pool: pool, logger: logger}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

// InitializeSchema runs every statement in schemaStatements in order. Safe
// to call on every process start (§4.2).
func (s *PostgresStore) InitializeSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("store: initialize schema: %w", classify(err))
		}
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Sites
// ─────────────────────────────────────────────────────────────────────────────

func (s *PostgresStore) ListSites(ctx context.Context) ([]models.Site, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, location, latitude, longitude, address, contact, is_active, created_at, updated_at FROM sites ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("store: list sites: %w", classify(err))
	}
	defer rows.Close()

	var out []models.Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan site: %w", classify(err))
		}
		out = append(out, site)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetSite(ctx context.Context, id string) (models.Site, error) {
	row := s.pool.QueryRow(ctx, `SELECT id, name, location, latitude, longitude, address, contact, is_active, created_at, updated_at FROM sites WHERE id = $1`, id)
	site, err := scanSite(row)
	if err != nil {
		return models.Site{}, fmt.Errorf("store: get site %s: %w", id, classify(err))
	}
	return site, nil
}

func (s *PostgresStore) CreateSite(ctx context.Context, site models.Site) (models.Site, error) {
	now := time.Now().UTC()
	site.CreatedAt, site.UpdatedAt = now, now
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sites (id, name, location, latitude, longitude, address, contact, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		site.ID, site.Name, site.Location, site.Latitude, site.Longitude, site.Address,
		marshalContactInfo(site.Contact), site.IsActive, site.CreatedAt, site.UpdatedAt)
	if err != nil {
		return models.Site{}, fmt.Errorf("store: create site: %w", classify(err))
	}
	return site, nil
}

func (s *PostgresStore) UpdateSite(ctx context.Context, id string, patch models.SitePatch) (models.Site, error) {
	current, err := s.GetSite(ctx, id)
	if err != nil {
		return models.Site{}, err
	}
	applySitePatch(&current, patch)
	current.UpdatedAt = time.Now().UTC()

	_, err = s.pool.Exec(ctx, `
		UPDATE sites SET name=$2, location=$3, latitude=$4, longitude=$5, address=$6, contact=$7, is_active=$8, updated_at=$9
		WHERE id=$1`,
		current.ID, current.Name, current.Location, current.Latitude, current.Longitude,
		current.Address, marshalContactInfo(current.Contact), current.IsActive, current.UpdatedAt)
	if err != nil {
		return models.Site{}, fmt.Errorf("store: update site %s: %w", id, classify(err))
	}
	return current, nil
}

func (s *PostgresStore) DeleteSite(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sites WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("store: delete site %s: %w", id, classify(err))
	}
	return nil
}

func (s *PostgresStore) IsSiteActive(ctx context.Context, id string) (bool, error) {
	var active bool
	err := s.pool.QueryRow(ctx, `SELECT is_active FROM sites WHERE id = $1`, id).Scan(&active)
	if err != nil {
		return false, fmt.Errorf("store: is site active %s: %w", id, classify(err))
	}
	return active, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Transmitters
// ─────────────────────────────────────────────────────────────────────────────

func (s *PostgresStore) ListTransmitters(ctx context.Context) ([]models.Transmitter, error) {
	rows, err := s.pool.Query(ctx, transmitterSelectSQL())
	if err != nil {
		return nil, fmt.Errorf("store: list transmitters: %w", classify(err))
	}
	defer rows.Close()

	var out []models.Transmitter
	for rows.Next() {
		t, err := scanTransmitter(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan transmitter: %w", classify(err))
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetTransmitter(ctx context.Context, id string) (models.Transmitter, error) {
	row := s.pool.QueryRow(ctx, transmitterSelectSQL()+` WHERE id = $1`, id)
	t, err := scanTransmitter(row)
	if err != nil {
		return models.Transmitter{}, fmt.Errorf("store: get transmitter %s: %w", id, classify(err))
	}
	return t, nil
}

func (s *PostgresStore) CreateTransmitter(ctx context.Context, t models.Transmitter) (models.Transmitter, error) {
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	_, err := s.pool.Exec(ctx, `
		INSERT INTO transmitters (id, site_id, name, host, port, community, version, vendor, model, poll_interval, oids, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		t.ID, t.SiteID, t.Name, t.Host, t.Port, t.Community, t.Version, t.Vendor, t.Model,
		t.PollIntervalMillis, t.OIDs, t.IsActive, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return models.Transmitter{}, fmt.Errorf("store: create transmitter: %w", classify(err))
	}
	return t, nil
}

func (s *PostgresStore) UpdateTransmitter(ctx context.Context, id string, patch models.TransmitterPatch) (models.Transmitter, error) {
	current, err := s.GetTransmitter(ctx, id)
	if err != nil {
		return models.Transmitter{}, err
	}
	applyTransmitterPatch(&current, patch)
	current.UpdatedAt = time.Now().UTC()

	_, err = s.pool.Exec(ctx, `
		UPDATE transmitters SET name=$2, host=$3, port=$4, community=$5, version=$6, vendor=$7, model=$8,
			poll_interval=$9, oids=$10, is_active=$11, updated_at=$12
		WHERE id=$1`,
		current.ID, current.Name, current.Host, current.Port, current.Community, current.Version,
		current.Vendor, current.Model, current.PollIntervalMillis, current.OIDs, current.IsActive, current.UpdatedAt)
	if err != nil {
		return models.Transmitter{}, fmt.Errorf("store: update transmitter %s: %w", id, classify(err))
	}
	return current, nil
}

func (s *PostgresStore) DeleteTransmitter(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM transmitters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("store: delete transmitter %s: %w", id, classify(err))
	}
	return nil
}

func (s *PostgresStore) UpdateTransmitterName(ctx context.Context, id, name string) error {
	_, err := s.pool.Exec(ctx, `UPDATE transmitters SET name = $2, updated_at = $3 WHERE id = $1`, id, name, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("store: update transmitter name %s: %w", id, classify(err))
	}
	return nil
}

func (s *PostgresStore) IsTransmitterActive(ctx context.Context, id string) (bool, error) {
	var active bool
	err := s.pool.QueryRow(ctx, `SELECT is_active FROM transmitters WHERE id = $1`, id).Scan(&active)
	if err != nil {
		return false, fmt.Errorf("store: is transmitter active %s: %w", id, classify(err))
	}
	return active, nil
}

func (s *PostgresStore) FindTransmitterByHost(ctx context.Context, host string) ([]models.Transmitter, error) {
	rows, err := s.pool.Query(ctx, transmitterSelectSQL()+` WHERE host = $1`, host)
	if err != nil {
		return nil, fmt.Errorf("store: find transmitter by host %s: %w", host, classify(err))
	}
	defer rows.Close()

	var out []models.Transmitter
	for rows.Next() {
		t, err := scanTransmitter(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan transmitter: %w", classify(err))
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Metrics
// ─────────────────────────────────────────────────────────────────────────────

func (s *PostgresStore) StoreMetric(ctx context.Context, row models.TransmitterMetricRow) error {
	varbindsJSON, err := json.Marshal(row.RawVarbinds)
	if err != nil {
		varbindsJSON = []byte("[]")
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO transmitter_metrics (
			transmitter_id, timestamp, power_output, forward_power, reflected_power,
			frequency_mhz, vswr, temperature, status, raw_varbinds, error
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		row.TransmitterID, row.Timestamp, row.PowerOutput, row.ForwardPower, row.ReflectedPower,
		row.FrequencyMHz, row.VSWR, row.Temperature, row.Status, varbindsJSON, nullableString(row.Error))
	if err != nil {
		return fmt.Errorf("store: store metric: %w", classify(err))
	}
	return nil
}

func (s *PostgresStore) ListMetrics(ctx context.Context, transmitterID string, since time.Time, limit int) ([]models.TransmitterMetricRow, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT transmitter_id, timestamp, power_output, forward_power, reflected_power,
			frequency_mhz, vswr, temperature, status, raw_varbinds, error
		FROM transmitter_metrics
		WHERE transmitter_id = $1 AND timestamp >= $2
		ORDER BY timestamp DESC
		LIMIT $3`, transmitterID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list metrics %s: %w", transmitterID, classify(err))
	}
	defer rows.Close()

	var out []models.TransmitterMetricRow
	for rows.Next() {
		var row models.TransmitterMetricRow
		var varbindsJSON []byte
		var errMsg *string
		if err := rows.Scan(&row.TransmitterID, &row.Timestamp, &row.PowerOutput, &row.ForwardPower,
			&row.ReflectedPower, &row.FrequencyMHz, &row.VSWR, &row.Temperature, &row.Status,
			&varbindsJSON, &errMsg); err != nil {
			return nil, fmt.Errorf("store: scan metric: %w", classify(err))
		}
		_ = json.Unmarshal(varbindsJSON, &row.RawVarbinds)
		if errMsg != nil {
			row.Error = *errMsg
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Traps
// ─────────────────────────────────────────────────────────────────────────────

func (s *PostgresStore) StoreTrap(ctx context.Context, trap models.SnmpTrap) error {
	varbindsJSON, err := json.Marshal(trap.Varbinds)
	if err != nil {
		varbindsJSON = []byte("[]")
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO snmp_traps (id, transmitter_id, site_id, source_host, source_port, community, version, trap_oid, enterprise_oid, varbinds, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		trap.ID, trap.TransmitterID, trap.SiteID, trap.SourceHost, trap.SourcePort, trap.Community,
		trap.Version, trap.TrapOID, trap.EnterpriseOID, varbindsJSON, trap.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: store trap: %w", classify(err))
	}
	return nil
}

func (s *PostgresStore) ListTraps(ctx context.Context, limit int) ([]models.SnmpTrap, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, transmitter_id, site_id, source_host, source_port, community, version, trap_oid, enterprise_oid, varbinds, created_at
		FROM snmp_traps ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list traps: %w", classify(err))
	}
	defer rows.Close()

	var out []models.SnmpTrap
	for rows.Next() {
		var t models.SnmpTrap
		var varbindsJSON []byte
		if err := rows.Scan(&t.ID, &t.TransmitterID, &t.SiteID, &t.SourceHost, &t.SourcePort,
			&t.Community, &t.Version, &t.TrapOID, &t.EnterpriseOID, &varbindsJSON, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan trap: %w", classify(err))
		}
		_ = json.Unmarshal(varbindsJSON, &t.Varbinds)
		out = append(out, t)
	}
	return out, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Alarms
// ─────────────────────────────────────────────────────────────────────────────

func (s *PostgresStore) ListAlarms(ctx context.Context, transmitterID string) ([]models.Alarm, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, transmitter_id, severity, type, message, active, acknowledged_by, acknowledged_at, created_at
		FROM alarms WHERE transmitter_id = $1 ORDER BY created_at DESC`, transmitterID)
	if err != nil {
		return nil, fmt.Errorf("store: list alarms %s: %w", transmitterID, classify(err))
	}
	defer rows.Close()

	var out []models.Alarm
	for rows.Next() {
		var a models.Alarm
		if err := rows.Scan(&a.ID, &a.TransmitterID, &a.Severity, &a.Type, &a.Message, &a.Active,
			&a.AcknowledgedBy, &a.AcknowledgedAt, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan alarm: %w", classify(err))
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSite(r rowScanner) (models.Site, error) {
	var site models.Site
	var contact string
	if err := r.Scan(&site.ID, &site.Name, &site.Location, &site.Latitude, &site.Longitude,
		&site.Address, &contact, &site.IsActive, &site.CreatedAt, &site.UpdatedAt); err != nil {
		return models.Site{}, err
	}
	site.Contact = normalizeContactInfo(contact)
	return site, nil
}

func transmitterSelectSQL() string {
	return `SELECT id, site_id, name, host, port, community, version, vendor, model, poll_interval, oids, is_active, created_at, updated_at FROM transmitters`
}

func scanTransmitter(r rowScanner) (models.Transmitter, error) {
	var t models.Transmitter
	if err := r.Scan(&t.ID, &t.SiteID, &t.Name, &t.Host, &t.Port, &t.Community, &t.Version,
		&t.Vendor, &t.Model, &t.PollIntervalMillis, &t.OIDs, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return models.Transmitter{}, err
	}
	return t, nil
}

func applySitePatch(s *models.Site, p models.SitePatch) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Location != nil {
		s.Location = *p.Location
	}
	if p.Latitude != nil {
		s.Latitude = p.Latitude
	}
	if p.Longitude != nil {
		s.Longitude = p.Longitude
	}
	if p.Address != nil {
		s.Address = *p.Address
	}
	if p.Contact != nil {
		s.Contact = *p.Contact
	}
	if p.IsActive != nil {
		s.IsActive = *p.IsActive
	}
}

func applyTransmitterPatch(t *models.Transmitter, p models.TransmitterPatch) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Host != nil {
		t.Host = *p.Host
	}
	if p.Port != nil {
		t.Port = *p.Port
	}
	if p.Community != nil {
		t.Community = *p.Community
	}
	if p.Version != nil {
		t.Version = *p.Version
	}
	if p.Vendor != nil {
		t.Vendor = *p.Vendor
	}
	if p.Model != nil {
		t.Model = *p.Model
	}
	if p.PollIntervalMillis != nil {
		t.PollIntervalMillis = *p.PollIntervalMillis
	}
	if p.OIDs != nil {
		t.OIDs = *p.OIDs
	}
	if p.IsActive != nil {
		t.IsActive = *p.IsActive
	}
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// classify maps a pgx/driver error to one of the package's sentinel errors
// so callers never see driver-specific types (§7).
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w", ErrNotFound)
	}
	var pgErr interface{ SQLState() string }
	if asPgError(err, &pgErr) {
		switch pgErr.SQLState() {
		case "23505", "23503", "23514": // unique, fk, check violations
			return fmt.Errorf("%w", ErrConstraintViolation)
		}
	}
	return fmt.Errorf("%w: %v", ErrTransient, err)
}

func asPgError(err error, target *interface{ SQLState() string }) bool {
	type sqlStater interface {
		SQLState() string
	}
	for err != nil {
		if s, ok := err.(sqlStater); ok {
			*target = s
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
