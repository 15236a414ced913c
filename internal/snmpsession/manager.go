package snmpsession

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gosnmp/gosnmp"

	"github.com/txfleet/txcore/internal/metricparser"
	"github.com/txfleet/txcore/internal/models"
)

// Manager owns at most one live SNMP session per transmitter ID. It is safe
// for concurrent use; opening and closing a device's session serialize on
// that device's entry, not on the whole manager. Get and Walk take the
// session under that lock and run the network request without holding it.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*entry
	logger   *slog.Logger
}

type entry struct {
	mu     sync.Mutex
	params models.SNMPParams
	conn   *gosnmp.GoSNMP
}

// New constructs a Manager. Pass nil for a no-op logger.
func New(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	return &Manager{
		sessions: make(map[string]*entry),
		logger:   logger,
	}
}

// Open creates (or recycles) the session for deviceID. If a session already
// exists with identical params, Open is a no-op. If a connection-affecting
// parameter changed, the old session is closed and a new one opened —
// session recycling per §4.4's last paragraph.
func (m *Manager) Open(deviceID string, params models.SNMPParams) error {
	e := m.entryFor(deviceID)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.conn != nil {
		if e.params.Equal(params) {
			return nil
		}
		e.conn.Conn.Close()
		e.conn = nil
		m.logger.Info("snmpsession: recycling session on parameter change", "device", deviceID)
	}

	conn, err := newGoSNMP(params)
	if err != nil {
		return err
	}
	e.conn = conn
	e.params = params
	return nil
}

// Close releases deviceID's session, if any.
func (m *Manager) Close(deviceID string) {
	m.mu.Lock()
	e, ok := m.sessions[deviceID]
	delete(m.sessions, deviceID)
	m.mu.Unlock()

	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.conn != nil {
		e.conn.Conn.Close()
		e.conn = nil
	}
}

// CloseAll releases every open session, used by reload_from_store.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.Close(id)
	}
}

// Get performs a single GET against deviceID's open session. Varbinds whose
// type indicates a protocol-level "no such object/instance" are filtered
// out before returning, so they never overwrite a successfully resolved
// sibling OID. A failed Get does not tear down the session — transient
// errors re-resolve on the next poll, per §4.4.
func (m *Manager) Get(deviceID string, oids []string) ([]models.Varbind, error) {
	e := m.entryFor(deviceID)

	e.mu.Lock()
	conn := e.conn
	e.mu.Unlock()

	if conn == nil {
		return nil, fmt.Errorf("snmpsession: device %s has no open session", deviceID)
	}

	result, err := conn.Get(oids)
	if err != nil {
		return nil, fmt.Errorf("snmpsession: get %s: %w", deviceID, err)
	}
	return convertPDUs(result.Variables), nil
}

// Walk performs an iterative GET-NEXT walk from root, used for template
// discovery rather than regular polling (§4.4).
func (m *Manager) Walk(deviceID, root string) ([]models.Varbind, error) {
	e := m.entryFor(deviceID)

	e.mu.Lock()
	conn := e.conn
	e.mu.Unlock()

	if conn == nil {
		return nil, fmt.Errorf("snmpsession: device %s has no open session", deviceID)
	}

	pdus, err := conn.WalkAll(root)
	if err != nil {
		return nil, fmt.Errorf("snmpsession: walk %s from %s: %w", deviceID, root, err)
	}
	return convertPDUs(pdus), nil
}

// Test performs a one-shot open+GET+close cycle for connectivity checks; it
// never touches the manager's persistent session table.
func Test(params models.SNMPParams, oids []string) ([]models.Varbind, error) {
	conn, err := newGoSNMP(params)
	if err != nil {
		return nil, err
	}
	defer conn.Conn.Close()

	result, err := conn.Get(oids)
	if err != nil {
		return nil, fmt.Errorf("snmpsession: test get: %w", err)
	}
	return convertPDUs(result.Variables), nil
}

func (m *Manager) entryFor(deviceID string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[deviceID]
	if !ok {
		e = &entry{}
		m.sessions[deviceID] = e
	}
	return e
}

// convertPDUs filters out protocol-level error varbinds and converts the
// remainder to the native models.Varbind form.
func convertPDUs(pdus []gosnmp.SnmpPDU) []models.Varbind {
	out := make([]models.Varbind, 0, len(pdus))
	for _, pdu := range pdus {
		if metricparser.IsErrorType(pdu.Type) {
			continue
		}
		v, err := metricparser.ToNative(pdu.Type, pdu.Value)
		if err != nil {
			continue
		}
		out = append(out, models.Varbind{
			OID: normaliseOID(pdu.Name),
			// Type is left for the caller to fill in via mibmap.Mapper.Map —
			// the MIB mapper, not the ASN.1 wire type, is the "readable
			// name" the varbind's Type field carries (§4.1, §4.6).
			Value: v,
		})
	}
	return out
}

func normaliseOID(oid string) string {
	if len(oid) > 0 && oid[0] == '.' {
		return oid[1:]
	}
	return oid
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
