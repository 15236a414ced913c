package trapreceiver

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/txfleet/txcore/internal/mibmap"
	"github.com/txfleet/txcore/internal/metricparser"
	"github.com/txfleet/txcore/internal/models"
	"github.com/txfleet/txcore/internal/store"
)

// oidSnmpTrapOID is snmpTrapOID.0, the second standard varbind in a v2c
// trap PDU; its value is the actual notification OID.
const oidSnmpTrapOID = "1.3.6.1.6.3.1.1.4.1.0"

// normalize converts a raw gosnmp trap packet into a models.SnmpTrap,
// distinguishing v1's dedicated enterprise/generic/specific fields from
// v2c's varbind-embedded trap OID (§3 SnmpTrap, §4.6).
func normalize(pkt *gosnmp.SnmpPacket, remoteAddr *net.UDPAddr, mapper *mibmap.Mapper) (models.SnmpTrap, error) {
	if pkt == nil {
		return models.SnmpTrap{}, fmt.Errorf("trapreceiver: nil packet")
	}

	trap := models.SnmpTrap{
		CreatedAt: time.Now().UTC(),
		Community: pkt.Community,
	}

	if remoteAddr != nil {
		trap.SourceHost = remoteAddr.IP.String()
		trap.SourcePort = remoteAddr.Port
	}
	if pkt.Version == gosnmp.Version1 && pkt.AgentAddress != "" {
		trap.SourceHost = pkt.AgentAddress
	}

	switch pkt.Version {
	case gosnmp.Version1:
		trap.Version = 0
		trap.EnterpriseOID = normaliseOID(pkt.Enterprise)
		trap.TrapOID = synthesizeV1TrapOID(pkt)
		trap.Varbinds = convertVarbinds(pkt.Variables, mapper)
	case gosnmp.Version2c:
		trap.Version = 1
		trapOID, payload := splitV2Varbinds(pkt.Variables)
		trap.TrapOID = trapOID
		trap.Varbinds = convertVarbinds(payload, mapper)
	default:
		return trap, fmt.Errorf("trapreceiver: unsupported SNMP version %v", pkt.Version)
	}

	return trap, nil
}

// synthesizeV1TrapOID follows the RFC 3584 §3.1 v1-to-v2 mapping: generic
// traps 0-5 map to a standard OID; generic trap 6 (enterpriseSpecific) is
// synthesized from the enterprise OID and the specific-trap code.
func synthesizeV1TrapOID(pkt *gosnmp.SnmpPacket) string {
	if pkt.GenericTrap >= 0 && pkt.GenericTrap < 6 {
		return fmt.Sprintf("1.3.6.1.6.3.1.1.5.%d", pkt.GenericTrap+1)
	}
	ent := strings.TrimSuffix(normaliseOID(pkt.Enterprise), ".")
	return fmt.Sprintf("%s.0.%d", ent, pkt.SpecificTrap)
}

// splitV2Varbinds locates snmpTrapOID.0 among a v2c trap's varbinds and
// returns its value plus the remaining payload varbinds. Tolerant of
// agents that omit sysUpTime.0 or reorder the leading varbinds.
func splitV2Varbinds(vars []gosnmp.SnmpPDU) (trapOID string, payload []gosnmp.SnmpPDU) {
	idx := -1
	for i, v := range vars {
		if normaliseOID(v.Name) == oidSnmpTrapOID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", vars
	}
	trapOID = normaliseOID(fmt.Sprintf("%v", vars[idx].Value))
	return trapOID, append(append([]gosnmp.SnmpPDU{}, vars[:idx]...), vars[idx+1:]...)
}

// convertVarbinds converts raw PDUs into normalized varbinds, filtering
// protocol-level errors and filling each Type with its MIB-mapped name
// (§4.1, §4.6) — empty when unresolved.
func convertVarbinds(pdus []gosnmp.SnmpPDU, mapper *mibmap.Mapper) []models.Varbind {
	out := make([]models.Varbind, 0, len(pdus))
	for _, pdu := range pdus {
		if metricparser.IsErrorType(pdu.Type) {
			continue
		}
		v, err := metricparser.ToNative(pdu.Type, pdu.Value)
		if err != nil {
			continue
		}
		oid := normaliseOID(pdu.Name)
		typeName := ""
		if mapper != nil {
			typeName = mapper.Map(oid)
		}
		out = append(out, models.Varbind{OID: oid, Type: typeName, Value: v})
	}
	return out
}

func normaliseOID(oid string) string {
	oid = strings.TrimSpace(oid)
	if strings.HasPrefix(oid, ".") {
		oid = oid[1:]
	}
	return strings.TrimSuffix(oid, ".")
}

// attribute resolves trap.TransmitterID/SiteID by matching SourceHost
// against every transmitter's SNMP host. Invariant 8: attribution
// succeeds only when exactly one transmitter matches; zero or multiple
// matches leave the trap unattributed. Attribution failures (including
// storage errors) are non-fatal — the trap is still stored (§4.6).
func attribute(ctx context.Context, trap *models.SnmpTrap, st store.Store, logger *slog.Logger) {
	if trap.SourceHost == "" {
		return
	}

	matches, err := st.FindTransmitterByHost(ctx, trap.SourceHost)
	if err != nil {
		logger.Warn("trapreceiver: attribution lookup failed", "source_host", trap.SourceHost, "error", err.Error())
		return
	}
	if len(matches) != 1 {
		return
	}

	tx := matches[0]
	trap.TransmitterID = &tx.ID
	trap.SiteID = &tx.SiteID
}
