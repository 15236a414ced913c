package trapreceiver

import (
	"context"
	"log/slog"
	"net"
	"testing"

	"github.com/gosnmp/gosnmp"

	"github.com/txfleet/txcore/internal/models"
	"github.com/txfleet/txcore/internal/store"
)

func v2cPacket(varbinds ...gosnmp.SnmpPDU) *gosnmp.SnmpPacket {
	return &gosnmp.SnmpPacket{
		Version:   gosnmp.Version2c,
		Community: "public",
		Variables: varbinds,
	}
}

func TestNormalize_V2cExtractsTrapOID(t *testing.T) {
	pkt := v2cPacket(
		gosnmp.SnmpPDU{Name: ".1.3.6.1.2.1.1.3.0", Type: gosnmp.TimeTicks, Value: uint32(12345)},
		gosnmp.SnmpPDU{Name: ".1.3.6.1.6.3.1.1.4.1.0", Type: gosnmp.ObjectIdentifier, Value: ".1.3.6.1.4.1.31946.4.2.6.0.1"},
		gosnmp.SnmpPDU{Name: ".1.3.6.1.4.1.31946.4.2.6.10.12.1", Type: gosnmp.Integer, Value: 2},
	)
	addr := &net.UDPAddr{IP: net.ParseIP("10.0.0.5"), Port: 54321}

	trap, err := normalize(pkt, addr, nil)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if trap.TrapOID != "1.3.6.1.4.1.31946.4.2.6.0.1" {
		t.Errorf("TrapOID = %q", trap.TrapOID)
	}
	if trap.SourceHost != "10.0.0.5" || trap.SourcePort != 54321 {
		t.Errorf("source = %s:%d", trap.SourceHost, trap.SourcePort)
	}
	if len(trap.Varbinds) != 2 {
		t.Fatalf("len(Varbinds) = %d, want 2 (only snmpTrapOID.0 removed; sysUpTime.0 kept)", len(trap.Varbinds))
	}
	if trap.Varbinds[1].OID != "1.3.6.1.4.1.31946.4.2.6.10.12.1" {
		t.Errorf("payload OID = %q", trap.Varbinds[1].OID)
	}
}

func TestNormalize_V1SynthesizesStandardTrapOID(t *testing.T) {
	pkt := &gosnmp.SnmpPacket{
		Version:      gosnmp.Version1,
		Enterprise:   ".1.3.6.1.4.1.31946",
		AgentAddress: "10.0.0.9",
		GenericTrap:  3, // linkUp
		Variables: []gosnmp.SnmpPDU{
			{Name: ".1.3.6.1.4.1.31946.4.2.6.10.12.1", Type: gosnmp.Integer, Value: 0},
		},
	}

	trap, err := normalize(pkt, nil, nil)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if trap.TrapOID != "1.3.6.1.6.3.1.1.5.4" {
		t.Errorf("TrapOID = %q, want standard linkUp OID", trap.TrapOID)
	}
	if trap.SourceHost != "10.0.0.9" {
		t.Errorf("SourceHost = %q, want agent address", trap.SourceHost)
	}
}

func TestNormalize_NilMapperLeavesTypeEmpty(t *testing.T) {
	pkt := v2cPacket(
		gosnmp.SnmpPDU{Name: ".1.3.6.1.6.3.1.1.4.1.0", Type: gosnmp.ObjectIdentifier, Value: ".1.3.6.1.4.1.31946.4.2.6.0.1"},
		gosnmp.SnmpPDU{Name: ".1.3.6.1.4.1.31946.4.2.6.10.12.1", Type: gosnmp.Integer, Value: 2},
	)

	trap, err := normalize(pkt, nil, nil)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if trap.Varbinds[0].Type != "" {
		t.Errorf("Type = %q, want empty with a nil mapper", trap.Varbinds[0].Type)
	}
}

// TestAttribute_ExactlyOneMatch covers invariant 8: attribution succeeds
// only when exactly one transmitter shares the source host.
func TestAttribute_ExactlyOneMatch(t *testing.T) {
	st := store.NewMemStore()
	st.PutSite(models.Site{ID: "site-1", Name: "Site One", IsActive: true})
	st.PutTransmitter(models.Transmitter{ID: "tx-1", SiteID: "site-1", Host: "10.0.0.5", IsActive: true})

	trap := &models.SnmpTrap{SourceHost: "10.0.0.5"}
	attribute(context.Background(), trap, st, discardLogger())

	if trap.TransmitterID == nil || *trap.TransmitterID != "tx-1" {
		t.Fatalf("TransmitterID not attributed: %+v", trap.TransmitterID)
	}
	if trap.SiteID == nil || *trap.SiteID != "site-1" {
		t.Fatalf("SiteID not attributed: %+v", trap.SiteID)
	}
}

func TestAttribute_NoMatchLeavesUnattributed(t *testing.T) {
	st := store.NewMemStore()
	trap := &models.SnmpTrap{SourceHost: "10.0.0.99"}
	attribute(context.Background(), trap, st, discardLogger())

	if trap.TransmitterID != nil {
		t.Errorf("TransmitterID = %v, want nil for an unknown source host", trap.TransmitterID)
	}
}

func TestAttribute_AmbiguousMatchLeavesUnattributed(t *testing.T) {
	st := store.NewMemStore()
	st.PutSite(models.Site{ID: "site-1", Name: "Site One", IsActive: true})
	st.PutTransmitter(models.Transmitter{ID: "tx-1", SiteID: "site-1", Host: "10.0.0.5", IsActive: true})
	st.PutTransmitter(models.Transmitter{ID: "tx-2", SiteID: "site-1", Host: "10.0.0.5", IsActive: true})

	trap := &models.SnmpTrap{SourceHost: "10.0.0.5"}
	attribute(context.Background(), trap, st, discardLogger())

	if trap.TransmitterID != nil {
		t.Errorf("TransmitterID = %v, want nil when two transmitters share a host", trap.TransmitterID)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, nil))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
