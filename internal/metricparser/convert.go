package metricparser

import (
	"encoding/hex"
	"fmt"
	"math"
	"net"
	"strings"

	"github.com/gosnmp/gosnmp"
)

// PDUTypeString returns the human-readable name for a gosnmp Asn1BER type
// tag, used in conversion error messages. models.Varbind.Type does not carry
// it: that field holds the MIB-mapped name instead.
func PDUTypeString(t gosnmp.Asn1BER) string {
	switch t {
	case gosnmp.Integer:
		return "Integer"
	case gosnmp.OctetString:
		return "OctetString"
	case gosnmp.Null:
		return "Null"
	case gosnmp.ObjectIdentifier:
		return "ObjectIdentifier"
	case gosnmp.IPAddress:
		return "IpAddress"
	case gosnmp.Counter32:
		return "Counter32"
	case gosnmp.Gauge32:
		return "Gauge32"
	case gosnmp.TimeTicks:
		return "TimeTicks"
	case gosnmp.Counter64:
		return "Counter64"
	case gosnmp.Uinteger32:
		return "Unsigned32"
	case gosnmp.OpaqueFloat:
		return "OpaqueFloat"
	case gosnmp.OpaqueDouble:
		return "OpaqueDouble"
	case gosnmp.NoSuchObject:
		return "NoSuchObject"
	case gosnmp.NoSuchInstance:
		return "NoSuchInstance"
	case gosnmp.EndOfMibView:
		return "EndOfMibView"
	default:
		return fmt.Sprintf("Unknown(0x%02X)", uint8(t))
	}
}

// IsErrorType reports whether t signals a protocol-level retrieval error
// rather than a real value (§4.4's "varbind error filtering" and §7's
// "protocol-level varbind error" recovery: drop that varbind, keep polling
// siblings).
func IsErrorType(t gosnmp.Asn1BER) bool {
	return t == gosnmp.NoSuchObject || t == gosnmp.NoSuchInstance || t == gosnmp.EndOfMibView
}

// ToNative converts a raw gosnmp PDU value into one of the native Go types
// models.Varbind.Value may hold: int64, uint64, float64, string, or []byte.
func ToNative(rawType gosnmp.Asn1BER, rawValue interface{}) (interface{}, error) {
	if IsErrorType(rawType) {
		return nil, fmt.Errorf("metricparser: skipped varbind, PDU type %s", PDUTypeString(rawType))
	}

	switch rawType {
	case gosnmp.Integer:
		return toInt64(rawValue)
	case gosnmp.Counter32, gosnmp.Gauge32, gosnmp.TimeTicks, gosnmp.Uinteger32, gosnmp.Counter64:
		return toUint64(rawValue)
	case gosnmp.OctetString, gosnmp.ObjectDescription:
		return toDisplayString(rawValue)
	case gosnmp.ObjectIdentifier:
		return toOIDString(rawValue)
	case gosnmp.IPAddress:
		return toIPString(rawValue)
	case gosnmp.OpaqueFloat:
		if f, ok := rawValue.(float32); ok {
			return float64(f), nil
		}
		return toFloat64(rawValue)
	case gosnmp.OpaqueDouble:
		return toFloat64(rawValue)
	default:
		if b, ok := rawValue.([]byte); ok {
			return b, nil
		}
		return fmt.Sprintf("%v", rawValue), nil
	}
}

func toInt64(v interface{}) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, fmt.Errorf("uint64 value %d overflows int64", x)
		}
		return int64(x), nil
	default:
		return 0, fmt.Errorf("cannot convert %T to int64", v)
	}
}

func toUint64(v interface{}) (uint64, error) {
	switch x := v.(type) {
	case int:
		if x < 0 {
			return 0, fmt.Errorf("negative value %d cannot be converted to uint64", x)
		}
		return uint64(x), nil
	case int32:
		if x < 0 {
			return 0, fmt.Errorf("negative value %d cannot be converted to uint64", x)
		}
		return uint64(x), nil
	case int64:
		if x < 0 {
			return 0, fmt.Errorf("negative value %d cannot be converted to uint64", x)
		}
		return uint64(x), nil
	case uint:
		return uint64(x), nil
	case uint32:
		return uint64(x), nil
	case uint64:
		return x, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to uint64", v)
	}
}

func toFloat64(v interface{}) (float64, error) {
	switch x := v.(type) {
	case int:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint:
		return float64(x), nil
	case uint32:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case float32:
		return float64(x), nil
	case float64:
		return x, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to float64", v)
	}
}

func toDisplayString(v interface{}) (string, error) {
	switch x := v.(type) {
	case string:
		return strings.TrimRight(x, "\x00"), nil
	case []byte:
		return strings.TrimRight(string(x), "\x00"), nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

func toOIDString(v interface{}) (string, error) {
	switch x := v.(type) {
	case string:
		return strings.TrimPrefix(x, "."), nil
	case []byte:
		return strings.TrimPrefix(string(x), "."), nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

func toIPString(v interface{}) (string, error) {
	switch x := v.(type) {
	case string:
		b := []byte(x)
		if len(b) == 4 {
			return net.IP(b).String(), nil
		}
		return x, nil
	case []byte:
		if len(x) == 4 || len(x) == 16 {
			return net.IP(x).String(), nil
		}
		return hex.EncodeToString(x), nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

// asFloat widens a value already stored in a models.Varbind (int64, uint64,
// float64, or string) to float64. Used by numeric derivations (VSWR,
// frequency scaling) that need arithmetic regardless of the varbind's
// original wire type.
func asFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float64:
		return x, true
	case string:
		var f float64
		if _, err := fmt.Sscanf(x, "%g", &f); err == nil {
			return f, true
		}
		return 0, false
	default:
		return 0, false
	}
}
