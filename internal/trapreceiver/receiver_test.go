package trapreceiver

import (
	"errors"
	"net"
	"strings"
	"testing"
)

func TestIsBindFailure(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"permission denied text", errors.New("listen udp :162: bind: permission denied"), true},
		{"address in use text", errors.New("listen udp :10162: bind: address already in use"), true},
		{"unrelated error", errors.New("listen udp: invalid argument"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isBindFailure(tc.err); got != tc.want {
				t.Errorf("isBindFailure(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

// TestConfig_WithDefaults covers the default primary/fallback ports named
// in §6 (162 / 10162).
func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.PrimaryPort != 162 {
		t.Errorf("PrimaryPort = %d, want 162", cfg.PrimaryPort)
	}
	if cfg.FallbackPort != 10162 {
		t.Errorf("FallbackPort = %d, want 10162", cfg.FallbackPort)
	}
	if cfg.Prompt == nil {
		t.Error("Prompt not defaulted")
	}
}

// TestBind_AutoFallbackSkipsPrompt exercises the S4 scenario's decision
// path: AutoFallback means bind() must skip the interactive prompt entirely
// once the primary listen fails with a bind failure. tryListen itself is
// not stubbed here (that would require a fake TrapListener), so the test
// holds one UDP port open and uses it as both primary and fallback port:
// the primary listen fails with "address already in use", bind() takes the
// fallback branch, and the fallback listen fails the same way.
func TestBind_AutoFallbackSkipsPrompt(t *testing.T) {
	occupied, err := net.ListenPacket("udp", "0.0.0.0:0")
	if err != nil {
		t.Fatalf("occupy a UDP port: %v", err)
	}
	defer occupied.Close()
	port := occupied.LocalAddr().(*net.UDPAddr).Port

	promptCalled := false
	r := New(Config{
		PrimaryPort:       port,
		FallbackPort:      port,
		RequirePrivileged: true,
		AutoFallback:      true,
		Prompt: func(primary, fallback int) (bool, error) {
			promptCalled = true
			return true, nil
		},
	}, nil, nil, nil)

	_, err = r.bind(nil, r.cfg.PrimaryPort)
	if err == nil {
		t.Fatal("expected an error: both ports are already in use")
	}
	if !strings.Contains(err.Error(), "fallback bind") {
		t.Errorf("err = %v, want the fallback bind failure", err)
	}
	if promptCalled {
		t.Error("Prompt was called despite AutoFallback being set")
	}
}
