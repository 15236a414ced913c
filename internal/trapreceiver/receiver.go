// Package trapreceiver implements the SNMP Trap Receiver (§4.6): a UDP
// listener for unsolicited v1/v2c notifications, with a privileged-port
// bind-and-fallback state machine and attribution of each trap to a
// transmitter by source-host match.
//
// Grounded on the teacher's pkg/snmpcollector/trapreceiver/receiver.go
// (gosnmp.TrapListener, OnNewTrap callback, Listening() readiness channel,
// graceful Stop) for the UDP engine, and snmp/trap/handler.go for v1/v2c
// varbind and trap-OID parsing — with the two-port bind-fallback state
// machine added as new logic, grounded on the teacher's own
// error-propagation style (fmt.Errorf("trapreceiver: listen %s: %w", ...)).
package trapreceiver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/txfleet/txcore/internal/mibmap"
	"github.com/txfleet/txcore/internal/store"
)

// Config controls Receiver's bind-and-fallback policy (§6 env vars).
type Config struct {
	PrimaryPort       int  // default 162
	FallbackPort      int  // default 10162
	RequirePrivileged bool // default true: prompt rather than silently fall back
	AutoFallback      bool // skip the prompt, always fall back on bind failure

	// Prompt overrides the interactive-terminal confirmation used when
	// RequirePrivileged is true and AutoFallback is false. Tests inject a
	// stub; nil selects the real os.Stdin-reading prompt.
	Prompt func(primaryPort, fallbackPort int) (bool, error)
}

func (c Config) withDefaults() Config {
	if c.PrimaryPort == 0 {
		c.PrimaryPort = 162
	}
	if c.FallbackPort == 0 {
		c.FallbackPort = 10162
	}
	if c.Prompt == nil {
		c.Prompt = promptStdin
	}
	return c
}

// Receiver listens for SNMP traps, normalizes them, attributes them to a
// transmitter, and appends them to the store.
type Receiver struct {
	cfg    Config
	store  store.Store
	mapper *mibmap.Mapper
	logger *slog.Logger

	mu        sync.Mutex
	listener  *gosnmp.TrapListener
	boundPort int
	running   bool
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// New constructs a Receiver. st may not be nil; mapper and logger may be
// (a nil mapper leaves every varbind Type empty).
func New(cfg Config, st store.Store, mapper *mibmap.Mapper, logger *slog.Logger) *Receiver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	return &Receiver{
		cfg:    cfg.withDefaults(),
		store:  st,
		mapper: mapper,
		logger: logger,
	}
}

// BoundPort returns the UDP port Start actually bound (primary or
// fallback), or 0 if Start has not succeeded yet.
func (r *Receiver) BoundPort() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.boundPort
}

// Start runs the §4.6 bind sequence:
//  1. try the primary port;
//  2. on EACCES/EADDRINUSE, either prompt (require-privileged, no
//     auto-fallback, interactive terminal), auto-fallback, or abort;
//  3. bind the fallback port; if that also fails, return the error.
func (r *Receiver) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("trapreceiver: already running")
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	r.mu.Unlock()

	port, err := r.bind(ctx, r.cfg.PrimaryPort)
	if err != nil {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
		return err
	}

	r.mu.Lock()
	r.boundPort = port
	r.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			r.Stop()
		case <-r.stopCh:
		}
	}()

	return nil
}

// bind implements steps 1-3 of the §4.6 sequence and returns the port it
// actually bound.
func (r *Receiver) bind(ctx context.Context, primaryPort int) (int, error) {
	if err := r.tryListen(primaryPort); err == nil {
		return primaryPort, nil
	} else if !isBindFailure(err) {
		return 0, fmt.Errorf("trapreceiver: listen :%d: %w", primaryPort, err)
	}

	fallback := r.cfg.FallbackPort

	if r.cfg.RequirePrivileged && !r.cfg.AutoFallback {
		if !isInteractiveTerminal() {
			return 0, fmt.Errorf("trapreceiver: bind :%d failed and SNMP_TRAP_REQUIRE_PRIVILEGED is set on a non-interactive terminal: aborting", primaryPort)
		}
		ok, err := r.cfg.Prompt(primaryPort, fallback)
		if err != nil {
			return 0, fmt.Errorf("trapreceiver: prompt failed: %w", err)
		}
		if !ok {
			return 0, fmt.Errorf("trapreceiver: operator declined fallback to :%d", fallback)
		}
	}

	r.logger.Warn("trapreceiver: primary bind failed, falling back",
		"primary_port", primaryPort,
		"fallback_port", fallback,
		"remedy", "grant cap_net_bind_service or run with elevated privileges",
	)

	if err := r.tryListen(fallback); err != nil {
		return 0, fmt.Errorf("trapreceiver: fallback bind :%d also failed: %w", fallback, err)
	}
	return fallback, nil
}

// tryListen starts gosnmp's TrapListener on port and blocks until it is
// ready or has failed to bind.
func (r *Receiver) tryListen(port int) error {
	tl := gosnmp.NewTrapListener()
	tl.Params = &gosnmp.GoSNMP{
		Version: gosnmp.Version2c,
		Logger:  gosnmp.NewLogger(slogAdapter{r.logger}),
	}
	tl.OnNewTrap = r.handleTrap

	errCh := make(chan error, 1)
	go func() {
		errCh <- tl.Listen(fmt.Sprintf("0.0.0.0:%d", port))
	}()

	select {
	case <-tl.Listening():
		r.mu.Lock()
		r.listener = tl
		r.mu.Unlock()
		go func() {
			<-errCh // drain once Stop closes the listener
			close(r.doneCh)
		}()
		r.logger.Info("trapreceiver: listening", "port", port)
		return nil
	case err := <-errCh:
		return err
	case <-time.After(2 * time.Second):
		tl.Close()
		return fmt.Errorf("timed out waiting for bind")
	}
}

// isBindFailure reports whether err looks like a permission or
// already-in-use failure rather than some other listener error.
func isBindFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrPermission) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "permission denied") ||
		strings.Contains(msg, "address already in use") ||
		strings.Contains(msg, "eacces") ||
		strings.Contains(msg, "eaddrinuse")
}

func isInteractiveTerminal() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func promptStdin(primaryPort, fallbackPort int) (bool, error) {
	fmt.Printf("trapreceiver: bind to port %d failed (requires privilege); fall back to %d? [y/N] ", primaryPort, fallbackPort)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false, err
	}
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes", nil
}

// Stop shuts down the UDP listener. Safe to call multiple times.
func (r *Receiver) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	listener := r.listener
	done := r.doneCh
	r.mu.Unlock()

	if listener != nil {
		listener.Close()
	}
	if done != nil {
		<-done
	}
	r.logger.Info("trapreceiver: stopped")
}

// handleTrap is the gosnmp callback; it runs on the listener's internal
// goroutine and must not block for long.
func (r *Receiver) handleTrap(pkt *gosnmp.SnmpPacket, addr *net.UDPAddr) {
	trap, err := normalize(pkt, addr, r.mapper)
	if err != nil {
		r.logger.Warn("trapreceiver: normalize failed", "remote", addr, "error", err.Error())
		return
	}

	attribute(context.Background(), &trap, r.store, r.logger)

	if err := r.store.StoreTrap(context.Background(), trap); err != nil {
		r.logger.Warn("trapreceiver: store trap failed", "remote", addr, "error", err.Error())
	}
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }

type slogAdapter struct{ l *slog.Logger }

func (a slogAdapter) Print(v ...interface{})          { a.l.Debug(fmt.Sprint(v...)) }
func (a slogAdapter) Printf(format string, v ...interface{}) { a.l.Debug(fmt.Sprintf(format, v...)) }
