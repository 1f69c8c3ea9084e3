package telemetry

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/HerbHall/netscope/pkg/models"
	"github.com/gosnmp/gosnmp"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const (
	oidSysName       = "1.3.6.1.2.1.1.5.0"
	oidIfHCInOctets  = "1.3.6.1.2.1.31.1.1.1.6"
	oidIfHCOutOctets = "1.3.6.1.2.1.31.1.1.1.10"
)

// SNMPTarget is one device polled for interface counters.
type SNMPTarget struct {
	Name          string `mapstructure:"name"`
	Address       string `mapstructure:"address"` // host or host:port
	IfIndex       int    `mapstructure:"if_index"`
	Version       string `mapstructure:"version"` // "2c" or "3"
	Community     string `mapstructure:"community"`
	Username      string `mapstructure:"username"`
	SecurityLevel string `mapstructure:"security_level"`
	AuthProtocol  string `mapstructure:"auth_protocol"`
	AuthPass      string `mapstructure:"auth_passphrase"`
	PrivProtocol  string `mapstructure:"priv_protocol"`
	PrivPass      string `mapstructure:"priv_passphrase"`
}

// key identifies the counter pair polled for t. Targets on one device
// differ by interface.
func (t SNMPTarget) key() string {
	return t.Address + "#" + strconv.Itoa(t.IfIndex)
}

// SNMPReading is the result of one poll.
type SNMPReading struct {
	SysName   string
	InOctets  uint64
	OutOctets uint64
	RTT       time.Duration
}

// SNMPPoller fetches one reading from a target.
type SNMPPoller func(ctx context.Context, t SNMPTarget) (SNMPReading, error)

// SNMPSource replaces the base source's device inventory with devices
// polled over SNMP. Other collections come from the embedded Source.
type SNMPSource struct {
	Source

	targets []SNMPTarget
	poll    SNMPPoller
	clock   clockwork.Clock
	warnRTT time.Duration
	logger  *zap.Logger
	mu      sync.Mutex
	last    map[string]snmpState
}

type snmpState struct {
	reading SNMPReading
	at      time.Time
	seen    time.Time
}

// SNMPOption configures an SNMPSource.
type SNMPOption func(*SNMPSource)

// WithSNMPPoller replaces the gosnmp poller.
func WithSNMPPoller(p SNMPPoller) SNMPOption {
	return func(s *SNMPSource) { s.poll = p }
}

// WithSNMPClock sets the clock used for rate computation.
func WithSNMPClock(c clockwork.Clock) SNMPOption {
	return func(s *SNMPSource) { s.clock = c }
}

// WithWarnRTT sets the response time above which a device is marked warning.
func WithWarnRTT(d time.Duration) SNMPOption {
	return func(s *SNMPSource) { s.warnRTT = d }
}

// NewSNMPSource wraps base. With no targets it behaves exactly like base.
func NewSNMPSource(base Source, targets []SNMPTarget, logger *zap.Logger, opts ...SNMPOption) *SNMPSource {
	s := &SNMPSource{
		Source:  base,
		targets: targets,
		clock:   clockwork.NewRealClock(),
		warnRTT: 200 * time.Millisecond,
		logger:  logger,
		last:    make(map[string]snmpState),
	}
	s.poll = s.pollGoSNMP
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Devices polls every target. Bandwidth is the counter delta since the
// previous poll of the same address and interface divided by the elapsed
// time, so the first poll of a target reports zero. Unreachable targets are reported offline with their last
// successful contact as LastSeen.
func (s *SNMPSource) Devices(ctx context.Context) ([]models.Device, error) {
	if len(s.targets) == 0 {
		return s.Source.Devices(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	out := make([]models.Device, 0, len(s.targets))
	for i, t := range s.targets {
		d := models.Device{
			ID:        fmt.Sprintf("device-%d", i+1),
			Name:      t.Name,
			IPAddress: hostOnly(t.Address),
			Status:    models.DeviceStatusOffline,
		}
		prev, hadPrev := s.last[t.key()]
		if hadPrev {
			d.LastSeen = prev.seen
		}

		r, err := s.poll(ctx, t)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Debug("snmp poll failed", zap.String("target", t.Address), zap.Error(err))
			d.PacketLoss = 100
			out = append(out, d)
			continue
		}

		if d.Name == "" {
			d.Name = r.SysName
		}
		d.Status = models.DeviceStatusOnline
		if r.RTT > s.warnRTT {
			d.Status = models.DeviceStatusWarning
		}
		d.LastSeen = now
		d.LatencyMs = float64(r.RTT.Microseconds()) / 1000
		if hadPrev {
			if secs := now.Sub(prev.at).Seconds(); secs > 0 {
				d.Bandwidth = models.Bandwidth{
					Incoming: int64(float64(counterDelta(prev.reading.InOctets, r.InOctets)) / secs),
					Outgoing: int64(float64(counterDelta(prev.reading.OutOctets, r.OutOctets)) / secs),
				}
			}
		}
		s.last[t.key()] = snmpState{reading: r, at: now, seen: now}
		out = append(out, d)
	}
	SortByBandwidth(out)
	return out, nil
}

// counterDelta returns the octets counted since prev. A 64 bit counter
// that went backwards was reset, usually by an agent restart, and yields
// zero; the new value becomes the baseline.
func counterDelta(prev, cur uint64) uint64 {
	if cur < prev {
		return 0
	}
	return cur - prev
}

func hostOnly(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

func (s *SNMPSource) pollGoSNMP(ctx context.Context, t SNMPTarget) (SNMPReading, error) {
	g, err := newGoSNMP(ctx, t)
	if err != nil {
		return SNMPReading{}, err
	}
	if err := g.Connect(); err != nil {
		return SNMPReading{}, fmt.Errorf("connect %s: %w", t.Address, err)
	}
	defer func() { _ = g.Conn.Close() }()

	idx := strconv.Itoa(t.IfIndex)
	inOID := oidIfHCInOctets + "." + idx
	outOID := oidIfHCOutOctets + "." + idx

	start := time.Now()
	res, err := g.Get([]string{oidSysName, inOID, outOID})
	if err != nil {
		return SNMPReading{}, fmt.Errorf("snmp get %s: %w", t.Address, err)
	}
	r := SNMPReading{RTT: time.Since(start)}
	for _, pdu := range res.Variables {
		switch strings.TrimPrefix(pdu.Name, ".") {
		case oidSysName:
			if b, ok := pdu.Value.([]byte); ok {
				r.SysName = string(b)
			}
		case inOID:
			r.InOctets = gosnmp.ToBigInt(pdu.Value).Uint64()
		case outOID:
			r.OutOctets = gosnmp.ToBigInt(pdu.Value).Uint64()
		}
	}
	return r, nil
}

func newGoSNMP(ctx context.Context, t SNMPTarget) (*gosnmp.GoSNMP, error) {
	host, portStr, err := net.SplitHostPort(t.Address)
	if err != nil {
		host, portStr = t.Address, "161"
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return nil, fmt.Errorf("invalid port %q: %w", portStr, err)
	}

	g := &gosnmp.GoSNMP{
		Target:  host,
		Port:    uint16(port),
		Timeout: 2 * time.Second,
		Retries: 1,
		Context: ctx,
	}
	switch t.Version {
	case "2c", "":
		g.Version = gosnmp.Version2c
		g.Community = t.Community
		if g.Community == "" {
			g.Community = "public"
		}
	case "3":
		g.Version = gosnmp.Version3
		g.SecurityModel = gosnmp.UserSecurityModel
		switch t.SecurityLevel {
		case "noAuthNoPriv":
			g.MsgFlags = gosnmp.NoAuthNoPriv
		case "authNoPriv":
			g.MsgFlags = gosnmp.AuthNoPriv
		default:
			g.MsgFlags = gosnmp.AuthPriv
		}
		g.SecurityParameters = &gosnmp.UsmSecurityParameters{
			UserName:                 t.Username,
			AuthenticationProtocol:   authProtocol(t.AuthProtocol),
			AuthenticationPassphrase: t.AuthPass,
			PrivacyProtocol:          privProtocol(t.PrivProtocol),
			PrivacyPassphrase:        t.PrivPass,
		}
	default:
		return nil, fmt.Errorf("unsupported SNMP version %q", t.Version)
	}
	return g, nil
}

func authProtocol(s string) gosnmp.SnmpV3AuthProtocol {
	switch strings.ToUpper(strings.ReplaceAll(s, "-", "")) {
	case "MD5":
		return gosnmp.MD5
	case "SHA256":
		return gosnmp.SHA256
	case "SHA512":
		return gosnmp.SHA512
	}
	return gosnmp.SHA
}

func privProtocol(s string) gosnmp.SnmpV3PrivProtocol {
	switch strings.ToUpper(strings.ReplaceAll(s, "-", "")) {
	case "DES":
		return gosnmp.DES
	case "AES256":
		return gosnmp.AES256
	}
	return gosnmp.AES
}
