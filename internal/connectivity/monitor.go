package connectivity

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nimasrn/hacienda/pkg/logger"
)

type State int32

const (
	Offline State = iota
	Online
)

func (s State) String() string {
	if s == Online {
		return "online"
	}
	return "offline"
}

// Prober reports whether the remote API answers.
type Prober interface {
	CheckConnection(ctx context.Context) bool
}

// Listener is called on every state transition, on the monitor goroutine.
type Listener func(old, new State)

type Config struct {
	ProbeInterval  time.Duration
	ReconnectDelay time.Duration
	ProbeTimeout   time.Duration
}

func DefaultConfig() Config {
	return Config{
		ProbeInterval:  30 * time.Second,
		ReconnectDelay: 2 * time.Second,
		ProbeTimeout:   5 * time.Second,
	}
}

type Monitor struct {
	prober Prober
	cfg    Config
	state  atomic.Int32

	mu        sync.Mutex
	listeners []Listener
	running   bool

	network chan bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewMonitor starts in the offline state until the first probe.
func NewMonitor(prober Prober, cfg Config) *Monitor {
	def := DefaultConfig()
	if cfg.ProbeInterval <= 0 {
		cfg.ProbeInterval = def.ProbeInterval
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = def.ReconnectDelay
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = def.ProbeTimeout
	}
	return &Monitor{
		prober:  prober,
		cfg:     cfg,
		network: make(chan bool, 8),
	}
}

func (m *Monitor) State() State {
	return State(m.state.Load())
}

func (m *Monitor) Online() bool {
	return m.State() == Online
}

func (m *Monitor) Subscribe(l Listener) {
	m.mu.Lock()
	m.listeners = append(m.listeners, l)
	m.mu.Unlock()
}

// Probe checks the remote API once and records the result.
func (m *Monitor) Probe(ctx context.Context) State {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.ProbeTimeout)
	defer cancel()

	next := Offline
	if m.prober.CheckConnection(ctx) {
		next = Online
	}
	m.set(next)
	return next
}

// NotifyNetwork feeds a platform network change into the monitor. A lost
// network goes offline at once, a regained one is re-probed after
// ReconnectDelay. Without a running loop the change is applied inline.
func (m *Monitor) NotifyNetwork(connected bool) {
	m.mu.Lock()
	running := m.running
	m.mu.Unlock()
	if !running {
		if !connected {
			m.set(Offline)
		} else if !m.Online() {
			time.Sleep(m.cfg.ReconnectDelay)
			m.Probe(context.Background())
		}
		return
	}
	select {
	case m.network <- connected:
	default:
		logger.Warn("connectivity: network event dropped", "connected", connected)
	}
}

// Start probes once and then keeps polling until Stop or ctx is done.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.mu.Unlock()

	m.wg.Add(1)
	go m.loop(ctx)
}

func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stopCh)
	m.mu.Unlock()
	m.wg.Wait()
}

func (m *Monitor) loop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.ProbeInterval)
	defer ticker.Stop()
	reprobe := time.NewTimer(m.cfg.ReconnectDelay)
	reprobe.Stop()
	defer reprobe.Stop()

	m.Probe(ctx)
	for {
		select {
		case <-m.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Probe(ctx)
		case connected := <-m.network:
			if !connected {
				reprobe.Stop()
				m.set(Offline)
				continue
			}
			if !m.Online() {
				reprobe.Reset(m.cfg.ReconnectDelay)
			}
		case <-reprobe.C:
			m.Probe(ctx)
		}
	}
}

func (m *Monitor) set(next State) {
	old := State(m.state.Swap(int32(next)))
	if old == next {
		return
	}
	logger.Info("connectivity changed", "from", old.String(), "to", next.String())

	m.mu.Lock()
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()
	for _, l := range listeners {
		l(old, next)
	}
}
