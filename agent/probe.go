package agent

import (
	"math"
	"net"
	"time"
)

// LatencyProber measures network quality against a well-known anycast
// endpoint using plain TCP handshakes. ICMP needs raw sockets or the system
// ping binary; a TCP connect tracks the same path and needs no privileges.
type LatencyProber struct {
	Host    string // "host:port", e.g. "1.1.1.1:443"
	Timeout time.Duration
}

func NewLatencyProber() *LatencyProber {
	return &LatencyProber{
		Host:    "1.1.1.1:443",
		Timeout: 1 * time.Second,
	}
}

// Measure returns one round-trip latency sample in milliseconds.
func (p *LatencyProber) Measure() (float64, error) {
	start := time.Now()
	conn, err := net.DialTimeout("tcp", p.Host, p.Timeout)
	if err != nil {
		return 0, err
	}
	conn.Close()
	return round2(float64(time.Since(start)) / float64(time.Millisecond)), nil
}

// PacketLoss estimates loss as the failed fraction of count probe connects,
// in percent.
func (p *LatencyProber) PacketLoss(count int) float64 {
	if count <= 0 {
		return 0
	}

	failed := 0
	for i := 0; i < count; i++ {
		conn, err := net.DialTimeout("tcp", p.Host, p.Timeout)
		if err != nil {
			failed++
			continue
		}
		conn.Close()
	}
	return round2(float64(failed) / float64(count) * 100)
}

// JitterWindow keeps the last N latency samples and derives jitter as the
// mean absolute difference between consecutive samples.
type JitterWindow struct {
	size    int
	samples []float64
}

func NewJitterWindow(size int) *JitterWindow {
	if size < 2 {
		size = 2
	}
	return &JitterWindow{size: size}
}

func (w *JitterWindow) Add(latency float64) {
	w.samples = append(w.samples, latency)
	if len(w.samples) > w.size {
		w.samples = w.samples[1:]
	}
}

func (w *JitterWindow) Jitter() float64 {
	if len(w.samples) < 2 {
		return 0
	}

	var sum float64
	for i := 1; i < len(w.samples); i++ {
		sum += math.Abs(w.samples[i] - w.samples[i-1])
	}
	return round2(sum / float64(len(w.samples)-1))
}

func (w *JitterWindow) Reset() {
	w.samples = w.samples[:0]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
