package config

import (
	"time"

	"github.com/robertodauria/iperfer/internal/congestion"
	"github.com/robertodauria/iperfer/pkg/throughput/spec"
)

const (
	DefaultTimeout           = spec.DefaultDialTimeout
	DefaultDuration          = 10 * time.Second
	DefaultCongestionControl = congestion.Default
)

type ClientConfig struct {
	// The connection Timeout.
	Timeout time.Duration

	// The Duration of the transfer.
	Duration time.Duration

	// The CongestionControl algorithm to request. "default" leaves the
	// kernel's choice alone.
	CongestionControl string

	// DataDir is where results are archived. Empty disables archival.
	DataDir string
}

func New(timeout, duration time.Duration, cc, dataDir string) *ClientConfig {
	return &ClientConfig{
		Timeout:           timeout,
		Duration:          duration,
		CongestionControl: cc,
		DataDir:           dataDir,
	}
}

func NewDefault() *ClientConfig {
	return New(DefaultTimeout, DefaultDuration, DefaultCongestionControl, "")
}
