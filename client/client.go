package client

import (
	"context"
	"errors"
	"net"
	"sync"

	"github.com/m-lab/go/warnonerror"
	"github.com/robertodauria/iperfer/client/config"
	"github.com/robertodauria/iperfer/client/emitter"
	"github.com/robertodauria/iperfer/internal/congestion"
	"github.com/robertodauria/iperfer/internal/netx"
	"github.com/robertodauria/iperfer/internal/persistence"
	"github.com/robertodauria/iperfer/pkg/throughput"
	"github.com/robertodauria/iperfer/pkg/throughput/results"
	"github.com/robertodauria/iperfer/pkg/throughput/spec"
	"go.uber.org/zap"
)

type dialerFunc func(ctx context.Context, network, address string) (net.Conn, error)

func defaultDialer(ctx context.Context, network, address string) (net.Conn, error) {
	d := &net.Dialer{}
	return d.DialContext(ctx, network, address)
}

// Client is the sending end of a measurement.
type Client struct {
	dialer   dialerFunc
	endpoint string
	config   *config.ClientConfig
	emitter  emitter.Emitter
}

// New returns a Client for endpoint ("host:port") with the default config.
func New(endpoint string) *Client {
	return NewWithConfig(endpoint, config.NewDefault())
}

// NewWithConfig returns a Client for endpoint with the given config.
func NewWithConfig(endpoint string, config *config.ClientConfig) *Client {
	return &Client{
		dialer:   defaultDialer,
		endpoint: endpoint,
		config:   config,
		emitter:  &emitter.LogEmitter{},
	}
}

// Send connects to the endpoint, sends data for the configured duration and
// returns the result of the transfer.
//
// Dial failures are reported as throughput.ErrHostUnreachable or
// throughput.ErrConnect. Any other error is a transport fault.
func (c *Client) Send(ctx context.Context) (*results.Result, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		c.emitter.OnError(spec.RoleSender, err)
		return nil, err
	}

	cc := c.setCongestionControl(conn)
	connInfo := throughput.ConnInfo(conn, spec.RoleSender)
	result := results.NewResult(spec.RoleSender, connInfo)
	result.CongestionControl = cc
	c.emitter.OnStart(spec.RoleSender, connInfo.Server)

	// Drain the measurement channel. It is closed by throughput.Sender.
	measurements := make(chan results.Measurement, 64)
	wg := &sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for m := range measurements {
			c.emitter.OnMeasurement(spec.RoleSender, m)
			result.Append(m)
		}
	}()

	appInfo, err := throughput.Sender(ctx, conn, connInfo, c.config.Duration, measurements)
	wg.Wait()
	if err != nil {
		c.emitter.OnError(spec.RoleSender, err)
		return nil, err
	}
	result.Finish(appInfo)
	c.emitter.OnComplete(spec.RoleSender, appInfo)
	c.writeResult(result)
	return result, nil
}

func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()
	conn, err := c.dialer(dialCtx, "tcp", c.endpoint)
	if err != nil {
		return nil, throughput.DialError(err)
	}
	return conn, nil
}

// setCongestionControl applies the configured algorithm, if any, and returns
// the one actually in use. Failures never prevent the transfer.
func (c *Client) setCongestionControl(conn net.Conn) string {
	fp, err := netx.GetFile(conn)
	if err != nil {
		zap.L().Sugar().Debugw("Cannot get the connection's fp", "err", err)
		return ""
	}
	defer warnonerror.Close(fp, "sender: ignoring fp.Close error")

	if c.config.CongestionControl != "" && c.config.CongestionControl != congestion.Default {
		if err := congestion.Set(fp, c.config.CongestionControl); err != nil {
			zap.L().Sugar().Warnw("Cannot set congestion control",
				"cc", c.config.CongestionControl, "err", err)
		}
	}
	cc, err := congestion.Get(fp)
	if err != nil && !errors.Is(err, congestion.ErrNoSupport) {
		zap.L().Sugar().Warnw("Cannot get congestion control", "err", err)
	}
	return cc
}

func (c *Client) writeResult(result *results.Result) {
	if c.config.DataDir == "" {
		return
	}
	name, err := persistence.Archive(c.config.DataDir, string(spec.RoleSender), result.UUID, result)
	if err != nil {
		zap.L().Sugar().Errorw("Failed to write result", "err", err)
		return
	}
	zap.L().Sugar().Debugw("Result written", "path", name)
}
