package handler

import (
	"context"
	"errors"
	"net"
	"os"
	"sync"
	"time"

	"github.com/m-lab/go/warnonerror"
	"github.com/robertodauria/iperfer/client/emitter"
	"github.com/robertodauria/iperfer/internal/congestion"
	"github.com/robertodauria/iperfer/internal/netx"
	"github.com/robertodauria/iperfer/internal/persistence"
	"github.com/robertodauria/iperfer/pkg/throughput"
	"github.com/robertodauria/iperfer/pkg/throughput/results"
	"github.com/robertodauria/iperfer/pkg/throughput/spec"
	"go.uber.org/zap"
)

// Handler handles the receiving end of a measurement.
type Handler struct {
	dataDir       string
	acceptTimeout time.Duration
	emitter       emitter.Emitter
}

// New creates a new Handler. Results are archived under dataDir unless it is
// empty.
func New(dataDir string) *Handler {
	return &Handler{
		dataDir:       dataDir,
		acceptTimeout: spec.AcceptTimeout,
		emitter:       &emitter.LogEmitter{},
	}
}

// Listen binds addr. It returns throughput.ErrBind if the port is in use.
func (h *Handler) Listen(addr string) (*net.TCPListener, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, err
	}
	ln, err := net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		return nil, throughput.ListenError(err)
	}
	logHostInfo(ln.Addr())
	return ln, nil
}

// ListenAndServe binds addr and serves exactly one measurement.
func (h *Handler) ListenAndServe(ctx context.Context, addr string) (*results.Result, error) {
	ln, err := h.Listen(addr)
	if err != nil {
		return nil, err
	}
	return h.Serve(ctx, ln)
}

// Serve waits for a single sender and counts the bytes it sends until it
// closes the connection. If nobody connects within the accept window it
// returns throughput.ErrAcceptTimeout. ln is always closed on return.
func (h *Handler) Serve(ctx context.Context, ln *net.TCPListener) (*results.Result, error) {
	defer warnonerror.Close(ln, "receiver: ignoring listener.Close error")

	if err := ln.SetDeadline(time.Now().Add(h.acceptTimeout)); err != nil {
		return nil, err
	}
	zap.L().Sugar().Infow("Waiting for a sender",
		"addr", ln.Addr().String(),
		"timeout", h.acceptTimeout)
	conn, err := ln.Accept()
	if err != nil {
		err = throughput.AcceptError(err)
		h.emitter.OnError(spec.RoleReceiver, err)
		return nil, err
	}

	connInfo := throughput.ConnInfo(conn, spec.RoleReceiver)
	result := results.NewResult(spec.RoleReceiver, connInfo)
	result.CongestionControl = getCongestionControl(conn)
	h.emitter.OnStart(spec.RoleReceiver, connInfo.Client)

	// Drain the measurement channel and append the measurements to the result.
	measurements := make(chan results.Measurement, 64)
	wg := &sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for m := range measurements {
			h.emitter.OnMeasurement(spec.RoleReceiver, m)
			result.Append(m)
		}
		zap.L().Sugar().Debug("Done receiving from measurement channel")
	}()

	appInfo, err := throughput.Receiver(ctx, conn, connInfo, measurements)
	wg.Wait()
	if err != nil {
		h.emitter.OnError(spec.RoleReceiver, err)
		return nil, err
	}
	result.Finish(appInfo)
	h.emitter.OnComplete(spec.RoleReceiver, appInfo)
	h.writeResult(result)
	return result, nil
}

func (h *Handler) writeResult(result *results.Result) {
	if h.dataDir == "" {
		return
	}
	name, err := persistence.Archive(h.dataDir, string(spec.RoleReceiver), result.UUID, result)
	if err != nil {
		zap.L().Sugar().Errorw("Failed to write result", "err", err)
		return
	}
	zap.L().Sugar().Debugw("Result written", "path", name)
}

func getCongestionControl(conn net.Conn) string {
	fp, err := netx.GetFile(conn)
	if err != nil {
		zap.L().Sugar().Debugw("Cannot get the connection's fp", "err", err)
		return ""
	}
	defer warnonerror.Close(fp, "receiver: ignoring fp.Close error")
	cc, err := congestion.Get(fp)
	if err != nil && !errors.Is(err, congestion.ErrNoSupport) {
		zap.L().Sugar().Warnw("Cannot get congestion control", "err", err)
	}
	return cc
}

// logHostInfo logs the local hostname and addresses, so the operator knows
// what to pass to the sender. Failures are not fatal.
func logHostInfo(addr net.Addr) {
	logHostInfoWith(os.Hostname, addr)
}

func logHostInfoWith(hostnameFn func() (string, error), addr net.Addr) {
	var ips []string
	hostname, err := hostnameFn()
	if err != nil {
		zap.L().Sugar().Warnw("Unable to retrieve the hostname", "err", err)
		hostname = ""
	} else if ips, err = net.LookupHost(hostname); err != nil {
		zap.L().Sugar().Warnw("Unable to retrieve the host's IP addresses",
			"hostname", hostname, "err", err)
		ips = nil
	}
	zap.L().Sugar().Infow("Receiver listening",
		"hostname", hostname,
		"addresses", ips,
		"listen", addr.String())
}
