// Package throughput implements the two ends of a raw TCP throughput
// measurement: a Sender that writes fixed-size messages until a deadline and a
// Receiver that counts bytes until end-of-stream.
package throughput

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"time"

	"github.com/m-lab/go/memoryless"
	"github.com/m-lab/go/warnonerror"
	"github.com/robertodauria/iperfer/internal/congestion"
	"github.com/robertodauria/iperfer/internal/netx"
	"github.com/robertodauria/iperfer/internal/tcpinfox"
	"github.com/robertodauria/iperfer/pkg/throughput/results"
	"github.com/robertodauria/iperfer/pkg/throughput/spec"
	"go.uber.org/zap"
)

// Sender writes spec.MessageSize-byte messages over conn until duration has
// elapsed, then closes conn and returns the number of bytes written and the
// time it took.
//
// The deadline is the only stop condition: ctx bounds the measurement ticker,
// not the transfer. Measurements are sent to mchannel, which may be nil. The
// sender never blocks on mchannel, so you SHOULD pass a channel with a
// reasonably large buffer (e.g., 64 slots). mchannel is closed on return.
func Sender(ctx context.Context, conn net.Conn, connInfo *results.ConnectionInfo,
	duration time.Duration, mchannel chan<- results.Measurement) (*results.AppInfo, error) {
	defer closeChannel(mchannel)
	defer warnonerror.Close(conn, "sender: ignoring conn.Close error")

	fp := getFile(conn)
	if fp != nil {
		defer warnonerror.Close(fp, "sender: ignoring fp.Close error")
	}

	tick, stop, err := newTicker(ctx)
	if err != nil {
		return nil, err
	}
	defer stop()

	// Zero-filled payload: the receiver does not look at it.
	message := make([]byte, spec.MessageSize)
	var numBytes int64

	start := time.Now()
	end := start.Add(duration)
	for time.Now().Before(end) {
		n, err := conn.Write(message)
		numBytes += int64(n)
		if err != nil {
			return results.NewAppInfo(numBytes, time.Since(start)), err
		}

		select {
		case <-tick:
			emit(mchannel, measure(fp, spec.RoleSender, connInfo, numBytes, start))
		default:
			// NOTHING
		}
	}
	appInfo := results.NewAppInfo(numBytes, time.Since(start))
	emit(mchannel, measure(fp, spec.RoleSender, connInfo, numBytes, start))
	zap.L().Sugar().Debugw("Sender loop done",
		"bytes", appInfo.NumBytes,
		"elapsed", appInfo.Elapsed())
	return appInfo, nil
}

// Receiver reads from conn until the peer closes the stream, then closes conn
// and returns the number of bytes read and the time it took.
//
// Only io.EOF ends the transfer: a zero-length read is not end-of-stream.
// Measurements are handled as in Sender.
func Receiver(ctx context.Context, conn net.Conn, connInfo *results.ConnectionInfo,
	mchannel chan<- results.Measurement) (*results.AppInfo, error) {
	start := time.Now()
	defer closeChannel(mchannel)
	defer warnonerror.Close(conn, "receiver: ignoring conn.Close error")

	fp := getFile(conn)
	if fp != nil {
		defer warnonerror.Close(fp, "receiver: ignoring fp.Close error")
	}

	tick, stop, err := newTicker(ctx)
	if err != nil {
		return nil, err
	}
	defer stop()

	buf := make([]byte, spec.MessageSize)
	var numBytes int64
	for {
		n, err := conn.Read(buf)
		numBytes += int64(n)
		if err == io.EOF {
			break
		}
		if err != nil {
			return results.NewAppInfo(numBytes, time.Since(start)), err
		}

		select {
		case <-tick:
			emit(mchannel, measure(fp, spec.RoleReceiver, connInfo, numBytes, start))
		default:
			// NOTHING
		}
	}
	appInfo := results.NewAppInfo(numBytes, time.Since(start))
	emit(mchannel, measure(fp, spec.RoleReceiver, connInfo, numBytes, start))
	zap.L().Sugar().Debugw("Receiver loop done",
		"bytes", appInfo.NumBytes,
		"elapsed", appInfo.Elapsed())
	return appInfo, nil
}

// newTicker starts a memoryless ticker and returns a channel holding at most
// one pending tick. The ticker's own channel is unbuffered and its sends do
// not block, so a loop that only polls it would almost never see a tick.
// Calling stop releases the ticker and the forwarding goroutine.
func newTicker(ctx context.Context) (<-chan time.Time, func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	ticker, err := memoryless.NewTicker(ctx, memoryless.Config{
		Min:      spec.MinMeasureInterval,
		Expected: spec.AvgMeasureInterval,
		Max:      spec.MaxMeasureInterval,
	})
	if err != nil {
		cancel()
		return nil, nil, err
	}
	pending := make(chan time.Time, 1)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case t, ok := <-ticker.C:
				if !ok {
					return
				}
				select {
				case pending <- t:
				default:
					// A tick is already pending.
				}
			}
		}
	}()
	stop := func() {
		cancel()
		ticker.Stop()
	}
	return pending, stop, nil
}

// getFile returns the socket's file, or nil if conn has none (e.g. net.Pipe).
func getFile(conn net.Conn) *os.File {
	fp, err := netx.GetFile(conn)
	if err != nil {
		zap.L().Sugar().Debugw("No socket file, TCP_INFO disabled", "err", err)
		return nil
	}
	return fp
}

// measure takes a snapshot of the transfer. Socket-level data is best effort.
func measure(fp *os.File, origin spec.Role, connInfo *results.ConnectionInfo,
	numBytes int64, start time.Time) results.Measurement {
	appInfo := results.NewAppInfo(numBytes, time.Since(start))
	m := results.Measurement{
		AppInfo:        appInfo,
		ConnectionInfo: connInfo,
		Origin:         string(origin),
	}
	if fp == nil {
		return m
	}
	tcpInfo, err := tcpinfox.GetTCPInfo(fp)
	if err == nil {
		m.TCPInfo = &results.TCPInfo{
			LinuxTCPInfo: *tcpInfo,
			ElapsedTime:  appInfo.ElapsedTime,
		}
	} else if !errors.Is(err, tcpinfox.ErrNoSupport) {
		zap.L().Sugar().Debugw("Cannot read TCP_INFO", "err", err)
	}
	// Errors are not critical here: most sockets do not use BBR.
	if bbrInfo, err := congestion.GetBBRInfo(fp); err == nil {
		m.BBRInfo = &results.BBRInfo{
			BBRInfo:     bbrInfo,
			ElapsedTime: appInfo.ElapsedTime,
		}
	}
	return m
}

// emit sends m over mchannel if possible. It never blocks.
func emit(mchannel chan<- results.Measurement, m results.Measurement) {
	if mchannel == nil {
		return
	}
	select {
	case mchannel <- m:
	default:
		// discard message as documented
	}
}

func closeChannel(mchannel chan<- results.Measurement) {
	if mchannel != nil {
		close(mchannel)
	}
}
