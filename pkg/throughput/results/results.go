package results

import (
	"fmt"
	"math"
	"time"

	"github.com/m-lab/go/prometheusx"
	"github.com/m-lab/tcp-info/inetdiag"
	"github.com/m-lab/tcp-info/tcp"
	"github.com/robertodauria/iperfer/pkg/throughput/spec"
)

// Version is the symbolic version of the running code, set at build time with
// -ldflags "-X github.com/robertodauria/iperfer/pkg/throughput/results.Version=..."
var Version = "devel"

// Result is the struct that is serialized as JSON to disk as the archival
// record of a transfer.
type Result struct {
	// GitShortCommit is the Git commit (short form) of the running code.
	GitShortCommit string
	// Version is the symbolic version (if any) of the running code.
	Version string

	UUID              string
	Role              spec.Role
	CongestionControl string

	// All data members should all be self-describing. In the event of confusion,
	// rename them to add clarity rather than adding a comment.
	Client string
	Server string

	StartTime time.Time
	EndTime   time.Time

	AppInfo      *AppInfo
	TCPInfo      *TCPInfo `json:",omitempty"`
	BBRInfo      *BBRInfo `json:",omitempty"`
	Measurements []Measurement
}

// The Measurement struct contains a snapshot taken while the transfer is in
// progress.
type Measurement struct {
	AppInfo        *AppInfo        `json:",omitempty"`
	ConnectionInfo *ConnectionInfo `json:",omitempty"`
	BBRInfo        *BBRInfo        `json:",omitempty"`
	TCPInfo        *TCPInfo        `json:",omitempty"`

	// Origin is either "sender" or "receiver".
	Origin string `json:",omitempty"`
}

// AppInfo contains an application level measurement.
type AppInfo struct {
	// NumBytes is the number of bytes moved so far.
	NumBytes int64
	// ElapsedTime is in microseconds.
	ElapsedTime int64
}

// ConnectionInfo contains connection info.
type ConnectionInfo struct {
	Client string
	Server string
	UUID   string `json:",omitempty"`
}

// The BBRInfo struct contains information measured using BBR. Variables here
// have the same measurement unit that is used by the Linux kernel.
type BBRInfo struct {
	inetdiag.BBRInfo
	ElapsedTime int64
}

// The TCPInfo struct contains information measured using TCP_INFO.
type TCPInfo struct {
	tcp.LinuxTCPInfo
	ElapsedTime int64
}

// NewResult returns a Result for a transfer starting now.
func NewResult(role spec.Role, connInfo *ConnectionInfo) *Result {
	return &Result{
		GitShortCommit: prometheusx.GitShortCommit,
		Version:        Version,
		UUID:           connInfo.UUID,
		Role:           role,
		Client:         connInfo.Client,
		Server:         connInfo.Server,
		StartTime:      time.Now().UTC(),
	}
}

// Append records an interim measurement.
func (r *Result) Append(m Measurement) {
	r.Measurements = append(r.Measurements, m)
}

// Finish stamps the end time and the final counters. The last socket-level
// snapshots seen among the measurements become the result's TCPInfo and
// BBRInfo.
func (r *Result) Finish(a *AppInfo) {
	r.EndTime = time.Now().UTC()
	r.AppInfo = a
	for i := len(r.Measurements) - 1; i >= 0; i-- {
		m := r.Measurements[i]
		if r.TCPInfo == nil && m.TCPInfo != nil {
			r.TCPInfo = m.TCPInfo
		}
		if r.BBRInfo == nil && m.BBRInfo != nil {
			r.BBRInfo = m.BBRInfo
		}
	}
}

// NewAppInfo returns an AppInfo for numBytes moved in elapsed.
func NewAppInfo(numBytes int64, elapsed time.Duration) *AppInfo {
	return &AppInfo{
		NumBytes:    numBytes,
		ElapsedTime: elapsed.Microseconds(),
	}
}

// Elapsed returns ElapsedTime as a time.Duration.
func (a *AppInfo) Elapsed() time.Duration {
	return time.Duration(a.ElapsedTime) * time.Microsecond
}

// Mbps returns the throughput in megabits per second. A zero elapsed time
// yields zero.
func (a *AppInfo) Mbps() float64 {
	return Mbps(a.NumBytes, a.Elapsed())
}

// KB returns the number of bytes moved in kilobytes (10^3 bytes), rounded to
// the nearest integer.
func (a *AppInfo) KB() int64 {
	return int64(math.Round(float64(a.NumBytes) / 1000))
}

// Mbps computes numBytes*8 / 10^6 / elapsed seconds.
func Mbps(numBytes int64, elapsed time.Duration) float64 {
	secs := elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(numBytes) * 8 / 1e6 / secs
}

// Report formats the one-line summary printed at the end of a transfer, e.g.
// "sent=2000 KB rate=8.000 Mbps".
func Report(role spec.Role, a *AppInfo) string {
	verb := "received"
	if role == spec.RoleSender {
		verb = "sent"
	}
	rate := math.Round(a.Mbps()*1000) / 1000
	return fmt.Sprintf("%s=%d KB rate=%.3f Mbps", verb, a.KB(), rate)
}
