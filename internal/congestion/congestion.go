// Package congestion gets and sets the congestion control algorithm of a
// TCP socket.
package congestion

import (
	"errors"
	"os"

	"github.com/m-lab/tcp-info/inetdiag"
)

// ErrNoSupport is returned when the platform or the current algorithm does
// not support the requested operation.
var ErrNoSupport = errors.New("not supported")

// Default means "leave the kernel's choice alone".
const Default = "default"

// Set sets the congestion control algorithm of the socket backing fp.
func Set(fp *os.File, cc string) error {
	return set(fp, cc)
}

// Get returns the congestion control algorithm of the socket backing fp.
func Get(fp *os.File) (string, error) {
	return get(fp)
}

// GetBBRInfo returns BBR's bandwidth and min RTT estimates. It returns
// ErrNoSupport if the socket is not using BBR.
func GetBBRInfo(fp *os.File) (inetdiag.BBRInfo, error) {
	cc, err := get(fp)
	if err != nil {
		return inetdiag.BBRInfo{}, err
	}
	if cc != "bbr" {
		return inetdiag.BBRInfo{}, ErrNoSupport
	}
	return getMaxBandwidthAndMinRTT(fp)
}
