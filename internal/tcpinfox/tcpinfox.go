// Package tcpinfox reads TCP_INFO from a socket.
package tcpinfox

import (
	"errors"
	"os"

	"github.com/m-lab/tcp-info/tcp"
)

// ErrNoSupport is returned on platforms without TCP_INFO.
var ErrNoSupport = errors.New("TCP_INFO not supported")

// GetTCPInfo returns a TCP_INFO snapshot for the socket backing fp.
func GetTCPInfo(fp *os.File) (*tcp.LinuxTCPInfo, error) {
	return getTCPInfo(fp)
}
