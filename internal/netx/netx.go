// Package netx contains helpers to reach the socket underlying a net.Conn.
package netx

import (
	"errors"
	"net"
	"os"
)

// ErrNoFile is returned when the connection is not backed by a socket.
var ErrNoFile = errors.New("connection has no underlying file")

type filer interface {
	File() (*os.File, error)
}

// GetFile returns a duplicate of the file descriptor backing conn. The caller
// must close the returned file; closing it does not close conn.
func GetFile(conn net.Conn) (*os.File, error) {
	f, ok := conn.(filer)
	if !ok {
		return nil, ErrNoFile
	}
	return f.File()
}

// ToTCPConn returns conn as a *net.TCPConn, if it is one.
func ToTCPConn(conn net.Conn) (*net.TCPConn, bool) {
	tc, ok := conn.(*net.TCPConn)
	return tc, ok
}
