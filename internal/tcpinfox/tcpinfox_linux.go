//go:build linux && !386
// +build linux,!386

package tcpinfox

import (
	"os"
	"syscall"
	"unsafe"

	"github.com/m-lab/tcp-info/tcp"
)

func getTCPInfo(fp *os.File) (*tcp.LinuxTCPInfo, error) {
	tcpInfo := tcp.LinuxTCPInfo{}
	tcpInfoLen := uint32(unsafe.Sizeof(tcpInfo))
	_, _, errno := syscall.Syscall6(
		syscall.SYS_GETSOCKOPT,
		fp.Fd(),
		uintptr(syscall.IPPROTO_TCP),
		uintptr(syscall.TCP_INFO),
		uintptr(unsafe.Pointer(&tcpInfo)),
		uintptr(unsafe.Pointer(&tcpInfoLen)),
		0)
	if errno != 0 {
		return nil, errno
	}
	return &tcpInfo, nil
}
