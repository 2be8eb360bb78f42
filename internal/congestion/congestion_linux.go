//go:build linux && !386
// +build linux,!386

package congestion

import (
	"bytes"
	"os"
	"syscall"
	"unsafe"

	"github.com/m-lab/tcp-info/inetdiag"
)

const (
	// TCP_CC_INFO from linux/tcp.h; not exported by package syscall.
	tcpCCInfo = 26
	// TCP_CA_NAME_MAX from net/tcp.h.
	tcpCANameMax = 16
)

func set(fp *os.File, cc string) error {
	// Note: Fd() returns uintptr but on Unix we can safely use int for sockets.
	return syscall.SetsockoptString(int(fp.Fd()), syscall.IPPROTO_TCP,
		syscall.TCP_CONGESTION, cc)
}

func get(fp *os.File) (string, error) {
	buf := make([]byte, tcpCANameMax)
	size := uint32(len(buf))
	_, _, errno := syscall.Syscall6(
		syscall.SYS_GETSOCKOPT,
		fp.Fd(),
		uintptr(syscall.IPPROTO_TCP),
		uintptr(syscall.TCP_CONGESTION),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(unsafe.Pointer(&size)),
		0)
	if errno != 0 {
		return "", errno
	}
	return string(bytes.TrimRight(buf[:size], "\x00")), nil
}

func getMaxBandwidthAndMinRTT(fp *os.File) (inetdiag.BBRInfo, error) {
	info := inetdiag.BBRInfo{}
	size := uint32(unsafe.Sizeof(info))
	_, _, errno := syscall.Syscall6(
		syscall.SYS_GETSOCKOPT,
		fp.Fd(),
		uintptr(syscall.IPPROTO_TCP),
		uintptr(tcpCCInfo),
		uintptr(unsafe.Pointer(&info)),
		uintptr(unsafe.Pointer(&size)),
		0)
	if errno != 0 {
		return inetdiag.BBRInfo{}, errno
	}
	if size == 0 {
		return inetdiag.BBRInfo{}, ErrNoSupport
	}
	return info, nil
}
