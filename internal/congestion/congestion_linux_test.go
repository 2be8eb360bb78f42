//go:build linux && !386
// +build linux,!386

package congestion

import (
	"errors"
	"net"
	"os"
	"testing"

	"github.com/robertodauria/iperfer/internal/netx"
)

func loopbackFile(t *testing.T) *os.File {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })
	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	fp, err := netx.GetFile(conn)
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	t.Cleanup(func() { fp.Close() })
	return fp
}

func TestGet(t *testing.T) {
	fp := loopbackFile(t)
	cc, err := Get(fp)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cc == "" {
		t.Errorf("expected a congestion control name")
	}
}

func TestSet_Unknown(t *testing.T) {
	fp := loopbackFile(t)
	if err := Set(fp, "no-such-algorithm"); err == nil {
		t.Errorf("expected an error for an unknown algorithm")
	}
}

func TestGetBBRInfo(t *testing.T) {
	fp := loopbackFile(t)
	cc, err := Get(fp)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	_, err = GetBBRInfo(fp)
	if cc != "bbr" && !errors.Is(err, ErrNoSupport) {
		t.Errorf("expected ErrNoSupport for %q, got %v", cc, err)
	}
}
