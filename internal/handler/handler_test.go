package handler

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/robertodauria/iperfer/pkg/throughput"
	"github.com/robertodauria/iperfer/pkg/throughput/spec"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestHandler_Serve(t *testing.T) {
	dir := t.TempDir()
	h := New(dir)
	ln, err := h.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	addr := ln.Addr().String()

	go func() {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, spec.MessageSize)
		for i := 0; i < 5; i++ {
			if _, err := conn.Write(buf); err != nil {
				return
			}
		}
	}()

	result, err := h.Serve(context.Background(), ln)
	if err != nil {
		t.Fatalf("Serve: %v", err)
	}
	if result.AppInfo.NumBytes != 5000 {
		t.Errorf("expected 5000 bytes, got %d", result.AppInfo.NumBytes)
	}
	if result.Role != spec.RoleReceiver {
		t.Errorf("unexpected role %q", result.Role)
	}
	if result.Server != addr {
		t.Errorf("expected server %s, got %s", addr, result.Server)
	}

	// The listener must be closed once the measurement is done.
	if _, err := net.DialTimeout("tcp", addr, time.Second); err == nil {
		t.Errorf("listener still accepting connections")
	}

	matches, _ := filepath.Glob(filepath.Join(dir, "*", "*", "*", "receiver-*.json"))
	if len(matches) != 1 {
		t.Errorf("expected one archived result, got %v", matches)
	}
}

func TestHandler_Serve_Measurements(t *testing.T) {
	h := New("")
	ln, err := h.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	go func() {
		conn, err := net.Dial("tcp", ln.Addr().String())
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, spec.MessageSize)
		end := time.Now().Add(700 * time.Millisecond)
		for time.Now().Before(end) {
			if _, err := conn.Write(buf); err != nil {
				return
			}
		}
	}()

	result, err := h.Serve(context.Background(), ln)
	if err != nil {
		t.Fatalf("Serve: %v", err)
	}
	if len(result.Measurements) < 2 {
		t.Fatalf("expected interim and final measurements, got %d", len(result.Measurements))
	}
	final := result.Measurements[len(result.Measurements)-1]
	if final.AppInfo.NumBytes != result.AppInfo.NumBytes {
		t.Errorf("final measurement has %d bytes, want %d",
			final.AppInfo.NumBytes, result.AppInfo.NumBytes)
	}
}

func TestHandler_AcceptTimeout(t *testing.T) {
	h := New("")
	h.acceptTimeout = 50 * time.Millisecond

	start := time.Now()
	_, err := h.ListenAndServe(context.Background(), "127.0.0.1:0")
	if !errors.Is(err, throughput.ErrAcceptTimeout) {
		t.Fatalf("expected ErrAcceptTimeout, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Errorf("accept window not honored: %v", time.Since(start))
	}
}

func TestHandler_Bind(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer busy.Close()

	h := New("")
	_, err = h.ListenAndServe(context.Background(), busy.Addr().String())
	if !errors.Is(err, throughput.ErrBind) {
		t.Fatalf("expected ErrBind, got %v", err)
	}
}

func TestHandler_Serve_NoData(t *testing.T) {
	h := New("")
	ln, err := h.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	go func() {
		conn, err := net.Dial("tcp", ln.Addr().String())
		if err == nil {
			conn.Close()
		}
	}()
	result, err := h.Serve(context.Background(), ln)
	if err != nil {
		t.Fatalf("Serve: %v", err)
	}
	if result.AppInfo.NumBytes != 0 {
		t.Errorf("expected 0 bytes, got %d", result.AppInfo.NumBytes)
	}
}

func TestLogHostInfo_NoHostname(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	defer zap.ReplaceGlobals(zap.New(core))()

	addr := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 5050}
	logHostInfoWith(func() (string, error) {
		return "", errors.New("no hostname")
	}, addr)

	if logs.FilterMessage("Unable to retrieve the hostname").Len() != 1 {
		t.Errorf("expected a warning about the hostname")
	}
	listening := logs.FilterMessage("Receiver listening").All()
	if len(listening) != 1 {
		t.Fatalf("expected the listen address to be logged, got %d entries", len(listening))
	}
	fields := listening[0].ContextMap()
	if fields["listen"] != "127.0.0.1:5050" {
		t.Errorf("unexpected listen field %v", fields["listen"])
	}
	if fields["hostname"] != "" {
		t.Errorf("expected an empty hostname, got %v", fields["hostname"])
	}
}
