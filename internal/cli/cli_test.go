package cli

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/robertodauria/iperfer/pkg/throughput/spec"
	"go.uber.org/zap/zapcore"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		want    *Args
		wantErr error
	}{
		{
			name: "sender",
			args: "-c -h localhost -p 5050 -t 2",
			want: &Args{Role: spec.RoleSender, Host: "localhost", Port: 5050, Duration: 2 * time.Second},
		},
		{
			name: "receiver",
			args: "-s -p 5050",
			want: &Args{Role: spec.RoleReceiver, Port: 5050},
		},
		{
			name: "lowest port",
			args: "-s -p 1024",
			want: &Args{Role: spec.RoleReceiver, Port: 1024},
		},
		{
			name: "highest port",
			args: "-c -h 10.0.0.1 -p 65535 -t 1",
			want: &Args{Role: spec.RoleSender, Host: "10.0.0.1", Port: 65535, Duration: time.Second},
		},
		{
			name: "longest duration",
			args: "-c -h localhost -p 5050 -t 300",
			want: &Args{Role: spec.RoleSender, Host: "localhost", Port: 5050, Duration: 300 * time.Second},
		},
		{name: "port too low", args: "-s -p 1023", wantErr: ErrPortRange},
		{name: "port too high", args: "-c -h localhost -p 65536 -t 2", wantErr: ErrPortRange},
		{name: "duration zero", args: "-c -h localhost -p 5050 -t 0", wantErr: ErrTimeRange},
		{name: "duration too long", args: "-c -h localhost -p 5050 -t 301", wantErr: ErrTimeRange},
		{name: "duration overflowing time.Duration", args: "-c -h localhost -p 5050 -t 18446744075", wantErr: ErrTimeRange},
		{name: "negative duration", args: "-c -h localhost -p 5050 -t -1", wantErr: ErrTimeRange},
		{name: "port checked before duration", args: "-c -h localhost -p 80 -t 0", wantErr: ErrPortRange},
		{name: "no arguments", args: "", wantErr: ErrInvalid},
		{name: "sender wrong order", args: "-c -p 5050 -h localhost -t 2", wantErr: ErrInvalid},
		{name: "receiver wrong order", args: "-p 5050 -s", wantErr: ErrInvalid},
		{name: "missing duration", args: "-c -h localhost -p 5050", wantErr: ErrInvalid},
		{name: "extra positional", args: "-s -p 5050 extra", wantErr: ErrInvalid},
		{name: "repeated flag", args: "-s -p 5050 -p 5051", wantErr: ErrInvalid},
		{name: "both roles", args: "-c -s -p 5050", wantErr: ErrInvalid},
		{name: "receiver with duration", args: "-s -p 5050 -t 2", wantErr: ErrInvalid},
		{name: "unknown flag", args: "-x -p 5050", wantErr: ErrInvalid},
		{name: "non-numeric port", args: "-s -p http", wantErr: ErrInvalid},
		{name: "role disabled", args: "-s=false -p 5050", wantErr: ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(strings.Fields(tt.args))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Parse(%q) error = %v, want %v", tt.args, err, tt.wantErr)
				}
				if !IsArgumentError(err) {
					t.Errorf("IsArgumentError(%v) = false", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.args, err)
			}
			if *got != *tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.args, got, tt.want)
			}
		})
	}
}

func TestArgs_Addr(t *testing.T) {
	a := &Args{Host: "::1", Port: 5050}
	if a.Addr() != "[::1]:5050" {
		t.Errorf("unexpected addr %s", a.Addr())
	}
}

func TestLoadSettings(t *testing.T) {
	t.Setenv("IPERFER_LOG_LEVEL", "debug")
	t.Setenv("IPERFER_DATA_DIR", "/tmp/iperfer")
	t.Setenv("IPERFER_CC", "cubic")
	t.Setenv("IPERFER_DIAL_TIMEOUT", "3s")

	s, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	want := Settings{
		LogLevel:          zapcore.DebugLevel,
		DataDir:           "/tmp/iperfer",
		CongestionControl: "cubic",
		DialTimeout:       3 * time.Second,
	}
	if *s != want {
		t.Errorf("LoadSettings() = %+v, want %+v", s, want)
	}
}

func TestLoadSettings_Defaults(t *testing.T) {
	s, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s.LogLevel != zapcore.InfoLevel || s.DataDir != "" ||
		s.CongestionControl != "default" || s.DialTimeout != spec.DefaultDialTimeout {
		t.Errorf("unexpected defaults %+v", s)
	}
}

func TestLoadSettings_Invalid(t *testing.T) {
	t.Setenv("IPERFER_DIAL_TIMEOUT", "soon")
	if _, err := LoadSettings(); err == nil {
		t.Fatal("expected an error for an invalid duration")
	}
}
