// Package cli parses the iperfer command line.
//
// The command line has exactly two shapes, and flags must appear in this
// order:
//
//	-c -h <host> -p <port> -t <seconds>
//	-s -p <port>
package cli

import (
	"errors"
	"flag"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/robertodauria/iperfer/pkg/throughput/spec"
)

// Argument errors. Their messages are printed verbatim after "Error: ".
var (
	ErrInvalid   = errors.New("invalid arguments")
	ErrPortRange = errors.New("port number must be in the range 1024 to 65535")
	ErrTimeRange = errors.New("time must be in the range 1 to 300")
)

// IsArgumentError reports whether err is one of the argument errors.
func IsArgumentError(err error) bool {
	return errors.Is(err, ErrInvalid) ||
		errors.Is(err, ErrPortRange) ||
		errors.Is(err, ErrTimeRange)
}

var (
	senderOrder   = []string{"c", "h", "p", "t"}
	receiverOrder = []string{"s", "p"}
)

// Args is the parsed command line.
type Args struct {
	Role spec.Role
	// Host is only set for the sender.
	Host string
	Port int
	// Duration is only set for the sender.
	Duration time.Duration
}

// Addr returns Host and Port as "host:port".
func (a *Args) Addr() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// recorded wraps a flag.Value and records the order in which flags are set.
type recorded struct {
	flag.Value
	name  string
	order *[]string
}

func (r *recorded) Set(s string) error {
	*r.order = append(*r.order, r.name)
	return r.Value.Set(s)
}

func (r *recorded) IsBoolFlag() bool {
	b, ok := r.Value.(interface{ IsBoolFlag() bool })
	return ok && b.IsBoolFlag()
}

// Parse parses args (without the program name).
func Parse(args []string) (*Args, error) {
	fs := flag.NewFlagSet("iperfer", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	client := fs.Bool("c", false, "Run as the sender")
	server := fs.Bool("s", false, "Run as the receiver")
	host := fs.String("h", "", "Host to send data to")
	port := fs.Int("p", 0, "Port to connect to or listen on")
	seconds := fs.Int("t", 0, "Seconds to send data for")

	var order []string
	fs.VisitAll(func(f *flag.Flag) {
		f.Value = &recorded{Value: f.Value, name: f.Name, order: &order}
	})

	if err := fs.Parse(args); err != nil || fs.NArg() != 0 {
		return nil, ErrInvalid
	}

	switch {
	case equal(order, senderOrder) && *client && *host != "":
		if err := checkPort(*port); err != nil {
			return nil, err
		}
		if err := checkSeconds(*seconds); err != nil {
			return nil, err
		}
		d := time.Duration(*seconds) * time.Second
		return &Args{Role: spec.RoleSender, Host: *host, Port: *port, Duration: d}, nil
	case equal(order, receiverOrder) && *server:
		if err := checkPort(*port); err != nil {
			return nil, err
		}
		return &Args{Role: spec.RoleReceiver, Port: *port}, nil
	}
	return nil, ErrInvalid
}

func checkPort(port int) error {
	if port < spec.MinPort || port > spec.MaxPort {
		return ErrPortRange
	}
	return nil
}

// checkSeconds works on the integer so that large values cannot wrap around
// once converted to a time.Duration.
func checkSeconds(seconds int) error {
	if seconds < int(spec.MinDuration/time.Second) || seconds > int(spec.MaxDuration/time.Second) {
		return ErrTimeRange
	}
	return nil
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
