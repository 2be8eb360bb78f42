package cli

import (
	"flag"
	"io"
	"time"

	"github.com/m-lab/go/flagx"
	"github.com/robertodauria/iperfer/internal/congestion"
	"github.com/robertodauria/iperfer/pkg/throughput/spec"
	"go.uber.org/zap/zapcore"
)

// Settings are read from the environment so that they never change the shape
// of the command line. A flag named "iperfer-data-dir" is read from
// IPERFER_DATA_DIR.
type Settings struct {
	LogLevel          zapcore.Level
	DataDir           string
	CongestionControl string
	DialTimeout       time.Duration
}

// LoadSettings reads Settings from the environment, falling back to defaults.
func LoadSettings() (*Settings, error) {
	s := &Settings{LogLevel: zapcore.InfoLevel}
	fs := flag.NewFlagSet("settings", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Var(&s.LogLevel, "iperfer-log-level", "Log level (debug, info, warn, error)")
	fs.StringVar(&s.DataDir, "iperfer-data-dir", "", "Directory to archive results into, disabled if empty")
	fs.StringVar(&s.CongestionControl, "iperfer-cc", congestion.Default, "Congestion control algorithm for the sender")
	fs.DurationVar(&s.DialTimeout, "iperfer-dial-timeout", spec.DefaultDialTimeout, "Sender connection timeout")
	if err := flagx.ArgsFromEnv(fs); err != nil {
		return nil, err
	}
	return s, nil
}
