package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/m-lab/go/rtx"
	"github.com/robertodauria/iperfer/client"
	"github.com/robertodauria/iperfer/client/config"
	"github.com/robertodauria/iperfer/internal/cli"
	"github.com/robertodauria/iperfer/internal/handler"
	"github.com/robertodauria/iperfer/pkg/throughput"
	"github.com/robertodauria/iperfer/pkg/throughput/results"
	"github.com/robertodauria/iperfer/pkg/throughput/spec"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// exitHandled is used for every anticipated failure, after printing a
	// one-line diagnostic.
	exitHandled = 0
	// exitUnexpected is used for transport faults nobody planned for.
	exitUnexpected = 1
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout))
}

func run(ctx context.Context, args []string, stdout io.Writer) int {
	settings, err := cli.LoadSettings()
	if err != nil {
		fmt.Fprintf(stdout, "Error: invalid environment setting (%v)\n", err)
		return exitHandled
	}
	logger := newLogger(settings.LogLevel)
	defer logger.Sync()
	defer zap.ReplaceGlobals(logger)()

	a, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(stdout, "Error: %v\n", err)
		return exitHandled
	}

	if a.Role == spec.RoleSender {
		return runSender(ctx, a, settings, stdout)
	}
	return runReceiver(ctx, a, settings, stdout)
}

func runSender(ctx context.Context, a *cli.Args, s *cli.Settings, stdout io.Writer) int {
	c := client.NewWithConfig(a.Addr(),
		config.New(s.DialTimeout, a.Duration, s.CongestionControl, s.DataDir))
	result, err := c.Send(ctx)
	switch {
	case errors.Is(err, throughput.ErrHostUnreachable):
		fmt.Fprintln(stdout, "Error: Host is not reachable. Be sure you are using the correct host address (i.e 192.168.0.1)")
		return exitHandled
	case errors.Is(err, throughput.ErrConnect):
		fmt.Fprintf(stdout, "Error: Unable to connect to host. Be sure the server is actively listening to port %d\n", a.Port)
		return exitHandled
	case err != nil:
		fmt.Fprintln(stdout, "Error: Exception Thrown in Client. Investigate Code.")
		zap.L().Error("Unexpected sender failure", zap.Error(err), zap.Stack("stack"))
		return exitUnexpected
	}
	fmt.Fprintln(stdout, results.Report(spec.RoleSender, result.AppInfo))
	return exitHandled
}

func runReceiver(ctx context.Context, a *cli.Args, s *cli.Settings, stdout io.Writer) int {
	h := handler.New(s.DataDir)
	result, err := h.ListenAndServe(ctx, a.Addr())
	switch {
	case errors.Is(err, throughput.ErrBind):
		fmt.Fprintln(stdout, "Port already in use")
		return exitHandled
	case errors.Is(err, throughput.ErrAcceptTimeout):
		fmt.Fprintln(stdout, "Server Timeout.")
		return exitHandled
	case err != nil:
		fmt.Fprintln(stdout, "Exception Thrown in Server. Investigate Code")
		zap.L().Error("Unexpected receiver failure", zap.Error(err), zap.Stack("stack"))
		return exitUnexpected
	}
	fmt.Fprintln(stdout, results.Report(spec.RoleReceiver, result.AppInfo))
	return exitHandled
}

// newLogger returns a console logger writing to stderr, so stdout only
// carries the report.
func newLogger(level zapcore.Level) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true
	logger, err := cfg.Build()
	rtx.Must(err, "Cannot create the logger")
	return logger
}
