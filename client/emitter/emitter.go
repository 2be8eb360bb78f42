package emitter

import (
	"github.com/robertodauria/iperfer/pkg/throughput/results"
	"github.com/robertodauria/iperfer/pkg/throughput/spec"
	"go.uber.org/zap"
)

// Emitter is notified about the progress of a transfer.
type Emitter interface {
	OnStart(spec.Role, string)
	OnMeasurement(spec.Role, results.Measurement)
	OnError(spec.Role, error)
	OnComplete(spec.Role, *results.AppInfo)
}

// LogEmitter logs every event through the global zap logger.
type LogEmitter struct{}

func (e *LogEmitter) OnStart(role spec.Role, peer string) {
	zap.L().Sugar().Infof("%s: connected to %s", role, peer)
}

func (e *LogEmitter) OnMeasurement(role spec.Role, m results.Measurement) {
	if m.AppInfo == nil {
		return
	}
	zap.L().Sugar().Debugf("%s: %d bytes, throughput: %f Mb/s", role,
		m.AppInfo.NumBytes, m.AppInfo.Mbps())
}

func (e *LogEmitter) OnError(role spec.Role, err error) {
	zap.L().Sugar().Errorf("%s: error (%v)", role, err)
}

func (e *LogEmitter) OnComplete(role spec.Role, a *results.AppInfo) {
	zap.L().Sugar().Infof("%s: completed, %d bytes in %v", role, a.NumBytes, a.Elapsed())
}
