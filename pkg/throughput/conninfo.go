package throughput

import (
	"net"

	guuid "github.com/google/uuid"
	"github.com/m-lab/uuid"
	"github.com/robertodauria/iperfer/internal/netx"
	"github.com/robertodauria/iperfer/pkg/throughput/results"
	"github.com/robertodauria/iperfer/pkg/throughput/spec"
	"go.uber.org/zap"
)

// ConnInfo returns a ConnectionInfo for conn as seen by role. The UUID is
// derived from the socket cookie when possible and is random otherwise.
func ConnInfo(conn net.Conn, role spec.Role) *results.ConnectionInfo {
	local, remote := conn.LocalAddr().String(), conn.RemoteAddr().String()
	info := &results.ConnectionInfo{
		Client: local,
		Server: remote,
		UUID:   flowUUID(conn),
	}
	if role == spec.RoleReceiver {
		info.Client, info.Server = remote, local
	}
	return info
}

func flowUUID(conn net.Conn) string {
	if tc, ok := netx.ToTCPConn(conn); ok {
		id, err := uuid.FromTCPConn(tc)
		if err == nil {
			return id
		}
		zap.L().Sugar().Debugw("Cannot get UUID from socket, using a random one", "err", err)
	}
	return guuid.New().String()
}
