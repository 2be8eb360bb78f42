// Package spec contains constants for the iperfer throughput protocol.
package spec

import "time"

const (
	// MessageSize is the size of every write performed by the sender and of
	// the receiver's read buffer.
	MessageSize = 1000

	// MinPort and MaxPort bound the ports accepted on the command line.
	MinPort = 1024
	MaxPort = 65535

	// MinDuration and MaxDuration bound the sender's transfer duration.
	MinDuration = 1 * time.Second
	MaxDuration = 300 * time.Second

	// AcceptTimeout is how long the receiver waits for the sender to connect.
	AcceptTimeout = 20 * time.Second

	// DefaultDialTimeout bounds how long the sender waits for the connection
	// to be established.
	DefaultDialTimeout = 10 * time.Second

	// MinMeasureInterval is the minimum interval between subsequent measurements.
	MinMeasureInterval = 100 * time.Millisecond

	// AvgMeasureInterval is the average interval between subsequent measurements.
	AvgMeasureInterval = 250 * time.Millisecond

	// MaxMeasureInterval is the maximum interval between subsequent measurements.
	MaxMeasureInterval = 400 * time.Millisecond
)

// Role indicates which end of the transfer a process plays.
type Role string

const (
	// RoleSender connects and pushes data.
	RoleSender = Role("sender")

	// RoleReceiver listens, accepts a single connection and counts bytes.
	RoleReceiver = Role("receiver")
)
