package ws

import "time"

type ConnInfo struct {
	ConnID      string
	DisplayName string
	Guest       bool
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}
