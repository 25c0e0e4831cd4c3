// Package modeling gives the controller's wire-level adapter a minimal
// message-port abstraction, independent of any particular simulation
// engine, so it can be driven by a test harness or a real event loop
// alike.
package modeling

// RemotePort names another port a message is addressed to or from.
type RemotePort string

// MsgMeta is the addressing information attached to every message.
type MsgMeta struct {
	ID       string
	Src, Dst RemotePort
}

// Msg is a piece of information exchanged between ports.
type Msg interface {
	Meta() MsgMeta
}
