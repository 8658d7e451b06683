// Package client assembles package session, package achieve, package
// postqueue, and package progress behind the single host-facing surface of
// spec §6: a Config of host callbacks and toggles, and a Client built from
// it.
package client

import (
	"net/url"

	"github.com/jetsetilly/raclient/achieve"
	"github.com/jetsetilly/raclient/memref"
)

// ServerCall is the host-supplied HTTP POST contract of spec §6: deliver an
// "application/x-www-form-urlencoded" POST of params to host (the override
// configured via Config.Host, or "" for the default base URL), invoking cb
// exactly once with the response body and HTTP status (or a transport-level
// err if the request never reached a server).
type ServerCall func(host string, params url.Values, cb func(body []byte, status int, err error))

// Config is the host-facing, per-client configuration of spec §6.
type Config struct {
	// Hardcore gates softcore vs hardcore unlock sets (spec §6's
	// "hardcore" option). It is read from the Config given to NewClient;
	// the Client offers no way to toggle it afterwards.
	Hardcore bool
	// EncoreMode is evaluated at load: treats all achievements as
	// re-unlockable.
	EncoreMode bool
	// Unofficial includes Flags==5 achievements, evaluated at load.
	Unofficial bool
	// Spectator skips HTTP award/submit posts (events still fire),
	// latched at load.
	Spectator bool
	// Host overrides the base URL for every r=... endpoint.
	Host string
	// MaxValidAddress bounds the loaded console's address space (spec §4.B
	// "parse time bounds checking"); an achievement whose trigger touches
	// an address beyond it is disabled at load rather than evaluated.
	MaxValidAddress uint32

	// ReadMemory is the host's emulated-memory accessor (spec §6
	// "read_memory").
	ReadMemory memref.ReadMemory
	// Call delivers the wire-protocol HTTP POSTs (spec §6 "server_call").
	Call ServerCall
	// EventHandler receives each drained Event on the frame thread (spec
	// §6 "event_handler"). May be nil.
	EventHandler func(achieve.Event)
	// Log receives free-form diagnostic lines (spec §6 "log", optional,
	// level-gated by the caller if it wants). May be nil.
	Log func(message string)
}
