// Package entity contains the domain types of the aidl-lsp client.
package entity

import (
	"fmt"

	"github.com/gofrs/uuid"
	"go.lsp.dev/protocol"
)

type keyType string

// EditorContextKey indicates the key used to identify the editor connection UUID in the context.
const EditorContextKey keyType = "EditorUUID"

// State is a lifecycle state of the Session Manager.
type State int

// Session Manager states.
const (
	// StateIdle means no Session exists.
	StateIdle State = iota
	// StateStarting means the process is launched and the handshake is in progress.
	StateStarting
	// StateReady means the handshake completed and the status indicator is shown.
	StateReady
	// StateStopping means shutdown was requested.
	StateStopping
	// StateFailed means the last activation attempt did not complete its handshake.
	StateFailed
)

var _stateNames = map[State]string{
	StateIdle:     "idle",
	StateStarting: "starting",
	StateReady:    "ready",
	StateStopping: "stopping",
	StateFailed:   "failed",
}

// String implements fmt.Stringer.
func (s State) String() string {
	if name, ok := _stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Session is the live relationship between this client and one language server process.
type Session struct {
	UUID             uuid.UUID                  `json:"uuid" zap:"uuid"`
	Options          ServerOptions              `json:"options" zap:"options"`
	Profile          LaunchProfile              `json:"profile" zap:"profile"`
	Selector         DocumentSelector           `json:"selector" zap:"selector"`
	InitializeResult *protocol.InitializeResult `json:"-" zap:"-"`
}

// Capabilities returns the server capabilities reported during the handshake.
func (s *Session) Capabilities() protocol.ServerCapabilities {
	if s == nil || s.InitializeResult == nil {
		return protocol.ServerCapabilities{}
	}
	return s.InitializeResult.Capabilities
}
