// Package editor serves editor connections and limits the traffic reaching the language server to AIDL documents.
package editor

import (
	"context"
	"fmt"
	"sync"

	sessionmanager "github.com/aidl-lsp/aidl-client/src/aidlc/controller/session-manager"
	"github.com/aidl-lsp/aidl-client/src/aidlc/factory"
	ideclient "github.com/aidl-lsp/aidl-client/src/aidlc/gateway/ide-client"
	"github.com/aidl-lsp/aidl-client/src/aidlc/internal/jsonrpcfx"
	"github.com/gofrs/uuid"
	tally "github.com/uber-go/tally/v4"
	"go.lsp.dev/jsonrpc2"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Handler accepts editor connections from the JSON-RPC listener.
type Handler interface {
	jsonrpcfx.ConnectionManager
}

// Params are inbound parameters to initialize a new Handler.
type Params struct {
	fx.In

	Sessions sessionmanager.Controller
	JSONRPC  jsonrpcfx.JSONRPCModule
	Gateway  ideclient.Gateway
	Logger   *zap.SugaredLogger
	Stats    tally.Scope
}

type connectionManager struct {
	sessions sessionmanager.Controller
	gateway  ideclient.Gateway
	logger   *zap.SugaredLogger
	stats    tally.Scope

	mu      sync.Mutex
	routers map[uuid.UUID]*router
}

// New constructs the editor Handler and registers it with the JSON-RPC listener.
func New(p Params) (Handler, error) {
	m := &connectionManager{
		sessions: p.Sessions,
		gateway:  p.Gateway,
		logger:   p.Logger.With("component", "editor"),
		stats:    p.Stats.SubScope("editor"),
		routers:  make(map[uuid.UUID]*router),
	}
	if err := p.JSONRPC.RegisterConnectionManager(m); err != nil {
		return nil, fmt.Errorf("registering editor connections: %w", err)
	}
	return m, nil
}

// NewConnection stores a new editor connection and returns a router that includes its UUID.
func (m *connectionManager) NewConnection(ctx context.Context, conn jsonrpc2.Conn) (jsonrpcfx.Router, error) {
	id := factory.UUID()
	r := newRouter(id, conn, m.sessions, m.logger.With("editor", id.String()), m.stats)

	m.mu.Lock()
	m.routers[id] = r
	count := len(m.routers)
	m.mu.Unlock()

	m.gateway.RegisterClient(id, conn)
	m.stats.Gauge("connections").Update(float64(count))
	return r, nil
}

// RemoveConnection cleans up a closed connection. Requests still forwarded on its behalf are cancelled.
func (m *connectionManager) RemoveConnection(ctx context.Context, id uuid.UUID) {
	m.mu.Lock()
	r, ok := m.routers[id]
	delete(m.routers, id)
	count := len(m.routers)
	m.mu.Unlock()

	m.gateway.DeregisterClient(id)
	m.stats.Gauge("connections").Update(float64(count))
	if ok {
		r.close()
	}
}
