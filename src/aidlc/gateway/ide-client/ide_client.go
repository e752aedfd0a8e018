// Package ideclient relays messages from the language server to the connected editors.
package ideclient

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/aidl-lsp/aidl-client/src/aidlc/mapper"
	"github.com/gofrs/uuid"
	tally "github.com/uber-go/tally/v4"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides the IDE client gateway.
var Module = fx.Provide(New)

// Gateway keeps track of connected editors and relays server initiated traffic to them.
type Gateway interface {
	// RegisterClient adds an editor connection. Server requests go to the earliest registered editor.
	RegisterClient(id uuid.UUID, conn jsonrpc2.Conn)
	// DeregisterClient removes an editor connection.
	DeregisterClient(id uuid.UUID)
	// HandleServerMessage is the jsonrpc2.Handler for messages sent by the language server.
	HandleServerMessage(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error
}

// Params define the dependencies of the gateway.
type Params struct {
	fx.In

	Logger *zap.SugaredLogger
	Stats  tally.Scope
}

type editorConn struct {
	id   uuid.UUID
	conn jsonrpc2.Conn
}

type gateway struct {
	logger *zap.SugaredLogger
	stats  tally.Scope

	mu      sync.Mutex
	editors []editorConn
}

// New creates a new IDE client gateway.
func New(p Params) Gateway {
	return &gateway{
		logger: p.Logger.With("component", "ide-client"),
		stats:  p.Stats.SubScope("ide_client"),
	}
}

func (g *gateway) RegisterClient(id uuid.UUID, conn jsonrpc2.Conn) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.editors = append(g.editors, editorConn{id: id, conn: conn})
	g.stats.Gauge("editors").Update(float64(len(g.editors)))
}

func (g *gateway) DeregisterClient(id uuid.UUID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i, e := range g.editors {
		if e.id == id {
			g.editors = append(g.editors[:i], g.editors[i+1:]...)
			break
		}
	}
	g.stats.Gauge("editors").Update(float64(len(g.editors)))
}

func (g *gateway) HandleServerMessage(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	if req.Method() == protocol.MethodWindowLogMessage {
		g.logServerMessage(req)
	}

	if _, isCall := req.(*jsonrpc2.Call); !isCall {
		g.broadcast(ctx, req)
		return reply(ctx, nil, nil)
	}

	// Forwarded calls wait on an editor, the server's read loop must keep running meanwhile.
	go g.forward(ctx, reply, req)
	return nil
}

func (g *gateway) broadcast(ctx context.Context, req jsonrpc2.Request) {
	g.stats.Tagged(map[string]string{"method": req.Method()}).Counter("notifications").Inc(1)
	for _, e := range g.snapshot() {
		if err := e.conn.Notify(ctx, req.Method(), json.RawMessage(req.Params())); err != nil {
			g.logger.Warnw("relaying notification failed", "method", req.Method(), "editor", e.id, zap.Error(err))
		}
	}
}

func (g *gateway) forward(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) {
	g.stats.Tagged(map[string]string{"method": req.Method()}).Counter("requests").Inc(1)

	editors := g.snapshot()
	if len(editors) == 0 {
		g.logger.Debugw("no editor connected, answering with null", "method", req.Method())
		if err := reply(ctx, nil, nil); err != nil {
			g.logger.Warnw("replying to server failed", "method", req.Method(), zap.Error(err))
		}
		return
	}

	var result json.RawMessage
	err := protocol.Call(ctx, editors[0].conn, req.Method(), json.RawMessage(req.Params()), &result)
	if err != nil {
		g.logger.Warnw("editor request failed", "method", req.Method(), "editor", editors[0].id, zap.Error(err))
	}
	if err := reply(ctx, result, err); err != nil {
		g.logger.Warnw("replying to server failed", "method", req.Method(), zap.Error(err))
	}
}

func (g *gateway) logServerMessage(req jsonrpc2.Request) {
	params, err := mapper.RequestToLogMessageParams(req)
	if err != nil {
		g.logger.Warnw("malformed log message from server", zap.Error(err))
		return
	}
	g.logger.Desugar().Check(mapper.MessageTypeToLevel(params.Type), params.Message).Write(zap.String("source", "aidl-lsp"))
}

func (g *gateway) snapshot() []editorConn {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]editorConn(nil), g.editors...)
}
