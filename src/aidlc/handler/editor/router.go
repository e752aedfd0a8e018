package editor

import (
	"context"
	"strings"
	"sync"

	sessionmanager "github.com/aidl-lsp/aidl-client/src/aidlc/controller/session-manager"
	"github.com/aidl-lsp/aidl-client/src/aidlc/entity"
	languageserver "github.com/aidl-lsp/aidl-client/src/aidlc/gateway/language-server"
	"github.com/gofrs/uuid"
	tally "github.com/uber-go/tally/v4"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/zap"
)

const _textDocumentPrefix = "textDocument/"

type router struct {
	id       uuid.UUID
	conn     jsonrpc2.Conn
	sessions sessionmanager.Controller
	logger   *zap.SugaredLogger
	stats    tally.Scope

	// ctx is cancelled once the connection is removed.
	ctx      context.Context
	cancel   context.CancelFunc
	inflight sync.WaitGroup

	mu   sync.Mutex
	docs map[uri.URI]openDocument
}

// openDocument is a document opened by the editor. server is the language server that received its
// didOpen, nil when it was kept back.
type openDocument struct {
	doc    entity.Document
	server languageserver.Server
}

func newRouter(id uuid.UUID, conn jsonrpc2.Conn, sessions sessionmanager.Controller, logger *zap.SugaredLogger, stats tally.Scope) *router {
	ctx, cancel := context.WithCancel(context.Background())
	return &router{
		id:       id,
		conn:     conn,
		sessions: sessions,
		logger:   logger,
		stats:    stats,
		ctx:      ctx,
		cancel:   cancel,
		docs:     make(map[uri.URI]openDocument),
	}
}

// HandleReq handles routing for a single request.
func (r *router) HandleReq(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	ctx = context.WithValue(ctx, entity.EditorContextKey, r.id)

	switch req.Method() {
	// Lifecycle related methods.
	case protocol.MethodInitialize:
		return r.Initialize(ctx, reply, req)

	case protocol.MethodInitialized:
		return reply(ctx, nil, nil)

	case protocol.MethodShutdown:
		return r.Shutdown(ctx, reply, req)

	case protocol.MethodExit:
		return r.Exit(ctx, reply, req)

	// Document related methods.
	case protocol.MethodTextDocumentDidOpen:
		return r.DidOpen(ctx, reply, req)

	case protocol.MethodTextDocumentDidClose:
		return r.DidClose(ctx, reply, req)

	case protocol.MethodTextDocumentDidChange,
		protocol.MethodTextDocumentDidSave,
		protocol.MethodTextDocumentWillSave:
		return r.NotifyDocument(ctx, reply, req)

	// Workspace methods
	case protocol.MethodWorkspaceSymbol:
		return r.WorkspaceSymbol(ctx, reply, req)
	}

	if strings.HasPrefix(req.Method(), _textDocumentPrefix) {
		if _, isCall := req.(*jsonrpc2.Call); isCall {
			return r.DocumentRequest(ctx, reply, req)
		}
		return r.NotifyDocument(ctx, reply, req)
	}
	return jsonrpc2.MethodNotFoundHandler(ctx, reply, req)
}

func (r *router) UUID() uuid.UUID {
	return r.id
}

// target returns the ready language server that has the document open.
func (r *router) target(docURI uri.URI) (languageserver.Server, bool) {
	_, server, ok := r.sessions.Current()
	if !ok {
		return nil, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	open, ok := r.docs[docURI]
	if !ok || open.server == nil || open.server != server {
		return nil, false
	}
	return server, true
}

func (r *router) forwarded(method string) {
	r.stats.Tagged(map[string]string{"method": method}).Counter("forwarded").Inc(1)
}

func (r *router) dropped(method string, reason string) {
	r.logger.Debugw("not forwarding to language server", "method", method, "reason", reason)
	r.stats.Tagged(map[string]string{"method": method, "reason": reason}).Counter("dropped").Inc(1)
}

func (r *router) close() {
	r.cancel()
	r.inflight.Wait()
}
