package editor

import (
	"context"
	"net"

	"github.com/aidl-lsp/aidl-client/src/aidlc/internal/errors"
	"github.com/aidl-lsp/aidl-client/src/aidlc/mapper"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"
)

const _serverName = "aidl-lsp"

// Initialize answers with the capabilities of the ready language server session.
// Editors connecting before the session is ready get no capabilities.
func (r *router) Initialize(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToInitializeParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	id, err := mapper.ContextToEditorUUID(ctx)
	if err != nil {
		return reply(ctx, nil, err)
	}

	result := &protocol.InitializeResult{
		ServerInfo: &protocol.ServerInfo{Name: _serverName},
	}
	session, _, ok := r.sessions.Current()
	if ok {
		result.Capabilities = session.Capabilities()
		if session.InitializeResult != nil && session.InitializeResult.ServerInfo != nil {
			result.ServerInfo = session.InitializeResult.ServerInfo
		}
	} else {
		r.logger.Warnw("editor initialized without a ready session", "state", r.sessions.State().String())
	}

	var client string
	if params.ClientInfo != nil {
		client = params.ClientInfo.Name
	}
	r.logger.Infow("editor initialized", "editor", id, "client", client, "ready", ok)
	return reply(ctx, result, nil)
}

// Shutdown ends this editor's use of the client. The language server session belongs to the host
// lifecycle and keeps running.
func (r *router) Shutdown(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	r.logger.Infow("editor shutting down")
	return reply(ctx, nil, nil)
}

// Exit closes this editor's connection.
func (r *router) Exit(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	// Reply first so the notification is handled before the stream goes away.
	if err := reply(ctx, nil, nil); err != nil {
		r.logger.Debugw("replying to exit", zap.Error(err))
	}
	if err := r.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		r.logger.Warnw("closing editor connection", zap.Error(err))
	}
	return nil
}
