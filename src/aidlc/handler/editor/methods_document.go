package editor

import (
	"context"
	"encoding/json"

	"github.com/aidl-lsp/aidl-client/src/aidlc/entity"
	languageserver "github.com/aidl-lsp/aidl-client/src/aidlc/gateway/language-server"
	"github.com/aidl-lsp/aidl-client/src/aidlc/mapper"
	"go.lsp.dev/jsonrpc2"
	"go.uber.org/zap"
)

// DidOpen records the opened document and sends it to the language server when it is an AIDL file on disk
// and a session is ready.
func (r *router) DidOpen(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToDidOpenTextDocumentParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	open := openDocument{doc: mapper.DidOpenToDocument(params)}
	session, server, ready := r.sessions.Current()
	selector := entity.AIDLSelector()
	if ready {
		selector = session.Selector
	}

	switch {
	case !selector.Matches(open.doc):
		r.dropped(req.Method(), "out_of_scope")
	case !ready:
		r.dropped(req.Method(), "no_session")
	default:
		if err = server.Notify(ctx, req.Method(), json.RawMessage(req.Params())); err != nil {
			r.logger.Warnw("forwarding didOpen failed", "uri", open.doc.URI, zap.Error(err))
			break
		}
		open.server = server
		r.forwarded(req.Method())
	}

	r.track(open)
	return reply(ctx, nil, err)
}

// DidClose forgets the document and forwards the notification if the language server has it open.
func (r *router) DidClose(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToDidCloseTextDocumentParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	server, ok := r.target(params.TextDocument.URI)
	r.mu.Lock()
	delete(r.docs, params.TextDocument.URI)
	r.mu.Unlock()

	if !ok {
		r.dropped(req.Method(), "out_of_scope")
		return reply(ctx, nil, nil)
	}
	r.forwarded(req.Method())
	return reply(ctx, nil, server.Notify(ctx, req.Method(), json.RawMessage(req.Params())))
}

// NotifyDocument forwards a document notification if the language server has the document open.
func (r *router) NotifyDocument(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	docURI, err := mapper.RequestToTextDocumentURI(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	server, ok := r.target(docURI)
	if !ok {
		r.dropped(req.Method(), "out_of_scope")
		return reply(ctx, nil, nil)
	}
	r.forwarded(req.Method())
	return reply(ctx, nil, server.Notify(ctx, req.Method(), json.RawMessage(req.Params())))
}

// DocumentRequest forwards a document request if the language server has the document open.
// Other documents get a null result.
func (r *router) DocumentRequest(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	docURI, err := mapper.RequestToTextDocumentURI(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	server, ok := r.target(docURI)
	if !ok {
		r.dropped(req.Method(), "out_of_scope")
		return reply(ctx, nil, nil)
	}
	r.goForward(ctx, reply, req, server)
	return nil
}

// WorkspaceSymbol forwards the query to the ready language server.
func (r *router) WorkspaceSymbol(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	_, server, ok := r.sessions.Current()
	if !ok {
		r.dropped(req.Method(), "no_session")
		return reply(ctx, nil, nil)
	}
	r.goForward(ctx, reply, req, server)
	return nil
}

func (r *router) track(open openDocument) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[open.doc.URI] = open
}

// goForward relays a request to the language server without holding up this connection's read loop.
func (r *router) goForward(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request, server languageserver.Server) {
	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()

		callCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		stop := context.AfterFunc(r.ctx, cancel)
		defer stop()

		var result json.RawMessage
		err := server.Call(callCtx, req.Method(), json.RawMessage(req.Params()), &result)
		if err != nil {
			r.logger.Warnw("language server request failed", "method", req.Method(), zap.Error(err))
		}
		r.forwarded(req.Method())
		if err := reply(ctx, result, err); err != nil {
			r.logger.Debugw("replying to editor failed", "method", req.Method(), zap.Error(err))
		}
	}()
}
