// Package factory builds values used across the client and its tests.
package factory

import (
	"github.com/aidl-lsp/aidl-client/src/aidlc/entity"
	"github.com/gofrs/uuid"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
)

// UUID is a user-defined factory for a random uuid.UUID.
func UUID() uuid.UUID {
	return uuid.Must(uuid.NewV4())
}

// JSONRPCRequest is a user-defined factory for a JSON-RPC request containing the specified method and parameters.
func JSONRPCRequest(method string, params interface{}) jsonrpc2.Request {
	req, _ := jsonrpc2.NewCall(jsonrpc2.NewNumberID(5), method, params)
	return req
}

// JSONRPCNotification is a user-defined factory for a JSON-RPC notification containing the specified method and parameters.
func JSONRPCNotification(method string, params interface{}) jsonrpc2.Request {
	req, _ := jsonrpc2.NewNotification(method, params)
	return req
}

// DidOpenParams returns the parameters of a didOpen notification for the given path and language.
func DidOpenParams(path string, languageID string) *protocol.DidOpenTextDocumentParams {
	return &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        uri.File(path),
			LanguageID: protocol.LanguageIdentifier(languageID),
			Version:    1,
			Text:       "package com.example;\n\ninterface IFoo {\n    void bar();\n}\n",
		},
	}
}

// Session returns a ready Session for the given executable.
func Session(executable string) *entity.Session {
	opts := entity.NewServerOptions(executable)
	return &entity.Session{
		UUID:     UUID(),
		Options:  opts,
		Profile:  opts.Run,
		Selector: entity.AIDLSelector(),
		InitializeResult: &protocol.InitializeResult{
			Capabilities: protocol.ServerCapabilities{
				TextDocumentSync: protocol.TextDocumentSyncKindFull,
				HoverProvider:    true,
			},
			ServerInfo: &protocol.ServerInfo{Name: "aidl-lsp"},
		},
	}
}
