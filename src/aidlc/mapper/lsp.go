// Package mapper converts between wire messages, protocol types and entities.
package mapper

import (
	"encoding/json"
	"fmt"

	"github.com/aidl-lsp/aidl-client/src/aidlc/entity"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/zap/zapcore"
)

// RequestToInitializeParams maps the parameters from a jsonrpc2.Request into protocol.InitializeParams.
func RequestToInitializeParams(req jsonrpc2.Request) (*protocol.InitializeParams, error) {
	params := protocol.InitializeParams{}
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return nil, wrapErrParse(err)
	}
	return &params, nil
}

// RequestToDidOpenTextDocumentParams maps the parameters from a jsonrpc2.Request into protocol.DidOpenTextDocumentParams.
func RequestToDidOpenTextDocumentParams(req jsonrpc2.Request) (*protocol.DidOpenTextDocumentParams, error) {
	params := protocol.DidOpenTextDocumentParams{}
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return nil, wrapErrParse(err)
	}
	return &params, nil
}

// RequestToDidCloseTextDocumentParams maps the parameters from a jsonrpc2.Request into protocol.DidCloseTextDocumentParams.
func RequestToDidCloseTextDocumentParams(req jsonrpc2.Request) (*protocol.DidCloseTextDocumentParams, error) {
	params := protocol.DidCloseTextDocumentParams{}
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return nil, wrapErrParse(err)
	}
	return &params, nil
}

// RequestToTextDocumentURI extracts textDocument.uri from any textDocument/* request.
func RequestToTextDocumentURI(req jsonrpc2.Request) (uri.URI, error) {
	params := struct {
		TextDocument protocol.TextDocumentIdentifier `json:"textDocument"`
	}{}
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return "", wrapErrParse(err)
	}
	if params.TextDocument.URI == "" {
		return "", wrapErrParse(fmt.Errorf("missing textDocument.uri in %s", req.Method()))
	}
	return params.TextDocument.URI, nil
}

// RequestToLogMessageParams maps the parameters from a jsonrpc2.Request into protocol.LogMessageParams.
func RequestToLogMessageParams(req jsonrpc2.Request) (*protocol.LogMessageParams, error) {
	params := protocol.LogMessageParams{}
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return nil, wrapErrParse(err)
	}
	return &params, nil
}

// DidOpenToDocument maps an opened text document to the identity used for scoping.
func DidOpenToDocument(params *protocol.DidOpenTextDocumentParams) entity.Document {
	return entity.Document{
		URI:        params.TextDocument.URI,
		LanguageID: string(params.TextDocument.LanguageID),
	}
}

// MessageTypeToLevel maps an LSP message type to the log level used when writing it to the client log.
func MessageTypeToLevel(t protocol.MessageType) zapcore.Level {
	switch t {
	case protocol.MessageTypeError:
		return zapcore.ErrorLevel
	case protocol.MessageTypeWarning:
		return zapcore.WarnLevel
	case protocol.MessageTypeInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

func wrapErrParse(err error) error {
	return fmt.Errorf("%s: %w", jsonrpc2.ErrParse, err)
}
