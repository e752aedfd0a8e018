package ideclient

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/aidl-lsp/aidl-client/src/aidlc/factory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tally "github.com/uber-go/tally/v4"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const _waitTimeout = 5 * time.Second

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type replyResult struct {
	result interface{}
	err    error
}

func newGateway(t *testing.T) (*gateway, *observer.ObservedLogs, tally.TestScope) {
	core, logs := observer.New(zapcore.DebugLevel)
	scope := tally.NewTestScope("testing", nil)
	g := New(Params{Logger: zap.New(core).Sugar(), Stats: scope})
	return g.(*gateway), logs, scope
}

// connectEditor returns the gateway side of a connection whose editor side is served by handler.
func connectEditor(t *testing.T, handler jsonrpc2.Handler) jsonrpc2.Conn {
	ctx := context.Background()
	a, b := net.Pipe()
	gatewaySide := jsonrpc2.NewConn(jsonrpc2.NewStream(a))
	editorSide := jsonrpc2.NewConn(jsonrpc2.NewStream(b))
	gatewaySide.Go(ctx, jsonrpc2.MethodNotFoundHandler)
	editorSide.Go(ctx, handler)

	t.Cleanup(func() {
		gatewaySide.Close()
		editorSide.Close()
		<-gatewaySide.Done()
		<-editorSide.Done()
	})
	return gatewaySide
}

func recordingHandler(received chan<- jsonrpc2.Request) jsonrpc2.Handler {
	return func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		received <- req
		return reply(ctx, nil, nil)
	}
}

func capturingReplier() (jsonrpc2.Replier, <-chan replyResult) {
	results := make(chan replyResult, 1)
	return func(ctx context.Context, result interface{}, err error) error {
		results <- replyResult{result: result, err: err}
		return nil
	}, results
}

func waitReply(t *testing.T, results <-chan replyResult) replyResult {
	select {
	case r := <-results:
		return r
	case <-time.After(_waitTimeout):
		t.Fatal("no reply sent to server")
		return replyResult{}
	}
}

func TestBroadcastNotification(t *testing.T) {
	ctx := context.Background()
	g, _, scope := newGateway(t)

	first := make(chan jsonrpc2.Request, 1)
	second := make(chan jsonrpc2.Request, 1)
	g.RegisterClient(factory.UUID(), connectEditor(t, recordingHandler(first)))
	g.RegisterClient(factory.UUID(), connectEditor(t, recordingHandler(second)))

	params := protocol.PublishDiagnosticsParams{
		URI: uri.File("/src/IFoo.aidl"),
		Diagnostics: []protocol.Diagnostic{{
			Severity: protocol.DiagnosticSeverityError,
			Message:  "unknown type Bundle",
		}},
	}
	req := factory.JSONRPCNotification(protocol.MethodTextDocumentPublishDiagnostics, params)
	reply, results := capturingReplier()
	require.NoError(t, g.HandleServerMessage(ctx, reply, req))
	assert.NoError(t, waitReply(t, results).err)

	for _, ch := range []chan jsonrpc2.Request{first, second} {
		select {
		case got := <-ch:
			assert.Equal(t, protocol.MethodTextDocumentPublishDiagnostics, got.Method())
			var gotParams protocol.PublishDiagnosticsParams
			require.NoError(t, json.Unmarshal(got.Params(), &gotParams))
			assert.Equal(t, params.URI, gotParams.URI)
			assert.Equal(t, "unknown type Bundle", gotParams.Diagnostics[0].Message)
		case <-time.After(_waitTimeout):
			t.Fatal("notification not relayed")
		}
	}

	counters := scope.Snapshot().Counters()
	assert.Contains(t, counters, "testing.ide_client.notifications+method=textDocument/publishDiagnostics")
}

func TestLogMessageIsLogged(t *testing.T) {
	ctx := context.Background()
	g, logs, _ := newGateway(t)

	req := factory.JSONRPCNotification(protocol.MethodWindowLogMessage, protocol.LogMessageParams{
		Type:    protocol.MessageTypeWarning,
		Message: "import android.os.Bundle not found",
	})
	reply, results := capturingReplier()
	require.NoError(t, g.HandleServerMessage(ctx, reply, req))
	waitReply(t, results)

	entries := logs.FilterMessage("import android.os.Bundle not found").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)

	malformed := factory.JSONRPCNotification(protocol.MethodWindowLogMessage, "oops")
	require.NoError(t, g.HandleServerMessage(ctx, reply, malformed))
	waitReply(t, results)
	assert.Equal(t, 1, logs.FilterMessage("malformed log message from server").Len())
}

func TestForwardRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("no editor connected", func(t *testing.T) {
		g, _, _ := newGateway(t)
		reply, results := capturingReplier()
		req := factory.JSONRPCRequest(protocol.MethodWorkspaceConfiguration, protocol.ConfigurationParams{})
		require.NoError(t, g.HandleServerMessage(ctx, reply, req))

		r := waitReply(t, results)
		assert.NoError(t, r.err)
		assert.Nil(t, r.result)
	})

	t.Run("earliest editor answers", func(t *testing.T) {
		g, _, _ := newGateway(t)

		answered := make(chan string, 2)
		answer := func(name string) jsonrpc2.Handler {
			return func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
				answered <- name
				return reply(ctx, []map[string]string{{"editor": name}}, nil)
			}
		}
		firstID := factory.UUID()
		g.RegisterClient(firstID, connectEditor(t, answer("first")))
		g.RegisterClient(factory.UUID(), connectEditor(t, answer("second")))

		reply, results := capturingReplier()
		req := factory.JSONRPCRequest(protocol.MethodWorkspaceConfiguration, protocol.ConfigurationParams{
			Items: []protocol.ConfigurationItem{{Section: "aidl"}},
		})
		require.NoError(t, g.HandleServerMessage(ctx, reply, req))
		r := waitReply(t, results)
		require.NoError(t, r.err)
		assert.JSONEq(t, `[{"editor":"first"}]`, string(r.result.(json.RawMessage)))
		assert.Equal(t, "first", <-answered)

		g.DeregisterClient(firstID)
		require.NoError(t, g.HandleServerMessage(ctx, reply, req))
		r = waitReply(t, results)
		require.NoError(t, r.err)
		assert.JSONEq(t, `[{"editor":"second"}]`, string(r.result.(json.RawMessage)))
		assert.Equal(t, "second", <-answered)
	})

	t.Run("editor error is relayed", func(t *testing.T) {
		g, _, _ := newGateway(t)
		g.RegisterClient(factory.UUID(), connectEditor(t, func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
			return reply(ctx, nil, errors.New("request rejected"))
		}))

		reply, results := capturingReplier()
		req := factory.JSONRPCRequest(protocol.MethodWindowShowMessageRequest, protocol.ShowMessageRequestParams{
			Message: "Reload workspace?",
			Type:    protocol.MessageTypeInfo,
		})
		require.NoError(t, g.HandleServerMessage(ctx, reply, req))
		r := waitReply(t, results)
		assert.ErrorContains(t, r.err, "request rejected")
	})
}

func TestRegisterDeregister(t *testing.T) {
	g, _, scope := newGateway(t)
	a, b := factory.UUID(), factory.UUID()

	g.RegisterClient(a, nil)
	g.RegisterClient(b, nil)
	assert.Len(t, g.snapshot(), 2)
	assert.Equal(t, float64(2), scope.Snapshot().Gauges()["testing.ide_client.editors+"].Value())

	g.DeregisterClient(a)
	g.DeregisterClient(factory.UUID())
	editors := g.snapshot()
	require.Len(t, editors, 1)
	assert.Equal(t, b, editors[0].id)
	assert.Equal(t, float64(1), scope.Snapshot().Gauges()["testing.ide_client.editors+"].Value())
}
