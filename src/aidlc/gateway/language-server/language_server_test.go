package languageserver

import (
	"context"
	"errors"
	iofs "io/fs"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/aidl-lsp/aidl-client/src/aidlc/entity"
	ideclient "github.com/aidl-lsp/aidl-client/src/aidlc/gateway/ide-client"
	aidlerrors "github.com/aidl-lsp/aidl-client/src/aidlc/internal/errors"
	"github.com/aidl-lsp/aidl-client/src/aidlc/internal/executor"
	"github.com/aidl-lsp/aidl-client/src/aidlc/internal/fs"
	"github.com/aidl-lsp/aidl-client/src/aidlc/internal/serverinfofile/serverinfofilemock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tally "github.com/uber-go/tally/v4"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/config"
	"go.uber.org/fx/fxtest"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const _envFakeServer = "AIDL_LSP_FAKE_SERVER"

const (
	_modeOK         = "ok"
	_modeHang       = "hang"
	_modeCrash      = "crash"
	_modeIgnoreExit = "ignore-exit"
)

func TestMain(m *testing.M) {
	// The test binary doubles as a fake language server when launched by the tests below.
	if mode := os.Getenv(_envFakeServer); mode != "" {
		runFakeServer(mode)
		os.Exit(0)
	}
	goleak.VerifyTestMain(m)
}

func runFakeServer(mode string) {
	os.Stderr.WriteString("fake aidl-lsp starting\n")

	ctx := context.Background()
	conn := jsonrpc2.NewConn(jsonrpc2.NewStream(&stdio{ReadCloser: os.Stdin, WriteCloser: os.Stdout}))
	shutdown := false
	conn.Go(ctx, func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		switch req.Method() {
		case protocol.MethodInitialize:
			switch mode {
			case _modeHang:
				return nil
			case _modeCrash:
				os.Exit(3)
			}
			_ = conn.Notify(ctx, protocol.MethodWindowLogMessage, &protocol.LogMessageParams{
				Type:    protocol.MessageTypeInfo,
				Message: "fake aidl-lsp initializing",
			})
			return reply(ctx, &protocol.InitializeResult{
				Capabilities: protocol.ServerCapabilities{HoverProvider: true},
				ServerInfo:   &protocol.ServerInfo{Name: "fake-aidl-lsp"},
			}, nil)

		case protocol.MethodTextDocumentHover:
			return reply(ctx, &protocol.Hover{
				Contents: protocol.MarkupContent{Kind: protocol.Markdown, Value: "interface IFoo"},
			}, nil)

		case protocol.MethodShutdown:
			shutdown = true
			return reply(ctx, nil, nil)

		case protocol.MethodExit:
			if mode == _modeIgnoreExit {
				return nil
			}
			if shutdown {
				os.Exit(0)
			}
			os.Exit(1)
		}
		return jsonrpc2.MethodNotFoundHandler(ctx, reply, req)
	})
	<-conn.Done()
}

type testEnv struct {
	launcher Launcher
	logs     *observer.ObservedLogs
	exe      string
}

func newTestEnv(t *testing.T, opts ...executor.Option) testEnv {
	ctrl := gomock.NewController(t)
	infoFile := serverinfofilemock.NewMockServerInfoFile(ctrl)
	infoFile.EXPECT().UpdateField("output:aidl-lsp", gomock.Any()).Return(nil)

	provider, err := config.NewStaticProvider(map[string]interface{}{
		"client": map[string]interface{}{"workspaceRoot": t.TempDir()},
	})
	require.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core).Sugar()
	lc := fxtest.NewLifecycle(t)

	l, err := New(Params{
		Config:         provider,
		Executor:       executor.NewExecutor(append([]executor.Option{executor.WithLogger(logger)}, opts...)...),
		FS:             fs.New(),
		Gateway:        ideclient.New(ideclient.Params{Logger: logger, Stats: tally.NoopScope}),
		Lifecycle:      lc,
		Logger:         logger,
		ServerInfoFile: infoFile,
	})
	require.NoError(t, err)
	lc.RequireStart()
	t.Cleanup(func() { lc.RequireStop() })

	exe, err := os.Executable()
	require.NoError(t, err)
	return testEnv{launcher: l, logs: logs, exe: exe}
}

func (e testEnv) launch(t *testing.T, mode string) Server {
	t.Setenv(_envFakeServer, mode)
	s, err := e.launcher.Launch(context.Background(), entity.NewServerOptions(e.exe).Run)
	require.NoError(t, err)
	return s
}

func initializeParams() *protocol.InitializeParams {
	return &protocol.InitializeParams{
		ProcessID:  int32(os.Getpid()),
		RootURI:    uri.File("/work/android"),
		ClientInfo: &protocol.ClientInfo{Name: "aidl-lsp"},
	}
}

func stopCtx(t *testing.T, d time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	t.Cleanup(cancel)
	return ctx
}

func TestNewConfigErrors(t *testing.T) {
	provider, err := config.NewStaticProvider(map[string]interface{}{
		"client": map[string]interface{}{"workspaceRoot": []string{"a", "b"}},
	})
	require.NoError(t, err)

	_, err = New(Params{Config: provider, Logger: zap.NewNop().Sugar()})
	assert.ErrorContains(t, err, "client.workspaceRoot")
}

func TestLaunchMissingExecutable(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.launcher.Launch(context.Background(), entity.NewServerOptions("/nonexistent/bin/aidl-lsp-x86_64-unknown-linux-gnu").Run)
	require.Error(t, err)
	assert.True(t, aidlerrors.IsLaunchFailure(err))
	assert.True(t, errors.Is(err, iofs.ErrNotExist))
}

func TestLaunchStartFailure(t *testing.T) {
	env := newTestEnv(t, executor.WithStartFunc(func(cmd *exec.Cmd) error {
		return os.ErrPermission
	}))

	_, err := env.launcher.Launch(context.Background(), entity.NewServerOptions(env.exe).Run)
	assert.True(t, aidlerrors.IsLaunchFailure(err))
	assert.True(t, errors.Is(err, os.ErrPermission))
}

func TestLaunchNotStarted(t *testing.T) {
	env := newTestEnv(t, executor.WithStartFunc(nil))

	_, err := env.launcher.Launch(context.Background(), entity.NewServerOptions(env.exe).Debug)
	assert.True(t, aidlerrors.IsLaunchFailure(err))
}

func TestServerLifecycle(t *testing.T) {
	env := newTestEnv(t)
	s := env.launch(t, _modeOK)

	result, err := s.Initialize(stopCtx(t, 10*time.Second), initializeParams())
	require.NoError(t, err)
	assert.Equal(t, true, result.Capabilities.HoverProvider)
	assert.Equal(t, "fake-aidl-lsp", result.ServerInfo.Name)

	var hover protocol.Hover
	require.NoError(t, s.Call(context.Background(), protocol.MethodTextDocumentHover, &protocol.HoverParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri.File("/work/android/IFoo.aidl")},
		},
	}, &hover))
	assert.Equal(t, "interface IFoo", hover.Contents.Value)

	require.NoError(t, s.Notify(context.Background(), protocol.MethodTextDocumentDidSave, &protocol.DidSaveTextDocumentParams{}))

	require.NoError(t, s.Stop(stopCtx(t, 10*time.Second)))
	select {
	case <-s.Done():
	default:
		t.Fatal("process still running after Stop")
	}
	assert.NoError(t, s.Stop(context.Background()))

	assert.Equal(t, 1, env.logs.FilterMessage("fake aidl-lsp initializing").Len())
	assert.Equal(t, 1, env.logs.FilterMessage("language server started").Len())
	assert.Equal(t, 1, env.logs.FilterMessage("Exec").Len())
}

func TestInitializeTimeout(t *testing.T) {
	env := newTestEnv(t)
	s := env.launch(t, _modeHang)

	_, err := s.Initialize(stopCtx(t, 200*time.Millisecond), initializeParams())
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	require.NoError(t, s.Stop(stopCtx(t, 10*time.Second)))
	<-s.Done()
}

func TestServerCrashDuringInitialize(t *testing.T) {
	env := newTestEnv(t)
	s := env.launch(t, _modeCrash)

	_, err := s.Initialize(stopCtx(t, 10*time.Second), initializeParams())
	assert.ErrorContains(t, err, "language server exited")
	<-s.Done()

	assert.NoError(t, s.Stop(stopCtx(t, time.Second)))
}

func TestStopKillsUnresponsiveServer(t *testing.T) {
	env := newTestEnv(t)
	s := env.launch(t, _modeIgnoreExit)

	_, err := s.Initialize(stopCtx(t, 10*time.Second), initializeParams())
	require.NoError(t, err)

	assert.NoError(t, s.Stop(stopCtx(t, 300*time.Millisecond)))
	<-s.Done()
	assert.Equal(t, 1, env.logs.FilterMessage("language server did not exit, killing it").Len())
}
