package jsonrpcfx_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/aidl-lsp/aidl-client/src/aidlc/factory"
	"github.com/aidl-lsp/aidl-client/src/aidlc/internal/jsonrpcfx"
	"github.com/aidl-lsp/aidl-client/src/aidlc/internal/jsonrpcfx/jsonrpcfxmock"
	"github.com/aidl-lsp/aidl-client/src/aidlc/internal/serverinfofile/serverinfofilemock"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/config"
	"go.uber.org/fx/fxtest"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

const _waitTimeout = 5 * time.Second

func newParams(t *testing.T, cfg map[string]interface{}, infoFile *serverinfofilemock.MockServerInfoFile) jsonrpcfx.Params {
	provider, err := config.NewStaticProvider(cfg)
	require.NoError(t, err)
	return jsonrpcfx.Params{
		Config:         provider,
		Lifecycle:      fxtest.NewLifecycle(t),
		Logger:         zap.NewNop().Sugar(),
		ServerInfoFile: infoFile,
	}
}

func addressConfig(address interface{}) map[string]interface{} {
	return map[string]interface{}{"jsonrpc": map[string]interface{}{"address": address}}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		config      map[string]interface{}
		errorString string
	}{
		{
			name:   "valid configuration",
			config: addressConfig("127.0.0.1:0"),
		},
		{
			name:        "missing address key",
			config:      map[string]interface{}{},
			errorString: "missing field \"jsonrpc.address\" in config",
		},
		{
			name:        "missing address value",
			config:      addressConfig(""),
			errorString: "missing field \"jsonrpc.address\" in config",
		},
		{
			name:        "incorrectly formatted entry",
			config:      addressConfig(map[string]string{"host": "localhost"}),
			errorString: "getting config field \"jsonrpc.address\"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := jsonrpcfx.New(newParams(t, tt.config, nil))
			if tt.errorString != "" {
				assert.ErrorContains(t, err, tt.errorString)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	t.Run("missing required params", func(t *testing.T) {
		_, err := jsonrpcfx.New(jsonrpcfx.Params{})
		assert.Error(t, err)
	})
}

func TestRegisterConnectionManager(t *testing.T) {
	ctrl := gomock.NewController(t)
	m, err := jsonrpcfx.New(newParams(t, addressConfig("127.0.0.1:0"), nil))
	require.NoError(t, err)

	mgr := jsonrpcfxmock.NewMockConnectionManager(ctrl)
	assert.NoError(t, m.RegisterConnectionManager(mgr))
	assert.Error(t, m.RegisterConnectionManager(mgr))
}

func pipeConns(t *testing.T) (server jsonrpc2.Conn, editor jsonrpc2.Conn) {
	a, b := net.Pipe()
	server = jsonrpc2.NewConn(jsonrpc2.NewStream(a))
	editor = jsonrpc2.NewConn(jsonrpc2.NewStream(b))
	t.Cleanup(func() {
		editor.Close()
		server.Close()
	})
	return server, editor
}

func TestServeStream(t *testing.T) {
	ctx := context.Background()

	t.Run("no connection manager registered", func(t *testing.T) {
		m, err := jsonrpcfx.New(newParams(t, addressConfig("127.0.0.1:0"), nil))
		require.NoError(t, err)
		server, _ := pipeConns(t)
		assert.Error(t, m.ServeStream(ctx, server))
	})

	t.Run("failed NewConnection", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		m, err := jsonrpcfx.New(newParams(t, addressConfig("127.0.0.1:0"), nil))
		require.NoError(t, err)

		mgr := jsonrpcfxmock.NewMockConnectionManager(ctrl)
		mgr.EXPECT().NewConnection(gomock.Any(), gomock.Any()).Return(nil, errors.New("sample error"))
		require.NoError(t, m.RegisterConnectionManager(mgr))

		server, _ := pipeConns(t)
		assert.EqualError(t, m.ServeStream(ctx, server), "sample error")
	})

	t.Run("routes requests until the editor disconnects", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		m, err := jsonrpcfx.New(newParams(t, addressConfig("127.0.0.1:0"), nil))
		require.NoError(t, err)

		id := factory.UUID()
		router := jsonrpcfxmock.NewMockRouter(ctrl)
		router.EXPECT().UUID().Return(id).AnyTimes()
		routed := make(chan string, 1)
		router.EXPECT().HandleReq(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
				routed <- req.Method()
				return reply(ctx, nil, nil)
			})

		mgr := jsonrpcfxmock.NewMockConnectionManager(ctrl)
		mgr.EXPECT().NewConnection(gomock.Any(), gomock.Any()).Return(router, nil)
		mgr.EXPECT().RemoveConnection(gomock.Any(), id)
		require.NoError(t, m.RegisterConnectionManager(mgr))

		server, editor := pipeConns(t)
		editor.Go(ctx, jsonrpc2.MethodNotFoundHandler)

		served := make(chan error, 1)
		go func() { served <- m.ServeStream(ctx, server) }()

		require.NoError(t, editor.Notify(ctx, protocol.MethodInitialized, &protocol.InitializedParams{}))
		select {
		case method := <-routed:
			assert.Equal(t, protocol.MethodInitialized, method)
		case <-time.After(_waitTimeout):
			t.Fatal("request was not routed")
		}

		require.NoError(t, editor.Close())
		select {
		case <-served:
		case <-time.After(_waitTimeout):
			t.Fatal("ServeStream did not return after disconnect")
		}
		<-editor.Done()
	})
}

func TestOnStartOnStop(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	infoFile := serverinfofilemock.NewMockServerInfoFile(ctrl)

	var address string
	infoFile.EXPECT().UpdateField("lsp-address", gomock.Any()).DoAndReturn(func(key, value string) error {
		address = value
		return nil
	})

	m, err := jsonrpcfx.New(newParams(t, addressConfig("127.0.0.1:0"), infoFile))
	require.NoError(t, err)

	id := factory.UUID()
	router := jsonrpcfxmock.NewMockRouter(ctrl)
	router.EXPECT().UUID().Return(id).AnyTimes()
	removed := make(chan struct{})
	mgr := jsonrpcfxmock.NewMockConnectionManager(ctrl)
	mgr.EXPECT().NewConnection(gomock.Any(), gomock.Any()).Return(router, nil)
	mgr.EXPECT().RemoveConnection(gomock.Any(), id).Do(func(context.Context, uuid.UUID) { close(removed) })
	require.NoError(t, m.RegisterConnectionManager(mgr))

	require.NoError(t, m.OnStart(ctx))
	require.NotEmpty(t, address)

	nc, err := net.Dial("tcp", address)
	require.NoError(t, err)
	editor := jsonrpc2.NewConn(jsonrpc2.NewStream(nc))
	editor.Go(ctx, jsonrpc2.MethodNotFoundHandler)
	require.NoError(t, editor.Close())
	<-editor.Done()

	select {
	case <-removed:
	case <-time.After(_waitTimeout):
		t.Fatal("connection was not removed")
	}

	assert.NoError(t, m.OnStop(ctx))
	_, err = net.Dial("tcp", address)
	assert.Error(t, err)
}

func TestOnStartErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("unusable address", func(t *testing.T) {
		m, err := jsonrpcfx.New(newParams(t, addressConfig("not-an-address"), nil))
		require.NoError(t, err)
		assert.ErrorContains(t, m.OnStart(ctx), "listening on")
		assert.NoError(t, m.OnStop(ctx))
	})

	t.Run("info file not writable", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		infoFile := serverinfofilemock.NewMockServerInfoFile(ctrl)
		infoFile.EXPECT().UpdateField("lsp-address", gomock.Any()).Return(errors.New("read-only"))

		m, err := jsonrpcfx.New(newParams(t, addressConfig("127.0.0.1:0"), infoFile))
		require.NoError(t, err)
		assert.ErrorContains(t, m.OnStart(ctx), "read-only")
		assert.NoError(t, m.OnStop(ctx))
	})
}
