// Package app assembles the aidl-lsp client into an Fx application.
package app

import (
	"context"
	"time"

	"github.com/aidl-lsp/aidl-client/src/aidlc/gateway"
	"github.com/aidl-lsp/aidl-client/src/aidlc/handler"
	"github.com/aidl-lsp/aidl-client/src/aidlc/internal/core"
	"github.com/aidl-lsp/aidl-client/src/aidlc/internal/executor"
	"github.com/aidl-lsp/aidl-client/src/aidlc/internal/fs"
	"github.com/aidl-lsp/aidl-client/src/aidlc/internal/jsonrpcfx"
	"github.com/aidl-lsp/aidl-client/src/aidlc/internal/serverinfofile"
	tally "github.com/uber-go/tally/v4"
	"go.uber.org/fx"
)

// Module defines the aidl-lsp client application module.
var Module = fx.Options(
	gateway.Module, // outbounds
	handler.Module, // inbounds
	jsonrpcfx.Module,
	fs.Module,
	executor.Module,
	serverinfofile.Module,
	core.ConfigModule,
	core.LoggerModule,
	fx.Provide(func(lc fx.Lifecycle) tally.Scope {
		rs, closer := tally.NewRootScope(tally.ScopeOptions{
			Tags: map[string]string{
				"service": "aidl-lsp-client",
			},
		}, 1*time.Second)

		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return closer.Close()
			},
		})

		return rs
	}),
	fx.Decorate(decorateEnvContext),
	fx.Invoke(logStartup),
	fx.Decorate(decorateConfigProvider),
	fx.Provide(func() Context {
		return Context{
			Environment:        EnvLocal,
			RuntimeEnvironment: EnvLocal,
		}
	}),
)
