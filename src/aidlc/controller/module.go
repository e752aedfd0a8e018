package controller

import (
	sessionmanager "github.com/aidl-lsp/aidl-client/src/aidlc/controller/session-manager"
	"go.uber.org/fx"
)

// Module provides the controllers into an Fx application.
var Module = fx.Options(
	fx.Provide(sessionmanager.New),
)
