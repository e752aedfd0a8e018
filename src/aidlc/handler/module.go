package handler

import (
	controller "github.com/aidl-lsp/aidl-client/src/aidlc/controller"
	sessionmanager "github.com/aidl-lsp/aidl-client/src/aidlc/controller/session-manager"
	"github.com/aidl-lsp/aidl-client/src/aidlc/handler/editor"
	"go.uber.org/fx"
)

// Module provides the editor inbound and the session it serves into an Fx application.
var Module = fx.Options(
	controller.Module,
	fx.Provide(editor.New),
	fx.Invoke(func(h editor.Handler) {}),
	fx.Invoke(func(c sessionmanager.Controller) {}),
)
