package gateway

import (
	ideclient "github.com/aidl-lsp/aidl-client/src/aidlc/gateway/ide-client"
	languageserver "github.com/aidl-lsp/aidl-client/src/aidlc/gateway/language-server"
	statusbar "github.com/aidl-lsp/aidl-client/src/aidlc/gateway/status-bar"
	"go.uber.org/fx"
)

// Module provides the outbound gateways: the language server process, the editors and the status surface.
var Module = fx.Options(
	ideclient.Module,
	languageserver.Module,
	statusbar.Module,
)
