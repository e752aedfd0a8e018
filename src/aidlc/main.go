package main

import (
	"github.com/aidl-lsp/aidl-client/src/aidlc/app"
	"go.uber.org/fx"
)

func opts() fx.Option {
	return fx.Options(
		app.Module,
	)
}

func main() {
	fx.New(opts()).Run()
}
