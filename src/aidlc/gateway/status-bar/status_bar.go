// Package statusbar renders the readiness indicator of the language server session.
package statusbar

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/aidl-lsp/aidl-client/src/aidlc/entity"
	"github.com/aidl-lsp/aidl-client/src/aidlc/internal/serverinfofile"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_configKeyStatus = "client.status"
	_outputKey       = "status"
)

// Module provides the status bar gateway.
var Module = fx.Provide(New)

// StatusBar owns the single status indicator. Editors render it from the "status" field of the server info file.
type StatusBar interface {
	// Show populates the indicator from configuration and makes it visible.
	Show() error
	// Dispose hides and discards the indicator. Disposing a hidden indicator does nothing.
	Dispose() error
	// Current returns a copy of the indicator.
	Current() entity.StatusIndicator
}

// Params define the dependencies of the status bar.
type Params struct {
	fx.In

	Config         config.Provider
	Logger         *zap.SugaredLogger
	ServerInfoFile serverinfofile.ServerInfoFile
}

type statusBar struct {
	logger         *zap.SugaredLogger
	serverInfoFile serverinfofile.ServerInfoFile
	template       entity.StatusIndicator

	mu        sync.Mutex
	indicator entity.StatusIndicator
}

// New creates the status bar with the indicator contents read from configuration.
func New(p Params) (StatusBar, error) {
	template := entity.StatusIndicator{
		Text:    "aidl-lsp",
		Tooltip: "ready",
		Command: "aidl-lsp.analyzerStatus",
	}
	if err := p.Config.Get(_configKeyStatus).Populate(&template); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _configKeyStatus, err)
	}
	template.Alignment = entity.AlignmentLeft
	template.Visible = false

	return &statusBar{
		logger:         p.Logger,
		serverInfoFile: p.ServerInfoFile,
		template:       template,
	}, nil
}

func (s *statusBar) Show() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	indicator := s.template
	indicator.Visible = true
	if err := s.render(indicator); err != nil {
		return err
	}
	s.indicator = indicator
	s.logger.Infow("status indicator shown", "text", indicator.Text, "tooltip", indicator.Tooltip, "command", indicator.Command)
	return nil
}

func (s *statusBar) Dispose() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.indicator.Visible {
		return nil
	}

	s.indicator = entity.StatusIndicator{}
	if err := s.render(s.indicator); err != nil {
		return err
	}
	s.logger.Infow("status indicator disposed")
	return nil
}

func (s *statusBar) Current() entity.StatusIndicator {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indicator
}

func (s *statusBar) render(indicator entity.StatusIndicator) error {
	value := ""
	if indicator.Visible {
		b, err := json.Marshal(indicator)
		if err != nil {
			return fmt.Errorf("marshalling status indicator: %w", err)
		}
		value = string(b)
	}

	if err := s.serverInfoFile.UpdateField(_outputKey, value); err != nil {
		return fmt.Errorf("rendering status indicator: %w", err)
	}
	return nil
}
