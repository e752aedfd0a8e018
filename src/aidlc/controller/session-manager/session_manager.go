// Package sessionmanager owns the lifecycle of the aidl-lsp process and its LSP session.
package sessionmanager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aidl-lsp/aidl-client/src/aidlc/entity"
	"github.com/aidl-lsp/aidl-client/src/aidlc/factory"
	languageserver "github.com/aidl-lsp/aidl-client/src/aidlc/gateway/language-server"
	statusbar "github.com/aidl-lsp/aidl-client/src/aidlc/gateway/status-bar"
	"github.com/aidl-lsp/aidl-client/src/aidlc/internal/errors"
	"github.com/aidl-lsp/aidl-client/src/aidlc/internal/platform"
	"github.com/aidl-lsp/aidl-client/src/aidlc/internal/serverinfofile"
	tally "github.com/uber-go/tally/v4"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	_configKeyClient = "client"
	_clientName      = "aidl-lsp"
	_outputKeyServer = "server-path"

	_defaultHandshakeTimeout = 10 * time.Second
	_defaultStopTimeout      = 5 * time.Second
)

// Controller activates and deactivates the single language server session.
type Controller interface {
	// Activate resolves the server executable under installRoot for key, launches it and blocks until the
	// session is ready. Unsupported platforms are skipped with a diagnostic and no error.
	// Activating while a session is starting, ready or stopping does nothing.
	Activate(ctx context.Context, installRoot string, key platform.Key) error
	// Deactivate stops the session. It returns nil when there is nothing to stop, otherwise a channel
	// that receives the shutdown result once the process is gone.
	Deactivate(ctx context.Context) <-chan error
	// State returns the current lifecycle state.
	State() entity.State
	// Current returns the session and its server while the session is ready.
	Current() (*entity.Session, languageserver.Server, bool)
}

// Config is read from the "client" configuration key.
type Config struct {
	InstallRoot      string        `yaml:"installRoot"`
	WorkspaceRoot    string        `yaml:"workspaceRoot"`
	Platform         string        `yaml:"platform"`
	Arch             string        `yaml:"arch"`
	Debug            bool          `yaml:"debug"`
	HandshakeTimeout time.Duration `yaml:"handshakeTimeout"`
	StopTimeout      time.Duration `yaml:"stopTimeout"`
}

// Params are inbound parameters to initialize a new controller.
type Params struct {
	fx.In

	Config         config.Provider
	Launcher       languageserver.Launcher
	StatusBar      statusbar.StatusBar
	ServerInfoFile serverinfofile.ServerInfoFile
	Lifecycle      fx.Lifecycle
	Logger         *zap.SugaredLogger
	Stats          tally.Scope
}

type controller struct {
	cfg            Config
	launcher       languageserver.Launcher
	statusBar      statusbar.StatusBar
	serverInfoFile serverinfofile.ServerInfoFile
	logger         *zap.SugaredLogger
	stats          tally.Scope

	mu          sync.Mutex
	state       entity.State
	session     *entity.Session
	server      languageserver.Server
	pendingStop *stopOp
	stopped     chan struct{}
}

// New creates the Session Manager. Activation runs when the application starts and deactivation when it stops.
func New(p Params) (Controller, error) {
	c := &controller{
		launcher:       p.Launcher,
		statusBar:      p.StatusBar,
		serverInfoFile: p.ServerInfoFile,
		logger:         p.Logger.With("component", "session-manager"),
		stats:          p.Stats.SubScope("session"),
	}

	if err := p.Config.Get(_configKeyClient).Populate(&c.cfg); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _configKeyClient, err)
	}
	if c.cfg.HandshakeTimeout <= 0 {
		c.cfg.HandshakeTimeout = _defaultHandshakeTimeout
	}
	if c.cfg.StopTimeout <= 0 {
		c.cfg.StopTimeout = _defaultStopTimeout
	}
	c.setState(entity.StateIdle)

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return c.Activate(ctx, c.cfg.InstallRoot, c.hostKey())
		},
		OnStop: func(ctx context.Context) error {
			done := c.Deactivate(ctx)
			if done == nil {
				return nil
			}
			select {
			case err := <-done:
				return err
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})

	return c, nil
}

func (c *controller) Activate(ctx context.Context, installRoot string, key platform.Key) error {
	c.mu.Lock()
	if c.state != entity.StateIdle && c.state != entity.StateFailed {
		state := c.state
		c.mu.Unlock()
		c.logger.Debugw("activate ignored", "state", state.String())
		return nil
	}

	binary, err := platform.Resolve(key)
	if err != nil {
		c.mu.Unlock()
		if !errors.IsUnsupportedPlatform(err) {
			return err
		}
		c.logger.Warnw("activation skipped", "os", key.OS, "arch", key.Arch, zap.Error(err))
		c.stats.Counter("activate.unsupported").Inc(1)
		return nil
	}

	executable, err := filepath.Abs(platform.ExecutablePath(installRoot, binary))
	if err != nil {
		c.mu.Unlock()
		return &errors.LaunchError{Path: platform.ExecutablePath(installRoot, binary), Err: err}
	}

	options := entity.NewServerOptions(executable)
	session := &entity.Session{
		UUID:     factory.UUID(),
		Options:  options,
		Profile:  options.Profile(c.cfg.Debug),
		Selector: entity.AIDLSelector(),
	}
	c.pendingStop = nil
	c.setState(entity.StateStarting)
	c.mu.Unlock()

	c.logger.Infow("activating", "session", session.UUID, "path", executable, "mode", string(session.Profile.Mode))
	c.stats.Counter("activate").Inc(1)
	if err := c.serverInfoFile.UpdateField(_outputKeyServer, executable); err != nil {
		c.logger.Warnw("recording server path", zap.Error(err))
	}

	started := time.Now()
	server, err := c.launcher.Launch(ctx, session.Profile)
	if err != nil {
		c.stats.Counter("activate.launch_failure").Inc(1)
		return c.failActivation(err, nil)
	}

	handshakeCtx, cancel := context.WithTimeout(ctx, c.cfg.HandshakeTimeout)
	result, err := server.Initialize(handshakeCtx, c.initializeParams())
	cancel()
	if err != nil {
		c.stats.Counter("activate.handshake_failure").Inc(1)
		stopErr := c.stopServer(ctx, server)
		return c.failActivation(&errors.HandshakeError{Err: err}, stopErr)
	}
	c.stats.Timer("handshake.latency").Record(time.Since(started))
	session.InitializeResult = result

	c.mu.Lock()
	if op := c.pendingStop; op != nil {
		// Deactivated while starting, stop right away and never show the indicator.
		c.setState(entity.StateStopping)
		c.mu.Unlock()

		c.logger.Infow("deactivated during activation, stopping", "session", session.UUID)
		stopErr := c.stopServer(ctx, server)
		c.mu.Lock()
		c.reset(entity.StateIdle)
		c.mu.Unlock()
		op.finish(stopErr)
		return nil
	}

	if err := c.statusBar.Show(); err != nil {
		c.logger.Warnw("showing status indicator", zap.Error(err))
	}
	c.session = session
	c.server = server
	c.stopped = make(chan struct{})
	c.setState(entity.StateReady)
	go c.watch(server, c.stopped)
	c.mu.Unlock()

	c.logger.Infow("session ready", "session", session.UUID, "server", serverName(result))
	return nil
}

func (c *controller) Deactivate(ctx context.Context) <-chan error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case entity.StateIdle, entity.StateFailed:
		c.setState(entity.StateIdle)
		return nil
	case entity.StateStarting:
		if c.pendingStop == nil {
			c.logger.Infow("deactivate requested while starting")
			c.pendingStop = newStopOp()
		}
		return c.pendingStop.wait()
	case entity.StateStopping:
		return c.pendingStop.wait()
	}

	op := newStopOp()
	c.pendingStop = op
	c.setState(entity.StateStopping)
	close(c.stopped)
	if err := c.statusBar.Dispose(); err != nil {
		c.logger.Warnw("disposing status indicator", zap.Error(err))
	}

	server, session := c.server, c.session
	// The host may cancel ctx once it has the channel, the stop deadline comes from configuration.
	stopCtx := context.WithoutCancel(ctx)
	go func() {
		err := c.stopServer(stopCtx, server)
		c.mu.Lock()
		c.reset(entity.StateIdle)
		c.mu.Unlock()
		c.logger.Infow("session stopped", "session", session.UUID, zap.Error(err))
		op.finish(err)
	}()

	return op.wait()
}

func (c *controller) State() entity.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *controller) Current() (*entity.Session, languageserver.Server, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != entity.StateReady {
		return nil, nil, false
	}
	return c.session, c.server, true
}

// failActivation records a failed activation. A deactivate that arrived meanwhile is completed and the
// manager returns to Idle, otherwise it is left Failed.
func (c *controller) failActivation(err error, stopErr error) error {
	c.mu.Lock()
	op := c.pendingStop
	if op != nil {
		c.reset(entity.StateIdle)
	} else {
		c.reset(entity.StateFailed)
	}
	c.mu.Unlock()

	c.logger.Errorw("activation failed", zap.Error(err), "stopError", stopErr)
	if op != nil {
		op.finish(stopErr)
	}
	return multierr.Append(err, stopErr)
}

// watch marks the session failed when the process exits on its own.
func (c *controller) watch(server languageserver.Server, stopped <-chan struct{}) {
	select {
	case <-stopped:
		return
	case <-server.Done():
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.server != server || c.state != entity.StateReady {
		return
	}
	c.logger.Errorw("language server exited unexpectedly", "session", c.session.UUID)
	c.stats.Counter("crashed").Inc(1)
	if err := c.statusBar.Dispose(); err != nil {
		c.logger.Warnw("disposing status indicator", zap.Error(err))
	}
	close(c.stopped)
	c.reset(entity.StateFailed)
}

func (c *controller) stopServer(ctx context.Context, server languageserver.Server) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.StopTimeout)
	defer cancel()
	c.stats.Counter("deactivate").Inc(1)
	return server.Stop(ctx)
}

// reset drops the session and moves to state. Callers hold mu.
func (c *controller) reset(state entity.State) {
	c.session = nil
	c.server = nil
	c.pendingStop = nil
	c.stopped = nil
	c.setState(state)
}

// setState callers hold mu, except New.
func (c *controller) setState(state entity.State) {
	if c.state != state {
		c.logger.Debugw("state changed", "from", c.state.String(), "to", state.String())
	}
	c.state = state
	c.stats.Gauge("state").Update(float64(state))
}

func (c *controller) hostKey() platform.Key {
	key := platform.Host()
	if c.cfg.Platform != "" {
		key.OS = c.cfg.Platform
	}
	if c.cfg.Arch != "" {
		key.Arch = c.cfg.Arch
	}
	return key
}

func (c *controller) initializeParams() *protocol.InitializeParams {
	params := &protocol.InitializeParams{
		ProcessID:  int32(os.Getpid()),
		ClientInfo: &protocol.ClientInfo{Name: _clientName},
	}
	if root, err := filepath.Abs(c.cfg.WorkspaceRoot); err == nil {
		params.RootURI = uri.File(root)
	}
	return params
}

func serverName(result *protocol.InitializeResult) string {
	if result == nil || result.ServerInfo == nil {
		return ""
	}
	return result.ServerInfo.Name
}

// stopOp is a pending stop shared by every Deactivate call made before it completes.
type stopOp struct {
	done chan struct{}
	err  error
}

func newStopOp() *stopOp {
	return &stopOp{done: make(chan struct{})}
}

func (o *stopOp) finish(err error) {
	o.err = err
	close(o.done)
}

func (o *stopOp) wait() <-chan error {
	ch := make(chan error, 1)
	go func() {
		<-o.done
		ch <- o.err
		close(ch)
	}()
	return ch
}
