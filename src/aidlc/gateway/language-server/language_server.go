// Package languageserver launches the aidl-lsp executable and speaks LSP with it over stdio.
package languageserver

import (
	"context"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/aidl-lsp/aidl-client/src/aidlc/entity"
	ideclient "github.com/aidl-lsp/aidl-client/src/aidlc/gateway/ide-client"
	"github.com/aidl-lsp/aidl-client/src/aidlc/internal/errors"
	"github.com/aidl-lsp/aidl-client/src/aidlc/internal/executor"
	"github.com/aidl-lsp/aidl-client/src/aidlc/internal/fs"
	"github.com/aidl-lsp/aidl-client/src/aidlc/internal/logfilewriter"
	"github.com/aidl-lsp/aidl-client/src/aidlc/internal/serverinfofile"
	"github.com/aidl-lsp/aidl-client/src/aidlc/mapper"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	_configKeyWorkspaceRoot = "client.workspaceRoot"
	_outputName             = "aidl-lsp"
)

// Module provides the language server Launcher.
var Module = fx.Provide(New)

// Launcher starts language server processes.
type Launcher interface {
	// Launch starts the executable of the profile and connects to its stdio.
	// The process is not bound to ctx, it runs until Server.Stop.
	Launch(ctx context.Context, profile entity.LaunchProfile) (Server, error)
}

// Server is a running language server process and its LSP connection.
type Server interface {
	// Initialize performs the initialize request and sends the initialized notification.
	Initialize(ctx context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error)
	// Call sends a request and decodes the response into result.
	Call(ctx context.Context, method string, params, result interface{}) error
	// Notify sends a notification.
	Notify(ctx context.Context, method string, params interface{}) error
	// Stop sends shutdown and exit and waits for the process. The process is killed when ctx expires first.
	Stop(ctx context.Context) error
	// Done is closed once the process has exited.
	Done() <-chan struct{}
}

// Params define the dependencies of the Launcher.
type Params struct {
	fx.In

	Config         config.Provider
	Executor       executor.Executor
	FS             fs.FS
	Gateway        ideclient.Gateway
	Lifecycle      fx.Lifecycle
	Logger         *zap.SugaredLogger
	ServerInfoFile serverinfofile.ServerInfoFile
}

type launcher struct {
	executor      executor.Executor
	fs            fs.FS
	gateway       ideclient.Gateway
	logger        *zap.SugaredLogger
	stderr        io.Writer
	workspaceRoot string
}

// New creates a Launcher. Server stderr is written to a log file listed in the server info file.
func New(p Params) (Launcher, error) {
	l := &launcher{
		executor: p.Executor,
		fs:       p.FS,
		gateway:  p.Gateway,
		logger:   p.Logger,
	}

	if err := p.Config.Get(_configKeyWorkspaceRoot).Populate(&l.workspaceRoot); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _configKeyWorkspaceRoot, err)
	}
	if l.workspaceRoot != "" {
		root, err := filepath.Abs(l.workspaceRoot)
		if err != nil {
			return nil, fmt.Errorf("resolving workspace root: %w", err)
		}
		l.workspaceRoot = root
	}

	stderr, err := logfilewriter.SetupOutputWriter(logfilewriter.Params{
		FS:             p.FS,
		Lifecycle:      p.Lifecycle,
		ServerInfoFile: p.ServerInfoFile,
	}, _outputName)
	if err != nil {
		return nil, fmt.Errorf("setting up server output: %w", err)
	}
	l.stderr = stderr

	return l, nil
}

func (l *launcher) Launch(ctx context.Context, profile entity.LaunchProfile) (Server, error) {
	exists, err := l.fs.FileExists(profile.Command)
	if err != nil {
		return nil, &errors.LaunchError{Path: profile.Command, Err: err}
	}
	if !exists {
		return nil, &errors.LaunchError{Path: profile.Command, Err: iofs.ErrNotExist}
	}

	cmd := mapper.LaunchProfileToCmd(profile, l.workspaceRoot)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &errors.LaunchError{Path: profile.Command, Err: err}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &errors.LaunchError{Path: profile.Command, Err: multierr.Append(err, stdin.Close())}
	}
	cmd.Stderr = l.stderr

	if err := l.executor.Start(cmd, os.Environ()); err != nil {
		return nil, &errors.LaunchError{Path: profile.Command, Err: multierr.Combine(err, stdin.Close(), stdout.Close())}
	}
	if cmd.Process == nil {
		return nil, &errors.LaunchError{Path: profile.Command, Err: multierr.Combine(errors.New("process was not started"), stdin.Close(), stdout.Close())}
	}

	conn := jsonrpc2.NewConn(jsonrpc2.NewStream(&stdio{ReadCloser: stdout, WriteCloser: stdin}))
	s := &server{
		conn:       conn,
		dispatcher: protocol.ServerDispatcher(conn, l.logger.Desugar()),
		logger:     l.logger.With("pid", cmd.Process.Pid, "mode", string(profile.Mode)),
		kill:       cmd.Process.Kill,
		exited:     make(chan struct{}),
	}

	go func() {
		s.waitErr = cmd.Wait()
		s.logger.Infow("language server exited", zap.Error(s.waitErr))
		close(s.exited)
	}()
	conn.Go(context.Background(), l.gateway.HandleServerMessage)

	s.logger.Infow("language server started", "path", profile.Command)
	return s, nil
}

type server struct {
	conn       jsonrpc2.Conn
	dispatcher protocol.Server
	logger     *zap.SugaredLogger
	kill       func() error

	exited  chan struct{}
	waitErr error

	stopOnce sync.Once
	stopErr  error
}

func (s *server) Initialize(ctx context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	ctx, cancel := s.untilExit(ctx)
	defer cancel()

	result, err := s.dispatcher.Initialize(ctx, params)
	if err != nil {
		return nil, s.exitErr(fmt.Errorf("initialize: %w", err))
	}
	if err := s.dispatcher.Initialized(ctx, &protocol.InitializedParams{}); err != nil {
		return nil, s.exitErr(fmt.Errorf("initialized: %w", err))
	}
	return result, nil
}

func (s *server) Call(ctx context.Context, method string, params, result interface{}) error {
	ctx, cancel := s.untilExit(ctx)
	defer cancel()

	if err := protocol.Call(ctx, s.conn, method, params, result); err != nil {
		return s.exitErr(err)
	}
	return nil
}

func (s *server) Notify(ctx context.Context, method string, params interface{}) error {
	return s.conn.Notify(ctx, method, params)
}

func (s *server) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		s.stopErr = s.stop(ctx)
	})
	return s.stopErr
}

func (s *server) stop(ctx context.Context) error {
	var err error
	select {
	case <-s.exited:
	default:
		shutdownCtx, cancel := s.untilExit(ctx)
		if shutdownErr := s.dispatcher.Shutdown(shutdownCtx); shutdownErr != nil {
			err = multierr.Append(err, fmt.Errorf("shutdown: %w", shutdownErr))
		} else if exitErr := s.dispatcher.Exit(shutdownCtx); exitErr != nil {
			err = multierr.Append(err, fmt.Errorf("exit: %w", exitErr))
		}
		cancel()
	}

	select {
	case <-s.exited:
	case <-ctx.Done():
		s.logger.Warnw("language server did not exit, killing it", zap.Error(ctx.Err()))
		if killErr := s.kill(); killErr != nil && !errors.Is(killErr, os.ErrProcessDone) {
			err = multierr.Append(err, fmt.Errorf("kill: %w", killErr))
		}
		<-s.exited
	}

	closeErr := s.conn.Close()
	<-s.conn.Done()
	if closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
		s.logger.Debugw("closing language server stream", zap.Error(closeErr))
	}
	return err
}

func (s *server) Done() <-chan struct{} {
	return s.exited
}

// untilExit derives a context that is cancelled when the process exits, pending calls never get a response then.
func (s *server) untilExit(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		select {
		case <-s.exited:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func (s *server) exitErr(err error) error {
	select {
	case <-s.exited:
		return fmt.Errorf("language server exited (%v): %w", s.waitErr, err)
	default:
		return err
	}
}

// stdio joins the process pipes into the stream used by jsonrpc2.
type stdio struct {
	io.ReadCloser
	io.WriteCloser
}

func (s *stdio) Close() error {
	return multierr.Append(s.WriteCloser.Close(), s.ReadCloser.Close())
}
