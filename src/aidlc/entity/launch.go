package entity

// LaunchMode names a launch profile.
type LaunchMode string

// Launch modes selected by the host.
const (
	LaunchModeRun   LaunchMode = "run"
	LaunchModeDebug LaunchMode = "debug"
)

// LaunchProfile describes how to start the language server process.
type LaunchProfile struct {
	Mode    LaunchMode `json:"mode" zap:"mode"`
	Command string     `json:"command" zap:"command"`
	Args    []string   `json:"args,omitempty" zap:"args"`
}

// ServerOptions holds the run and debug launch profiles.
type ServerOptions struct {
	Run   LaunchProfile `json:"run" zap:"run"`
	Debug LaunchProfile `json:"debug" zap:"debug"`
}

// NewServerOptions builds both launch profiles for the given executable.
// The profiles are identical, the debug profile is kept separate so it can gain its own arguments.
func NewServerOptions(executable string) ServerOptions {
	return ServerOptions{
		Run:   LaunchProfile{Mode: LaunchModeRun, Command: executable},
		Debug: LaunchProfile{Mode: LaunchModeDebug, Command: executable},
	}
}

// Profile selects the debug profile when the host runs under a debugger, otherwise the run profile.
func (o ServerOptions) Profile(debug bool) LaunchProfile {
	if debug {
		return o.Debug
	}
	return o.Run
}
