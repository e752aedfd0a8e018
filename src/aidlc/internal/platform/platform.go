// Package platform maps the host machine to the prebuilt aidl-lsp server executable.
package platform

import (
	"path/filepath"
	"runtime"

	"github.com/aidl-lsp/aidl-client/src/aidlc/internal/errors"
)

// BinDir is the directory, relative to the installation root, holding the server executables.
const BinDir = "bin"

// Host identifiers for operating systems and CPU architectures.
const (
	OSDarwin  = "darwin"
	OSLinux   = "linux"
	OSWindows = "windows"

	ArchX64   = "x64"
	ArchARM64 = "arm64"
	ArchIA32  = "ia32"
)

// Published server builds.
const (
	BinaryDarwin  = "aidl-lsp-x86_64-apple-darwin"
	BinaryLinux   = "aidl-lsp-x86_64-unknown-linux-gnu"
	BinaryWindows = "aidl-lsp-x86_64-pc-windows-gnu.exe"
)

// Key identifies the host machine by operating system and CPU architecture.
type Key struct {
	OS   string `yaml:"platform" json:"platform"`
	Arch string `yaml:"arch" json:"arch"`
}

// Resolve returns the filename of the server executable built for the given key.
// Keys without a published build return an *errors.UnsupportedPlatformError.
// Values are matched exactly, no normalization is applied.
func Resolve(key Key) (string, error) {
	switch key.OS {
	case OSDarwin:
		return BinaryDarwin, nil
	case OSLinux:
		if key.Arch == ArchX64 {
			return BinaryLinux, nil
		}
	case OSWindows:
		return BinaryWindows, nil
	}
	return "", &errors.UnsupportedPlatformError{OS: key.OS, Arch: key.Arch}
}

// ExecutablePath returns the location of the named executable under installRoot.
func ExecutablePath(installRoot string, binary string) string {
	return filepath.Join(installRoot, BinDir, binary)
}

// Host returns the key of the running machine, using the host's architecture names (x64, arm64, ia32).
func Host() Key {
	return Key{
		OS:   runtime.GOOS,
		Arch: hostArch(runtime.GOARCH),
	}
}

func hostArch(goarch string) string {
	switch goarch {
	case "amd64":
		return ArchX64
	case "386":
		return ArchIA32
	default:
		return goarch
	}
}
