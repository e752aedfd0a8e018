package mapper

import (
	"context"
	"os/exec"

	"github.com/aidl-lsp/aidl-client/src/aidlc/entity"
	"github.com/aidl-lsp/aidl-client/src/aidlc/internal/errors"
	"github.com/gofrs/uuid"
)

// ContextToEditorUUID extracts the editor connection UUID from a context.
func ContextToEditorUUID(ctx context.Context) (uuid.UUID, error) {
	id, ok := ctx.Value(entity.EditorContextKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, errors.ErrNoEditor
	}
	return id, nil
}

// LaunchProfileToCmd builds the command that starts the language server for a launch profile.
func LaunchProfileToCmd(profile entity.LaunchProfile, dir string) *exec.Cmd {
	cmd := exec.Command(profile.Command, profile.Args...)
	cmd.Dir = dir
	return cmd
}
