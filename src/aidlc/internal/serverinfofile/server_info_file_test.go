package serverinfofile

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aidl-lsp/aidl-client/src/aidlc/internal/fs"
	"github.com/aidl-lsp/aidl-client/src/aidlc/internal/fs/fsmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/config"
	"go.uber.org/fx/fxtest"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func staticConfig(t *testing.T, data map[string]interface{}) config.Provider {
	provider, err := config.NewStaticProvider(data)
	require.NoError(t, err)
	return provider
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  map[string]interface{}
		wantErr bool
	}{
		{
			name:   "valid config",
			config: map[string]interface{}{_configKeyInfoFile: "/tmp/aidl-lsp-client.json"},
		},
		{
			name:    "missing key",
			config:  map[string]interface{}{},
			wantErr: true,
		},
		{
			name:    "wrong type",
			config:  map[string]interface{}{_configKeyInfoFile: map[string]string{"a": "b"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(Params{
				Config:    staticConfig(t, tt.config),
				FS:        fs.New(),
				Lifecycle: fxtest.NewLifecycle(t),
				Logger:    zap.NewNop().Sugar(),
			})

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUpdateFieldAndStop(t *testing.T) {
	infoPath := filepath.Join(t.TempDir(), "info.json")
	lc := fxtest.NewLifecycle(t)

	f, err := New(Params{
		Config:    staticConfig(t, map[string]interface{}{_configKeyInfoFile: infoPath}),
		FS:        fs.New(),
		Lifecycle: lc,
		Logger:    zap.NewNop().Sugar(),
	})
	require.NoError(t, err)
	lc.RequireStart()

	require.NoError(t, f.UpdateField("lsp-address", "127.0.0.1:5610"))
	require.NoError(t, f.UpdateField("status", "aidl-lsp"))

	contents, err := os.ReadFile(infoPath)
	require.NoError(t, err)
	var fields map[string]string
	require.NoError(t, json.Unmarshal(contents, &fields))
	assert.Equal(t, map[string]string{
		"lsp-address": "127.0.0.1:5610",
		"status":      "aidl-lsp",
	}, fields)

	lc.RequireStop()
	_, err = os.Stat(infoPath)
	assert.True(t, os.IsNotExist(err))
}

func TestOnStopNothingWritten(t *testing.T) {
	ctrl := gomock.NewController(t)
	fsMock := fsmock.NewMockFS(ctrl)

	m := module{
		fs:           fsMock,
		logger:       zap.NewNop().Sugar(),
		infofile:     "/tmp/never-written.json",
		fileContents: make(map[string]string),
	}
	assert.NoError(t, m.OnStop(context.Background()))
}

func TestUpdateFieldWriteError(t *testing.T) {
	ctrl := gomock.NewController(t)
	fsMock := fsmock.NewMockFS(ctrl)
	fsMock.EXPECT().WriteFile("/readonly/info.json", gomock.Any()).Return(errors.New("read-only file system"))

	m := module{
		fs:           fsMock,
		logger:       zap.NewNop().Sugar(),
		infofile:     "/readonly/info.json",
		fileContents: make(map[string]string),
	}
	err := m.UpdateField("status", "aidl-lsp")
	assert.ErrorContains(t, err, "writing info file")
}
