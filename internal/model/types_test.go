package model

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWrapRequest_Validate checks that every required field is reported
// when missing, and that a complete request passes.
func TestWrapRequest_Validate(t *testing.T) {
	valid := WrapRequest{
		SourceDir: "/tmp/site",
		DestDir:   "/tmp/site Wrapped",
		AppName:   "My Site",
		AppID:     "com.example.mysite",
		Version:   "1.0.0",
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name    string
		mutate  func(r *WrapRequest)
		wantMsg string
	}{
		{"missing source", func(r *WrapRequest) { r.SourceDir = "" }, "source directory"},
		{"missing dest", func(r *WrapRequest) { r.DestDir = "  " }, "destination directory"},
		{"missing name", func(r *WrapRequest) { r.AppName = "" }, "app name"},
		{"missing id", func(r *WrapRequest) { r.AppID = "" }, "app id"},
		{"missing version", func(r *WrapRequest) { r.Version = "" }, "version"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := req.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}

	t.Run("reports all missing fields at once", func(t *testing.T) {
		err := (&WrapRequest{}).Validate()
		require.Error(t, err)
		assert.Equal(t, "missing required fields: source directory, destination directory, app name, app id, version", err.Error())
	})
}

func TestWrapRequest_PlatformOrDefault(t *testing.T) {
	assert.Equal(t, "android", (&WrapRequest{}).PlatformOrDefault())
	assert.Equal(t, "ios", (&WrapRequest{Platform: "ios"}).PlatformOrDefault())
	assert.Equal(t, "android", (&WrapRequest{Platform: "   "}).PlatformOrDefault())
}

func TestValidateAppID(t *testing.T) {
	tests := []struct {
		id      string
		wantErr bool
	}{
		{"com.example.mysite", false},
		{"io.github.user_name.app2", false},
		{"Com.Example.App", false},
		{"", true},
		{"mysite", true},              // single segment
		{"com.example.my-site", true}, // hyphen
		{"com.1example.app", true},    // segment starts with digit
		{"com..app", true},
		{".com.app", true},
		{"com.app.", true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			err := ValidateAppID(tt.id)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateVersion(t *testing.T) {
	tests := []struct {
		version string
		wantErr bool
	}{
		{"1.0.0", false},
		{"2.1.0", false},
		{"10.20.30", false},
		{"1.0.0-beta.1", false},
		{"", true},
		{"1.0", true},
		{"v1.0.0", true},
		{"1.0.0.0", true},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			err := ValidateVersion(tt.version)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestDeriveDefaults verifies the name/id/destination suggestions made
// from a source folder path.
func TestDeriveDefaults(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		wantName string
		wantID   string
		wantDest string
	}{
		{
			name:     "simple folder",
			source:   filepath.Join("home", "me", "my-site"),
			wantName: "my-site",
			wantID:   "com.example.mysite",
			wantDest: filepath.Join("home", "me", "my-site Wrapped"),
		},
		{
			name:     "trailing separator",
			source:   filepath.Join("home", "me", "Portfolio") + string(filepath.Separator),
			wantName: "Portfolio",
			wantID:   "com.example.portfolio",
			wantDest: filepath.Join("home", "me", "Portfolio Wrapped"),
		},
		{
			name:     "leading digit",
			source:   filepath.Join("sites", "2048"),
			wantName: "2048",
			wantID:   "com.example.app2048",
			wantDest: filepath.Join("sites", "2048 Wrapped"),
		},
		{
			name:     "no alphanumerics",
			source:   filepath.Join("sites", "___"),
			wantName: "___",
			wantID:   "com.example.app",
			wantDest: filepath.Join("sites", "___ Wrapped"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := DeriveDefaults(tt.source)
			assert.Equal(t, tt.source, req.SourceDir)
			assert.Equal(t, tt.wantName, req.AppName)
			assert.Equal(t, tt.wantID, req.AppID)
			assert.Equal(t, tt.wantDest, req.DestDir)
			assert.Equal(t, DefaultVersion, req.Version)
			assert.Equal(t, DefaultPlatform, req.Platform)
			assert.NoError(t, ValidateAppID(req.AppID))
		})
	}
}

func TestProgressEvent_String(t *testing.T) {
	assert.Equal(t, "[30%] Injecting website content...",
		ProgressEvent{Percent: 30, Label: "Injecting website content..."}.String())
}

// TestEvents_NilSafe verifies that an empty Events value can be used
// without callbacks.
func TestEvents_NilSafe(t *testing.T) {
	var ev Events
	assert.NotPanics(t, func() {
		ev.EmitProgress(10, "x")
		ev.Logf("hello %s", "world")
		ev.LogFunc()("text")
	})
}

func TestEvents_Forwarding(t *testing.T) {
	var progress []ProgressEvent
	var lines []string
	ev := Events{
		Progress: func(p ProgressEvent) { progress = append(progress, p) },
		Log:      func(l LogLine) { lines = append(lines, l.Text) },
	}

	ev.EmitProgress(50, "Configuring project...")
	ev.Logf("copied %d files", 3)
	ev.LogFunc()("plain")

	assert.Equal(t, []ProgressEvent{{Percent: 50, Label: "Configuring project..."}}, progress)
	assert.Equal(t, []string{"copied 3 files", "plain"}, lines)
}

func TestWrapResult_Record(t *testing.T) {
	var res WrapResult
	start := time.Now()
	res.Record("stage-template", StepCompleted, "", start)
	res.Record("install-dependencies", StepWarning, "npm install failed", start)

	require.Len(t, res.Steps, 2)
	assert.Equal(t, StepCompleted, res.Steps[0].Status)
	assert.Equal(t, StepWarning, res.Steps[1].Status)
	assert.Equal(t, []string{"npm install failed"}, res.Warnings)
}

// TestCLIError verifies the custom error type used for exit code mapping.
func TestCLIError(t *testing.T) {
	t.Run("simple error", func(t *testing.T) {
		err := NewCLIError(ExitDestinationExists, "destination exists")
		assert.Equal(t, ExitDestinationExists, err.Code)
		assert.Equal(t, "destination exists", err.Error())
		assert.Nil(t, err.Unwrap())
	})

	t.Run("wrapped error", func(t *testing.T) {
		inner := errors.New("permission denied")
		err := WrapCLIError(ExitStagingFailed, "failed to copy template", inner)
		assert.Equal(t, ExitStagingFailed, err.Code)
		assert.Contains(t, err.Error(), "permission denied")
		assert.Equal(t, inner, err.Unwrap())
	})

	t.Run("errors.Is chain", func(t *testing.T) {
		err := WrapCLIError(ExitInvalidInput, "source not found", ErrSourceMissing)
		assert.True(t, errors.Is(err, ErrSourceMissing))
	})
}

func TestExitCodeOf(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCodeOf(nil))
	assert.Equal(t, ExitGeneralError, ExitCodeOf(errors.New("boom")))
	assert.Equal(t, ExitPatchMismatch, ExitCodeOf(NewCLIError(ExitPatchMismatch, "drift")))

	wrapped := fmt.Errorf("outer: %w", NewCLIError(ExitDependencyMissing, "no cordova"))
	assert.Equal(t, ExitDependencyMissing, ExitCodeOf(wrapped))
}
