package errors

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderWrapsUnderlyingError(t *testing.T) {
	base := NewStd("boom")
	err := New(base).
		Component("audio").
		Category(CategoryFileIO).
		Context("file_path", "/tmp/in.wav").
		Build()

	require.Error(t, err)
	assert.Equal(t, "boom", err.Error())
	assert.True(t, Is(err, base))
	assert.Equal(t, CategoryFileIO, err.GetCategory())
	assert.Equal(t, "/tmp/in.wav", err.Context["file_path"])
}

func TestMessageOverridesRendering(t *testing.T) {
	err := New(fs.ErrNotExist).
		Component("plugin").
		Category(CategoryNotFound).
		Message("plugin not found: reverb").
		Build()

	assert.Equal(t, "plugin not found: reverb", err.Error())
	assert.True(t, Is(err, fs.ErrNotExist))
}

func TestExitCodeMapping(t *testing.T) {
	tests := []struct {
		name     string
		category ErrorCategory
		want     int
	}{
		{"validation", CategoryValidation, ExitInvalidArgument},
		{"missing option", CategoryMissingOption, ExitMissingOption},
		{"file io", CategoryFileIO, ExitIOError},
		{"plugin chain", CategoryPluginChain, ExitInvalidChain},
		{"not found", CategoryNotFound, ExitInvalidChain},
		{"plugin", CategoryPlugin, ExitPluginError},
		{"generic", CategoryGeneric, ExitIOError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Newf("failure").Category(tt.category).Build()
			assert.Equal(t, tt.want, ExitCode(err))
		})
	}

	assert.Equal(t, ExitSuccess, ExitCode(nil))
	assert.Equal(t, ExitInvalidArgument, ExitCode(NewStd("plain")))
	assert.Equal(t, ExitNotRun, ExitCode(ErrNotRun))
}

func TestIsCategory(t *testing.T) {
	err := Newf("bad blocksize").Category(CategoryValidation).Build()
	assert.True(t, IsCategory(err, CategoryValidation))
	assert.False(t, IsCategory(err, CategoryPlugin))
	assert.False(t, IsCategory(NewStd("plain"), CategoryValidation))
}
