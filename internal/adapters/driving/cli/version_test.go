package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd_Use(t *testing.T) {
	assert.Equal(t, "version", versionCmd.Use)
	assert.Equal(t, "Print the version number", versionCmd.Short)
}

func TestVersionCmd_PrintsVersion(t *testing.T) {
	original := version
	t.Cleanup(func() { version = original })

	tests := []struct {
		name string
		set  string
		want string
	}{
		{"dev build", "", "quill version dev"},
		{"release", "v1.2.0", "quill version v1.2.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version = "dev"
			SetVersion(tt.set)

			out, err := executeCommand(t, "version")
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}
