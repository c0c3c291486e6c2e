package verify

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elf-tools/shstrip/internal/elftest"
)

func TestSignatureCheck(t *testing.T) {
	check := &SignatureCheck{}

	tests := []struct {
		name       string
		data       []byte
		wantStatus string
	}{
		{name: "stripped 64-bit image", data: elftest.BuildStripped64(), wantStatus: "pass"},
		{name: "unstripped image", data: elftest.Build64(), wantStatus: "pass"},
		{name: "not an ELF file", data: []byte("plain text, nothing binary here"), wantStatus: "fail"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := check.Execute(elftest.WriteTemp(t, tt.data))
			assert.Equal(t, tt.wantStatus, result.Status)
			assert.Equal(t, check.ID(), result.ID)
			assert.NotEmpty(t, result.Details)
		})
	}
}

func TestSignatureCheckMissingFile(t *testing.T) {
	result := (&SignatureCheck{}).Execute(filepath.Join(t.TempDir(), "missing"))
	assert.Equal(t, "fail", result.Status)
}

func TestHeaderZeroCheck(t *testing.T) {
	check := &HeaderZeroCheck{}

	t.Run("stripped image passes", func(t *testing.T) {
		result := check.Execute(elftest.WriteTemp(t, elftest.BuildStripped64()))
		assert.Equal(t, "pass", result.Status)
	})

	t.Run("unstripped image fails", func(t *testing.T) {
		result := check.Execute(elftest.WriteTemp(t, elftest.Build64()))
		assert.Equal(t, "fail", result.Status)
		assert.Contains(t, result.Details, "e_shoff")
	})

	t.Run("non-ELF fails", func(t *testing.T) {
		result := check.Execute(elftest.WriteTemp(t, []byte("nope")))
		assert.Equal(t, "fail", result.Status)
	})
}

func TestRunnerRunAll(t *testing.T) {
	runner := NewRunner(NewRegistry())

	t.Run("stripped image", func(t *testing.T) {
		report := runner.RunAll(elftest.WriteTemp(t, elftest.BuildStripped64()))
		require.Equal(t, 2, report.TotalChecks)
		assert.Equal(t, 2, report.PassedChecks)
		assert.Zero(t, report.FailedChecks)
	})

	t.Run("unstripped image", func(t *testing.T) {
		report := runner.RunAll(elftest.WriteTemp(t, elftest.Build32()))
		require.Equal(t, 2, report.TotalChecks)
		assert.Equal(t, 1, report.PassedChecks)
		assert.Equal(t, 1, report.FailedChecks)
	})
}

func TestRegistryRegister(t *testing.T) {
	registry := NewRegistry()
	before := len(registry.List())
	registry.Register(&SignatureCheck{})
	assert.Len(t, registry.List(), before+1)
}
