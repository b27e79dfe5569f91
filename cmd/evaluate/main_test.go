package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-acquisition/internal/models"
)

func TestRun_FromFile(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"-input", "testdata/barriot.json", "-log-level", "error"}, strings.NewReader(""), &out)
	require.NoError(t, err)

	var rec models.Recommendation
	require.NoError(t, json.Unmarshal(out.Bytes(), &rec))
	assert.Equal(t, "req-barriot", rec.RequestID)
	assert.Equal(t, models.LabelGo, rec.Label)
	assert.InDelta(t, 90.575, rec.CompositeScore, 1e-9)
	assert.Equal(t, models.StatusSuccess, rec.Status)
}

func TestRun_FromStdin(t *testing.T) {
	data, err := os.ReadFile("testdata/barriot.json")
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, run([]string{"-pretty", "-log-level", "error"}, bytes.NewReader(data), &out))
	assert.Contains(t, out.String(), "\n  \"label\": \"GO\"")
}

func TestRun_EmptySnapshotIsNoGo(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"-log-level", "error"}, strings.NewReader(`{"requestId":"req-empty","business":{}}`), &out))

	var rec models.Recommendation
	require.NoError(t, json.Unmarshal(out.Bytes(), &rec))
	assert.NotEqual(t, models.LabelGo, rec.Label)
	assert.NotEmpty(t, rec.Issues)
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		stdin string
		want  string
	}{
		{"missing file", []string{"-input", filepath.Join(t.TempDir(), "nope.json")}, "", "open snapshot"},
		{"not json", nil, "{", "decode snapshot"},
		{"missing config", []string{"-config", filepath.Join(t.TempDir(), "nope.yaml")}, "{}", "failed to read config file"},
		{"unknown flag", []string{"-bogus"}, "", "flag provided but not defined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := run(append(tt.args, "-log-level", "error"), strings.NewReader(tt.stdin), &out)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Empty(t, out.String())
		})
	}
}
