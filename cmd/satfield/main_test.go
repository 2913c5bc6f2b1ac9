package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadROIInline(t *testing.T) {
	raw, err := readROI(`{"type":"Point","coordinates":[0,0]}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"Point","coordinates":[0,0]}`, string(raw))
}

func TestReadROIFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "field.geojson")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"Point","coordinates":[1,2]}`), 0o600))

	raw, err := readROI("@" + path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"Point","coordinates":[1,2]}`, string(raw))
}

func TestReadROIMissingFile(t *testing.T) {
	_, err := readROI("@" + filepath.Join(t.TempDir(), "absent.geojson"))
	assert.Error(t, err)
}

func TestUnknownModeIsLogicalError(t *testing.T) {
	var buf bytes.Buffer
	orig := out
	out = &buf
	defer func() { out = orig }()

	rootCmd.SetArgs([]string{"bogus-mode", "--job-id", "JOB_1"})
	err := rootCmd.Execute()
	require.NoError(t, err, "unknown mode must not be a process failure")

	var payload struct {
		JobID string `json:"job_id"`
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &payload))
	assert.Equal(t, "JOB_1", payload.JobID)
	assert.Equal(t, "UNKNOWN_MODE", payload.Error.Code)
	assert.Contains(t, payload.Error.Message, "bogus-mode")
}
