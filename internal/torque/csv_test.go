package torque

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSVColumnOrder(t *testing.T) {
	records := []Record{
		{Time: 0.05, CurrentRaw: 1.5, Current: 1.25, TorqueRaw: 0.0975, Torque: 0.08125},
		{Time: 0.1, CurrentRaw: 2, Current: 1.75, TorqueRaw: 0.13, Torque: 0.11375},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "time,current_raw,current,torque_raw,torque", lines[0])
	assert.Equal(t, "0.05,1.5,1.25,0.0975,0.08125", lines[1])
	assert.Equal(t, "0.1,2,1.75,0.13,0.11375", lines[2])
}

func TestSaveCSVTimestampedFile(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 8, 25, 14, 30, 5, 0, time.UTC)

	path, err := SaveCSV(dir, []Record{{Time: 1}}, now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "filtered_motor_torque_20260825_143005.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "time,current_raw,current,torque_raw,torque\n"))
}

func TestSaveCSVSkipsEmptySessions(t *testing.T) {
	path, err := SaveCSV(t.TempDir(), nil, time.Now())
	require.NoError(t, err)
	assert.Empty(t, path)
}
