package torque

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// csvHeader is the persistence contract: consumers key on this exact column
// order.
var csvHeader = []string{"time", "current_raw", "current", "torque_raw", "torque"}

// WriteCSV emits one header row plus one row per record.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("torque: write csv header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			formatFloat(rec.Time),
			formatFloat(rec.CurrentRaw),
			formatFloat(rec.Current),
			formatFloat(rec.TorqueRaw),
			formatFloat(rec.Torque),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("torque: write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes the records to a timestamped file under dir and returns its
// path. Nothing is written when there are no records.
func SaveCSV(dir string, records []Record, now time.Time) (string, error) {
	if len(records) == 0 {
		return "", nil
	}
	name := fmt.Sprintf("filtered_motor_torque_%s.csv", now.Format("20060102_150405"))
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("torque: create %s: %w", path, err)
	}
	defer f.Close()
	if err := WriteCSV(f, records); err != nil {
		return "", err
	}
	return path, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
