// Package capturefile stores captures as row-per-sample Parquet tables.
//
// Column names match the ones written by the earlier acquisition notebooks
// so files from both tools can be mixed in one archive.
package capturefile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/RMahshie/scopecap/pkg/models"
)

// Extension of capture files
const Extension = ".parquet"

const writeBatch = 64 * 1024

type row struct {
	ChA          float64 `parquet:"adc2mVChAMax"`
	ChB          float64 `parquet:"adc2mVChBMax"`
	ChC          float64 `parquet:"adc2mVChCMax"`
	ChD          float64 `parquet:"adc2mVChDMax"`
	Time         float64 `parquet:"time"`
	SamplingRate float64 `parquet:"sampling_rate"`
	TimeUnit     string  `parquet:"time_unit"`
	VoltageUnit  string  `parquet:"voltage_unit"`
	Timestamp    string  `parquet:"timestamp"`
}

// ErrNoCaptures is returned by Latest when a directory holds no capture files.
var ErrNoCaptures = errors.New("no capture files found")

// Write encodes c to w.
func Write(w io.Writer, c *models.Capture) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid capture: %w", err)
	}

	pw := parquet.NewGenericWriter[row](w)
	ts := c.TimestampString()
	batch := make([]row, 0, min(writeBatch, c.Len()))
	for i := 0; i < c.Len(); i++ {
		batch = append(batch, row{
			ChA:          c.Channels[0][i],
			ChB:          c.Channels[1][i],
			ChC:          c.Channels[2][i],
			ChD:          c.Channels[3][i],
			Time:         c.Time[i],
			SamplingRate: c.SamplingRate,
			TimeUnit:     c.TimeUnit,
			VoltageUnit:  c.VoltageUnit,
			Timestamp:    ts,
		})
		if len(batch) == cap(batch) {
			if _, err := pw.Write(batch); err != nil {
				return fmt.Errorf("failed to write rows: %w", err)
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if _, err := pw.Write(batch); err != nil {
			return fmt.Errorf("failed to write rows: %w", err)
		}
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteFile stores c in dir under its canonical file name and returns the
// path written.
func WriteFile(dir string, c *models.Capture) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}

	path := filepath.Join(dir, c.FileName())
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create capture file: %w", err)
	}
	if err := Write(f, c); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close capture file: %w", err)
	}
	return path, nil
}

// Read decodes a capture from a Parquet table of the given size.
func Read(r io.ReaderAt, size int64) (*models.Capture, error) {
	rows, err := parquet.Read[row](r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, errors.New("capture file has no rows")
	}

	first := rows[0]
	ts, err := time.ParseInLocation(models.TimestampLayout, first.Timestamp, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp %q: %w", first.Timestamp, err)
	}

	var channels [4][]float64
	for i := range channels {
		channels[i] = make([]float64, len(rows))
	}
	timeNs := make([]float64, len(rows))
	for i, r := range rows {
		channels[0][i] = r.ChA
		channels[1][i] = r.ChB
		channels[2][i] = r.ChC
		channels[3][i] = r.ChD
		timeNs[i] = r.Time
	}

	c := models.NewCapture(ts, first.SamplingRate, channels, timeNs)
	c.TimeUnit = first.TimeUnit
	c.VoltageUnit = first.VoltageUnit
	return c, nil
}

// ReadFile loads the capture stored at path.
func ReadFile(path string) (*models.Capture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	c, err := Read(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Describe builds a catalog record for the capture file at path from its
// first row and row count, without loading the traces.
func Describe(path string) (*models.CaptureRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	pr := parquet.NewGenericReader[row](f)
	defer pr.Close()

	first := make([]row, 1)
	if n, err := pr.Read(first); n == 0 {
		if err == nil || errors.Is(err, io.EOF) {
			err = errors.New("capture file has no rows")
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	ts, err := time.ParseInLocation(models.TimestampLayout, first[0].Timestamp, time.Local)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid timestamp %q: %w", path, first[0].Timestamp, err)
	}

	c := models.NewCapture(ts, first[0].SamplingRate, [4][]float64{}, nil)
	record := models.NewCaptureRecord(c, path)
	record.FileName = filepath.Base(path)
	record.Samples = int(pf.NumRows())
	record.CreatedAt = c.Timestamp
	return record, nil
}

// List returns the capture files in dir, oldest first. Files are ordered by
// the timestamp embedded in their name whatever the prefix, or by
// modification time when the name carries none.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	type entry struct {
		path string
		ts   time.Time
	}
	var found []entry
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Extension) {
			continue
		}
		ts, ok := FileTimestamp(e.Name())
		if !ok {
			info, err := e.Info()
			if err != nil {
				return nil, err
			}
			ts = info.ModTime()
		}
		found = append(found, entry{path: filepath.Join(dir, e.Name()), ts: ts})
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].ts.Equal(found[j].ts) {
			return found[i].path < found[j].path
		}
		return found[i].ts.Before(found[j].ts)
	})
	files := make([]string, len(found))
	for i, e := range found {
		files[i] = e.path
	}
	return files, nil
}

// FileTimestamp parses the YYYY-MM-DD_HH-MM-SS stamp that ends a capture
// file name, e.g. acquisition_2025-04-11_13-35-48.parquet.
func FileTimestamp(name string) (time.Time, bool) {
	stem := strings.TrimSuffix(filepath.Base(name), Extension)
	if len(stem) < len(models.TimestampLayout) {
		return time.Time{}, false
	}
	ts, err := time.ParseInLocation(models.TimestampLayout, stem[len(stem)-len(models.TimestampLayout):], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// Latest returns the newest capture file in dir.
func Latest(dir string) (string, error) {
	files, err := List(dir)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%s: %w", dir, ErrNoCaptures)
	}
	return files[len(files)-1], nil
}
