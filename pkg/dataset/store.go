package dataset

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"trendpulse-go/pkg/logger"
)

// Store persists the dataset files under a single data directory. All writes
// go through a temp-file-plus-rename so a crash mid-write never leaves a
// partially written dataset, and are gated on a content hash so unchanged
// data produces no write at all.
type Store struct {
	dataDir string
	log     *logger.Logger
}

func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return &Store{
		dataDir: dataDir,
		log:     logger.GetLogger().WithField("component", "store"),
	}, nil
}

// Path returns the absolute location of a dataset file.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dataDir, name)
}

// Exists reports whether a dataset file is present.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// LastModified returns the mtime of a dataset file.
func (s *Store) LastModified(name string) (time.Time, error) {
	info, err := os.Stat(s.Path(name))
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// contentHash mirrors the md5 change-detection used for processed-URL
// tracking; two files are considered equal iff their hashes match.
func contentHash(data []byte) string {
	return fmt.Sprintf("%x", md5.Sum(data))
}

// writeGated writes data to name unless the file already holds identical
// content. Returns true when a write happened.
func (s *Store) writeGated(name string, data []byte) (bool, error) {
	path := s.Path(name)

	if existing, err := os.ReadFile(path); err == nil {
		if contentHash(existing) == contentHash(data) {
			s.log.WithField("file", name).Debug("Content unchanged, skipping write")
			return false, nil
		}
	}

	tmp, err := os.CreateTemp(s.dataDir, name+".tmp-*")
	if err != nil {
		return false, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return false, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return false, fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return false, fmt.Errorf("failed to rename temp file: %w", err)
	}
	return true, nil
}

func (s *Store) writeTable(name string, header []string, records [][]string) (bool, error) {
	data, err := encodeCSV(header, records)
	if err != nil {
		return false, fmt.Errorf("failed to encode %s: %w", name, err)
	}
	return s.writeGated(name, data)
}

// ReadRecords returns the raw header and records of a dataset file.
func (s *Store) ReadRecords(name string) ([]string, [][]string, error) {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		return nil, nil, err
	}
	return decodeCSV(data)
}

// WriteTrendTable persists weekly trend rows (global summary or top peaks).
func (s *Store) WriteTrendTable(name string, rows []TrendRow) (bool, error) {
	return s.writeTable(name, trendHeader, encodeTrendRows(rows))
}

// ReadTrendTable loads weekly trend rows. A missing file yields an empty
// slice, matching the load-existing-or-empty behavior of the pipeline.
func (s *Store) ReadTrendTable(name string) ([]TrendRow, error) {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	_, records, err := decodeCSV(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return decodeTrendRows(records)
}

func (s *Store) WritePercentChange(rows []PercentChangeRow) (bool, error) {
	return s.writeTable(PercentChangeFile, percentChangeHeader, encodePercentChangeRows(rows))
}

func (s *Store) WriteCountryTable(rows []CountryRow) (bool, error) {
	return s.writeTable(CountryFile, countryHeader, encodeCountryRows(rows))
}

func (s *Store) ReadCountryTable() ([]CountryRow, error) {
	data, err := os.ReadFile(s.Path(CountryFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	_, records, err := decodeCSV(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", CountryFile, err)
	}
	return decodeCountryRows(records)
}

func (s *Store) WriteCountryTotals(rows []CountryTotalRow) (bool, error) {
	return s.writeTable(CountryTotalFile, countryTotalHeader, encodeCountryTotalRows(rows))
}

func (s *Store) WriteTop5Counts(rows []Top5CountRow) (bool, error) {
	return s.writeTable(CountryTop5File, countryTop5Header, encodeTop5CountRows(rows))
}

func (s *Store) WriteRelatedTable(name string, rows []RelatedRow) (bool, error) {
	return s.writeTable(name, relatedHeader, encodeRelatedRows(rows))
}

func (s *Store) WriteSharedTable(rows []SharedRow) (bool, error) {
	return s.writeTable(RelatedSharedFile, sharedHeader, encodeSharedRows(rows))
}
