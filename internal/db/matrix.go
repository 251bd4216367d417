package db

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"moviematch/internal/similarity"
)

// ErrNoMatrix means no similarity matrix matching the stored catalog exists.
var ErrNoMatrix = errors.New("no similarity matrix for the current catalog (run 'moviematch build')")

// bytesToRow converts a little-endian byte slice to []float32.
// Each 4 bytes = one LE float32. Short trailing chunk → 0.0.
func bytesToRow(data []byte) []float32 {
	n := len(data) / 4
	if len(data)%4 != 0 {
		n++ // include partial chunk as 0.0
	}
	result := make([]float32, n)
	for i := 0; i < len(data)/4; i++ {
		bits := binary.LittleEndian.Uint32(data[i*4 : i*4+4])
		result[i] = math.Float32frombits(bits)
	}
	return result
}

// rowToBytes is the inverse of bytesToRow.
func rowToBytes(row []float32) []byte {
	data := make([]byte, len(row)*4)
	for i, v := range row {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}
	return data
}

// SaveMatrix stores m, one blob per catalog row, replacing any previous
// matrix. m must have one row per stored movie.
func (d *DB) SaveMatrix(m *similarity.Matrix, method string, builtAt time.Time) error {
	count, err := d.CountMovies()
	if err != nil {
		return fmt.Errorf("counting movies: %w", err)
	}
	if m.Size() != count {
		return fmt.Errorf("matrix has %d rows but catalog has %d movies", m.Size(), count)
	}

	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.Exec("DELETE FROM similarity"); err != nil {
		return fmt.Errorf("clearing matrix: %w", err)
	}
	insert, err := tx.Prepare("INSERT INTO similarity (row_index, scores) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer insert.Close()

	for i := 0; i < m.Size(); i++ {
		if _, err := insert.Exec(i, rowToBytes(m.Row(i))); err != nil {
			return fmt.Errorf("inserting row %d: %w", i, err)
		}
	}

	meta := map[string]string{
		metaBuiltAt: builtAt.UTC().Format(time.RFC3339),
		metaMethod:  method,
		metaRows:    strconv.Itoa(m.Size()),
	}
	for k, v := range meta {
		if _, err := tx.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("writing %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing matrix: %w", err)
	}
	return nil
}

// LoadMatrix reads the stored matrix. It returns ErrNoMatrix when the matrix
// is missing or does not match the catalog size.
func (d *DB) LoadMatrix() (*similarity.Matrix, error) {
	count, err := d.CountMovies()
	if err != nil {
		return nil, fmt.Errorf("counting movies: %w", err)
	}

	rows, err := d.conn.Query("SELECT row_index, scores FROM similarity ORDER BY row_index")
	if err != nil {
		return nil, fmt.Errorf("querying matrix: %w", err)
	}
	defer rows.Close()

	result := make([][]float32, 0, count)
	for rows.Next() {
		var idx int
		var data []byte
		if err := rows.Scan(&idx, &data); err != nil {
			return nil, err
		}
		if idx != len(result) {
			return nil, fmt.Errorf("%w: row %d missing", ErrNoMatrix, len(result))
		}
		result = append(result, bytesToRow(data))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if count == 0 || len(result) != count {
		return nil, ErrNoMatrix
	}

	m, err := similarity.NewMatrix(result)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoMatrix, err)
	}
	return m, nil
}

// MatrixInfo returns metadata about the stored matrix, or nil when none was built.
func (d *DB) MatrixInfo() (*BuildInfo, error) {
	rows, err := d.conn.Query("SELECT key, value FROM meta WHERE key IN (?, ?, ?)", metaBuiltAt, metaMethod, metaRows)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		values[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}
	n, _ := strconv.Atoi(values[metaRows])
	return &BuildInfo{Movies: n, BuiltAt: values[metaBuiltAt], Method: values[metaMethod]}, nil
}
