package matrix

import (
	"fmt"

	"github.com/starford/imagesim/internal/report"
)

// Image is one row of the images table.
type Image struct {
	Index    int
	Path     string
	Name     string
	Checksum string
	Size     int64
}

// Write stores the images, every pairwise score and the detected peaks in one transaction.
// Trail offset k of base i is stored as the pair (i, i+1+k).
func (db *DB) Write(images []Image, trails report.Trails) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("matrix: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	imgStmt, err := tx.Prepare(`INSERT INTO images (idx, path, name, checksum, size) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("matrix: prepare image insert: %w", err)
	}
	defer imgStmt.Close()
	for _, img := range images {
		if _, err := imgStmt.Exec(img.Index, img.Path, img.Name, img.Checksum, img.Size); err != nil {
			return fmt.Errorf("matrix: insert image %s: %w", img.Path, err)
		}
	}

	scoreStmt, err := tx.Prepare(`INSERT INTO scores (base, other, score) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("matrix: prepare score insert: %w", err)
	}
	defer scoreStmt.Close()
	peakStmt, err := tx.Prepare(`INSERT INTO peaks (base, other, score) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("matrix: prepare peak insert: %w", err)
	}
	defer peakStmt.Close()

	for i := range images {
		trail := trails.Scores(i)
		for k, score := range trail {
			if _, err := scoreStmt.Exec(i, i+1+k, score); err != nil {
				return fmt.Errorf("matrix: insert score (%d, %d): %w", i, i+1+k, err)
			}
		}
		for _, k := range report.Peaks(trail) {
			if _, err := peakStmt.Exec(i, i+1+k, trail[k]); err != nil {
				return fmt.Errorf("matrix: insert peak (%d, %d): %w", i, i+1+k, err)
			}
		}
	}

	return tx.Commit()
}
