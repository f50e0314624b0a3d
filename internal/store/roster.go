package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pavelanni/examcreator/internal/model"
)

// ImportRoster upserts the classes of a JSON roster file in one transaction
// and records its content hash under name. It returns the number of classes
// stored, or -1 when the same content was already imported under name.
func (s *Store) ImportRoster(name string, data []byte) (int, error) {
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	stored, err := s.GetImportedFileHash(name)
	if err != nil {
		return 0, fmt.Errorf("check import status: %w", err)
	}
	if stored == hash {
		return -1, nil
	}

	var classes []model.ClassImport
	if err := json.Unmarshal(data, &classes); err != nil {
		return 0, fmt.Errorf("parse roster: %w", err)
	}
	for _, ci := range classes {
		if ci.ID == "" || ci.Name == "" {
			return 0, fmt.Errorf("class entry needs id and name: %+v", ci)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	now := time.Now()
	for _, ci := range classes {
		if _, err := tx.Exec(
			`INSERT INTO classes (id, name, facility, created_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET name = excluded.name, facility = excluded.facility`,
			ci.ID, ci.Name, ci.Facility, now,
		); err != nil {
			return 0, fmt.Errorf("store class %s: %w", ci.ID, err)
		}
	}
	if _, err := tx.Exec(
		`INSERT INTO imported_files (path, hash, imported_at) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET hash = excluded.hash, imported_at = excluded.imported_at`,
		name, hash, now,
	); err != nil {
		return 0, fmt.Errorf("record import: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(classes), nil
}
