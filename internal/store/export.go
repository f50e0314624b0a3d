package store

import (
	"context"
	"fmt"
	"time"

	"github.com/pavelanni/examcreator/internal/model"
)

// ExportDraft builds the export-ready exam draft of a class.
func (s *Store) ExportDraft(ctx context.Context, classID, title string) (model.DraftExport, error) {
	class, err := s.GetClass(ctx, classID)
	if err != nil {
		return model.DraftExport{}, fmt.Errorf("get class %s: %w", classID, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT exercise_id, title, content_id, selected_at FROM exam_selections
		 WHERE class_id = ? ORDER BY rowid`, classID,
	)
	if err != nil {
		return model.DraftExport{}, fmt.Errorf("list selections: %w", err)
	}
	defer rows.Close()

	exercises := []model.DraftExercise{}
	for rows.Next() {
		var e model.DraftExercise
		if err := rows.Scan(&e.ID, &e.Title, &e.ContentID, &e.SelectedAt); err != nil {
			return model.DraftExport{}, err
		}
		exercises = append(exercises, e)
	}
	if err := rows.Err(); err != nil {
		return model.DraftExport{}, err
	}

	if title == "" {
		title = class.Name + " exam"
	}

	return model.DraftExport{
		ClassID:     class.ID,
		ClassName:   class.Name,
		Title:       title,
		ExportedAt:  time.Now().UTC(),
		NumSelected: len(exercises),
		Exercises:   exercises,
	}, nil
}
