package model

import "time"

// DraftExport is the top-level JSON structure for exam draft export.
type DraftExport struct {
	ClassID     string          `json:"class_id"`
	ClassName   string          `json:"class_name"`
	Title       string          `json:"title"`
	ExportedAt  time.Time       `json:"exported_at"`
	NumSelected int             `json:"num_selected"`
	Exercises   []DraftExercise `json:"exercises"`
}

// DraftExercise is one selected exercise in an exported draft.
type DraftExercise struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	ContentID  string    `json:"content_id"`
	SelectedAt time.Time `json:"selected_at"`
}
