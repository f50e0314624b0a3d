package store

import (
	"context"
	"errors"
	"testing"

	"github.com/pavelanni/examcreator/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func insertTestClass(t *testing.T, s *Store, id, name string) {
	t.Helper()
	if err := s.UpsertClass(model.Class{ID: id, Name: name, Facility: "Main"}); err != nil {
		t.Fatalf("insertTestClass: %v", err)
	}
}

func TestClassCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	count, err := s.ClassCount()
	if err != nil {
		t.Fatalf("ClassCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 classes, got %d", count)
	}

	insertTestClass(t, s, "c2", "Year 5")
	insertTestClass(t, s, "c1", "Year 4")

	c, err := s.GetClass(ctx, "c1")
	if err != nil {
		t.Fatalf("GetClass: %v", err)
	}
	if c.Name != "Year 4" {
		t.Errorf("expected name 'Year 4', got %q", c.Name)
	}

	// Upsert renames.
	insertTestClass(t, s, "c1", "Year 4B")
	c, _ = s.GetClass(ctx, "c1")
	if c.Name != "Year 4B" {
		t.Errorf("expected renamed class, got %q", c.Name)
	}

	classes, err := s.ListClasses()
	if err != nil {
		t.Fatalf("ListClasses: %v", err)
	}
	if len(classes) != 2 || classes[0].ID != "c1" || classes[1].ID != "c2" {
		t.Errorf("expected [c1 c2] ordered by name, got %+v", classes)
	}

	_, err = s.GetClass(ctx, "missing")
	if !errors.Is(err, ErrClassNotFound) {
		t.Errorf("expected ErrClassNotFound, got %v", err)
	}
}

func TestExerciseSelection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestClass(t, s, "c1", "Year 4")
	insertTestClass(t, s, "c2", "Year 5")

	refs, err := s.ListSelectedExercises(ctx, "c1")
	if err != nil {
		t.Fatalf("ListSelectedExercises: %v", err)
	}
	if len(refs) != 0 {
		t.Fatalf("expected empty selection, got %d", len(refs))
	}

	for _, ex := range []model.ExerciseRef{
		{ID: "e2", Title: "Fractions", ContentID: "k2"},
		{ID: "e1", Title: "Decimals", ContentID: "k1"},
	} {
		if err := s.SelectExercise("c1", ex); err != nil {
			t.Fatalf("SelectExercise: %v", err)
		}
	}
	if err := s.SelectExercise("c2", model.ExerciseRef{ID: "e9"}); err != nil {
		t.Fatalf("SelectExercise c2: %v", err)
	}

	// Reselecting refreshes the title but keeps the position.
	if err := s.SelectExercise("c1", model.ExerciseRef{ID: "e2", Title: "Fractions II", ContentID: "k2"}); err != nil {
		t.Fatalf("SelectExercise again: %v", err)
	}

	refs, err = s.ListSelectedExercises(ctx, "c1")
	if err != nil {
		t.Fatalf("ListSelectedExercises: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("expected 2 selected, got %d", len(refs))
	}
	if refs[0].ID != "e2" || refs[0].Title != "Fractions II" || refs[1].ID != "e1" {
		t.Errorf("unexpected selection order or titles: %+v", refs)
	}

	if err := s.DeselectExercise("c1", "e2"); err != nil {
		t.Fatalf("DeselectExercise: %v", err)
	}
	refs, _ = s.ListSelectedExercises(ctx, "c1")
	if len(refs) != 1 || refs[0].ID != "e1" {
		t.Errorf("expected [e1], got %+v", refs)
	}

	if err := s.ClearSelection("c1"); err != nil {
		t.Fatalf("ClearSelection: %v", err)
	}
	refs, _ = s.ListSelectedExercises(ctx, "c1")
	if len(refs) != 0 {
		t.Errorf("expected empty selection after clear, got %+v", refs)
	}

	// Other classes are untouched.
	refs, _ = s.ListSelectedExercises(ctx, "c2")
	if len(refs) != 1 {
		t.Errorf("expected c2 selection to survive, got %+v", refs)
	}
}

func TestExportDraft(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestClass(t, s, "c1", "Year 4")
	_ = s.SelectExercise("c1", model.ExerciseRef{ID: "e1", Title: "Decimals", ContentID: "k1"})
	_ = s.SelectExercise("c1", model.ExerciseRef{ID: "e2", Title: "Fractions", ContentID: "k2"})

	export, err := s.ExportDraft(ctx, "c1", "")
	if err != nil {
		t.Fatalf("ExportDraft: %v", err)
	}
	if export.Title != "Year 4 exam" {
		t.Errorf("expected default title, got %q", export.Title)
	}
	if export.NumSelected != 2 || len(export.Exercises) != 2 {
		t.Fatalf("expected 2 exercises, got %d", export.NumSelected)
	}
	if export.Exercises[0].ID != "e1" || export.Exercises[0].SelectedAt.IsZero() {
		t.Errorf("unexpected first exercise: %+v", export.Exercises[0])
	}

	_, err = s.ExportDraft(ctx, "missing", "Quiz")
	if !errors.Is(err, ErrClassNotFound) {
		t.Errorf("expected ErrClassNotFound, got %v", err)
	}
}

func TestUsersAndSessions(t *testing.T) {
	s := newTestStore(t)

	id, err := s.CreateUser(model.User{Username: "ana", DisplayName: "Ana", PasswordHash: "x", Active: true})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	u, err := s.GetUserByUsername("ana")
	if err != nil || u == nil {
		t.Fatalf("GetUserByUsername: %v %v", u, err)
	}
	if u.Role != model.UserRoleCoach {
		t.Errorf("expected default role coach, got %q", u.Role)
	}

	missing, err := s.GetUserByUsername("nobody")
	if err != nil || missing != nil {
		t.Errorf("expected nil user, got %v %v", missing, err)
	}

	token, err := s.CreateAuthSession(id)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	got, err := s.SessionUser(token)
	if err != nil || got == nil || got.ID != id {
		t.Fatalf("SessionUser: %v %v", got, err)
	}

	// Deactivated users lose their session.
	if err := s.ToggleUserActive(id); err != nil {
		t.Fatalf("ToggleUserActive: %v", err)
	}
	got, err = s.SessionUser(token)
	if err != nil || got != nil {
		t.Errorf("expected nil user for inactive account, got %v %v", got, err)
	}

	if err := s.DeleteAuthSession(token); err != nil {
		t.Fatalf("DeleteAuthSession: %v", err)
	}
	_ = s.ToggleUserActive(id)
	got, _ = s.SessionUser(token)
	if got != nil {
		t.Errorf("expected nil user after logout, got %v", got)
	}

	n, err := s.UserCount()
	if err != nil || n != 1 {
		t.Errorf("UserCount = %d, %v", n, err)
	}
}

func TestImportedFileHash(t *testing.T) {
	s := newTestStore(t)

	hash, err := s.GetImportedFileHash("/some/classes.json")
	if err != nil {
		t.Fatalf("GetImportedFileHash: %v", err)
	}
	if hash != "" {
		t.Errorf("expected empty hash, got %q", hash)
	}

	if err := s.SetImportedFileHash("/some/classes.json", "abc123"); err != nil {
		t.Fatalf("SetImportedFileHash: %v", err)
	}
	if err := s.SetImportedFileHash("/some/classes.json", "def456"); err != nil {
		t.Fatalf("SetImportedFileHash update: %v", err)
	}
	hash, _ = s.GetImportedFileHash("/some/classes.json")
	if hash != "def456" {
		t.Errorf("expected 'def456', got %q", hash)
	}
}

func TestImportRoster(t *testing.T) {
	s := newTestStore(t)
	insertTestClass(t, s, "c1", "Year 4")
	data := []byte(`[{"id":"c1","name":"Year 4b","facility":"North"},{"id":"c3","name":"Year 6"}]`)

	n, err := s.ImportRoster("rosters.json", data)
	if err != nil {
		t.Fatalf("ImportRoster: %v", err)
	}
	if n != 2 {
		t.Errorf("imported %d, want 2", n)
	}
	n, err = s.ImportRoster("rosters.json", data)
	if err != nil || n != -1 {
		t.Errorf("second import = %d, %v; want duplicate", n, err)
	}
	if count, _ := s.ClassCount(); count != 2 {
		t.Errorf("ClassCount = %d, want 2", count)
	}
	c, err := s.GetClass(context.Background(), "c1")
	if err != nil {
		t.Fatalf("GetClass: %v", err)
	}
	if c.Name != "Year 4b" || c.Facility != "North" {
		t.Errorf("class not updated: %+v", c)
	}

	if _, err := s.ImportRoster("bad.json", []byte(`[{"name":"no id"}]`)); err == nil {
		t.Error("expected error for entry without id")
	}
	if hash, _ := s.GetImportedFileHash("bad.json"); hash != "" {
		t.Errorf("failed import recorded hash %q", hash)
	}
}
