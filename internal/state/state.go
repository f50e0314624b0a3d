// Package state holds the page store an exam-creation page load commits
// into.
package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pavelanni/examcreator/internal/model"
)

// ClassRepository loads class-scoped data.
type ClassRepository interface {
	GetClass(ctx context.Context, id string) (model.Class, error)
	ListSelectedExercises(ctx context.Context, classID string) ([]model.ExerciseRef, error)
}

// PageStore is the state of one page load. It is safe for concurrent use.
type PageStore struct {
	classes ClassRepository

	mu       sync.Mutex
	loading  bool
	loadOns  int
	loadOffs int
	snap     model.PageSnapshot
	err      error
}

// NewPageStore creates an empty page store backed by classes.
func NewPageStore(classes ClassRepository) *PageStore {
	return &PageStore{
		classes: classes,
		snap: model.PageSnapshot{
			Ancestors:         []model.ContentNode{},
			AncestorCounts:    model.AncestorCounts{},
			ContentList:       []model.ContentNode{},
			SelectedExercises: []model.ExerciseRef{},
		},
	}
}

// Loading marks the page as loading.
func (s *PageStore) Loading() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loading {
		s.loadOns++
	}
	s.loading = true
}

// NotLoading clears the loading flag.
func (s *PageStore) NotLoading() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading {
		s.loadOffs++
	}
	s.loading = false
}

// LoadingTransitions reports how many times loading was switched on and off.
func (s *PageStore) LoadingTransitions() (on, off int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadOns, s.loadOffs
}

// SetClassState loads the class and its exam draft selection.
func (s *PageStore) SetClassState(ctx context.Context, classID string) error {
	class, err := s.classes.GetClass(ctx, classID)
	if err != nil {
		return fmt.Errorf("load class %s: %w", classID, err)
	}
	selected, err := s.classes.ListSelectedExercises(ctx, classID)
	if err != nil {
		return fmt.Errorf("load selection for class %s: %w", classID, err)
	}
	if selected == nil {
		selected = []model.ExerciseRef{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Class = &class
	s.snap.SelectedExercises = selected
	return nil
}

// SelectedExercises returns a copy of the class selection loaded by
// SetClassState.
func (s *PageStore) SelectedExercises() []model.ExerciseRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ExerciseRef(nil), s.snap.SelectedExercises...)
}

// SetAncestors replaces the breadcrumb trail.
func (s *PageStore) SetAncestors(ancestors []model.ContentNode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Ancestors = ancestors
}

// CommitPage applies the state of a root, topic or search page. Search
// results are only replaced when the page carries some.
func (s *PageStore) CommitPage(st model.PageState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.AncestorCounts = st.AncestorCounts
	s.snap.ContentList = st.ContentList
	if st.SearchResults != nil {
		s.snap.SearchResults = st.SearchResults
	}
	s.snap.PageName = st.PageName
	s.snap.ToolbarRoute = st.ToolbarRoute
}

// SetToolbarRoute sets the target of the toolbar back link.
func (s *PageStore) SetToolbarRoute(route model.ToolbarRoute) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.ToolbarRoute = route
}

// SetCurrentContentNode records the node shown on a preview page.
func (s *PageStore) SetCurrentContentNode(node model.ContentNode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.CurrentContentNode = &node
}

// SetPreviewState records the questions and mastery model of a preview.
func (s *PageStore) SetPreviewState(preview model.PreviewState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Preview = &preview
}

// SetPageName sets the page being shown.
func (s *PageStore) SetPageName(name model.PageName) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.PageName = name
}

// HandleAPIError logs a failed page load and records it for rendering.
// Context cancellation is recorded but not logged as an error.
func (s *PageStore) HandleAPIError(ctx context.Context, err error) {
	if errors.Is(err, context.Canceled) {
		slog.DebugContext(ctx, "page load cancelled", "error", err)
	} else {
		slog.ErrorContext(ctx, "page load failed", "error", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
	s.snap.Error = err.Error()
}

// Err returns the error recorded by HandleAPIError, if any.
func (s *PageStore) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Snapshot returns a copy of the current state.
func (s *PageStore) Snapshot() model.PageSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snap
	snap.Loading = s.loading
	return snap
}
