package examcreation

import (
	"context"
	"fmt"
	"sync"

	"github.com/pavelanni/examcreator/internal/model"
)

type fakeContent struct {
	mu sync.Mutex

	nodes       map[string]model.ContentNode
	children    map[string][]model.ContentNode
	ancestors   map[string][]model.ContentNode
	counts      map[string]int
	descendants map[string][]model.ExerciseStub
	channels    []model.Channel
	search      model.SearchResults
	failOn      map[string]error

	ancestorCalls   int
	descendantCalls []string
	searchQueries   []model.SearchQuery
	childKinds      []model.ContentKind
}

func newFakeContent() *fakeContent {
	return &fakeContent{
		nodes:       map[string]model.ContentNode{},
		children:    map[string][]model.ContentNode{},
		ancestors:   map[string][]model.ContentNode{},
		counts:      map[string]int{},
		descendants: map[string][]model.ExerciseStub{},
		failOn:      map[string]error{},
	}
}

func (f *fakeContent) err(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failOn[op]
}

func (f *fakeContent) FetchNode(_ context.Context, id string) (model.ContentNode, error) {
	if err := f.err("node"); err != nil {
		return model.ContentNode{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.nodes[id]
	if !ok {
		return model.ContentNode{}, fmt.Errorf("node %s not found", id)
	}
	return n, nil
}

func (f *fakeContent) FetchChildren(_ context.Context, parentID string, kinds ...model.ContentKind) ([]model.ContentNode, error) {
	if err := f.err("children"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.childKinds = kinds
	return append([]model.ContentNode(nil), f.children[parentID]...), nil
}

func (f *fakeContent) FetchAncestors(_ context.Context, id string) ([]model.ContentNode, error) {
	if err := f.err("ancestors"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ancestorCalls++
	return f.ancestors[id], nil
}

func (f *fakeContent) Search(_ context.Context, q model.SearchQuery) (model.SearchResults, error) {
	if err := f.err("search"); err != nil {
		return model.SearchResults{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchQueries = append(f.searchQueries, q)
	return f.search, nil
}

func (f *fakeContent) FetchDescendantAssessmentCount(_ context.Context, topicID string) (int, error) {
	if err := f.err("count"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[topicID], nil
}

func (f *fakeContent) FetchDescendants(_ context.Context, topicID string, kind model.ContentKind, fields []string) ([]model.ExerciseStub, error) {
	if err := f.err("descendants"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if kind != model.KindExercise || len(fields) != 3 {
		return nil, fmt.Errorf("unexpected descendant query %s %v", kind, fields)
	}
	f.descendantCalls = append(f.descendantCalls, topicID)
	return f.descendants[topicID], nil
}

func (f *fakeContent) FetchAvailableChannels(_ context.Context, hasExercise bool) ([]model.Channel, error) {
	if err := f.err("channels"); err != nil {
		return nil, err
	}
	if !hasExercise {
		return nil, fmt.Errorf("expected has_exercise filter")
	}
	return f.channels, nil
}

type fakeStore struct {
	classErr error
	selected []model.ExerciseRef

	loading     bool
	loadingOn   int
	loadingOff  int
	classID     string
	ancestors   []model.ContentNode
	page        *model.PageState
	toolbar     []model.ToolbarRoute
	current     *model.ContentNode
	preview     *model.PreviewState
	pageName    model.PageName
	handledErrs []error
	pageCommits int
}

func (s *fakeStore) Loading()    { s.loading = true; s.loadingOn++ }
func (s *fakeStore) NotLoading() { s.loading = false; s.loadingOff++ }

func (s *fakeStore) SetClassState(_ context.Context, classID string) error {
	s.classID = classID
	return s.classErr
}

func (s *fakeStore) SelectedExercises() []model.ExerciseRef { return s.selected }

func (s *fakeStore) SetAncestors(a []model.ContentNode) { s.ancestors = a }

func (s *fakeStore) CommitPage(st model.PageState) {
	s.page = &st
	s.pageName = st.PageName
	s.toolbar = append(s.toolbar, st.ToolbarRoute)
	s.pageCommits++
}

func (s *fakeStore) SetToolbarRoute(r model.ToolbarRoute) { s.toolbar = append(s.toolbar, r) }

func (s *fakeStore) SetCurrentContentNode(n model.ContentNode) { s.current = &n }

func (s *fakeStore) SetPreviewState(p model.PreviewState) { s.preview = &p }

func (s *fakeStore) SetPageName(n model.PageName) { s.pageName = n }

func (s *fakeStore) HandleAPIError(_ context.Context, err error) {
	s.handledErrs = append(s.handledErrs, err)
}

func (s *fakeStore) lastToolbar() model.ToolbarRoute {
	if len(s.toolbar) == 0 {
		return model.ToolbarRoute{}
	}
	return s.toolbar[len(s.toolbar)-1]
}
