package examcreation

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/pavelanni/examcreator/internal/model"
)

func newTestController(f *fakeContent) *Controller {
	return New(f, f, WithMaxConcurrency(2))
}

func TestTopicsWithExerciseDescendants(t *testing.T) {
	f := newFakeContent()
	f.counts = map[string]int{"t1": 2, "t2": 0, "t3": -1, "t4": 5}
	f.descendants = map[string][]model.ExerciseStub{
		"t1": {{ID: "e1", Title: "One", ContentID: "k1"}},
		"t4": {{ID: "e4", Title: "Four", ContentID: "k4"}},
	}
	c := newTestController(f)

	got, err := c.topicsWithExerciseDescendants(context.Background(), []string{"t1", "t2", "t3", "t4", "t5"})
	if err != nil {
		t.Fatalf("topicsWithExerciseDescendants: %v", err)
	}

	want := []model.TopicExerciseAggregate{
		{ID: "t1", NumAssessments: 2, Exercises: f.descendants["t1"]},
		{ID: "t4", NumAssessments: 5, Exercises: f.descendants["t4"]},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}

	// Topics without assessments never reach the exercise fetch.
	for _, id := range f.descendantCalls {
		if id != "t1" && id != "t4" {
			t.Errorf("unexpected descendant fetch for %s", id)
		}
	}
	if len(f.descendantCalls) != 2 {
		t.Errorf("expected 2 descendant fetches, got %v", f.descendantCalls)
	}
}

func TestTopicsWithExerciseDescendantsEmpty(t *testing.T) {
	f := newFakeContent()
	c := newTestController(f)
	got, err := c.topicsWithExerciseDescendants(context.Background(), nil)
	if err != nil || got != nil {
		t.Errorf("expected nil, nil; got %v, %v", got, err)
	}
}

func TestCountAncestors(t *testing.T) {
	f := newFakeContent()
	f.ancestors = map[string][]model.ContentNode{
		"E1": {{ID: "A"}, {ID: "B"}},
		"E2": {{ID: "A"}, {ID: "C"}},
	}
	c := newTestController(f)

	got, err := c.countAncestors(context.Background(), []model.ExerciseRef{{ID: "E1"}, {ID: "E2"}})
	if err != nil {
		t.Fatalf("countAncestors: %v", err)
	}
	want := model.AncestorCounts{"A": 2, "B": 1, "C": 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestShowRootPage(t *testing.T) {
	f := newFakeContent()
	f.channels = []model.Channel{{ID: "ch1", Name: "Maths"}, {ID: "ch2", Name: "Science"}}
	f.ancestors = map[string][]model.ContentNode{"E1": {{ID: "A"}}}
	st := &fakeStore{selected: []model.ExerciseRef{{ID: "E1"}, {ID: "E2"}}}

	if err := newTestController(f).ShowRootPage(context.Background(), st, RootParams{ClassID: "c1"}); err != nil {
		t.Fatalf("ShowRootPage: %v", err)
	}

	if f.ancestorCalls != 0 {
		t.Errorf("root page fetched ancestors %d times", f.ancestorCalls)
	}
	if st.page == nil {
		t.Fatal("page not committed")
	}
	if st.page.PageName != model.PageExamCreationRoot {
		t.Errorf("page name = %q", st.page.PageName)
	}
	if len(st.page.AncestorCounts) != 0 || len(st.ancestors) != 0 || st.ancestors == nil {
		t.Errorf("expected empty ancestors and counts, got %v %v", st.ancestors, st.page.AncestorCounts)
	}
	if len(st.page.ContentList) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(st.page.ContentList))
	}
	first := st.page.ContentList[0]
	if first.Kind != model.KindChannel || first.Title != "Maths" || first.ID != "ch1" {
		t.Errorf("unexpected channel node %+v", first)
	}
	if st.lastToolbar().Name != model.PageExams {
		t.Errorf("toolbar = %+v", st.lastToolbar())
	}
	if st.classID != "c1" || st.loading {
		t.Errorf("classID=%q loading=%v", st.classID, st.loading)
	}
}

func TestShowTopicPage(t *testing.T) {
	f := newFakeContent()
	f.nodes["t1"] = model.ContentNode{ID: "t1", Title: "Numbers", Kind: model.KindTopic}
	f.ancestors["t1"] = []model.ContentNode{{ID: "root", Title: "Maths"}}
	f.children["t1"] = []model.ContentNode{
		{ID: "t2", Kind: model.KindTopic},
		{ID: "e1", Kind: model.KindExercise, Files: []model.ContentFile{
			{Thumbnail: true, Available: true, StorageURL: "/e1.png"},
		}},
	}
	f.counts["t2"] = 3
	f.descendants["t2"] = []model.ExerciseStub{{ID: "e7", Title: "Halves", ContentID: "k7"}}
	st := &fakeStore{}

	if err := newTestController(f).ShowTopicPage(context.Background(), st, TopicParams{ClassID: "c1", TopicID: "t1"}); err != nil {
		t.Fatalf("ShowTopicPage: %v", err)
	}

	if !reflect.DeepEqual(f.childKinds, []model.ContentKind{model.KindTopic, model.KindExercise}) {
		t.Errorf("children kinds = %v", f.childKinds)
	}
	if st.page.PageName != model.PageExamCreationTopic {
		t.Errorf("page name = %q", st.page.PageName)
	}

	list := st.page.ContentList
	if len(list) != 2 {
		t.Fatalf("expected 2 nodes, got %+v", list)
	}
	byID := map[string]model.ContentNode{}
	for _, n := range list {
		byID[n.ID] = n
	}
	t2, ok := byID["t2"]
	if !ok || t2.NumAssessments != 3 || len(t2.Exercises) != 1 {
		t.Errorf("t2 not merged: %+v", t2)
	}
	if byID["e1"].Thumbnail != "/e1.png" {
		t.Errorf("e1 thumbnail = %q", byID["e1"].Thumbnail)
	}

	anc := st.page.Ancestors
	if len(anc) != 2 || anc[0].ID != "root" || anc[len(anc)-1].ID != "t1" {
		t.Errorf("ancestors = %+v", anc)
	}
	if st.loadingOn == 0 || st.loadingOff == 0 || st.loading {
		t.Errorf("loading not toggled: on=%d off=%d", st.loadingOn, st.loadingOff)
	}
}

func TestShowTopicPageDropsEmptyTopics(t *testing.T) {
	f := newFakeContent()
	f.nodes["t1"] = model.ContentNode{ID: "t1", Kind: model.KindTopic}
	f.children["t1"] = []model.ContentNode{
		{ID: "empty", Kind: model.KindTopic},
		{ID: "full", Kind: model.KindTopic},
	}
	f.counts = map[string]int{"empty": 0, "full": 2}
	f.descendants["full"] = []model.ExerciseStub{{ID: "e1"}, {ID: "e2"}}
	st := &fakeStore{}

	if err := newTestController(f).ShowTopicPage(context.Background(), st, TopicParams{ClassID: "c1", TopicID: "t1"}); err != nil {
		t.Fatalf("ShowTopicPage: %v", err)
	}
	list := st.page.ContentList
	if len(list) != 1 || list[0].ID != "full" {
		t.Fatalf("expected only 'full', got %+v", list)
	}
	if list[0].NumAssessments != 2 || len(list[0].Exercises) != 2 {
		t.Errorf("full topic not annotated: %+v", list[0])
	}
}

func TestShowTopicPageFetchError(t *testing.T) {
	f := newFakeContent()
	boom := errors.New("boom")
	f.failOn["children"] = boom
	st := &fakeStore{}

	err := newTestController(f).ShowTopicPage(context.Background(), st, TopicParams{ClassID: "c1", TopicID: "t1"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if st.page != nil {
		t.Error("page committed after fetch failure")
	}
	if len(st.handledErrs) != 1 || st.loading {
		t.Errorf("handled=%v loading=%v", st.handledErrs, st.loading)
	}
}

func TestShowPreviewPage(t *testing.T) {
	f := newFakeContent()
	f.nodes["ex1"] = model.ContentNode{
		ID: "ex1", Kind: model.KindExercise, Parent: "topic-42",
		AssessmentMetadata: &model.AssessmentMetadata{
			AssessmentIDs: []string{"q1", "q2", "q3"},
			MasteryModel:  model.MasteryModel{Type: "m_of_n", M: 2, N: 3},
		},
	}
	st := &fakeStore{}

	if err := newTestController(f).ShowPreviewPage(context.Background(), st, PreviewParams{ClassID: "c1", ContentID: "ex1"}); err != nil {
		t.Fatalf("ShowPreviewPage: %v", err)
	}

	route := st.lastToolbar()
	if route.Name != model.PageExamCreationTopic || route.Params["topicId"] != "topic-42" {
		t.Errorf("toolbar = %+v", route)
	}
	if len(st.toolbar) != 2 || st.toolbar[0].Name != "" {
		t.Errorf("expected toolbar reset before back target, got %+v", st.toolbar)
	}
	if st.pageName != model.PageExamCreationPreview {
		t.Errorf("page name = %q", st.pageName)
	}
	if st.preview == nil || len(st.preview.Questions) != 3 || st.preview.CompletionData.M != 2 {
		t.Errorf("preview = %+v", st.preview)
	}
	if st.current == nil || st.current.ID != "ex1" {
		t.Errorf("current node = %+v", st.current)
	}
	if st.loadingOn != 1 || st.loadingOff != 1 {
		t.Errorf("loading toggled on=%d off=%d, want 1/1", st.loadingOn, st.loadingOff)
	}
}

func TestShowPreviewPageError(t *testing.T) {
	f := newFakeContent()
	st := &fakeStore{}

	err := newTestController(f).ShowPreviewPage(context.Background(), st, PreviewParams{ClassID: "c1", ContentID: "missing"})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(st.handledErrs) != 1 {
		t.Errorf("error forwarded %d times, want 1", len(st.handledErrs))
	}
	if st.loadingOn != 1 || st.loadingOff != 1 {
		t.Errorf("loading toggled on=%d off=%d, want 1/1", st.loadingOn, st.loadingOff)
	}
	if st.current != nil || len(st.toolbar) != 0 {
		t.Error("state committed after failed preview fetch")
	}
}

func TestShowSearchPage(t *testing.T) {
	f := newFakeContent()
	f.search = model.SearchResults{
		Results:      []model.ContentNode{{ID: "e1", Kind: model.KindExercise}},
		TotalResults: 12,
	}
	f.ancestors["S1"] = []model.ContentNode{{ID: "A"}}
	st := &fakeStore{selected: []model.ExerciseRef{{ID: "S1"}}}

	err := newTestController(f).ShowSearchPage(context.Background(), st,
		SearchParams{ClassID: "c1", SearchTerm: "fractions"}, SearchFilter{})
	if err != nil {
		t.Fatalf("ShowSearchPage: %v", err)
	}

	if len(f.searchQueries) != 1 {
		t.Fatalf("expected 1 search, got %d", len(f.searchQueries))
	}
	q := f.searchQueries[0]
	if q.Term != "fractions" || q.Kind != model.KindExercise || q.Channel != "" {
		t.Errorf("query = %+v", q)
	}
	if st.page.PageName != model.PageExamCreationSearch {
		t.Errorf("page name = %q", st.page.PageName)
	}
	if st.page.SearchResults == nil || st.page.SearchResults.TotalResults != 12 {
		t.Errorf("search results = %+v", st.page.SearchResults)
	}
	if len(st.page.ContentList) != 1 {
		t.Errorf("content list = %+v", st.page.ContentList)
	}
	if f.ancestorCalls != 1 || st.page.AncestorCounts["A"] != 1 {
		t.Errorf("ancestor counting: calls=%d counts=%v", f.ancestorCalls, st.page.AncestorCounts)
	}
}

func TestSetupPageClassStateError(t *testing.T) {
	f := newFakeContent()
	f.channels = []model.Channel{{ID: "ch1", Name: "Maths"}}
	noClass := errors.New("class not found")
	st := &fakeStore{classErr: noClass}

	err := newTestController(f).ShowRootPage(context.Background(), st, RootParams{ClassID: "nope"})
	if !errors.Is(err, noClass) {
		t.Fatalf("expected class error, got %v", err)
	}
	if st.page != nil || st.ancestors != nil {
		t.Error("state committed after class state failure")
	}
	if len(st.handledErrs) != 1 || st.loading {
		t.Errorf("handled=%v loading=%v", st.handledErrs, st.loading)
	}
}

func TestSetupPageAncestorError(t *testing.T) {
	f := newFakeContent()
	f.search = model.SearchResults{}
	boom := errors.New("ancestors down")
	f.failOn["ancestors"] = boom
	st := &fakeStore{selected: []model.ExerciseRef{{ID: "S1"}}}

	err := newTestController(f).ShowSearchPage(context.Background(), st,
		SearchParams{ClassID: "c1", SearchTerm: "x"}, SearchFilter{Channel: "ch1"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected ancestor error, got %v", err)
	}
	if st.page != nil {
		t.Error("page committed after ancestor failure")
	}
	if f.searchQueries[0].Channel != "ch1" {
		t.Errorf("channel filter = %q", f.searchQueries[0].Channel)
	}
}

func TestSetupPageCountsRequestSelection(t *testing.T) {
	f := newFakeContent()
	f.ancestors = map[string][]model.ContentNode{
		"E1": {{ID: "A"}, {ID: "B"}},
		"E2": {{ID: "A"}, {ID: "C"}},
	}
	st := &fakeStore{selected: []model.ExerciseRef{{ID: "E2"}}}
	st.Loading()

	err := newTestController(f).setupPage(context.Background(), st, model.PageSetupRequest{
		ClassID:  "c1",
		PageName: model.PageExamCreationTopic,
		Selected: []model.ExerciseRef{{ID: "E1"}},
	})
	if err != nil {
		t.Fatalf("setupPage: %v", err)
	}
	want := model.AncestorCounts{"A": 1, "B": 1}
	if !reflect.DeepEqual(st.page.AncestorCounts, want) {
		t.Errorf("counts = %v, want %v", st.page.AncestorCounts, want)
	}
	if st.loading || st.pageCommits != 1 {
		t.Errorf("loading=%v commits=%d", st.loading, st.pageCommits)
	}
}
