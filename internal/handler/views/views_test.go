package views

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"

	appI18n "github.com/pavelanni/examcreator/internal/i18n"
	"github.com/pavelanni/examcreator/internal/model"
)

func render(t *testing.T, ctx context.Context, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return buf.String()
}

func TestExamCreationPageSanitizesContent(t *testing.T) {
	if err := appI18n.Init("en"); err != nil {
		t.Fatalf("i18n.Init: %v", err)
	}
	snap := model.PageSnapshot{
		Class:    &model.Class{ID: "c1", Name: "Year 4"},
		PageName: model.PageExamCreationTopic,
		ContentList: []model.ContentNode{
			{ID: "t1", Title: "Fractions", Kind: model.KindTopic, Thumbnail: "javascript:alert(1)"},
			{ID: "e 1", Title: `<script>x</script>`, Kind: model.KindExercise, Thumbnail: "https://cdn.example/e1.png"},
		},
	}
	ctx := model.ContextWithBasePath(context.Background(), "/exams")
	html := render(t, ctx, ExamCreationPage("c1", "", snap))

	if strings.Contains(html, "javascript:") {
		t.Errorf("unsafe thumbnail URL rendered:\n%s", html)
	}
	if !strings.Contains(html, `src="about:invalid#TemplFailedSanitizationURL"`) {
		t.Errorf("unsafe thumbnail not replaced:\n%s", html)
	}
	if !strings.Contains(html, `src="https://cdn.example/e1.png"`) {
		t.Errorf("safe thumbnail missing:\n%s", html)
	}
	if strings.Contains(html, "<script>") {
		t.Errorf("title not escaped:\n%s", html)
	}
	if !strings.Contains(html, `href="/exams/coach/c1/exams/new/topic/t1"`) {
		t.Errorf("topic link missing base path:\n%s", html)
	}
	if !strings.Contains(html, `action="/exams/coach/c1/exams/new/select/e%201"`) {
		t.Errorf("select action not path-escaped:\n%s", html)
	}
}

func TestExamCreationPageSelectionState(t *testing.T) {
	if err := appI18n.Init("en"); err != nil {
		t.Fatalf("i18n.Init: %v", err)
	}
	snap := model.PageSnapshot{
		PageName:          model.PageExamCreationSearch,
		ContentList:       []model.ContentNode{{ID: "e1", Title: "Halves", Kind: model.KindExercise}},
		SearchResults:     &model.SearchResults{TotalResults: 1},
		SelectedExercises: []model.ExerciseRef{{ID: "e1", Title: "Halves"}},
	}
	html := render(t, context.Background(), ExamCreationPage("c1", "1/2 & more", snap))

	if !strings.Contains(html, `action="/coach/c1/exams/new/deselect/e1"`) {
		t.Errorf("selected exercise should offer deselect:\n%s", html)
	}
	if !strings.Contains(html, "1/2 &amp; more") {
		t.Errorf("search term not shown escaped:\n%s", html)
	}
}

func TestSelectionPath(t *testing.T) {
	if got := SelectionPath("c1", "a/b", false); got != "/coach/c1/exams/new/select/a%2Fb" {
		t.Errorf("SelectionPath select = %q", got)
	}
	if got := SelectionPath("c1", "e1", true); got != "/coach/c1/exams/new/deselect/e1" {
		t.Errorf("SelectionPath deselect = %q", got)
	}
}

func TestSearchPath(t *testing.T) {
	if got := SearchPath("c1", "1/2 fractions", "ch 1"); got != "/coach/c1/exams/new/search/1%2F2%20fractions?channel=ch+1" {
		t.Errorf("SearchPath = %q", got)
	}
}
