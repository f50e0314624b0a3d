package content

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pavelanni/examcreator/internal/model"
)

func newTestServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", 0)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestFetchNode(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/content/contentnode/ex1/" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		writeJSON(w, map[string]any{
			"id": "ex1", "title": "Fractions", "kind": "exercise", "parent": "topic-42",
			"assessmentmetadata": map[string]any{
				"assessment_item_ids": []string{"q1", "q2"},
				"mastery_model":       map[string]any{"type": "m_of_n", "m": 3, "n": 5},
			},
		})
	})

	node, err := c.FetchNode(context.Background(), "ex1")
	if err != nil {
		t.Fatalf("FetchNode: %v", err)
	}
	if node.Parent != "topic-42" || node.Kind != model.KindExercise {
		t.Errorf("unexpected node: %+v", node)
	}
	md := model.AssessmentMetadataOf(node)
	if len(md.AssessmentIDs) != 2 || md.MasteryModel.M != 3 {
		t.Errorf("unexpected metadata: %+v", md)
	}
}

func TestFetchChildrenKinds(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("parent") != "t1" {
			t.Errorf("parent = %q", q.Get("parent"))
		}
		if q.Get("kind_in") != "topic,exercise" {
			t.Errorf("kind_in = %q", q.Get("kind_in"))
		}
		writeJSON(w, []map[string]any{{"id": "t2", "kind": "topic"}, {"id": "e1", "kind": "exercise"}})
	})

	nodes, err := c.FetchChildren(context.Background(), "t1", model.KindTopic, model.KindExercise)
	if err != nil {
		t.Fatalf("FetchChildren: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("expected 2 children, got %d", len(nodes))
	}
}

func TestSearchChannelFilter(t *testing.T) {
	tests := []struct {
		name        string
		channel     string
		wantChannel bool
	}{
		{"no channel", "", false},
		{"with channel", "ch1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				q := r.URL.Query()
				if q.Get("search") != "fractions" || q.Get("kind") != "exercise" {
					t.Errorf("unexpected query %v", q)
				}
				_, has := q["channel_id"]
				if has != tt.wantChannel {
					t.Errorf("channel_id present = %v, want %v", has, tt.wantChannel)
				}
				writeJSON(w, map[string]any{
					"results":       []map[string]any{{"id": "e1", "kind": "exercise"}},
					"total_results": 41,
				})
			})

			res, err := c.Search(context.Background(), model.SearchQuery{
				Term: "fractions", Kind: model.KindExercise, Channel: tt.channel,
			})
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if res.TotalResults != 41 || len(res.Results) != 1 {
				t.Errorf("unexpected results: %+v", res)
			}
		})
	}
}

func TestDescendantQueries(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch r.URL.Path {
		case "/api/content/contentnode/descendants_assessments/":
			writeJSON(w, []map[string]any{{"id": q.Get("ids"), "num_assessments": 3}})
		case "/api/content/contentnode/descendants/":
			if q.Get("descendant_kind") != "exercise" || q.Get("fields") != "id,title,content_id" {
				t.Errorf("unexpected query %v", q)
			}
			writeJSON(w, []map[string]any{{"id": "e1", "title": "Halves", "content_id": "k1"}})
		default:
			http.NotFound(w, r)
		}
	})

	n, err := c.FetchDescendantAssessmentCount(context.Background(), "t2")
	if err != nil {
		t.Fatalf("FetchDescendantAssessmentCount: %v", err)
	}
	if n != 3 {
		t.Errorf("count = %d, want 3", n)
	}

	stubs, err := c.FetchDescendants(context.Background(), "t2", model.KindExercise, []string{"id", "title", "content_id"})
	if err != nil {
		t.Fatalf("FetchDescendants: %v", err)
	}
	if len(stubs) != 1 || stubs[0].ContentID != "k1" {
		t.Errorf("unexpected stubs: %+v", stubs)
	}
}

func TestAvailableChannels(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("available") != "true" || q.Get("has_exercise") != "true" {
			t.Errorf("unexpected query %v", q)
		}
		writeJSON(w, []map[string]any{{"id": "ch1", "name": "Maths", "root": "ch1"}})
	})

	channels, err := c.FetchAvailableChannels(context.Background(), true)
	if err != nil {
		t.Fatalf("FetchAvailableChannels: %v", err)
	}
	if len(channels) != 1 || channels[0].Name != "Maths" {
		t.Errorf("unexpected channels: %+v", channels)
	}
}

func TestAPIError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such node", http.StatusNotFound)
	})

	_, err := c.FetchAncestors(context.Background(), "nope")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Body != "no such node" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
}

func TestUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := New(base, time.Second)
	_, err := c.FetchNode(context.Background(), "n1")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Error("transport failure reported as an API error")
	}
}
