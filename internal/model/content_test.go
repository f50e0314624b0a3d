package model

import "testing"

func TestThumbnailURL(t *testing.T) {
	tests := []struct {
		name string
		node ContentNode
		want string
	}{
		{"no files", ContentNode{}, ""},
		{"fallback field", ContentNode{Thumbnail: "/t.png"}, "/t.png"},
		{"unavailable file skipped", ContentNode{
			Files: []ContentFile{
				{Thumbnail: true, Available: false, StorageURL: "/a.png"},
				{Thumbnail: true, Available: true, StorageURL: "/b.png"},
			},
		}, "/b.png"},
		{"non-thumbnail file skipped", ContentNode{
			Thumbnail: "/t.png",
			Files:     []ContentFile{{Available: true, StorageURL: "/video.mp4"}},
		}, "/t.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.ThumbnailURL(); got != tt.want {
				t.Errorf("ThumbnailURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAssessmentMetadataOf(t *testing.T) {
	md := AssessmentMetadataOf(ContentNode{ID: "e1"})
	if md.AssessmentIDs == nil || len(md.AssessmentIDs) != 0 {
		t.Errorf("expected empty non-nil ids, got %#v", md.AssessmentIDs)
	}

	src := &AssessmentMetadata{
		AssessmentIDs: []string{"q1", "q2"},
		MasteryModel:  MasteryModel{Type: "do_all"},
	}
	node := ContentNode{AssessmentMetadata: src}
	md = AssessmentMetadataOf(node)
	md.AssessmentIDs[0] = "changed"
	if src.AssessmentIDs[0] != "q1" {
		t.Error("AssessmentMetadataOf must not alias the node's id list")
	}
	if md.MasteryModel.Type != "do_all" {
		t.Errorf("mastery model = %+v", md.MasteryModel)
	}
}

func TestPageSnapshotIsSelected(t *testing.T) {
	s := PageSnapshot{SelectedExercises: []ExerciseRef{{ID: "e1"}}}
	if !s.IsSelected("e1") || s.IsSelected("e2") {
		t.Error("IsSelected mismatch")
	}
}
