package model

// PageName identifies a coach page.
type PageName string

const (
	PageExams               PageName = "EXAMS"
	PageExamCreationRoot    PageName = "EXAM_CREATION_ROOT"
	PageExamCreationTopic   PageName = "EXAM_CREATION_TOPIC"
	PageExamCreationPreview PageName = "EXAM_CREATION_PREVIEW"
	PageExamCreationSearch  PageName = "EXAM_CREATION_SEARCH"
)

// ToolbarRoute is the target of the toolbar's back button.
type ToolbarRoute struct {
	Name   PageName          `json:"name,omitempty"`
	Params map[string]string `json:"params,omitempty"`
}

// AncestorCounts maps a content node id to the number of selected
// exercises that have it as an ancestor.
type AncestorCounts map[string]int

// PreviewState is what the exercise preview page shows.
type PreviewState struct {
	Questions      []string     `json:"questions"`
	CompletionData MasteryModel `json:"completion_data"`
}

// PageSetupRequest is the input of the shared exam-creation page setup.
type PageSetupRequest struct {
	ClassID       string
	ContentList   []ContentNode
	PageName      PageName
	Ancestors     []ContentNode
	SearchResults *SearchResults
	// Selected is the class's exercise selection the ancestor counts are
	// built from.
	Selected      []ExerciseRef
}

// PageState is what the shared page setup commits.
type PageState struct {
	Ancestors      []ContentNode  `json:"ancestors"`
	AncestorCounts AncestorCounts `json:"ancestor_counts"`
	ContentList    []ContentNode  `json:"content_list"`
	SearchResults  *SearchResults `json:"search_results,omitempty"`
	PageName       PageName       `json:"page_name"`
	ToolbarRoute   ToolbarRoute   `json:"toolbar_route"`
}

// PageSnapshot is the full state of one exam-creation page load, ready to
// render.
type PageSnapshot struct {
	Class              *Class         `json:"class,omitempty"`
	PageName           PageName       `json:"page_name"`
	ToolbarRoute       ToolbarRoute   `json:"toolbar_route"`
	Loading            bool           `json:"loading"`
	Ancestors          []ContentNode  `json:"ancestors"`
	AncestorCounts     AncestorCounts `json:"ancestor_counts"`
	ContentList        []ContentNode  `json:"content_list"`
	SearchResults      *SearchResults `json:"search_results,omitempty"`
	SelectedExercises  []ExerciseRef  `json:"selected_exercises"`
	CurrentContentNode *ContentNode   `json:"current_content_node,omitempty"`
	Preview            *PreviewState  `json:"preview,omitempty"`
	Error              string         `json:"error,omitempty"`
}

// IsSelected reports whether the exercise is part of the exam draft.
func (s PageSnapshot) IsSelected(id string) bool {
	for _, e := range s.SelectedExercises {
		if e.ID == id {
			return true
		}
	}
	return false
}
