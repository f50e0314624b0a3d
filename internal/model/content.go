package model

// ContentKind is the kind of a node in the content catalog.
type ContentKind string

const (
	KindTopic    ContentKind = "topic"
	KindExercise ContentKind = "exercise"
	KindChannel  ContentKind = "channel"
	KindVideo    ContentKind = "video"
	KindDocument ContentKind = "document"
)

// ContentFile is a file attached to a content node.
type ContentFile struct {
	ID         string `json:"id"`
	Preset     string `json:"preset"`
	Thumbnail  bool   `json:"thumbnail"`
	Available  bool   `json:"available"`
	StorageURL string `json:"storage_url"`
}

// MasteryModel decides when a learner has completed an exercise.
type MasteryModel struct {
	Type string `json:"type"`
	M    int    `json:"m,omitempty"`
	N    int    `json:"n,omitempty"`
}

// AssessmentMetadata describes the questions of an exercise.
type AssessmentMetadata struct {
	AssessmentIDs []string     `json:"assessment_item_ids"`
	MasteryModel  MasteryModel `json:"mastery_model"`
	Randomize     bool         `json:"randomize"`
	Manipulable   bool         `json:"is_manipulable"`
}

// ExerciseStub is the slim projection of an exercise returned by descendant queries.
type ExerciseStub struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	ContentID string `json:"content_id"`
}

// ContentNode is a unit of content: a topic, an exercise, or a channel root.
type ContentNode struct {
	ID                 string              `json:"id"`
	Title              string              `json:"title"`
	Kind               ContentKind         `json:"kind"`
	Parent             string              `json:"parent,omitempty"`
	ContentID          string              `json:"content_id,omitempty"`
	ChannelID          string              `json:"channel_id,omitempty"`
	Description        string              `json:"description,omitempty"`
	NumAssessments     int                 `json:"num_assessments,omitempty"`
	Exercises          []ExerciseStub      `json:"exercises,omitempty"`
	Thumbnail          string              `json:"thumbnail,omitempty"`
	Files              []ContentFile       `json:"files,omitempty"`
	AssessmentMetadata *AssessmentMetadata `json:"assessmentmetadata,omitempty"`
}

// ThumbnailURL returns the storage URL of the node's first available
// thumbnail file, falling back to the thumbnail field itself.
func (n ContentNode) ThumbnailURL() string {
	for _, f := range n.Files {
		if f.Thumbnail && f.Available && f.StorageURL != "" {
			return f.StorageURL
		}
	}
	return n.Thumbnail
}

// AssessmentMetadataOf returns the assessment metadata of a node. Nodes
// without metadata yield an empty value with a non-nil id list.
func AssessmentMetadataOf(n ContentNode) AssessmentMetadata {
	if n.AssessmentMetadata == nil {
		return AssessmentMetadata{AssessmentIDs: []string{}}
	}
	md := *n.AssessmentMetadata
	md.AssessmentIDs = append([]string{}, md.AssessmentIDs...)
	return md
}

// Channel is a content channel available on the device.
type Channel struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Root        string `json:"root"`
	Thumbnail   string `json:"thumbnail"`
	Available   bool   `json:"available"`
}

// SearchQuery restricts a content search.
type SearchQuery struct {
	Term    string
	Kind    ContentKind
	Channel string // empty means no channel filter
}

// SearchResults is a page of search hits plus facet metadata.
type SearchResults struct {
	Results      []ContentNode `json:"results"`
	TotalResults int           `json:"total_results"`
	ContentKinds []ContentKind `json:"content_kinds"`
	ChannelIDs   []string      `json:"channel_ids"`
}

// ExerciseRef identifies an exercise selected into an exam draft.
type ExerciseRef struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	ContentID string `json:"content_id"`
}

// TopicExerciseAggregate is a topic together with its assessable exercise
// descendants.
type TopicExerciseAggregate struct {
	ID             string         `json:"id"`
	NumAssessments int            `json:"num_assessments"`
	Exercises      []ExerciseStub `json:"exercises"`
}
