// Package examcreation loads the pages of the coach's exam-creation flow:
// it fetches content nodes, reshapes them and commits the result into a
// page store for rendering.
package examcreation

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/pavelanni/examcreator/internal/model"
)

const defaultMaxConcurrency = 8

// ContentSource reads the content catalog.
type ContentSource interface {
	FetchNode(ctx context.Context, id string) (model.ContentNode, error)
	FetchChildren(ctx context.Context, parentID string, kinds ...model.ContentKind) ([]model.ContentNode, error)
	FetchAncestors(ctx context.Context, id string) ([]model.ContentNode, error)
	Search(ctx context.Context, q model.SearchQuery) (model.SearchResults, error)
	FetchDescendantAssessmentCount(ctx context.Context, topicID string) (int, error)
	FetchDescendants(ctx context.Context, topicID string, kind model.ContentKind, fields []string) ([]model.ExerciseStub, error)
}

// ChannelSource lists content channels.
type ChannelSource interface {
	FetchAvailableChannels(ctx context.Context, hasExercise bool) ([]model.Channel, error)
}

// Store receives the state of one page load. Commits are applied in call
// order.
type Store interface {
	Loading()
	NotLoading()
	SetClassState(ctx context.Context, classID string) error
	SelectedExercises() []model.ExerciseRef
	SetAncestors(ancestors []model.ContentNode)
	CommitPage(state model.PageState)
	SetToolbarRoute(route model.ToolbarRoute)
	SetCurrentContentNode(node model.ContentNode)
	SetPreviewState(preview model.PreviewState)
	SetPageName(name model.PageName)
	HandleAPIError(ctx context.Context, err error)
}

// RootParams selects the channel list page.
type RootParams struct {
	ClassID string
}

// TopicParams selects a topic page.
type TopicParams struct {
	ClassID string
	TopicID string
}

// PreviewParams selects an exercise preview page.
type PreviewParams struct {
	ClassID   string
	ContentID string
}

// SearchParams selects a search results page.
type SearchParams struct {
	ClassID    string
	SearchTerm string
}

// SearchFilter holds the optional query-string filters of a search page.
type SearchFilter struct {
	Channel string
}

// Controller runs the exam-creation page loads.
type Controller struct {
	content  ContentSource
	channels ChannelSource
	limit    int
}

// Option configures a Controller.
type Option func(*Controller)

// WithMaxConcurrency caps the number of content requests in flight during a
// single fan-out.
func WithMaxConcurrency(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.limit = n
		}
	}
}

// New creates a Controller.
func New(content ContentSource, channels ChannelSource, opts ...Option) *Controller {
	c := &Controller{content: content, channels: channels, limit: defaultMaxConcurrency}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// fail ends a page load that hit a fetch error. The error is forwarded to
// the store once and returned to the caller.
func fail(ctx context.Context, st Store, err error) error {
	st.NotLoading()
	st.HandleAPIError(ctx, err)
	return err
}

// ShowRootPage lists the channels that contain exercises.
func (c *Controller) ShowRootPage(ctx context.Context, st Store, p RootParams) error {
	st.Loading()
	channels, err := c.channels.FetchAvailableChannels(ctx, true)
	if err != nil {
		return fail(ctx, st, err)
	}

	list := make([]model.ContentNode, 0, len(channels))
	for _, ch := range channels {
		list = append(list, model.ContentNode{
			ID:          ch.ID,
			Title:       ch.Name,
			Kind:        model.KindChannel,
			ChannelID:   ch.ID,
			Description: ch.Description,
			Thumbnail:   ch.Thumbnail,
		})
	}

	selected, err := loadClass(ctx, st, p.ClassID)
	if err != nil {
		return err
	}
	return c.setupPage(ctx, st, model.PageSetupRequest{
		ClassID:     p.ClassID,
		ContentList: list,
		PageName:    model.PageExamCreationRoot,
		Selected:    selected,
	})
}

// ShowTopicPage lists the exercises and assessable sub-topics of a topic.
func (c *Controller) ShowTopicPage(ctx context.Context, st Store, p TopicParams) error {
	st.Loading()

	var (
		topic     model.ContentNode
		children  []model.ContentNode
		ancestors []model.ContentNode
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		topic, err = c.content.FetchNode(gctx, p.TopicID)
		return err
	})
	g.Go(func() error {
		var err error
		children, err = c.content.FetchChildren(gctx, p.TopicID, model.KindTopic, model.KindExercise)
		return err
	})
	g.Go(func() error {
		var err error
		ancestors, err = c.content.FetchAncestors(gctx, p.TopicID)
		return err
	})
	if err := g.Wait(); err != nil {
		return fail(ctx, st, err)
	}

	var topicIDs []string
	for _, child := range children {
		if child.Kind == model.KindTopic {
			topicIDs = append(topicIDs, child.ID)
		}
	}
	aggregates, err := c.topicsWithExerciseDescendants(ctx, topicIDs)
	if err != nil {
		return fail(ctx, st, err)
	}

	list := mergeTopicAggregates(children, aggregates)
	for i := range list {
		list[i].Thumbnail = list[i].ThumbnailURL()
	}

	trail := make([]model.ContentNode, 0, len(ancestors)+1)
	trail = append(trail, ancestors...)
	trail = append(trail, topic)

	selected, err := loadClass(ctx, st, p.ClassID)
	if err != nil {
		return err
	}
	return c.setupPage(ctx, st, model.PageSetupRequest{
		ClassID:     p.ClassID,
		ContentList: list,
		PageName:    model.PageExamCreationTopic,
		Ancestors:   trail,
		Selected:    selected,
	})
}

// mergeTopicAggregates copies the aggregate of each child topic onto it and
// drops topics without assessable descendants.
func mergeTopicAggregates(children []model.ContentNode, aggregates []model.TopicExerciseAggregate) []model.ContentNode {
	byID := make(map[string]model.TopicExerciseAggregate, len(aggregates))
	for _, a := range aggregates {
		byID[a.ID] = a
	}

	list := make([]model.ContentNode, 0, len(children))
	for _, child := range children {
		if a, ok := byID[child.ID]; ok {
			child.NumAssessments = a.NumAssessments
			child.Exercises = a.Exercises
		}
		if child.Kind == model.KindTopic && child.NumAssessments < 1 {
			continue
		}
		list = append(list, child)
	}
	return list
}

// ShowPreviewPage shows the questions of a single exercise. Loading is
// switched on and off exactly once on both the success and the error path.
func (c *Controller) ShowPreviewPage(ctx context.Context, st Store, p PreviewParams) error {
	st.Loading()
	node, err := c.prepPreview(ctx, st, p.ContentID)
	if err != nil {
		return fail(ctx, st, err)
	}
	st.SetToolbarRoute(model.ToolbarRoute{
		Name:   model.PageExamCreationTopic,
		Params: map[string]string{"topicId": node.Parent},
	})
	st.NotLoading()
	return nil
}

func (c *Controller) prepPreview(ctx context.Context, st Store, contentID string) (model.ContentNode, error) {
	node, err := c.content.FetchNode(ctx, contentID)
	if err != nil {
		return model.ContentNode{}, err
	}
	md := model.AssessmentMetadataOf(node)
	st.SetToolbarRoute(model.ToolbarRoute{})
	st.SetCurrentContentNode(node)
	st.SetPreviewState(model.PreviewState{
		Questions:      md.AssessmentIDs,
		CompletionData: md.MasteryModel,
	})
	st.SetPageName(model.PageExamCreationPreview)
	return node, nil
}

// ShowSearchPage lists the exercises matching a search term.
func (c *Controller) ShowSearchPage(ctx context.Context, st Store, p SearchParams, f SearchFilter) error {
	st.Loading()
	results, err := c.content.Search(ctx, model.SearchQuery{
		Term:    p.SearchTerm,
		Kind:    model.KindExercise,
		Channel: f.Channel,
	})
	if err != nil {
		return fail(ctx, st, err)
	}

	selected, err := loadClass(ctx, st, p.ClassID)
	if err != nil {
		return err
	}
	return c.setupPage(ctx, st, model.PageSetupRequest{
		ClassID:       p.ClassID,
		ContentList:   results.Results,
		PageName:      model.PageExamCreationSearch,
		SearchResults: &results,
		Selected:      selected,
	})
}

// loadClass signals loading and refreshes the class state a root, topic or
// search page is built for. It returns the class's current selection.
func loadClass(ctx context.Context, st Store, classID string) ([]model.ExerciseRef, error) {
	st.Loading()
	if err := st.SetClassState(ctx, classID); err != nil {
		return nil, fail(ctx, st, err)
	}
	return st.SelectedExercises(), nil
}

// setupPage commits the state shared by the root, topic and search pages.
// Ancestor counts are built from req.Selected.
func (c *Controller) setupPage(ctx context.Context, st Store, req model.PageSetupRequest) error {
	ancestors := req.Ancestors
	if ancestors == nil {
		ancestors = []model.ContentNode{}
	}
	st.SetAncestors(ancestors)

	counts := model.AncestorCounts{}
	// The channel list has no breadcrumb to weight.
	if req.PageName != model.PageExamCreationRoot {
		var err error
		counts, err = c.countAncestors(ctx, req.Selected)
		if err != nil {
			return fail(ctx, st, err)
		}
	}

	contentList := req.ContentList
	if contentList == nil {
		contentList = []model.ContentNode{}
	}
	st.CommitPage(model.PageState{
		Ancestors:      ancestors,
		AncestorCounts: counts,
		ContentList:    contentList,
		SearchResults:  req.SearchResults,
		PageName:       req.PageName,
		ToolbarRoute:   model.ToolbarRoute{Name: model.PageExams},
	})
	st.NotLoading()
	return nil
}
