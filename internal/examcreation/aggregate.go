package examcreation

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/pavelanni/examcreator/internal/model"
)

var exerciseFields = []string{"id", "title", "content_id"}

// topicsWithExerciseDescendants returns, in input order, the topics that have
// at least one assessable exercise descendant, each with its exercises.
// Exercise lists are only fetched for topics that survive the count pass.
func (c *Controller) topicsWithExerciseDescendants(ctx context.Context, topicIDs []string) ([]model.TopicExerciseAggregate, error) {
	if len(topicIDs) == 0 {
		return nil, nil
	}

	counts := make([]int, len(topicIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.limit)
	for i, id := range topicIDs {
		i, id := i, id
		g.Go(func() error {
			n, err := c.content.FetchDescendantAssessmentCount(gctx, id)
			counts[i] = n
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var aggregates []model.TopicExerciseAggregate
	for i, n := range counts {
		if n > 0 {
			aggregates = append(aggregates, model.TopicExerciseAggregate{ID: topicIDs[i], NumAssessments: n})
		}
	}
	if len(aggregates) == 0 {
		return nil, nil
	}

	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(c.limit)
	for i := range aggregates {
		i := i
		g.Go(func() error {
			exercises, err := c.content.FetchDescendants(gctx, aggregates[i].ID, model.KindExercise, exerciseFields)
			aggregates[i].Exercises = exercises
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return aggregates, nil
}

// countAncestors tallies, for every node on the ancestor chain of a selected
// exercise, how many selected exercises sit beneath it.
func (c *Controller) countAncestors(ctx context.Context, selected []model.ExerciseRef) (model.AncestorCounts, error) {
	chains := make([][]model.ContentNode, len(selected))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.limit)
	for i, ex := range selected {
		i, ex := i, ex
		g.Go(func() error {
			chain, err := c.content.FetchAncestors(gctx, ex.ID)
			chains[i] = chain
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	counts := model.AncestorCounts{}
	for _, chain := range chains {
		for _, a := range chain {
			counts[a.ID]++
		}
	}
	return counts, nil
}
