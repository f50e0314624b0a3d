package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pavelanni/examcreator/internal/examcreation"
	"github.com/pavelanni/examcreator/internal/state"
	"github.com/pavelanni/examcreator/internal/store"
)

// pageCmd runs a single exam-creation page load from the command line and
// prints the resulting page state.
func pageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "page",
		Short: "Load one exam-creation page and print its state as JSON",
	}
	cmd.PersistentFlags().String("db", "examcreator.db", "SQLite database path")
	cmd.PersistentFlags().String("class", "", "Class ID (required)")
	cmd.PersistentFlags().StringP("output", "o", "-", "Output file path (- for stdout)")
	addContentFlags(cmd.PersistentFlags())
	addLogFlags(cmd.PersistentFlags())
	_ = cmd.MarkPersistentFlagRequired("class")

	root := &cobra.Command{
		Use:   "root",
		Short: "Channel list",
		Args:  cobra.NoArgs,
		RunE: pageRunner(func(ctx context.Context, c *examcreation.Controller, st *state.PageStore, classID string, _ []string) error {
			return c.ShowRootPage(ctx, st, examcreation.RootParams{ClassID: classID})
		}),
	}
	topic := &cobra.Command{
		Use:   "topic TOPIC_ID",
		Short: "Topic contents",
		Args:  cobra.ExactArgs(1),
		RunE: pageRunner(func(ctx context.Context, c *examcreation.Controller, st *state.PageStore, classID string, args []string) error {
			return c.ShowTopicPage(ctx, st, examcreation.TopicParams{ClassID: classID, TopicID: args[0]})
		}),
	}
	preview := &cobra.Command{
		Use:   "preview CONTENT_ID",
		Short: "Exercise preview",
		Args:  cobra.ExactArgs(1),
		RunE: pageRunner(func(ctx context.Context, c *examcreation.Controller, st *state.PageStore, classID string, args []string) error {
			if err := st.SetClassState(ctx, classID); err != nil {
				return err
			}
			return c.ShowPreviewPage(ctx, st, examcreation.PreviewParams{ClassID: classID, ContentID: args[0]})
		}),
	}
	search := &cobra.Command{
		Use:   "search TERM",
		Short: "Exercise search",
		Args:  cobra.ExactArgs(1),
	}
	search.Flags().String("channel", "", "Restrict the search to one channel")
	search.RunE = pageRunner(func(ctx context.Context, c *examcreation.Controller, st *state.PageStore, classID string, args []string) error {
		channel, _ := search.Flags().GetString("channel")
		return c.ShowSearchPage(ctx, st,
			examcreation.SearchParams{ClassID: classID, SearchTerm: args[0]},
			examcreation.SearchFilter{Channel: channel})
	})

	cmd.AddCommand(root, topic, preview, search)
	return cmd
}

type pageLoad func(ctx context.Context, c *examcreation.Controller, st *state.PageStore, classID string, args []string) error

func pageRunner(load pageLoad) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		setupLogging(cmd)
		v := viperForCmd(cmd)

		db, err := store.New(v.GetString("db"))
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		exams, _ := newController(v)
		st := state.NewPageStore(db)
		loadErr := load(cmd.Context(), exams, st, v.GetString("class"), args)

		if err := writeJSON(v.GetString("output"), st.Snapshot()); err != nil {
			return err
		}
		if loadErr != nil {
			return fmt.Errorf("load page: %w", loadErr)
		}
		return nil
	}
}

func writeJSON(outPath string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, _ = fmt.Fprintln(w)
	return nil
}
