package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInsertCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "insert <json>...",
		Short: "Insert JSON object documents and print their ids",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tbl, closeDB, err := opts.openTable(cmd)
			if err != nil {
				return err
			}
			defer closeDB()
			ctx, done := opts.traceContext(cmd)
			defer done()

			docs := make([]any, len(args))
			for i, arg := range args {
				docs[i] = []byte(arg)
			}
			ids, err := tbl.InsertMultiple(ctx, docs...)
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

func newSearchCmd(opts *globalOptions) *cobra.Command {
	var (
		wheres []string
		ids    []int64
		count  bool
		pretty bool
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Print matching documents, one JSON object per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := buildQuery(wheres, ids)
			if err != nil {
				return err
			}
			tbl, closeDB, err := opts.openTable(cmd)
			if err != nil {
				return err
			}
			defer closeDB()
			ctx, done := opts.traceContext(cmd)
			defer done()

			docs, err := tbl.Search(ctx, q)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if count {
				fmt.Fprintln(out, len(docs))
				return nil
			}
			for _, doc := range docs {
				raw := doc.Raw()
				if pretty {
					raw = doc.Pretty()
				}
				fmt.Fprintf(out, "%d\t%s\n", doc.ID(), raw)
			}
			return nil
		},
	}
	addQueryFlags(cmd, &wheres, &ids)
	cmd.Flags().BoolVarP(&count, "count", "c", false, "Print only the number of matches")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent documents")
	return cmd
}

func newRemoveCmd(opts *globalOptions) *cobra.Command {
	var (
		wheres []string
		ids    []int64
		all    bool
	)
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove matching documents and print their ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(wheres) == 0 && len(ids) == 0 && !all {
				return fmt.Errorf("refusing to remove every document without --all")
			}
			q, err := buildQuery(wheres, ids)
			if err != nil {
				return err
			}
			tbl, closeDB, err := opts.openTable(cmd)
			if err != nil {
				return err
			}
			defer closeDB()
			ctx, done := opts.traceContext(cmd)
			defer done()

			removed, err := tbl.Remove(ctx, q)
			if err != nil {
				return err
			}
			for _, id := range removed {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
	addQueryFlags(cmd, &wheres, &ids)
	cmd.Flags().BoolVar(&all, "all", false, "Allow removing every document")
	return cmd
}
