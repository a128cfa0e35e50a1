package main

import (
	"fmt"
	"strings"

	"github.com/hkloudou/lakeops"
	"github.com/spf13/cobra"
)

// transformFlags are the update command's transform parameters
type transformFlags struct {
	op              string
	field           string
	value           string
	delta           float64
	raiseIfNegative bool
	start           int
	end             int
	endSet          bool
}

var opNames = []string{
	"delete", "delete-existing", "increment", "decrement",
	"add-to-set", "remove-from-set", "append", "prepend", "slice",
	"set", "merge-patch", "json-patch",
}

// build turns the flags into a transform.
func (f transformFlags) build() (lakeops.Transform, error) {
	if f.field == "" {
		return nil, fmt.Errorf("--field is required")
	}
	needValue := func() error {
		if f.value == "" {
			return fmt.Errorf("--op %s requires --value", f.op)
		}
		return nil
	}

	switch f.op {
	case "delete":
		return lakeops.Delete(f.field), nil
	case "delete-existing":
		return lakeops.DeleteExisting(f.field), nil
	case "increment":
		return lakeops.Increment(f.field, lakeops.WithDelta(f.delta)), nil
	case "decrement":
		numberOpts := []func(*lakeops.NumberOption){lakeops.WithDelta(f.delta)}
		if f.raiseIfNegative {
			numberOpts = append(numberOpts, lakeops.WithRaiseIfNegative())
		}
		return lakeops.Decrement(f.field, numberOpts...), nil
	case "add-to-set", "remove-from-set", "append", "prepend", "set", "merge-patch", "json-patch":
		if err := needValue(); err != nil {
			return nil, err
		}
		v := parseValue(f.value)
		switch f.op {
		case "add-to-set":
			return lakeops.AddToSet(f.field, v), nil
		case "remove-from-set":
			return lakeops.RemoveFromSet(f.field, v), nil
		case "append":
			return lakeops.Append(f.field, v), nil
		case "prepend":
			return lakeops.Prepend(f.field, v), nil
		case "set":
			return lakeops.Set(f.field, v), nil
		case "merge-patch":
			return lakeops.MergePatch(f.field, v), nil
		default:
			return lakeops.JSONPatch(f.field, v), nil
		}
	case "slice":
		if !f.endSet {
			return lakeops.SliceFrom(f.field, f.start), nil
		}
		return lakeops.Slice(f.field, f.start, f.end), nil
	case "":
		return nil, fmt.Errorf("--op is required (%s)", strings.Join(opNames, ", "))
	}
	return nil, fmt.Errorf("unknown --op %q (%s)", f.op, strings.Join(opNames, ", "))
}

func newUpdateCmd(opts *globalOptions) *cobra.Command {
	var (
		tf     transformFlags
		wheres []string
		ids    []int64
	)
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Apply a transform to matching documents and print their ids",
		Long: `Apply one field transform to every matching document.

Operations: ` + strings.Join(opNames, ", ") + `

Examples:
  lakeops update --op increment --field int --delta 9 --where char=a
  lakeops update --op decrement --field stock --raise-if-negative --id 3
  lakeops update --op add-to-set --field tags --value vip --where char=a
  lakeops update --op slice --field list --start 0 --end 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tf.endSet = cmd.Flags().Changed("end")
			transform, err := tf.build()
			if err != nil {
				return err
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

			updated, err := tbl.Update(ctx, transform, q)
			for _, id := range updated {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&tf.op, "op", "", "Transform: "+strings.Join(opNames, ", "))
	flags.StringVar(&tf.field, "field", "", "Field name, or /a/b path for nested fields")
	flags.StringVar(&tf.value, "value", "", "Member, item or patch (JSON or plain string)")
	flags.Float64Var(&tf.delta, "delta", 1, "Step for increment/decrement")
	flags.BoolVar(&tf.raiseIfNegative, "raise-if-negative", false, "Decrement fails instead of going below zero")
	flags.IntVar(&tf.start, "start", 0, "Slice start (negative counts from the end)")
	flags.IntVar(&tf.end, "end", 0, "Slice end, exclusive (default: end of list)")
	addQueryFlags(cmd, &wheres, &ids)
	return cmd
}
