package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/google/uuid"
	"github.com/hkloudou/lakeops/table"
	"github.com/hkloudou/lakeops/trace"
	"github.com/spf13/cobra"
)

// globalOptions are the flags shared by every command
type globalOptions struct {
	dbPath    string
	redisURL  string
	tableName string
	aesKey    string
	verbosity int
	trace     bool
	skip      bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "lakeops",
		Short: "lakeops - field-level updates for JSON document tables",
		Long: `lakeops stores JSON documents in tables and changes them in place with
field-level transforms (delete, increment, decrement, add-to-set,
remove-from-set, append, prepend, slice, set, merge-patch, json-patch).

Examples:
  # Insert two documents
  lakeops --db ./data insert '{"char":"a","int":1}' '{"char":"b","int":1}'

  # Increment "int" by 9 where char == "a"
  lakeops --db ./data update --op increment --field int --delta 9 --where char=a

  # Show matching documents
  lakeops --db ./data search --where char=a`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.dbPath, "db", "d", "./lakeops-data", "Data directory for local file storage")
	flags.StringVar(&opts.redisURL, "redis", "", "Redis URL; storage is then read from the lakeops.setting key")
	flags.StringVarP(&opts.tableName, "table", "t", "_default", "Table name")
	flags.StringVar(&opts.aesKey, "aes-key", os.Getenv("LAKEOPS_AES_KEY"), "AES key for file storage (default $LAKEOPS_AES_KEY)")
	flags.IntVarP(&opts.verbosity, "verbose", "v", 0, "Log verbosity (0 = errors only)")
	flags.BoolVar(&opts.trace, "trace", false, "Print a timing trace to stderr")
	flags.BoolVar(&opts.skip, "skip-errors", false, "Update: write the documents that succeed and report the failures")

	rootCmd.AddCommand(
		newInsertCmd(opts),
		newSearchCmd(opts),
		newUpdateCmd(opts),
		newRemoveCmd(opts),
	)
	return rootCmd
}

func (o *globalOptions) logger(w io.Writer) logr.Logger {
	stdr.SetVerbosity(o.verbosity)
	return stdr.New(log.New(w, "", log.LstdFlags)).WithName("lakeops")
}

// openTable opens the configured DB and table. The returned close func
// releases the DB.
func (o *globalOptions) openTable(cmd *cobra.Command) (*table.Table, func(), error) {
	dbOpts := []func(*table.Option){
		table.WithLogger(o.logger(cmd.ErrOrStderr())),
	}
	if o.skip {
		dbOpts = append(dbOpts, table.WithPolicy(table.SkipOnError))
	}

	var db *table.DB
	var err error
	if o.redisURL != "" {
		db, err = table.OpenRedis(o.redisURL, dbOpts...)
	} else {
		db, err = table.Open(append(dbOpts, table.WithFileStorage(o.dbPath, o.aesKey))...)
	}
	if err != nil {
		return nil, nil, err
	}

	tbl, err := db.Table(o.tableName)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return tbl, func() { db.Close() }, nil
}

// traceContext starts a trace named after the command when --trace is
// set; done prints it.
func (o *globalOptions) traceContext(cmd *cobra.Command) (ctx context.Context, done func()) {
	ctx = cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if !o.trace {
		return ctx, func() {}
	}
	ctx = trace.WithTrace(ctx, cmd.Name()+"-"+uuid.NewString()[:8])
	return ctx, func() {
		fmt.Fprint(cmd.ErrOrStderr(), trace.FromContext(ctx).Dump())
	}
}

// parseValue reads a flag value as JSON, falling back to a plain string
// so that --value x works without quoting.
func parseValue(s string) json.RawMessage {
	if json.Valid([]byte(s)) {
		return json.RawMessage(s)
	}
	b, _ := json.Marshal(s)
	return b
}

// buildQuery ANDs --where field=value pairs and --id filters. No filters
// selects every document.
func buildQuery(wheres []string, ids []int64) (table.Query, error) {
	var qs []table.Query
	for _, w := range wheres {
		field, value, ok := strings.Cut(w, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid --where %q: want field=value", w)
		}
		qs = append(qs, table.Where(field).Eq(parseValue(value)))
	}
	if len(ids) > 0 {
		qs = append(qs, table.ByID(ids...))
	}
	switch len(qs) {
	case 0:
		return table.All(), nil
	case 1:
		return qs[0], nil
	}
	return table.And(qs...), nil
}

func addQueryFlags(cmd *cobra.Command, wheres *[]string, ids *[]int64) {
	cmd.Flags().StringArrayVarP(wheres, "where", "w", nil, "Filter field=value (JSON or plain string), repeatable")
	cmd.Flags().Int64SliceVar(ids, "id", nil, "Filter by document id, repeatable")
}
