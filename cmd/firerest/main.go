// Copyright 2026 The Firerest Authors
// SPDX-License-Identifier: Apache-2.0

// Command firerest is a command-line client for Firestore: reads,
// writes, queries, and counts documents over the REST API using a
// service-account key.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/lanternhq/firerest/lib/firestore"
	"github.com/lanternhq/firerest/lib/serviceaccount"
	"github.com/lanternhq/firerest/lib/value"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		printUsage()
		return fmt.Errorf("subcommand required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	subcommand := os.Args[1]
	args := os.Args[2:]
	switch subcommand {
	case "get":
		return runGet(ctx, args)
	case "create":
		return runCreate(ctx, args)
	case "set":
		return runSet(ctx, args)
	case "update":
		return runUpdate(ctx, args)
	case "delete":
		return runDelete(ctx, args)
	case "list":
		return runList(ctx, args)
	case "query":
		return runQuery(ctx, args)
	case "count":
		return runCount(ctx, args)
	case "-h", "--help", "help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown subcommand: %q", subcommand)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: firerest <subcommand> [flags]

Subcommands:
  get      Fetch one document:            get <collection> <id>
  create   Add a document (server ID):    create <collection> <json>
  set      Write a document under an ID:  set <collection> <id> <json>
  update   Patch fields of a document:    update <collection> <id> <json>
  delete   Remove a document:             delete <collection> <id>
  list     List all documents:            list <collection>
  query    Run a structured query:        query <collection> [<conditions-json>]
  count    Count matching documents:      count <collection> [<where-json>]

A <json> argument of "-" reads the JSON object from stdin. Query
conditions map field names to either a plain value (equality) or an
object of operator tokens, e.g. '{"age": {">=": 18}}'.

Run 'firerest <subcommand> --help' for subcommand flags.
`)
}

// fileConfig is the YAML configuration file shape. Flags override
// file values; the file path itself comes from --config or
// $FIREREST_CONFIG.
type fileConfig struct {
	Project     string `yaml:"project"`
	Database    string `yaml:"database"`
	Credentials string `yaml:"credentials"`
	BaseURL     string `yaml:"base_url"`
}

// clientFlags are the connection flags shared by every subcommand.
type clientFlags struct {
	configPath  string
	project     string
	database    string
	credentials string
	baseURL     string
	verbose     bool
}

func (flags *clientFlags) register(set *pflag.FlagSet) {
	set.StringVar(&flags.configPath, "config", os.Getenv("FIREREST_CONFIG"), "path to a YAML config file")
	set.StringVar(&flags.project, "project", "", "Google Cloud project ID")
	set.StringVar(&flags.database, "database", "", `Firestore database ID (default "(default)")`)
	set.StringVar(&flags.credentials, "credentials", "", "path to a service-account key file")
	set.StringVar(&flags.baseURL, "base-url", "", "Firestore API base URL")
	set.BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")
}

// newClient resolves configuration (flags over config file over
// environment) and builds the API client.
func (flags *clientFlags) newClient() (*firestore.Client, error) {
	var file fileConfig
	if flags.configPath != "" {
		data, err := os.ReadFile(flags.configPath)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", flags.configPath, err)
		}
	}

	config := firestore.Config{
		ProjectID:  firstNonEmpty(flags.project, file.Project),
		DatabaseID: firstNonEmpty(flags.database, file.Database),
		BaseURL:    firstNonEmpty(flags.baseURL, file.BaseURL),
		Logger:     newLogger(flags.verbose),
	}

	if keyPath := firstNonEmpty(flags.credentials, file.Credentials); keyPath != "" {
		config.CredentialsFile = keyPath
	} else {
		credentials, err := serviceaccount.FromEnv()
		if err != nil {
			return nil, fmt.Errorf("no credentials: pass --credentials, set it in the config file, or export GOOGLE_APPLICATION_CREDENTIALS (%w)", err)
		}
		config.Credentials = credentials
		if config.ProjectID == "" {
			config.ProjectID = credentials.ProjectID
		}
	}

	return firestore.NewClient(config)
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// parseFlags parses args and checks the positional argument count.
func parseFlags(set *pflag.FlagSet, args []string, positional int, usage string) ([]string, error) {
	if err := set.Parse(args); err != nil {
		return nil, err
	}
	rest := set.Args()
	if len(rest) != positional {
		return nil, fmt.Errorf("usage: firerest %s", usage)
	}
	return rest, nil
}

// parseFields decodes a JSON object argument ("-" reads stdin) into
// document fields. Numbers decode through json.Number so integers stay
// integers on the wire.
func parseFields(arg string) (map[string]value.Value, error) {
	var reader io.Reader
	if arg == "-" {
		reader = os.Stdin
	} else {
		reader = strings.NewReader(arg)
	}

	decoder := json.NewDecoder(reader)
	decoder.UseNumber()
	var fields map[string]any
	if err := decoder.Decode(&fields); err != nil {
		return nil, fmt.Errorf("parsing JSON object: %w", err)
	}
	return value.FromAnyMap(fields), nil
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// documentOutput is the JSON shape documents are printed in.
type documentOutput struct {
	ID         string         `json:"id"`
	Fields     map[string]any `json:"fields"`
	CreateTime string         `json:"createTime,omitempty"`
	UpdateTime string         `json:"updateTime,omitempty"`
}

func outputDocument(doc *firestore.Document) documentOutput {
	out := documentOutput{
		ID:     doc.ID,
		Fields: value.ToAnyMap(doc.Fields),
	}
	if !doc.CreateTime.IsZero() {
		out.CreateTime = doc.CreateTime.Format(time.RFC3339Nano)
	}
	if !doc.UpdateTime.IsZero() {
		out.UpdateTime = doc.UpdateTime.Format(time.RFC3339Nano)
	}
	return out
}

func outputDocuments(docs []*firestore.Document) []documentOutput {
	out := make([]documentOutput, len(docs))
	for i, doc := range docs {
		out[i] = outputDocument(doc)
	}
	return out
}

func runGet(ctx context.Context, args []string) error {
	var flags clientFlags
	set := pflag.NewFlagSet("get", pflag.ContinueOnError)
	flags.register(set)
	rest, err := parseFlags(set, args, 2, "get <collection> <id>")
	if err != nil {
		return err
	}

	client, err := flags.newClient()
	if err != nil {
		return err
	}
	doc, err := client.GetDocument(ctx, rest[0], rest[1])
	if err != nil {
		return err
	}
	return printJSON(outputDocument(doc))
}

func runCreate(ctx context.Context, args []string) error {
	var flags clientFlags
	set := pflag.NewFlagSet("create", pflag.ContinueOnError)
	flags.register(set)
	rest, err := parseFlags(set, args, 2, "create <collection> <json>")
	if err != nil {
		return err
	}

	fields, err := parseFields(rest[1])
	if err != nil {
		return err
	}
	client, err := flags.newClient()
	if err != nil {
		return err
	}
	id, err := client.CreateDocument(ctx, rest[0], fields)
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

func runSet(ctx context.Context, args []string) error {
	var flags clientFlags
	set := pflag.NewFlagSet("set", pflag.ContinueOnError)
	flags.register(set)
	rest, err := parseFlags(set, args, 3, "set <collection> <id> <json>")
	if err != nil {
		return err
	}

	fields, err := parseFields(rest[2])
	if err != nil {
		return err
	}
	client, err := flags.newClient()
	if err != nil {
		return err
	}
	return client.SetDocument(ctx, rest[0], rest[1], fields)
}

func runUpdate(ctx context.Context, args []string) error {
	var flags clientFlags
	var mask []string
	var replace bool
	set := pflag.NewFlagSet("update", pflag.ContinueOnError)
	flags.register(set)
	set.StringSliceVar(&mask, "mask", nil, "field paths to write (default: the fields present in the JSON)")
	set.BoolVar(&replace, "replace", false, "replace the whole document instead of merging")
	rest, err := parseFlags(set, args, 3, "update <collection> <id> <json>")
	if err != nil {
		return err
	}

	fields, err := parseFields(rest[2])
	if err != nil {
		return err
	}
	client, err := flags.newClient()
	if err != nil {
		return err
	}
	var options *firestore.UpdateOptions
	if replace || len(mask) > 0 {
		options = &firestore.UpdateOptions{Replace: replace, Mask: mask}
	}
	return client.UpdateDocument(ctx, rest[0], rest[1], fields, options)
}

func runDelete(ctx context.Context, args []string) error {
	var flags clientFlags
	set := pflag.NewFlagSet("delete", pflag.ContinueOnError)
	flags.register(set)
	rest, err := parseFlags(set, args, 2, "delete <collection> <id>")
	if err != nil {
		return err
	}

	client, err := flags.newClient()
	if err != nil {
		return err
	}
	return client.DeleteDocument(ctx, rest[0], rest[1])
}

func runList(ctx context.Context, args []string) error {
	var flags clientFlags
	set := pflag.NewFlagSet("list", pflag.ContinueOnError)
	flags.register(set)
	rest, err := parseFlags(set, args, 1, "list <collection>")
	if err != nil {
		return err
	}

	client, err := flags.newClient()
	if err != nil {
		return err
	}
	docs, err := client.ListDocuments(ctx, rest[0])
	if err != nil {
		return err
	}
	return printJSON(outputDocuments(docs))
}

func runQuery(ctx context.Context, args []string) error {
	var flags clientFlags
	var orderBy string
	var descending bool
	var limit, offset int
	var selectFields []string
	set := pflag.NewFlagSet("query", pflag.ContinueOnError)
	flags.register(set)
	set.StringVar(&orderBy, "order-by", "", "field to sort by")
	set.BoolVar(&descending, "desc", false, "sort descending")
	set.IntVar(&limit, "limit", 0, "maximum number of documents")
	set.IntVar(&offset, "offset", 0, "number of documents to skip")
	set.StringSliceVar(&selectFields, "select", nil, "restrict returned fields")

	if err := set.Parse(args); err != nil {
		return err
	}
	rest := set.Args()
	if len(rest) < 1 || len(rest) > 2 {
		return fmt.Errorf("usage: firerest query <collection> [<conditions-json>]")
	}

	options := firestore.QueryOptions{
		OrderBy:    orderBy,
		Descending: descending,
		Limit:      limit,
		Offset:     offset,
		Select:     selectFields,
	}
	if len(rest) == 2 {
		conditions, err := parseFields(rest[1])
		if err != nil {
			return err
		}
		options.Conditions = conditions
	}

	client, err := flags.newClient()
	if err != nil {
		return err
	}
	docs, err := client.QueryDocuments(ctx, rest[0], options)
	if err != nil {
		return err
	}
	return printJSON(outputDocuments(docs))
}

func runCount(ctx context.Context, args []string) error {
	var flags clientFlags
	set := pflag.NewFlagSet("count", pflag.ContinueOnError)
	flags.register(set)
	if err := set.Parse(args); err != nil {
		return err
	}
	rest := set.Args()
	if len(rest) < 1 || len(rest) > 2 {
		return fmt.Errorf("usage: firerest count <collection> [<where-json>]")
	}

	var where map[string]value.Value
	if len(rest) == 2 {
		parsed, err := parseFields(rest[1])
		if err != nil {
			return err
		}
		where = parsed
	}

	client, err := flags.newClient()
	if err != nil {
		return err
	}
	count, err := client.CountDocuments(ctx, rest[0], where)
	if err != nil {
		return err
	}
	fmt.Println(count)
	return nil
}
