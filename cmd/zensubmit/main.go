package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iho/zensubmit/internal/adapter/idgen"
	"github.com/iho/zensubmit/internal/adapter/repository/file"
	redisstore "github.com/iho/zensubmit/internal/adapter/repository/redis"
	"github.com/iho/zensubmit/internal/adapter/zenmoney"
	"github.com/iho/zensubmit/internal/domain"
	"github.com/iho/zensubmit/internal/infrastructure/config"
	"github.com/iho/zensubmit/internal/infrastructure/logger"
	"github.com/iho/zensubmit/internal/infrastructure/metrics"
	"github.com/iho/zensubmit/internal/infrastructure/redis"
	"github.com/iho/zensubmit/internal/usecase"
)

const longHelp = `zensubmit turns parsed bank transactions into ZenMoney transactions.

Transactions arrive as a JSON array on stdin. The safe path is two steps:

  zensubmit --prepare --account ID < transactions.json
      fetches the category groups and writes a review artifact
  zensubmit --submit-review
      sends the (possibly hand-edited) artifact as one batch

A direct submit skips the review; add --dry-run to print the payload instead.

ZenMoney is not known to deduplicate transactions. If a submit fails after
the request was sent, some transactions may already be stored: check the
ledger before re-running, or the batch may be posted twice.`

const usageExamples = `  zensubmit --list-accounts --cookie "PHPSESSID=..."
  zensubmit --list-categories --cookie "PHPSESSID=..."
  zensubmit --list-category-groups --cookie "PHPSESSID=..."
  zensubmit --prepare --cookie "PHPSESSID=..." --account ID < transactions.json
  zensubmit --submit-review --cookie "PHPSESSID=..."
  zensubmit [--dry-run] --cookie "PHPSESSID=..." --account ID < transactions.json`

type options struct {
	cookie  string
	account string

	listAccounts       bool
	listCategories     bool
	listCategoryGroups bool
	prepare            bool
	submitReview       bool
	dryRun             bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one invocation and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Error: invalid configuration: %v\n", err)
		return 1
	}

	log := logger.NewWithWriter(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}, stderr)
	m := metrics.New()

	cmd := newRootCmd(cfg, log, m, stdin)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err = cmd.ExecuteContext(ctx)

	if cfg.MetricsTextfile != "" {
		if werr := m.WriteTextfile(cfg.MetricsTextfile); werr != nil {
			log.Warn().Err(werr).Str("path", cfg.MetricsTextfile).Msg("failed to write metrics")
		}
	}

	if err == nil {
		return 0
	}

	log.Error().Err(err).Msg("zensubmit failed")
	fmt.Fprintf(stderr, "Error: %v\n", err)
	if errors.Is(err, domain.ErrUsage) {
		fmt.Fprintf(stderr, "\nUsage:\n%s\n", usageExamples)
	}
	return 1
}

func newRootCmd(cfg *config.Config, log zerolog.Logger, m *metrics.Metrics, stdin io.Reader) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "zensubmit",
		Short:         "Submit parsed transactions to ZenMoney",
		Long:          longHelp,
		Example:       usageExamples,
		Args:          noArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.cookie == "" {
				opts.cookie = cfg.Cookie
			}
			if opts.account == "" {
				opts.account = cfg.DefaultAccountID
			}
			return execute(cmd.Context(), cmd.OutOrStdout(), stdin, cfg, log, m, opts)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", domain.ErrUsage, err)
	})

	flags := cmd.Flags()
	flags.StringVar(&opts.cookie, "cookie", "", "ZenMoney session cookie (default $ZEN_COOKIE)")
	flags.StringVar(&opts.account, "account", "", "target account id (default $DEFAULT_ACCOUNT_ID)")
	flags.BoolVar(&opts.listAccounts, "list-accounts", false, "list accounts")
	flags.BoolVar(&opts.listCategories, "list-categories", false, "list categories")
	flags.BoolVar(&opts.listCategoryGroups, "list-category-groups", false, "list the category groups --prepare would store")
	flags.BoolVar(&opts.prepare, "prepare", false, "write a review artifact from stdin")
	flags.BoolVar(&opts.submitReview, "submit-review", false, "submit the review artifact")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "print the direct submit payload instead of sending it")

	return cmd
}

func noArgs(_ *cobra.Command, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("%w: unexpected argument %q", domain.ErrUsage, args[0])
	}
	return nil
}

// operation returns the metric name of the selected mode, validating that at
// most one mode is set.
func (o options) operation() (string, error) {
	modes := map[string]bool{
		"list_accounts":        o.listAccounts,
		"list_categories":      o.listCategories,
		"list_category_groups": o.listCategoryGroups,
		"prepare":              o.prepare,
		"submit_review":        o.submitReview,
	}

	selected := "submit"
	n := 0
	for name, on := range modes {
		if on {
			selected = name
			n++
		}
	}
	if n > 1 {
		return "", fmt.Errorf("%w: choose one of --list-accounts, --list-categories, --list-category-groups, --prepare, --submit-review", domain.ErrUsage)
	}
	if o.dryRun && selected != "submit" {
		return "", fmt.Errorf("%w: --dry-run only applies to a direct submit", domain.ErrUsage)
	}
	if selected == "submit" && o.dryRun {
		selected = "dry_run"
	}
	return selected, nil
}

func execute(
	ctx context.Context,
	out io.Writer,
	stdin io.Reader,
	cfg *config.Config,
	log zerolog.Logger,
	m *metrics.Metrics,
	opts options,
) (err error) {
	op, err := opts.operation()
	if err != nil {
		return err
	}
	if opts.cookie == "" {
		return fmt.Errorf("%w: --cookie is required", domain.ErrUsage)
	}

	start := time.Now()
	defer func() { m.ObserveOperation(op, start, err) }()

	hints, err := cfg.Hints()
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(ctx, cfg, opts.prepare || opts.submitReview)
	if err != nil {
		return err
	}
	defer closeStore()

	httpClient := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: m.InstrumentRoundTripper(http.DefaultTransport),
	}
	uc := usecase.NewPipelineUseCase(
		zenmoney.NewClient(httpClient, cfg.BaseURL),
		store,
		usecase.NewNormalizer(hints),
		idgen.NewULIDGenerator(),
		log,
	)

	switch op {
	case "list_accounts":
		accounts, err := uc.ListAccounts(ctx, opts.cookie)
		if err != nil {
			return err
		}
		for _, acc := range accounts {
			fmt.Fprintf(out, "%s\t%s\t%s\tbalance: %s\n", acc.ID, acc.Title, acc.Type, acc.Balance)
		}
		return nil

	case "list_categories":
		categories, err := uc.ListCategories(ctx, opts.cookie)
		if err != nil {
			return err
		}
		for _, cat := range categories {
			parent := ""
			if cat.ParentID != nil {
				parent = fmt.Sprintf(" (parent: %d)", *cat.ParentID)
			}
			fmt.Fprintf(out, "%s\t%s%s\t%s\n", cat.ID, cat.Title, parent, cat.Type)
		}
		return nil

	case "list_category_groups":
		groups, err := uc.ListCategoryGroups(ctx, opts.cookie)
		if err != nil {
			return err
		}
		for _, g := range groups {
			fmt.Fprintf(out, "%d\t%s\t%s\n", g.ID, g.Label, g.Type)
		}
		return nil

	case "prepare":
		res, err := uc.Prepare(ctx, usecase.PrepareInput{
			Credential: opts.cookie,
			AccountID:  opts.account,
			Input:      stdin,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Review file written to %s\n", res.Location)
		fmt.Fprintf(out, "%d transaction(s), %d categories. Edit the file, then run --submit-review.\n",
			len(res.Artifact.Transactions), len(res.Artifact.Categories))
		return nil

	case "submit_review":
		res, err := uc.SubmitReview(ctx, opts.cookie)
		if err != nil {
			return err
		}
		m.ObserveTransactions(len(res.Transactions), false)
		return printSubmitResult(out, res)

	default:
		res, err := uc.Submit(ctx, usecase.SubmitInput{
			Credential: opts.cookie,
			AccountID:  opts.account,
			Input:      stdin,
			DryRun:     opts.dryRun,
		})
		if err != nil {
			return err
		}
		m.ObserveTransactions(len(res.Transactions), res.DryRun)
		return printSubmitResult(out, res)
	}
}

// openStore returns the review store. The redis backend is only connected
// when the operation needs the artifact.
func openStore(ctx context.Context, cfg *config.Config, needed bool) (usecase.ReviewStore, func(), error) {
	if cfg.ReviewStore != config.StoreRedis || !needed {
		return file.NewReviewStore(cfg.ReviewFile), func() {}, nil
	}

	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return redisstore.NewReviewStore(client, cfg.RedisReviewKey), func() { _ = client.Close() }, nil
}

func printSubmitResult(out io.Writer, res *usecase.SubmitResult) error {
	if res.DryRun {
		payload, err := marshalIndent(res.Transactions)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "=== DRY RUN - would submit: ===")
		fmt.Fprintln(out, payload)
		return nil
	}

	if len(res.Transactions) == 0 {
		fmt.Fprintln(out, "Nothing to submit.")
		return nil
	}

	fmt.Fprintf(out, "Submitted %d transaction(s) (run %s)\n", len(res.Transactions), res.RunID)
	if len(res.Response) == 0 {
		fmt.Fprintln(out, "Success")
		return nil
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, res.Response, "", "  "); err != nil {
		fmt.Fprintf(out, "Success: %s\n", res.Response)
		return nil
	}
	fmt.Fprintf(out, "Success: %s\n", buf.String())
	return nil
}

func marshalIndent(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
