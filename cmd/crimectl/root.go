package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/couchcryptid/crime-dashboard/internal/adapter/socrata"
	"github.com/couchcryptid/crime-dashboard/internal/config"
	"github.com/couchcryptid/crime-dashboard/internal/dashboard"
	"github.com/couchcryptid/crime-dashboard/internal/domain"
	"github.com/couchcryptid/crime-dashboard/internal/observability"
	"github.com/spf13/cobra"
)

// metrics are registered once per process; commands only feed them.
var metrics = sync.OnceValue(observability.NewMetrics)

// app is the state shared by every subcommand once configuration is loaded.
type app struct {
	cfg         *config.Config
	logger      *slog.Logger
	communities *domain.CommunityTable
	out         io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{out: stdout}

	root := &cobra.Command{
		Use:                "crimectl",
		Short:              "Query Chicago crime incidents by community area.",
		Long:               `crimectl fetches incidents from the City of Chicago open data portal and prints the dashboard views for one community area.`,
		SilenceErrors:      true,
		SilenceUsage:       true,
		DisableSuggestions: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return a.setup(stderr)
		},
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.AddCommand(
		newCommunitiesCmd(a),
		newCategoriesCmd(a),
		newSummaryCmd(a),
		newExportCmd(a),
		newHistoryCmd(a),
	)
	return root
}

// setup loads configuration the same way the server does. Logs go to stderr
// so command output stays machine-readable.
func (a *app) setup(stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = observability.NewWriterLogger(stderr, cfg.LogLevel, "text")

	if cfg.CommunitiesPath == "" {
		a.communities = domain.DefaultCommunities()
		return nil
	}
	f, err := os.Open(cfg.CommunitiesPath)
	if err != nil {
		return fmt.Errorf("open community table: %w", err)
	}
	defer f.Close()
	a.communities, err = domain.LoadCommunities(f)
	return err
}

// service builds a dashboard service backed by the live Socrata client.
func (a *app) service() *dashboard.Service {
	m := metrics()
	client := socrata.NewClient(socrata.Config{
		BaseURL:         a.cfg.SocrataBaseURL(),
		Dataset:         a.cfg.SocrataDataset,
		AppToken:        a.cfg.SocrataAppToken,
		Timeout:         a.cfg.SocrataTimeout,
		MaxRecords:      a.cfg.SocrataMaxRecords,
		RetryCount:      a.cfg.SocrataRetryCount,
		RetryWait:       a.cfg.SocrataRetryWait,
		RateLimit:       a.cfg.SocrataRateLimit,
		BreakerFailures: a.cfg.BreakerFailures,
		BreakerTimeout:  a.cfg.BreakerTimeout,
	}, a.logger, m)

	return dashboard.New(dashboard.Config{
		FetchTimeout:      a.cfg.SocrataTimeout,
		DefaultStart:      a.cfg.DefaultStart,
		DefaultEnd:        a.cfg.DefaultEnd,
		DefaultCategories: a.cfg.DefaultCategories,
		DefaultCommunity:  a.cfg.DefaultCommunity,
	}, client, a.communities, a.logger, m)
}

// queryFlags are the dashboard configuration flags shared by summary and export.
type queryFlags struct {
	start      string
	end        string
	categories []string
	community  string
}

func (f *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.start, "start", "", "First day to include, YYYY-MM-DD (default DEFAULT_START_DATE)")
	cmd.Flags().StringVar(&f.end, "end", "", "Day after the last day to include, YYYY-MM-DD (default DEFAULT_END_DATE)")
	cmd.Flags().StringSliceVarP(&f.categories, "category", "c", nil, "Crime category, repeatable, at most 5 (default DEFAULT_CATEGORIES)")
	cmd.Flags().StringVar(&f.community, "community", "", "Community area name (default DEFAULT_COMMUNITY)")
}

// query overlays the flags that were set onto base.
func (f *queryFlags) query(base domain.Query) (domain.Query, error) {
	q := base
	if f.start != "" {
		d, err := domain.ParseDate(f.start)
		if err != nil {
			return domain.Query{}, fmt.Errorf("--start: %w", err)
		}
		q.Start = d
	}
	if f.end != "" {
		d, err := domain.ParseDate(f.end)
		if err != nil {
			return domain.Query{}, fmt.Errorf("--end: %w", err)
		}
		q.End = d
	}
	if len(f.categories) > 0 {
		q.Categories = make([]domain.Category, len(f.categories))
		for i, c := range f.categories {
			q.Categories[i] = domain.Category(strings.ToUpper(strings.TrimSpace(c)))
		}
	}
	if f.community != "" {
		q.Community = f.community
	}
	return q, nil
}
