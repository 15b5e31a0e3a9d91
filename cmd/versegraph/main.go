// Package main provides the versegraph binary: a staged pipeline that builds
// and enriches a scripture property graph in Neo4j.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/yungbote/versegraph/internal/config"
	"github.com/yungbote/versegraph/internal/data/files"
	"github.com/yungbote/versegraph/internal/domain"
	"github.com/yungbote/versegraph/internal/modules/enrich"
	"github.com/yungbote/versegraph/internal/modules/graphbuild"
	"github.com/yungbote/versegraph/internal/modules/themes"
	"github.com/yungbote/versegraph/internal/platform/logger"
	"github.com/yungbote/versegraph/internal/platform/neo4jdb"
	"github.com/yungbote/versegraph/internal/platform/openai"
)

const version = "0.1.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app is the per-invocation wiring: logger, config, and lazily-opened
// clients. The Neo4j driver is opened once and closed on every exit path.
type app struct {
	log   *logger.Logger
	cfg   config.Config
	graph *neo4jdb.Client
	ai    openai.Client
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		logMode    string
	)

	cmd := &cobra.Command{
		Use:   "versegraph",
		Short: "Scripture property-graph pipeline",
		Long: `Versegraph builds a Book/Chapter/Verse property graph in Neo4j and
enriches it with named entities and embedding-derived themes.

Stages (each idempotent, each runnable on its own):
  build    upsert the corpus tree and the NEXT_VERSE chain
  repair   reconcile verse identity and backfill containment edges
  embed    generate verse embeddings, store on nodes + local backup
  extract  extract people/places per verse via the language model
  link     merge extracted entities and mention edges into the graph
  cluster  density-cluster embeddings to a local assignment file
  themes   cluster, label, and link verses to themes`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Pipeline config file (YAML)")
	cmd.PersistentFlags().StringVar(&logMode, "log-mode", "development", "Log mode (development, production)")

	newApp := func(needGraph, needAI bool) (*app, error) {
		_ = godotenv.Load()

		log, err := logger.New(logMode)
		if err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}

		a := &app{log: log, cfg: cfg}
		if needGraph {
			a.graph, err = neo4jdb.NewFromEnv(log)
			if err != nil {
				return nil, err
			}
		}
		if needAI {
			a.ai, err = openai.NewClient(log)
			if err != nil {
				return nil, err
			}
		}
		return a, nil
	}

	run := func(needGraph, needAI bool, fn func(ctx context.Context, a *app) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(needGraph, needAI)
			if err != nil {
				return err
			}
			defer a.log.Sync()
			if a.graph != nil {
				defer a.graph.Close(context.Background())
			}

			return fn(ctx, a)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "build",
		Short: "Upsert the corpus tree and NEXT_VERSE chain",
		RunE: run(true, false, func(ctx context.Context, a *app) error {
			corpus, err := a.loadCorpus()
			if err != nil {
				return err
			}
			out, err := graphbuild.New(graphbuild.UsecasesDeps{Log: a.log, Graph: a.graph}).Build(ctx, corpus)
			if err != nil {
				return err
			}
			a.log.Info("build done",
				"books_written", out.BooksWritten, "books_failed", out.BooksFailed,
				"verses", out.Verses, "chain_pairs", out.ChainPairs, "chain_errors", out.ChainErrors)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "repair",
		Short: "Reconcile verse identity and backfill structure",
		RunE: run(true, false, func(ctx context.Context, a *app) error {
			corpus, err := a.loadCorpus()
			if err != nil {
				return err
			}
			out, err := graphbuild.New(graphbuild.UsecasesDeps{Log: a.log, Graph: a.graph}).Repair(ctx, corpus)
			if err != nil {
				return err
			}
			a.log.Info("repair done",
				"nodes_examined", out.NodesExamined, "text_matches", out.TextMatches,
				"ambiguous_texts", out.AmbiguousTexts, "unknown_texts", out.UnknownTexts,
				"structure_rows", out.StructureRows, "structure_fails", out.StructureFails)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "embed",
		Short: "Generate and store verse embeddings",
		RunE: run(true, true, func(ctx context.Context, a *app) error {
			corpus, err := a.loadCorpus()
			if err != nil {
				return err
			}
			out, err := a.enrich().Embed(ctx, corpus)
			if err != nil {
				return err
			}
			a.log.Info("embed done",
				"verses", out.Verses, "embedded", out.Embedded,
				"nodes_updated", out.NodesUpdated, "failed_batches", out.FailedBatches)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "extract",
		Short: "Extract people and places per verse",
		RunE: run(false, true, func(ctx context.Context, a *app) error {
			corpus, err := a.loadCorpus()
			if err != nil {
				return err
			}
			out, err := a.enrich().Extract(ctx, corpus)
			if err != nil {
				return err
			}
			a.log.Info("extract done",
				"verses", out.Verses, "extracted", out.Extracted, "failed_batches", out.FailedBatches)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "link",
		Short: "Merge extracted entities and mention edges",
		RunE: run(true, false, func(ctx context.Context, a *app) error {
			corpus, err := a.loadCorpus()
			if err != nil {
				return err
			}
			out, err := a.enrich().Link(ctx, corpus)
			if err != nil {
				return err
			}
			a.log.Info("link done",
				"person_rows", out.PersonRows, "place_rows", out.PlaceRows,
				"linked", out.Linked, "dropped_verses", out.DroppedVerses,
				"failed_batches", out.FailedBatches)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "cluster",
		Short: "Density-cluster embeddings to the assignment file",
		RunE: run(false, false, func(ctx context.Context, a *app) error {
			n, err := a.themes().Cluster(ctx)
			if err != nil {
				return err
			}
			a.log.Info("cluster done", "entries", n)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "themes",
		Short: "Cluster, label, and link verses to themes",
		RunE: run(true, true, func(ctx context.Context, a *app) error {
			out, err := a.themes().Themes(ctx)
			if err != nil {
				return err
			}
			a.log.Info("themes done",
				"verses", out.Verses, "clusters", out.Clusters, "noise", out.Noise,
				"themes", out.Themes, "link_candidates", out.LinkCands,
				"linked", out.Linked, "failed_batches", out.FailedBatches)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("versegraph %s\n", version)
		},
	})

	return cmd
}

func (a *app) loadCorpus() (*domain.Corpus, error) {
	return files.LoadCorpus(a.cfg.Files.Corpus)
}

func (a *app) enrich() enrich.Usecases {
	return enrich.New(enrich.UsecasesDeps{Log: a.log, AI: a.ai, Graph: a.graph, Cfg: a.cfg})
}

func (a *app) themes() themes.Usecases {
	return themes.New(themes.UsecasesDeps{Log: a.log, AI: a.ai, Graph: a.graph, Cfg: a.cfg})
}
