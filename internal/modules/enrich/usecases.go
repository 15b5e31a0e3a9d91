package enrich

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/versegraph/internal/config"
	"github.com/yungbote/versegraph/internal/data/files"
	"github.com/yungbote/versegraph/internal/data/graph"
	"github.com/yungbote/versegraph/internal/domain"
	"github.com/yungbote/versegraph/internal/modules/enrich/steps"
	"github.com/yungbote/versegraph/internal/platform/logger"
	"github.com/yungbote/versegraph/internal/platform/neo4jdb"
	"github.com/yungbote/versegraph/internal/platform/openai"
)

type UsecasesDeps struct {
	Log   *logger.Logger
	AI    openai.Client
	Graph *neo4jdb.Client
	Cfg   config.Config
}

type Usecases struct {
	deps UsecasesDeps
}

func New(deps UsecasesDeps) Usecases { return Usecases{deps: deps} }

type (
	EmbedOutput   = steps.EmbedOutput
	ExtractOutput = steps.ExtractOutput
	LinkOutput    = steps.LinkOutput
)

// Embed generates verse embeddings, stores them on the graph, and writes the
// local embeddings backup file.
func (u Usecases) Embed(ctx context.Context, corpus *domain.Corpus) (EmbedOutput, error) {
	log := u.deps.Log.With("usecase", "Embed", "run_id", uuid.NewString())

	set, out, err := steps.EmbedVerses(ctx, steps.EmbedDeps{
		Log:   log,
		AI:    u.deps.AI,
		Store: graph.NewCorpusStore(u.deps.Graph, log),
		Cfg:   u.deps.Cfg.Embed,
	}, corpus)
	if err != nil {
		return out, err
	}

	if err := files.SaveEmbeddings(u.deps.Cfg.Files.Embeddings, set); err != nil {
		return out, fmt.Errorf("embed: save backup: %w", err)
	}
	log.Info("embeddings saved", "path", u.deps.Cfg.Files.Embeddings, "count", len(set))
	return out, nil
}

// Extract runs entity extraction over the corpus and writes the extracted
// entities file consumed by Link.
func (u Usecases) Extract(ctx context.Context, corpus *domain.Corpus) (ExtractOutput, error) {
	log := u.deps.Log.With("usecase", "Extract", "run_id", uuid.NewString())

	entries, out, err := steps.ExtractEntities(ctx, steps.ExtractDeps{
		Log: log,
		AI:  u.deps.AI,
		Cfg: u.deps.Cfg.Extract,
	}, corpus)
	if err != nil {
		return out, err
	}

	if err := files.SaveEntities(u.deps.Cfg.Files.Entities, entries); err != nil {
		return out, fmt.Errorf("extract: save: %w", err)
	}
	log.Info("entities saved", "path", u.deps.Cfg.Files.Entities, "entries", len(entries))
	return out, nil
}

// Link loads the extracted entities file and merges mention edges into the
// graph.
func (u Usecases) Link(ctx context.Context, corpus *domain.Corpus) (LinkOutput, error) {
	log := u.deps.Log.With("usecase", "Link", "run_id", uuid.NewString())

	entries, err := files.LoadEntities(u.deps.Cfg.Files.Entities)
	if err != nil {
		return LinkOutput{}, err
	}

	return steps.LinkEntities(ctx, steps.LinkDeps{
		Log:   log,
		Store: graph.NewEntityStore(u.deps.Graph, log),
		Cfg:   u.deps.Cfg.Entities,
	}, corpus, entries)
}
