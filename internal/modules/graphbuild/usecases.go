package graphbuild

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/versegraph/internal/data/graph"
	"github.com/yungbote/versegraph/internal/domain"
	"github.com/yungbote/versegraph/internal/modules/graphbuild/steps"
	"github.com/yungbote/versegraph/internal/platform/logger"
	"github.com/yungbote/versegraph/internal/platform/neo4jdb"
)

type UsecasesDeps struct {
	Log   *logger.Logger
	Graph *neo4jdb.Client
}

type Usecases struct {
	deps UsecasesDeps
}

func New(deps UsecasesDeps) Usecases { return Usecases{deps: deps} }

type (
	BuildOutput  = steps.BuildOutput
	RepairOutput = steps.RepairOutput
)

// Build constructs the Book/Chapter/Verse containment tree and the
// NEXT_VERSE chain for the whole corpus.
func (u Usecases) Build(ctx context.Context, corpus *domain.Corpus) (BuildOutput, error) {
	log := u.deps.Log.With("usecase", "Build", "run_id", uuid.NewString())

	store := graph.NewCorpusStore(u.deps.Graph, log)
	store.InitSchema(ctx)

	return steps.BuildGraph(ctx, steps.BuildDeps{
		Log:   log,
		Store: store,
	}, corpus)
}

// Repair reconciles verse identity and backfills containment edges on an
// already-populated graph.
func (u Usecases) Repair(ctx context.Context, corpus *domain.Corpus) (RepairOutput, error) {
	log := u.deps.Log.With("usecase", "Repair", "run_id", uuid.NewString())

	return steps.RepairVerseIdentity(ctx, steps.RepairDeps{
		Log:   log,
		Store: graph.NewRepairStore(u.deps.Graph, log),
	}, corpus)
}
