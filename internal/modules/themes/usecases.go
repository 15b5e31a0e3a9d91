package themes

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/versegraph/internal/config"
	"github.com/yungbote/versegraph/internal/data/files"
	"github.com/yungbote/versegraph/internal/data/graph"
	"github.com/yungbote/versegraph/internal/modules/themes/steps"
	"github.com/yungbote/versegraph/internal/platform/logger"
	"github.com/yungbote/versegraph/internal/platform/neo4jdb"
	"github.com/yungbote/versegraph/internal/platform/openai"
)

type UsecasesDeps struct {
	Log *logger.Logger
	AI  openai.Client
	// Graph may be nil for Cluster, which only writes the assignment file.
	Graph *neo4jdb.Client
	Cfg   config.Config
}

type Usecases struct {
	deps UsecasesDeps
}

func New(deps UsecasesDeps) Usecases { return Usecases{deps: deps} }

type ThemePipelineOutput = steps.ThemePipelineOutput

// Cluster runs standalone density clustering over the embeddings file and
// writes the verse->label assignment file. No graph writes.
func (u Usecases) Cluster(ctx context.Context) (int, error) {
	log := u.deps.Log.With("usecase", "Cluster", "run_id", uuid.NewString())

	set, err := files.LoadEmbeddings(u.deps.Cfg.Files.Embeddings)
	if err != nil {
		return 0, err
	}

	ids, _, vectors := steps.Flatten(set, false)
	labels := steps.ClusterEmbeddings(vectors, u.deps.Cfg.Cluster.MinClusterSize, u.deps.Cfg.Cluster.Epsilon)

	assignments := steps.Assignments(ids, labels)
	if err := files.SaveClusters(u.deps.Cfg.Files.Clusters, assignments); err != nil {
		return 0, fmt.Errorf("cluster: save: %w", err)
	}
	log.Info("cluster assignments saved",
		"path", u.deps.Cfg.Files.Clusters, "entries", len(assignments))
	return len(assignments), nil
}

// Themes runs the full cluster -> label -> similarity-link pipeline and
// writes Theme nodes and HAS_THEME edges.
func (u Usecases) Themes(ctx context.Context) (ThemePipelineOutput, error) {
	log := u.deps.Log.With("usecase", "Themes", "run_id", uuid.NewString())

	set, err := files.LoadEmbeddings(u.deps.Cfg.Files.Embeddings)
	if err != nil {
		return ThemePipelineOutput{}, err
	}

	return steps.RunThemePipeline(ctx, steps.ThemePipelineDeps{
		Log:   log,
		AI:    u.deps.AI,
		Store: graph.NewThemeStore(u.deps.Graph, log),
		Cfg:   u.deps.Cfg.Themes,
	}, set)
}
