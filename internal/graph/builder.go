package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/govgraph/gov-crawler/cfg"
	"github.com/govgraph/gov-crawler/pkg/log"
)

// Builder turns relationship export documents into graph files.
type Builder struct {
	Config *cfg.Config
	Logger log.Logger
}

func NewBuilder(config *cfg.Config, logger log.Logger) (*Builder, error) {
	return &Builder{
		Config: config,
		Logger: logger,
	}, nil
}

// BuildAll derives the three networks from the documents in dataDir and
// writes one GEXF and one node-link JSON file per network into outDir.
func (b *Builder) BuildAll(ctx context.Context, dataDir, outDir string) error {
	if err := b.MembershipGraph(ctx, dataDir, outDir); err != nil {
		return err
	}
	if err := b.ContributionGraph(ctx, dataDir, outDir); err != nil {
		return err
	}
	return b.ForkingGraph(ctx, dataDir, outDir)
}

// MembershipGraph links organizations sharing members, weighted by the
// number of shared people.
func (b *Builder) MembershipGraph(ctx context.Context, dataDir, outDir string) error {
	return b.weightedGraph(ctx, filepath.Join(dataDir, "member.json"), outDir, "member")
}

// ContributionGraph links organizations sharing contributors.
func (b *Builder) ContributionGraph(ctx context.Context, dataDir, outDir string) error {
	return b.weightedGraph(ctx, filepath.Join(dataDir, "contributor.json"), outDir, "contribution")
}

// ForkingGraph links fork sources to the organizations that forked them,
// directionally.
func (b *Builder) ForkingGraph(ctx context.Context, dataDir, outDir string) error {
	var doc struct {
		Results []ForkRow `json:"results"`
	}
	if err := readResults(filepath.Join(dataDir, "fork_government.json"), &doc); err != nil {
		return err
	}

	g := NewGraph(true)
	for _, row := range doc.Results {
		g.AddNode(row.ForkedFrom, "organization", row.ForkedFromGrouping)
		g.AddNode(row.ForkedBy, "organization", row.ForkedByGrouping)
		g.AddEdge(row.ForkedFrom, row.ForkedBy, 0)
	}
	return b.write(ctx, g, outDir, "fork")
}

func (b *Builder) weightedGraph(ctx context.Context, path, outDir, name string) error {
	var doc struct {
		Results []EdgeRow `json:"results"`
	}
	if err := readResults(path, &doc); err != nil {
		return err
	}

	g := NewGraph(false)
	for _, row := range doc.Results {
		g.AddNode(row.Login1, "organization", row.Grouping1)
		g.AddNode(row.Login2, "organization", row.Grouping2)
		g.AddEdge(row.Login1, row.Login2, row.Count)
	}
	return b.write(ctx, g, outDir, name)
}

func (b *Builder) write(ctx context.Context, g *Graph, outDir, name string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	gexfPath := filepath.Join(outDir, fmt.Sprintf("%s-network.gexf", name))
	if err := g.WriteGEXF(gexfPath); err != nil {
		return err
	}
	jsonPath := filepath.Join(outDir, fmt.Sprintf("%s-network.json", name))
	if err := g.WriteJSON(jsonPath); err != nil {
		return err
	}

	b.Logger.Info(ctx, "Saved %s network (%d nodes, %d edges) to %s and %s",
		name, len(g.Nodes), len(g.Edges), gexfPath, jsonPath)
	return nil
}

func readResults(path string, out interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read export %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse export %s: %w", path, err)
	}
	return nil
}
