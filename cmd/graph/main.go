// Graph tooling: export relationship documents from the store and build
// network files from them. Runs after a crawl pass, never during one.
package main

import (
	"context"
	"os"

	"github.com/alecthomas/kong"
	"github.com/govgraph/gov-crawler/cfg"
	"github.com/govgraph/gov-crawler/internal/graph"
	"github.com/govgraph/gov-crawler/pkg/db"
	"github.com/govgraph/gov-crawler/pkg/log"
)

var cli struct {
	Export struct {
		Out string `help:"Directory for the relationship export documents (defaults to graph.datadir)."`
	} `cmd:"" help:"Materialize member/contributor/fork exports from the store."`

	Build struct {
		Data string `help:"Directory holding the relationship exports (defaults to graph.datadir)."`
		Out  string `help:"Directory for the generated graph files (defaults to graph.outputdir)."`
	} `cmd:"" help:"Build GEXF and node-link JSON networks from the exports."`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("gov-graph"),
		kong.Description("Derive relationship graphs from crawled data."))

	ctx := context.Background()
	logger, _ := log.NewLogrusLogger()

	loader, _ := cfg.NewViperLoader()
	config, err := loader.Load()
	if err != nil {
		logger.Error(ctx, "Failed to load config: %v", err)
		os.Exit(1)
	}

	switch kctx.Command() {
	case "export":
		out := cli.Export.Out
		if out == "" {
			out = config.Graph.DataDir
		}
		mysql, _ := db.NewMysql(config)
		defer mysql.Close()

		exporter, _ := graph.NewExporter(config, logger, mysql)
		if err := exporter.Export(ctx, out); err != nil {
			logger.Error(ctx, "Export failed: %v", err)
			os.Exit(1)
		}

	case "build":
		data := cli.Build.Data
		if data == "" {
			data = config.Graph.DataDir
		}
		out := cli.Build.Out
		if out == "" {
			out = config.Graph.OutputDir
		}

		builder, _ := graph.NewBuilder(config, logger)
		if err := builder.BuildAll(ctx, data, out); err != nil {
			logger.Error(ctx, "Graph build failed: %v", err)
			os.Exit(1)
		}
	}
}
