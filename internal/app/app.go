// Package app wires configuration into the domain services and hands back
// a ready-to-serve mcpserver.Server, the single place cmd/fred-mcp-server
// depends on.
package app

import (
	"github.com/fredseries/fred-mcp-server/internal/catalog"
	"github.com/fredseries/fred-mcp-server/internal/config"
	"github.com/fredseries/fred-mcp-server/internal/dataset"
	"github.com/fredseries/fred-mcp-server/internal/fredgw"
	"github.com/fredseries/fred-mcp-server/internal/logging"
	"github.com/fredseries/fred-mcp-server/internal/mcpserver"
	"github.com/fredseries/fred-mcp-server/internal/plotsvc"
	"github.com/fredseries/fred-mcp-server/internal/registry"
	"github.com/fredseries/fred-mcp-server/internal/seriesstore"
)

// App holds every wired domain component, kept around so callers (tests,
// the entrypoint) can reach individual services without re-wiring them.
type App struct {
	Config  config.Config
	Gateway *fredgw.Gateway
	Store   *seriesstore.Store
	Builder *dataset.Builder
	Plot    *plotsvc.Service
	Catalog *catalog.Catalog
	Server  *mcpserver.Server
}

// New wires every component from cfg and returns the assembled App plus a
// cleanup func that closes the "app" log file, whose logger is shared by
// every tool handler.
func New(cfg config.Config) (*App, func(), error) {
	log, closeLog, err := logging.New(cfg.DataRoot, "app")
	if err != nil {
		return nil, func() {}, err
	}

	gw := fredgw.New(cfg)
	store := seriesstore.New(cfg.DataRoot)
	builder := dataset.NewBuilder(cfg.DataRoot, gw, cfg.MaxWorkers)
	plot := plotsvc.New(gw, store)
	cat := catalog.New(cfg.DataRoot, cfg.CatalogDefaultLimit)

	deps := registry.Deps{
		Gateway: gw,
		Store:   store,
		Builder: builder,
		Plot:    plot,
		Catalog: cat,
		Config:  cfg,
		Log:     log,
	}

	app := &App{
		Config:  cfg,
		Gateway: gw,
		Store:   store,
		Builder: builder,
		Plot:    plot,
		Catalog: cat,
		Server:  mcpserver.New(deps, cat),
	}
	return app, closeLog, nil
}
