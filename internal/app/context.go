package app

import (
	"database/sql"
	"fmt"

	"humanping/internal/catalog"
	"humanping/internal/config"
	"humanping/internal/db"
	"humanping/internal/engine"
	"humanping/internal/migrate"
)

// App wires the database, catalog, and engine for a workspace. Catalog
// construction happens here so a misconfigured tier fails before anything
// serves traffic.
type App struct {
	DB      *sql.DB
	Config  *config.Config
	Catalog *catalog.Catalog
	Engine  engine.Engine
}

// Open loads config (built-in defaults when humanping.yml is absent), opens
// and migrates the workspace database, and builds the engine.
func Open(workspace string) (*App, error) {
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return nil, err
	}
	if err := migrate.Migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &App{
		DB:      conn,
		Config:  cfg,
		Catalog: cat,
		Engine:  engine.New(conn, cat),
	}, nil
}

func (a *App) Close() error {
	return a.DB.Close()
}
