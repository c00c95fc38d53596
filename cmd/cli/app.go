package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"disputelens/adapters/api"
	"disputelens/adapters/db"
	"disputelens/adapters/excel"
	"disputelens/domain/core"
	"disputelens/internal"
	"disputelens/internal/config"
	"disputelens/internal/session"
	"disputelens/ports"
)

// cliApp holds the collaborators shared by every command
type cliApp struct {
	profile     string
	sessionFlag string

	cfg     *config.Config
	logger  *internal.Logger
	conn    *sqlx.DB
	backend *api.Client
	store   ports.SessionStore
	reader  *excel.DataReader
}

func (a *cliApp) open(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = internal.NewLogger(internal.ParseLogLevel(cfg.Log.Level))

	conn, err := db.Open(ctx, cfg.Store.DSN)
	if err != nil {
		return err
	}
	a.conn = conn
	a.store = db.NewSessionRepository(conn)
	a.reader = excel.NewDataReader(excel.DefaultExcelConfig())
	a.backend = api.NewClient(api.ClientConfig{
		BaseURL: cfg.Backend.URL,
		Timeout: cfg.Backend.Timeout,
		Tracing: cfg.Tracing.Enabled,
	}, a.logger)
	return nil
}

func (a *cliApp) close() error {
	if a.conn == nil {
		return nil
	}
	return a.conn.Close()
}

func (a *cliApp) clientKey() core.ClientKey {
	return core.ClientKey(fmt.Sprintf("cli:%s", a.profile))
}

// session resolves the --session flag first, then the stored session.
func (a *cliApp) session(ctx context.Context) (*session.Context, error) {
	return session.Resolve(ctx, a.sessionFlag, a.clientKey(), a.store)
}
