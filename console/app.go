package console

import (
	"fmt"

	"github.com/rs/zerolog"

	"gym-console/api"
	"gym-console/config"
	"gym-console/service"
	"gym-console/session"
)

// App is everything a console front end needs: the restored session, the
// API services and the settings that shape the screens.
type App struct {
	Session           *session.Session
	Auth              *service.Auth
	Services          *service.Services
	PageSize          int
	ReferencePageSize int
	Log               zerolog.Logger

	db *session.Database
}

// Open opens the state database, restores the session and connects the
// services to cfg.APIURL. Close releases the database.
func Open(cfg config.Config, log zerolog.Logger) (*App, error) {
	db, err := session.NewDatabase(cfg.StateDB)
	if err != nil {
		return nil, fmt.Errorf("open state: %w", err)
	}

	opts := []session.Option{session.WithLogger(log)}
	if cfg.SessionKey != "" {
		opts = append(opts, session.WithSealer(session.NewSealer(cfg.SessionKey)))
	}
	sess := session.New(db, opts...)
	if err := sess.Initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("restore session: %w", err)
	}

	client := api.New(cfg.APIURL, sess, api.WithTimeout(cfg.HTTPTimeout), api.WithLogger(log))
	svc := service.NewServices(client)
	return &App{
		Session:           sess,
		Auth:              service.NewAuth(client, svc.Users, sess, log),
		Services:          svc,
		PageSize:          cfg.PageSize,
		ReferencePageSize: cfg.ReferencePageSize,
		Log:               log,
		db:                db,
	}, nil
}

// Close releases the state database.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
