package main

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/campusfound/internal/claims"
	"github.com/erazemk/campusfound/internal/config"
	"github.com/erazemk/campusfound/internal/db"
	"github.com/erazemk/campusfound/internal/items"
	"github.com/erazemk/campusfound/internal/matching"
	"github.com/erazemk/campusfound/internal/notify"
	"github.com/erazemk/campusfound/internal/storage"
)

// app holds the services built from one configuration.
type app struct {
	db     *sql.DB
	files  *storage.Store
	engine *matching.Engine
	items  *items.Service
	claims *claims.Service
	mail   *notify.Queue
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func matchingOptions(cfg *config.Config) matching.Options {
	m := cfg.Matching
	return matching.Options{
		Scoring: matching.ScoreOptions{
			Weights: matching.Weights{
				Category: m.Weights.Category,
				Text:     m.Weights.Text,
				Date:     m.Weights.Date,
				Location: m.Weights.Location,
			},
			DateWindowDays:  m.DateWindowDays,
			IdentifierFloor: m.IdentifierFloor,
		},
		TopN:     m.TopN,
		MinScore: m.MinScore,
		LockPath: m.LockPath,
	}
}

// openDatabase opens the configured database and brings its schema up to date.
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return database, nil
}

func newApp(cfg *config.Config, database *sql.DB) (*app, error) {
	files, err := storage.New(storage.Options{
		UploadDir:     cfg.Storage.UploadDir,
		StagingDir:    cfg.Storage.StagingDir,
		MaxImageBytes: cfg.Storage.MaxImageBytes,
		MaxDimension:  cfg.Storage.MaxDimension,
	})
	if err != nil {
		return nil, fmt.Errorf("setting up storage: %w", err)
	}

	queue := notify.NewQueue(notify.LogMailer{}, notify.QueueOptions{
		Size:           cfg.Mail.QueueSize,
		MaxAttempts:    cfg.Mail.MaxAttempts,
		InitialBackoff: seconds(cfg.Mail.InitialBackoff),
		MaxBackoff:     seconds(cfg.Mail.MaxBackoff),
	})

	return &app{
		db:     database,
		files:  files,
		engine: matching.NewEngine(database, matchingOptions(cfg)),
		items:  items.NewService(database),
		claims: claims.NewService(database, files, queue, claims.Options{
			MinDescriptionLength: cfg.Claims.MinDescriptionLength,
			MaxImages:            cfg.Storage.MaxImages,
			AutoRejectReason:     cfg.Claims.AutoRejectReason,
		}),
		mail: queue,
	}, nil
}
