package main

import (
	"context"
	"log/slog"

	"pasturewatch/analysis"
	"pasturewatch/imagery"
	"pasturewatch/models"
	"pasturewatch/narrative"
	"pasturewatch/observability"
	"pasturewatch/store"

	"github.com/jonboulle/clockwork"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type userStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type reportStore interface {
	InsertReport(ctx context.Context, r *models.AnalysisReport) error
	ReportByID(ctx context.Context, id primitive.ObjectID) (*models.AnalysisReport, error)
	ReportsByOwner(ctx context.Context, owner primitive.ObjectID, skip, limit int64) ([]models.AnalysisReport, error)
	DeleteReport(ctx context.Context, id, owner primitive.ObjectID) error
}

type analyzer interface {
	Run(ctx context.Context, aoi analysis.AOI) (*models.AnalysisReport, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type App struct {
	cfg      Config
	users    userStore
	reports  reportStore
	analyzer analyzer
	db       pinger
	logger   *slog.Logger
	metrics  *observability.Metrics
	clock    clockwork.Clock
}

// newApp wires the remote clients and the analysis service on top of an open database.
func newApp(cfg Config, db *store.Mongo, logger *slog.Logger, metrics *observability.Metrics) *App {
	clock := clockwork.NewRealClock()

	img := imagery.NewClient(cfg.ImageryURI, cfg.ImageryTimeout, logger, metrics)
	gen := narrative.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL, cfg.GeminiTimeout)
	narr := narrative.NewNarrator(gen, cfg.NarrativeRPS, logger, metrics)

	svc := analysis.NewService(img, narr, analysis.Options{
		Collection:           cfg.ImageryCollection,
		MaxCloudPercentage:   cfg.MaxCloudPercentage,
		GroundSampleDistance: cfg.GroundSampleDistance,
		LookbackMonths:       cfg.LookbackMonths,
		Breakpoints:          cfg.Breakpoints,
		LocationContext:      cfg.LocationContext,
		Layers:               imagery.DefaultLayers(),
	}, clock, logger, metrics)

	return &App{
		cfg:      cfg,
		users:    db,
		reports:  db,
		analyzer: svc,
		db:       db,
		logger:   logger,
		metrics:  metrics,
		clock:    clock,
	}
}
