// Package devseed loads a small, fixed data set for local development.
package devseed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/neighborcast/neighborcast-api/internal/data/pgxutil"
	"github.com/neighborcast/neighborcast-api/internal/domain/model"
	apperrors "github.com/neighborcast/neighborcast-api/internal/errors"
)

// Actor is recorded as the activator of the seeded default configuration.
const Actor = "devseed"

// Cutover is the part of the cutover service seeding needs.
type Cutover interface {
	Active(ctx context.Context) (string, error)
	Activate(ctx context.Context, configID, actor string) (*model.CutoverResult, error)
}

// Options groups the dependencies of Run.
type Options struct {
	DB      *sql.DB
	Cutover Cutover
	Logger  *slog.Logger
	Now     func() time.Time
}

// Result reports what a seeding run changed.
type Result struct {
	Neighborhoods int                  `json:"neighborhoods"`
	Configs       int                  `json:"weight_configs"`
	Posts         int                  `json:"posts"`
	Activated     *model.CutoverResult `json:"activated,omitempty"`
}

type neighborhood struct {
	id   string
	name string
}

type weightConfig struct {
	id      string
	name    string
	weights string
}

type post struct {
	id             string
	neighborhoodID string
	text           string
	age            time.Duration
	categories     []string
	scores         string
	finalScore     float64
}

// DefaultConfigID is activated when no configuration is active yet.
const DefaultConfigID = "8d0c2a0e-3b7e-4c61-9a43-5f0e2b1d7a01"

var neighborhoods = []neighborhood{
	{id: "2f6d4c1a-7e0b-4f5a-8d3c-1b9e6a2c4d01", name: "Northside"},
	{id: "2f6d4c1a-7e0b-4f5a-8d3c-1b9e6a2c4d02", name: "Riverbend"},
}

var weightConfigs = []weightConfig{
	{
		id:      DefaultConfigID,
		name:    "baseline",
		weights: `{"absurdity":1,"discussion_spark":1,"drama":1,"emotional_intensity":1,"news_value":1,"podcast_worthy":1,"readability":1}`,
	},
	{
		id:      "8d0c2a0e-3b7e-4c61-9a43-5f0e2b1d7a02",
		name:    "podcast-heavy",
		weights: `{"absurdity":1,"discussion_spark":1.5,"drama":1,"emotional_intensity":1,"news_value":0.5,"podcast_worthy":3,"readability":1}`,
	},
}

var posts = []post{
	{
		id:             "c41b7f0e-5a2d-4e8c-b6f1-0d3a9e7c2b01",
		neighborhoodID: neighborhoods[0].id,
		text:           "Has anyone else seen the goat wandering near the library?",
		age:            2 * time.Hour,
		categories:     []string{"animals", "humor"},
		scores:         `{"absurdity":9,"podcast_worthy":8.5,"drama":3}`,
		finalScore:     7.8,
	},
	{
		id:             "c41b7f0e-5a2d-4e8c-b6f1-0d3a9e7c2b02",
		neighborhoodID: neighborhoods[0].id,
		text:           "Road closure on Elm St for water main repair through Friday.",
		age:            26 * time.Hour,
		categories:     []string{"infrastructure"},
		scores:         `{"news_value":8,"podcast_worthy":2}`,
		finalScore:     4.1,
	},
	{
		id:             "c41b7f0e-5a2d-4e8c-b6f1-0d3a9e7c2b03",
		neighborhoodID: neighborhoods[1].id,
		text:           "Heated debate at the HOA meeting about the new fence colors.",
		age:            50 * time.Hour,
		categories:     []string{"community", "drama"},
		scores:         `{"drama":8,"discussion_spark":9,"podcast_worthy":7}`,
		finalScore:     6.9,
	},
}

const (
	insertNeighborhoodSQL = `INSERT INTO neighborhoods (id, name) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`
	insertConfigSQL       = `INSERT INTO weight_configs (id, name, weights) VALUES ($1, $2, $3::jsonb) ON CONFLICT (id) DO NOTHING`
	insertPostSQL         = `
		INSERT INTO posts (id, neighborhood_id, text, posted_at, created_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (id) DO NOTHING`
	insertScoreSQL = `
		INSERT INTO llm_scores (post_id, scores, categories, final_score)
		VALUES ($1, $2::jsonb, $3, $4)
		ON CONFLICT (post_id) DO NOTHING`
)

// Run inserts the seed rows that are missing and activates the default
// configuration when nothing is active. Running it again changes nothing.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.DB == nil {
		return nil, errors.New("devseed: DB is required")
	}
	if opts.Cutover == nil {
		return nil, errors.New("devseed: Cutover is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "devseed")
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	res := &Result{}
	err := pgxutil.WithSQLTx(ctx, opts.DB, pgxutil.SQLTxConfig{Fn: func(tx *sql.Tx) error {
		var err error
		if res.Neighborhoods, err = seedNeighborhoods(ctx, tx); err != nil {
			return err
		}
		if res.Configs, err = seedConfigs(ctx, tx); err != nil {
			return err
		}
		res.Posts, err = seedPosts(ctx, tx, now())
		return err
	}})
	if err != nil {
		return nil, fmt.Errorf("seed rows: %w", err)
	}
	logger.InfoContext(ctx, "seed rows inserted",
		"neighborhoods", res.Neighborhoods, "weight_configs", res.Configs, "posts", res.Posts)

	activated, err := activateDefault(ctx, opts.Cutover)
	if err != nil {
		return nil, err
	}
	if activated != nil {
		logger.InfoContext(ctx, "default weight config activated", "config_id", activated.ConfigID)
	}
	res.Activated = activated
	return res, nil
}

func seedNeighborhoods(ctx context.Context, tx *sql.Tx) (int, error) {
	inserted := 0
	for _, n := range neighborhoods {
		added, err := execInsert(ctx, tx, insertNeighborhoodSQL, n.id, n.name)
		if err != nil {
			return 0, fmt.Errorf("neighborhood %s: %w", n.name, err)
		}
		inserted += added
	}
	return inserted, nil
}

func seedConfigs(ctx context.Context, tx *sql.Tx) (int, error) {
	inserted := 0
	for _, c := range weightConfigs {
		added, err := execInsert(ctx, tx, insertConfigSQL, c.id, c.name, c.weights)
		if err != nil {
			return 0, fmt.Errorf("weight config %s: %w", c.name, err)
		}
		inserted += added
	}
	return inserted, nil
}

func seedPosts(ctx context.Context, tx *sql.Tx, now time.Time) (int, error) {
	inserted := 0
	for _, p := range posts {
		added, err := execInsert(ctx, tx, insertPostSQL, p.id, p.neighborhoodID, p.text, now.Add(-p.age))
		if err != nil {
			return 0, fmt.Errorf("post %s: %w", p.id, err)
		}
		if _, err := execInsert(ctx, tx, insertScoreSQL, p.id, p.scores, p.categories, p.finalScore); err != nil {
			return 0, fmt.Errorf("llm score %s: %w", p.id, err)
		}
		inserted += added
	}
	return inserted, nil
}

func execInsert(ctx context.Context, tx *sql.Tx, query string, args ...any) (int, error) {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func activateDefault(ctx context.Context, cutover Cutover) (*model.CutoverResult, error) {
	_, err := cutover.Active(ctx)
	switch {
	case err == nil:
		return nil, nil
	case apperrors.IsNoActiveConfiguration(err):
		res, err := cutover.Activate(ctx, DefaultConfigID, Actor)
		if err != nil {
			return nil, fmt.Errorf("activate default config: %w", err)
		}
		return res, nil
	default:
		return nil, fmt.Errorf("read active config: %w", err)
	}
}
