package data

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/neighborcast/neighborcast-api/internal/data/database"
	"github.com/neighborcast/neighborcast-api/internal/domain/model"
)

// PostQueryRepo resolves bulk query specs against posts and applies flag updates.
type PostQueryRepo struct {
	DB     *sql.DB
	logger *slog.Logger
}

// NewPostQueryRepo creates a PostQueryRepo.
func NewPostQueryRepo(db *sql.DB, logger *slog.Logger) *PostQueryRepo {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostQueryRepo{DB: db, logger: logger.With("component", "post_query_repo")}
}

// BuildResolveQuery translates a resolved spec into one ordered, limited id query.
// Every bulk flow goes through this function so that they agree on the match set.
func BuildResolveQuery(q model.ResolvedPostQuery) (string, []any) {
	spec := q.Spec
	opts := []database.ListQueryOption{
		database.WithAlias("p"),
		database.WithColumns("p.id"),
	}

	if spec.Category != nil || spec.MinScore != nil || spec.MinPodcastScore != nil {
		opts = append(opts, database.WithJoin(database.Join{
			Kind:  database.InnerJoin,
			Table: "llm_scores",
			Alias: "l",
			On:    "l.post_id = p.id",
		}))
	}
	if spec.Sort.RequiresActiveConfig() {
		opts = append(opts, database.WithJoin(database.Join{
			Kind:   database.InnerJoin,
			Table:  "post_scores",
			Alias:  "ps",
			On:     "ps.post_id = p.id AND ps.weight_config_id = $1",
			Params: []any{q.WeightConfigID},
		}))
	}

	if spec.Category != nil {
		opts = append(opts, database.WithCondition(database.WhereRawCond("$1 = ANY(l.categories)", *spec.Category)))
	}
	if spec.MinScore != nil {
		opts = append(opts, database.WithCondition(
			database.WhereCond("l.final_score", database.GreaterThanOrEqual, *spec.MinScore)))
	}
	if spec.MinPodcastScore != nil {
		opts = append(opts, database.WithCondition(database.WhereRawCond(
			"(l.scores->>'podcast_worthy')::double precision >= $1", *spec.MinPodcastScore)))
	}
	if spec.NeighborhoodID != nil {
		opts = append(opts, database.WithCondition(
			database.WhereCond("p.neighborhood_id", database.Equal, *spec.NeighborhoodID)))
	}
	if spec.Saved != nil {
		opts = append(opts, database.WithCondition(database.WhereCond("p.saved", database.Equal, *spec.Saved)))
	}
	if spec.Ignored != nil {
		opts = append(opts, database.WithCondition(database.WhereCond("p.ignored", database.Equal, *spec.Ignored)))
	}
	if spec.Used != nil {
		opts = append(opts, database.WithCondition(
			database.WhereCond("p.used_on_episode", database.Equal, *spec.Used)))
	}

	switch spec.Sort {
	case model.SortScore:
		opts = append(opts, database.WithOrderBy("ps.final_score", spec.Order))
	case model.SortCreatedAt:
		opts = append(opts, database.WithOrderBy("p.created_at", spec.Order))
	case model.SortPostedAt:
		opts = append(opts, database.WithOrderByNullsLast("p.posted_at", spec.Order))
	}
	opts = append(opts,
		database.WithOrderBy("p.id", spec.Order),
		database.WithLimit(q.Limit),
	)

	return database.BuildListQuery(database.NewListQueryOptions("posts", opts...))
}

// ResolveIDs returns the ordered post ids matching q, at most q.Limit of them.
func (r *PostQueryRepo) ResolveIDs(ctx context.Context, q model.ResolvedPostQuery) ([]string, error) {
	query, args := BuildResolveQuery(q)
	return r.queryIDs(ctx, "resolve bulk query", query, args...)
}

// ExistingIDs returns the subset of ids that exist, in input order.
func (r *PostQueryRepo) ExistingIDs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return []string{}, nil
	}
	found, err := r.queryIDs(ctx, "filter existing posts",
		`SELECT id FROM posts WHERE id = ANY($1::uuid[])`, ids)
	if err != nil {
		return nil, err
	}
	present := make(map[string]struct{}, len(found))
	for _, id := range found {
		present[id] = struct{}{}
	}
	out := make([]string, 0, len(found))
	for _, id := range ids {
		if _, ok := present[id]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

// UpdateFlag sets the flag column of the action to true for every id in one statement.
// It returns the number of rows updated.
func (r *PostQueryRepo) UpdateFlag(ctx context.Context, action model.BulkAction, ids []string) (int, error) {
	column := action.FlagColumn()
	if column == "" {
		return 0, fmt.Errorf("action %q does not set a flag", action)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	// column comes from the closed action enumeration.
	res, err := r.DB.ExecContext(ctx,
		fmt.Sprintf(`UPDATE posts SET %s = true WHERE id = ANY($1::uuid[])`, column), ids)
	if err != nil {
		return 0, storeFailure(err, "update post flags")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storeFailure(err, "update post flags rows affected")
	}
	r.logger.InfoContext(ctx, "post flags updated", "action", action, "requested", len(ids), "updated", n)
	return int(n), nil
}

func (r *PostQueryRepo) queryIDs(ctx context.Context, op, query string, args ...any) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeFailure(err, op)
	}
	defer func() { _ = rows.Close() }()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storeFailure(err, op)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storeFailure(err, op)
	}
	return ids, nil
}
