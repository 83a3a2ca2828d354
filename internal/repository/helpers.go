package repository

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
)

// withTx runs fn in the provided tx, or starts a new transaction when tx is nil.
func withTx(ctx context.Context, db *sqlx.DB, tx *sqlx.Tx, fn func(*sqlx.Tx) error) error {
	if tx != nil {
		return fn(tx)
	}

	t, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() { _ = t.Rollback() }()
	if err := fn(t); err != nil {
		return err
	}

	return t.Commit()
}

// orderClause maps an API sort key ("name", "-createdAt") onto a whitelisted
// column, falling back to def for anything unknown.
func orderClause(orderBy string, allowed map[string]string, def string) string {
	dir := " ASC"
	key := orderBy
	if strings.HasPrefix(key, "-") {
		dir = " DESC"
		key = key[1:]
	}
	col, ok := allowed[key]
	if !ok {
		return def + " ASC"
	}
	return col + dir
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// pageArgs appends LIMIT/OFFSET when a positive limit is requested. Limit 0
// means no paging: connection queries fetch the full result set.
func pageArgs(q string, args []any, limit, offset int) (string, []any) {
	if limit <= 0 {
		return q, args
	}
	if limit > 1000 {
		limit = 1000
	}
	if offset < 0 {
		offset = 0
	}
	return q + " LIMIT ? OFFSET ?", append(args, limit, offset)
}
