package sqlxrepos

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/kmutombo/veridoc/core"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// getExec returns the executor to run a query on: the transaction injected by
// the service layer if any, the repository's own connection otherwise.
func getExec(db core.DB, exec []core.DBExecutor) core.DBExecutor {
	if len(exec) > 0 && exec[0] != nil {
		return exec[0]
	}
	return db
}

// execQuery builds and runs a write query.
func execQuery(ctx context.Context, exec core.DBExecutor, sqlizer sq.Sqlizer) (sql.Result, error) {
	query, args, err := sqlizer.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	res, err := exec.ExecContext(ctx, query, args...)
	return res, errors.Wrap(err, "executing query")
}

// selectQuery builds and runs a select query, scanning all rows into dest
// (a pointer to a slice of row structs).
func selectQuery(ctx context.Context, exec core.DBExecutor, dest interface{}, sqlizer sq.Sqlizer) error {
	query, args, err := sqlizer.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "executing query")
	}
	defer func() { _ = rows.Close() }()
	return errors.Wrap(sqlx.StructScan(rows, dest), "scanning rows")
}
