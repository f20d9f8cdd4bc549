package tpch

import (
	"context"
	"database/sql"
	"path/filepath"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// store is the engine-local database holding the generated slice until it is exported
type store struct {
	db   *sql.DB
	path string
}

func openStore(ctx context.Context, workspace string, threads int) (*store, error) {
	path := filepath.Join(workspace, "tpch.db")
	dsn := "file:" + path + "?_pragma=journal_mode(OFF)&_pragma=synchronous(OFF)&_pragma=busy_timeout(10000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open store:%v", path)
	}
	if threads < 1 {
		threads = 1
	}
	db.SetMaxOpenConns(threads)
	for _, t := range tables {
		if _, err = db.ExecContext(ctx, t.createSQL()); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "create table:%v", t.name)
		}
	}
	return &store{db: db, path: path}, nil
}

// load inserts rows produced by gen, committing every batchSize rows. It returns the row count per table.
func (s *store) load(ctx context.Context, batchSize int, gen func(emit func(t *table, row []interface{}) error) error) (map[string]int64, error) {
	counts := map[string]int64{}
	var (
		tx      *sql.Tx
		stmts   map[*table]*sql.Stmt
		pending int
	)
	begin := func() error {
		var err error
		tx, err = s.db.BeginTx(ctx, nil)
		if err != nil {
			return errors.Wrap(err, "begin load transaction")
		}
		stmts = map[*table]*sql.Stmt{}
		pending = 0
		return nil
	}
	commit := func() error {
		for _, st := range stmts {
			st.Close()
		}
		return errors.Wrap(tx.Commit(), "commit load transaction")
	}
	if err := begin(); err != nil {
		return nil, err
	}

	err := gen(func(t *table, row []interface{}) error {
		st, ok := stmts[t]
		if !ok {
			var err error
			if st, err = tx.PrepareContext(ctx, t.insertSQL()); err != nil {
				return errors.Wrapf(err, "prepare insert:%v", t.name)
			}
			stmts[t] = st
		}
		if _, err := st.ExecContext(ctx, row...); err != nil {
			return errors.Wrapf(err, "insert into %v", t.name)
		}
		counts[t.name]++
		pending++
		if pending >= batchSize {
			if err := commit(); err != nil {
				return err
			}
			return begin()
		}
		return nil
	})
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err = commit(); err != nil {
		return nil, err
	}
	return counts, nil
}

// bounds returns the rowid range [lo, hi) of t; lo == hi when t is empty
func (s *store) bounds(ctx context.Context, t *table) (int64, int64, error) {
	var lo, hi sql.NullInt64
	err := s.db.QueryRowContext(ctx, "SELECT MIN(rowid), MAX(rowid) FROM "+t.name).Scan(&lo, &hi)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "row bounds of %v", t.name)
	}
	if !lo.Valid {
		return 0, 0, nil
	}
	return lo.Int64, hi.Int64 + 1, nil
}

// scan calls fn for each row of t with rowid in [from, to). fn receives pointers that are reused between rows.
func (s *store) scan(ctx context.Context, t *table, from, to int64, fn func(dest []interface{}) error) error {
	if from >= to {
		return nil
	}
	rows, err := s.db.QueryContext(ctx, t.selectSQL(), from, to)
	if err != nil {
		return errors.Wrapf(err, "select from %v", t.name)
	}
	defer rows.Close()

	dest := make([]interface{}, len(t.columns))
	for i, c := range t.columns {
		switch c.kind {
		case kindInt64, kindDate:
			dest[i] = new(int64)
		case kindFloat64:
			dest[i] = new(float64)
		default:
			dest[i] = new(string)
		}
	}
	for rows.Next() {
		if err = rows.Scan(dest...); err != nil {
			return errors.Wrapf(err, "scan %v", t.name)
		}
		if err = fn(dest); err != nil {
			return err
		}
	}
	return errors.Wrapf(rows.Err(), "read %v", t.name)
}

func (s *store) Close() error {
	return s.db.Close()
}
