package tpchgen

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gizmodata/tpch-datagen/util"
	_ "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// Repository persists the run history of datagen jobs
type Repository interface {
	SaveJobExecution(ctx context.Context, execution *JobExecution) error
	SaveUnitExecution(ctx context.Context, execution *UnitExecution) error
	Close() error
}

// OpenRepository opens the run history named by dsn: "" keeps no history,
// sqlite://<path> and mysql://<go-sql-driver dsn> store it in a database.
func OpenRepository(ctx context.Context, dsn string) (Repository, error) {
	if dsn == "" {
		return &nopRepository{}, nil
	}
	idx := strings.Index(dsn, "://")
	if idx <= 0 {
		return nil, NewBatchError(ErrCodeConfig, "invalid history dsn %q, expect sqlite://path or mysql://dsn", dsn)
	}
	dialect, source := dsn[:idx], dsn[idx+3:]
	var driver string
	switch dialect {
	case "sqlite":
		driver = "sqlite"
	case "mysql":
		driver = "mysql"
	default:
		return nil, NewBatchError(ErrCodeConfig, "unsupported history database:%v", dialect)
	}
	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, NewBatchError(ErrCodeDbFail, "open history database", err)
	}
	if dialect == "sqlite" {
		// one writer at a time
		db.SetMaxOpenConns(1)
	}
	repo := &sqlRepository{db: db, dialect: dialect}
	if err = repo.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

type nopRepository struct {
}

func (r *nopRepository) SaveJobExecution(ctx context.Context, execution *JobExecution) error {
	return nil
}

func (r *nopRepository) SaveUnitExecution(ctx context.Context, execution *UnitExecution) error {
	return nil
}

func (r *nopRepository) Close() error {
	return nil
}

type sqlRepository struct {
	db      *sql.DB
	dialect string
}

var schemaDDL = []string{
	`create table if not exists tpch_job_execution (
		job_execution_id varchar(36) not null primary key,
		job_name varchar(128) not null,
		job_key varchar(32) not null,
		job_params text,
		location varchar(1024),
		status varchar(16) not null,
		create_time timestamp null,
		start_time timestamp null,
		end_time timestamp null,
		exit_message text,
		file_count bigint not null default 0,
		last_updated timestamp null
	)`,
	`create table if not exists tpch_unit_execution (
		unit_execution_id varchar(36) not null primary key,
		job_execution_id varchar(36) not null,
		unit_name varchar(64) not null,
		unit_kind varchar(16) not null,
		unit_ordinal int not null,
		unit_total int not null,
		scale_factor double not null,
		status varchar(16) not null,
		create_time timestamp null,
		start_time timestamp null,
		end_time timestamp null,
		exit_message text,
		file_count bigint not null default 0,
		last_updated timestamp null
	)`,
}

func (r *sqlRepository) init(ctx context.Context) error {
	for _, ddl := range schemaDDL {
		if _, err := r.db.ExecContext(ctx, ddl); err != nil {
			return NewBatchError(ErrCodeDbFail, "create history tables", err)
		}
	}
	return nil
}

func (r *sqlRepository) upsert(table string, columns []string) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	updates := make([]string, 0, len(columns)-1)
	for _, c := range columns[1:] {
		if r.dialect == "mysql" {
			updates = append(updates, fmt.Sprintf("%s=values(%s)", c, c))
		} else {
			updates = append(updates, fmt.Sprintf("%s=excluded.%s", c, c))
		}
	}
	stmt := fmt.Sprintf("insert into %s(%s) values(%s)", table, strings.Join(columns, ", "), placeholders)
	if r.dialect == "mysql" {
		return stmt + " on duplicate key update " + strings.Join(updates, ", ")
	}
	return stmt + fmt.Sprintf(" on conflict(%s) do update set ", columns[0]) + strings.Join(updates, ", ")
}

var jobColumns = []string{"job_execution_id", "job_name", "job_key", "job_params", "location", "status", "create_time", "start_time", "end_time", "exit_message", "file_count", "last_updated"}

var unitColumns = []string{"unit_execution_id", "job_execution_id", "unit_name", "unit_kind", "unit_ordinal", "unit_total", "scale_factor", "status", "create_time", "start_time", "end_time", "exit_message", "file_count", "last_updated"}

func (r *sqlRepository) SaveJobExecution(ctx context.Context, execution *JobExecution) error {
	params, err := util.JsonString(execution.Config.Scale)
	if err != nil {
		return NewBatchError(ErrCodeGeneral, "marshal job params", err)
	}
	location := ""
	if execution.Location != nil {
		location = execution.Location.Path
	}
	_, err = r.db.ExecContext(ctx, r.upsert("tpch_job_execution", jobColumns),
		execution.JobExecutionId, execution.JobName, execution.JobKey, params, location, string(execution.JobStatus),
		nullTime(execution.CreateTime), nullTime(execution.StartTime), nullTime(execution.EndTime),
		errMessage(execution.FailError), len(execution.Files()), time.Now())
	if err != nil {
		return NewBatchError(ErrCodeDbFail, "save job execution:%v", execution.JobExecutionId, err)
	}
	return nil
}

func (r *sqlRepository) SaveUnitExecution(ctx context.Context, execution *UnitExecution) error {
	jobId := ""
	if execution.JobExecution != nil {
		jobId = execution.JobExecution.JobExecutionId
	}
	unit := execution.Unit
	_, err := r.db.ExecContext(ctx, r.upsert("tpch_unit_execution", unitColumns),
		execution.UnitExecutionId, jobId, unit.Name(), string(unit.Kind), unit.Ordinal, unit.Total, unit.ScaleFactor,
		string(execution.UnitStatus), nullTime(execution.CreateTime), nullTime(execution.StartTime), nullTime(execution.EndTime),
		errMessage(execution.FailError), len(execution.Files), time.Now())
	if err != nil {
		return NewBatchError(ErrCodeDbFail, "save unit execution:%v", execution.UnitExecutionId, err)
	}
	return nil
}

func (r *sqlRepository) Close() error {
	return errors.WithStack(r.db.Close())
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func errMessage(err error) sql.NullString {
	if err == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: err.Error(), Valid: true}
}
