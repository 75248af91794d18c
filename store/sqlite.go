/*
Package store persists training run history in a SQLite database so
successive experiments on a dataset can be compared afterwards.
*/
package store

import (
	"database/sql"
	"time"

	"go-ml.dev/pkg/zorros"

	_ "github.com/mattn/go-sqlite3"
)

/*
Run is one recorded training run.
*/
type Run struct {
	ID         int64
	Created    time.Time
	Dataset    string
	Config     string // serialized model configuration
	Iterations int
	RMSE       float64
	LogLik     float64
}

/*
Runs is a handle to the run-history database.
*/
type Runs struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	created INTEGER NOT NULL,
	dataset TEXT NOT NULL,
	config TEXT NOT NULL,
	iterations INTEGER NOT NULL,
	rmse REAL NOT NULL,
	loglik REAL NOT NULL
)`

/*
Open opens (creating if needed) the run-history database at path.
*/
func Open(path string) (*Runs, error) {
	if path == "" {
		return nil, zorros.Errorf("run store requires a database path")
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, zorros.Wrapf(err, "open run store: %v", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, zorros.Wrapf(err, "ping run store: %v", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, zorros.Wrapf(err, "create run table: %v", err)
	}
	return &Runs{db: db}, nil
}

/*
Close releases the database handle.
*/
func (r *Runs) Close() error {
	return r.db.Close()
}

/*
Save records a run and returns its assigned id.
*/
func (r *Runs) Save(run Run) (int64, error) {
	created := run.Created
	if created.IsZero() {
		created = time.Now()
	}
	res, err := r.db.Exec(
		`INSERT INTO runs (created, dataset, config, iterations, rmse, loglik)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		created.Unix(), run.Dataset, run.Config, run.Iterations, run.RMSE, run.LogLik)
	if err != nil {
		return 0, zorros.Wrapf(err, "save run: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, zorros.Trace(err)
	}
	return id, nil
}

/*
List returns up to limit most recent runs, newest first.
*/
func (r *Runs) List(limit int) ([]Run, error) {
	if limit < 1 {
		limit = 50
	}
	rows, err := r.db.Query(
		`SELECT id, created, dataset, config, iterations, rmse, loglik
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, zorros.Wrapf(err, "list runs: %v", err)
	}
	defer rows.Close()
	var out []Run
	for rows.Next() {
		var run Run
		var created int64
		if err := rows.Scan(&run.ID, &created, &run.Dataset, &run.Config,
			&run.Iterations, &run.RMSE, &run.LogLik); err != nil {
			return nil, zorros.Trace(err)
		}
		run.Created = time.Unix(created, 0)
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, zorros.Trace(err)
	}
	return out, nil
}

/*
BestByLogLik returns the recorded run with the highest test
log-likelihood for a dataset, or ok=false when none exists.
*/
func (r *Runs) BestByLogLik(dataset string) (Run, bool, error) {
	row := r.db.QueryRow(
		`SELECT id, created, dataset, config, iterations, rmse, loglik
		 FROM runs WHERE dataset = ? ORDER BY loglik DESC LIMIT 1`, dataset)
	var run Run
	var created int64
	err := row.Scan(&run.ID, &created, &run.Dataset, &run.Config,
		&run.Iterations, &run.RMSE, &run.LogLik)
	if err == sql.ErrNoRows {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, zorros.Trace(err)
	}
	run.Created = time.Unix(created, 0)
	return run, true, nil
}
