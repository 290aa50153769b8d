// internal/history/schema.go
// Package: history
package history

// schema is applied on every Open.
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	host_name   TEXT NOT NULL,
	host_url    TEXT NOT NULL,
	judge_model TEXT NOT NULL,
	repeat      INTEGER NOT NULL,
	cpu         TEXT NOT NULL,
	ram_gb      REAL NOT NULL,
	platform    TEXT NOT NULL,
	cores       INTEGER NOT NULL,
	started_at  INTEGER NOT NULL,
	finished_at INTEGER
);

CREATE TABLE IF NOT EXISTS samples (
	run_id       TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	seq          INTEGER NOT NULL,
	model        TEXT NOT NULL,
	prompt       TEXT NOT NULL,
	tokens       INTEGER NOT NULL,
	total_s      REAL NOT NULL,
	latency_ms   REAL NOT NULL,
	tps          REAL NOT NULL,
	load_s       REAL NOT NULL,
	ram_delta_gb REAL NOT NULL,
	cpu_delta    REAL NOT NULL,
	temperature  REAL,
	power        REAL,
	quantized    INTEGER NOT NULL,
	quality      REAL,
	PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS rankings (
	run_id     TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	rank       INTEGER NOT NULL,
	model      TEXT NOT NULL,
	quality    REAL NOT NULL,
	tps        REAL NOT NULL,
	latency_ms REAL NOT NULL,
	quantized  INTEGER NOT NULL,
	score      REAL NOT NULL,
	samples    INTEGER NOT NULL,
	PRIMARY KEY (run_id, rank)
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`
