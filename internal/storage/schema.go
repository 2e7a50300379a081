package storage

var schema = []string{
	`CREATE TABLE IF NOT EXISTS batches (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		session      TEXT    NOT NULL,
		at           TEXT    NOT NULL,
		uptime_us    INTEGER NOT NULL,
		passes       INTEGER NOT NULL,
		idle_passes  INTEGER NOT NULL,
		load_percent REAL    NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS samples (
		batch_id    INTEGER NOT NULL REFERENCES batches(id),
		task        TEXT    NOT NULL,
		enabled     INTEGER NOT NULL,
		executions  INTEGER NOT NULL,
		avg_exec_us INTEGER NOT NULL,
		max_exec_us INTEGER NOT NULL,
		age_cycles  INTEGER NOT NULL,
		overruns    INTEGER NOT NULL,
		check_calls INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_samples_task ON samples(task)`,
	`CREATE TABLE IF NOT EXISTS events (
		id      INTEGER PRIMARY KEY AUTOINCREMENT,
		session TEXT NOT NULL,
		at      TEXT NOT NULL,
		type    TEXT NOT NULL,
		task    TEXT,
		data    TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_session ON events(session)`,
}
