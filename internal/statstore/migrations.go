package statstore

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    binder_name TEXT NOT NULL,
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP,
    attempted INTEGER DEFAULT 0,
    accepted INTEGER DEFAULT 0,
    skipped INTEGER DEFAULT 0,
    outcome TEXT
);

CREATE INDEX IF NOT EXISTS idx_runs_binder_name ON runs(binder_name);

CREATE TABLE IF NOT EXISTS trajectories (
    run_id TEXT NOT NULL REFERENCES runs(id),
    name TEXT NOT NULL,
    length INTEGER NOT NULL,
    seed INTEGER NOT NULL,
    helicity REAL,
    status TEXT NOT NULL,
    plddt REAL,
    ptm REAL,
    i_ptm REAL,
    pae REAL,
    i_pae REAL,
    sequence TEXT,
    terminate_reason TEXT,
    failure_reason TEXT,
    duration_ms INTEGER,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (run_id, name)
);

CREATE INDEX IF NOT EXISTS idx_trajectories_status ON trajectories(status);
`
