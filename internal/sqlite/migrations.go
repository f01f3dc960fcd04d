package sqlite

type migration struct {
	version int
	sql     string
}

// Times are stored as unix nanoseconds so ordering by column is chronological.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE counters (
    name TEXT PRIMARY KEY,
    value INTEGER NOT NULL
);
INSERT INTO counters (name, value) VALUES ('project_id', 0);

CREATE TABLE projects (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL CHECK(length(name) BETWEEN 1 AND 16),
    theme TEXT NOT NULL CHECK(length(theme) >= 1),
    initiator TEXT NOT NULL,
    total_streak_days INTEGER NOT NULL CHECK(total_streak_days BETWEEN 1 AND 365),
    max_members INTEGER NOT NULL CHECK(max_members BETWEEN 1 AND 255),
    finished INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    finished_at INTEGER,
    version INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX idx_projects_initiator ON projects(initiator);

CREATE TABLE memberships (
    project_id INTEGER NOT NULL,
    member TEXT NOT NULL,
    position INTEGER NOT NULL CHECK(position >= 0),
    joined_at INTEGER NOT NULL,
    last_checkin_day INTEGER,
    streak INTEGER NOT NULL DEFAULT 0,
    checkins INTEGER NOT NULL DEFAULT 0,
    last_proof_hash TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (project_id, member),
    UNIQUE (project_id, position),
    FOREIGN KEY (project_id) REFERENCES projects(id)
);
CREATE INDEX idx_memberships_member ON memberships(member, joined_at, project_id);

CREATE TABLE checkins (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    project_id INTEGER NOT NULL,
    member TEXT NOT NULL,
    proof_hash TEXT NOT NULL,
    timestamp INTEGER NOT NULL,
    day INTEGER NOT NULL,
    signature BLOB NOT NULL,
    streak INTEGER NOT NULL,
    recorded_at INTEGER NOT NULL,
    UNIQUE (project_id, member, day),
    FOREIGN KEY (project_id, member) REFERENCES memberships(project_id, member)
);

CREATE TABLE activity_log (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    project_id INTEGER NOT NULL,
    member TEXT NOT NULL DEFAULT '',
    activity_type TEXT NOT NULL,
    summary TEXT NOT NULL,
    details TEXT NOT NULL DEFAULT '{}',
    created_at INTEGER NOT NULL,
    tick INTEGER NOT NULL
);
CREATE INDEX idx_activity_project ON activity_log(project_id, seq);
CREATE INDEX idx_activity_member ON activity_log(member, seq);
`,
	},
}
