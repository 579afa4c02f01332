package shortcuts

const schema = `
CREATE TABLE IF NOT EXISTS shortcuts (
    tag TEXT PRIMARY KEY,
    app_name TEXT NOT NULL,
    exe TEXT NOT NULL,
    start_dir TEXT,
    launch_options TEXT,
    added_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_shortcuts_added ON shortcuts(added_at);
`
