package persist

const schemaSQL = `
-- Messages seen across all conversations. seq is arrival order.
CREATE TABLE IF NOT EXISTS messages (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  id TEXT NOT NULL UNIQUE,             -- platform message id or derived hash
  conversation_id TEXT NOT NULL,
  author TEXT NOT NULL,
  body TEXT NOT NULL,
  ts INTEGER NOT NULL,                 -- unix millis
  is_question INTEGER NOT NULL DEFAULT 0,
  sentiment TEXT NOT NULL DEFAULT 'unknown',
  flagged INTEGER NOT NULL DEFAULT 0,
  platform TEXT NOT NULL,
  date_bucket TEXT NOT NULL            -- UTC day, "2006-01-02"
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, seq);
CREATE INDEX IF NOT EXISTS idx_messages_bucket ON messages(conversation_id, date_bucket);

-- Last explicitly read message per conversation.
CREATE TABLE IF NOT EXISTS read_anchors (
  conversation_id TEXT PRIMARY KEY,
  message_id TEXT NOT NULL
);

-- UI preferences, one row per key.
CREATE TABLE IF NOT EXISTS prefs (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL
);

-- Recently closed conversations, for quick reopen.
CREATE TABLE IF NOT EXISTS recent_conversations (
  id TEXT PRIMARY KEY,
  source_url TEXT NOT NULL,
  platform TEXT NOT NULL,
  title TEXT,
  closed_at INTEGER NOT NULL
);
`
