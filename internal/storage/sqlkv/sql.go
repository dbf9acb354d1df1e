package sqlkv

// Dialect-specific statements. The table is tiny: one row per durable key.

const sqliteSchemaSQL = `
CREATE TABLE IF NOT EXISTS kv_store (
  k          TEXT PRIMARY KEY,
  v          TEXT NOT NULL,
  updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

const mysqlSchemaSQL = `
CREATE TABLE IF NOT EXISTS kv_store (
  k          VARCHAR(191) NOT NULL PRIMARY KEY,
  v          MEDIUMTEXT   NOT NULL,
  updated_at TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
) DEFAULT CHARSET=utf8mb4`

const sqliteUpsertSQL = `
INSERT INTO kv_store (k, v, updated_at)
VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(k) DO UPDATE SET
  v          = excluded.v,
  updated_at = CURRENT_TIMESTAMP
`

const mysqlUpsertSQL = `
INSERT INTO kv_store (k, v)
VALUES (?, ?)
ON DUPLICATE KEY UPDATE
  v          = VALUES(v),
  updated_at = CURRENT_TIMESTAMP
`

const getSQL = `SELECT v FROM kv_store WHERE k = ?`

const deleteSQL = `DELETE FROM kv_store WHERE k = ?`
