// Package cursor persists the scan resume point with a time-to-live.
//
// Two backends are provided:
//   - FileStore keeps one JSON file per key, written via temp file and rename.
//   - SQLiteStore keeps entries in a single table of a local SQLite database.
//
// Expired entries read as absent. Neither backend guards against two
// processes scanning the same sheet at once.
package cursor
