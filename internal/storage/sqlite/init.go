package sqlite

import (
	"database/sql"

	// Import the SQLite driver.
	_ "github.com/mattn/go-sqlite3"
)

// InitDB opens the SQLite database at path and creates the imports table if
// it doesn't exist.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS imports (
		id INTEGER PRIMARY KEY,
		url TEXT,
		target_path TEXT,
		status TEXT,
		message TEXT,
		imported_at DATETIME
	)`)

	if err != nil {
		return nil, err
	}

	return db, nil
}
