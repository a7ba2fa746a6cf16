package sqlite

import (
	"database/sql"
	"time"

	"github.com/hkaya/unity_mcp_bridge/internal/storage"
)

type ImportRepository struct {
	db *sql.DB
}

func NewImportRepository(dbConn *sql.DB) *ImportRepository {
	return &ImportRepository{db: dbConn}
}

// RecordImport appends one import outcome to the ledger.
func (r *ImportRepository) RecordImport(record storage.ImportRecord) error {
	_, err := r.db.Exec(
		`INSERT INTO imports (url, target_path, status, message, imported_at) VALUES (?, ?, ?, ?, ?)`,
		record.URL, record.TargetPath, record.Status, record.Message, record.ImportedAt.Format(time.RFC3339),
	)

	return err
}

// RecentImports returns up to limit records, newest first.
func (r *ImportRepository) RecentImports(limit int) ([]storage.ImportRecord, error) {
	rows, err := r.db.Query(
		`SELECT url, target_path, status, message, imported_at FROM imports ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []storage.ImportRecord

	for rows.Next() {
		var record storage.ImportRecord

		var importedAt string

		if err := rows.Scan(&record.URL, &record.TargetPath, &record.Status, &record.Message, &importedAt); err != nil {
			return nil, err
		}

		record.ImportedAt, _ = time.Parse(time.RFC3339, importedAt)

		records = append(records, record)
	}

	return records, rows.Err()
}
