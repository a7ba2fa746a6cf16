package storage

import "time"

// ImportRecord is one remote-import outcome kept in the history ledger.
type ImportRecord struct {
	URL        string
	TargetPath string
	Status     string
	Message    string
	ImportedAt time.Time
}

// ImportWriteRepository records import outcomes.
type ImportWriteRepository interface {
	RecordImport(record ImportRecord) error
}

// ImportReadRepository reads back recorded imports, newest first.
type ImportReadRepository interface {
	RecentImports(limit int) ([]ImportRecord, error)
}
