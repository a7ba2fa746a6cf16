package asset

// Kind classifies the outcome of a remote import. Every failure category the
// operation can hit maps to exactly one Kind; the public operations never
// return a Go error, only a Result.
type Kind int

const (
	KindImported Kind = iota
	KindAlreadyExists
	KindInvalidArgument
	KindDownloadFailed
	KindFileMissing
	KindImportFailed
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindImported:
		return "imported"
	case KindAlreadyExists:
		return "already_exists"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindDownloadFailed:
		return "download_failed"
	case KindFileMissing:
		return "file_missing"
	case KindImportFailed:
		return "import_failed"
	case KindInternal:
		return "internal_error"
	default:
		return "unknown"
	}
}

// Failed reports whether the outcome is a failure. A pre-existing asset
// without overwrite is a precondition conflict, not a failure: the project
// already holds the asset the caller asked for.
func (k Kind) Failed() bool {
	return k != KindImported && k != KindAlreadyExists
}

// Result is the outcome of one remote import request.
type Result struct {
	Kind       Kind
	Message    string
	SourceURL  string
	TargetPath string
}

func (r Result) String() string {
	return r.Message
}
