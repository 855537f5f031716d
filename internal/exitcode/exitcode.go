package exitcode

const (
	Success         = 0
	UsageError      = 1
	ValidationError = 2
	DBConnError     = 3
	StorageError    = 4
	AuditFailed     = 5
	ServerError     = 6
	ExportError     = 7
)
