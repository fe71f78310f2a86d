package snap

// Ledger records which files have already been uploaded from a source
// directory. Dedup is content-based: a file counts as uploaded only if both
// its relative path and its current content hash match a recorded entry, so
// editing a file after upload implicitly invalidates its record.
type Ledger interface {
	// IsUploaded reports whether filePath's current content has already been
	// uploaded from sourceDir. A missing ledger is not an error; it means
	// nothing has been uploaded yet.
	IsUploaded(sourceDir, filePath string) (bool, error)

	// RecordUploaded appends an entry for filePath to sourceDir's ledger.
	RecordUploaded(sourceDir, filePath string) error
}
