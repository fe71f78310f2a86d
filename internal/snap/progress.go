package snap

// ProgressKind identifies the type of a progress event.
type ProgressKind int

const (
	// ProgressScanned reports the total number of candidate files after the
	// initial walk. Emitted once, before any file is processed.
	ProgressScanned ProgressKind = iota
	// ProgressFile reports that processing of a file has started.
	ProgressFile
	// ProgressUploaded reports a successful transfer (or, in dry-run mode,
	// a would-be transfer).
	ProgressUploaded
	// ProgressSkipped reports that a file was skipped, with a reason.
	ProgressSkipped
	// ProgressImported reports a successful copy during import.
	ProgressImported
)

// Skip reasons carried on ProgressSkipped events.
const (
	SkipExcluded        = "excluded"
	SkipOutOfRange      = "out-of-range"
	SkipAlreadyUploaded = "already-uploaded"
	SkipUnknownType     = "unknown-type"
	SkipExists          = "exists"
)

// ProgressEvent is a structured progress notification from the Importer or
// Uploader. The job tracker consumes these directly instead of parsing text
// output.
type ProgressEvent struct {
	Kind   ProgressKind
	Total  int    // ProgressScanned only
	File   string // file name being processed
	Reason string // ProgressSkipped only
}

// ProgressFunc receives progress events. A nil ProgressFunc is allowed and
// disables reporting. Events for one run are delivered sequentially.
type ProgressFunc func(ProgressEvent)

func report(fn ProgressFunc, ev ProgressEvent) {
	if fn != nil {
		fn(ev)
	}
}
