package db

// Receives progress updates during long running operations
type ProgressUpdater interface {
	UpdateProgress(curr int, total int, message string)
}
