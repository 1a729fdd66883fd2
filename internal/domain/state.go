package domain

import "time"

// SourceState is the persisted read position of a spool-file record source.
type SourceState struct {
	// Path is the spool file being followed.
	Path string `json:"path"`

	// Offset is the byte offset just past the last consumed line.
	Offset int64 `json:"offset"`

	// Records is the number of records consumed from Path.
	Records int64 `json:"records"`

	// UpdatedAt is the time of the last save.
	UpdatedAt time.Time `json:"updated_at"`
}

// IsEmpty returns true if the state has not been initialized.
func (s SourceState) IsEmpty() bool {
	return s.Path == ""
}

// Advance records that n bytes holding one record were consumed.
func (s *SourceState) Advance(n int64) {
	s.Offset += n
	s.Records++
}

// Reset restarts from the beginning of path, used when the file was
// truncated or replaced.
func (s *SourceState) Reset(path string) {
	s.Path = path
	s.Offset = 0
	s.Records = 0
}
