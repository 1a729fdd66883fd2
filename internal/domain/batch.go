package domain

import (
	"maps"
	"time"
)

// Monitored resource types.
const (
	ContainerResourceType = "k8s_container"
	InstanceResourceType  = "gce_instance"
)

// MonitoredResource identifies the workload that produced the log entries.
type MonitoredResource struct {
	Type   string            `json:"type"`
	Labels map[string]string `json:"labels,omitempty"`
}

// Template holds the fields shared by every batch of one logger: log name,
// monitored resource and common labels. It is derived once from the local
// node and never changes afterwards.
type Template struct {
	LogName  string            `json:"logName"`
	Resource MonitoredResource `json:"resource"`
	Labels   map[string]string `json:"labels,omitempty"`
}

// Clone returns a deep copy so batches never share label maps.
func (t Template) Clone() Template {
	return Template{
		LogName: t.LogName,
		Resource: MonitoredResource{
			Type:   t.Resource.Type,
			Labels: maps.Clone(t.Resource.Labels),
		},
		Labels: maps.Clone(t.Labels),
	}
}

// Equal reports whether two templates carry identical fields.
func (t Template) Equal(o Template) bool {
	return t.LogName == o.LogName &&
		t.Resource.Type == o.Resource.Type &&
		maps.Equal(t.Resource.Labels, o.Resource.Labels) &&
		maps.Equal(t.Labels, o.Labels)
}

// Batch is a group of log entries sharing one template, ready to be written
// together. It maintains the invariant that EstimatedSize is the sum of the
// estimated sizes of Entries.
type Batch struct {
	// ID is assigned when the batch is sealed by a flush.
	ID string `json:"-"`

	// SealedAt is the time the batch was moved to the pending queue.
	SealedAt time.Time `json:"-"`

	Template

	Entries []LogEntry `json:"entries"`

	// EstimatedSize is the running size estimate of Entries in bytes.
	EstimatedSize int `json:"-"`
}

// NewBatch creates a new empty batch carrying a copy of the template.
func NewBatch(t Template) *Batch {
	return &Batch{
		Template: t.Clone(),
		Entries:  make([]LogEntry, 0),
	}
}

// Add appends an entry and accounts for its estimated size.
func (b *Batch) Add(entry LogEntry, size int) {
	b.Entries = append(b.Entries, entry)
	b.EstimatedSize += size
}

// Size returns the number of entries in the batch.
func (b *Batch) Size() int {
	return len(b.Entries)
}

// Empty returns true if the batch has no entries.
func (b *Batch) Empty() bool {
	return len(b.Entries) == 0
}

// CountEntries returns the total number of entries across batches.
func CountEntries(batches []*Batch) int {
	var total int
	for _, b := range batches {
		total += b.Size()
	}
	return total
}

// Envelope is the self-describing encoding of a batch for sinks that carry
// no side channel for the batch id, such as message queues.
type Envelope struct {
	ID       string    `json:"batchId"`
	SealedAt time.Time `json:"sealedAt"`
	*Batch
}

// NewEnvelope wraps b for encoding.
func NewEnvelope(b *Batch) Envelope {
	return Envelope{ID: b.ID, SealedAt: b.SealedAt, Batch: b}
}
