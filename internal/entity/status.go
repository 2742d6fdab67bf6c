package entity

type Status string

// Upload record states.
const (
	Pending Status = "pending"
	Ready   Status = "ready"
	Failed  Status = "failed"
)

// Outbox-only states; an outbox event also starts Pending and may end Failed.
const (
	Processing Status = "processing"
	Processed  Status = "processed"
)

// Terminal reports whether enrichment has finished for a record in this state.
func (s Status) Terminal() bool {
	return s == Ready || s == Failed
}
