package history

import "time"

// Status is the recorded outcome of one organize attempt. The failure values
// mirror services.FailureKind so journal rows and API payloads share one
// vocabulary.
type Status string

const (
	StatusSuccess          Status = "success"
	StatusSourceMissing    Status = "source_missing"
	StatusMetadataNotFound Status = "metadata_not_found"
	StatusTransferFailed   Status = "transfer_failed"
	StatusFailed           Status = "failed"
)

// KnownStatuses lists every status value the journal records.
func KnownStatuses() []Status {
	return []Status{StatusSuccess, StatusSourceMissing, StatusMetadataNotFound, StatusTransferFailed, StatusFailed}
}

// ValidStatus reports whether raw names a known status value.
func ValidStatus(raw string) bool {
	for _, status := range KnownStatuses() {
		if string(status) == raw {
			return true
		}
	}
	return false
}

// Entry is one journal row.
type Entry struct {
	ID          int64
	OperationID string
	Source      string
	Destination string
	Mode        string
	Media       string
	Title       string
	Status      Status
	Detail      string
	CreatedAt   time.Time
}
