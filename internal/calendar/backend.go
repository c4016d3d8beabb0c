// Package calendar mirrors planned time ranges into an external calendar.
package calendar

import (
	"context"
	"errors"
	"time"
)

// BusyStatusBusy marks a block as busy time.
const BusyStatusBusy = "busy"

// Block is one calendar entry as written to a backend.
type Block struct {
	Subject     string    `yaml:"subject" json:"subject"`
	Body        string    `yaml:"body" json:"body"`
	Start       time.Time `yaml:"start" json:"start"`
	End         time.Time `yaml:"end" json:"end"`
	Category    string    `yaml:"category" json:"category"`
	BusyStatus  string    `yaml:"busy_status" json:"busy_status"`
	ReminderSet bool      `yaml:"reminder_set" json:"reminder_set"`
}

// Backend is the calendar collaborator. Save creates an entry when entryID
// is empty and replaces it otherwise; both calls return the entry id.
type Backend interface {
	Name() string
	Available() bool
	Save(ctx context.Context, entryID string, block Block) (string, error)
	Remove(ctx context.Context, entryID string) error
}

var (
	ErrUnavailable = errors.New("calendar backend unavailable")
	ErrNotFound    = errors.New("calendar entry not found")
	ErrPermission  = errors.New("calendar access denied")
)

// Unavailable is the backend used when calendar mirroring is not set up.
type Unavailable struct{}

func (Unavailable) Name() string    { return "none" }
func (Unavailable) Available() bool { return false }

func (Unavailable) Save(context.Context, string, Block) (string, error) {
	return "", ErrUnavailable
}

func (Unavailable) Remove(context.Context, string) error {
	return ErrUnavailable
}
