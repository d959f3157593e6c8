package schedule

import (
	"errors"
	"time"
)

// Version errors.
var (
	ErrDuplicateVersion = errors.New("schedule version already exists")
	ErrVersionNotFound  = errors.New("schedule version not found")
	ErrNoCurrentVersion = errors.New("no schedule version has been released yet")
	ErrReservedVersion  = errors.New("schedule version name is reserved")
	ErrEmptyVersion     = errors.New("schedule version name cannot be empty")
	ErrVersionFrozen    = errors.New("released schedule versions cannot be changed")
)

// Version references accepted by lookups besides explicit labels.
const (
	RefWIP    = "wip"
	RefLatest = "latest"
)

// Version is a schedule version of an event. The version with an empty
// Label is the work-in-progress schedule; every other version is frozen.
type Version struct {
	ID          int64
	EventID     int64
	Label       string
	PublishedAt *time.Time
}

// IsWIP returns true for the mutable work-in-progress version.
func (v *Version) IsWIP() bool {
	return v.Label == ""
}

// Name returns the label, or "wip" for the work-in-progress version.
func (v *Version) Name() string {
	if v.IsWIP() {
		return RefWIP
	}
	return v.Label
}

// ValidateLabel checks a label before freezing.
func ValidateLabel(label string) error {
	switch label {
	case "":
		return ErrEmptyVersion
	case RefWIP, RefLatest:
		return ErrReservedVersion
	}
	return nil
}
