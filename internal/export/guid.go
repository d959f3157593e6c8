package export

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/conftable/conftable/internal/schedule"
)

// DefaultInstanceID seeds GUIDs when no instance id is configured.
const DefaultInstanceID = "conftable"

func namespace(instanceID string) uuid.UUID {
	if instanceID == "" {
		instanceID = DefaultInstanceID
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(instanceID))
}

// SlotGUID returns the stable identifier of a slot. Talks are keyed by their
// submission so the GUID survives freezing; breaks are keyed by slot id.
func SlotGUID(instanceID string, e *schedule.Event, s *schedule.Slot) string {
	key := e.Slug + ":"
	if sub := s.Submission(); sub != nil {
		key += "talk:" + sub.Code
	} else {
		key += "break:" + strconv.FormatInt(s.ID, 10)
	}
	return uuid.NewSHA1(namespace(instanceID), []byte(key)).String()
}

// RoomGUID returns the room's own GUID, or one derived from its id.
func RoomGUID(instanceID string, e *schedule.Event, r *schedule.Room) string {
	if r.GUID != "" {
		return r.GUID
	}
	key := e.Slug + ":room:" + strconv.FormatInt(r.ID, 10)
	return uuid.NewSHA1(namespace(instanceID), []byte(key)).String()
}
