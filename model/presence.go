package models

type PresenceState string

const (
	PresenceOnline  PresenceState = "online"
	PresenceOffline PresenceState = "offline"
)

// PresenceRecord is the value stored at status/{uid}. LastChanged is in
// milliseconds since the epoch, stamped by the store.
type PresenceRecord struct {
	State       PresenceState `json:"state"`
	LastChanged int64         `json:"last_changed"`
}
