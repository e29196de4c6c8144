// Package domain contains entity value types without logic, just meta-data.
package domain

// CodeAlphabet is the set of symbols room codes are drawn from. Uppercase
// letters and digits, minus I, O and 0 which read ambiguously on small
// screens. 33 symbols total.
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ123456789"

// CodeLength is the fixed length of every room code.
const CodeLength = 6

// RoomCode identifies an ephemeral two-occupant room.
type RoomCode string

// LinkStatus is the occupancy state a room reports to its occupants.
type LinkStatus string

const (
	// StatusWaiting: one occupant, nobody has ever been on the other end.
	StatusWaiting LinkStatus = "WAITING"
	// StatusLinked: both ends occupied; signals cross.
	StatusLinked LinkStatus = "LINKED"
	// StatusSignalLost: back to one occupant after having been linked.
	StatusSignalLost LinkStatus = "SIGNAL_LOST"
)

// MaxOccupants is the hard room capacity. Rooms are strictly two-party.
const MaxOccupants = 2
