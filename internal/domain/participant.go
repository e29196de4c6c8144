package domain

// ConnID identifies one live transport connection. A device that reconnects
// gets a fresh ConnID; nothing about it survives the connection.
type ConnID string

// DeviceID is the self-asserted pseudonymous device identifier, a v4 UUID
// string supplied by the client at join time and fixed for the connection's
// lifetime.
type DeviceID string

// Tier is the subscription level resolved by the external billing
// collaborator. The relay consumes only MaxRooms.
type Tier struct {
	Name     string
	MaxRooms int
}
