package app_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghostline/relay/internal/app"
	"github.com/ghostline/relay/internal/domain"
)

type fakeConn struct {
	frames []app.Frame
	closed bool
}

func (f *fakeConn) TrySend(fr app.Frame) error {
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeConn) Close() { f.closed = true }

func TestParticipantTierQuota(t *testing.T) {
	parts := app.NewParticipantRegistry()
	parts.Bind("c1", &fakeConn{}, nil)
	parts.Ensure("c1", "dev-1", domain.Tier{Name: "free", MaxRooms: 1})

	require.NoError(t, parts.RecordJoin("c1", "AAAAAA"))
	assert.ErrorIs(t, parts.RecordJoin("c1", "BBBBBB"), app.ErrRoomQuota)

	// Re-recording a joined room never trips the quota.
	assert.NoError(t, parts.RecordJoin("c1", "AAAAAA"))

	// Draining the set keeps the resolved tier, so the freed quota is
	// usable again on the same connection.
	parts.RecordLeave("c1", "AAAAAA")
	assert.NoError(t, parts.RecordJoin("c1", "BBBBBB"))
}

func TestParticipantCanJoin(t *testing.T) {
	parts := app.NewParticipantRegistry()
	assert.False(t, parts.CanJoin("c1", "AAAAAA"))

	parts.Bind("c1", &fakeConn{}, nil)
	parts.Ensure("c1", "dev-1", domain.Tier{Name: "free", MaxRooms: 1})

	assert.True(t, parts.CanJoin("c1", "AAAAAA"))
	require.NoError(t, parts.RecordJoin("c1", "AAAAAA"))

	// At the cap a new room is refused; the room already held is not.
	assert.False(t, parts.CanJoin("c1", "BBBBBB"))
	assert.True(t, parts.CanJoin("c1", "AAAAAA"))
}

func TestParticipantProTier(t *testing.T) {
	parts := app.NewParticipantRegistry()
	parts.Bind("c1", &fakeConn{}, nil)
	parts.Ensure("c1", "dev-1", domain.Tier{Name: "pro", MaxRooms: 3})

	for _, code := range []domain.RoomCode{"AAAAAA", "BBBBBB", "CCCCCC"} {
		require.NoError(t, parts.RecordJoin("c1", code))
	}
	assert.ErrorIs(t, parts.RecordJoin("c1", "DDDDDD"), app.ErrRoomQuota)
	assert.Len(t, parts.Rooms("c1"), 3)
}

func TestParticipantMembership(t *testing.T) {
	parts := app.NewParticipantRegistry()
	parts.Bind("c1", &fakeConn{}, nil)
	parts.Ensure("c1", "dev-1", domain.Tier{Name: "pro", MaxRooms: 5})

	assert.False(t, parts.IsMember("c1", "AAAAAA"))
	require.NoError(t, parts.RecordJoin("c1", "AAAAAA"))
	assert.True(t, parts.IsMember("c1", "AAAAAA"))
	assert.False(t, parts.IsMember("c1", "BBBBBB"))
	assert.False(t, parts.IsMember("nobody", "AAAAAA"))

	parts.RecordLeave("c1", "AAAAAA")
	assert.False(t, parts.IsMember("c1", "AAAAAA"))
}

// Draining the room set destroys the participant identity while the
// connection binding survives; the next join re-creates it.
func TestParticipantIdentityLifecycle(t *testing.T) {
	parts := app.NewParticipantRegistry()
	parts.Bind("c1", &fakeConn{}, nil)
	parts.Ensure("c1", "dev-1", domain.Tier{Name: "free", MaxRooms: 1})

	require.NoError(t, parts.RecordJoin("c1", "AAAAAA"))
	dev, ok := parts.Device("c1")
	require.True(t, ok)
	assert.Equal(t, domain.DeviceID("dev-1"), dev)

	parts.RecordLeave("c1", "AAAAAA")
	_, ok = parts.Device("c1")
	assert.False(t, ok)

	_, ok = parts.Conn("c1")
	assert.True(t, ok)

	parts.Ensure("c1", "dev-2", domain.Tier{Name: "free", MaxRooms: 1})
	dev, ok = parts.Device("c1")
	require.True(t, ok)
	assert.Equal(t, domain.DeviceID("dev-2"), dev)
}

func TestParticipantEnsureWriteOnce(t *testing.T) {
	parts := app.NewParticipantRegistry()
	parts.Bind("c1", &fakeConn{}, nil)
	parts.Ensure("c1", "dev-1", domain.Tier{Name: "free", MaxRooms: 1})
	require.NoError(t, parts.RecordJoin("c1", "AAAAAA"))

	// A second Ensure with a different device id is ignored while the
	// participant is live.
	parts.Ensure("c1", "dev-2", domain.Tier{Name: "pro", MaxRooms: 5})
	dev, ok := parts.Device("c1")
	require.True(t, ok)
	assert.Equal(t, domain.DeviceID("dev-1"), dev)
}

func TestParticipantForget(t *testing.T) {
	parts := app.NewParticipantRegistry()
	canceled := false
	parts.Bind("c1", &fakeConn{}, func() { canceled = true })
	require.Equal(t, 1, parts.Len())

	parts.Forget("c1")
	assert.True(t, canceled)
	assert.Zero(t, parts.Len())
	_, ok := parts.Conn("c1")
	assert.False(t, ok)

	// Idempotent.
	parts.Forget("c1")
}
