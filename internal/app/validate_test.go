package app_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghostline/relay/internal/app"
	"github.com/ghostline/relay/internal/domain"
)

func TestNormalizeRoomCode(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    domain.RoomCode
		wantErr bool
	}{
		{name: "valid uppercase", raw: "K7M3P9", want: "K7M3P9"},
		{name: "lowercase normalized", raw: "k7m3p9", want: "K7M3P9"},
		{name: "surrounding whitespace", raw: "  K7M3P9 ", want: "K7M3P9"},
		{name: "too short", raw: "K7M3P", wantErr: true},
		{name: "too long", raw: "K7M3P9X", wantErr: true},
		{name: "ambiguous zero excluded", raw: "K7M0P9", wantErr: true},
		{name: "ambiguous O excluded", raw: "KOM3P9", wantErr: true},
		{name: "ambiguous I excluded", raw: "KIM3P9", wantErr: true},
		{name: "punctuation", raw: "K7-3P9", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := app.NormalizeRoomCode(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, app.ErrBadRoomCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateDeviceID(t *testing.T) {
	_, err := app.ValidateDeviceID("8a6e0804-2bd0-4672-b79d-d97027f9071a")
	require.NoError(t, err)

	// v1 UUIDs are rejected, only version 4 passes.
	_, err = app.ValidateDeviceID("8a6e0804-2bd0-1672-b79d-d97027f9071a")
	assert.ErrorIs(t, err, app.ErrBadDeviceID)

	_, err = app.ValidateDeviceID("not-a-uuid")
	assert.ErrorIs(t, err, app.ErrBadDeviceID)

	_, err = app.ValidateDeviceID("")
	assert.ErrorIs(t, err, app.ErrBadDeviceID)
}

func TestSanitizeText(t *testing.T) {
	got, err := app.SanitizeText("hello\nworld", 100)
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld", got)

	// Control characters other than newline are stripped.
	got, err = app.SanitizeText("a\x00b\tc\x1bd\r\ne", 100)
	require.NoError(t, err)
	assert.Equal(t, "abcd\ne", got)

	_, err = app.SanitizeText(strings.Repeat("x", 101), 100)
	assert.ErrorIs(t, err, app.ErrTextTooLong)
}

func TestValidateMediaPayload(t *testing.T) {
	valid := "data:image/jpeg;base64,/9j/4AAQSkZJRg=="

	assert.NoError(t, app.ValidateMediaPayload(nil, 100))
	assert.NoError(t, app.ValidateMediaPayload(&valid, 1000))

	bad := "not-a-data-uri"
	assert.ErrorIs(t, app.ValidateMediaPayload(&bad, 1000), app.ErrBadPayload)

	missingBase64 := "data:image/jpeg,/9j/4AAQ"
	assert.ErrorIs(t, app.ValidateMediaPayload(&missingBase64, 1000), app.ErrBadPayload)

	assert.ErrorIs(t, app.ValidateMediaPayload(&valid, 10), app.ErrPayloadSize)
}

func TestValidateWhisperFilter(t *testing.T) {
	for _, f := range []string{"", "true", "ghost", "lowkey", "robot"} {
		assert.NoError(t, app.ValidateWhisperFilter(f), "filter %q", f)
	}
	assert.ErrorIs(t, app.ValidateWhisperFilter("chipmunk"), app.ErrUnknownFilter)
}

func TestValidateInviteFeature(t *testing.T) {
	for _, f := range []string{"whisper", "live_glass", "screen_share"} {
		assert.NoError(t, app.ValidateInviteFeature(f), "feature %q", f)
	}
	assert.ErrorIs(t, app.ValidateInviteFeature(""), app.ErrUnknownInvite)
	assert.ErrorIs(t, app.ValidateInviteFeature("teleport"), app.ErrUnknownInvite)
}

func TestValidateVideoControls(t *testing.T) {
	assert.NoError(t, app.ValidateVideoControls(app.VideoControls{Blur: 0}))
	assert.NoError(t, app.ValidateVideoControls(app.VideoControls{Blur: 100, Monochrome: true, Mute: true}))
	assert.ErrorIs(t, app.ValidateVideoControls(app.VideoControls{Blur: -1}), app.ErrBadControls)
	assert.ErrorIs(t, app.ValidateVideoControls(app.VideoControls{Blur: 100.5}), app.ErrBadControls)
}

func TestClampPresence(t *testing.T) {
	a, b := app.ClampPresence(-0.5, 1.5)
	assert.Equal(t, 0.0, a)
	assert.Equal(t, 1.0, b)

	a, b = app.ClampPresence(0.25, 0.75)
	assert.Equal(t, 0.25, a)
	assert.Equal(t, 0.75, b)
}
