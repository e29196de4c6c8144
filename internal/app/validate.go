package app

import (
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/ghostline/relay/internal/domain"
)

var (
	ErrBadRoomCode   = errors.New("malformed room code")
	ErrBadDeviceID   = errors.New("device id is not a v4 uuid")
	ErrTextTooLong   = errors.New("text exceeds maximum length")
	ErrBadPayload    = errors.New("payload is not a base64 data uri")
	ErrPayloadSize   = errors.New("payload exceeds size ceiling")
	ErrUnknownFilter = errors.New("unknown whisper filter")
	ErrUnknownInvite = errors.New("unknown invite feature")
	ErrBadControls   = errors.New("video controls out of range")
)

// Limits carries the configured validator ceilings.
type Limits struct {
	TextMaxLen    int
	ImageMaxBytes int
	AudioMaxBytes int
}

// NormalizeRoomCode upper-cases raw and checks it is exactly six symbols
// from the code alphabet.
func NormalizeRoomCode(raw string) (domain.RoomCode, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if len(code) != domain.CodeLength {
		return "", ErrBadRoomCode
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(domain.CodeAlphabet, rune(code[i])) {
			return "", ErrBadRoomCode
		}
	}
	return domain.RoomCode(code), nil
}

// ValidateDeviceID accepts only version-4 UUID strings.
func ValidateDeviceID(raw string) (domain.DeviceID, error) {
	id, err := uuid.Parse(raw)
	if err != nil || id.Version() != 4 {
		return "", ErrBadDeviceID
	}
	return domain.DeviceID(strings.ToLower(raw)), nil
}

// SanitizeText enforces the length ceiling and strips control characters
// other than newlines. Fail-closed on length: over-long text is rejected,
// not truncated.
func SanitizeText(raw string, maxLen int) (string, error) {
	if len(raw) > maxLen {
		return "", ErrTextTooLong
	}
	clean := strings.Map(func(r rune) rune {
		if r == '\n' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, raw)
	return clean, nil
}

var dataURIRe = regexp.MustCompile(`^data:[a-zA-Z0-9.+-]+/[a-zA-Z0-9.+-]+;base64,`)

// ValidateMediaPayload checks a reveal or whisper payload: nil means "clear"
// and is always fine; otherwise the string must carry a base64 data-URI
// prefix and stay under the ceiling. The encoded-string length stands in
// for the decoded byte size; the media bytes themselves stay opaque.
func ValidateMediaPayload(payload *string, maxLen int) error {
	if payload == nil {
		return nil
	}
	if !dataURIRe.MatchString(*payload) {
		return ErrBadPayload
	}
	if len(*payload) > maxLen {
		return ErrPayloadSize
	}
	return nil
}

var whisperFilters = map[string]struct{}{
	"true":   {},
	"ghost":  {},
	"lowkey": {},
	"robot":  {},
}

// ValidateWhisperFilter accepts the fixed filter set; empty means no filter.
func ValidateWhisperFilter(filter string) error {
	if filter == "" {
		return nil
	}
	if _, ok := whisperFilters[filter]; !ok {
		return ErrUnknownFilter
	}
	return nil
}

var inviteFeatures = map[string]struct{}{
	"whisper":      {},
	"live_glass":   {},
	"screen_share": {},
}

// ValidateInviteFeature accepts the fixed feature set.
func ValidateInviteFeature(feature string) error {
	if _, ok := inviteFeatures[feature]; !ok {
		return ErrUnknownInvite
	}
	return nil
}

// VideoControls is the sanitized camera/video control object. Decoding into
// this struct drops any unexpected keys a client smuggles in.
type VideoControls struct {
	Blur       float64 `json:"blur"`
	Monochrome bool    `json:"monochrome"`
	Mute       bool    `json:"mute"`
}

// ValidateVideoControls checks blur stays inside [0,100].
func ValidateVideoControls(c VideoControls) error {
	if c.Blur < 0 || c.Blur > 100 {
		return ErrBadControls
	}
	return nil
}

// ClampPresence forces both presence floats into [0,1].
func ClampPresence(activity, brightness float64) (float64, float64) {
	return clamp01(activity), clamp01(brightness)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
