package app

import (
	"crypto/rand"
	"errors"
	"math/big"

	"github.com/ghostline/relay/internal/domain"
)

// ErrCodeSpaceExhausted is returned when no free code was found within the
// attempt bound. 33^6 codes make this practically unreachable, but the
// generator must never loop forever under registry saturation.
var ErrCodeSpaceExhausted = errors.New("no free room code found")

// RoomIndex is the slice of the room registry the generator needs: just
// the collision check.
type RoomIndex interface {
	Exists(domain.RoomCode) bool
}

// CodeGenerator draws collision-checked room codes from the restricted
// alphabet using crypto/rand.
type CodeGenerator struct {
	rooms    RoomIndex
	attempts int
}

func NewCodeGenerator(rooms RoomIndex, attempts int) *CodeGenerator {
	if attempts <= 0 {
		attempts = 100
	}
	return &CodeGenerator{rooms: rooms, attempts: attempts}
}

// Generate returns a fresh code not currently indexing a live room.
func (g *CodeGenerator) Generate() (domain.RoomCode, error) {
	for range g.attempts {
		code, err := randomCode()
		if err != nil {
			return "", err
		}
		if !g.rooms.Exists(code) {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}

func randomCode() (domain.RoomCode, error) {
	alphabetLen := big.NewInt(int64(len(domain.CodeAlphabet)))
	buf := make([]byte, domain.CodeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", err
		}
		buf[i] = domain.CodeAlphabet[n.Int64()]
	}
	return domain.RoomCode(buf), nil
}
