package protocol

import (
	"crypto/rand"
	"encoding/hex"
	"os"
)

// StationID is the opaque 6-byte token identifying one station on the
// medium. The zero value is reserved as the noise sentinel: no legitimate
// station ever carries it.
type StationID [6]byte

// Broadcast is the all-ones destination used for frames addressed to the
// whole medium.
var Broadcast = StationID{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// IsZero reports whether the id is the noise sentinel.
func (id StationID) IsZero() bool { return id == StationID{} }

func (id StationID) String() string { return hex.EncodeToString(id[:]) }

// LocalStationID derives a session-unique station id from the process id
// (low 4 bytes) plus 2 random bytes, so concurrent senders on one host or
// pid reuse across hosts cannot alias each other. The result is never the
// zero sentinel.
func LocalStationID() (StationID, error) {
	var id StationID
	pid := uint32(os.Getpid())
	id[0] = byte(pid)
	id[1] = byte(pid >> 8)
	id[2] = byte(pid >> 16)
	id[3] = byte(pid >> 24)
	if _, err := rand.Read(id[4:6]); err != nil {
		return StationID{}, err
	}
	if id.IsZero() {
		id[5] = 0x01
	}
	return id, nil
}
