package retriever

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NoRegistryID marks tracks which are not admitted by registry (yet)
const NoRegistryID int64 = -1

// Track is a skeleton tracked across frames
type Track struct {
	// Local identifier
	ID uuid.UUID
	// Identifier assigned by registry
	RegistryID int64
	Skeleton   Skeleton
	// Remaining number of cycles each stale key point may still be reported
	Misses []int
	TTL    time.Duration
}

func newTrack(sk Skeleton, ttl time.Duration) *Track {
	return &Track{
		ID:         uuid.New(),
		RegistryID: NoRegistryID,
		Skeleton:   sk,
		Misses:     make([]int, sk.NumKeyPoints()),
		TTL:        ttl,
	}
}

// IsRegistered returns true if registry has assigned identifier to the track
func (track *Track) IsRegistered() bool {
	return track.RegistryID != NoRegistryID
}

// SetRegistryID binds track to registry identifier and tags skeleton with it
func (track *Track) SetRegistryID(id int64) {
	track.RegistryID = id
	track.Skeleton.SetTag(fmt.Sprintf("#%x", id))
}
