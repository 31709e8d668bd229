package retriever

import "time"

// Tracker keeps live skeleton tracks and associates candidates with them.
// It is not safe for concurrent use: the control loop is its only owner.
type Tracker struct {
	// Live tracks in insertion order
	Tracks []*Track
	// Maximum mean key point distance for correspondence. Default 0.3
	trackingThreshold float64
	// Minimum fraction of fresh key points for admission. Default 0.3
	recognitionPercentage float64
	// Per key point miss budget. Default 3
	acceptableMisses int
	// Track's time to live. Default 500ms
	timeToLive time.Duration
	// Decrement of time to live per sweep. Default 10ms
	period time.Duration
}

// NewTrackerDefault creates default instance of Tracker
func NewTrackerDefault() *Tracker {
	return NewTracker(DefaultConfig())
}

// NewTracker creates new instance of Tracker
func NewTracker(cfg Config) *Tracker {
	return &Tracker{
		Tracks:                make([]*Track, 0),
		trackingThreshold:     cfg.TrackingThreshold,
		recognitionPercentage: cfg.KeyRecognitionPercentage,
		acceptableMisses:      cfg.KeysAcceptableMisses,
		timeToLive:            cfg.TimeToLive,
		period:                cfg.Period,
	}
}

// MeanDistance returns mean distance between track's and candidate's key points.
// Only slots fresh on both sides contribute distance, but every slot is counted.
func (tracker *Tracker) MeanDistance(track *Track, candidate Skeleton) float64 {
	sk := track.Skeleton
	mean := 0.0
	num := 0
	for i := 0; i < sk.NumKeyPoints(); i++ {
		kp, ckp := sk.KeyPointAt(i), candidate.KeyPointAt(i)
		if kp.IsUpdated() && ckp != nil && ckp.IsUpdated() {
			mean += euclideanDistance(kp.GetPoint(), ckp.GetPoint())
		}
		num++
	}
	if num == 0 {
		return mean
	}
	return mean / float64(num)
}

// Match finds live track closest to the candidate. Tracks farther than tracking threshold are
// not eligible. Among tracks at the same distance the earliest admitted one wins.
func (tracker *Tracker) Match(candidate Skeleton) (*Track, float64, bool) {
	// Heap orders by (distance, index), so it carries the tie-break as well as the minimum
	priorityQueue := make(distanceHeap, 0, len(tracker.Tracks))
	for i, track := range tracker.Tracks {
		mean := tracker.MeanDistance(track, candidate)
		if mean <= tracker.trackingThreshold {
			priorityQueue.Push(&trackDistance{index: i, distance: mean})
		}
	}
	if priorityQueue.Len() == 0 {
		return nil, 0, false
	}
	best := priorityQueue.Pop()
	return tracker.Tracks[best.index], best.distance, true
}

// Update merges candidate into the track. Missing key points are retained as stale while
// their miss budget lasts. Planes are re-estimated and time to live is reset.
func (tracker *Tracker) Update(candidate Skeleton, track *Track) {
	sk := track.Skeleton
	pairs := make([]TaggedPoint, 0, sk.NumKeyPoints())
	for i := 0; i < sk.NumKeyPoints(); i++ {
		kp := sk.KeyPointAt(i)
		ckp := candidate.KeyPointAt(i)
		if ckp != nil && ckp.IsUpdated() {
			pairs = append(pairs, TaggedPoint{Tag: ckp.GetTag(), Point: ckp.GetPoint()})
			track.Misses[i] = tracker.acceptableMisses
		} else if track.Misses[i] > 0 && kp.IsValid() {
			pairs = append(pairs, TaggedPoint{Tag: kp.GetTag(), Point: kp.GetPoint(), Stale: true})
			track.Misses[i]--
		}
	}
	sk.Update(pairs)
	UpdatePlanes(sk)
	track.TTL = tracker.timeToLive
}

// IsValid checks that enough key points of candidate are fresh to start a new track
func (tracker *Tracker) IsValid(candidate Skeleton) bool {
	total := candidate.NumKeyPoints()
	if total == 0 {
		return false
	}
	perc := float64(countUpdated(candidate)) / float64(total)
	return perc >= tracker.recognitionPercentage
}

// Admit registers candidate as a new track if it passes IsValid
func (tracker *Tracker) Admit(candidate Skeleton) (*Track, bool) {
	if !tracker.IsValid(candidate) {
		return nil, false
	}
	track := newTrack(candidate, tracker.timeToLive)
	tracker.Tracks = append(tracker.Tracks, track)
	return track, true
}

// Observe matches candidate against live tracks and either updates the best one or admits
// candidate as a new track. Returns affected track and whether it was created.
// Third value is false when candidate neither matched nor was admitted.
// Candidate without fresh key points is at zero distance from every track, so it refreshes the earliest one.
func (tracker *Tracker) Observe(candidate Skeleton) (*Track, bool, bool) {
	if track, _, ok := tracker.Match(candidate); ok {
		tracker.Update(candidate, track)
		return track, false, true
	}
	if track, ok := tracker.Admit(candidate); ok {
		return track, true, true
	}
	return nil, false, false
}

// Sweep decrements time to live of every track by the period and removes expired ones.
// Returns removed tracks.
func (tracker *Tracker) Sweep() []*Track {
	var expired []*Track
	alive := tracker.Tracks[:0]
	for _, track := range tracker.Tracks {
		track.TTL -= tracker.period
		if track.TTL > 0 {
			alive = append(alive, track)
		} else {
			expired = append(expired, track)
		}
	}
	for i := len(alive); i < len(tracker.Tracks); i++ {
		tracker.Tracks[i] = nil
	}
	tracker.Tracks = alive
	return expired
}

func countUpdated(sk Skeleton) int {
	n := 0
	for i := 0; i < sk.NumKeyPoints(); i++ {
		if sk.KeyPointAt(i).IsUpdated() {
			n++
		}
	}
	return n
}
