package retriever

// TaggedPoint is a 3D point bound to canonical key point tag.
// Stale marks values carried over from previous cycles instead of fresh observations.
type TaggedPoint struct {
	Tag   KeyPointTag
	Point Point
	Stale bool
}

// KeyPoint is a single slot of skeleton
type KeyPoint struct {
	tag     KeyPointTag
	point   Point
	updated bool
	valid   bool
}

// GetTag returns slot's tag
func (kp *KeyPoint) GetTag() KeyPointTag {
	return kp.tag
}

// GetPoint returns slot's point. Meaningful only when IsValid() is true
func (kp *KeyPoint) GetPoint() Point {
	return kp.point
}

// IsUpdated returns true if point was freshly observed in the last update
func (kp *KeyPoint) IsUpdated() bool {
	return kp.updated
}

// IsValid returns true if slot holds a value (fresh or stale)
func (kp *KeyPoint) IsValid() bool {
	return kp.valid
}

// Skeleton is the interface for articulated skeleton models.
// Tracker works with any model implementing it.
type Skeleton interface {
	// Identity
	GetTag() string
	SetTag(tag string)

	// Key points
	NumKeyPoints() int
	KeyPointAt(i int) *KeyPoint
	KeyPoint(tag KeyPointTag) *KeyPoint
	// Update replaces every slot: listed tags become valid, all others are cleared
	Update(pairs []TaggedPoint)

	// Anatomical planes
	GetSagittal() Point
	SetSagittal(plane Point)
	GetTransverse() Point
	SetTransverse(plane Point)
	GetCoronal() Point
	SetCoronal(plane Point)

	// Serialization
	ToProperties() Properties
}
