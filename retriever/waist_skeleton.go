package retriever

const (
	propertyType     = "type"
	propertyTag      = "tag"
	propertySkeleton = "skeleton"

	statusUpdated = "updated"
	statusStale   = "stale"

	// SkeletonType is the value of "type" property of serialized skeletons
	SkeletonType = "skeleton"
)

var _ Skeleton = (*WaistSkeleton)(nil)

// WaistSkeleton is the default full body skeleton model: 15 key points rooted at the waist.
// It implements Skeleton interface.
type WaistSkeleton struct {
	tag        string
	keyPoints  []KeyPoint
	sagittal   Point
	transverse Point
	coronal    Point
}

// NewWaistSkeleton creates skeleton with every slot unknown
func NewWaistSkeleton() *WaistSkeleton {
	sk := WaistSkeleton{
		keyPoints: make([]KeyPoint, NumKeyPoints),
	}
	for i, tag := range keyPointTags {
		sk.keyPoints[i].tag = tag
	}
	return &sk
}

// GetTag returns skeleton's tag
func (sk *WaistSkeleton) GetTag() string {
	return sk.tag
}

// SetTag sets skeleton's tag
func (sk *WaistSkeleton) SetTag(tag string) {
	sk.tag = tag
}

// NumKeyPoints returns number of slots
func (sk *WaistSkeleton) NumKeyPoints() int {
	return len(sk.keyPoints)
}

// KeyPointAt returns slot by index. Returns nil for out of range index
func (sk *WaistSkeleton) KeyPointAt(i int) *KeyPoint {
	if i < 0 || i >= len(sk.keyPoints) {
		return nil
	}
	return &sk.keyPoints[i]
}

// KeyPoint returns slot by tag. Returns nil for unknown tag
func (sk *WaistSkeleton) KeyPoint(tag KeyPointTag) *KeyPoint {
	idx, ok := keyPointIndex[tag]
	if !ok {
		return nil
	}
	return &sk.keyPoints[idx]
}

// Update replaces key points state. Pairs with unknown tags are ignored
func (sk *WaistSkeleton) Update(pairs []TaggedPoint) {
	for i := range sk.keyPoints {
		sk.keyPoints[i].updated = false
		sk.keyPoints[i].valid = false
	}
	for _, pair := range pairs {
		idx, ok := keyPointIndex[pair.Tag]
		if !ok {
			continue
		}
		kp := &sk.keyPoints[idx]
		kp.point = pair.Point
		kp.valid = true
		kp.updated = !pair.Stale
	}
}

// GetSagittal returns sagittal plane normal
func (sk *WaistSkeleton) GetSagittal() Point {
	return sk.sagittal
}

// SetSagittal sets sagittal plane normal
func (sk *WaistSkeleton) SetSagittal(plane Point) {
	sk.sagittal = plane
}

// GetTransverse returns transverse plane normal
func (sk *WaistSkeleton) GetTransverse() Point {
	return sk.transverse
}

// SetTransverse sets transverse plane normal
func (sk *WaistSkeleton) SetTransverse(plane Point) {
	sk.transverse = plane
}

// GetCoronal returns coronal plane normal
func (sk *WaistSkeleton) GetCoronal() Point {
	return sk.coronal
}

// SetCoronal sets coronal plane normal
func (sk *WaistSkeleton) SetCoronal(plane Point) {
	sk.coronal = plane
}

// ToProperties serializes skeleton. Only valid key points are listed.
// Every value is one of the types accepted by protobuf Struct conversion.
func (sk *WaistSkeleton) ToProperties() Properties {
	keyPoints := make([]interface{}, 0, len(sk.keyPoints))
	for i := range sk.keyPoints {
		kp := &sk.keyPoints[i]
		if !kp.valid {
			continue
		}
		status := statusUpdated
		if !kp.updated {
			status = statusStale
		}
		keyPoints = append(keyPoints, map[string]interface{}{
			"tag":      string(kp.tag),
			"status":   status,
			"position": pointToList(kp.point),
		})
	}
	return Properties{
		propertyType:     SkeletonType,
		propertyTag:      sk.tag,
		"sagittal":       pointToList(sk.sagittal),
		"transverse":     pointToList(sk.transverse),
		"coronal":        pointToList(sk.coronal),
		propertySkeleton: keyPoints,
	}
}
