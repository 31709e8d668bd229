package retriever

// Detection is a single detector key point in image space
type Detection struct {
	Label      string
	U          float64
	V          float64
	Confidence float64
}

// AssembleCandidate remaps and back-projects one detected skeleton.
// Detections below minConfidence, with labels outside of remap table or without valid depth are dropped.
// Hip center is synthesized as midpoint of both hips when both are present.
func AssembleCandidate(detections []Detection, camera *Camera, depth *DepthImage, minConfidence float64) []TaggedPoint {
	pairs := make([]TaggedPoint, 0, len(detections)+1)
	var hipLeft, hipRight *Point
	for _, detection := range detections {
		if detection.Confidence < minConfidence {
			continue
		}
		tag, ok := RemapLabel(detection.Label)
		if !ok {
			continue
		}
		p, ok := camera.BackProject(depth, detection.U, detection.V)
		if !ok {
			continue
		}
		pairs = append(pairs, TaggedPoint{Tag: tag, Point: p})
		switch tag {
		case HipLeft:
			hipLeft = &p
		case HipRight:
			hipRight = &p
		}
	}
	if hipLeft != nil && hipRight != nil {
		pairs = append(pairs, TaggedPoint{Tag: HipCenter, Point: midpoint(*hipLeft, *hipRight)})
	}
	return pairs
}

// NewCandidate wraps observed pairs into transient skeleton with planes estimated
func NewCandidate(pairs []TaggedPoint) *WaistSkeleton {
	sk := NewWaistSkeleton()
	sk.Update(pairs)
	UpdatePlanes(sk)
	return sk
}
