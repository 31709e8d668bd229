package retriever

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

// standingPose returns a full set of key points of a person standing 2m in front of camera
func standingPose(offset Point) map[KeyPointTag]Point {
	pose := map[KeyPointTag]Point{
		Head:           NewPoint(0.0, -0.75, 2.0),
		ShoulderCenter: NewPoint(0.0, -0.55, 2.0),
		ShoulderLeft:   NewPoint(0.2, -0.55, 2.0),
		ShoulderRight:  NewPoint(-0.2, -0.55, 2.0),
		ElbowLeft:      NewPoint(0.25, -0.3, 2.0),
		ElbowRight:     NewPoint(-0.25, -0.3, 2.0),
		HandLeft:       NewPoint(0.3, -0.05, 2.0),
		HandRight:      NewPoint(-0.3, -0.05, 2.0),
		HipCenter:      NewPoint(0.0, 0.0, 2.0),
		HipLeft:        NewPoint(0.12, 0.0, 2.0),
		HipRight:       NewPoint(-0.12, 0.0, 2.0),
		KneeLeft:       NewPoint(0.12, 0.45, 2.0),
		KneeRight:      NewPoint(-0.12, 0.45, 2.0),
		AnkleLeft:      NewPoint(0.12, 0.9, 2.0),
		AnkleRight:     NewPoint(-0.12, 0.9, 2.0),
	}
	for tag, p := range pose {
		pose[tag] = r3.Add(p, offset)
	}
	return pose
}

// pairsFrom converts pose into observed pairs, skipping given tags
func pairsFrom(pose map[KeyPointTag]Point, skip ...KeyPointTag) []TaggedPoint {
	skipped := make(map[KeyPointTag]struct{}, len(skip))
	for _, tag := range skip {
		skipped[tag] = struct{}{}
	}
	pairs := make([]TaggedPoint, 0, len(pose))
	for _, tag := range keyPointTags {
		p, ok := pose[tag]
		if !ok {
			continue
		}
		if _, ok := skipped[tag]; ok {
			continue
		}
		pairs = append(pairs, TaggedPoint{Tag: tag, Point: p})
	}
	return pairs
}

func candidateFrom(pose map[KeyPointTag]Point, skip ...KeyPointTag) *WaistSkeleton {
	return NewCandidate(pairsFrom(pose, skip...))
}

type fakeFrames struct {
	depth      *DepthImage
	detections [][][]Detection
}

func (f *fakeFrames) ReadDepth() (*DepthImage, bool) {
	if f.depth == nil {
		return nil, false
	}
	depth := f.depth
	f.depth = nil
	return depth, true
}

func (f *fakeFrames) ReadDetections() ([][]Detection, bool) {
	if len(f.detections) == 0 {
		return nil, false
	}
	batch := f.detections[0]
	f.detections = f.detections[1:]
	return batch, true
}

func (f *fakeFrames) push(batch ...[]Detection) {
	f.detections = append(f.detections, batch)
}

type fakeCamera struct {
	failures int
	calls    int
}

func (c *fakeCamera) FieldOfView(ctx context.Context) (float64, float64, error) {
	c.calls++
	if c.calls <= c.failures {
		return 0, 0, errors.New("camera is not connected")
	}
	return 90.0, 60.0, nil
}

type fakeRegistry struct {
	mu          sync.Mutex
	nextID      int64
	addFailures int
	adds        int
	sets        map[int64]int
	deletes     map[int64]int
	objects     map[int64]Properties
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		nextID:  0x10,
		sets:    make(map[int64]int),
		deletes: make(map[int64]int),
		objects: make(map[int64]Properties),
	}
}

func (reg *fakeRegistry) Add(ctx context.Context, props Properties) (int64, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.adds++
	if reg.adds <= reg.addFailures {
		return NoRegistryID, errors.New("registry is not reachable")
	}
	id := reg.nextID
	reg.nextID++
	reg.objects[id] = props
	return id, nil
}

func (reg *fakeRegistry) Set(ctx context.Context, id int64, props Properties) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, ok := reg.objects[id]; !ok {
		return errors.Wrapf(ErrUnknownObject, "object %d", id)
	}
	reg.sets[id]++
	reg.objects[id] = props
	return nil
}

func (reg *fakeRegistry) Delete(ctx context.Context, id int64) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.deletes[id]++
	if _, ok := reg.objects[id]; !ok {
		return errors.Wrapf(ErrUnknownObject, "object %d", id)
	}
	delete(reg.objects, id)
	return nil
}

type fakeViewer struct {
	batches [][]Properties
}

func (v *fakeViewer) Publish(ctx context.Context, batch []Properties) error {
	v.batches = append(v.batches, batch)
	return nil
}
