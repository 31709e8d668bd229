package retriever

import "context"

// Properties is serialized state of a skeleton
type Properties = map[string]interface{}

// Registry holds the canonical set of recognized world objects addressed by identifier
type Registry interface {
	Add(ctx context.Context, props Properties) (int64, error)
	Set(ctx context.Context, id int64, props Properties) error
	Delete(ctx context.Context, id int64) error
}

// Viewer receives serialized live skeletons once per changed cycle
type Viewer interface {
	Publish(ctx context.Context, batch []Properties) error
}

// CameraProvider is queried for camera field of view (degrees)
type CameraProvider interface {
	FieldOfView(ctx context.Context) (fovH float64, fovV float64, err error)
}

// FrameSource buffers incoming frames. Reads never block:
// second value is false when no new frame arrived since the previous read.
type FrameSource interface {
	ReadDepth() (*DepthImage, bool)
	ReadDetections() ([][]Detection, bool)
}
