package retriever

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Retriever runs the fixed period cycle: it caches depth frames, turns detection frames into
// candidates, keeps tracks in sync with registry and publishes them to viewer.
type Retriever struct {
	cfg     Config
	tracker *Tracker

	frames         FrameSource
	cameraProvider CameraProvider
	registry       Registry
	viewer         Viewer

	// nil until camera provider answers
	camera *Camera
	// last received depth frame
	depth *DepthImage

	log logrus.FieldLogger
}

// Option configures Retriever
type Option func(*Retriever)

// WithLogger sets logger. Default is logrus standard logger
func WithLogger(logger logrus.FieldLogger) Option {
	return func(r *Retriever) {
		r.log = logger
	}
}

// WithRegistry sets registry. Without it tracks are kept locally only
func WithRegistry(registry Registry) Option {
	return func(r *Retriever) {
		r.registry = registry
	}
}

// WithViewer sets visualization sink
func WithViewer(viewer Viewer) Option {
	return func(r *Retriever) {
		r.viewer = viewer
	}
}

// NewRetriever creates new instance of Retriever
func NewRetriever(cfg Config, frames FrameSource, cameraProvider CameraProvider, opts ...Option) *Retriever {
	r := &Retriever{
		cfg:            cfg,
		tracker:        NewTracker(cfg),
		frames:         frames,
		cameraProvider: cameraProvider,
		log:            logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Tracks returns live tracks. Be careful: this is not copy, but reference to tracker's storage
func (r *Retriever) Tracks() []*Track {
	return r.tracker.Tracks
}

// Run executes Step every period until context is cancelled.
// Ticks missed while a step is running are dropped.
func (r *Retriever) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.Period)
	defer ticker.Stop()
	r.log.WithField("period", r.cfg.Period).Info("Skeleton retriever started")
	for {
		select {
		case <-ctx.Done():
			r.log.Info("Skeleton retriever stopped")
			return nil
		case <-ticker.C:
			r.Step(ctx)
		}
	}
}

// Step executes a single cycle
func (r *Retriever) Step(ctx context.Context) {
	if depth, ok := r.frames.ReadDepth(); ok {
		r.depth = depth
	}
	if r.camera == nil {
		r.configureCamera(ctx)
	}

	r.collectGarbage(ctx)

	batch, ok := r.frames.ReadDetections()
	if !ok {
		return
	}
	if r.camera == nil || r.depth.Empty() {
		r.log.WithField("skeletons", len(batch)).Debug("Detections dropped: camera or depth is not available")
		return
	}

	changed := false
	for _, detections := range batch {
		pairs := AssembleCandidate(detections, r.camera, r.depth, r.cfg.KeyRecognitionConfidence)
		candidate := NewCandidate(pairs)
		track, created, ok := r.tracker.Observe(candidate)
		if !ok {
			r.log.WithField("keypoints", len(pairs)).Debug("Candidate discarded")
			continue
		}
		if created {
			r.log.WithField("track", track.ID).Info("Track admitted")
		}
		r.sync(ctx, track)
		changed = true
	}

	if changed {
		r.publish(ctx)
	}
}

func (r *Retriever) configureCamera(ctx context.Context) {
	if r.cameraProvider == nil {
		return
	}
	callCtx, cancel := context.WithTimeout(ctx, r.cfg.RPCTimeout)
	defer cancel()
	fovH, fovV, err := r.cameraProvider.FieldOfView(callCtx)
	if err != nil {
		r.log.WithError(err).Debug("Camera is not configured yet")
		return
	}
	camera, err := NewCamera(fovH, fovV)
	if err != nil {
		r.log.WithError(err).Warn("Camera returned unusable field of view")
		return
	}
	r.camera = camera
	r.log.WithFields(logrus.Fields{"fov_h": fovH, "fov_v": fovV}).Info("Retrieved field of view from camera")
}

func (r *Retriever) collectGarbage(ctx context.Context) {
	for _, track := range r.tracker.Sweep() {
		fields := logrus.Fields{"track": track.ID, "registry_id": track.RegistryID}
		r.log.WithFields(fields).Info("Track expired")
		if r.registry == nil || !track.IsRegistered() {
			continue
		}
		if err := r.release(ctx, track); err != nil {
			r.log.WithFields(fields).WithError(err).Warn("Can't delete track from registry")
		}
	}
}

// sync pushes track's state to registry. Tracks without registry identifier are added first
func (r *Retriever) sync(ctx context.Context, track *Track) {
	if r.registry == nil {
		return
	}
	fields := logrus.Fields{"track": track.ID, "registry_id": track.RegistryID}
	if !track.IsRegistered() {
		if err := r.register(ctx, track); err != nil {
			r.log.WithFields(fields).WithError(err).Warn("Can't add track to registry")
		}
		return
	}
	if err := r.push(ctx, track); err != nil {
		r.log.WithFields(fields).WithError(err).Warn("Can't update track in registry")
	}
}

func (r *Retriever) register(ctx context.Context, track *Track) error {
	callCtx, cancel := context.WithTimeout(ctx, r.cfg.RPCTimeout)
	defer cancel()
	id, err := r.registry.Add(callCtx, track.Skeleton.ToProperties())
	if err != nil {
		return errors.Wrap(err, "add")
	}
	track.SetRegistryID(id)
	r.log.WithFields(logrus.Fields{"track": track.ID, "registry_id": id}).Info("Track registered")
	return r.push(ctx, track)
}

func (r *Retriever) push(ctx context.Context, track *Track) error {
	callCtx, cancel := context.WithTimeout(ctx, r.cfg.RPCTimeout)
	defer cancel()
	return errors.Wrapf(r.registry.Set(callCtx, track.RegistryID, track.Skeleton.ToProperties()), "set %d", track.RegistryID)
}

func (r *Retriever) release(ctx context.Context, track *Track) error {
	callCtx, cancel := context.WithTimeout(ctx, r.cfg.RPCTimeout)
	defer cancel()
	return errors.Wrapf(r.registry.Delete(callCtx, track.RegistryID), "delete %d", track.RegistryID)
}

func (r *Retriever) publish(ctx context.Context) {
	if r.viewer == nil {
		return
	}
	batch := make([]Properties, 0, len(r.tracker.Tracks))
	for _, track := range r.tracker.Tracks {
		batch = append(batch, track.Skeleton.ToProperties())
	}
	if err := r.viewer.Publish(ctx, batch); err != nil {
		r.log.WithError(err).Warn("Can't publish skeletons to viewer")
	}
}
