package retriever

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemapLabel(t *testing.T) {
	expected := map[string]KeyPointTag{
		"Nose":      Head,
		"Neck":      ShoulderCenter,
		"RShoulder": ShoulderRight,
		"RElbow":    ElbowRight,
		"RWrist":    HandRight,
		"LShoulder": ShoulderLeft,
		"LElbow":    ElbowLeft,
		"LWrist":    HandLeft,
		"RHip":      HipRight,
		"RKnee":     KneeRight,
		"RAnkle":    AnkleRight,
		"LHip":      HipLeft,
		"LKnee":     KneeLeft,
		"LAnkle":    AnkleLeft,
	}
	for label, tag := range expected {
		got, ok := RemapLabel(label)
		assert.True(t, ok, label)
		assert.Equal(t, tag, got, label)
	}
	_, ok := RemapLabel("REye")
	assert.False(t, ok)
	_, ok = RemapLabel("MidHip")
	assert.False(t, ok)
}

func TestKeyPointTags(t *testing.T) {
	tags := KeyPointTags()
	require.Len(t, tags, NumKeyPoints)
	for i, tag := range tags {
		idx, ok := KeyPointIndex(tag)
		assert.True(t, ok)
		assert.Equal(t, i, idx)
	}
	// Returned slice is a copy
	tags[0] = "tail"
	assert.Equal(t, ShoulderCenter, KeyPointTags()[0])
}

func TestAssembleCandidate(t *testing.T) {
	camera, err := NewCamera(90.0, 60.0)
	require.NoError(t, err)
	depth := NewDepthImage(64, 48)
	depth.Fill(2.0)
	depth.Set(10, 10, 0)

	detections := []Detection{
		{Label: "Neck", U: 32, V: 10, Confidence: 0.9},
		{Label: "LHip", U: 36, V: 24, Confidence: 0.8},
		{Label: "RHip", U: 28, V: 24, Confidence: 0.3},
		{Label: "LWrist", U: 42, V: 22, Confidence: 0.29},
		{Label: "Nose", U: 10, V: 10, Confidence: 0.95},
		{Label: "REar", U: 30, V: 5, Confidence: 0.95},
	}
	pairs := AssembleCandidate(detections, camera, depth, 0.3)

	tags := make(map[KeyPointTag]Point, len(pairs))
	for _, pair := range pairs {
		assert.False(t, pair.Stale)
		tags[pair.Tag] = pair.Point
	}
	require.Len(t, tags, 4)
	assert.Contains(t, tags, ShoulderCenter)
	assert.Contains(t, tags, HipLeft)
	assert.Contains(t, tags, HipRight, "confidence equal to threshold is accepted")
	assert.NotContains(t, tags, HandLeft, "confidence below threshold is dropped")
	assert.NotContains(t, tags, Head, "zero depth is dropped")

	hipCenter, ok := tags[HipCenter]
	require.True(t, ok, "hip center must be synthesized")
	assert.InDelta(t, (tags[HipLeft].X+tags[HipRight].X)/2, hipCenter.X, eps)
	assert.InDelta(t, tags[HipLeft].Y, hipCenter.Y, eps)
	assert.InDelta(t, 2.0, hipCenter.Z, eps)
}

func TestAssembleCandidateSingleHip(t *testing.T) {
	camera, err := NewCamera(90.0, 60.0)
	require.NoError(t, err)
	depth := NewDepthImage(64, 48)
	depth.Fill(2.0)

	pairs := AssembleCandidate([]Detection{{Label: "LHip", U: 36, V: 24, Confidence: 1}}, camera, depth, 0.3)
	require.Len(t, pairs, 1)
	assert.Equal(t, HipLeft, pairs[0].Tag)

	candidate := NewCandidate(pairs)
	assert.True(t, candidate.KeyPoint(HipLeft).IsUpdated())
	assert.False(t, candidate.KeyPoint(HipCenter).IsValid())
}
