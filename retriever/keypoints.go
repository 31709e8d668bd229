package retriever

// KeyPointTag is a canonical anatomical key point name
type KeyPointTag string

const (
	ShoulderCenter KeyPointTag = "shoulderCenter"
	Head           KeyPointTag = "head"
	ShoulderLeft   KeyPointTag = "shoulderLeft"
	ElbowLeft      KeyPointTag = "elbowLeft"
	HandLeft       KeyPointTag = "handLeft"
	ShoulderRight  KeyPointTag = "shoulderRight"
	ElbowRight     KeyPointTag = "elbowRight"
	HandRight      KeyPointTag = "handRight"
	HipCenter      KeyPointTag = "hipCenter"
	HipLeft        KeyPointTag = "hipLeft"
	KneeLeft       KeyPointTag = "kneeLeft"
	AnkleLeft      KeyPointTag = "ankleLeft"
	HipRight       KeyPointTag = "hipRight"
	KneeRight      KeyPointTag = "kneeRight"
	AnkleRight     KeyPointTag = "ankleRight"
)

// NumKeyPoints is size of the key point vocabulary. It is the same for every skeleton
const NumKeyPoints = 15

// keyPointTags defines slot order
var keyPointTags = [NumKeyPoints]KeyPointTag{
	ShoulderCenter,
	Head,
	ShoulderLeft,
	ElbowLeft,
	HandLeft,
	ShoulderRight,
	ElbowRight,
	HandRight,
	HipCenter,
	HipLeft,
	KneeLeft,
	AnkleLeft,
	HipRight,
	KneeRight,
	AnkleRight,
}

var keyPointIndex = func() map[KeyPointTag]int {
	index := make(map[KeyPointTag]int, NumKeyPoints)
	for i, tag := range keyPointTags {
		index[tag] = i
	}
	return index
}()

// Detector (OpenPose BODY_25/COCO naming) labels to canonical tags.
// Hip center has no detector label: it is synthesized from both hips.
var labelRemap = map[string]KeyPointTag{
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

// KeyPointTags returns canonical tags in slot order
func KeyPointTags() []KeyPointTag {
	tags := make([]KeyPointTag, NumKeyPoints)
	copy(tags, keyPointTags[:])
	return tags
}

// KeyPointIndex returns slot index of the tag
func KeyPointIndex(tag KeyPointTag) (int, bool) {
	idx, ok := keyPointIndex[tag]
	return idx, ok
}

// RemapLabel maps detector-specific label to canonical tag
func RemapLabel(label string) (KeyPointTag, bool) {
	tag, ok := labelRemap[label]
	return tag, ok
}
