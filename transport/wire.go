// Package transport exposes skeleton retriever collaborators over gRPC.
// Messages are protobuf well-known types, so no generated code is involved.
package transport

import (
	"encoding/binary"
	"math"

	"github.com/LdDl/skeleton-retriever/retriever"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ErrMalformedDepth is returned when depth payload does not match its header
var ErrMalformedDepth = errors.New("malformed depth frame")

const depthHeaderSize = 8

// EncodeDepth packs depth image: little-endian uint32 width and height followed by float32 samples
func EncodeDepth(img *retriever.DepthImage) *wrapperspb.BytesValue {
	if img.Empty() {
		return wrapperspb.Bytes(make([]byte, depthHeaderSize))
	}
	n := img.Width * img.Height
	buf := make([]byte, depthHeaderSize+4*n)
	binary.LittleEndian.PutUint32(buf[0:], uint32(img.Width))
	binary.LittleEndian.PutUint32(buf[4:], uint32(img.Height))
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(buf[depthHeaderSize+4*i:], math.Float32bits(img.Data[i]))
	}
	return wrapperspb.Bytes(buf)
}

// DecodeDepth unpacks depth image produced by EncodeDepth
func DecodeDepth(msg *wrapperspb.BytesValue) (*retriever.DepthImage, error) {
	buf := msg.GetValue()
	if len(buf) < depthHeaderSize {
		return nil, errors.Wrapf(ErrMalformedDepth, "header needs %d bytes, got %d", depthHeaderSize, len(buf))
	}
	width := uint64(binary.LittleEndian.Uint32(buf[0:]))
	height := uint64(binary.LittleEndian.Uint32(buf[4:]))
	payload := buf[depthHeaderSize:]
	if len(payload)%4 != 0 {
		return nil, errors.Wrapf(ErrMalformedDepth, "payload of %d bytes is not a whole number of samples", len(payload))
	}
	// Compare by division: width*height of a forged header does not fit into int
	samples := uint64(len(payload) / 4)
	if width == 0 || height == 0 {
		if samples != 0 {
			return nil, errors.Wrapf(ErrMalformedDepth, "%dx%d frame carries %d samples", width, height, samples)
		}
		return retriever.NewDepthImage(0, 0), nil
	}
	if samples%height != 0 || samples/height != width {
		return nil, errors.Wrapf(ErrMalformedDepth, "%dx%d frame does not match %d samples", width, height, samples)
	}
	img := retriever.NewDepthImage(int(width), int(height))
	for i := range img.Data {
		img.Data[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[4*i:]))
	}
	return img, nil
}

// EncodeDetections packs batch of detected skeletons as list of lists [label, u, v, confidence]
func EncodeDetections(batch [][]retriever.Detection) (*structpb.ListValue, error) {
	skeletons := make([]interface{}, 0, len(batch))
	for _, detections := range batch {
		points := make([]interface{}, 0, len(detections))
		for _, d := range detections {
			points = append(points, []interface{}{d.Label, d.U, d.V, d.Confidence})
		}
		skeletons = append(skeletons, points)
	}
	list, err := structpb.NewList(skeletons)
	if err != nil {
		return nil, errors.Wrap(err, "detections")
	}
	return list, nil
}

// DecodeDetections unpacks batch produced by EncodeDetections.
// Entries which are not [string, number, number, number] are skipped.
func DecodeDetections(msg *structpb.ListValue) [][]retriever.Detection {
	batch := make([][]retriever.Detection, 0, len(msg.GetValues()))
	for _, skeleton := range msg.GetValues() {
		entries := skeleton.GetListValue().GetValues()
		detections := make([]retriever.Detection, 0, len(entries))
		for _, entry := range entries {
			fields := entry.GetListValue().GetValues()
			if len(fields) < 4 {
				continue
			}
			label, ok := fields[0].GetKind().(*structpb.Value_StringValue)
			if !ok {
				continue
			}
			if !isNumber(fields[1]) || !isNumber(fields[2]) || !isNumber(fields[3]) {
				continue
			}
			detections = append(detections, retriever.Detection{
				Label:      label.StringValue,
				U:          fields[1].GetNumberValue(),
				V:          fields[2].GetNumberValue(),
				Confidence: fields[3].GetNumberValue(),
			})
		}
		batch = append(batch, detections)
	}
	return batch
}

func isNumber(v *structpb.Value) bool {
	_, ok := v.GetKind().(*structpb.Value_NumberValue)
	return ok
}

// EncodeProperties converts serialized skeleton to protobuf Struct
func EncodeProperties(props retriever.Properties) (*structpb.Struct, error) {
	msg, err := structpb.NewStruct(props)
	if err != nil {
		return nil, errors.Wrap(err, "properties")
	}
	return msg, nil
}

// DecodeProperties converts protobuf Struct back to properties map
func DecodeProperties(msg *structpb.Struct) retriever.Properties {
	if msg == nil {
		return retriever.Properties{}
	}
	return msg.AsMap()
}

func encodeBatch(batch []retriever.Properties) (*structpb.ListValue, error) {
	items := make([]interface{}, 0, len(batch))
	for _, props := range batch {
		items = append(items, props)
	}
	list, err := structpb.NewList(items)
	if err != nil {
		return nil, errors.Wrap(err, "batch")
	}
	return list, nil
}

func decodeBatch(msg *structpb.ListValue) []retriever.Properties {
	batch := make([]retriever.Properties, 0, len(msg.GetValues()))
	for _, item := range msg.GetValues() {
		batch = append(batch, DecodeProperties(item.GetStructValue()))
	}
	return batch
}
