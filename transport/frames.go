package transport

import (
	"context"
	"sync"

	"github.com/LdDl/skeleton-retriever/retriever"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	framesService        = "skeleton.v1.Frames"
	framesPushDepth      = "/" + framesService + "/PushDepth"
	framesPushDetections = "/" + framesService + "/PushDetections"
)

// FrameSink accepts incoming frames
type FrameSink interface {
	PutDepth(img *retriever.DepthImage)
	PutDetections(batch [][]retriever.Detection)
}

var framesServiceDesc = grpc.ServiceDesc{
	ServiceName: framesService,
	HandlerType: (*FrameSink)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "PushDepth", Handler: framesPushDepthHandler},
		{MethodName: "PushDetections", Handler: framesPushDetectionsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "skeleton/v1/frames",
}

// RegisterFramesServer serves frame ingestion over gRPC
func RegisterFramesServer(s grpc.ServiceRegistrar, sink FrameSink) {
	s.RegisterService(&framesServiceDesc, sink)
}

func framesPushDepthHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		img, err := DecodeDepth(req.(*wrapperspb.BytesValue))
		if err != nil {
			return nil, toStatus(err)
		}
		srv.(FrameSink).PutDepth(img)
		return &emptypb.Empty{}, nil
	}
	if interceptor == nil {
		return handler(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: framesPushDepth}
	return interceptor(ctx, in, info, handler)
}

func framesPushDetectionsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.ListValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		srv.(FrameSink).PutDetections(DecodeDetections(req.(*structpb.ListValue)))
		return &emptypb.Empty{}, nil
	}
	if interceptor == nil {
		return handler(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: framesPushDetections}
	return interceptor(ctx, in, info, handler)
}

var (
	_ FrameSink             = (*FrameBuffer)(nil)
	_ retriever.FrameSource = (*FrameBuffer)(nil)
)

// FrameBuffer keeps the latest depth and detection frames. Newer frames overwrite older
// unread ones; a read empties the slot.
type FrameBuffer struct {
	mu         sync.Mutex
	depth      *retriever.DepthImage
	detections [][]retriever.Detection
	hasDepth   bool
	hasBatch   bool
}

// NewFrameBuffer creates empty buffer
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{}
}

// PutDepth stores depth frame
func (buf *FrameBuffer) PutDepth(img *retriever.DepthImage) {
	buf.mu.Lock()
	buf.depth = img
	buf.hasDepth = true
	buf.mu.Unlock()
}

// PutDetections stores detection frame
func (buf *FrameBuffer) PutDetections(batch [][]retriever.Detection) {
	buf.mu.Lock()
	buf.detections = batch
	buf.hasBatch = true
	buf.mu.Unlock()
}

// ReadDepth returns depth frame received since the previous read
func (buf *FrameBuffer) ReadDepth() (*retriever.DepthImage, bool) {
	buf.mu.Lock()
	defer buf.mu.Unlock()
	if !buf.hasDepth {
		return nil, false
	}
	img := buf.depth
	buf.depth, buf.hasDepth = nil, false
	return img, true
}

// ReadDetections returns detection frame received since the previous read
func (buf *FrameBuffer) ReadDetections() ([][]retriever.Detection, bool) {
	buf.mu.Lock()
	defer buf.mu.Unlock()
	if !buf.hasBatch {
		return nil, false
	}
	batch := buf.detections
	buf.detections, buf.hasBatch = nil, false
	return batch, true
}

// FramesClient pushes frames to remote frame buffer
type FramesClient struct {
	cc grpc.ClientConnInterface
}

// NewFramesClient creates frames client on top of connection
func NewFramesClient(cc grpc.ClientConnInterface) *FramesClient {
	return &FramesClient{cc: cc}
}

// PushDepth sends depth frame
func (client *FramesClient) PushDepth(ctx context.Context, img *retriever.DepthImage) error {
	if err := client.cc.Invoke(ctx, framesPushDepth, EncodeDepth(img), new(emptypb.Empty)); err != nil {
		return fromStatus(err, "push depth")
	}
	return nil
}

// PushDetections sends detection frame
func (client *FramesClient) PushDetections(ctx context.Context, batch [][]retriever.Detection) error {
	in, err := EncodeDetections(batch)
	if err != nil {
		return err
	}
	if err := client.cc.Invoke(ctx, framesPushDetections, in, new(emptypb.Empty)); err != nil {
		return fromStatus(err, "push detections")
	}
	return nil
}
