package transport

import (
	"context"

	"github.com/LdDl/skeleton-retriever/retriever"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	cameraService       = "skeleton.v1.Camera"
	cameraFieldOfView   = "/" + cameraService + "/GetFieldOfView"
	cameraFovHorizontal = "fov_h"
	cameraFovVertical   = "fov_v"
)

var cameraServiceDesc = grpc.ServiceDesc{
	ServiceName: cameraService,
	HandlerType: (*retriever.CameraProvider)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetFieldOfView", Handler: cameraFieldOfViewHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "skeleton/v1/camera",
}

// RegisterCameraServer serves camera field of view over gRPC
func RegisterCameraServer(s grpc.ServiceRegistrar, camera retriever.CameraProvider) {
	s.RegisterService(&cameraServiceDesc, camera)
}

func cameraFieldOfViewHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		fovH, fovV, err := srv.(retriever.CameraProvider).FieldOfView(ctx)
		if err != nil {
			return nil, toStatus(err)
		}
		return &structpb.Struct{Fields: map[string]*structpb.Value{
			cameraFovHorizontal: structpb.NewNumberValue(fovH),
			cameraFovVertical:   structpb.NewNumberValue(fovV),
		}}, nil
	}
	if interceptor == nil {
		return handler(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: cameraFieldOfView}
	return interceptor(ctx, in, info, handler)
}

var _ retriever.CameraProvider = (*CameraClient)(nil)

// CameraClient queries remote camera service
type CameraClient struct {
	cc grpc.ClientConnInterface
}

// NewCameraClient creates camera client on top of connection
func NewCameraClient(cc grpc.ClientConnInterface) *CameraClient {
	return &CameraClient{cc: cc}
}

// FieldOfView returns horizontal and vertical field of view (degrees)
func (client *CameraClient) FieldOfView(ctx context.Context) (float64, float64, error) {
	out := new(structpb.Struct)
	if err := client.cc.Invoke(ctx, cameraFieldOfView, &emptypb.Empty{}, out); err != nil {
		return 0, 0, fromStatus(err, "field of view")
	}
	fovH, okH := out.GetFields()[cameraFovHorizontal].GetKind().(*structpb.Value_NumberValue)
	fovV, okV := out.GetFields()[cameraFovVertical].GetKind().(*structpb.Value_NumberValue)
	if !okH || !okV {
		return 0, 0, errors.Wrap(retriever.ErrInvalidFieldOfView, "field of view response is incomplete")
	}
	return fovH.NumberValue, fovV.NumberValue, nil
}

var _ retriever.CameraProvider = StaticCamera{}

// StaticCamera is a camera provider with field of view known in advance
type StaticCamera struct {
	FovH float64
	FovV float64
}

// FieldOfView returns configured field of view
func (camera StaticCamera) FieldOfView(ctx context.Context) (float64, float64, error) {
	return camera.FovH, camera.FovV, nil
}
