package transport

import (
	"context"

	"github.com/LdDl/skeleton-retriever/retriever"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	registryService       = "skeleton.v1.Registry"
	registryAddMethod     = "/" + registryService + "/Add"
	registrySetMethod     = "/" + registryService + "/Set"
	registryDeleteMethod  = "/" + registryService + "/Delete"
	registrySetIDField    = "id"
	registrySetPropsField = "properties"
)

var registryServiceDesc = grpc.ServiceDesc{
	ServiceName: registryService,
	HandlerType: (*retriever.Registry)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Add", Handler: registryAddHandler},
		{MethodName: "Set", Handler: registrySetHandler},
		{MethodName: "Delete", Handler: registryDeleteHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "skeleton/v1/registry",
}

// RegisterRegistryServer serves registry over gRPC
func RegisterRegistryServer(s grpc.ServiceRegistrar, registry retriever.Registry) {
	s.RegisterService(&registryServiceDesc, registry)
}

func registryAddHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		id, err := srv.(retriever.Registry).Add(ctx, DecodeProperties(req.(*structpb.Struct)))
		if err != nil {
			return nil, toStatus(err)
		}
		return wrapperspb.Int64(id), nil
	}
	if interceptor == nil {
		return handler(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: registryAddMethod}
	return interceptor(ctx, in, info, handler)
}

func registrySetHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		fields := req.(*structpb.Struct).GetFields()
		idValue, ok := fields[registrySetIDField].GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return nil, status.Error(codes.InvalidArgument, "object identifier is missing")
		}
		props := DecodeProperties(fields[registrySetPropsField].GetStructValue())
		if err := srv.(retriever.Registry).Set(ctx, int64(idValue.NumberValue), props); err != nil {
			return nil, toStatus(err)
		}
		return &emptypb.Empty{}, nil
	}
	if interceptor == nil {
		return handler(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: registrySetMethod}
	return interceptor(ctx, in, info, handler)
}

func registryDeleteHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		if err := srv.(retriever.Registry).Delete(ctx, req.(*wrapperspb.Int64Value).GetValue()); err != nil {
			return nil, toStatus(err)
		}
		return &emptypb.Empty{}, nil
	}
	if interceptor == nil {
		return handler(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: registryDeleteMethod}
	return interceptor(ctx, in, info, handler)
}

var _ retriever.Registry = (*RegistryClient)(nil)

// RegistryClient is remote registry. Unknown identifiers are reported as retriever.ErrUnknownObject
type RegistryClient struct {
	cc grpc.ClientConnInterface
}

// NewRegistryClient creates registry client on top of connection
func NewRegistryClient(cc grpc.ClientConnInterface) *RegistryClient {
	return &RegistryClient{cc: cc}
}

// Add requests admission of a new object and returns its identifier
func (client *RegistryClient) Add(ctx context.Context, props retriever.Properties) (int64, error) {
	in, err := EncodeProperties(props)
	if err != nil {
		return retriever.NoRegistryID, err
	}
	out := new(wrapperspb.Int64Value)
	if err := client.cc.Invoke(ctx, registryAddMethod, in, out); err != nil {
		return retriever.NoRegistryID, fromStatus(err, "add")
	}
	return out.GetValue(), nil
}

// Set replaces properties of the object
func (client *RegistryClient) Set(ctx context.Context, id int64, props retriever.Properties) error {
	properties, err := EncodeProperties(props)
	if err != nil {
		return err
	}
	in := &structpb.Struct{Fields: map[string]*structpb.Value{
		registrySetIDField:    structpb.NewNumberValue(float64(id)),
		registrySetPropsField: structpb.NewStructValue(properties),
	}}
	if err := client.cc.Invoke(ctx, registrySetMethod, in, new(emptypb.Empty)); err != nil {
		return fromStatus(err, "set")
	}
	return nil
}

// Delete removes the object
func (client *RegistryClient) Delete(ctx context.Context, id int64) error {
	if err := client.cc.Invoke(ctx, registryDeleteMethod, wrapperspb.Int64(id), new(emptypb.Empty)); err != nil {
		return fromStatus(err, "delete")
	}
	return nil
}
