package transport

import (
	"context"
	"time"

	"github.com/LdDl/skeleton-retriever/retriever"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// Depth frames of high resolution cameras do not fit into default 4MB limit
const maxMsgSize = 16 * 1024 * 1024

// NewServer creates gRPC server with message size limits suitable for depth frames
// and request logging. Services are registered by caller.
func NewServer(logger logrus.FieldLogger) *grpc.Server {
	return grpc.NewServer(
		grpc.MaxRecvMsgSize(maxMsgSize),
		grpc.MaxSendMsgSize(maxMsgSize),
		grpc.ChainUnaryInterceptor(unaryLogger(logger)),
	)
}

// Dial creates client connection to the service at address. Connection is established lazily
func Dial(address string) (*grpc.ClientConn, error) {
	cc, err := grpc.NewClient(address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(maxMsgSize), grpc.MaxCallSendMsgSize(maxMsgSize)),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", address)
	}
	return cc, nil
}

func unaryLogger(logger logrus.FieldLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		entry := logger.WithFields(logrus.Fields{
			"method":  info.FullMethod,
			"elapsed": time.Since(start),
		})
		if err != nil {
			entry.WithError(err).Warn("Request failed")
		} else {
			entry.Debug("Request served")
		}
		return resp, err
	}
}

// toStatus maps domain errors to gRPC status errors
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, retriever.ErrUnknownObject):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrMalformedDepth), errors.Is(err, retriever.ErrInvalidFieldOfView):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// fromStatus restores domain errors from gRPC status errors
func fromStatus(err error, method string) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if ok && st.Code() == codes.NotFound {
		return errors.Wrapf(retriever.ErrUnknownObject, "%s: %s", method, st.Message())
	}
	return errors.Wrap(err, method)
}
