package transport

import (
	"context"
	"testing"

	"github.com/LdDl/skeleton-retriever/retriever"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type brokenCamera struct{}

func (brokenCamera) FieldOfView(ctx context.Context) (float64, float64, error) {
	return 0, 0, errors.Wrap(retriever.ErrInvalidFieldOfView, "lens is not calibrated")
}

func TestCameraClient(t *testing.T) {
	cc := serve(t, func(s *grpc.Server) {
		RegisterCameraServer(s, StaticCamera{FovH: 58, FovV: 45})
	})
	fovH, fovV, err := NewCameraClient(cc).FieldOfView(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 58.0, fovH)
	assert.Equal(t, 45.0, fovV)
}

func TestCameraClientFailure(t *testing.T) {
	cc := serve(t, func(s *grpc.Server) {
		RegisterCameraServer(s, brokenCamera{})
	})
	_, _, err := NewCameraClient(cc).FieldOfView(context.Background())
	require.Error(t, err)
	st, ok := status.FromError(errors.Cause(err))
	require.True(t, ok)
	assert.Equal(t, codes.InvalidArgument, st.Code())
}
