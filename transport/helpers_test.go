package transport

import (
	"context"
	"net"
	"sync"
	"testing"

	"github.com/LdDl/skeleton-retriever/retriever"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

const bufSize = 1024 * 1024

// serve starts in-memory gRPC server with services registered by register and returns client connection to it
func serve(t *testing.T, register func(s *grpc.Server)) *grpc.ClientConn {
	t.Helper()
	logger, _ := test.NewNullLogger()
	lis := bufconn.Listen(bufSize)
	s := NewServer(logger)
	register(s)
	go func() {
		_ = s.Serve(lis)
	}()
	cc, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		cc.Close()
		s.Stop()
	})
	return cc
}

func nullLogger() logrus.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logger
}

// memoryRegistry is a minimal in-memory registry
type memoryRegistry struct {
	mu      sync.Mutex
	next    int64
	objects map[int64]retriever.Properties
}

func newMemoryRegistry() *memoryRegistry {
	return &memoryRegistry{next: 1, objects: make(map[int64]retriever.Properties)}
}

func (reg *memoryRegistry) Add(ctx context.Context, props retriever.Properties) (int64, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	id := reg.next
	reg.next++
	reg.objects[id] = props
	return id, nil
}

func (reg *memoryRegistry) Set(ctx context.Context, id int64, props retriever.Properties) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, ok := reg.objects[id]; !ok {
		return errors.Wrapf(retriever.ErrUnknownObject, "object %d", id)
	}
	reg.objects[id] = props
	return nil
}

func (reg *memoryRegistry) Delete(ctx context.Context, id int64) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, ok := reg.objects[id]; !ok {
		return errors.Wrapf(retriever.ErrUnknownObject, "object %d", id)
	}
	delete(reg.objects, id)
	return nil
}
