package transport

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/LdDl/skeleton-retriever/retriever"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	viewerService   = "skeleton.v1.Viewer"
	viewerSubscribe = "/" + viewerService + "/Subscribe"

	// Batches queued per subscriber before the slow one starts losing them
	subscriberBuffer = 10
)

// subscriptions is implemented by Broadcaster; used as gRPC handler type
type subscriptions interface {
	subscribe() (uuid.UUID, <-chan *structpb.ListValue)
	unsubscribe(id uuid.UUID)
}

var viewerServiceDesc = grpc.ServiceDesc{
	ServiceName: viewerService,
	HandlerType: (*subscriptions)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{StreamName: "Subscribe", Handler: viewerSubscribeHandler, ServerStreams: true},
	},
	Metadata: "skeleton/v1/viewer",
}

// RegisterViewerServer serves broadcaster's batches over gRPC stream
func RegisterViewerServer(s grpc.ServiceRegistrar, broadcaster *Broadcaster) {
	s.RegisterService(&viewerServiceDesc, broadcaster)
}

func viewerSubscribeHandler(srv interface{}, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	subs := srv.(subscriptions)
	id, batches := subs.subscribe()
	defer subs.unsubscribe(id)
	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case batch := <-batches:
			if err := stream.SendMsg(batch); err != nil {
				return err
			}
		}
	}
}

var _ retriever.Viewer = (*Broadcaster)(nil)

// Broadcaster fans published batches out to connected viewers.
// Publishing never blocks: batches are dropped for subscribers which do not keep up
// and are not even encoded when nobody is connected.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID]chan *structpb.ListValue

	published atomic.Uint64
	dropped   atomic.Uint64

	log logrus.FieldLogger
}

// NewBroadcaster creates broadcaster without subscribers
func NewBroadcaster(logger logrus.FieldLogger) *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[uuid.UUID]chan *structpb.ListValue),
		log:         logger,
	}
}

// Publish sends batch to every subscriber
func (b *Broadcaster) Publish(ctx context.Context, batch []retriever.Properties) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.subscribers) == 0 {
		return nil
	}
	msg, err := encodeBatch(batch)
	if err != nil {
		return err
	}
	b.published.Add(1)
	for id, ch := range b.subscribers {
		select {
		case ch <- msg:
		default:
			dropped := b.dropped.Add(1)
			b.log.WithFields(logrus.Fields{"subscriber": id, "dropped": dropped}).Debug("Viewer is slow, batch dropped")
		}
	}
	return nil
}

// Subscribers returns number of connected subscribers
func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Stats returns number of batches sent to at least one subscriber and number of dropped deliveries
func (b *Broadcaster) Stats() (published uint64, dropped uint64) {
	return b.published.Load(), b.dropped.Load()
}

func (b *Broadcaster) subscribe() (uuid.UUID, <-chan *structpb.ListValue) {
	id := uuid.New()
	ch := make(chan *structpb.ListValue, subscriberBuffer)
	b.mu.Lock()
	b.subscribers[id] = ch
	total := len(b.subscribers)
	b.mu.Unlock()
	b.log.WithFields(logrus.Fields{"subscriber": id, "total": total}).Info("Viewer connected")
	return id, ch
}

func (b *Broadcaster) unsubscribe(id uuid.UUID) {
	b.mu.Lock()
	delete(b.subscribers, id)
	total := len(b.subscribers)
	b.mu.Unlock()
	b.log.WithFields(logrus.Fields{"subscriber": id, "total": total}).Info("Viewer disconnected")
}

// ViewerStream receives published batches
type ViewerStream struct {
	stream grpc.ClientStream
}

// Subscribe opens viewer stream on connection
func Subscribe(ctx context.Context, cc grpc.ClientConnInterface) (*ViewerStream, error) {
	stream, err := cc.NewStream(ctx, &viewerServiceDesc.Streams[0], viewerSubscribe)
	if err != nil {
		return nil, fromStatus(err, "subscribe")
	}
	if err := stream.SendMsg(&emptypb.Empty{}); err != nil {
		return nil, fromStatus(err, "subscribe")
	}
	if err := stream.CloseSend(); err != nil {
		return nil, fromStatus(err, "subscribe")
	}
	return &ViewerStream{stream: stream}, nil
}

// Recv blocks until the next batch arrives. Returns io.EOF when server closes the stream
func (vs *ViewerStream) Recv() ([]retriever.Properties, error) {
	msg := new(structpb.ListValue)
	if err := vs.stream.RecvMsg(msg); err != nil {
		return nil, err
	}
	return decodeBatch(msg), nil
}
