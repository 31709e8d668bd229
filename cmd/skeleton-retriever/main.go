package main

import (
	"context"
	"flag"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/LdDl/skeleton-retriever/config"
	"github.com/LdDl/skeleton-retriever/retriever"
	"github.com/LdDl/skeleton-retriever/storage"
	"github.com/LdDl/skeleton-retriever/transport"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var configPath = flag.String("config", "", "Path to configuration file (TOML or YAML). Defaults and SKELETON_RETRIEVER_* environment are used when empty")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("Can't load configuration")
	}
	logger, err := cfg.Log.NewLogger()
	if err != nil {
		logrus.WithError(err).Fatal("Can't create logger")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("Skeleton retriever failed")
	}
}

func run(ctx context.Context, cfg config.Config, logger *logrus.Logger) error {
	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				logger.WithError(err).Warn("Can't release resource")
			}
		}
	}()

	cameraProvider, err := newCameraProvider(cfg.Camera, &closers)
	if err != nil {
		return err
	}
	opts := []retriever.Option{retriever.WithLogger(logger)}
	registry, err := newRegistry(cfg.Registry, logger, &closers)
	if err != nil {
		return err
	}
	if registry != nil {
		opts = append(opts, retriever.WithRegistry(registry))
	}

	frames := transport.NewFrameBuffer()
	broadcaster := transport.NewBroadcaster(logger)
	opts = append(opts, retriever.WithViewer(broadcaster))

	lis, err := net.Listen("tcp", cfg.Transport.Listen)
	if err != nil {
		return errors.Wrapf(err, "listen %s", cfg.Transport.Listen)
	}
	server := transport.NewServer(logger)
	transport.RegisterFramesServer(server, frames)
	transport.RegisterViewerServer(server, broadcaster)
	go func() {
		logger.WithField("address", cfg.Transport.Listen).Info("Serving frames and viewer")
		if err := server.Serve(lis); err != nil {
			logger.WithError(err).Error("gRPC server stopped")
		}
	}()
	defer server.Stop()

	r := retriever.NewRetriever(cfg.Tracking(), frames, cameraProvider, opts...)
	return r.Run(ctx)
}

func newCameraProvider(cfg config.CameraConfig, closers *[]io.Closer) (retriever.CameraProvider, error) {
	if cfg.IsStatic() {
		return transport.StaticCamera{FovH: cfg.FovH, FovV: cfg.FovV}, nil
	}
	cc, err := transport.Dial(cfg.Address)
	if err != nil {
		return nil, errors.Wrap(err, "camera")
	}
	*closers = append(*closers, cc)
	return transport.NewCameraClient(cc), nil
}

// newRegistry returns nil registry when tracks are kept locally only
func newRegistry(cfg config.RegistryConfig, logger logrus.FieldLogger, closers *[]io.Closer) (retriever.Registry, error) {
	switch cfg.Mode {
	case config.RegistryRemote:
		cc, err := transport.Dial(cfg.Address)
		if err != nil {
			return nil, errors.Wrap(err, "registry")
		}
		*closers = append(*closers, cc)
		return transport.NewRegistryClient(cc), nil
	case config.RegistrySQLite:
		store, err := storage.Open(cfg.Database, logger)
		if err != nil {
			return nil, errors.Wrap(err, "registry")
		}
		*closers = append(*closers, store)
		return store, nil
	default:
		return nil, nil
	}
}
