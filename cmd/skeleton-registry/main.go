package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/LdDl/skeleton-retriever/config"
	"github.com/LdDl/skeleton-retriever/storage"
	"github.com/LdDl/skeleton-retriever/transport"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
)

var (
	listen   = flag.String("listen", ":50062", "Address to serve registry (and camera) on")
	database = flag.String("database", "registry.db", "Path to SQLite database")
	fovH     = flag.Float64("fov-h", 0, "Horizontal field of view of camera (degrees). Camera service is disabled when zero")
	fovV     = flag.Float64("fov-v", 0, "Vertical field of view of camera (degrees)")
	logLevel = flag.String("log-level", "info", "Log level")
	logJSON  = flag.Bool("log-json", false, "Log in JSON format")
)

type options struct {
	listen   string
	database string
	fovH     float64
	fovV     float64
}

func main() {
	flag.Parse()

	format := "text"
	if *logJSON {
		format = "json"
	}
	logger, err := config.LogConfig{Level: *logLevel, Format: format}.NewLogger()
	if err != nil {
		logrus.WithError(err).Fatal("Can't create logger")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := options{listen: *listen, database: *database, fovH: *fovH, fovV: *fovV}
	if err := run(ctx, opts, logger); err != nil {
		logger.WithError(err).Fatal("Skeleton registry failed")
	}
}

// run serves registry until ctx is done. Database is closed on every return path
func run(ctx context.Context, opts options, logger *logrus.Logger) error {
	store, err := storage.Open(opts.database, logger)
	if err != nil {
		return errors.Wrap(err, "open registry database")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.WithError(err).Warn("Can't close registry database")
		}
	}()

	lis, err := net.Listen("tcp", opts.listen)
	if err != nil {
		return errors.Wrapf(err, "listen %s", opts.listen)
	}
	server := transport.NewServer(logger)
	transport.RegisterRegistryServer(server, store)
	if opts.fovH != 0 || opts.fovV != 0 {
		transport.RegisterCameraServer(server, transport.StaticCamera{FovH: opts.fovH, FovV: opts.fovV})
		logger.WithFields(logrus.Fields{"fov_h": opts.fovH, "fov_v": opts.fovV}).Info("Serving static camera")
	}

	go func() {
		<-ctx.Done()
		server.GracefulStop()
	}()

	logger.WithFields(logrus.Fields{"address": lis.Addr().String(), "database": opts.database}).Info("Serving registry")
	if err := server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return errors.Wrap(err, "serve")
	}
	return nil
}
