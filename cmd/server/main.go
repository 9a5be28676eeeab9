package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/GriffinCanCode/conscope/internal/config"
	"github.com/GriffinCanCode/conscope/internal/console"
	"github.com/GriffinCanCode/conscope/internal/logging"
	"github.com/GriffinCanCode/conscope/internal/server"
	"go.uber.org/zap"
)

func main() {
	port := flag.String("port", "", "Server port (overrides PORT)")
	flag.Parse()

	cfg := config.LoadOrDefault()
	if *port != "" {
		cfg.Server.Port = *port
	}

	var log *logging.Logger
	if cfg.Logging.Development {
		log = logging.NewDevelopment()
	} else {
		var err error
		log, err = logging.New(logging.Config{
			Level:       cfg.Logging.Level,
			Development: false,
			OutputPaths: []string{"stdout"},
		})
		if err != nil {
			log = logging.NewDefault()
		}
	}
	defer log.Sync()

	srv := server.New(cfg, newCapability, log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
		if err := srv.Run(addr); err != nil {
			errChan <- err
		}
	}()

	select {
	case sig := <-sigChan:
		log.Info("shutting down", zap.String("signal", sig.String()))
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Warn("shutdown error", zap.Error(err))
		}
	case err := <-errChan:
		log.Fatal("server error", zap.Error(err))
	}
}

// newCapability builds the platform console backend for one session.
func newCapability() console.Capability {
	return platformCapability()
}
