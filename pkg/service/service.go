package service

import (
	"os"
	"os/signal"
	"syscall"
)

type Service interface {
	Init() error
	Start() error
	Stop() error
}

// Run drives a Service through its lifecycle and blocks until SIGINT or
// SIGTERM, then stops it.
func Run(s Service) error {
	if err := s.Init(); err != nil {
		return err
	}

	if err := s.Start(); err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	return s.Stop()
}
