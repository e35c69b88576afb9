package bridge

import (
	"context"
	"sync"

	"aisbridge/gogroup"
	"aisbridge/tms/broker"
	"aisbridge/tms/config"
	"aisbridge/tms/log"

	"github.com/pkg/errors"
)

var ErrRunning = errors.New("AIS stream already running")

// Service is the lifecycle surface offered to the host application: Start
// launches the stream worker, Stop cancels it and waits for it to exit.
// Nothing survives a Stop; the next Start uses only what it is given.
type Service struct {
	parent  context.Context
	channel broker.Channel

	mu    sync.Mutex
	group gogroup.GoGroup
}

// NewService binds the service to the host's broker channel. parent may be
// nil or a gogroup.GoGroup.
func NewService(parent context.Context, channel broker.Channel) *Service {
	return &Service{
		parent:  parent,
		channel: channel,
	}
}

// Start validates cfg and runs the stream worker on a snapshot of it. An
// empty url means cfg.URL.
func (s *Service) Start(url string, cfg config.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.group != nil && !s.group.Canceled() {
		return ErrRunning
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "unable to start AIS stream")
	}

	client := NewClient(url, cfg.Clone(), s.channel)
	g := s.newGroup()
	g.ErrCallback(func(err error) {
		if pe, ok := err.(gogroup.PanicError); ok {
			log.Error("Panic in AIS stream worker: %v\n%v", pe.Msg, pe.Stack)
		} else {
			log.Error("Error in AIS stream worker: %v", err)
		}
	})
	g.Go(func(g gogroup.GoGroup) error {
		return client.Run(g)
	})
	s.group = g
	log.Info("AIS stream started for %v bounding boxes", len(cfg.BoundingBoxes))
	return nil
}

// newGroup nests the worker under the host's group when it has one, so the
// host's cancel reaches the worker but worker errors stay local.
func (s *Service) newGroup() gogroup.GoGroup {
	if parent, ok := s.parent.(gogroup.GoGroup); ok {
		return parent.Child("aisstream")
	}
	return gogroup.New(s.parent, "aisstream")
}

// Stop is idempotent and safe to call from any goroutine. It returns once
// the worker has exited.
func (s *Service) Stop() {
	s.mu.Lock()
	g := s.group
	s.group = nil
	s.mu.Unlock()

	if g == nil {
		return
	}
	g.Cancel(nil)
	g.Wait()
}

// Running reports whether a worker is active.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.group != nil && !s.group.Canceled()
}
