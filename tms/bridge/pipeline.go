// Package bridge runs the AIS stream to CoT broker pipeline: one worker owns
// the upstream websocket and pushes every frame through decode, translate and
// publish before reading the next one.
package bridge

import (
	"context"

	"aisbridge/gogroup"
	"aisbridge/tms/aisstream"
	"aisbridge/tms/broker"
	"aisbridge/tms/config"
	"aisbridge/tms/cot"
	"aisbridge/tms/log"

	metrics "github.com/armon/go-metrics"
	"github.com/pkg/errors"
)

var (
	trace = log.GetTracer("stream")

	metricFrames        = []string{"stream", "frames"}
	metricIgnored       = []string{"stream", "ignored"}
	metricDropped       = []string{"stream", "dropped"}
	metricPublished     = []string{"stream", "published"}
	metricPublishErrors = []string{"stream", "publish_errors"}
	metricReconnects    = []string{"stream", "reconnects"}
)

// Publisher is what the pipeline needs from the broker side.
type Publisher interface {
	Publish(ctxt context.Context, ev cot.Event) error
}

type pipeline struct {
	cfg        config.Config
	translator *cot.Translator
	publisher  Publisher
}

func newPipeline(cfg config.Config, channel broker.Channel) *pipeline {
	return &pipeline{
		cfg:        cfg,
		translator: cot.NewTranslator(),
		publisher:  broker.NewPublisher(channel, cfg),
	}
}

// handle processes one frame. Nothing that goes wrong here, panics
// included, may escape: the frame is logged and dropped.
func (p *pipeline) handle(ctxt context.Context, frame []byte) {
	defer func() {
		if err := gogroup.Recover(recover()); err != nil {
			pe := err.(gogroup.PanicError)
			log.Error("AIS frame dropped, panic: %v\n%v\nframe: %s", pe.Msg, pe.Stack, frame)
			metrics.IncrCounter(metricDropped, 1)
		}
	}()

	metrics.IncrCounter(metricFrames, 1)
	trace.Logf("frame: %s", frame)

	report, err := aisstream.Decode(frame)
	if err != nil {
		if errors.Is(err, aisstream.ErrUpstream) {
			log.Error("AIS stream refused the subscription: %v", err)
		} else {
			log.Error("AIS frame dropped: %v\nframe: %s", err, frame)
		}
		metrics.IncrCounter(metricDropped, 1)
		return
	}
	if report == nil {
		metrics.IncrCounter(metricIgnored, 1)
		return
	}

	ev := p.translator.Translate(*report, p.cfg)
	trace.Spew("event", ev)
	if err := p.publisher.Publish(ctxt, ev); err != nil {
		log.Error("AIS event %v dropped: %v", ev.UID, err)
		metrics.IncrCounter(metricPublishErrors, 1)
		return
	}
	metrics.IncrCounter(metricPublished, 1)
}
