package bridge

import (
	"context"
	"testing"
	"time"

	"aisbridge/tms/broker"

	metrics "github.com/armon/go-metrics"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func counters(t *testing.T, sink *metrics.InmemSink) map[string]int {
	data := sink.Data()
	require.NotEmpty(t, data)
	got := make(map[string]int)
	for _, interval := range data {
		for name, v := range interval.Counters {
			got[name] += v.Count
		}
	}
	return got
}

func TestPipelineCounters(t *testing.T) {
	sink := metrics.NewInmemSink(time.Minute, time.Minute)
	conf := metrics.DefaultConfig("test")
	conf.EnableRuntimeMetrics = false
	_, err := metrics.NewGlobal(conf, sink)
	require.NoError(t, err)
	defer metrics.NewGlobal(conf, &metrics.BlackholeSink{})

	ch := &broker.MockChannel{}
	ch.On("PublishWithContext", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil).Once()
	ch.On("PublishWithContext", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("closed"))

	p := newPipeline(testConfig(), ch)
	ctxt := context.Background()
	for _, frame := range []string{
		positionFrame,
		anonymousFrame,
		staticFrame,
		noMetaFrame,
		brokenFrame,
		`{"error":"Api Key Is Not Valid"}`,
	} {
		p.handle(ctxt, []byte(frame))
	}

	got := counters(t, sink)
	assert.Equal(t, 6, got["test.stream.frames"])
	assert.Equal(t, 1, got["test.stream.published"])
	assert.Equal(t, 1, got["test.stream.publish_errors"])
	assert.Equal(t, 2, got["test.stream.ignored"])
	assert.Equal(t, 2, got["test.stream.dropped"])
	ch.AssertNumberOfCalls(t, "PublishWithContext", 2)
}

func TestPipelineRecoversPanic(t *testing.T) {
	ch := &broker.MockChannel{}
	ch.On("PublishWithContext", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Panic("boom").Once()
	ch.On("PublishWithContext", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil)

	p := newPipeline(testConfig(), ch)
	assert.NotPanics(t, func() { p.handle(context.Background(), []byte(positionFrame)) })
	assert.NotPanics(t, func() { p.handle(context.Background(), []byte(positionFrame)) })
	ch.AssertNumberOfCalls(t, "PublishWithContext", 2)
}
