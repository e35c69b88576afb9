package bridge

import (
	"context"
	"time"

	"aisbridge/tms/aisstream"
	"aisbridge/tms/broker"
	"aisbridge/tms/config"
	"aisbridge/tms/log"

	metrics "github.com/armon/go-metrics"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write the subscription or a close frame.
	writeWait = 10 * time.Second
	// Time allowed for the websocket handshake.
	handshakeTimeout = 45 * time.Second
)

type eventKind int

const (
	eventOpened eventKind = iota
	eventFrame
	eventClosed
	eventErrored
)

func (k eventKind) String() string {
	switch k {
	case eventOpened:
		return "opened"
	case eventFrame:
		return "frame"
	case eventClosed:
		return "closed"
	case eventErrored:
		return "errored"
	}
	return "unknown"
}

// streamEvent is everything that can happen on the upstream connection.
type streamEvent struct {
	kind eventKind
	// eventFrame payload
	data []byte
	// eventClosed close code
	code int
	// eventClosed/eventErrored cause
	err error
}

// Client is the stream connection manager. It is owned by a single worker:
// the socket, the configuration snapshot and the backoff state are never
// touched from outside Run.
type Client struct {
	url      string
	cfg      config.Config
	dialer   *websocket.Dialer
	pipeline *pipeline
	attempts int
}

// NewClient prepares a connection manager for url. cfg is used as is; pass a
// clone if the caller keeps mutating its copy.
func NewClient(url string, cfg config.Config, channel broker.Channel) *Client {
	if url == "" {
		url = cfg.URL
	}
	return &Client{
		url: url,
		cfg: cfg,
		dialer: &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: handshakeTimeout,
		},
		pipeline: newPipeline(cfg, channel),
	}
}

// Run connects, subscribes and processes frames, reconnecting whenever the
// connection ends, until ctxt is canceled. Canceling ctxt closes the active
// socket, so Run returns promptly even while blocked on a read.
func (c *Client) Run(ctxt context.Context) error {
	for ctxt.Err() == nil {
		c.connect(ctxt)
		if ctxt.Err() != nil {
			break
		}
		metrics.IncrCounter(metricReconnects, 1)
		if !c.wait(ctxt) {
			break
		}
	}
	log.Info("AIS stream stopped")
	return nil
}

// connect runs one connection from dial to close.
func (c *Client) connect(ctxt context.Context) {
	log.Debug("connecting to %v", c.url)
	conn, _, err := c.dialer.DialContext(ctxt, c.url, nil)
	if err != nil {
		c.step(ctxt, nil, streamEvent{kind: eventErrored, err: err})
		return
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctxt.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			conn.Close()
		case <-done:
		}
	}()

	if c.cfg.ReadTimeout > 0 {
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		})
	}

	ev := streamEvent{kind: eventOpened}
	for c.step(ctxt, conn, ev) {
		ev = c.receive(conn)
	}
}

func (c *Client) receive(conn *websocket.Conn) streamEvent {
	if c.cfg.ReadTimeout > 0 {
		conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		if ce, ok := err.(*websocket.CloseError); ok {
			return streamEvent{kind: eventClosed, code: ce.Code, err: err}
		}
		return streamEvent{kind: eventErrored, err: err}
	}
	return streamEvent{kind: eventFrame, data: data}
}

// step is the connection state machine. It reacts to one event and reports
// whether the connection should keep reading.
func (c *Client) step(ctxt context.Context, conn *websocket.Conn, ev streamEvent) bool {
	switch ev.kind {
	case eventOpened:
		log.Info("AIS stream connected to %v", c.url)
		c.attempts = 0
		if err := c.subscribe(conn); err != nil {
			log.Warn("AIS stream subscription failed: %v", err)
			return false
		}
		return true
	case eventFrame:
		c.pipeline.handle(ctxt, ev.data)
		return true
	case eventClosed, eventErrored:
		if ctxt.Err() != nil {
			log.Debug("AIS stream %v during shutdown: %v", ev.kind, ev.err)
		} else if ev.kind == eventClosed {
			log.Warn("AIS stream closed by %v, code %v: %v", c.url, ev.code, ev.err)
		} else {
			log.Warn("AIS stream error on %v (attempt %v): %v", c.url, c.attempts+1, ev.err)
		}
		return false
	}
	log.Error("AIS stream: unexpected event %v", ev.kind)
	return false
}

func (c *Client) subscribe(conn *websocket.Conn) error {
	msg, err := aisstream.NewSubscription(c.cfg).Marshal()
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, msg)
}

// wait sleeps the reconnect delay. Returns false if ctxt ended first.
func (c *Client) wait(ctxt context.Context) bool {
	c.attempts++
	delay := c.delay()
	if delay <= 0 {
		return ctxt.Err() == nil
	}
	log.Debug("reconnecting to %v in %v", c.url, delay)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctxt.Done():
		return false
	case <-timer.C:
		return true
	}
}

// delay is the capped exponential backoff before attempt c.attempts:
// InitialDelay * Multiplier^(attempts-1), at most MaxDelay.
func (c *Client) delay() time.Duration {
	r := c.cfg.Reconnect
	if r.InitialDelay <= 0 || c.attempts <= 0 {
		return 0
	}
	multiplier := r.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}
	delay := r.InitialDelay
	for i := 1; i < c.attempts; i++ {
		delay = time.Duration(float64(delay) * multiplier)
		if r.MaxDelay > 0 && delay >= r.MaxDelay {
			return r.MaxDelay
		}
	}
	if r.MaxDelay > 0 && delay > r.MaxDelay {
		return r.MaxDelay
	}
	return delay
}
