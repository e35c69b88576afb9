package main

import (
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"aisbridge/gogroup"
	"aisbridge/tms/broker"
	"aisbridge/tms/config"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// silentStream accepts the subscription and then sends nothing.
func silentStream(subscribed chan<- struct{}) http.Handler {
	var upgrader websocket.Upgrader
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for first := true; ; first = false {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			if first {
				select {
				case subscribed <- struct{}{}:
				default:
				}
			}
		}
	})
}

func serveConfig(server *httptest.Server) config.Config {
	cfg := config.Default()
	cfg.URL = "ws" + strings.TrimPrefix(server.URL, "http")
	cfg.APIKey = "key"
	cfg.NodeID = "node"
	return cfg
}

func TestServeStopsOnBrokerLoss(t *testing.T) {
	defer goleak.VerifyNone(t)
	subscribed := make(chan struct{}, 1)
	server := httptest.NewServer(silentStream(subscribed))
	defer server.Close()

	ctxt := gogroup.New(nil, "taisd")
	closed := make(chan *amqp.Error, 1)
	done := make(chan error, 1)
	go func() { done <- serve(ctxt, serveConfig(server), &broker.MockChannel{}, closed) }()

	select {
	case <-subscribed:
	case <-time.After(5 * time.Second):
		t.Fatal("stream never subscribed")
	}
	closed <- &amqp.Error{Code: amqp.ConnectionForced, Reason: "CONNECTION_FORCED"}

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after the broker closed")
	}
	assert.True(t, ctxt.Canceled(), "losing the broker ends the process")
}

func TestServeStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)
	subscribed := make(chan struct{}, 1)
	server := httptest.NewServer(silentStream(subscribed))
	defer server.Close()

	ctxt := gogroup.New(nil, "taisd")
	done := make(chan error, 1)
	go func() { done <- serve(ctxt, serveConfig(server), &broker.MockChannel{}, nil) }()
	<-subscribed

	ctxt.Cancel(nil)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}

func TestServeRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	err := serve(gogroup.New(nil, "taisd"), cfg, &broker.MockChannel{}, nil)
	assert.True(t, errors.Is(err, config.ErrInvalid))
}

func TestLoadConfig(t *testing.T) {
	dir, err := ioutil.TempDir("", "taisd_test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, ioutil.WriteFile(path, []byte("OTS_AISSTREAM_PLUGIN_API_KEY: key\nOTS_NODE_ID: from-file\n"), 0644))

	defer func(p, u, n string) { *configPath, *streamURL, *nodeID = p, u, n }(*configPath, *streamURL, *nodeID)

	*configPath = path
	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "key", cfg.APIKey)
	assert.Equal(t, "from-file", cfg.NodeID)
	assert.Equal(t, config.DefaultURL, cfg.URL)

	*streamURL = "ws://localhost:1234"
	*nodeID = "flag"
	cfg, err = loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:1234", cfg.URL)
	assert.Equal(t, "flag", cfg.NodeID)

	*configPath = ""
	*nodeID = ""
	cfg, err = loadConfig()
	require.NoError(t, err)
	host, _ := os.Hostname()
	assert.Equal(t, host, cfg.NodeID)
	assert.Empty(t, cfg.APIKey)

	*configPath = filepath.Join(dir, "missing.yml")
	_, err = loadConfig()
	assert.Error(t, err)
}
