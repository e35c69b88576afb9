package log

import (
	"bytes"
	"log/syslog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		want    syslog.Priority
		wantErr bool
	}{
		{"info", syslog.LOG_INFO, false},
		{"DEBUG", syslog.LOG_DEBUG, false},
		{"Warning", syslog.LOG_WARNING, false},
		{"trace", LOG_TRACE, false},
		{"verbose", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevelFilter(t *testing.T) {
	defer func() { dflt = nil }()
	buf := &bytes.Buffer{}
	InitWriter(buf, syslog.LOG_WARNING)

	Debug("hidden %v", 1)
	Info("hidden %v", 2)
	Warn("shown %v", 3)
	Error("shown %v", 4)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown 3")
	assert.Contains(t, out, "shown 4")
	assert.Contains(t, out, "WARNING")
	assert.NotContains(t, out, colorReset, "writers installed by InitWriter are uncolored")
}

func TestFmtArgs(t *testing.T) {
	args := []interface{}{1, 2, 3}
	assert.Len(t, fmtArgs("%v %v", args), 2)
	assert.Len(t, fmtArgs("100%% %v", args), 1)
	assert.Len(t, fmtArgs("%v %v %v %v", args), 3)
}

func TestTracer(t *testing.T) {
	defer func() { dflt = nil }()
	buf := &bytes.Buffer{}
	InitWriter(buf, syslog.LOG_INFO)

	tr := GetTracer("unit")
	assert.Same(t, tr, GetTracer("unit"))

	tr.Logf("frame %v", 1)
	assert.Empty(t, buf.String(), "disabled tracer must not log")

	enabledTracers = []string{"unit"}
	defer func() {
		enabledTracers = nil
		tr.Enabled = false
	}()
	RegisterTracers()
	assert.True(t, tr.Enabled)
	tr.Logf("frame %v", 2)
	assert.Contains(t, buf.String(), "[unit] frame 2")
}

func TestNoLoggerIsSilent(t *testing.T) {
	dflt = nil
	assert.NotPanics(t, func() {
		Error("nobody listens %v", 1)
	})
}

func TestTracerSpew(t *testing.T) {
	defer func() { dflt = nil }()
	buf := &bytes.Buffer{}
	InitWriter(buf, syslog.LOG_INFO)

	tr := GetTracer("spew")
	tr.Enabled = true
	defer func() { tr.Enabled = false }()
	tr.Spew("event", struct{ UID string }{"123456789"})
	assert.Contains(t, buf.String(), "[spew] event")
	assert.Contains(t, buf.String(), `UID: (string) (len=9) "123456789"`)
}
