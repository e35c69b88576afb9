package log

import (
	"fmt"
	"sync"

	"github.com/spf13/pflag"
)

var (
	enabledTracers []string

	tracerMutex sync.Mutex
	tracers     = make(map[string]*Tracer)
)

func init() {
	pflag.StringSliceVar(&enabledTracers, "trace", nil,
		"comma-separated list of tracers to enable")
}

// Tracer is a named debug channel switched on with --trace name. Its output
// is logged at INFO so it shows without lowering the level.
type Tracer struct {
	Enabled bool
	Prefix  string
}

func GetTracer(name string) *Tracer {
	tracerMutex.Lock()
	defer tracerMutex.Unlock()
	t := tracers[name]
	if t == nil {
		t = &Tracer{Prefix: fmt.Sprintf("[%v] ", name)}
		tracers[name] = t
	}
	return t
}

func (t *Tracer) Log(message string) {
	if t.Enabled {
		Info("%s", t.Prefix+message)
	}
}

func (t *Tracer) Logf(format string, args ...interface{}) {
	if t.Enabled {
		Info("%s", t.Prefix+fmt.Sprintf(format, args...))
	}
}

func (t *Tracer) Spew(message string, obj interface{}) {
	if t.Enabled {
		Info("%s", t.Prefix+message+"\n"+Spew(obj))
	}
}

// RegisterTracers enables the tracers named on the command line. Call after
// flag parsing.
func RegisterTracers() {
	tracerMutex.Lock()
	names := enabledTracers
	tracerMutex.Unlock()
	for _, name := range names {
		GetTracer(name).Enabled = true
	}
}
