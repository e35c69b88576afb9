package config

import (
	"io/ioutil"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// fileConfig is the on-disk shape: a flat map of upper-case keys shared with
// the rest of the host application's config.yml. Durations are plain numbers
// in the unit named by the key's documentation.
type fileConfig struct {
	URL           string        `mapstructure:"OTS_AISSTREAM_PLUGIN_URL"`
	APIKey        string        `mapstructure:"OTS_AISSTREAM_PLUGIN_API_KEY"`
	BoundingBoxes [][][]float64 `mapstructure:"OTS_AISSTREAM_PLUGIN_BBOX"`
	CotType       string        `mapstructure:"OTS_AISSTREAM_PLUGIN_COT_TYPE"`
	// seconds
	StaleTime int64 `mapstructure:"OTS_AISSTREAM_PLUGIN_STALE_TIME"`
	// seconds
	ReadTimeout int64  `mapstructure:"OTS_AISSTREAM_PLUGIN_READ_TIMEOUT"`
	Exchange    string `mapstructure:"OTS_AISSTREAM_PLUGIN_EXCHANGE"`
	NodeID      string `mapstructure:"OTS_NODE_ID"`
	// milliseconds
	TTL int64 `mapstructure:"OTS_RABBITMQ_TTL"`
	// seconds
	ReconnectDelay    float64 `mapstructure:"OTS_AISSTREAM_PLUGIN_RECONNECT_DELAY"`
	ReconnectMaxDelay float64 `mapstructure:"OTS_AISSTREAM_PLUGIN_RECONNECT_MAX_DELAY"`
	ReconnectFactor   float64 `mapstructure:"OTS_AISSTREAM_PLUGIN_RECONNECT_MULTIPLIER"`
}

func toFile(c Config) fileConfig {
	return fileConfig{
		URL:               c.URL,
		APIKey:            c.APIKey,
		BoundingBoxes:     c.BoundingBoxes,
		CotType:           c.CotType,
		StaleTime:         int64(c.StaleTime / time.Second),
		ReadTimeout:       int64(c.ReadTimeout / time.Second),
		Exchange:          c.Exchange,
		NodeID:            c.NodeID,
		TTL:               int64(c.TTL / time.Millisecond),
		ReconnectDelay:    c.Reconnect.InitialDelay.Seconds(),
		ReconnectMaxDelay: c.Reconnect.MaxDelay.Seconds(),
		ReconnectFactor:   c.Reconnect.Multiplier,
	}
}

func (f fileConfig) config() Config {
	return Config{
		URL:           f.URL,
		APIKey:        f.APIKey,
		BoundingBoxes: f.BoundingBoxes,
		CotType:       f.CotType,
		StaleTime:     time.Duration(f.StaleTime) * time.Second,
		ReadTimeout:   time.Duration(f.ReadTimeout) * time.Second,
		Exchange:      f.Exchange,
		NodeID:        f.NodeID,
		TTL:           time.Duration(f.TTL) * time.Millisecond,
		Reconnect: Reconnect{
			InitialDelay: time.Duration(f.ReconnectDelay * float64(time.Second)),
			MaxDelay:     time.Duration(f.ReconnectMaxDelay * float64(time.Second)),
			Multiplier:   f.ReconnectFactor,
		},
	}
}

// Load reads path and overlays its values on Default(). Keys holding a
// zero value (empty string, 0, false, empty list) keep the default.
func Load(path string) (Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "unable to read config")
	}
	return Parse(data)
}

// textFields are the keys holding free text. YAML 1.1 resolves plain
// scalars such as n, yes or off to booleans, so these are decoded straight
// into strings to keep what was written.
type textFields struct {
	URL      string `yaml:"OTS_AISSTREAM_PLUGIN_URL"`
	APIKey   string `yaml:"OTS_AISSTREAM_PLUGIN_API_KEY"`
	CotType  string `yaml:"OTS_AISSTREAM_PLUGIN_COT_TYPE"`
	Exchange string `yaml:"OTS_AISSTREAM_PLUGIN_EXCHANGE"`
	NodeID   string `yaml:"OTS_NODE_ID"`
}

func (t textFields) byKey() map[string]string {
	return map[string]string{
		"OTS_AISSTREAM_PLUGIN_URL":      t.URL,
		"OTS_AISSTREAM_PLUGIN_API_KEY":  t.APIKey,
		"OTS_AISSTREAM_PLUGIN_COT_TYPE": t.CotType,
		"OTS_AISSTREAM_PLUGIN_EXCHANGE": t.Exchange,
		"OTS_NODE_ID":                   t.NodeID,
	}
}

// Parse is Load on an in-memory document.
func Parse(data []byte) (Config, error) {
	raw := make(map[string]interface{})
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, errors.Wrap(err, "unable to parse config")
	}
	var text textFields
	if err := yaml.Unmarshal(data, &text); err != nil {
		return Config{}, errors.Wrap(err, "unable to parse config")
	}
	for key, value := range text.byKey() {
		if _, ok := raw[key]; ok {
			raw[key] = value
		}
	}
	return overlay(Default(), raw)
}

// rejectBool stops the weak decoder from turning a YAML boolean into 1 or
// "1" for a field which is not a bool.
func rejectBool(from, to reflect.Kind, data interface{}) (interface{}, error) {
	if from == reflect.Bool && to != reflect.Bool && to != reflect.Interface {
		return nil, errors.Errorf("boolean %v where a %v is expected", data, to)
	}
	return data, nil
}

func overlay(base Config, raw map[string]interface{}) (Config, error) {
	overrides := make(map[string]interface{}, len(raw))
	for key, value := range raw {
		if truthy(value) {
			overrides[key] = value
		}
	}

	fc := toFile(base.Clone())
	// The decoder writes into populated slices index by index; overridden
	// boxes must replace the defaults, not merge with them.
	if _, ok := overrides["OTS_AISSTREAM_PLUGIN_BBOX"]; ok {
		fc.BoundingBoxes = nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.DecodeHookFuncKind(rejectBool),
		Result:           &fc,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(overrides); err != nil {
		return Config{}, errors.Wrap(err, "unable to decode config")
	}
	return fc.config(), nil
}

func truthy(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case int:
		return x != 0
	case int64:
		return x != 0
	case uint64:
		return x != 0
	case float64:
		return x != 0
	case []interface{}:
		return len(x) > 0
	case map[interface{}]interface{}:
		return len(x) > 0
	}
	return true
}
