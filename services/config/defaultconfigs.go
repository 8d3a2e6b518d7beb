package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Named configurations usable with `hubd --preset <name>` when no file is
// given. Key: preset name. Val: raw YAML.
// -----------------------------------------------------------------------------

// Loopback: upstream on stdio, every port idle. Useful to exercise port 0
// commands and the malformed-line acknowledgements by hand.
const cfgStdio = `
buffer_size: 32
idle_sleep: 1ms
fan:
  active_low: true
`

// Bench: the board's port layout mapped onto USB serial adapters.
const cfgBench = `
buffer_size: 32
idle_sleep: 1ms
upstream:
  device: /dev/ttyACM0
  baud: 115200
ports:
  - {port: 1, device: /dev/ttyUSB0, baud: 115200}
  - {port: 2, device: /dev/ttyUSB1, baud: 115200}
  - {port: 3, device: /dev/ttyUSB2, baud: 115200}
  - {port: 4, device: /dev/ttyUSB3, baud: 115200}
  - {port: 5, device: /dev/ttyUSB4, baud: 9600}
  - {port: 6, device: /dev/ttyUSB5, baud: 9600}
fan:
  active_low: true
`

var embeddedConfigs = map[string][]byte{
	"stdio": []byte(cfgStdio),
	"bench": []byte(cfgBench),
}

// EmbeddedConfigLookup allows overriding how presets are resolved.
var EmbeddedConfigLookup = func(name string) ([]byte, bool) {
	b, ok := embeddedConfigs[name]
	return b, ok
}

// Preset parses the embedded configuration called name.
func Preset(name string) (*Config, error) {
	raw, ok := EmbeddedConfigLookup(name)
	if !ok || len(raw) == 0 {
		return nil, &presetError{name: name}
	}
	return Parse(raw)
}

type presetError struct{ name string }

func (e *presetError) Error() string { return "no embedded config named " + e.name }
