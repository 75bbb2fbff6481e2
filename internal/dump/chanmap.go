package dump

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"itmtrace/common"
)

// ChannelConfig controls how stimulus data on one port is rendered.
type ChannelConfig struct {
	// Name prefixes each rendered value. Ignored for text channels.
	Name string `yaml:"name"`
	// Format is one of "text" (default), "hex" or "decimal".
	Format string `yaml:"format"`
}

// ChannelMap maps stimulus port numbers to rendering configuration. When a
// map is set, only mapped ports are rendered.
type ChannelMap map[uint8]ChannelConfig

// LoadChannelMap reads a YAML channel map file:
//
//	0: {name: console, format: text}
//	1: {name: counter, format: decimal}
func LoadChannelMap(path string) (ChannelMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, common.NewErrorMsg(common.SeverityError, common.ErrConfig, err.Error())
	}
	var m ChannelMap
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, common.NewErrorMsg(common.SeverityError, common.ErrConfig, err.Error())
	}
	for port, cc := range m {
		switch cc.Format {
		case "", "text", "hex", "decimal":
		default:
			return nil, common.NewErrorMsg(common.SeverityError, common.ErrConfig,
				fmt.Sprintf("channel %d: unknown format %q", port, cc.Format))
		}
	}
	return m, nil
}
