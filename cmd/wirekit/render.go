package main

import (
	"encoding/hex"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/anirudhraja/wirekit/message"
	"github.com/anirudhraja/wirekit/wire"
)

func writeYAML(out io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write yaml: %w", err)
	}
	return enc.Close()
}

// renderMessage turns a message into plain YAML-friendly values. Byte
// strings are shown as hex.
func renderMessage(m *message.Message) map[string]interface{} {
	return renderValue(m.AsMap()).(map[string]interface{})
}

func renderValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, elem := range val {
			out[k] = renderValue(elem)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, elem := range val {
			out[i] = renderValue(elem)
		}
		return out
	case []byte:
		return hex.EncodeToString(val)
	default:
		return v
	}
}

type rawField struct {
	Field    int32  `yaml:"field"`
	WireType string `yaml:"wire_type"`
	Value    uint64 `yaml:"value,omitempty"`
	Bytes    string `yaml:"bytes,omitempty"`
}

func renderRawFields(fields []*wire.RawField) []rawField {
	out := make([]rawField, 0, len(fields))
	for _, f := range fields {
		rf := rawField{Field: int32(f.FieldNumber), WireType: f.WireType.String()}
		if f.WireType == wire.WireBytes {
			rf.Bytes = hex.EncodeToString(f.Bytes)
		} else {
			rf.Value = f.Value
		}
		out = append(out, rf)
	}
	return out
}
