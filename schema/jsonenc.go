package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// RenderJSON renders a yaml node tree as JSON bytes, preserving mapping key
// order. indent is the per-level indent string; empty produces compact
// output. Blueprint documents are stored as JSON, but all in-memory codecs
// work on yaml nodes because those keep key order; this is the bridge back.
func RenderJSON(n *yaml.Node, indent string) ([]byte, error) {
	var b strings.Builder
	if err := renderJSON(&b, n, indent, 0); err != nil {
		return nil, err
	}
	if indent != "" {
		b.WriteByte('\n')
	}
	return []byte(b.String()), nil
}

func renderJSON(b *strings.Builder, n *yaml.Node, indent string, level int) error {
	n = unalias(n)
	if n == nil {
		b.WriteString("null")
		return nil
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			b.WriteString("null")
			return nil
		}
		return renderJSON(b, n.Content[0], indent, level)

	case yaml.ScalarNode:
		return renderScalar(b, n)

	case yaml.SequenceNode:
		if len(n.Content) == 0 {
			b.WriteString("[]")
			return nil
		}
		b.WriteByte('[')
		for i, c := range n.Content {
			if i > 0 {
				b.WriteByte(',')
			}
			newline(b, indent, level+1)
			if err := renderJSON(b, c, indent, level+1); err != nil {
				return err
			}
		}
		newline(b, indent, level)
		b.WriteByte(']')
		return nil

	case yaml.MappingNode:
		if len(n.Content) == 0 {
			b.WriteString("{}")
			return nil
		}
		b.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				b.WriteByte(',')
			}
			newline(b, indent, level+1)
			key, err := json.Marshal(n.Content[i].Value)
			if err != nil {
				return err
			}
			b.Write(key)
			if indent == "" {
				b.WriteByte(':')
			} else {
				b.WriteString(": ")
			}
			if err := renderJSON(b, n.Content[i+1], indent, level+1); err != nil {
				return err
			}
		}
		newline(b, indent, level)
		b.WriteByte('}')
		return nil

	default:
		return fmt.Errorf("render json: unsupported yaml %s node", yamlKindName(n.Kind))
	}
}

func renderScalar(b *strings.Builder, n *yaml.Node) error {
	switch n.Tag {
	case "!!null", "":
		if n.Value == "" || n.Value == "~" || n.Value == "null" {
			b.WriteString("null")
			return nil
		}
		// Untagged non-null scalar: quote it.
		return writeJSONString(b, n.Value)
	case "!!bool", "!!int", "!!float":
		b.WriteString(n.Value)
		return nil
	case "!!str":
		return writeJSONString(b, n.Value)
	default:
		// Timestamps, binary and other tags degrade to strings.
		return writeJSONString(b, n.Value)
	}
}

func writeJSONString(b *strings.Builder, s string) error {
	quoted, err := json.Marshal(s)
	if err != nil {
		return err
	}
	b.Write(quoted)
	return nil
}

func newline(b *strings.Builder, indent string, level int) {
	if indent == "" {
		return
	}
	b.WriteByte('\n')
	for i := 0; i < level; i++ {
		b.WriteString(indent)
	}
}
