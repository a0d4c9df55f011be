package schema

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Fingerprinter provides canonical node hashing with caching.
type Fingerprinter struct {
	mu       sync.RWMutex
	cache    map[*Node]string // node pointer → fingerprint hex
	maxDepth int
}

// NewFingerprinter creates a new fingerprinter.
func NewFingerprinter() *Fingerprinter {
	return &Fingerprinter{
		cache:    make(map[*Node]string, 256),
		maxDepth: 1000, // guard for pathological nesting
	}
}

// Fingerprint returns a deterministic hex fingerprint for a node tree.
// Object field order participates in the fingerprint: field order is part of
// a blueprint's identity since it is preserved on re-export.
func (fp *Fingerprinter) Fingerprint(n *Node) string {
	if n == nil {
		return "nil"
	}

	fp.mu.RLock()
	if sum, ok := fp.cache[n]; ok {
		fp.mu.RUnlock()
		return sum
	}
	fp.mu.RUnlock()

	data := Canonical(n, fp.maxDepth)
	sum := sha256.Sum256(data)
	hex := fmt.Sprintf("%x", sum[:])

	fp.mu.Lock()
	fp.cache[n] = hex
	fp.mu.Unlock()

	return hex
}

// Reset clears the cache.
func (fp *Fingerprinter) Reset() {
	fp.mu.Lock()
	fp.cache = make(map[*Node]string, 256)
	fp.mu.Unlock()
}

// Canonical produces a canonical byte representation of a node tree,
// truncating below maxDepth.
func Canonical(n *Node, maxDepth int) []byte {
	w := newCanonWriter()
	encodeCanonical(n, maxDepth, w)
	return w.Bytes()
}

// Equal reports whether two node trees are structurally identical: same
// shapes, same field names in the same order, same leaf payloads.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	return string(Canonical(a, 1000)) == string(Canonical(b, 1000))
}

func encodeCanonical(n *Node, depth int, w *canonWriter) {
	if depth <= 0 {
		w.WriteString(`{"$max_depth":true}`)
		return
	}
	if n == nil {
		w.WriteString("null")
		return
	}

	switch n.Kind {
	case KindObject:
		if n.Fields == nil {
			// Incompletely specified object: identity is its raw form.
			w.WriteString(`{"object":null,"raw":`)
			w.WriteString(fmt.Sprintf("%q", canonicalYAMLNode(n.Raw)))
			w.WriteByte('}')
			return
		}
		w.WriteString(`{"object":{`)
		first := true
		for name, child := range n.Fields.All() {
			if !first {
				w.WriteByte(',')
			}
			first = false
			w.WriteString(fmt.Sprintf("%q:", name))
			encodeCanonical(child, depth-1, w)
		}
		w.WriteString("}}")

	case KindArray:
		if n.Items == nil {
			w.WriteString(`{"array":null,"raw":`)
			w.WriteString(fmt.Sprintf("%q", canonicalYAMLNode(n.Raw)))
			w.WriteByte('}')
			return
		}
		w.WriteString(`{"array":`)
		encodeCanonical(n.Items, depth-1, w)
		w.WriteByte('}')

	case KindLeaf:
		w.WriteString(`{"leaf":{`)
		if n.Leaf != nil {
			w.WriteString(fmt.Sprintf(`"name":%q,"type":%q,"inferenceType":%q,"instruction":%q`,
				n.Leaf.Name, n.Leaf.Type, n.Leaf.InferenceType, n.Leaf.Instruction))
			if n.Leaf.Extra != nil && n.Leaf.Extra.Len() > 0 {
				// Extras are opaque; sort keys so canonical form does not
				// depend on incidental authoring order.
				keys := make([]string, 0, n.Leaf.Extra.Len())
				for k := range n.Leaf.Extra.All() {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				w.WriteString(`,"extra":{`)
				for i, k := range keys {
					if i > 0 {
						w.WriteByte(',')
					}
					v, _ := n.Leaf.Extra.Get(k)
					w.WriteString(fmt.Sprintf("%q:%q", k, canonicalYAMLNode(v)))
				}
				w.WriteByte('}')
			}
		}
		w.WriteString("}}")

	default:
		w.WriteString(fmt.Sprintf(`{"$kind":%d}`, int(n.Kind)))
	}
}

// canonWriter is a simple buffer for building canonical representations.
type canonWriter struct {
	buf []byte
}

func newCanonWriter() *canonWriter {
	return &canonWriter{buf: make([]byte, 0, 1024)}
}

func (w *canonWriter) WriteByte(b byte) error {
	w.buf = append(w.buf, b)
	return nil
}

func (w *canonWriter) WriteString(s string) {
	w.buf = append(w.buf, s...)
}

func (w *canonWriter) Bytes() []byte {
	return w.buf
}

// canonicalYAMLNode converts an opaque yaml node to a canonical string.
// Mapping keys are sorted for determinism.
func canonicalYAMLNode(n *yaml.Node) string {
	if n == nil {
		return "null"
	}
	n = unalias(n)
	switch n.Kind {
	case yaml.ScalarNode:
		return "s:" + n.Value
	case yaml.SequenceNode:
		var b strings.Builder
		b.WriteByte('[')
		for i, c := range n.Content {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(canonicalYAMLNode(c))
		}
		b.WriteByte(']')
		return b.String()
	case yaml.MappingNode:
		pairs := make([]struct{ key, val string }, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			pairs = append(pairs, struct{ key, val string }{
				canonicalYAMLNode(n.Content[i]),
				canonicalYAMLNode(n.Content[i+1]),
			})
		}
		sort.Slice(pairs, func(i, j int) bool { return pairs[i].key < pairs[j].key })
		var b strings.Builder
		b.WriteByte('{')
		for i, p := range pairs {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(p.key)
			b.WriteByte(':')
			b.WriteString(p.val)
		}
		b.WriteByte('}')
		return b.String()
	default:
		return fmt.Sprintf("kind%d", n.Kind)
	}
}
