// Package jsonrewrite implements the "JSON field rewriter" collaborator
// named in spec.md §6: it walks a decoded JSON record using path
// expressions, parses each matched field as an IP or MAC address, invokes
// the cryptopan core, and writes the string form of the result back,
// leaving the rest of the record structurally identical. Array-valued
// matches are rewritten element-wise.
package jsonrewrite

import (
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/heistp/cryptopan"
	"github.com/heistp/cryptopan/internal/metrics"
)

// Anonymiser is the subset of *cryptopan.Anonymiser this package needs,
// narrowed so callers can swap in a stub for testing.
type Anonymiser interface {
	AnonymiseIP(ip net.IP) (net.IP, error)
	AnonymiseMAC(mac net.HardwareAddr) (net.HardwareAddr, error)
}

var _ Anonymiser = (*cryptopan.Anonymiser)(nil)

// Rewriter rewrites the fields named by Paths in every record it is given.
type Rewriter struct {
	anon  Anonymiser
	paths [][]segment
	rec   *metrics.Recorder
}

// segment is one step of a parsed path: a field name, and an optional
// array index ("ips[2]" → segment{name: "ips", index: 2, hasIndex: true}).
// index == -1 with hasIndex true means "every element".
type segment struct {
	name     string
	index    int
	hasIndex bool
}

// New builds a Rewriter that rewrites the given dotted/bracketed path
// expressions (e.g. "client.ip", "hops[].addr", "mac") using anon. rec may
// be nil, in which case no metrics are recorded.
func New(anon Anonymiser, paths []string, rec *metrics.Recorder) (*Rewriter, error) {
	r := &Rewriter{anon: anon, rec: rec}
	for _, p := range paths {
		segs, err := parsePath(p)
		if err != nil {
			return nil, fmt.Errorf("jsonrewrite: path %q: %w", p, err)
		}
		r.paths = append(r.paths, segs)
	}
	return r, nil
}

func parsePath(p string) ([]segment, error) {
	var segs []segment
	for _, part := range strings.Split(p, ".") {
		name := part
		index := -1
		hasIndex := false
		if i := strings.IndexByte(part, '['); i >= 0 {
			if !strings.HasSuffix(part, "]") {
				return nil, fmt.Errorf("unterminated index in %q", part)
			}
			name = part[:i]
			inner := part[i+1 : len(part)-1]
			hasIndex = true
			if inner != "" {
				n, err := strconv.Atoi(inner)
				if err != nil {
					return nil, fmt.Errorf("bad index %q: %w", inner, err)
				}
				index = n
			}
		}
		if name == "" {
			return nil, fmt.Errorf("empty path segment in %q", p)
		}
		segs = append(segs, segment{name: name, index: index, hasIndex: hasIndex})
	}
	return segs, nil
}

// RewriteJSON decodes doc as a JSON object, rewrites every field matched by
// a configured path, and re-encodes it.
func (r *Rewriter) RewriteJSON(doc []byte) ([]byte, error) {
	var root map[string]any
	if err := json.Unmarshal(doc, &root); err != nil {
		return nil, fmt.Errorf("jsonrewrite: decode: %w", err)
	}
	for _, segs := range r.paths {
		if err := r.rewriteAt(root, segs); err != nil {
			return nil, err
		}
	}
	return json.Marshal(root)
}

// rewriteAt walks node according to segs, rewriting the leaf value(s) it
// reaches in place.
func (r *Rewriter) rewriteAt(node any, segs []segment) error {
	if len(segs) == 0 {
		return nil
	}
	m, ok := node.(map[string]any)
	if !ok {
		return nil // path does not apply to this record shape; skip silently
	}
	seg := segs[0]
	val, present := m[seg.name]
	if !present {
		return nil
	}

	if len(segs) == 1 {
		return r.rewriteLeaf(m, seg, val)
	}

	if seg.hasIndex {
		arr, ok := val.([]any)
		if !ok {
			return nil
		}
		return r.rewriteEach(arr, func(i int, elem any) error {
			if seg.index >= 0 && seg.index != i {
				return nil
			}
			return r.rewriteAt(elem, segs[1:])
		})
	}
	return r.rewriteAt(val, segs[1:])
}

func (r *Rewriter) rewriteEach(arr []any, f func(i int, elem any) error) error {
	for i, elem := range arr {
		if err := f(i, elem); err != nil {
			return err
		}
	}
	return nil
}

// rewriteLeaf rewrites m[seg.name], handling the array-valued and
// index-valued forms of a terminal path segment.
func (r *Rewriter) rewriteLeaf(m map[string]any, seg segment, val any) error {
	if seg.hasIndex {
		arr, ok := val.([]any)
		if !ok {
			return nil
		}
		for i, elem := range arr {
			if seg.index >= 0 && seg.index != i {
				continue
			}
			s, ok := elem.(string)
			if !ok {
				continue
			}
			out, err := r.rewriteString(s)
			if err != nil {
				continue // InvalidInput etc.: skip-field, per spec.md §7
			}
			arr[i] = out
		}
		return nil
	}

	switch v := val.(type) {
	case string:
		out, err := r.rewriteString(v)
		if err != nil {
			return nil // skip-field on parse/anonymise failure
		}
		m[seg.name] = out
	case []any:
		for i, elem := range v {
			s, ok := elem.(string)
			if !ok {
				continue
			}
			out, err := r.rewriteString(s)
			if err != nil {
				continue
			}
			v[i] = out
		}
	}
	return nil
}

// rewriteString parses s as an IP or, failing that, a MAC address, and
// returns the string form of its anonymised value.
func (r *Rewriter) rewriteString(s string) (string, error) {
	if ip := net.ParseIP(s); ip != nil {
		out, err := r.anon.AnonymiseIP(ip)
		if err != nil {
			r.rec.IncErrors("anonymise")
			return "", err
		}
		r.rec.IncProcessed("ip")
		return out.String(), nil
	}
	if mac, err := net.ParseMAC(s); err == nil {
		out, err := r.anon.AnonymiseMAC(mac)
		if err != nil {
			r.rec.IncErrors("anonymise")
			return "", err
		}
		r.rec.IncProcessed("mac")
		return out.String(), nil
	}
	r.rec.IncErrors("unparsable")
	return "", fmt.Errorf("jsonrewrite: %q is neither an IP nor a MAC address", s)
}
