package jsonrewrite

import (
	"encoding/json"
	"net"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/heistp/cryptopan"
	"github.com/heistp/cryptopan/internal/metrics"
)

var testKey = []byte{
	21, 34, 23, 141, 51, 164, 207, 128, 19, 10, 91, 22, 73, 144, 125, 16,
	216, 152, 143, 131, 121, 121, 101, 39, 98, 87, 76, 45, 42, 132, 34, 2,
}

func TestRewriteScalarAndArrayFields(t *testing.T) {
	anon, err := cryptopan.New(testKey)
	if err != nil {
		t.Fatalf("cryptopan.New: %v", err)
	}
	defer anon.Close()

	r, err := New(anon, []string{"client.ip", "hops[]"}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	in := map[string]any{
		"client": map[string]any{
			"ip":   "128.11.68.132",
			"port": 443,
		},
		"hops": []any{"24.0.250.221", "127.0.0.1"},
		"note": "untouched",
	}
	doc, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	out, err := r.RewriteJSON(doc)
	if err != nil {
		t.Fatalf("RewriteJSON: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	anonIP := func(s string) string {
		t.Helper()
		out, err := anon.AnonymiseIP(net.ParseIP(s))
		if err != nil {
			t.Fatalf("AnonymiseIP(%q): %v", s, err)
		}
		return out.String()
	}
	want := map[string]any{
		"client": map[string]any{
			"ip":   anonIP("128.11.68.132"),
			"port": float64(443),
		},
		"hops": []any{anonIP("24.0.250.221"), anonIP("127.0.0.1")},
		"note": "untouched",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("rewritten record shape mismatch (-want +got):\n%s", diff)
	}
}

func TestUnmatchedPathIsSkipped(t *testing.T) {
	anon, err := cryptopan.New(testKey)
	if err != nil {
		t.Fatalf("cryptopan.New: %v", err)
	}
	defer anon.Close()

	r, err := New(anon, []string{"missing.field"}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	doc := []byte(`{"present": "value"}`)
	out, err := r.RewriteJSON(doc)
	if err != nil {
		t.Fatalf("RewriteJSON: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got["present"] != "value" {
		t.Fatalf("unrelated field corrupted: %v", got["present"])
	}
}

func TestBadPathRejected(t *testing.T) {
	anon, err := cryptopan.New(testKey)
	if err != nil {
		t.Fatalf("cryptopan.New: %v", err)
	}
	defer anon.Close()

	if _, err := New(anon, []string{"a["}, nil); err == nil {
		t.Fatal("expected error for unterminated index")
	}
}

func TestRewriteJSONRecordsMetrics(t *testing.T) {
	anon, err := cryptopan.New(testKey)
	if err != nil {
		t.Fatalf("cryptopan.New: %v", err)
	}
	defer anon.Close()

	reg := prometheus.NewRegistry()
	rec := metrics.NewRecorder(reg)

	r, err := New(anon, []string{"ip", "mac", "bogus"}, rec)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	doc := []byte(`{"ip": "128.11.68.132", "mac": "aa:bb:cc:00:00:01", "bogus": "not-an-address"}`)
	if _, err := r.RewriteJSON(doc); err != nil {
		t.Fatalf("RewriteJSON: %v", err)
	}

	if got := testutil.ToFloat64(rec.Processed.WithLabelValues("ip")); got != 1 {
		t.Fatalf("ip processed counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(rec.Processed.WithLabelValues("mac")); got != 1 {
		t.Fatalf("mac processed counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(rec.Errors.WithLabelValues("unparsable")); got != 1 {
		t.Fatalf("unparsable error counter = %v, want 1", got)
	}
}
