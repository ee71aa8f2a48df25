package request

import (
	"strings"
	"testing"
)

func f64(v float64) *float64 { return &v }

func boolPtr(v bool) *bool { return &v }

func TestNew_Defaults(t *testing.T) {
	r, err := New("hello", 0, nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Query() != "hello" {
		t.Errorf("Query() = %q", r.Query())
	}
	if r.TopK() != DefaultTopK {
		t.Errorf("TopK() = %d, want %d", r.TopK(), DefaultTopK)
	}
	if r.Threshold() != DefaultThreshold {
		t.Errorf("Threshold() = %f, want %f", r.Threshold(), DefaultThreshold)
	}
	if r.ThresholdSet() {
		t.Error("ThresholdSet() = true for nil threshold")
	}
	if !r.UseQuantum() {
		t.Error("UseQuantum() should default to true")
	}
	if r.Filter() != nil {
		t.Errorf("Filter() = %v, want nil", r.Filter())
	}
}

func TestNew_ExplicitValues(t *testing.T) {
	r, err := New("  query  ", 3, f64(0.4), boolPtr(false), map[string]string{"source": "a.pdf"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Query() != "query" {
		t.Errorf("Query() = %q, want trimmed", r.Query())
	}
	if r.TopK() != 3 {
		t.Errorf("TopK() = %d", r.TopK())
	}
	if r.Threshold() != 0.4 || !r.ThresholdSet() {
		t.Errorf("Threshold() = %f set=%v", r.Threshold(), r.ThresholdSet())
	}
	if r.UseQuantum() {
		t.Error("UseQuantum() = true")
	}
	if r.Filter()["source"] != "a.pdf" {
		t.Errorf("Filter() = %v", r.Filter())
	}
}

func TestNew_EmptyQuery(t *testing.T) {
	for _, q := range []string{"", "   "} {
		_, err := New(q, 5, nil, nil, nil)
		if err == nil {
			t.Fatalf("expected error for %q", q)
		}
		if !strings.Contains(err.Error(), "required") {
			t.Errorf("error = %q", err)
		}
	}
}

func TestNew_QueryTooLong(t *testing.T) {
	_, err := New(strings.Repeat("x", MaxQueryLength+1), 5, nil, nil, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "too long") {
		t.Errorf("error = %q", err)
	}
}

func TestNew_TopKClamping(t *testing.T) {
	tests := []struct {
		name     string
		topK     int
		wantTopK int
	}{
		{"negative", -1, DefaultTopK},
		{"zero", 0, DefaultTopK},
		{"normal", 7, 7},
		{"over max", 1000, MaxTopK},
		{"exactly max", MaxTopK, MaxTopK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New("q", tt.topK, nil, nil, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.TopK() != tt.wantTopK {
				t.Errorf("TopK() = %d, want %d", r.TopK(), tt.wantTopK)
			}
		})
	}
}

func TestNew_ThresholdRange(t *testing.T) {
	for _, th := range []float64{-0.1, 1.01} {
		if _, err := New("q", 5, f64(th), nil, nil); err == nil {
			t.Errorf("expected error for threshold %f", th)
		}
	}
	for _, th := range []float64{0, 1} {
		if _, err := New("q", 5, f64(th), nil, nil); err != nil {
			t.Errorf("unexpected error for threshold %f: %v", th, err)
		}
	}
}

func TestNew_EmptyFilterKey(t *testing.T) {
	if _, err := New("q", 5, nil, nil, map[string]string{"": "x"}); err == nil {
		t.Fatal("expected error for empty filter key")
	}
}

func TestWithDefaultThreshold(t *testing.T) {
	implicit, _ := New("q", 5, nil, nil, nil)
	implicit = implicit.WithDefaultThreshold(0.3)
	if got := implicit.Threshold(); got != 0.3 {
		t.Errorf("implicit threshold = %f, want 0.3", got)
	}

	explicit, _ := New("q", 5, f64(0.9), nil, nil)
	explicit = explicit.WithDefaultThreshold(0.3)
	if got := explicit.Threshold(); got != 0.9 {
		t.Errorf("explicit threshold = %f, want 0.9", got)
	}
}
