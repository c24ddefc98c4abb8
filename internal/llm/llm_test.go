package llm

import (
	"context"
	"testing"
)

func TestStripFences(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"padded", "  {\"a\":1}  \n", `{"a":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := stripFences(tc.in)
			if got != tc.want {
				t.Errorf("stripFences(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestBumpTemperature(t *testing.T) {
	if got := bumpTemperature(0); got != 0.05 {
		t.Errorf("bumpTemperature(0) = %v, want 0.05", got)
	}
	if got := bumpTemperature(0.28); got != visionTemperatureCap {
		t.Errorf("bumpTemperature(0.28) = %v, want cap %v", got, visionTemperatureCap)
	}
}

func TestFakeClientCompleteJSON(t *testing.T) {
	f := &FakeClient{JSONResponses: []any{map[string]string{"name": "Ada"}}}
	var out struct {
		Name string `json:"name"`
	}
	if err := f.CompleteJSON(context.Background(), "extract name", &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Name != "Ada" {
		t.Errorf("got name %q, want Ada", out.Name)
	}
}
