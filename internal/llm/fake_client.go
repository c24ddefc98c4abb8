package llm

import (
	"context"
	"encoding/json"
)

// FakeClient is a deterministic test double for Client. Responses queue
// per method and are consumed in order; CompleteJSON/CompleteVisionJSON
// marshal the queued value into out directly, bypassing transport and
// retry logic entirely.
type FakeClient struct {
	TextResponses   []string
	JSONResponses   []any
	VisionResponses []any
	Err             error

	textIdx, jsonIdx, visionIdx int
}

func (f *FakeClient) CompleteText(ctx context.Context, prompt string) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	if f.textIdx >= len(f.TextResponses) {
		return "", nil
	}
	r := f.TextResponses[f.textIdx]
	f.textIdx++
	return r, nil
}

func (f *FakeClient) CompleteJSON(ctx context.Context, prompt string, out any) error {
	if f.Err != nil {
		return f.Err
	}
	if f.jsonIdx >= len(f.JSONResponses) {
		return nil
	}
	v := f.JSONResponses[f.jsonIdx]
	f.jsonIdx++
	return remarshal(v, out)
}

func (f *FakeClient) CompleteVisionJSON(ctx context.Context, prompt string, images []Image, out any) error {
	if f.Err != nil {
		return f.Err
	}
	if f.visionIdx >= len(f.VisionResponses) {
		return nil
	}
	v := f.VisionResponses[f.visionIdx]
	f.visionIdx++
	return remarshal(v, out)
}

func remarshal(v any, out any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
