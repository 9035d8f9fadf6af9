package translate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/agurod42/outfox-health/internal/apperr"
	"github.com/agurod42/outfox-health/internal/llm"
)

type fakeProvider struct {
	content string
	err     error
	block   bool
	calls   int
	last    *llm.Request
}

func (f *fakeProvider) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	f.calls++
	f.last = req
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Content: f.content, Model: "fake:model"}, nil
}

func TestDecode(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want Outcome
	}{
		{"sql", `{"outcome":"sql","sql":"SELECT 1 FROM providers","guidance":null,"follow_up":null}`, SQLOutcome{Query: "SELECT 1 FROM providers"}},
		{"fenced", "```json\n{\"outcome\":\"sql\",\"sql\":\" SELECT 2 FROM providers \"}\n```", SQLOutcome{Query: "SELECT 2 FROM providers"}},
		{"guidance", `{"outcome":"guidance","guidance":"Which ZIP?","follow_up":"Add a ZIP code."}`, GuidanceOutcome{Message: "Which ZIP?", FollowUp: "Add a ZIP code."}},
		{"guidance empty", `{"outcome":"guidance"}`, GuidanceOutcome{Message: FallbackGuidance}},
		{"bad outcome", `{"outcome":"maybe","sql":"SELECT 1"}`, GuidanceOutcome{Message: FallbackGuidance}},
		{"missing outcome", `{"sql":"SELECT 1"}`, GuidanceOutcome{Message: FallbackGuidance}},
		{"sql without sql", `{"outcome":"sql","sql":"  "}`, GuidanceOutcome{Message: FallbackGuidance}},
		{"prose", `Sure! Here is your query: SELECT 1`, GuidanceOutcome{Message: FallbackGuidance}},
		{"extra key", `{"outcome":"sql","sql":"SELECT 1","explanation":"x"}`, GuidanceOutcome{Message: FallbackGuidance}},
		{"two objects", `{"outcome":"guidance"} {"outcome":"sql","sql":"SELECT 1"}`, GuidanceOutcome{Message: FallbackGuidance}},
		{"empty", ``, GuidanceOutcome{Message: FallbackGuidance}},
	}
	for _, c := range cases {
		if got := Decode(c.raw); got != c.want {
			t.Errorf("%s: Decode = %#v, want %#v", c.name, got, c.want)
		}
	}
}

func TestDecode_MalformedKind(t *testing.T) {
	_, err := decode("not json")
	if !apperr.Is(err, apperr.KindMalformedTranslatorOutput) {
		t.Errorf("expected MalformedTranslatorOutput, got %v", err)
	}
}

func TestTranslate_SQL(t *testing.T) {
	fp := &fakeProvider{content: `{"outcome":"sql","sql":"SELECT p.zip FROM providers p"}`}
	tr := New(fp, time.Second, zerolog.Nop())
	h := ExtractHints("cheapest for DRG 470 near 10001", Hints{})

	out, err := tr.Translate(context.Background(), "cheapest for DRG 470 near 10001", h)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if sq, ok := out.(SQLOutcome); !ok || sq.Query != "SELECT p.zip FROM providers p" {
		t.Errorf("unexpected outcome: %#v", out)
	}
	if fp.calls != 1 {
		t.Errorf("expected exactly one completion call, got %d", fp.calls)
	}
	if fp.last.SystemPrompt != SystemPrompt || !strings.Contains(fp.last.UserPrompt, "drg=470; zip=10001") {
		t.Errorf("unexpected request: %+v", fp.last)
	}
}

func TestTranslate_MalformedIsGuidance(t *testing.T) {
	fp := &fakeProvider{content: "I think you want SELECT * FROM providers"}
	out, err := New(fp, time.Second, zerolog.Nop()).Translate(context.Background(), "q", Hints{})
	if err != nil {
		t.Fatalf("malformed output must not be an error: %v", err)
	}
	if g, ok := out.(GuidanceOutcome); !ok || g.Message != FallbackGuidance {
		t.Errorf("expected fallback guidance, got %#v", out)
	}
}

func TestTranslate_CallFailure(t *testing.T) {
	fp := &fakeProvider{err: errors.New("connection reset")}
	_, err := New(fp, time.Second, zerolog.Nop()).Translate(context.Background(), "q", Hints{})
	if !apperr.Is(err, apperr.KindTranslatorFailure) {
		t.Fatalf("expected TranslatorFailure, got %v", err)
	}
	if !strings.Contains(err.Error(), "connection reset") {
		t.Errorf("cause should be preserved: %v", err)
	}
}

func TestTranslate_Timeout(t *testing.T) {
	fp := &fakeProvider{block: true}
	_, err := New(fp, 20*time.Millisecond, zerolog.Nop()).Translate(context.Background(), "q", Hints{})
	if !apperr.Is(err, apperr.KindTranslatorFailure) || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("expected timeout TranslatorFailure, got %v", err)
	}
}

func TestTranslate_MissingCredential(t *testing.T) {
	p, err := llm.NewProvider("openai:gpt-4o-mini", "")
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	_, err = New(p, time.Second, zerolog.Nop()).Translate(context.Background(), "q", Hints{})
	if !apperr.Is(err, apperr.KindTranslatorFailure) || !errors.Is(err, llm.ErrMissingAPIKey) {
		t.Fatalf("expected TranslatorFailure wrapping ErrMissingAPIKey, got %v", err)
	}
}

func TestBuildUserPrompt(t *testing.T) {
	p := BuildUserPrompt(" where? ", Hints{ZIP: "10001", RadiusKm: 10})
	if !strings.Contains(p, "Question: where?") || !strings.Contains(p, "radius_km 10.00") {
		t.Errorf("unexpected prompt: %q", p)
	}
}
