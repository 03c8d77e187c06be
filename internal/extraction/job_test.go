package extraction

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/spigell/jd-matcher/internal/evaluator"
)

type call struct {
	dimension string
	model     string
}

type recorder struct {
	mu      sync.Mutex
	calls   []call
	respond func(req evaluator.Request) (map[string]any, error)
}

func (r *recorder) Evaluate(_ context.Context, req evaluator.Request) (map[string]any, error) {
	r.mu.Lock()
	r.calls = append(r.calls, call{dimension: req.Dimension, model: req.Model})
	r.mu.Unlock()
	return r.respond(req)
}

func validJob() map[string]any {
	return map[string]any{
		"jobTitle":                "Platform Engineer",
		"jobLevel":                "Senior",
		"jobLocation":             "Remote",
		"primaryResponsibilities": []any{"Own the deployment pipeline"},
		"coreSkills":              []any{"Go", "Kubernetes", "Node.js"},
		"mandatorySkills":         []any{"Go"},
		"experience":              map[string]any{"min": 5, "max": 3},
	}
}

func TestJobExtractionFallsBackToNextModel(t *testing.T) {
	t.Parallel()

	models := []string{"m-1", "m-2", "m-3"}
	rec := &recorder{respond: func(req evaluator.Request) (map[string]any, error) {
		if req.Model != "m-3" {
			return nil, errors.New("rate limited")
		}
		return validJob(), nil
	}}

	x, err := NewJobExtractor(rec, models, nil, nil)
	if err != nil {
		t.Fatalf("new extractor: %v", err)
	}

	job, err := x.Extract(context.Background(), "We are hiring a platform engineer")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if job.MetaData == nil || job.MetaData.ModelName != "m-3" {
		t.Fatalf("expected model m-3 in metadata, got %+v", job.MetaData)
	}
	if len(rec.calls) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(rec.calls))
	}
	for i, c := range rec.calls {
		if c.model != models[i] {
			t.Fatalf("attempt %d used model %q, expected %q", i, c.model, models[i])
		}
	}
	if job.Experience.Max != 5 {
		t.Fatalf("expected max experience raised to 5, got %v", job.Experience.Max)
	}
	if job.CoreSkills[2] != "nodejs" {
		t.Fatalf("expected cleaned core skill, got %q", job.CoreSkills[2])
	}
}

func TestJobExtractionInvalidOutputTriesNextModel(t *testing.T) {
	t.Parallel()

	rec := &recorder{respond: func(req evaluator.Request) (map[string]any, error) {
		out := validJob()
		if req.Model == "first" {
			out["jobLevel"] = ""
		}
		return out, nil
	}}

	x, err := NewJobExtractor(rec, []string{"first", "second"}, nil, nil)
	if err != nil {
		t.Fatalf("new extractor: %v", err)
	}

	job, err := x.Extract(context.Background(), "job text")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if job.MetaData.ModelName != "second" {
		t.Fatalf("expected second model to win, got %q", job.MetaData.ModelName)
	}
}

func TestJobExtractionAllModelsFail(t *testing.T) {
	t.Parallel()

	rec := &recorder{respond: func(evaluator.Request) (map[string]any, error) {
		return map[string]any{"jobTitle": 42}, nil
	}}

	x, err := NewJobExtractor(rec, []string{"a", "b"}, nil, nil)
	if err != nil {
		t.Fatalf("new extractor: %v", err)
	}

	_, err = x.Extract(context.Background(), "job text")
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed, got %v", err)
	}
	if len(rec.calls) != 2 {
		t.Fatalf("expected every model to be tried once, got %d calls", len(rec.calls))
	}
}

func TestJobExtractionRequiresText(t *testing.T) {
	x, err := NewJobExtractor(&recorder{}, nil, nil, nil)
	if err != nil {
		t.Fatalf("new extractor: %v", err)
	}
	if _, err := x.Extract(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty job description")
	}
}

func TestJobExtractionCancelled(t *testing.T) {
	rec := &recorder{respond: func(evaluator.Request) (map[string]any, error) {
		return validJob(), nil
	}}
	x, err := NewJobExtractor(rec, nil, nil, nil)
	if err != nil {
		t.Fatalf("new extractor: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := x.Extract(ctx, "job text"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
