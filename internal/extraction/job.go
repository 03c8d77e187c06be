// Package extraction turns free-text job descriptions and resumes into
// profile documents.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jd-matcher/internal/evaluator"
	"github.com/spigell/jd-matcher/internal/graph"
	"github.com/spigell/jd-matcher/internal/logger"
	"github.com/spigell/jd-matcher/internal/profile"
)

const (
	JobGraphName  = "job"
	CallModelNode = "callModelNode"

	keyJobText     = "jobText"
	keyJob         = "job"
	keyParseFailed = "parseFailed"
	keyModelIndex  = "modelIndex"
	keyLastError   = "lastError"
)

// DefaultJobModels are tried in order until one returns a valid job.
var DefaultJobModels = []string{"gpt-4o-2024-08-06", "gpt-4-turbo-2024-04-09"}

// ErrExtractionFailed is returned when every model failed.
var ErrExtractionFailed = errors.New("extraction failed")

// JobExtractor runs the model fallback chain for job descriptions.
type JobExtractor struct {
	ev     evaluator.Evaluator
	models []string
	graph  *graph.Graph
	engine *graph.Engine
	logger *zap.Logger
}

func NewJobExtractor(ev evaluator.Evaluator, models []string, log *zap.Logger, observer graph.Observer) (*JobExtractor, error) {
	if ev == nil {
		return nil, errors.New("job extractor requires an evaluator")
	}
	if len(models) == 0 {
		models = DefaultJobModels
	}

	log = logger.WithFields(log, zap.String(logger.FieldGraph, JobGraphName))
	x := &JobExtractor{ev: ev, models: append([]string(nil), models...), logger: log}

	g, err := graph.NewBuilder(JobGraphName).
		AddNode(CallModelNode, x.callModel, graph.WithDestinations(CallModelNode)).
		AddEdge(graph.Start, CallModelNode).
		AddEdge(CallModelNode, graph.End).
		Compile()
	if err != nil {
		return nil, err
	}
	x.graph = g

	opts := []graph.Option{graph.WithLogger(log), graph.WithMaxSteps(len(models) + 1)}
	if observer != nil {
		opts = append(opts, graph.WithObserver(observer))
	}
	x.engine = graph.NewEngine(opts...)
	return x, nil
}

func (x *JobExtractor) Graph() *graph.Graph { return x.graph }

// Extract returns the first valid job description produced by the models.
func (x *JobExtractor) Extract(ctx context.Context, text string) (*profile.JobRequirement, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("job description is required")
	}

	final, _, err := x.engine.Run(ctx, x.graph, graph.State{
		keyJobText:     text,
		keyModelIndex:  0,
		keyParseFailed: false,
	})
	if err != nil {
		return nil, fmt.Errorf("extract job: %w", err)
	}

	if failed, _ := graph.Get[bool](final, keyParseFailed); failed {
		last, _ := graph.Get[string](final, keyLastError)
		return nil, fmt.Errorf("%w: all %d models failed, last error: %s", ErrExtractionFailed, len(x.models), last)
	}
	job, ok := graph.Get[*profile.JobRequirement](final, keyJob)
	if !ok {
		return nil, fmt.Errorf("%w: no job in final state", ErrExtractionFailed)
	}
	return job, nil
}

// callModel tries the model at modelIndex and loops back to itself with the
// next index on failure.
func (x *JobExtractor) callModel(ctx context.Context, s graph.State) (graph.Result, error) {
	text, _ := graph.Get[string](s, keyJobText)
	index, _ := graph.Get[int](s, keyModelIndex)
	if index >= len(x.models) {
		return graph.Goto(graph.State{keyParseFailed: true}, graph.End), nil
	}
	model := x.models[index]

	job, err := x.attempt(ctx, model, text)
	if err == nil {
		x.logger.Info("job description extracted", zap.String(logger.FieldModel, model))
		return graph.Goto(graph.State{
			keyJob:         job,
			keyParseFailed: false,
			keyModelIndex:  index,
		}, graph.End), nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return graph.Result{}, ctxErr
	}

	next := index + 1
	if next < len(x.models) {
		x.logger.Warn("job extraction attempt failed, trying next model",
			zap.String(logger.FieldModel, model),
			zap.String("next_model", x.models[next]),
			zap.Error(err),
		)
		return graph.Goto(graph.State{
			keyParseFailed: true,
			keyModelIndex:  next,
			keyLastError:   err.Error(),
		}, CallModelNode), nil
	}

	x.logger.Error("final model failed to extract job description",
		zap.String(logger.FieldModel, model),
		zap.Error(err),
	)
	return graph.Goto(graph.State{
		keyParseFailed: true,
		keyModelIndex:  index,
		keyLastError:   err.Error(),
	}, graph.End), nil
}

func (x *JobExtractor) attempt(ctx context.Context, model, text string) (*profile.JobRequirement, error) {
	job, err := evaluator.Call[profile.JobRequirement](ctx, x.ev, evaluator.Request{
		Dimension:   "jobDescription",
		Instruction: jobInstruction,
		Input:       map[string]any{"jobDescription": text},
		Schema:      jobSchema,
		Model:       model,
	})
	if err != nil {
		return nil, err
	}

	job.Normalize()
	if err := job.Validate(); err != nil {
		return nil, err
	}
	job.MetaData = &profile.MetaData{ModelName: model}
	return &job, nil
}
