package ai

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/jd-matcher/internal/evaluator"
	"github.com/spigell/jd-matcher/internal/logger"
	"github.com/spigell/jd-matcher/internal/utils"
)

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

// Evaluator sends evaluation requests to a Generator.
type Evaluator struct {
	generator Generator
	logger    *zap.Logger
	maxLogLen int
}

func NewEvaluator(generator Generator, log *zap.Logger, maxLogLength int) *Evaluator {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Evaluator{
		generator: generator,
		logger:    logger.WithCommonFields(log, generator.Provider(), generator.Model()),
		maxLogLen: maxLogLength,
	}
}

func (e *Evaluator) Evaluate(ctx context.Context, req evaluator.Request) (map[string]any, error) {
	model := req.Model
	if model == "" {
		model = e.generator.Model()
	}
	fail := func(err error) error {
		return &evaluator.Error{Dimension: req.Dimension, Model: model, Err: err}
	}

	prompt, err := BuildPrompt(req)
	if err != nil {
		return nil, fail(err)
	}

	e.logger.Debug("evaluation request",
		zap.String(logger.FieldDimension, req.Dimension),
		zap.String(logger.FieldModel, model),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, e.maxLogLen)),
	)

	raw, err := e.generator.Generate(ctx, req.Model, prompt)
	if err != nil {
		return nil, fail(err)
	}

	e.logger.Debug("evaluation response",
		zap.String(logger.FieldDimension, req.Dimension),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	out, err := ParseObject(raw)
	if err != nil {
		return nil, fail(err)
	}
	return out, nil
}

// BuildPrompt renders the embedded template for req.
func BuildPrompt(req evaluator.Request) (string, error) {
	if strings.TrimSpace(req.Instruction) == "" {
		return "", errors.New("instruction must not be empty")
	}

	schemaJSON, err := json.MarshalIndent(req.Schema, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal schema: %w", err)
	}
	inputJSON, err := json.MarshalIndent(req.Input, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal input: %w", err)
	}

	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "{{INSTRUCTION}}\n\nSchema:\n{{SCHEMA_JSON}}\n\nInput:\n{{INPUT_JSON}}\n\nJSON Response:"
	}
	prompt := strings.ReplaceAll(template, "{{INSTRUCTION}}", strings.TrimSpace(req.Instruction))
	prompt = strings.ReplaceAll(prompt, "{{SCHEMA_JSON}}", string(schemaJSON))
	prompt = strings.ReplaceAll(prompt, "{{INPUT_JSON}}", string(inputJSON))
	return prompt, nil
}

// ParseObject extracts a JSON object from model output, tolerating code fences.
func ParseObject(raw string) (map[string]any, error) {
	cleaned := extractJSON(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty response", evaluator.ErrSchema)
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("%w: parse response: %v", evaluator.ErrSchema, err)
	}
	if data == nil {
		return nil, fmt.Errorf("%w: response is not an object", evaluator.ErrSchema)
	}
	return data, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	raw = strings.TrimSpace(raw)

	// models sometimes wrap the object in prose
	if !strings.HasPrefix(raw, "{") {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start != -1 && end > start {
			raw = raw[start : end+1]
		}
	}
	return raw
}
