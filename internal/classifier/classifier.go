// Package classifier maps free text onto a closed set of labels using a
// single completion call.
package classifier

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Emilianodz/multiagent-orch-system/internal/llm"
	"github.com/Emilianodz/multiagent-orch-system/internal/model"
	"github.com/Emilianodz/multiagent-orch-system/pkg/logger"
	"github.com/Emilianodz/multiagent-orch-system/pkg/metrics"
)

// LabelSet describes one classification problem.
type LabelSet struct {
	// Name identifies the set in metrics and logs.
	Name     string
	Labels   []model.Label
	Fallback model.Label
	// Prompt may reference {{query}}, {{labels}} and {{documents}}.
	Prompt string
}

// Contains reports whether l is a member of the set.
func (s LabelSet) Contains(l model.Label) bool {
	for _, candidate := range s.Labels {
		if candidate == l {
			return true
		}
	}
	return false
}

func (s LabelSet) enumerate() string {
	parts := make([]string, len(s.Labels))
	for i, l := range s.Labels {
		parts[i] = string(l)
	}
	return strings.Join(parts, ", ")
}

// Result is the outcome of a classification. Label is always a member of
// the set.
type Result struct {
	Label model.Label
	// Raw is the normalized completion text, empty when the call failed.
	Raw   string
	Valid bool
	// Err is the completion failure, if any.
	Err error
}

// Option customizes a single Classify call.
type Option func(*callOptions)

type callOptions struct {
	documents string
}

// WithDocuments supplies the description of available documents.
func WithDocuments(description string) Option {
	return func(o *callOptions) {
		o.documents = description
	}
}

// Classifier runs classifications against a completer.
type Classifier struct {
	completer llm.Completer
	timeout   time.Duration
	logger    *logger.Logger
}

// New creates a classifier. A non-positive timeout leaves calls bounded only
// by the caller's context.
func New(completer llm.Completer, timeout time.Duration, log *logger.Logger) *Classifier {
	return &Classifier{
		completer: completer,
		timeout:   timeout,
		logger:    log.Named("classifier"),
	}
}

// Classify invokes the completer once and maps its answer onto set. It never
// returns an error: failures produce the fallback label with Err set.
func (c *Classifier) Classify(ctx context.Context, text string, set LabelSet, opts ...Option) Result {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}

	prompt := Render(set, text, o.documents)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	out, err := c.completer.Complete(ctx, prompt)
	if err != nil {
		c.logger.Warn("classification failed",
			zap.String("set", set.Name),
			zap.Error(err),
		)
		metrics.ClassificationsTotal.WithLabelValues(set.Name, string(set.Fallback), "false").Inc()
		return Result{Label: set.Fallback, Err: model.NewCapabilityError("classification", err)}
	}

	raw := Normalize(out)
	if set.Contains(model.Label(raw)) {
		metrics.ClassificationsTotal.WithLabelValues(set.Name, raw, "true").Inc()
		return Result{Label: model.Label(raw), Raw: raw, Valid: true}
	}

	c.logger.Info("classification outside label set",
		zap.String("set", set.Name),
		zap.String("raw", raw),
	)
	metrics.ClassificationsTotal.WithLabelValues(set.Name, string(set.Fallback), "false").Inc()
	return Result{Label: set.Fallback, Raw: raw}
}

// Render fills the set's prompt template.
func Render(set LabelSet, text, documents string) string {
	if documents == "" {
		documents = "none"
	}
	r := strings.NewReplacer(
		"{{query}}", strings.TrimSpace(text),
		"{{labels}}", set.enumerate(),
		"{{documents}}", documents,
	)
	return r.Replace(set.Prompt)
}

// Normalize lowercases the completion and strips whitespace, line breaks
// and surrounding quotes.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer("\r", "", "\n", "").Replace(s)
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "'\"`")
	return strings.TrimSpace(s)
}
