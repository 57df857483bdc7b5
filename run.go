// Package newsdigest runs one news digest: fetch the matching items, build
// and render the digest, deliver it, and record how it went.
//
// A run either fully succeeds or fails loudly. Every error reaches the
// caller; nothing is retried and nothing is carried over between runs.
package newsdigest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/pevans/newsdigest/config"
	"github.com/pevans/newsdigest/digest"
	"github.com/pevans/newsdigest/metrics"
	"github.com/pevans/newsdigest/newsfeed"
	"github.com/pevans/newsdigest/notifier"
	"github.com/pevans/newsdigest/runlog"
	"github.com/sirupsen/logrus"
)

// Deliverer sends a rendered digest. *notifier.Notifier satisfies it.
type Deliverer interface {
	Deliver(ctx context.Context, payload notifier.Payload, cfg notifier.DeliveryConfig) error
}

// RunRecorder stores run outcomes. *runlog.Store satisfies it.
type RunRecorder interface {
	Record(run runlog.Run) error
}

// Result describes what a run built.
type Result struct {
	RunID   uuid.UUID
	Digest  digest.Digest
	Payload notifier.Payload
}

// Runner wires a feed source to a deliverer.
type Runner struct {
	config    *config.Config
	source    newsfeed.Source
	deliverer Deliverer
	template  digest.Template
	metrics   *metrics.Recorder
	runLog    RunRecorder
	log       logrus.FieldLogger
	now       func() time.Time
}

// NewRunner creates a runner. A nil logger discards output.
func NewRunner(cfg *config.Config, source newsfeed.Source, deliverer Deliverer, log logrus.FieldLogger) *Runner {
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}

	return &Runner{
		config:    cfg,
		source:    source,
		deliverer: deliverer,
		template:  digest.DefaultTemplate(),
		log:       log,
		now:       time.Now,
	}
}

// WithTemplate replaces the default message template.
func (r *Runner) WithTemplate(tmpl digest.Template) *Runner {
	r.template = tmpl
	return r
}

// WithMetrics makes the runner observe and push run metrics.
func (r *Runner) WithMetrics(recorder *metrics.Recorder) *Runner {
	r.metrics = recorder
	return r
}

// WithRunLog makes the runner record every run outcome.
func (r *Runner) WithRunLog(recorder RunRecorder) *Runner {
	r.runLog = recorder
	return r
}

// Preview fetches and renders a digest without delivering it.
func (r *Runner) Preview(ctx context.Context) (*Result, error) {
	return r.build(ctx, uuid.New())
}

// Run performs one complete run. A digest that was built but not delivered
// is still a failed run.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	started := r.now()
	runID := uuid.New()
	log := r.log.WithFields(logrus.Fields{
		"run_id": runID.String(),
		"mode":   string(r.config.Delivery.Mode),
	})

	log.Info("Run started")

	result, err := r.build(ctx, runID)
	if err == nil {
		log.WithFields(logrus.Fields{
			"items":       len(result.Digest.Items),
			"promotional": result.Digest.PromotionalCount(),
		}).Info("Digest built")

		if derr := r.deliverer.Deliver(ctx, result.Payload, r.config.Delivery); derr != nil {
			err = fmt.Errorf("failed to deliver digest: %w", derr)
		}
	}

	bookkeeping := r.finish(ctx, runID, started, result, err)

	if err != nil {
		log.WithError(err).Error("Run failed")
		return result, err
	}
	if bookkeeping != nil {
		log.WithError(bookkeeping).Error("Run delivered but could not be recorded")
		return result, bookkeeping
	}

	log.WithField("duration", r.now().Sub(started).String()).Info("Run finished")
	return result, nil
}

// build fetches items and renders both payload forms.
func (r *Runner) build(ctx context.Context, runID uuid.UUID) (*Result, error) {
	items, err := r.source.Fetch(ctx, r.config.Feed.Query, r.config.Feed.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news: %w", err)
	}

	today := r.now().In(r.config.Location())
	d := digest.Build(items, r.config.Feed.Limit, r.config.Digest.Rules, today)

	return &Result{
		RunID:  runID,
		Digest: d,
		Payload: notifier.Payload{
			Text: digest.RenderText(d, r.template),
			Card: digest.RenderCard(d, r.template),
		},
	}, nil
}

// finish records metrics and the run log. Failures here are logged and
// returned together; they never replace the run's own error.
func (r *Runner) finish(ctx context.Context, runID uuid.UUID, started time.Time, result *Result, runErr error) error {
	var d digest.Digest
	if result != nil {
		d = result.Digest
	}

	var errs []error

	if r.metrics != nil {
		r.metrics.Observe(metrics.Outcome{
			Started:     started,
			Duration:    r.now().Sub(started),
			Items:       len(d.Items),
			Promotional: d.PromotionalCount(),
			Err:         runErr,
		})
		if err := r.metrics.Push(ctx, r.config.Metrics.PushgatewayURL, r.config.Metrics.Job); err != nil {
			r.log.WithError(err).Warn("Failed to push run metrics")
			errs = append(errs, err)
		}
	}

	if r.runLog != nil {
		run := runlog.Run{
			RunID:            runID,
			StartedAt:        started,
			DateLabel:        d.DateLabel,
			Mode:             string(r.config.Delivery.Mode),
			ItemCount:        len(d.Items),
			PromotionalCount: d.PromotionalCount(),
			Status:           runlog.StatusDelivered,
		}
		if run.DateLabel == "" {
			run.DateLabel = started.In(r.config.Location()).Format(digest.DateLayout)
		}
		if runErr != nil {
			msg := runErr.Error()
			run.Status = runlog.StatusFailed
			run.Error = &msg
		}
		if err := r.runLog.Record(run); err != nil {
			r.log.WithError(err).Warn("Failed to record run")
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
