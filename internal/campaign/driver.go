package campaign

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/stratomail/blast/internal/dkim"
	"github.com/stratomail/blast/internal/message"
	"github.com/stratomail/blast/internal/metrics"
	"github.com/stratomail/blast/internal/ratelimit"
	"github.com/stratomail/blast/internal/recipient"
	"github.com/stratomail/blast/internal/smtp"
	"github.com/stratomail/blast/internal/template"
)

// Suppressor answers whether an address is on the do-not-send list.
type Suppressor interface {
	Contains(address string) (bool, error)
}

// Options configures one campaign run.
type Options struct {
	FromName  string
	FromEmail string
	// Subject is the configured default, used when neither the override
	// nor a record's own subject field applies.
	Subject string
	// SubjectOverride takes precedence over everything when set.
	SubjectOverride string
	ReplyTo         string
	RatePerMinute   float64
	DryRun          bool
	PreviewDir      string
	// SingleTest marks a synthetic one-recipient run, which changes the
	// preview file name.
	SingleTest bool
	Verbose    bool
}

// Driver owns the single transport session and the sequential send loop.
type Driver struct {
	dialer  smtp.Dialer
	tmpl    *template.Template
	opts    Options
	logger  *slog.Logger
	metrics *metrics.Metrics
	signer  *dkim.Signer
	blocked Suppressor
	pacer   *ratelimit.Pacer
}

// NewDriver creates a delivery driver.
func NewDriver(dialer smtp.Dialer, tmpl *template.Template, opts Options, logger *slog.Logger) *Driver {
	return &Driver{
		dialer: dialer,
		tmpl:   tmpl,
		opts:   opts,
		logger: logger,
	}
}

// SetMetrics attaches campaign metrics. Nil disables reporting.
func (d *Driver) SetMetrics(m *metrics.Metrics) {
	d.metrics = m
}

// SetSigner attaches a DKIM signer for outgoing messages.
func (d *Driver) SetSigner(s *dkim.Signer) {
	d.signer = s
}

// SetSuppressor attaches the do-not-send list.
func (d *Driver) SetSuppressor(s Suppressor) {
	d.blocked = s
}

// SetPacer replaces the default pacer built from Options.RatePerMinute.
func (d *Driver) SetPacer(p *ratelimit.Pacer) {
	d.pacer = p
}

// Run executes the campaign over the normalized recipient list. The
// rejections from normalization are folded into the summary so every
// source record is accounted for.
//
// Connection and authentication failures are fatal and returned as an
// error with no summary. Per-recipient failures are recorded and the
// loop continues.
func (d *Driver) Run(ctx context.Context, list []recipient.Recipient, rejected []recipient.Rejection) (*Summary, error) {
	sum := &Summary{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
	}

	for _, rej := range rejected {
		out := outcomeForRejection(rej)
		sum.Record(out)
		d.report(out)
	}

	if d.metrics != nil {
		d.metrics.RecipientsTotal.Set(float64(len(list)))
	}

	if len(list) == 0 {
		d.logger.Info("nothing to send", "rejected", len(rejected))
		sum.FinishedAt = time.Now()
		return sum, nil
	}

	var sess smtp.Session
	if !d.opts.DryRun {
		var err error
		sess, err = d.dialer.Dial(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to open smtp session: %w", err)
		}
		defer func() {
			if cerr := sess.Close(); cerr != nil {
				d.logger.Warn("failed to close smtp session", "error", cerr)
			}
		}()
	}

	pacer := d.pacer
	if pacer == nil {
		pacer = ratelimit.NewPacer(d.opts.RatePerMinute)
	}
	d.logger.Info("campaign started",
		"run_id", sum.RunID,
		"recipients", len(list),
		"dry_run", d.opts.DryRun,
		"interval", pacer.Interval(),
	)

	for i, rcpt := range list {
		if err := d.pause(ctx, pacer); err != nil {
			// Interrupted between recipients: the summary reflects only
			// completed attempts; the deferred Close still releases the
			// session.
			sum.FinishedAt = time.Now()
			return sum, err
		}

		out := d.sendOne(sess, rcpt)
		sum.Record(out)
		d.report(out)

		if d.metrics != nil {
			d.metrics.Processed.Set(float64(i + 1))
		}
	}

	sum.FinishedAt = time.Now()
	d.logger.Info("campaign finished",
		"run_id", sum.RunID,
		"sent", sum.Sent,
		"would_send", sum.WouldSend,
		"failed", sum.Failed,
		"skipped", sum.SkippedInvalid+sum.SkippedDuplicate+sum.SkippedSuppressed,
	)
	return sum, nil
}

// sendOne processes a single recipient: suppression check, render,
// preview, transmit. Every failure path yields exactly one outcome.
func (d *Driver) sendOne(sess smtp.Session, rcpt recipient.Recipient) Outcome {
	if d.blocked != nil {
		hit, err := d.blocked.Contains(rcpt.Address)
		if err != nil {
			return Outcome{Address: rcpt.Address, Kind: OutcomeFailed, Reason: fmt.Sprintf("suppression lookup: %v", err)}
		}
		if hit {
			return Outcome{Address: rcpt.Address, Kind: OutcomeSkippedSuppressed, Reason: "address suppressed"}
		}
	}

	data := rcpt.Record.Context()
	data["email"] = rcpt.Address

	subject, err := template.RenderSubject(d.resolveSubject(data), data)
	if err != nil {
		return Outcome{Address: rcpt.Address, Kind: OutcomeFailed, Reason: err.Error()}
	}

	html, err := d.tmpl.Render(data)
	if err != nil {
		return Outcome{Address: rcpt.Address, Kind: OutcomeFailed, Reason: err.Error()}
	}

	if d.opts.PreviewDir != "" {
		name := PreviewName(rcpt.Address)
		if d.opts.SingleTest {
			name = TestPreviewName
		}
		if err := WritePreview(d.opts.PreviewDir, name, html); err != nil {
			return Outcome{Address: rcpt.Address, Kind: OutcomeFailed, Reason: err.Error()}
		}
	}

	if d.opts.DryRun {
		return Outcome{Address: rcpt.Address, Kind: OutcomeWouldSend}
	}

	raw, err := message.Build(message.Rendered{
		FromName:  d.opts.FromName,
		FromEmail: d.opts.FromEmail,
		To:        rcpt.Address,
		Subject:   subject,
		ReplyTo:   d.opts.ReplyTo,
		HTML:      html,
	})
	if err != nil {
		return Outcome{Address: rcpt.Address, Kind: OutcomeFailed, Reason: err.Error()}
	}

	if d.signer != nil {
		signed, err := d.signer.Sign(raw)
		if err != nil {
			d.logger.Warn("DKIM signing failed, sending unsigned",
				"domain", d.signer.Domain(),
				"error", err,
			)
		} else {
			raw = signed
		}
	}

	start := time.Now()
	if err := sess.Send(d.opts.FromEmail, rcpt.Address, raw); err != nil {
		return Outcome{Address: rcpt.Address, Kind: OutcomeFailed, Reason: err.Error()}
	}
	if d.metrics != nil {
		d.metrics.SendDurationSeconds.Observe(time.Since(start).Seconds())
	}

	return Outcome{Address: rcpt.Address, Kind: OutcomeSent}
}

// pause applies inter-send pacing. Dry-run never sleeps since there is
// no transport to protect, but cancellation is still observed between
// recipients.
func (d *Driver) pause(ctx context.Context, pacer *ratelimit.Pacer) error {
	if d.opts.DryRun {
		return ctx.Err()
	}
	return pacer.Wait(ctx)
}

// resolveSubject applies the precedence: explicit override, then the
// record's own subject field, then the configured default.
func (d *Driver) resolveSubject(data map[string]any) string {
	if d.opts.SubjectOverride != "" {
		return d.opts.SubjectOverride
	}
	if s, ok := data["subject"].(string); ok && s != "" {
		return s
	}
	return d.opts.Subject
}

// report logs one outcome and updates metrics. Failures are always
// logged; the rest only under verbose.
func (d *Driver) report(out Outcome) {
	if d.metrics != nil {
		switch out.Kind {
		case OutcomeSent:
			d.metrics.SentTotal.Inc()
		case OutcomeWouldSend:
			d.metrics.WouldSendTotal.Inc()
		case OutcomeFailed:
			d.metrics.FailedTotal.Inc()
		default:
			d.metrics.SkippedTotal.WithLabelValues(string(out.Kind)).Inc()
		}
	}

	switch {
	case out.Kind == OutcomeFailed:
		d.logger.Warn("recipient failed", "address", out.Address, "reason", out.Reason)
	case d.opts.Verbose:
		d.logger.Info("recipient processed", "address", out.Address, "outcome", string(out.Kind), "reason", out.Reason)
	}
}
