// Package submit sends a validated draft to the resource API. Validation
// runs first and no request is made when it fails; rejected or unreachable
// saves leave the form untouched so the user can correct and retry.
package submit

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/goliatone/go-recordforms/internal/logging"
	"github.com/goliatone/go-recordforms/pkg/client"
	"github.com/goliatone/go-recordforms/pkg/form"
	"github.com/goliatone/go-recordforms/pkg/metrics"
	"github.com/goliatone/go-recordforms/pkg/model"
)

// DefaultListPath is where a saved record navigates to; {type} is replaced
// with the record type.
const DefaultListPath = "/app/{type}"

// Writer is the subset of the resource client the pipeline needs.
type Writer interface {
	Create(ctx context.Context, doctype string, body any) (client.Record, error)
	Update(ctx context.Context, doctype, id string, query url.Values, body any) (client.Record, error)
}

// Result is a successful save.
type Result struct {
	Record   client.Record
	Redirect string
	Created  bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithHooks replaces the post-commit hooks (AcceptApplication by default).
func WithHooks(hooks ...Hook) Option {
	return func(p *Pipeline) {
		p.hooks = append([]Hook(nil), hooks...)
	}
}

// WithListPath sets the navigation target template.
func WithListPath(path string) Option {
	return func(p *Pipeline) {
		if strings.TrimSpace(path) != "" {
			p.listPath = path
		}
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(rec metrics.Recorder) Option {
	return func(p *Pipeline) {
		if rec != nil {
			p.metrics = rec
		}
	}
}

// Pipeline validates, scrubs and saves forms.
type Pipeline struct {
	writer   Writer
	hooks    []Hook
	listPath string
	logger   logrus.FieldLogger
	metrics  metrics.Recorder
}

// New builds a pipeline writing through w.
func New(w Writer, opts ...Option) *Pipeline {
	p := &Pipeline{
		writer:   w,
		hooks:    []Hook{AcceptApplication()},
		listPath: DefaultListPath,
		logger:   logging.Discard(),
		metrics:  metrics.Nop{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// ListPath returns the navigation target for recordType.
func (p *Pipeline) ListPath(recordType string) string {
	return strings.ReplaceAll(p.listPath, "{type}", url.PathEscape(recordType))
}

// Submit saves f. Validation errors come back as returned by the form;
// backend failures come back as *RejectedError or *ConnectivityError.
func (p *Pipeline) Submit(ctx context.Context, f *form.Form) (Result, error) {
	start := time.Now()
	recordType := f.RecordType()
	logger := logging.FromContext(ctx, p.logger).WithFields(logrus.Fields{
		"record_type": recordType,
		"mode":        f.Mode().String(),
	})

	if err := f.Validate(); err != nil {
		p.metrics.Submission(recordType, metrics.ResultInvalid, time.Since(start))
		return Result{}, err
	}

	payload := Scrub(recordType, f.Payload())
	sess := f.Session()

	var (
		record client.Record
		err    error
	)
	if f.Mode() == form.ModeEdit {
		var query url.Values
		if org := payload.String(form.TenantField); org != "" {
			query = url.Values{"organizationId": []string{org}}
		}
		record, err = p.writer.Update(ctx, recordType, f.RecordID(), query, payload)
	} else {
		record, err = p.writer.Create(ctx, recordType, payload)
	}
	if err != nil {
		err = classify(recordType, err)
		outcome := metrics.ResultRejected
		var connErr *ConnectivityError
		if errors.As(err, &connErr) {
			outcome = metrics.ResultUnreachable
		}
		p.metrics.Submission(recordType, outcome, time.Since(start))
		logger.WithError(err).Warn("record save failed")
		return Result{}, err
	}

	created := f.Mode() == form.ModeCreate
	if created {
		event := Event{RecordType: recordType, Record: record, Payload: payload, Session: sess}
		if hookErr := p.runHooks(ctx, event); hookErr != nil {
			logger.WithError(hookErr).Warn("post-commit hooks failed")
		}
	}

	p.metrics.Submission(recordType, metrics.ResultOK, time.Since(start))
	logger.WithField("id", record.ID()).Info("record saved")
	return Result{Record: record, Redirect: p.ListPath(recordType), Created: created}, nil
}

// runHooks runs every hook; one failing hook does not stop the others.
func (p *Pipeline) runHooks(ctx context.Context, event Event) error {
	var combined error
	for _, hook := range p.hooks {
		err := hook.Run(ctx, p.writer, event)
		p.metrics.FollowUp(hook.Name(), err == nil)
		combined = multierr.Append(combined, err)
	}
	return combined
}

// Scrub prepares the outgoing payload. Announcement-like records whose
// department is a sentinel option carry a null department id.
func Scrub(recordType string, payload model.Values) model.Values {
	out := payload.Clone()
	if !model.IsAnnouncementType(recordType) {
		return out
	}
	for _, key := range []string{"departmentId", "department", "departmentName"} {
		if model.IsSentinel(out[key]) {
			out["departmentId"] = nil
			break
		}
	}
	return out
}

func classify(recordType string, err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		message := strings.TrimSpace(apiErr.Message)
		if message == "" {
			message = GenericRejection
		}
		return &RejectedError{RecordType: recordType, Status: apiErr.Status, Message: message, Err: err}
	}
	var transportErr *client.TransportError
	if errors.As(err, &transportErr) {
		return &ConnectivityError{RecordType: recordType, Err: err}
	}
	return &RejectedError{RecordType: recordType, Message: GenericRejection, Err: err}
}
