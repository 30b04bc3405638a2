// Package options resolves the dynamic option sets of link fields. Each link
// field is fetched independently; a failed fetch is logged and leaves that
// field with an empty set without affecting the others.
package options

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-recordforms/internal/logging"
	"github.com/goliatone/go-recordforms/pkg/client"
	"github.com/goliatone/go-recordforms/pkg/metrics"
	"github.com/goliatone/go-recordforms/pkg/model"
	"github.com/goliatone/go-recordforms/pkg/session"
)

// Source is the subset of the resource client the resolver needs.
type Source interface {
	List(ctx context.Context, doctype string, query url.Values) ([]client.Record, error)
	Get(ctx context.Context, doctype, id string, query url.Values) (client.Record, error)
}

// DefaultGlobalRoles see every department's records.
var DefaultGlobalRoles = []string{"SuperAdmin", "Admin", "Operations", "HR"}

// DefaultUnscopedTargets are link targets never filtered by department.
var DefaultUnscopedTargets = []string{model.DoctypeDepartment, model.DoctypeDesignation, model.DoctypeStudyCenter}

// DesignationsKey is the department attribute holding its designation
// whitelist.
const DesignationsKey = "designations"

// Result is the outcome of one resolution pass.
type Result struct {
	// Sets holds one entry per link field, synthetic options first.
	Sets map[string]model.OptionSet
	// DesignationWhitelist restricts the designation field when non-empty.
	DesignationWhitelist []string
	// Failed lists the fields whose fetch failed.
	Failed []string
}

// Set returns the option set of field (empty when unresolved).
func (r Result) Set(field string) model.OptionSet {
	if set, ok := r.Sets[field]; ok {
		return set
	}
	return model.OptionSet{Field: field}
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithGlobalRoles replaces the roles that bypass department scoping.
func WithGlobalRoles(roles ...string) Option {
	return func(r *Resolver) {
		r.globalRoles = toSet(roles)
	}
}

// WithUnscopedTargets replaces the link targets never scoped by department.
func WithUnscopedTargets(targets ...string) Option {
	return func(r *Resolver) {
		r.unscoped = toSet(targets)
	}
}

// WithConcurrency bounds the number of in-flight fetches.
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithLogger sets the logger used for fetch failures.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(rec metrics.Recorder) Option {
	return func(r *Resolver) {
		if rec != nil {
			r.metrics = rec
		}
	}
}

// Resolver fetches link options. It is safe for concurrent use.
type Resolver struct {
	source      Source
	globalRoles map[string]struct{}
	unscoped    map[string]struct{}
	concurrency int
	logger      logrus.FieldLogger
	metrics     metrics.Recorder
}

// New builds a resolver over source.
func New(source Source, opts ...Option) *Resolver {
	r := &Resolver{
		source:      source,
		globalRoles: toSet(DefaultGlobalRoles),
		unscoped:    toSet(DefaultUnscopedTargets),
		concurrency: 8,
		logger:      logging.Discard(),
		metrics:     metrics.Nop{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Resolve fetches every link field of fields concurrently. It never fails:
// fetch errors leave the affected field with only its synthetic options.
func (r *Resolver) Resolve(ctx context.Context, recordType string, fields []model.FieldDescriptor, sess session.Context) Result {
	result := Result{Sets: make(map[string]model.OptionSet)}
	logger := logging.FromContext(ctx, r.logger).WithField("record_type", recordType)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(r.concurrency)

	for _, field := range fields {
		if !field.IsLink() {
			continue
		}
		field := field
		g.Go(func() error {
			set := model.OptionSet{Field: field.Name, Link: field.Link}
			set.Options = append(set.Options, Synthetic(recordType, field.Name)...)

			records, err := r.source.List(ctx, field.Link, r.Query(sess, field.Link))
			r.metrics.OptionFetch(field.Link, err == nil)
			if err != nil {
				logger.WithFields(logrus.Fields{
					"field": field.Name,
					"link":  field.Link,
				}).WithError(err).Warn("link option fetch failed")
			} else {
				set.Options = append(set.Options, ToOptions(field.Link, records)...)
			}

			mu.Lock()
			defer mu.Unlock()
			result.Sets[field.Name] = set
			if err != nil {
				result.Failed = append(result.Failed, field.Name)
			}
			return nil
		})
	}

	if strings.EqualFold(recordType, model.DoctypeEmployee) && sess.HasDepartment() {
		g.Go(func() error {
			whitelist := r.designationWhitelist(ctx, sess, logger)
			mu.Lock()
			defer mu.Unlock()
			result.DesignationWhitelist = whitelist
			return nil
		})
	}

	_ = g.Wait()
	return result
}

// Query builds the collection filter for a link to target.
func (r *Resolver) Query(sess session.Context, target string) url.Values {
	query := url.Values{}
	if sess.HasTenant() {
		query.Set("organizationId", sess.OrganizationID)
	}
	if !r.scoped(sess, target) {
		return query
	}
	query.Set("departmentId", sess.DepartmentID)
	if name := strings.TrimSpace(sess.DepartmentName); name != "" {
		query.Set("department", name)
	}
	return query
}

// IsGlobalRole reports whether role bypasses department scoping.
func (r *Resolver) IsGlobalRole(role string) bool {
	_, ok := r.globalRoles[strings.ToLower(strings.TrimSpace(role))]
	return ok
}

func (r *Resolver) scoped(sess session.Context, target string) bool {
	if !sess.HasDepartment() || r.IsGlobalRole(sess.Role) {
		return false
	}
	_, unscoped := r.unscoped[strings.ToLower(strings.TrimSpace(target))]
	return !unscoped
}

func (r *Resolver) designationWhitelist(ctx context.Context, sess session.Context, logger logrus.FieldLogger) []string {
	query := url.Values{}
	if sess.HasTenant() {
		query.Set("organizationId", sess.OrganizationID)
	}
	record, err := r.source.Get(ctx, model.DoctypeDepartment, sess.DepartmentID, query)
	r.metrics.OptionFetch(model.DoctypeDepartment, err == nil)
	if err != nil {
		logger.WithField("department_id", sess.DepartmentID).WithError(err).Warn("designation whitelist fetch failed")
		return nil
	}
	return ParseDesignations(record[DesignationsKey])
}

func toSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, value := range values {
		if trimmed := strings.ToLower(strings.TrimSpace(value)); trimmed != "" {
			out[trimmed] = struct{}{}
		}
	}
	return out
}
