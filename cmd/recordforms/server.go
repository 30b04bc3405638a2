package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-recordforms/components/linkoptions"
	"github.com/goliatone/go-recordforms/internal/logging"
	"github.com/goliatone/go-recordforms/pkg/client"
	"github.com/goliatone/go-recordforms/pkg/engine"
	"github.com/goliatone/go-recordforms/pkg/form"
	"github.com/goliatone/go-recordforms/pkg/model"
	"github.com/goliatone/go-recordforms/pkg/render"
	"github.com/goliatone/go-recordforms/pkg/renderers/vanilla"
	"github.com/goliatone/go-recordforms/pkg/session"
)

const (
	sessionCookie = "sid"
	csrfKey       = "csrf"
	pollParam     = "_poll"
)

type sessionIDKey struct{}

// server serves the record forms over HTTP. It keeps no per-form state: a
// POST reopens the form, replays the posted values and submits.
type server struct {
	engine         *engine.Engine
	store          session.Store
	logger         logrus.FieldLogger
	metricsPath    string
	metricsHandler http.Handler
	secureCookies  bool
}

func (s *server) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.recoverer, s.requestLogger, s.withSession)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodGet)
	if s.metricsHandler != nil && s.metricsPath != "" {
		r.Handle(s.metricsPath, s.metricsHandler).Methods(http.MethodGet)
	}
	r.PathPrefix("/assets/").Handler(http.StripPrefix("/assets/", http.FileServer(http.FS(vanilla.AssetsFS()))))

	links := linkoptions.New(
		linkoptions.WithSource(s.engine),
		linkoptions.WithSession(s.requestSession),
	)
	_, _ = links.Mount(r)

	r.HandleFunc("/session", s.login).Methods(http.MethodPost)
	r.HandleFunc("/session/logout", s.logout).Methods(http.MethodPost)

	r.HandleFunc("/forms/{type}", s.showForm).Methods(http.MethodGet)
	r.HandleFunc("/forms/{type}", s.saveForm).Methods(http.MethodPost)
	r.HandleFunc("/forms/{type}/{id}", s.showForm).Methods(http.MethodGet)
	r.HandleFunc("/forms/{type}/{id}", s.saveForm).Methods(http.MethodPost)
	r.HandleFunc("/forms/{type}/{id}/delete", s.deleteRecord).Methods(http.MethodPost)
	return r
}

func (s *server) showForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := s.requestSession(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	vars := mux.Vars(r)
	f, err := s.engine.Open(ctx, engine.Request{RecordType: vars["type"], RecordID: vars["id"], Session: sess})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer f.Close()
	s.renderForm(w, r, f, http.StatusOK, render.RenderOptions{})
}

func (s *server) saveForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form body", http.StatusBadRequest)
		return
	}
	if !s.validCSRF(ctx, sessionID(ctx), r.PostForm.Get(render.HiddenCSRF)) {
		http.Error(w, "invalid or missing form token", http.StatusForbidden)
		return
	}
	sess, err := s.requestSession(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	vars := mux.Vars(r)
	f, err := s.engine.Open(ctx, engine.Request{RecordType: vars["type"], RecordID: vars["id"], Session: sess})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer f.Close()

	fieldErrs := applyPosted(f, r.PostForm)
	if action := r.PostForm.Get(pollParam); action != "" {
		if err := applyPollAction(f, action); err != nil {
			s.renderForm(w, r, f, http.StatusUnprocessableEntity, render.RenderOptions{Errors: fieldErrs}.WithSubmitError(err))
			return
		}
		s.renderForm(w, r, f, http.StatusOK, render.RenderOptions{Errors: fieldErrs})
		return
	}
	if len(fieldErrs) > 0 {
		s.renderForm(w, r, f, http.StatusUnprocessableEntity, render.RenderOptions{Errors: fieldErrs})
		return
	}

	result, err := s.engine.Submit(ctx, f)
	if err != nil {
		s.renderForm(w, r, f, http.StatusUnprocessableEntity, render.RenderOptions{Errors: fieldErrs}.WithSubmitError(err))
		return
	}
	http.Redirect(w, r, result.Redirect, http.StatusSeeOther)
}

func (s *server) deleteRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form body", http.StatusBadRequest)
		return
	}
	if !s.validCSRF(ctx, sessionID(ctx), r.PostForm.Get(render.HiddenCSRF)) {
		http.Error(w, "invalid or missing form token", http.StatusForbidden)
		return
	}
	sess, err := s.requestSession(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	vars := mux.Vars(r)
	redirect, err := s.engine.Delete(ctx, vars["type"], vars["id"], sess)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

// login stores the posted session values for the caller's session id. It
// stands in for the host application's sign-in flow.
func (s *server) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form body", http.StatusBadRequest)
		return
	}
	values := make(map[string]string)
	for _, key := range session.Keys {
		if raw, ok := r.PostForm[key]; ok {
			values[key] = strings.TrimSpace(firstValue(raw))
		}
	}
	if err := s.store.Put(ctx, sessionID(ctx), values); err != nil {
		s.fail(w, r, err)
		return
	}
	if next := r.PostForm.Get("next"); strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := s.store.Delete(ctx, sessionID(ctx)); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) renderForm(w http.ResponseWriter, r *http.Request, f *form.Form, status int, opts render.RenderOptions) {
	ctx := r.Context()
	token, err := s.csrfToken(ctx, sessionID(ctx))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	// The query carries the prefill parameters (jobApplicationId and the
	// like), which the save request re-derives its session from.
	opts.Action = r.URL.RequestURI()
	opts.Hidden = render.MergeHiddenFields(opts.Hidden, render.CSRFToken(token))

	out, contentType, err := s.engine.Render(ctx, f, "", opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(out)
}

// requestSession merges the stored session with the whitelisted query
// parameters of r.
func (s *server) requestSession(r *http.Request) (session.Context, error) {
	return s.engine.Session(r.Context(), sessionID(r.Context()), r.URL.Query())
}

func (s *server) csrfToken(ctx context.Context, sid string) (string, error) {
	values, err := s.store.Values(ctx, sid)
	if err != nil {
		return "", err
	}
	if token := values[csrfKey]; token != "" {
		return token, nil
	}
	token := uuid.NewString()
	if err := s.store.Put(ctx, sid, map[string]string{csrfKey: token}); err != nil {
		return "", err
	}
	return token, nil
}

func (s *server) validCSRF(ctx context.Context, sid, token string) bool {
	if sid == "" || token == "" {
		return false
	}
	values, err := s.store.Values(ctx, sid)
	if err != nil {
		return false
	}
	return values[csrfKey] == token
}

func (s *server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadGateway
	var (
		apiErr       *client.APIError
		transportErr *client.TransportError
	)
	switch {
	case errors.Is(err, form.ErrMissingTenant):
		status = http.StatusUnauthorized
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound:
		status = http.StatusNotFound
	case errors.As(err, &apiErr), errors.As(err, &transportErr):
		status = http.StatusBadGateway
	case errors.Is(err, context.Canceled):
		status = http.StatusServiceUnavailable
	}
	logging.FromContext(r.Context(), s.logger).WithError(err).WithField("status", status).Warn("request failed")
	http.Error(w, http.StatusText(status), status)
}

// applyPosted replays the posted values onto f in descriptor order so a
// value revealing another field is in place before that field is read.
// Hidden fields and display fields written through a linked select are
// ignored.
func applyPosted(f *form.Form, values map[string][]string) map[string][]string {
	errs := make(map[string][]string)
	descriptors := f.Descriptors()
	linked := make(map[string]struct{})
	for _, desc := range descriptors {
		if desc.LinkedName != "" {
			linked[desc.LinkedName] = struct{}{}
		}
	}

	for _, desc := range descriptors {
		if _, ok := linked[desc.Name]; ok || !f.Visible(desc.Name) {
			continue
		}
		raw, posted := values[desc.Name]
		var err error
		switch desc.Kind {
		case model.KindPollOptions:
			if posted {
				err = setPollEntries(f, desc.Name, raw)
			}
		case model.KindCheckbox:
			err = f.Set(desc.Name, posted && firstValue(raw) != "")
		default:
			if posted {
				err = f.Set(desc.Name, strings.TrimSpace(firstValue(raw)))
			}
		}
		if err != nil {
			errs[desc.Name] = append(errs[desc.Name], fieldMessage(err))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func setPollEntries(f *form.Form, field string, entries []string) error {
	current, err := f.PollOptions(field)
	if err != nil {
		return err
	}
	for n := len(current); n < len(entries); n++ {
		if err := f.AddPollOption(field); err != nil {
			return err
		}
	}
	for i, entry := range entries {
		if err := f.SetPollOption(field, i, entry); err != nil {
			return err
		}
	}
	return nil
}

// applyPollAction handles the poll editor buttons: "add:<field>" and
// "remove:<field>:<index>".
func applyPollAction(f *form.Form, action string) error {
	parts := strings.Split(action, ":")
	switch {
	case len(parts) == 2 && parts[0] == "add":
		return f.AddPollOption(parts[1])
	case len(parts) == 3 && parts[0] == "remove":
		index, err := strconv.Atoi(parts[2])
		if err != nil {
			return form.ErrPollIndex
		}
		return f.RemovePollOption(parts[1], index)
	}
	return errors.New("unknown poll action")
}

func fieldMessage(err error) string {
	switch {
	case errors.Is(err, form.ErrUnknownOption):
		return "Select a valid option"
	case errors.Is(err, form.ErrPollIndex):
		return "Unknown poll entry"
	}
	return err.Error()
}

func firstValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func sessionID(ctx context.Context) string {
	sid, _ := ctx.Value(sessionIDKey{}).(string)
	return sid
}

// withSession makes sure every request carries a session cookie.
func (s *server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := ""
		if cookie, err := r.Cookie(sessionCookie); err == nil {
			if _, err := uuid.Parse(cookie.Value); err == nil {
				sid = cookie.Value
			}
		}
		if sid == "" {
			sid = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    sid,
				Path:     "/",
				HttpOnly: true,
				Secure:   s.secureCookies,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionIDKey{}, sid)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		entry := s.logger.WithFields(logrus.Fields{
			"request_id": uuid.NewString(),
			"method":     r.Method,
			"path":       r.URL.Path,
		})
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(logging.WithContext(r.Context(), entry)))
		entry.WithFields(logrus.Fields{
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Debug("request served")
	})
}

func (s *server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				s.logger.WithField("panic", v).WithField("path", r.URL.Path).Error("handler panicked")
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
