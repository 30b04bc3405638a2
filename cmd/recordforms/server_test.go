package main

import (
	"html"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-recordforms/internal/logging"
	"github.com/goliatone/go-recordforms/pkg/client"
	"github.com/goliatone/go-recordforms/pkg/engine"
	"github.com/goliatone/go-recordforms/pkg/session"
	"github.com/goliatone/go-recordforms/pkg/testsupport"
)

var (
	csrfPattern   = regexp.MustCompile(`name="_csrf" value="([^"]+)"`)
	actionPattern = regexp.MustCompile(`<form [^>]*action="([^"]+)"`)
)

type harness struct {
	backend *testsupport.Backend
	server  *httptest.Server
	client  *http.Client
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	backend := testsupport.NewBackend(t)
	c, err := client.New(backend.URL())
	require.NoError(t, err)

	store := session.NewMemoryStore()
	eng, err := engine.New(c, engine.WithSessionStore(store))
	require.NoError(t, err)

	srv := &server{engine: eng, store: store, logger: logging.Discard()}
	ts := httptest.NewServer(srv.routes())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &harness{
		backend: backend,
		server:  ts,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (h *harness) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := h.client.Get(h.server.URL + path)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (h *harness) post(t *testing.T, path string, values url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := h.client.PostForm(h.server.URL+path, values)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (h *harness) login(t *testing.T, values url.Values) {
	t.Helper()
	resp, _ := h.post(t, "/session", values)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
}

// token opens path and returns the form token it carries.
func (h *harness) token(t *testing.T, path string) string {
	t.Helper()
	resp, body := h.get(t, path)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	match := csrfPattern.FindStringSubmatch(body)
	require.Len(t, match, 2, "form token missing:\n%s", body)
	return match[1]
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func TestServer_Healthz(t *testing.T) {
	h := newHarness(t)
	resp, _ := h.get(t, "/healthz")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestServer_ShowFormSetsSessionCookie(t *testing.T) {
	h := newHarness(t)
	resp, body := h.get(t, "/forms/task")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, body, "New Task")
	assert.Regexp(t, csrfPattern, body)

	u, err := url.Parse(h.server.URL)
	require.NoError(t, err)
	cookies := h.client.Jar.Cookies(u)
	require.Len(t, cookies, 1)
	assert.Equal(t, sessionCookie, cookies[0].Name)
}

func TestServer_SaveRejectsMissingToken(t *testing.T) {
	h := newHarness(t)
	h.login(t, url.Values{"organizationId": {"T1"}})

	resp, _ := h.post(t, "/forms/task", url.Values{"title": {"Write report"}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Empty(t, h.backend.RequestsFor(http.MethodPost, "/api/resource/task"))
}

func TestServer_SaveCreatesRecordAndRedirects(t *testing.T) {
	h := newHarness(t)
	h.login(t, url.Values{"organizationId": {"T1"}})
	token := h.token(t, "/forms/task")

	resp, body := h.post(t, "/forms/task", url.Values{
		"_csrf":       {token},
		"title":       {"Write report"},
		"priority":    {"High"},
		"isMilestone": {"on"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode, body)
	assert.Equal(t, "/app/task", resp.Header.Get("Location"))

	records := h.backend.Records("task")
	require.Len(t, records, 1)
	assert.Equal(t, "Write report", records[0]["title"])
	assert.Equal(t, "High", records[0]["priority"])
	assert.Equal(t, true, records[0]["isMilestone"])
	assert.Equal(t, "T1", records[0]["organizationId"])
}

func TestServer_SaveWithoutTenantRendersNotice(t *testing.T) {
	h := newHarness(t)
	token := h.token(t, "/forms/task")

	resp, body := h.post(t, "/forms/task", url.Values{"_csrf": {token}, "title": {"Write report"}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Sign in again")
	assert.Empty(t, h.backend.RequestsFor(http.MethodPost, "/api/resource/task"))
}

func TestServer_SaveMissingRequiredField(t *testing.T) {
	h := newHarness(t)
	h.login(t, url.Values{"organizationId": {"T1"}})
	token := h.token(t, "/forms/task")

	resp, body := h.post(t, "/forms/task", url.Values{"_csrf": {token}, "title": {"  "}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Title is required")
	assert.Empty(t, h.backend.Records("task"))
}

func TestServer_PollAddRerendersWithoutSaving(t *testing.T) {
	h := newHarness(t)
	h.login(t, url.Values{"organizationId": {"T1"}})
	token := h.token(t, "/forms/announcement")

	resp, body := h.post(t, "/forms/announcement", url.Values{
		"_csrf":       {token},
		"title":       {"Lunch"},
		"type":        {"Poll"},
		"content":     {"Pick one"},
		"pollOptions": {"Pizza", "Salad"},
		"_poll":       {"add:pollOptions"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, 3, strings.Count(body, `name="pollOptions"`))
	assert.Contains(t, body, `value="Pizza"`)
	assert.Empty(t, h.backend.Records("announcement"))
}

func TestServer_SaveKeepsPrefillQuery(t *testing.T) {
	h := newHarness(t)
	h.backend.Seed("department", map[string]any{"id": "d1", "departmentName": "Engineering", "organizationId": "T1"})
	h.backend.Seed("designation", map[string]any{"id": "g1", "title": "Engineer"})
	h.backend.Seed("job-application", map[string]any{"id": "A1", "status": "Applied", "organizationId": "T1"})
	h.login(t, url.Values{"organizationId": {"T1"}})

	resp, body := h.get(t, "/forms/employee?jobApplicationId=A1&name=Ann")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	action := actionPattern.FindStringSubmatch(body)
	require.Len(t, action, 2, "form action missing:\n%s", body)
	target := html.UnescapeString(action[1])
	assert.Contains(t, target, "jobApplicationId=A1")
	token := csrfPattern.FindStringSubmatch(body)
	require.Len(t, token, 2)

	resp, body = h.post(t, target, url.Values{
		"_csrf":        {token[1]},
		"name":         {"Ann"},
		"email":        {"ann@example.com"},
		"departmentId": {"d1"},
		"designation":  {"Engineer"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode, body)

	employees := h.backend.Records("employee")
	require.Len(t, employees, 1)
	assert.Equal(t, "A1", employees[0]["jobApplicationId"])
	assert.Equal(t, "Engineering", employees[0]["departmentName"])
	require.Len(t, h.backend.RequestsFor(http.MethodPut, "/api/resource/job-application/A1"), 1)
	assert.Equal(t, "Accepted", h.backend.Records("job-application")[0]["status"])
}

func TestServer_SaveKeepsSessionDepartmentWhenOptionsFail(t *testing.T) {
	h := newHarness(t)
	h.backend.Fail(http.MethodGet, "department", testsupport.Failure{Status: http.StatusInternalServerError})
	h.login(t, url.Values{
		"organizationId": {"T1"},
		"departmentId":   {"D1"},
		"departmentName": {"Sales"},
		"role":           {"Manager"},
	})
	token := h.token(t, "/forms/job-opening")

	resp, body := h.post(t, "/forms/job-opening", url.Values{
		"_csrf":        {token},
		"jobTitle":     {"Developer"},
		"departmentId": {"D1"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode, body)

	records := h.backend.Records("job-opening")
	require.Len(t, records, 1)
	assert.Equal(t, "D1", records[0]["departmentId"])
	assert.Equal(t, "Sales", records[0]["departmentName"])
}

func TestServer_EditAndDelete(t *testing.T) {
	h := newHarness(t)
	h.backend.Seed("task", map[string]any{"id": "t1", "title": "Stored", "organizationId": "T1"})
	h.login(t, url.Values{"organizationId": {"T1"}})

	token := h.token(t, "/forms/task/t1")
	resp, body := h.post(t, "/forms/task/t1", url.Values{"_csrf": {token}, "title": {"Renamed"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode, body)
	assert.Equal(t, "Renamed", h.backend.Records("task")[0]["title"])

	resp, body = h.post(t, "/forms/task/t1/delete", url.Values{"_csrf": {token}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode, body)
	assert.Equal(t, "/app/task", resp.Header.Get("Location"))
	assert.Empty(t, h.backend.Records("task"))
}

func TestServer_EditMissingRecord(t *testing.T) {
	h := newHarness(t)
	h.login(t, url.Values{"organizationId": {"T1"}})

	resp, _ := h.get(t, "/forms/task/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_LinkOptionsUseStoredSession(t *testing.T) {
	h := newHarness(t)
	h.backend.Seed("department",
		map[string]any{"id": "d1", "departmentName": "Engineering", "organizationId": "T1"},
		map[string]any{"id": "d2", "departmentName": "Finance", "organizationId": "T2"},
	)
	h.login(t, url.Values{"organizationId": {"T1"}})

	resp, body := h.get(t, "/api/link-options?type=task&field=departmentId")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Contains(t, body, "Engineering")
	assert.NotContains(t, body, "Finance")
}

func TestApplyPollAction_RejectsUnknownActions(t *testing.T) {
	assert.Error(t, applyPollAction(nil, "rename:pollOptions"))
}
