package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-recordforms/pkg/testsupport"
)

func newTestClient(t *testing.T, backend *testsupport.Backend, opts ...Option) *Client {
	t.Helper()
	c, err := New(backend.URL(), opts...)
	require.NoError(t, err)
	return c
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	_, err := New("/api")
	require.Error(t, err)
	_, err = New("")
	require.Error(t, err)
}

func TestNew_DefaultLoggerDiscards(t *testing.T) {
	backend := testsupport.NewBackend(t)
	c := newTestClient(t, backend)

	logger, ok := c.logger.(*logrus.Logger)
	require.True(t, ok)
	require.Equal(t, io.Discard, logger.Out)
	require.Equal(t, logrus.PanicLevel, logger.GetLevel())
}

func TestList_DecodesEnvelopeAndSendsQuery(t *testing.T) {
	backend := testsupport.NewBackend(t)
	backend.Seed("department",
		map[string]any{"id": "d1", "departmentName": "Sales", "organizationId": "T1"},
		map[string]any{"id": "d2", "departmentName": "Ops", "organizationId": "T2"},
	)
	c := newTestClient(t, backend, WithToken("secret"), WithRequestIDFunc(func() string { return "req-1" }))

	records, err := c.List(context.Background(), "department", url.Values{"organizationId": {"T1"}})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "d1", records[0].ID())
	require.Equal(t, "Sales", records[0].String("departmentName"))

	reqs := backend.RequestsFor(http.MethodGet, "/api/resource/department")
	require.Len(t, reqs, 1)
	require.Equal(t, "T1", reqs[0].Query.Get("organizationId"))
	require.Equal(t, "Bearer secret", reqs[0].Header.Get("Authorization"))
	require.Equal(t, "req-1", reqs[0].Header.Get(HeaderRequestID))
}

func TestCreateUpdateGetDelete(t *testing.T) {
	backend := testsupport.NewBackend(t)
	c := newTestClient(t, backend)
	ctx := context.Background()

	created, err := c.Create(ctx, "task", map[string]any{"title": "Ship", "organizationId": "T1"})
	require.NoError(t, err)
	id := created.ID()
	require.NotEmpty(t, id)

	updated, err := c.Update(ctx, "task", id, url.Values{"organizationId": {"T1"}}, map[string]any{"status": "Done"})
	require.NoError(t, err)
	require.Equal(t, "Done", updated.String("status"))

	fetched, err := c.Get(ctx, "task", id, url.Values{"organizationId": {"T1"}})
	require.NoError(t, err)
	require.Equal(t, "Ship", fetched.String("title"))

	require.NoError(t, c.Delete(ctx, "task", id, nil))
	require.Empty(t, backend.Records("task"))
}

func TestRejection_SurfacesServerMessage(t *testing.T) {
	backend := testsupport.NewBackend(t)
	backend.Fail(http.MethodPost, "employee", testsupport.Failure{Status: http.StatusConflict, Message: "Email already exists"})
	c := newTestClient(t, backend)

	_, err := c.Create(context.Background(), "employee", map[string]any{"name": "A"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusConflict, apiErr.StatusCode())
	require.Equal(t, "Email already exists", apiErr.Message)
}

func TestRejection_WithoutMessage(t *testing.T) {
	backend := testsupport.NewBackend(t)
	backend.Fail(http.MethodPost, "employee", testsupport.Failure{Status: http.StatusBadRequest})
	c := newTestClient(t, backend)

	_, err := c.Create(context.Background(), "employee", map[string]any{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Empty(t, apiErr.Message)
	require.Contains(t, apiErr.Error(), "Bad Request")
}

func TestTransportFailure(t *testing.T) {
	backend := testsupport.NewBackend(t)
	backend.Fail(http.MethodGet, "department", testsupport.Failure{Hang: true})
	c := newTestClient(t, backend)

	_, err := c.List(context.Background(), "department", nil)
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.List(ctx, "employee", nil)
	require.True(t, errors.Is(err, context.Canceled))
}
