package health

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiveEndpoint(t *testing.T) {
	t.Parallel()

	s := New()
	rec := httptest.NewRecorder()
	s.LiveEndpoint(rec, httptest.NewRequest("GET", "/livez", nil))

	assert.Equal(t, 200, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReadyEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("not ready until marked", func(t *testing.T) {
		t.Parallel()

		s := New()
		rec := httptest.NewRecorder()
		s.ReadyEndpoint(rec, httptest.NewRequest("GET", "/readyz", nil))
		assert.Equal(t, 503, rec.Code)
	})

	t.Run("passing checks", func(t *testing.T) {
		t.Parallel()

		s := New()
		s.AddReadinessCheck("db", time.Second, func(context.Context) error { return nil })
		s.SetReady(true)

		rec := httptest.NewRecorder()
		s.ReadyEndpoint(rec, httptest.NewRequest("GET", "/readyz", nil))

		require.Equal(t, 200, rec.Code)
		assert.JSONEq(t, `{"status":"ok","checks":{"db":"ok"}}`, rec.Body.String())
	})

	t.Run("failing check", func(t *testing.T) {
		t.Parallel()

		s := New()
		s.AddReadinessCheck("db", time.Second, func(context.Context) error { return nil })
		s.AddReadinessCheck("pra", time.Second, func(context.Context) error {
			return errors.New("token missing")
		})
		s.SetReady(true)

		rec := httptest.NewRecorder()
		s.ReadyEndpoint(rec, httptest.NewRequest("GET", "/readyz", nil))

		require.Equal(t, 503, rec.Code)
		assert.JSONEq(t, `{"status":"unhealthy","checks":{"db":"ok","pra":"token missing"}}`, rec.Body.String())
	})

	t.Run("shutdown flips readiness off", func(t *testing.T) {
		t.Parallel()

		s := New()
		s.SetReady(true)
		s.SetReady(false)

		rec := httptest.NewRecorder()
		s.ReadyEndpoint(rec, httptest.NewRequest("GET", "/readyz", nil))
		assert.Equal(t, 503, rec.Code)
	})
}
