package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"colectas/internal/core"
	"colectas/internal/report"
	"colectas/internal/services"
	"colectas/internal/session"
)

func TestResponseBuilderJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	NewResponse().Status(http.StatusCreated).Header("Location", "/api/x/1").JSON(map[string]int{"n": 1}).Write(rec)

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d", rec.Code)
	}
	if rec.Header().Get("Location") != "/api/x/1" {
		t.Errorf("Location = %q", rec.Header().Get("Location"))
	}
	var body map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["n"] != 1 {
		t.Errorf("body = %s (%v)", rec.Body.String(), err)
	}
}

func TestResponseBuilderUnencodable(t *testing.T) {
	rec := httptest.NewRecorder()
	NewResponse().JSON(map[string]any{"f": func() {}}).Write(rec)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestResponseBuilderAttachment(t *testing.T) {
	rec := httptest.NewRecorder()
	NewResponse().Attachment("gastos.csv").Body("text/csv", []byte("a,b\r\n")).Write(rec)
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="gastos.csv"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if rec.Body.String() != "a,b\r\n" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestWriteErrorMapping(t *testing.T) {
	s := &Server{}
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("create aporte: %w", core.ErrInvalidAmount), http.StatusUnprocessableEntity},
		{core.ValidationError{Msg: "miembro x does not exist"}, http.StatusUnprocessableEntity},
		{fmt.Errorf("get: %w", core.ErrNotFound), http.StatusNotFound},
		{report.ErrUnknownEntity, http.StatusNotFound},
		{session.ErrMissingToken, http.StatusUnauthorized},
		{session.ErrForbidden, http.StatusForbidden},
		{services.ErrSheetsDisabled, http.StatusServiceUnavailable},
		{fmt.Errorf("%w: eof", ErrBadBody), http.StatusBadRequest},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		s.writeError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tc.err)
		if rec.Code != tc.want {
			t.Errorf("%v: status = %d, want %d", tc.err, rec.Code, tc.want)
		}
	}

	rec := httptest.NewRecorder()
	s.writeError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("secret dsn leaked"))
	var body errorBody
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Error != "internal error" {
		t.Errorf("500 body = %q, must not expose the cause", body.Error)
	}
}
