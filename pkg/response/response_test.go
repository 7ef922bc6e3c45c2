package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func record(fn func(c *gin.Context)) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/", nil)
	fn(c)
	return w
}

func TestError_AppErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{NewUnauthenticated("missing"), http.StatusUnauthorized},
		{NewInvalidToken("bad"), http.StatusForbidden},
		{NewForbidden("nope"), http.StatusForbidden},
		{NewNotFound("gone"), http.StatusNotFound},
		{NewConflict("dup"), http.StatusConflict},
		{NewBadRequest("bad"), http.StatusBadRequest},
		{NewTooManyRequests("slow down"), http.StatusTooManyRequests},
		{NewServerError("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		w := record(func(c *gin.Context) { Error(c, tc.err) })
		if w.Code != tc.status {
			t.Errorf("%v: status = %d, expected %d", tc.err, w.Code, tc.status)
		}
	}
}

func TestError_PlainErrorIs500(t *testing.T) {
	w := record(func(c *gin.Context) { Error(c, errors.New("db exploded")) })
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, expected 500", w.Code)
	}
}

func TestError_WrappedAppErrorUnwraps(t *testing.T) {
	wrapped := &wrapError{inner: NewNotFound("gone")}
	w := record(func(c *gin.Context) { Error(c, wrapped) })
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, expected 404 from wrapped app error", w.Code)
	}
}

type wrapError struct{ inner error }

func (e *wrapError) Error() string { return "wrap: " + e.inner.Error() }
func (e *wrapError) Unwrap() error { return e.inner }

func TestValidationError_CarriesAllFields(t *testing.T) {
	err := NewValidationError([]string{"title is required", "game is required"})
	w := record(func(c *gin.Context) { Error(c, err) })

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, expected 400", w.Code)
	}

	var body Response
	if jsonErr := json.Unmarshal(w.Body.Bytes(), &body); jsonErr != nil {
		t.Fatalf("invalid body: %v", jsonErr)
	}
	if len(body.Fields) != 2 {
		t.Errorf("fields = %v, expected both violations", body.Fields)
	}
}

func TestSuccessAndCreated(t *testing.T) {
	w := record(func(c *gin.Context) { Success(c, gin.H{"x": 1}) })
	if w.Code != http.StatusOK {
		t.Errorf("Success status = %d, expected 200", w.Code)
	}

	w = record(func(c *gin.Context) { Created(c, gin.H{"x": 1}) })
	if w.Code != http.StatusCreated {
		t.Errorf("Created status = %d, expected 201", w.Code)
	}
}
