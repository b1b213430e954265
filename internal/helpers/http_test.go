package helpers_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/isometry/media-mapper/internal/helpers"
	"github.com/stretchr/testify/assert"
)

func TestRespondJSON(t *testing.T) {
	testCases := []struct {
		Name           string
		StatusCode     int
		Body           any
		ExpectedStatus int
		ExpectedBody   string
	}{
		{
			Name:           "message",
			StatusCode:     http.StatusOK,
			Body:           helpers.Message{Message: "saved"},
			ExpectedStatus: http.StatusOK,
			ExpectedBody:   `{"message":"saved"}`,
		},
		{
			Name:           "list",
			StatusCode:     http.StatusOK,
			Body:           []string{"a", "b"},
			ExpectedStatus: http.StatusOK,
			ExpectedBody:   `["a","b"]`,
		},
		{
			Name:           "zero_status_defaults_to_ok",
			Body:           map[string]int{"x": 1},
			ExpectedStatus: http.StatusOK,
			ExpectedBody:   `{"x":1}`,
		},
		{
			Name:           "unencodable_body",
			StatusCode:     http.StatusOK,
			Body:           make(chan int),
			ExpectedStatus: http.StatusInternalServerError,
			ExpectedBody:   `{"message":"json: unsupported type: chan int"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			rw := httptest.NewRecorder()

			helpers.RespondJSON(rw, tc.StatusCode, tc.Body)

			assert.Equal(t, tc.ExpectedStatus, rw.Code)
			assert.Equal(t, "application/json", rw.Header().Get("Content-Type"))
			assert.JSONEq(t, tc.ExpectedBody, rw.Body.String())
		})
	}
}

func TestRespondError(t *testing.T) {
	rw := httptest.NewRecorder()
	helpers.RespondError(rw, http.StatusInternalServerError, errors.New("table not found"))
	assert.Equal(t, http.StatusInternalServerError, rw.Code)
	assert.JSONEq(t, `{"message":"table not found"}`, rw.Body.String())

	rw = httptest.NewRecorder()
	helpers.RespondError(rw, http.StatusNotFound, nil)
	assert.Equal(t, http.StatusNotFound, rw.Code)
	assert.JSONEq(t, `{"message":""}`, rw.Body.String())
}
