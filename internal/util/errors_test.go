package util

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"missing fields", MissingFields("courseId"), http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("bind: %w", NewValidationError("bad")), http.StatusBadRequest},
		{"not eligible", ErrNotEligible, http.StatusBadRequest},
		{"not found", NotFoundErr("Course"), http.StatusNotFound},
		{"forbidden", ForbiddenErr("Job"), http.StatusForbidden},
		{"unauthorized", fmt.Errorf("%w: expired", ErrUnauthorized), http.StatusUnauthorized},
		{"conflict", ConflictErr("already enrolled"), http.StatusConflict},
		{"provider", WrapProvider("payment", errors.New("timeout")), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "Course not found", NotFoundErr("Course").Error())
	assert.Equal(t, "Job not found or unauthorized", ForbiddenErr("Job").Error())
	assert.Equal(t, "missing required fields: a, b", MissingFields("a", "b").Error())
	assert.Equal(t, "missing required fields: a; rating is invalid",
		(&ValidationError{Missing: []string{"a"}, Reason: "rating is invalid"}).Error())
	assert.Equal(t, "invalid input", (&ValidationError{}).Error())
	assert.Equal(t, "payment: timeout", WrapProvider("payment", errors.New("timeout")).Error())
	assert.Nil(t, WrapProvider("payment", nil))
}

func TestHandleError_Envelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	HandleError(c, ForbiddenErr("Course"))

	assert.Equal(t, http.StatusForbidden, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, map[string]interface{}{"success": false, "message": "Course not found or unauthorized"}, body)
}

func TestSuccessEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	SuccessMessage(c, "Progress Updated", gin.H{"saved": true})

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, map[string]interface{}{"success": true, "message": "Progress Updated", "saved": true}, body)
}

func TestParseObjectID(t *testing.T) {
	_, err := ParseObjectID("courseId", " ")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"courseId"}, verr.Missing)

	_, err = ParseObjectID("courseId", "xyz")
	assert.EqualError(t, err, "invalid courseId")

	id, err := ParseObjectID("courseId", "65f1c0ffee0000000000abcd")
	require.NoError(t, err)
	assert.Equal(t, "65f1c0ffee0000000000abcd", id.Hex())
}
