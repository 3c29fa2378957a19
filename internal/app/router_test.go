package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterDocs_ServesSwaggerJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	registerDocs(router)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var doc struct {
		BasePath string                                `json:"basePath"`
		Paths    map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "/", doc.BasePath)
	assert.Contains(t, doc.Paths["/api/user/purchase"], "post")
	assert.Contains(t, doc.Paths["/api/educator/course/{id}"], "delete")
	assert.Contains(t, doc.Paths["/clerk"], "post")
}
