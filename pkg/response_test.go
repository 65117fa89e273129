package pkg

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type TestHttpResponseWriter struct {
	HeaderMap  http.Header
	Body       []byte
	StatusCode int
}

func (w *TestHttpResponseWriter) Header() http.Header {
	return w.HeaderMap
}

func (w *TestHttpResponseWriter) Write(bytes []byte) (int, error) {
	w.Body = bytes
	return len(bytes), nil
}

func (w *TestHttpResponseWriter) WriteHeader(statusCode int) {
	w.StatusCode = statusCode
}

func TestWriteResponseBytes(t *testing.T) {
	w := &TestHttpResponseWriter{
		HeaderMap: make(http.Header),
	}

	testJson := `{"key":"val"}`
	WriteResponseBytes(w, ContentType.JSON, []byte(testJson), http.StatusCreated)

	assert.Equal(t, http.StatusCreated, w.StatusCode)
	assert.Equal(t, ContentType.JSON, w.HeaderMap.Get("Content-Type"))
	assert.Equal(t, testJson, string(w.Body))
}

func TestWriteTextResponseOK(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteTextResponseOK(rec, "all good")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ContentType.Text, rec.Header().Get("Content-Type"))
	assert.Equal(t, "all good", rec.Body.String())
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, map[string]int{"count": 3}, http.StatusAccepted)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"count":3}`, rec.Body.String())

	rec = httptest.NewRecorder()
	WriteJSON(rec, make(chan int), http.StatusOK)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
