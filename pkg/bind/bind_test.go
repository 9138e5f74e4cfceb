package bind

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type input struct {
	Name string `json:"name" validate:"required"`
}

func TestJSON(t *testing.T) {
	var in input
	errs, err := JSON(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Widget"}`)), &in)
	require.NoError(t, err)
	assert.Empty(t, errs)
	assert.Equal(t, "Widget", in.Name)

	errs, err = JSON(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)), &input{})
	require.NoError(t, err)
	assert.Contains(t, errs, "name")

	_, err = JSON(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`)), &input{})
	assert.Error(t, err)
	_, err = JSON(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``)), &input{})
	assert.EqualError(t, err, "request body is empty")

	_, err = JSON(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a"} {"name":"b"}`)), &input{})
	assert.ErrorContains(t, err, "unexpected data")
	_, err = JSON(httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{\"name\":\"a\"}\n")), &input{})
	assert.NoError(t, err)
}

func TestFile(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "stock.csv")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("Name\n"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	f, h, err := File(httptest.NewRecorder(), req, "file")
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, "stock.csv", h.Filename)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	_, _, err = File(httptest.NewRecorder(), req, "file")
	assert.ErrorIs(t, err, ErrNoFile)
}
