//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultBaseURL = "http://localhost:8080/api/v1"

// Roll numbers far from anything seeded, removed again in TestMain.
var testRollNos = []int{900001, 900002}

var baseURL string

func TestMain(m *testing.M) {
	// Load .env if present (ignore error)
	_ = godotenv.Load("../../.env")

	baseURL = os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	cleanup()
	code := m.Run()
	cleanup()
	os.Exit(code)
}

func cleanup() {
	for _, rollNo := range testRollNos {
		req, _ := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/students/%d", baseURL, rollNo), nil)
		if resp, err := http.DefaultClient.Do(req); err == nil {
			resp.Body.Close()
		}
	}
}

type apiResponse struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func call(t *testing.T, method, path, contentType string, body io.Reader) (int, apiResponse) {
	t.Helper()
	req, err := http.NewRequest(method, baseURL+path, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out apiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestStudentLifecycle(t *testing.T) {
	body := fmt.Sprintf(`{"roll_no": %d, "name": "Endtoend Student", "age": 20, "gender": "M", "marks": [80, 90, 85, 75, 70]}`, testRollNos[0])
	status, _ := call(t, http.MethodPost, "/students", "application/json", bytes.NewBufferString(body))
	require.Equal(t, http.StatusCreated, status)

	status, res := call(t, http.MethodPost, "/students", "application/json", bytes.NewBufferString(body))
	assert.Equal(t, http.StatusConflict, status)
	require.NotNil(t, res.Error)
	assert.Equal(t, "CONFLICT", res.Error.Code)

	status, res = call(t, http.MethodPatch, fmt.Sprintf("/students/%d", testRollNos[0]), "application/json",
		bytes.NewBufferString(`{"marks": [95, 95, 95, 95, 95]}`))
	require.Equal(t, http.StatusOK, status)
	var updated struct {
		Student struct {
			Grade string `json:"grade"`
		} `json:"student"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &updated))
	assert.Equal(t, "A+", updated.Student.Grade)

	status, _ = call(t, http.MethodGet, "/statistics", "", nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = call(t, http.MethodDelete, fmt.Sprintf("/students/%d", testRollNos[0]), "", nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = call(t, http.MethodGet, fmt.Sprintf("/students/%d", testRollNos[0]), "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestImportCSV(t *testing.T) {
	csv := fmt.Sprintf("roll_no,name,age,gender,Math,Science,English,History,Art\n%d,Imported Student,19,F,60,60,60,60,60\n", testRollNos[1])

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "students.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(csv))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	status, res := call(t, http.MethodPost, "/import/csv", mw.FormDataContentType(), &buf)
	require.Equal(t, http.StatusOK, status)
	var imported struct {
		Imported int `json:"imported"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &imported))
	assert.Equal(t, 1, imported.Imported)

	status, res = call(t, http.MethodGet, fmt.Sprintf("/students/%d", testRollNos[1]), "", nil)
	require.Equal(t, http.StatusOK, status)
	var got struct {
		Student struct {
			Grade string `json:"grade"`
		} `json:"student"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &got))
	assert.Equal(t, "C", got.Student.Grade)
}
