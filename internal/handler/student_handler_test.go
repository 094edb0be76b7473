package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/student-records-api/internal/models"
	"github.com/noah-isme/student-records-api/internal/service"
)

type memStudentRepo struct {
	students map[int64]models.Student
	nextID   int64
	err      error
}

func (m *memStudentRepo) List(ctx context.Context) ([]models.Student, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.Student, 0, len(m.students))
	for id := int64(1); id <= m.nextID; id++ {
		if s, ok := m.students[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStudentRepo) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	if m.err != nil {
		return nil, m.err
	}
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if m.err != nil {
		return m.err
	}
	if m.students == nil {
		m.students = make(map[int64]models.Student)
	}
	m.nextID++
	student.ID = m.nextID
	m.students[student.ID] = *student
	return nil
}

func (m *memStudentRepo) Update(ctx context.Context, student *models.Student) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	if _, ok := m.students[student.ID]; !ok {
		return 0, nil
	}
	m.students[student.ID] = *student
	return 1, nil
}

func (m *memStudentRepo) Delete(ctx context.Context, id int64) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	if _, ok := m.students[id]; !ok {
		return 0, nil
	}
	delete(m.students, id)
	return 1, nil
}

func newTestRouter(repo *memStudentRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.NewStudentService(repo, validator.New(), zap.NewNop())
	h := NewStudentHandler(svc)

	r := gin.New()
	r.GET("/students", h.List)
	r.POST("/students", h.Create)
	r.GET("/student/:id", h.Get)
	r.PUT("/student/:id", h.Update)
	r.DELETE("/student/:id", h.Delete)
	return r
}

func doForm(r *gin.Engine, method, path string, fields url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if fields == nil {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(fields.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestStudentLifecycle(t *testing.T) {
	r := newTestRouter(&memStudentRepo{})

	w := doForm(r, http.MethodPost, "/students", url.Values{
		"firstname": {"Ana"},
		"lastname":  {"Lopez"},
		"age":       {"23"},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Message string `json:"message"`
		ID      int64  `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.Message)
	require.Equal(t, int64(1), created.ID)

	w = doForm(r, http.MethodGet, "/student/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var fetched map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, float64(1), fetched["id"])
	assert.Equal(t, "Ana", fetched["firstname"])
	assert.Equal(t, "Lopez", fetched["lastname"])
	assert.Nil(t, fetched["gender"])
	assert.Equal(t, float64(23), fetched["age"])

	w = doForm(r, http.MethodDelete, "/student/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "message")

	w = doForm(r, http.MethodGet, "/student/1", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestStudentList(t *testing.T) {
	repo := &memStudentRepo{}
	r := newTestRouter(repo)

	w := doForm(r, http.MethodGet, "/students", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())

	doForm(r, http.MethodPost, "/students", url.Values{"firstname": {"Ana"}, "lastname": {"Lopez"}})
	doForm(r, http.MethodPost, "/students", url.Values{"firstname": {"Ben"}, "lastname": {"Okafor"}})

	w = doForm(r, http.MethodGet, "/students", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var students []models.Student
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &students))
	require.Len(t, students, 2)
	assert.Equal(t, "Ana", students[0].FirstName)
	assert.Equal(t, "Ben", students[1].FirstName)
}

func TestStudentCreateMissingRequiredField(t *testing.T) {
	repo := &memStudentRepo{}
	r := newTestRouter(repo)

	for _, fields := range []url.Values{
		{"lastname": {"Lopez"}},
		{"firstname": {"Ana"}},
		{"firstname": {""}, "lastname": {"Lopez"}},
	} {
		w := doForm(r, http.MethodPost, "/students", fields)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "error")
	}
	assert.Empty(t, repo.students)
}

func TestStudentCreateNonNumericAge(t *testing.T) {
	r := newTestRouter(&memStudentRepo{})

	w := doForm(r, http.MethodPost, "/students", url.Values{
		"firstname": {"Ana"}, "lastname": {"Lopez"}, "age": {"abc"},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "age must be an integer")
}

func TestStudentCreateMultipart(t *testing.T) {
	r := newTestRouter(&memStudentRepo{})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("firstname", "Ana"))
	require.NoError(t, mw.WriteField("lastname", "Lopez"))
	require.NoError(t, mw.WriteField("gender", "female"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/students", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"id":1`)
}

func TestStudentReplace(t *testing.T) {
	repo := &memStudentRepo{}
	r := newTestRouter(repo)

	doForm(r, http.MethodPost, "/students", url.Values{
		"firstname": {"Ana"}, "lastname": {"Lopez"}, "gender": {"female"}, "age": {"23"},
	})

	w := doForm(r, http.MethodPut, "/student/1", url.Values{
		"firstname": {"Anna"}, "lastname": {"Lopez"}, "gender": {"female"}, "age": {"24"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var updated models.Student
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, int64(1), updated.ID)
	assert.Equal(t, "Anna", updated.FirstName)
	require.NotNil(t, updated.Age)
	assert.Equal(t, int64(24), *updated.Age)

	stored := repo.students[1]
	assert.Equal(t, "Anna", stored.FirstName)
}

func TestStudentItemEndpointsMissingID(t *testing.T) {
	r := newTestRouter(&memStudentRepo{})

	w := doForm(r, http.MethodGet, "/student/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doForm(r, http.MethodPut, "/student/99", url.Values{"firstname": {"Ana"}, "lastname": {"Lopez"}})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doForm(r, http.MethodDelete, "/student/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Path ids that cannot be integers never match a row.
	w = doForm(r, http.MethodGet, "/student/abc", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStudentListStoreFailure(t *testing.T) {
	r := newTestRouter(&memStudentRepo{err: sql.ErrConnDone})

	w := doForm(r, http.MethodGet, "/students", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}
