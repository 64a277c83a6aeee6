package handler_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"recruit-agent-go/internal/api/handler"
	"recruit-agent-go/internal/api/middleware"
	"recruit-agent-go/internal/api/router"
	"recruit-agent-go/internal/report"
	"recruit-agent-go/internal/storage"
	"recruit-agent-go/internal/storage/models"
	"recruit-agent-go/internal/types"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	apiKey      = "test-key"
	otherAPIKey = "other-key"
)

type memStore struct {
	mu        sync.Mutex
	companies map[string]*models.Company
	jobs      map[string]*models.Job
	apps      map[string]*models.Application
	reports   map[string]*models.Report
	outbox    []*models.OutboxMessage
}

func newMemStore() *memStore {
	return &memStore{
		companies: map[string]*models.Company{
			apiKey:      {ID: "co-1", Name: "Acme", Email: "hr@acme.example"},
			otherAPIKey: {ID: "co-2", Name: "Other"},
		},
		jobs:    map[string]*models.Job{},
		apps:    map[string]*models.Application{},
		reports: map[string]*models.Report{},
	}
}

func (s *memStore) GetCompanyByAPIKey(ctx context.Context, key string) (*models.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.companies[key]; ok {
		return c, nil
	}
	return nil, storage.ErrNotFound
}

func (s *memStore) CreateCompany(ctx context.Context, company *models.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.companies {
		if c.Email == company.Email {
			return storage.ErrDuplicate
		}
	}
	cp := *company
	s.companies[company.APIKey] = &cp
	return nil
}

func (s *memStore) GetCompany(ctx context.Context, id string) (*models.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.companies {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *memStore) GetJob(ctx context.Context, id string) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[id]; ok {
		cp := *j
		return &cp, nil
	}
	return nil, storage.ErrNotFound
}

func (s *memStore) ListJobsByCompany(ctx context.Context, companyID string) ([]models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Job{}
	for _, j := range s.jobs {
		if j.CompanyID == companyID {
			out = append(out, *j)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (s *memStore) CreateJob(ctx context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *job
	s.jobs[job.ID] = &cp
	return nil
}

func (s *memStore) UpdateJob(ctx context.Context, job *models.Job) error {
	return s.CreateJob(ctx, job)
}

func (s *memStore) DeleteJob(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.jobs, id)
	for k, a := range s.apps {
		if a.JobID == id {
			delete(s.apps, k)
		}
	}
	return nil
}

func (s *memStore) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.apps[id]; ok {
		return a, nil
	}
	return nil, storage.ErrNotFound
}

func (s *memStore) ListApplicationsByJob(ctx context.Context, jobID, status string) ([]models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Application{}
	for _, a := range s.apps {
		if a.JobID == jobID && (status == "" || a.Status == status) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *memStore) CreateApplicationWithOutbox(ctx context.Context, app *models.Application, msg *models.OutboxMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apps[app.ID] = app
	s.outbox = append(s.outbox, msg)
	return nil
}

func (s *memStore) ListReportsByJob(ctx context.Context, jobID string) ([]models.Report, error) {
	out := []models.Report{}
	for _, r := range s.reports {
		if r.JobID == jobID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *memStore) GetReport(ctx context.Context, id string) (*models.Report, error) {
	if r, ok := s.reports[id]; ok {
		return r, nil
	}
	return nil, storage.ErrNotFound
}

func (s *memStore) CreateReport(ctx context.Context, r *models.Report) error {
	s.reports[r.ID] = r
	return nil
}

type fixture struct {
	h     *server.Hertz
	store *memStore
	files *storage.LocalFiles
}

func setup(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	files, err := storage.NewLocalFiles(t.TempDir())
	require.NoError(t, err)

	store.jobs["job-1"] = &models.Job{
		ID:              "job-1",
		CompanyID:       "co-1",
		JobTitle:        "Backend Engineer",
		Requirements:    "Python and Docker",
		ApplicationMode: models.ApplicationModeLink,
		Status:          models.JobStatusActive,
		Deadline:        time.Now().Add(24 * time.Hour),
	}

	reports := report.NewService(store, nil, nil, "basic")
	hd := handler.NewHandler(store, files, reports, nil, handler.Options{
		Exchange:       "application.events",
		RoutingKey:     "application.submitted",
		MaxUploadBytes: 1024,
	})
	auth := middleware.CompanyAuth(middleware.NewCompanyResolver(store, nil), "X-API-Key")

	h := server.New(server.WithHostPorts("127.0.0.1:0"))
	router.RegisterRoutes(h, hd, auth)
	return &fixture{h: h, store: store, files: files}
}

func jsonBody(t *testing.T, v interface{}) *ut.Body {
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return &ut.Body{Body: bytes.NewReader(data), Len: len(data)}
}

func keyHeader(key string) ut.Header {
	return ut.Header{Key: "X-API-Key", Value: key}
}

func jsonHeader() ut.Header {
	return ut.Header{Key: "Content-Type", Value: "application/json"}
}

func multipartApply(t *testing.T, email, filename, contentType string, content []byte) (*ut.Body, ut.Header) {
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	if email != "" {
		require.NoError(t, w.WriteField("applicant_email", email))
	}
	if filename != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="resume"; filename="`+filename+`"`)
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &ut.Body{Body: body, Len: body.Len()}, ut.Header{Key: "Content-Type", Value: w.FormDataContentType()}
}

func TestHealth(t *testing.T) {
	f := setup(t)
	resp := ut.PerformRequest(f.h.Engine, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"status":"ok"}`, resp.Body.String())
}

func TestApply_Success(t *testing.T) {
	f := setup(t)
	body, ct := multipartApply(t, "Jane <Jane@Example.com>", "cv.txt", "text/plain", []byte("Python developer"))

	resp := ut.PerformRequest(f.h.Engine, http.MethodPost, "/api/v1/jobs/job-1/apply", body, ct)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var out handler.SubmissionResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Equal(t, "pending", out.Status)
	assert.True(t, out.ResumeStored)

	app := f.store.apps[out.ApplicationID]
	require.NotNil(t, app)
	assert.Equal(t, "jane@example.com", app.ApplicantEmail)
	assert.Equal(t, string(types.SourceUpload), app.Source)
	assert.Equal(t, storage.ResumeObjectKey(out.ApplicationID, ".txt"), app.ResumeFile)

	data, err := f.files.ReadFile(context.Background(), app.ResumeFile)
	require.NoError(t, err)
	assert.Equal(t, "Python developer", string(data))

	require.Len(t, f.store.outbox, 1)
	msg := f.store.outbox[0]
	assert.Equal(t, out.ApplicationID, msg.AggregateID)
	assert.Equal(t, "application.submitted", msg.TargetRoutingKey)
	assert.Equal(t, models.OutboxStatusPending, msg.Status)
	assert.Contains(t, msg.Payload, out.ApplicationID)
}

func TestApply_Validation(t *testing.T) {
	f := setup(t)

	cases := []struct {
		name     string
		email    string
		filename string
		ct       string
		content  []byte
	}{
		{"缺少邮箱", "", "cv.txt", "text/plain", []byte("x")},
		{"非法邮箱", "not-an-email", "cv.txt", "text/plain", []byte("x")},
		{"缺少文件", "a@example.com", "", "", nil},
		{"不支持的类型", "a@example.com", "cv.png", "image/png", []byte("x")},
		{"文件过大", "a@example.com", "cv.txt", "text/plain", bytes.Repeat([]byte("a"), 2048)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, ct := multipartApply(t, tc.email, tc.filename, tc.ct, tc.content)
			resp := ut.PerformRequest(f.h.Engine, http.MethodPost, "/api/v1/jobs/job-1/apply", body, ct)
			assert.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
		})
	}
	assert.Empty(t, f.store.apps)
}

func TestApply_JobState(t *testing.T) {
	f := setup(t)
	body, ct := multipartApply(t, "a@example.com", "cv.txt", "text/plain", []byte("x"))
	resp := ut.PerformRequest(f.h.Engine, http.MethodPost, "/api/v1/jobs/missing/apply", body, ct)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	f.store.jobs["job-1"].Deadline = time.Now().Add(-time.Hour)
	body, ct = multipartApply(t, "a@example.com", "cv.txt", "text/plain", []byte("x"))
	resp = ut.PerformRequest(f.h.Engine, http.MethodPost, "/api/v1/jobs/job-1/apply", body, ct)
	assert.Equal(t, http.StatusBadRequest, resp.Code, "截止后不能申请")

	f.store.jobs["job-1"].Deadline = time.Now().Add(time.Hour)
	f.store.jobs["job-1"].Status = models.JobStatusClosed
	body, ct = multipartApply(t, "a@example.com", "cv.txt", "text/plain", []byte("x"))
	resp = ut.PerformRequest(f.h.Engine, http.MethodPost, "/api/v1/jobs/job-1/apply", body, ct)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	f.store.jobs["job-1"].Status = models.JobStatusActive
	f.store.jobs["job-1"].ApplicationMode = models.ApplicationModeEmail
	body, ct = multipartApply(t, "a@example.com", "cv.txt", "text/plain", []byte("x"))
	resp = ut.PerformRequest(f.h.Engine, http.MethodPost, "/api/v1/jobs/job-1/apply", body, ct)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestEmailHook(t *testing.T) {
	f := setup(t)
	resp := ut.PerformRequest(f.h.Engine, http.MethodPost, "/api/v1/applications/email-hook",
		jsonBody(t, map[string]string{"job_id": "job-1", "applicant_email": "b@example.com", "resume_object": "resume/x/original.pdf"}),
		jsonHeader())
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var out handler.SubmissionResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	app := f.store.apps[out.ApplicationID]
	require.NotNil(t, app)
	assert.Equal(t, "resume/x/original.pdf", app.ResumeFile)
	assert.Equal(t, string(types.SourceEmail), app.Source)

	resp = ut.PerformRequest(f.h.Engine, http.MethodPost, "/api/v1/applications/email-hook",
		&ut.Body{Body: bytes.NewReader([]byte("{")), Len: 1}, jsonHeader())
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestN8NWebhook(t *testing.T) {
	f := setup(t)
	content := base64.StdEncoding.EncodeToString([]byte("Docker and Python engineer"))
	resp := ut.PerformRequest(f.h.Engine, http.MethodPost, "/api/v1/webhooks/n8n",
		jsonBody(t, map[string]interface{}{
			"job_id":          "job-1",
			"applicant_email": "c@example.com",
			"resume_content":  content,
			"metadata":        map[string]string{"file_type": ".txt"},
		}), jsonHeader())
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var out handler.SubmissionResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.True(t, out.ResumeStored)
	app := f.store.apps[out.ApplicationID]
	assert.JSONEq(t, `{"source":"n8n"}`, string(app.ParsedData))

	resp = ut.PerformRequest(f.h.Engine, http.MethodPost, "/api/v1/webhooks/n8n",
		jsonBody(t, map[string]interface{}{"job_id": "job-1", "applicant_email": "d@example.com", "resume_content": "%%%"}),
		jsonHeader())
	require.Equal(t, http.StatusCreated, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.False(t, out.ResumeStored, "无法解码的附件被忽略")

	resp = ut.PerformRequest(f.h.Engine, http.MethodPost, "/api/v1/webhooks/n8n",
		jsonBody(t, map[string]interface{}{"job_id": "nope", "applicant_email": "d@example.com"}), jsonHeader())
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestEmailParserWebhook(t *testing.T) {
	f := setup(t)
	longBody := bytes.Repeat([]byte("b"), 250)
	resp := ut.PerformRequest(f.h.Engine, http.MethodPost, "/api/v1/webhooks/email-parser",
		jsonBody(t, map[string]interface{}{
			"job_id":  "job-1",
			"from":    "Eve <eve@example.com>",
			"subject": "Application",
			"body":    string(longBody),
			"attachments": []map[string]string{
				{"filename": "photo.png", "content": base64.StdEncoding.EncodeToString([]byte("png"))},
				{"filename": "cv.txt", "content": base64.StdEncoding.EncodeToString([]byte("SQL expert"))},
			},
		}), jsonHeader())
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var out handler.SubmissionResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	app := f.store.apps[out.ApplicationID]
	require.NotNil(t, app)
	assert.Equal(t, "eve@example.com", app.ApplicantEmail)
	assert.Equal(t, storage.ResumeObjectKey(out.ApplicationID, ".txt"), app.ResumeFile)

	var meta types.ResumeFacts
	require.NoError(t, json.Unmarshal(app.ParsedData, &meta))
	assert.Equal(t, "email_parser", meta.Source)
	assert.Equal(t, "Application", meta.Subject)
	assert.Equal(t, string(longBody[:200])+"...", meta.BodyPreview)
}

func TestCompanyAuth(t *testing.T) {
	f := setup(t)
	resp := ut.PerformRequest(f.h.Engine, http.MethodGet, "/api/v1/jobs", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ut.PerformRequest(f.h.Engine, http.MethodGet, "/api/v1/jobs", nil, keyHeader("wrong"))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ut.PerformRequest(f.h.Engine, http.MethodGet, "/api/v1/jobs", nil, keyHeader(apiKey))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"total":1`)
}

func TestRegisterCompany(t *testing.T) {
	f := setup(t)

	resp := ut.PerformRequest(f.h.Engine, http.MethodPost, "/api/v1/companies",
		jsonBody(t, map[string]string{"name": " Globex ", "email": "Jobs@Globex.example"}), jsonHeader())
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var created handler.CompanyResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	assert.Equal(t, "Globex", created.Name)
	assert.Equal(t, "jobs@globex.example", created.Email)
	assert.NotEmpty(t, created.ID)
	require.True(t, strings.HasPrefix(created.APIKey, "rk_"))
	assert.Len(t, created.APIKey, len("rk_")+64)

	// 新签发的 key 可以直接访问受保护接口
	resp = ut.PerformRequest(f.h.Engine, http.MethodGet, "/api/v1/me", nil, keyHeader(created.APIKey))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var me handler.CompanyResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &me))
	assert.Equal(t, created.ID, me.ID)
	assert.Empty(t, me.APIKey, "查询接口不返回 API Key")

	resp = ut.PerformRequest(f.h.Engine, http.MethodGet, "/api/v1/jobs", nil, keyHeader(created.APIKey))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"total":0`)

	resp = ut.PerformRequest(f.h.Engine, http.MethodPost, "/api/v1/companies",
		jsonBody(t, map[string]string{"name": "Globex 2", "email": "jobs@globex.example"}), jsonHeader())
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestRegisterCompany_Validation(t *testing.T) {
	f := setup(t)
	cases := []map[string]string{
		{"email": "a@example.com"},
		{"name": "   ", "email": "a@example.com"},
		{"name": "Acme"},
		{"name": "Acme", "email": "not-an-email"},
	}
	for _, body := range cases {
		resp := ut.PerformRequest(f.h.Engine, http.MethodPost, "/api/v1/companies", jsonBody(t, body), jsonHeader())
		assert.Equal(t, http.StatusBadRequest, resp.Code, "body=%v", body)
	}
}

func TestMe_RequiresKey(t *testing.T) {
	f := setup(t)
	resp := ut.PerformRequest(f.h.Engine, http.MethodGet, "/api/v1/me", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ut.PerformRequest(f.h.Engine, http.MethodGet, "/api/v1/me", nil, keyHeader(apiKey))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"name":"Acme"`)
	assert.NotContains(t, resp.Body.String(), apiKey)
}

func TestJobsCRUD(t *testing.T) {
	f := setup(t)
	deadline := time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339)

	resp := ut.PerformRequest(f.h.Engine, http.MethodPost, "/api/v1/jobs",
		jsonBody(t, map[string]interface{}{
			"job_title":     "Data Engineer",
			"requirements":  "SQL, Python",
			"deadline":      deadline,
			"report_emails": []string{"HR@example.com"},
		}), jsonHeader(), keyHeader(apiKey))
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var created models.Job
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	assert.Equal(t, "co-1", created.CompanyID)
	assert.Equal(t, models.ApplicationModeLink, created.ApplicationMode)
	assert.Equal(t, models.JobStatusActive, created.Status)
	assert.Equal(t, []string{"hr@example.com"}, models.StringList(created.ReportEmails))

	resp = ut.PerformRequest(f.h.Engine, http.MethodPut, "/api/v1/jobs/"+created.ID,
		jsonBody(t, map[string]interface{}{"status": "closed"}), jsonHeader(), keyHeader(apiKey))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, models.JobStatusClosed, f.store.jobs[created.ID].Status)
	assert.Equal(t, "Data Engineer", f.store.jobs[created.ID].JobTitle, "未提供的字段保持原值")

	resp = ut.PerformRequest(f.h.Engine, http.MethodGet, "/api/v1/jobs/"+created.ID, nil, keyHeader(otherAPIKey))
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ut.PerformRequest(f.h.Engine, http.MethodDelete, "/api/v1/jobs/"+created.ID, nil, keyHeader(apiKey))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.NotContains(t, f.store.jobs, created.ID)

	resp = ut.PerformRequest(f.h.Engine, http.MethodGet, "/api/v1/jobs/"+created.ID, nil, keyHeader(apiKey))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestCreateJob_Validation(t *testing.T) {
	f := setup(t)
	cases := []map[string]interface{}{
		{"requirements": "Go", "deadline": time.Now().Format(time.RFC3339)},
		{"job_title": "X", "deadline": time.Now().Format(time.RFC3339)},
		{"job_title": "X", "requirements": "Go"},
		{"job_title": "X", "requirements": "Go", "deadline": time.Now().Format(time.RFC3339), "application_mode": "fax"},
		{"job_title": "X", "requirements": "Go", "deadline": time.Now().Format(time.RFC3339), "application_mode": "email"},
		{"job_title": "X", "requirements": "Go", "deadline": time.Now().Format(time.RFC3339), "report_emails": []string{"bad"}},
	}
	for _, body := range cases {
		resp := ut.PerformRequest(f.h.Engine, http.MethodPost, "/api/v1/jobs", jsonBody(t, body), jsonHeader(), keyHeader(apiKey))
		assert.Equal(t, http.StatusBadRequest, resp.Code, "%v", body)
	}
}

func TestApplicationsEndpoints(t *testing.T) {
	f := setup(t)
	score := 80
	f.store.apps["app-1"] = &models.Application{ID: "app-1", JobID: "job-1", ApplicantEmail: "a@x.com", Status: "shortlisted", AIScore: &score}
	f.store.apps["app-2"] = &models.Application{ID: "app-2", JobID: "job-1", ApplicantEmail: "b@x.com", Status: "pending"}

	resp := ut.PerformRequest(f.h.Engine, http.MethodGet, "/api/v1/jobs/job-1/applications?status=shortlisted", nil, keyHeader(apiKey))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"total":1`)
	assert.Contains(t, resp.Body.String(), "a@x.com")

	resp = ut.PerformRequest(f.h.Engine, http.MethodGet, "/api/v1/jobs/job-1/applications?status=weird", nil, keyHeader(apiKey))
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ut.PerformRequest(f.h.Engine, http.MethodGet, "/api/v1/applications/app-2", nil, keyHeader(apiKey))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "b@x.com")

	resp = ut.PerformRequest(f.h.Engine, http.MethodGet, "/api/v1/applications/app-2", nil, keyHeader(otherAPIKey))
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ut.PerformRequest(f.h.Engine, http.MethodGet, "/api/v1/applications/nope", nil, keyHeader(apiKey))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestReportsEndpoints(t *testing.T) {
	f := setup(t)
	score := 90
	f.store.apps["app-1"] = &models.Application{
		ID: "app-1", JobID: "job-1", ApplicantEmail: "a@x.com", Status: "shortlisted", AIScore: &score,
		ParsedData: []byte(`{"skills":["python"]}`),
	}

	resp := ut.PerformRequest(f.h.Engine, http.MethodPost, "/api/v1/jobs/job-1/reports", nil, keyHeader(apiKey))
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var created struct {
		ID      string              `json:"id"`
		Summary types.ReportSummary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 1, created.Summary.TotalApplications)
	assert.Equal(t, "1/1", created.Summary.ProcessingNotes.ParsingSuccess)

	resp = ut.PerformRequest(f.h.Engine, http.MethodGet, "/api/v1/jobs/job-1/reports", nil, keyHeader(apiKey))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"total":1`)

	resp = ut.PerformRequest(f.h.Engine, http.MethodGet, "/api/v1/reports/"+created.ID, nil, keyHeader(apiKey))
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = ut.PerformRequest(f.h.Engine, http.MethodGet, "/api/v1/reports/"+created.ID, nil, keyHeader(otherAPIKey))
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ut.PerformRequest(f.h.Engine, http.MethodPost, "/api/v1/jobs/job-1/reports", nil, keyHeader(otherAPIKey))
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ut.PerformRequest(f.h.Engine, http.MethodPost, "/api/v1/jobs/missing/reports", nil, keyHeader(apiKey))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
