package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/unisphere/exam-backend/internal/config"
	"github.com/unisphere/exam-backend/internal/database"
	"github.com/unisphere/exam-backend/internal/handler"
	"github.com/unisphere/exam-backend/internal/model"
	"github.com/unisphere/exam-backend/internal/service"
	"github.com/unisphere/exam-backend/internal/service/servicetest"
	"github.com/unisphere/exam-backend/internal/validator"
	"golang.org/x/crypto/bcrypt"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	} `json:"error"`
	Metadata struct {
		RequestID string `json:"request_id"`
	} `json:"metadata"`
}

type testServer struct {
	engine *gin.Engine
	admins *service.AdminService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	validator.Setup()

	cfg := &config.Config{
		GinMode:           gin.TestMode,
		JWTSecret:         strings.Repeat("k", 32),
		JWTExpiry:         time.Hour,
		BcryptCost:        bcrypt.MinCost,
		UploadDir:         t.TempDir(),
		AuthRatePerMinute: 1000,
		AuthRateBurst:     1000,
	}
	log := zerolog.Nop()
	db := servicetest.NewDB()
	events := &servicetest.Publisher{}

	authService := service.NewAuthService(cfg, servicetest.NewBlocklist())
	userService := service.NewUserService(db.Users(), authService, &servicetest.Notifier{}, log)
	adminService := service.NewAdminService(db.Admins(), authService)
	examService := service.NewExamService(db.Exams(), db.Questions(), servicetest.NewPaperCache(), events, log)
	sessionService := service.NewExamSessionService(db.Exams(), db.Questions(), db.Sessions(), events, log)

	handlers := &Handlers{
		Auth:      handler.NewAuthHandler(authService, userService, adminService, log),
		Exam:      handler.NewExamHandler(examService, sessionService, log),
		AdminExam: handler.NewAdminExamHandler(examService, sessionService, log),
		AdminUser: handler.NewAdminUserHandler(userService, log),
		Monitor:   handler.NewMonitorHandler(nil, examService, sessionService, nil, log),
		System:    handler.NewSystemHandler(map[string]database.Pinger{}, nil, log),
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	return &testServer{
		engine: SetupRouter(ctx, authService, handlers, cfg, log),
		admins: adminService,
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
	}
	return rec.Code, env
}

func decodeData(t *testing.T, env envelope, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
}

func errCode(env envelope) string {
	if env.Error == nil {
		return ""
	}
	return env.Error.Code
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	if _, err := s.admins.Create(context.Background(), "admin@example.com", "Admin", "admin-secret"); err != nil {
		t.Fatalf("create admin: %v", err)
	}
	status, env := s.do(t, http.MethodPost, "/api/admin/login", "", model.AdminLoginRequest{
		Email: "admin@example.com", Password: "admin-secret",
	})
	if status != http.StatusOK {
		t.Fatalf("admin login status %d: %+v", status, env.Error)
	}
	var out model.AdminLoginResponse
	decodeData(t, env, &out)
	return out.Token
}

func (s *testServer) userToken(t *testing.T, email string) string {
	t.Helper()
	status, env := s.do(t, http.MethodPost, "/api/auth/register", "", model.RegisterRequest{
		Email: email, Username: "alice", Password: "secret123",
	})
	if status != http.StatusCreated {
		t.Fatalf("register status %d: %+v", status, env.Error)
	}
	var out model.AuthResponse
	decodeData(t, env, &out)
	return out.Token
}

func openExamRequest() model.CreateExamRequest {
	now := time.Now().UTC()
	return model.CreateExamRequest{
		Title:           "Networking Basics",
		Description:     "Week 3 quiz",
		DurationMinutes: 30,
		StartTime:       now.Add(-time.Hour),
		EndTime:         now.Add(time.Hour),
		Questions: []model.CreateQuestionRequest{
			{Text: "Port for HTTPS?", Options: []model.CreateOptionRequest{{Text: "443", Correct: true}, {Text: "80"}}},
			{Text: "Layer of TCP?", Options: []model.CreateOptionRequest{{Text: "4", Correct: true}, {Text: "3"}}},
		},
	}
}

func TestRouter_Envelope(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, http.MethodGet, "/api/nope", "", nil)
	if status != http.StatusNotFound || errCode(env) != "NOT_FOUND" {
		t.Fatalf("unknown route: %d %q", status, errCode(env))
	}
	if env.Metadata.RequestID == "" {
		t.Error("missing request id in metadata")
	}

	status, env = s.do(t, http.MethodGet, "/health", "", nil)
	if status != http.StatusOK {
		t.Fatalf("health status %d", status)
	}
}

func TestRouter_AuthNamespaces(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken(t)
	user := s.userToken(t, "alice@example.com")

	tests := []struct {
		name   string
		path   string
		token  string
		status int
		code   string
	}{
		{"no token", "/api/exams", "", http.StatusUnauthorized, "TOKEN_REQUIRED"},
		{"garbage token", "/api/exams", "not.a.jwt", http.StatusUnauthorized, "TOKEN_INVALID"},
		{"admin token on user route", "/api/exams", admin, http.StatusUnauthorized, "TOKEN_INVALID"},
		{"user token on admin route", "/api/admin/exams", user, http.StatusUnauthorized, "TOKEN_INVALID"},
		{"user token", "/api/exams", user, http.StatusOK, ""},
		{"admin token", "/api/admin/exams", admin, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := s.do(t, http.MethodGet, tt.path, tt.token, nil)
			if status != tt.status || errCode(env) != tt.code {
				t.Fatalf("got %d %q, want %d %q", status, errCode(env), tt.status, tt.code)
			}
		})
	}
}

func TestRouter_RegisterAndLogout(t *testing.T) {
	s := newTestServer(t)
	token := s.userToken(t, "alice@example.com")

	status, env := s.do(t, http.MethodPost, "/api/auth/register", "", model.RegisterRequest{
		Email: "ALICE@example.com", Username: "alice2", Password: "secret123",
	})
	if status != http.StatusConflict || errCode(env) != "USER_EXISTS" {
		t.Fatalf("duplicate register: %d %q", status, errCode(env))
	}

	status, env = s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "bad"})
	if status != http.StatusBadRequest || errCode(env) != "VALIDATION_ERROR" {
		t.Fatalf("invalid register: %d %q", status, errCode(env))
	}
	if _, ok := env.Error.Fields["password"]; !ok {
		t.Errorf("expected password field error, got %v", env.Error.Fields)
	}

	status, env = s.do(t, http.MethodPost, "/api/auth/login", "", model.LoginRequest{
		Email: "alice@example.com", Password: "wrong-password",
	})
	if status != http.StatusUnauthorized || errCode(env) != "INVALID_CREDENTIALS" {
		t.Fatalf("wrong password: %d %q", status, errCode(env))
	}

	if status, _ := s.do(t, http.MethodGet, "/api/auth/me", token, nil); status != http.StatusOK {
		t.Fatalf("me status %d", status)
	}
	if status, _ := s.do(t, http.MethodPost, "/api/auth/logout", token, nil); status != http.StatusOK {
		t.Fatalf("logout status %d", status)
	}
	status, env = s.do(t, http.MethodGet, "/api/auth/me", token, nil)
	if status != http.StatusUnauthorized || errCode(env) != "TOKEN_REVOKED" {
		t.Fatalf("me after logout: %d %q", status, errCode(env))
	}
}

func TestRouter_ExamFlow(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken(t)
	user := s.userToken(t, "alice@example.com")

	status, env := s.do(t, http.MethodPost, "/api/admin/exams", admin, openExamRequest())
	if status != http.StatusCreated {
		t.Fatalf("create exam: %d %+v", status, env.Error)
	}
	var created struct {
		Exam model.ExamDetail `json:"exam"`
	}
	decodeData(t, env, &created)
	examID := created.Exam.ID.String()
	questions := created.Exam.Questions
	if len(questions) != 2 || !questions[0].IsSealed() {
		t.Fatalf("unexpected questions %+v", questions)
	}

	status, env = s.do(t, http.MethodGet, "/api/exams/not-a-uuid", user, nil)
	if status != http.StatusBadRequest || errCode(env) != "INVALID_ID" {
		t.Fatalf("bad id: %d %q", status, errCode(env))
	}

	status, env = s.do(t, http.MethodGet, "/api/exams/"+examID, user, nil)
	if status != http.StatusOK {
		t.Fatalf("paper status %d", status)
	}
	if bytes.Contains(env.Data, []byte("correct")) {
		t.Fatalf("paper leaks correctness: %s", env.Data)
	}

	status, env = s.do(t, http.MethodPost, "/api/exams/"+examID+"/submit", user, model.SubmitExamRequest{})
	if status != http.StatusNotFound || errCode(env) != "SESSION_NOT_FOUND" {
		t.Fatalf("submit before start: %d %q", status, errCode(env))
	}

	if status, env = s.do(t, http.MethodPost, "/api/exams/"+examID+"/start", user, nil); status != http.StatusCreated {
		t.Fatalf("start: %d %+v", status, env.Error)
	}
	status, env = s.do(t, http.MethodPost, "/api/exams/"+examID+"/start", user, nil)
	if status != http.StatusBadRequest || errCode(env) != "SESSION_EXISTS" {
		t.Fatalf("second start: %d %q", status, errCode(env))
	}

	status, env = s.do(t, http.MethodGet, "/api/exams/"+examID+"/results", user, nil)
	if status != http.StatusNotFound || errCode(env) != "RESULTS_NOT_FOUND" {
		t.Fatalf("results before submit: %d %q", status, errCode(env))
	}

	wrong := questions[1].Options[1].ID
	submit := model.SubmitExamRequest{Answers: []model.AnswerInput{
		{QuestionID: questions[0].ID, SelectedOptionID: *questions[0].CorrectOptionID},
		{QuestionID: questions[1].ID, SelectedOptionID: wrong},
	}}
	if status, env = s.do(t, http.MethodPost, "/api/exams/"+examID+"/submit", user, submit); status != http.StatusOK {
		t.Fatalf("submit: %d %+v", status, env.Error)
	}

	status, env = s.do(t, http.MethodGet, "/api/exams/"+examID+"/results", user, nil)
	if status != http.StatusOK {
		t.Fatalf("results: %d %+v", status, env.Error)
	}
	var summary model.ResultSummary
	decodeData(t, env, &summary)
	if summary.Score != 50 || summary.CorrectAnswers != 1 || summary.TotalQuestions != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	status, env = s.do(t, http.MethodPost, "/api/exams/"+examID+"/start", user, nil)
	if status != http.StatusBadRequest || errCode(env) != "EXAM_ALREADY_TAKEN" {
		t.Fatalf("restart: %d %q", status, errCode(env))
	}

	if status, _ = s.do(t, http.MethodDelete, "/api/admin/exams/"+examID, admin, nil); status != http.StatusOK {
		t.Fatalf("delete status %d", status)
	}
	status, env = s.do(t, http.MethodGet, "/api/admin/exams/"+examID, admin, nil)
	if status != http.StatusNotFound || errCode(env) != "NOT_FOUND" {
		t.Fatalf("get deleted: %d %q", status, errCode(env))
	}
}

func TestRouter_SubmitForeignOptionRejected(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken(t)
	user := s.userToken(t, "alice@example.com")

	_, env := s.do(t, http.MethodPost, "/api/admin/exams", admin, openExamRequest())
	var created struct {
		Exam model.ExamDetail `json:"exam"`
	}
	decodeData(t, env, &created)
	examID := created.Exam.ID.String()
	q := created.Exam.Questions

	s.do(t, http.MethodPost, "/api/exams/"+examID+"/start", user, nil)

	submit := model.SubmitExamRequest{Answers: []model.AnswerInput{
		{QuestionID: q[0].ID, SelectedOptionID: q[1].Options[0].ID},
	}}
	status, env := s.do(t, http.MethodPost, "/api/exams/"+examID+"/submit", user, submit)
	if status != http.StatusBadRequest || errCode(env) != "INVALID_ANSWER" {
		t.Fatalf("foreign option: %d %q", status, errCode(env))
	}
	if _, ok := env.Error.Fields["answers[0].selected_option_id"]; !ok {
		t.Errorf("fields = %v", env.Error.Fields)
	}
}
