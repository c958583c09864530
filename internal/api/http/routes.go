package http

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mind-engage/satportal/internal/assignment"
	"github.com/mind-engage/satportal/internal/auth"
	authmw "github.com/mind-engage/satportal/internal/auth/middleware"
	"github.com/mind-engage/satportal/internal/exam"
	"github.com/mind-engage/satportal/internal/messaging"
	"github.com/mind-engage/satportal/internal/metrics"
	rbac "github.com/mind-engage/satportal/internal/rbac"
	"github.com/mind-engage/satportal/internal/report"
	"github.com/mind-engage/satportal/internal/storage"
)

type Deps struct {
	Exams       *exam.Service
	Accounts    *auth.Accounts
	Tokens      *authmw.AuthService
	Users       authmw.UserLookup
	Assignments *assignment.Service
	Messages    *messaging.Service
	Reports     *report.Aggregator
	Blobs       storage.BlobStore // optional

	CORSOrigins    []string
	RequestTimeout time.Duration
}

func NewRouter(d Deps) chi.Router {
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 30 * time.Second
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(d.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", RootHandler)
	r.Get("/healthz", HealthzHandler)
	r.Get("/readyz", ReadyzHandler(d.Exams))
	r.Handle("/metrics", metrics.Handler())

	r.Post("/auth/register", RegisterHandler(d.Accounts))
	r.Post("/auth/token", TokenHandler(d.Accounts))

	// Protected API (JWT -> stored role in context -> RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(d.Tokens, d.Users))

		pr.Get("/auth/me", MeHandler(d.Accounts))

		pr.With(rbac.Require("test:create")).Post("/admin/tests", CreateTestHandler(d.Exams))
		pr.With(rbac.RequireAny("test:view", "test:create")).Get("/admin/tests", ListTestsHandler(d.Exams))
		pr.With(rbac.Require("question:upload")).
			Post("/admin/questions/upload", UploadQuestionsHandler(d.Exams, d.Blobs))
		pr.With(rbac.Require("assignment:create")).
			Post("/admin/assign", AssignHandler(d.Exams, d.Assignments))

		pr.With(rbac.Require("assignment:view-own")).Get("/student/assignments", MyAssignmentsHandler(d.Assignments))
		pr.With(rbac.Require("test:take")).Get("/student/tests/{test_id}/questions", StudentQuestionsHandler(d.Exams))
		pr.With(rbac.Require("attempt:create")).Post("/student/attempt/start", StartAttemptHandler(d.Exams))
		pr.With(rbac.Require("attempt:save")).Post("/student/attempt/answer", SaveAnswerHandler(d.Exams))
		pr.With(rbac.Require("attempt:submit")).Post("/student/attempt/submit", SubmitAttemptHandler(d.Exams))
		pr.With(rbac.Require("attempt:view-own")).Get("/student/attempts", ListAttemptsHandler(d.Exams))
		pr.With(rbac.Require("attempt:view-own")).Get("/student/attempts/{attempt_id}", GetAttemptHandler(d.Exams))

		pr.With(rbac.Require("student:list")).Get("/teacher/students", ListStudentsHandler(d.Accounts))
		pr.With(rbac.Require("report:view")).Get("/teacher/reports/{student_id}", StudentReportHandler(d.Reports))

		pr.With(rbac.Require("message:send")).Post("/messages", SendMessageHandler(d.Messages))
		pr.With(rbac.Require("message:view")).Get("/messages", ListMessagesHandler(d.Messages))
	})

	return r
}
