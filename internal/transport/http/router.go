package http

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"quiz-arena-service/internal/app"
	"quiz-arena-service/internal/domain"
	"quiz-arena-service/internal/logger"
)

// Options configures the HTTP surface.
type Options struct {
	SessionHeader string
	LoginPath     string
	StaticDir     string
}

// Handler wires the quiz use cases to HTTP.
type Handler struct {
	auth          *app.AuthService
	quiz          *app.QuizService
	admin         *app.AdminService
	log           *logger.Logger
	validate      *validator.Validate
	upgrader      websocket.Upgrader
	sessionHeader string
	loginPath     string
	staticDir     string
}

func NewHandler(auth *app.AuthService, quiz *app.QuizService, admin *app.AdminService, log *logger.Logger, opts Options) *Handler {
	if opts.SessionHeader == "" {
		opts.SessionHeader = "X-Session-ID"
	}
	if opts.LoginPath == "" {
		opts.LoginPath = "/login.html"
	}
	return &Handler{
		auth:     auth,
		quiz:     quiz,
		admin:    admin,
		log:      log.With("component", "http"),
		validate: validator.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		sessionHeader: opts.SessionHeader,
		loginPath:     opts.LoginPath,
		staticDir:     opts.StaticDir,
	}
}

// Router builds the full route table.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(withRequestID, h.logRequests, h.recoverPanics)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/register", h.register).Methods(http.MethodPost)
	r.HandleFunc("/login", h.login).Methods(http.MethodPost)
	r.HandleFunc("/logout", h.requireSession(h.logout)).Methods(http.MethodPost)

	r.HandleFunc("/questions", h.requireSession(h.getQuestions)).Methods(http.MethodGet)
	r.HandleFunc("/student/start-quiz", h.requireRole(domain.RoleStudent, h.startQuiz)).Methods(http.MethodPost)
	r.HandleFunc("/student/submit-answers", h.requireSession(h.submitAnswers)).Methods(http.MethodPost)

	r.HandleFunc("/admin/metrics", h.requireRole(domain.RoleAdmin, h.metrics)).Methods(http.MethodGet)
	r.HandleFunc("/admin/questions", h.requireRole(domain.RoleAdmin, h.listQuestions)).Methods(http.MethodGet)
	r.HandleFunc("/admin/questions", h.requireRole(domain.RoleAdmin, h.createQuestion)).Methods(http.MethodPost)
	r.HandleFunc("/admin/questions/{id:[0-9]+}", h.requireRole(domain.RoleAdmin, h.deleteQuestion)).Methods(http.MethodDelete)
	r.HandleFunc("/admin/users/{id:[0-9]+}/disqualify", h.requireRole(domain.RoleAdmin, h.disqualify)).Methods(http.MethodPost)
	r.HandleFunc("/admin/leaderboard/ws", h.requireRole(domain.RoleAdmin, h.leaderboardWS)).Methods(http.MethodGet)
	r.HandleFunc("/leaderboard-data", h.requireRole(domain.RoleAdmin, h.leaderboard)).Methods(http.MethodGet)

	if h.staticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(h.staticDir))).Methods(http.MethodGet)
	}
	return r
}
