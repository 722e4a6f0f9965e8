package handlers

import (
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

// Router enruta las peticiones hacia los handlers
type Router struct {
	questions  *QuestionHandler
	answers    *AnswerHandler
	live       *LiveHandler
	corsOrigin string
}

func NewRouter(questions *QuestionHandler, answers *AnswerHandler, live *LiveHandler, corsOrigin string) *Router {
	return &Router{
		questions:  questions,
		answers:    answers,
		live:       live,
		corsOrigin: corsOrigin,
	}
}

// Handle es el fasthttp.RequestHandler del servidor
func (r *Router) Handle(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())
	method := string(ctx.Method())

	log.Debug().Str("method", method).Str("path", path).Msg("📡 Petición")

	ctx.Response.Header.Set("Server", "QuestionBank-FastHTTP/1.0")
	ctx.Response.Header.Set("Cache-Control", "no-cache")

	ctx.Response.Header.Set("Access-Control-Allow-Origin", r.corsOrigin)
	ctx.Response.Header.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	ctx.Response.Header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if method == fasthttp.MethodOptions {
		ctx.SetStatusCode(fasthttp.StatusOK)
		return
	}

	switch {
	case path == "/api/health":
		r.questions.HealthCheck(ctx)

	case path == "/api/questions" && method == fasthttp.MethodGet:
		r.questions.GetAllQuestions(ctx)
	case path == "/api/questions" && method == fasthttp.MethodPost:
		r.questions.AddQuestion(ctx)
	case path == "/api/questions/published" && method == fasthttp.MethodGet:
		r.questions.GetPublishedQuestions(ctx)
	case path == "/api/questions/non-empty" && method == fasthttp.MethodGet:
		r.questions.GetNonEmptyQuestions(ctx)
	case path == "/api/questions/names" && method == fasthttp.MethodGet:
		r.questions.GetNames(ctx)
	case path == "/api/questions/points" && method == fasthttp.MethodGet:
		r.questions.GetPoints(ctx)
	case path == "/api/questions/same-type" && method == fasthttp.MethodGet:
		r.questions.SameType(ctx)
	case path == "/api/questions/csv" && method == fasthttp.MethodGet:
		r.questions.ExportCSV(ctx)
	case path == "/api/questions/metadata" && method == fasthttp.MethodGet:
		r.questions.GetQuestionMetadata(ctx)
	case path == "/api/questions/publish-all" && method == fasthttp.MethodPost:
		r.questions.PublishAll(ctx)
	case path == "/api/questions/reload" && method == fasthttp.MethodPost:
		r.questions.ReloadQuestions(ctx)

	case path == "/api/answers" && method == fasthttp.MethodPost:
		r.answers.CreateAnswerSheet(ctx)

	case path == "/ws":
		r.live.HandleWebSocket(ctx)

	case strings.HasPrefix(path, "/api/questions/"):
		r.handleQuestionRoutes(ctx, method, path)
	case strings.HasPrefix(path, "/api/answers/"):
		r.handleAnswerRoutes(ctx, method, path)

	default:
		serve404(ctx)
	}
}

// handleQuestionRoutes maneja /api/questions/{id}[/accion]
func (r *Router) handleQuestionRoutes(ctx *fasthttp.RequestCtx, method, path string) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 3 || len(parts) > 4 {
		serve404(ctx)
		return
	}
	ctx.SetUserValue("id", parts[2])

	action := ""
	if len(parts) == 4 {
		action = parts[3]
	}

	switch {
	case action == "" && method == fasthttp.MethodGet:
		r.questions.GetQuestion(ctx)
	case action == "" && method == fasthttp.MethodDelete:
		r.questions.RemoveQuestion(ctx)
	case action == "name" && method == fasthttp.MethodPut:
		r.questions.RenameQuestion(ctx)
	case action == "type" && method == fasthttp.MethodPut:
		r.questions.ChangeQuestionType(ctx)
	case action == "options" && method == fasthttp.MethodPut:
		r.questions.EditOption(ctx)
	case action == "duplicate" && method == fasthttp.MethodPost:
		r.questions.DuplicateQuestion(ctx)
	default:
		serve404(ctx)
	}
}

// handleAnswerRoutes maneja /api/answers/{id}[/submit]
func (r *Router) handleAnswerRoutes(ctx *fasthttp.RequestCtx, method, path string) {
	parts := strings.Split(strings.Trim(path, "/"), "/")

	switch {
	case len(parts) == 3 && method == fasthttp.MethodGet:
		ctx.SetUserValue("id", parts[2])
		r.answers.GetAnswerSheet(ctx)
	case len(parts) == 4 && parts[3] == "submit" && method == fasthttp.MethodPost:
		ctx.SetUserValue("id", parts[2])
		r.answers.SubmitAnswer(ctx)
	default:
		serve404(ctx)
	}
}

func serve404(ctx *fasthttp.RequestCtx) {
	respondWithError(ctx, fasthttp.StatusNotFound, "Ruta no encontrada: "+string(ctx.Method())+" "+string(ctx.Path()))
}
