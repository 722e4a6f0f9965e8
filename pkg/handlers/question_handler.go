package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/backsoul/question-bank/pkg/models"
	"github.com/backsoul/question-bank/pkg/questions"
	"github.com/backsoul/question-bank/pkg/redis"
	"github.com/backsoul/question-bank/pkg/services"
	"github.com/valyala/fasthttp"
)

// QuestionHandler maneja las peticiones HTTP para preguntas
type QuestionHandler struct {
	questionService *services.QuestionService
	bankFile        string
}

// NewQuestionHandler crea una nueva instancia del handler
func NewQuestionHandler(questionService *services.QuestionService, bankFile string) *QuestionHandler {
	return &QuestionHandler{
		questionService: questionService,
		bankFile:        bankFile,
	}
}

// respondWithMutation responde con la secuencia nueva o con el error adecuado
func (h *QuestionHandler) respondWithMutation(ctx *fasthttp.RequestCtx, qs []models.Question, err error, message string) {
	switch {
	case err == nil:
		respondWithSuccess(ctx, listResponse(qs), message)
	case errors.Is(err, questions.ErrOptionIndexOutOfRange):
		respondWithError(ctx, fasthttp.StatusUnprocessableEntity, err.Error())
	default:
		respondWithError(ctx, fasthttp.StatusInternalServerError, fmt.Sprintf("Error actualizando preguntas: %v", err))
	}
}

// GetAllQuestions maneja GET /api/questions
func (h *QuestionHandler) GetAllQuestions(ctx *fasthttp.RequestCtx) {
	rctx, cancel := requestContext()
	defer cancel()

	qs, err := h.questionService.GetAllQuestions(rctx)
	if err != nil {
		respondWithError(ctx, fasthttp.StatusInternalServerError, fmt.Sprintf("Error obteniendo preguntas: %v", err))
		return
	}
	respondWithSuccess(ctx, listResponse(qs), "Preguntas obtenidas exitosamente")
}

// GetPublishedQuestions maneja GET /api/questions/published
func (h *QuestionHandler) GetPublishedQuestions(ctx *fasthttp.RequestCtx) {
	rctx, cancel := requestContext()
	defer cancel()

	qs, err := h.questionService.GetPublishedQuestions(rctx)
	if err != nil {
		respondWithError(ctx, fasthttp.StatusInternalServerError, fmt.Sprintf("Error obteniendo preguntas publicadas: %v", err))
		return
	}
	respondWithSuccess(ctx, listResponse(qs), "Preguntas publicadas obtenidas exitosamente")
}

// GetNonEmptyQuestions maneja GET /api/questions/non-empty
func (h *QuestionHandler) GetNonEmptyQuestions(ctx *fasthttp.RequestCtx) {
	rctx, cancel := requestContext()
	defer cancel()

	qs, err := h.questionService.GetNonEmptyQuestions(rctx)
	if err != nil {
		respondWithError(ctx, fasthttp.StatusInternalServerError, fmt.Sprintf("Error obteniendo preguntas: %v", err))
		return
	}
	respondWithSuccess(ctx, listResponse(qs), "Preguntas no vacías obtenidas exitosamente")
}

// GetQuestion maneja GET /api/questions/{id}
func (h *QuestionHandler) GetQuestion(ctx *fasthttp.RequestCtx) {
	rctx, cancel := requestContext()
	defer cancel()

	id, ok := questionID(ctx)
	if !ok {
		return
	}

	q, err := h.questionService.GetQuestion(rctx, id)
	if errors.Is(err, services.ErrQuestionNotFound) {
		respondWithError(ctx, fasthttp.StatusNotFound, fmt.Sprintf("Pregunta no encontrada: %d", id))
		return
	}
	if err != nil {
		respondWithError(ctx, fasthttp.StatusInternalServerError, fmt.Sprintf("Error obteniendo pregunta: %v", err))
		return
	}

	respondWithSuccess(ctx, models.QuestionResponse{Question: q}, "Pregunta obtenida exitosamente")
}

// GetNames maneja GET /api/questions/names
func (h *QuestionHandler) GetNames(ctx *fasthttp.RequestCtx) {
	rctx, cancel := requestContext()
	defer cancel()

	names, err := h.questionService.GetNames(rctx)
	if err != nil {
		respondWithError(ctx, fasthttp.StatusInternalServerError, fmt.Sprintf("Error obteniendo nombres: %v", err))
		return
	}
	respondWithSuccess(ctx, map[string]interface{}{"names": names}, "Nombres obtenidos exitosamente")
}

// GetPoints maneja GET /api/questions/points
func (h *QuestionHandler) GetPoints(ctx *fasthttp.RequestCtx) {
	rctx, cancel := requestContext()
	defer cancel()

	points, err := h.questionService.GetPoints(rctx)
	if err != nil {
		respondWithError(ctx, fasthttp.StatusInternalServerError, fmt.Sprintf("Error sumando puntos: %v", err))
		return
	}
	respondWithSuccess(ctx, points, "Puntos calculados exitosamente")
}

// SameType maneja GET /api/questions/same-type
func (h *QuestionHandler) SameType(ctx *fasthttp.RequestCtx) {
	rctx, cancel := requestContext()
	defer cancel()

	same, err := h.questionService.SameType(rctx)
	if err != nil {
		respondWithError(ctx, fasthttp.StatusInternalServerError, fmt.Sprintf("Error comparando tipos: %v", err))
		return
	}
	respondWithSuccess(ctx, map[string]bool{"sameType": same}, "Tipos comparados exitosamente")
}

// ExportCSV maneja GET /api/questions/csv
func (h *QuestionHandler) ExportCSV(ctx *fasthttp.RequestCtx) {
	rctx, cancel := requestContext()
	defer cancel()

	csv, err := h.questionService.GetCSV(rctx)
	if err != nil {
		respondWithError(ctx, fasthttp.StatusInternalServerError, fmt.Sprintf("Error exportando CSV: %v", err))
		return
	}
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType("text/csv; charset=utf-8")
	ctx.Response.Header.Set("Content-Disposition", `attachment; filename="questions.csv"`)
	ctx.SetBodyString(csv)
}

// GetQuestionMetadata maneja GET /api/questions/metadata
func (h *QuestionHandler) GetQuestionMetadata(ctx *fasthttp.RequestCtx) {
	rctx, cancel := requestContext()
	defer cancel()

	metadata, err := h.questionService.GetMetadata(rctx)
	if errors.Is(err, redis.ErrNotFound) {
		respondWithError(ctx, fasthttp.StatusNotFound, "El banco no tiene metadatos")
		return
	}
	if err != nil {
		respondWithError(ctx, fasthttp.StatusInternalServerError, fmt.Sprintf("Error obteniendo metadatos: %v", err))
		return
	}

	count, err := h.questionService.GetQuestionCount(rctx)
	if err != nil {
		respondWithError(ctx, fasthttp.StatusInternalServerError, fmt.Sprintf("Error obteniendo conteo: %v", err))
		return
	}

	respondWithSuccess(ctx, models.MetadataResponse{Metadata: metadata, Count: count}, "Metadatos obtenidos exitosamente")
}

// AddQuestion maneja POST /api/questions
func (h *QuestionHandler) AddQuestion(ctx *fasthttp.RequestCtx) {
	rctx, cancel := requestContext()
	defer cancel()

	var request models.AddQuestionRequest
	if !decodeBody(ctx, &request, false) {
		return
	}
	if strings.TrimSpace(request.Name) == "" {
		respondWithError(ctx, fasthttp.StatusBadRequest, "El nombre de la pregunta es requerido")
		return
	}
	if !request.Type.Valid() {
		respondWithError(ctx, fasthttp.StatusBadRequest, fmt.Sprintf("Tipo de pregunta inválido: %q", request.Type))
		return
	}
	if request.ID < 0 {
		respondWithError(ctx, fasthttp.StatusBadRequest, "ID de pregunta inválido")
		return
	}

	qs, err := h.questionService.AddQuestion(rctx, request.ID, request.Name, request.Type)
	h.respondWithMutation(ctx, qs, err, "Pregunta agregada exitosamente")
}

// RemoveQuestion maneja DELETE /api/questions/{id}
func (h *QuestionHandler) RemoveQuestion(ctx *fasthttp.RequestCtx) {
	rctx, cancel := requestContext()
	defer cancel()

	id, ok := questionID(ctx)
	if !ok {
		return
	}
	qs, err := h.questionService.RemoveQuestion(rctx, id)
	h.respondWithMutation(ctx, qs, err, "Pregunta eliminada exitosamente")
}

// PublishAll maneja POST /api/questions/publish-all
func (h *QuestionHandler) PublishAll(ctx *fasthttp.RequestCtx) {
	rctx, cancel := requestContext()
	defer cancel()

	qs, err := h.questionService.PublishAll(rctx)
	h.respondWithMutation(ctx, qs, err, "Preguntas publicadas exitosamente")
}

// RenameQuestion maneja PUT /api/questions/{id}/name
func (h *QuestionHandler) RenameQuestion(ctx *fasthttp.RequestCtx) {
	rctx, cancel := requestContext()
	defer cancel()

	id, ok := questionID(ctx)
	if !ok {
		return
	}
	var request models.RenameQuestionRequest
	if !decodeBody(ctx, &request, false) {
		return
	}
	if strings.TrimSpace(request.Name) == "" {
		respondWithError(ctx, fasthttp.StatusBadRequest, "El nombre de la pregunta es requerido")
		return
	}

	qs, err := h.questionService.RenameQuestion(rctx, id, request.Name)
	h.respondWithMutation(ctx, qs, err, "Pregunta renombrada exitosamente")
}

// ChangeQuestionType maneja PUT /api/questions/{id}/type
func (h *QuestionHandler) ChangeQuestionType(ctx *fasthttp.RequestCtx) {
	rctx, cancel := requestContext()
	defer cancel()

	id, ok := questionID(ctx)
	if !ok {
		return
	}
	var request models.ChangeTypeRequest
	if !decodeBody(ctx, &request, false) {
		return
	}
	if !request.Type.Valid() {
		respondWithError(ctx, fasthttp.StatusBadRequest, fmt.Sprintf("Tipo de pregunta inválido: %q", request.Type))
		return
	}

	qs, err := h.questionService.ChangeQuestionType(rctx, id, request.Type)
	h.respondWithMutation(ctx, qs, err, "Tipo de pregunta actualizado exitosamente")
}

// EditOption maneja PUT /api/questions/{id}/options
func (h *QuestionHandler) EditOption(ctx *fasthttp.RequestCtx) {
	rctx, cancel := requestContext()
	defer cancel()

	id, ok := questionID(ctx)
	if !ok {
		return
	}
	var request models.EditOptionRequest
	if !decodeBody(ctx, &request, false) {
		return
	}

	index := questions.AppendOption
	if request.Index != nil {
		index = *request.Index
	}

	qs, err := h.questionService.EditOption(rctx, id, index, request.Option)
	h.respondWithMutation(ctx, qs, err, "Opción actualizada exitosamente")
}

// DuplicateQuestion maneja POST /api/questions/{id}/duplicate
func (h *QuestionHandler) DuplicateQuestion(ctx *fasthttp.RequestCtx) {
	rctx, cancel := requestContext()
	defer cancel()

	id, ok := questionID(ctx)
	if !ok {
		return
	}
	var request models.DuplicateQuestionRequest
	if !decodeBody(ctx, &request, true) {
		return
	}
	if request.NewID < 0 {
		respondWithError(ctx, fasthttp.StatusBadRequest, "ID de la copia inválido")
		return
	}

	qs, err := h.questionService.DuplicateQuestion(rctx, id, request.NewID)
	h.respondWithMutation(ctx, qs, err, "Pregunta duplicada exitosamente")
}

// ReloadQuestions maneja POST /api/questions/reload
func (h *QuestionHandler) ReloadQuestions(ctx *fasthttp.RequestCtx) {
	rctx, cancel := requestContext()
	defer cancel()

	count, err := h.questionService.ReloadQuestions(rctx, h.bankFile)
	if err != nil {
		respondWithError(ctx, fasthttp.StatusInternalServerError, fmt.Sprintf("Error recargando preguntas: %v", err))
		return
	}

	respondWithSuccess(ctx, map[string]int{"count": count}, "Preguntas recargadas exitosamente")
}

// HealthCheck maneja GET /api/health
func (h *QuestionHandler) HealthCheck(ctx *fasthttp.RequestCtx) {
	rctx, cancel := requestContext()
	defer cancel()

	if err := h.questionService.HealthCheck(rctx); err != nil {
		respondWithError(ctx, fasthttp.StatusServiceUnavailable, fmt.Sprintf("Servicio no disponible: %v", err))
		return
	}

	respondWithSuccess(ctx, map[string]interface{}{
		"status": "healthy",
		"redis":  "connected",
	}, "Servicio funcionando correctamente")
}
