package handlers

import (
	"errors"
	"fmt"

	"github.com/backsoul/question-bank/pkg/models"
	"github.com/backsoul/question-bank/pkg/services"
	"github.com/valyala/fasthttp"
)

// AnswerHandler maneja las peticiones HTTP para hojas de respuestas
type AnswerHandler struct {
	answerService *services.AnswerService
}

// NewAnswerHandler crea una nueva instancia del handler de respuestas
func NewAnswerHandler(answerService *services.AnswerService) *AnswerHandler {
	return &AnswerHandler{
		answerService: answerService,
	}
}

// CreateAnswerSheet maneja POST /api/answers
func (h *AnswerHandler) CreateAnswerSheet(ctx *fasthttp.RequestCtx) {
	rctx, cancel := requestContext()
	defer cancel()

	var request models.AnswerSheetCreateRequest
	if !decodeBody(ctx, &request, true) {
		return
	}

	sheet, err := h.answerService.CreateAnswerSheet(rctx, request.PublishedOnly)
	if err != nil {
		respondWithError(ctx, fasthttp.StatusInternalServerError, fmt.Sprintf("Error creando hoja de respuestas: %v", err))
		return
	}

	respondWithSuccess(ctx, models.AnswerSheetResponse{Sheet: sheet}, "Hoja de respuestas creada exitosamente")
}

// GetAnswerSheet maneja GET /api/answers/{id}
func (h *AnswerHandler) GetAnswerSheet(ctx *fasthttp.RequestCtx) {
	rctx, cancel := requestContext()
	defer cancel()

	sheetID, _ := ctx.UserValue("id").(string)

	sheet, err := h.answerService.GetAnswerSheet(rctx, sheetID)
	if err != nil {
		h.respondWithAnswerError(ctx, err)
		return
	}

	respondWithSuccess(ctx, models.AnswerSheetResponse{Sheet: sheet}, "Hoja de respuestas obtenida exitosamente")
}

// SubmitAnswer maneja POST /api/answers/{id}/submit
func (h *AnswerHandler) SubmitAnswer(ctx *fasthttp.RequestCtx) {
	rctx, cancel := requestContext()
	defer cancel()

	sheetID, _ := ctx.UserValue("id").(string)

	var request models.SubmitAnswerRequest
	if !decodeBody(ctx, &request, false) {
		return
	}

	sheet, err := h.answerService.SubmitAnswer(rctx, sheetID, request.QuestionID, request.Text)
	if err != nil {
		h.respondWithAnswerError(ctx, err)
		return
	}

	respondWithSuccess(ctx, models.AnswerSheetResponse{Sheet: sheet}, "Respuesta registrada exitosamente")
}

func (h *AnswerHandler) respondWithAnswerError(ctx *fasthttp.RequestCtx, err error) {
	switch {
	case errors.Is(err, services.ErrAnswerSheetNotFound), errors.Is(err, services.ErrAnswerNotFound):
		respondWithError(ctx, fasthttp.StatusNotFound, err.Error())
	default:
		respondWithError(ctx, fasthttp.StatusInternalServerError, fmt.Sprintf("Error procesando respuestas: %v", err))
	}
}
