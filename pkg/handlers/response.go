package handlers

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/backsoul/question-bank/pkg/models"
	"github.com/valyala/fasthttp"
)

// requestTimeout límite de cada operación contra Redis dentro de un request
const requestTimeout = 5 * time.Second

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// respondWithJSON envía una respuesta JSON
func respondWithJSON(ctx *fasthttp.RequestCtx, statusCode int, response interface{}) {
	ctx.Response.Header.Set("Content-Type", "application/json")
	ctx.SetStatusCode(statusCode)

	jsonData, err := json.Marshal(response)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetBodyString(`{"success": false, "error": "Error al serializar respuesta"}`)
		return
	}

	ctx.SetBody(jsonData)
}

// respondWithError envía una respuesta de error
func respondWithError(ctx *fasthttp.RequestCtx, statusCode int, message string) {
	respondWithJSON(ctx, statusCode, models.APIResponse{
		Success: false,
		Error:   message,
	})
}

// respondWithSuccess envía una respuesta exitosa
func respondWithSuccess(ctx *fasthttp.RequestCtx, data interface{}, message string) {
	respondWithJSON(ctx, fasthttp.StatusOK, models.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// decodeBody decodifica el cuerpo JSON. Un cuerpo vacío deja out sin cambios
// cuando allowEmpty es true.
func decodeBody(ctx *fasthttp.RequestCtx, out interface{}, allowEmpty bool) bool {
	body := ctx.PostBody()
	if len(body) == 0 && allowEmpty {
		return true
	}
	if err := json.Unmarshal(body, out); err != nil {
		respondWithError(ctx, fasthttp.StatusBadRequest, "JSON inválido")
		return false
	}
	return true
}

// questionID lee el parámetro id de la ruta
func questionID(ctx *fasthttp.RequestCtx) (int, bool) {
	idStr, _ := ctx.UserValue("id").(string)
	id, err := strconv.Atoi(idStr)
	if err != nil {
		respondWithError(ctx, fasthttp.StatusBadRequest, "ID de pregunta inválido")
		return 0, false
	}
	return id, true
}

func listResponse(qs []models.Question) models.QuestionListResponse {
	return models.QuestionListResponse{Questions: qs, Count: len(qs)}
}
