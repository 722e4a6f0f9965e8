package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode"

	"github.com/backsoul/question-bank/pkg/models"
	"github.com/backsoul/question-bank/pkg/questions"
	"github.com/backsoul/question-bank/pkg/redis"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Errores del servicio de respuestas
var (
	ErrAnswerSheetNotFound = errors.New("answer sheet not found")
	ErrAnswerNotFound      = errors.New("answer not found in sheet")
)

// AnswerService maneja las hojas de respuestas generadas desde el banco
type AnswerService struct {
	redisClient     *redis.RedisClient
	questionService *QuestionService
	ttl             time.Duration
	now             func() time.Time
}

// NewAnswerService crea una nueva instancia del servicio de respuestas
func NewAnswerService(redisClient *redis.RedisClient, questionService *QuestionService, ttl time.Duration) *AnswerService {
	return &AnswerService{
		redisClient:     redisClient,
		questionService: questionService,
		ttl:             ttl,
		now:             time.Now,
	}
}

// CreateAnswerSheet crea una hoja con una respuesta vacía por pregunta
func (s *AnswerService) CreateAnswerSheet(ctx context.Context, publishedOnly bool) (*models.AnswerSheet, error) {
	qs, err := s.questionService.GetAllQuestions(ctx)
	if err != nil {
		return nil, err
	}
	if publishedOnly {
		qs = questions.GetPublishedQuestions(qs)
	}

	sheet := &models.AnswerSheet{
		ID:        uuid.New().String(),
		CreatedAt: s.now().UTC(),
		Answers:   questions.MakeAnswers(qs),
	}

	if err := s.redisClient.SaveAnswerSheet(ctx, sheet.ID, sheet, s.ttl); err != nil {
		return nil, fmt.Errorf("error guardando hoja de respuestas: %w", err)
	}

	log.Info().Str("sheet", sheet.ID).Int("answers", len(sheet.Answers)).Msg("📝 Hoja de respuestas creada")
	return sheet, nil
}

// GetAnswerSheet obtiene una hoja de respuestas por ID
func (s *AnswerService) GetAnswerSheet(ctx context.Context, id string) (*models.AnswerSheet, error) {
	var sheet models.AnswerSheet
	if err := s.redisClient.GetAnswerSheet(ctx, id, &sheet); err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return nil, fmt.Errorf("hoja %s: %w", id, ErrAnswerSheetNotFound)
		}
		return nil, err
	}
	return &sheet, nil
}

// SubmitAnswer registra el texto de una respuesta y la califica contra el
// valor esperado de la pregunta. Un nuevo envío reemplaza al anterior. La
// hoja se modifica de forma atómica, así que envíos concurrentes a preguntas
// distintas no se pisan.
func (s *AnswerService) SubmitAnswer(ctx context.Context, sheetID string, questionID int, text string) (*models.AnswerSheet, error) {
	correct := false
	q, err := s.questionService.GetQuestion(ctx, questionID)
	switch {
	case err == nil:
		correct = normalize(text) == normalize(q.Expected)
	case errors.Is(err, ErrQuestionNotFound):
		log.Warn().Int("question", questionID).Str("sheet", sheetID).Msg("⚠️ Pregunta eliminada del banco, respuesta marcada como incorrecta")
	default:
		return nil, err
	}

	var sheet *models.AnswerSheet
	err = s.redisClient.UpdateAnswerSheet(ctx, sheetID, s.ttl, func(raw []byte) (interface{}, error) {
		var current models.AnswerSheet
		if err := json.Unmarshal(raw, &current); err != nil {
			return nil, fmt.Errorf("error leyendo hoja de respuestas: %w", err)
		}

		idx := -1
		for i, a := range current.Answers {
			if a.QuestionID == questionID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("pregunta %d: %w", questionID, ErrAnswerNotFound)
		}

		current.Answers[idx] = models.Answer{
			QuestionID: questionID,
			Text:       text,
			Correct:    correct,
			Submitted:  true,
		}
		sheet = &current
		return &current, nil
	})
	switch {
	case errors.Is(err, redis.ErrNotFound):
		return nil, fmt.Errorf("hoja %s: %w", sheetID, ErrAnswerSheetNotFound)
	case errors.Is(err, ErrAnswerNotFound):
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("error guardando hoja de respuestas: %w", err)
	}
	return sheet, nil
}

// normalize pasa a minúsculas, quita la puntuación y colapsa espacios
func normalize(s string) string {
	out := make([]rune, 0, len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = true
		case unicode.IsPunct(r):
		default:
			if space && len(out) > 0 {
				out = append(out, ' ')
			}
			space = false
			out = append(out, unicode.ToLower(r))
		}
	}
	return string(out)
}
