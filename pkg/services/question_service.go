package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/backsoul/question-bank/pkg/models"
	"github.com/backsoul/question-bank/pkg/questions"
	"github.com/backsoul/question-bank/pkg/redis"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
)

// ErrQuestionNotFound se devuelve cuando no existe una pregunta con el id pedido
var ErrQuestionNotFound = errors.New("question not found")

// Tipo de mensaje que se difunde cada vez que cambia la secuencia de preguntas
const QuestionsChangedMessage = "questions"

// Broadcaster difunde mensajes a los clientes conectados
type Broadcaster interface {
	BroadcastMessage(msgType string, data interface{})
}

// QuestionService aplica las transformaciones del banco sobre la secuencia guardada en Redis
type QuestionService struct {
	redisClient *redis.RedisClient
	broadcaster Broadcaster

	// writeMu ordena las difusiones igual que los commits
	writeMu sync.Mutex
}

// NewQuestionService crea una nueva instancia del servicio. broadcaster puede ser nil.
func NewQuestionService(redisClient *redis.RedisClient, broadcaster Broadcaster) *QuestionService {
	return &QuestionService{
		redisClient: redisClient,
		broadcaster: broadcaster,
	}
}

func toModels(stored []redis.StoredQuestion) ([]models.Question, error) {
	out := make([]models.Question, 0, len(stored))
	if err := copier.CopyWithOption(&out, &stored, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("error convirtiendo preguntas: %w", err)
	}
	for i := range out {
		if out[i].Options == nil {
			out[i].Options = []string{}
		}
	}
	return out, nil
}

func toStored(qs []models.Question) ([]redis.StoredQuestion, error) {
	out := make([]redis.StoredQuestion, 0, len(qs))
	if err := copier.CopyWithOption(&out, &qs, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("error convirtiendo preguntas: %w", err)
	}
	return out, nil
}

// LoadQuestionsFromFile carga el banco desde el archivo JSON a Redis
func (s *QuestionService) LoadQuestionsFromFile(ctx context.Context, filePath string) (int, error) {
	log.Info().Str("file", filePath).Msg("📂 Cargando preguntas")

	jsonData, err := os.ReadFile(filePath)
	if err != nil {
		return 0, fmt.Errorf("error leyendo archivo JSON: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	count, err := s.redisClient.LoadBankFromJSON(ctx, jsonData)
	if err != nil {
		return 0, fmt.Errorf("error cargando preguntas a Redis: %w", err)
	}

	if qs, err := s.GetAllQuestions(ctx); err == nil {
		s.broadcast(qs)
	}
	return count, nil
}

// ReloadQuestions recarga las preguntas desde el archivo JSON
func (s *QuestionService) ReloadQuestions(ctx context.Context, filePath string) (int, error) {
	log.Info().Msg("🔄 Recargando preguntas...")

	count, err := s.LoadQuestionsFromFile(ctx, filePath)
	if err != nil {
		return 0, fmt.Errorf("error recargando preguntas: %w", err)
	}

	log.Info().Int("count", count).Msg("✅ Preguntas recargadas exitosamente")
	return count, nil
}

// GetAllQuestions obtiene la secuencia completa en su orden
func (s *QuestionService) GetAllQuestions(ctx context.Context) ([]models.Question, error) {
	stored, err := s.redisClient.GetQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("error obteniendo preguntas de Redis: %w", err)
	}
	return toModels(stored)
}

// GetPublishedQuestions obtiene solo las preguntas publicadas
func (s *QuestionService) GetPublishedQuestions(ctx context.Context) ([]models.Question, error) {
	qs, err := s.GetAllQuestions(ctx)
	if err != nil {
		return nil, err
	}
	return questions.GetPublishedQuestions(qs), nil
}

// GetNonEmptyQuestions obtiene las preguntas con algún contenido
func (s *QuestionService) GetNonEmptyQuestions(ctx context.Context) ([]models.Question, error) {
	qs, err := s.GetAllQuestions(ctx)
	if err != nil {
		return nil, err
	}
	return questions.GetNonEmptyQuestions(qs), nil
}

// GetQuestion obtiene una pregunta específica por ID
func (s *QuestionService) GetQuestion(ctx context.Context, id int) (*models.Question, error) {
	qs, err := s.GetAllQuestions(ctx)
	if err != nil {
		return nil, err
	}
	q := questions.FindQuestion(qs, id)
	if q == nil {
		return nil, fmt.Errorf("pregunta %d: %w", id, ErrQuestionNotFound)
	}
	return q, nil
}

// GetNames obtiene los nombres de las preguntas
func (s *QuestionService) GetNames(ctx context.Context) ([]string, error) {
	qs, err := s.GetAllQuestions(ctx)
	if err != nil {
		return nil, err
	}
	return questions.GetNames(qs), nil
}

// GetPoints obtiene el total de puntos y el total publicado
func (s *QuestionService) GetPoints(ctx context.Context) (models.PointsResponse, error) {
	qs, err := s.GetAllQuestions(ctx)
	if err != nil {
		return models.PointsResponse{}, err
	}
	return models.PointsResponse{
		Total:     questions.SumPoints(qs),
		Published: questions.SumPublishedPoints(qs),
	}, nil
}

// GetCSV exporta el banco en CSV
func (s *QuestionService) GetCSV(ctx context.Context) (string, error) {
	qs, err := s.GetAllQuestions(ctx)
	if err != nil {
		return "", err
	}
	return questions.ToCSV(qs), nil
}

// SameType indica si todas las preguntas del banco comparten tipo
func (s *QuestionService) SameType(ctx context.Context) (bool, error) {
	qs, err := s.GetAllQuestions(ctx)
	if err != nil {
		return false, err
	}
	return questions.SameType(qs), nil
}

// GetMetadata obtiene los metadatos del banco
func (s *QuestionService) GetMetadata(ctx context.Context) (*models.BankMetadata, error) {
	stored, err := s.redisClient.GetMetadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("error obteniendo metadatos: %w", err)
	}
	var metadata models.BankMetadata
	if err := copier.Copy(&metadata, stored); err != nil {
		return nil, fmt.Errorf("error convirtiendo metadatos: %w", err)
	}
	return &metadata, nil
}

// GetQuestionCount obtiene el número total de preguntas
func (s *QuestionService) GetQuestionCount(ctx context.Context) (int, error) {
	stored, err := s.redisClient.GetQuestions(ctx)
	if err != nil {
		return 0, fmt.Errorf("error obteniendo conteo de preguntas: %w", err)
	}
	return len(stored), nil
}

// RemoveQuestion elimina las preguntas con el id dado
func (s *QuestionService) RemoveQuestion(ctx context.Context, id int) ([]models.Question, error) {
	return s.update(ctx, func(qs []models.Question) ([]models.Question, error) {
		return questions.RemoveQuestion(qs, id), nil
	})
}

// PublishAll publica todas las preguntas
func (s *QuestionService) PublishAll(ctx context.Context) ([]models.Question, error) {
	return s.update(ctx, func(qs []models.Question) ([]models.Question, error) {
		return questions.PublishAll(qs), nil
	})
}

// AddQuestion agrega una pregunta en blanco. Con id 0 se asigna el siguiente libre.
func (s *QuestionService) AddQuestion(ctx context.Context, id int, name string, questionType models.QuestionType) ([]models.Question, error) {
	return s.update(ctx, func(qs []models.Question) ([]models.Question, error) {
		newID := id
		if newID == 0 {
			newID = questions.NextID(qs)
		}
		return questions.AddNewQuestion(qs, newID, name, questionType), nil
	})
}

// RenameQuestion cambia el nombre de una pregunta
func (s *QuestionService) RenameQuestion(ctx context.Context, id int, name string) ([]models.Question, error) {
	return s.update(ctx, func(qs []models.Question) ([]models.Question, error) {
		return questions.RenameQuestionByID(qs, id, name), nil
	})
}

// ChangeQuestionType cambia el tipo de una pregunta
func (s *QuestionService) ChangeQuestionType(ctx context.Context, id int, questionType models.QuestionType) ([]models.Question, error) {
	return s.update(ctx, func(qs []models.Question) ([]models.Question, error) {
		return questions.ChangeQuestionTypeByID(qs, id, questionType), nil
	})
}

// EditOption reemplaza o agrega una opción de una pregunta
func (s *QuestionService) EditOption(ctx context.Context, id, index int, option string) ([]models.Question, error) {
	return s.update(ctx, func(qs []models.Question) ([]models.Question, error) {
		return questions.EditOption(qs, id, index, option)
	})
}

// DuplicateQuestion duplica una pregunta justo después del original. Con
// newID 0 se asigna el siguiente libre.
func (s *QuestionService) DuplicateQuestion(ctx context.Context, id, newID int) ([]models.Question, error) {
	return s.update(ctx, func(qs []models.Question) ([]models.Question, error) {
		dupID := newID
		if dupID == 0 {
			dupID = questions.NextID(qs)
		}
		return questions.DuplicateQuestionInArray(qs, id, dupID), nil
	})
}

// HealthCheck verifica que el servicio esté funcionando
func (s *QuestionService) HealthCheck(ctx context.Context) error {
	if err := s.redisClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("error en health check de Redis: %w", err)
	}
	return nil
}

// update aplica fn de forma atómica sobre el banco y difunde la secuencia nueva
func (s *QuestionService) update(ctx context.Context, fn func([]models.Question) ([]models.Question, error)) ([]models.Question, error) {
	var result []models.Question

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := s.redisClient.UpdateQuestions(ctx, func(current []redis.StoredQuestion) ([]redis.StoredQuestion, error) {
		qs, err := toModels(current)
		if err != nil {
			return nil, err
		}
		next, err := fn(qs)
		if err != nil {
			return nil, err
		}
		result = next
		return toStored(next)
	})
	if err != nil {
		return nil, err
	}

	log.Debug().Int("count", len(result)).Msg("💾 Banco actualizado")
	s.broadcast(result)
	return result, nil
}

func (s *QuestionService) broadcast(qs []models.Question) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.BroadcastMessage(QuestionsChangedMessage, qs)
}
