package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	questionsKey      = "quiz:bank:questions"
	metadataKey       = "quiz:bank:metadata"
	answerSheetPrefix = "quiz:answers:"

	// maxTxRetries intentos de una transacción WATCH cuando otra escritura
	// gana la carrera. Cada fallo implica un commit ajeno, así que alcanza
	// para tantos escritores concurrentes como intentos.
	maxTxRetries = 50
)

// ErrNotFound se devuelve cuando la clave solicitada no existe
var ErrNotFound = errors.New("not found")

// RedisClient estructura para manejar conexiones con Redis
type RedisClient struct {
	client *redis.Client
}

// StoredQuestion representación de una pregunta tal como se guarda en Redis
type StoredQuestion struct {
	ID        int      `json:"id"`
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Body      string   `json:"body"`
	Expected  string   `json:"expected"`
	Options   []string `json:"options"`
	Points    int      `json:"points"`
	Published bool     `json:"published"`
}

// StoredMetadata metadatos del banco tal como se guardan en Redis
type StoredMetadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Version     string `json:"version"`
	LastUpdated string `json:"lastUpdated"`
}

// BankData estructura del JSON completo del banco
type BankData struct {
	Questions []StoredQuestion `json:"questions"`
	Metadata  StoredMetadata   `json:"metadata"`
}

// NewRedisClient crea una nueva instancia del cliente Redis y verifica la conexión
func NewRedisClient(ctx context.Context, addr, password string, db int) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("error conectando a Redis en %s: %w", addr, err)
	}

	log.Info().Str("addr", addr).Int("db", db).Msg("✅ Conexión exitosa a Redis")

	return &RedisClient{client: rdb}, nil
}

// LoadBankFromJSON reemplaza el banco completo con el contenido del JSON
func (r *RedisClient) LoadBankFromJSON(ctx context.Context, jsonData []byte) (int, error) {
	var data BankData
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return 0, fmt.Errorf("error parsing JSON: %w", err)
	}
	if data.Questions == nil {
		data.Questions = []StoredQuestion{}
	}

	questionsJSON, err := json.Marshal(data.Questions)
	if err != nil {
		return 0, fmt.Errorf("error serializing questions: %w", err)
	}
	metadataJSON, err := json.Marshal(data.Metadata)
	if err != nil {
		return 0, fmt.Errorf("error serializing metadata: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, questionsKey, questionsJSON, 0)
		pipe.Set(ctx, metadataKey, metadataJSON, 0)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("error saving bank: %w", err)
	}

	log.Info().Int("count", len(data.Questions)).Msg("📚 Banco de preguntas cargado en Redis")
	return len(data.Questions), nil
}

// GetQuestions obtiene la secuencia ordenada de preguntas. Un banco sin
// cargar equivale a una secuencia vacía.
func (r *RedisClient) GetQuestions(ctx context.Context) ([]StoredQuestion, error) {
	return getQuestions(ctx, r.client)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func getQuestions(ctx context.Context, c getter) ([]StoredQuestion, error) {
	raw, err := c.Get(ctx, questionsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return []StoredQuestion{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error getting questions: %w", err)
	}

	var questions []StoredQuestion
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, fmt.Errorf("error parsing questions: %w", err)
	}
	return questions, nil
}

// UpdateQuestions aplica fn sobre la secuencia actual y guarda el resultado
// de forma atómica (WATCH/MULTI). Si fn devuelve error no se escribe nada.
func (r *RedisClient) UpdateQuestions(ctx context.Context, fn func([]StoredQuestion) ([]StoredQuestion, error)) ([]StoredQuestion, error) {
	var updated []StoredQuestion

	txf := func(tx *redis.Tx) error {
		current, err := getQuestions(ctx, tx)
		if err != nil {
			return err
		}

		next, err := fn(current)
		if err != nil {
			return err
		}
		if next == nil {
			next = []StoredQuestion{}
		}

		payload, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("error serializing questions: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, questionsKey, payload, 0)
			return nil
		})
		if err != nil {
			return err
		}
		updated = next
		return nil
	}

	if err := r.watchWithRetry(ctx, questionsKey, txf); err != nil {
		return nil, err
	}
	return updated, nil
}

// watchWithRetry ejecuta txf vigilando key y lo repite mientras EXEC falle
// por una escritura concurrente. Los errores de txf se devuelven tal cual.
func (r *RedisClient) watchWithRetry(ctx context.Context, key string, txf func(*redis.Tx) error) error {
	for i := 0; i < maxTxRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			log.Debug().Str("key", key).Int("attempt", i+1).Msg("🔁 Conflicto de escritura, reintentando")
			continue
		}
		return err
	}
	return fmt.Errorf("error updating %s: %d intentos fallidos: %w", key, maxTxRetries, redis.TxFailedErr)
}

// GetMetadata obtiene los metadatos del banco
func (r *RedisClient) GetMetadata(ctx context.Context) (*StoredMetadata, error) {
	raw, err := r.client.Get(ctx, metadataKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("metadata: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error getting metadata: %w", err)
	}

	var metadata StoredMetadata
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return nil, fmt.Errorf("error parsing metadata: %w", err)
	}
	return &metadata, nil
}

// SaveAnswerSheet guarda una hoja de respuestas serializada con expiración
func (r *RedisClient) SaveAnswerSheet(ctx context.Context, id string, sheet interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(sheet)
	if err != nil {
		return fmt.Errorf("error serializing answer sheet: %w", err)
	}
	return r.client.Set(ctx, answerSheetPrefix+id, payload, ttl).Err()
}

// UpdateAnswerSheet lee la hoja id, le aplica fn y guarda lo que fn devuelve
// de forma atómica (WATCH/MULTI), renovando la expiración. fn recibe el JSON
// guardado y puede ejecutarse más de una vez.
func (r *RedisClient) UpdateAnswerSheet(ctx context.Context, id string, ttl time.Duration, fn func(raw []byte) (interface{}, error)) error {
	key := answerSheetPrefix + id

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("answer sheet %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("error getting answer sheet: %w", err)
		}

		sheet, err := fn(raw)
		if err != nil {
			return err
		}
		payload, err := json.Marshal(sheet)
		if err != nil {
			return fmt.Errorf("error serializing answer sheet: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, ttl)
			return nil
		})
		return err
	}

	return r.watchWithRetry(ctx, key, txf)
}

// GetAnswerSheet carga una hoja de respuestas en out
func (r *RedisClient) GetAnswerSheet(ctx context.Context, id string, out interface{}) error {
	raw, err := r.client.Get(ctx, answerSheetPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("answer sheet %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("error getting answer sheet: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("error parsing answer sheet: %w", err)
	}
	return nil
}

// Close cierra la conexión con Redis
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// HealthCheck verifica que Redis esté funcionando
func (r *RedisClient) HealthCheck(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}
