package models

import "time"

// BankMetadata metadatos del banco de preguntas
type BankMetadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Version     string `json:"version"`
	LastUpdated string `json:"lastUpdated"`
}

// BankFile estructura del archivo JSON de carga inicial
type BankFile struct {
	Questions []Question   `json:"questions"`
	Metadata  BankMetadata `json:"metadata"`
}

// AnswerSheet hoja de respuestas generada a partir del banco
type AnswerSheet struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Answers   []Answer  `json:"answers"`
}

// APIResponse estructura estándar para respuestas de API
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// QuestionResponse respuesta con una sola pregunta
type QuestionResponse struct {
	Question *Question `json:"question"`
}

// QuestionListResponse respuesta con la secuencia completa de preguntas
type QuestionListResponse struct {
	Questions []Question `json:"questions"`
	Count     int        `json:"count"`
}

// MetadataResponse metadatos junto al total de preguntas
type MetadataResponse struct {
	Metadata *BankMetadata `json:"metadata"`
	Count    int           `json:"count"`
}

// PointsResponse totales de puntos del banco
type PointsResponse struct {
	Total     int `json:"total"`
	Published int `json:"published"`
}

// AnswerSheetResponse respuesta para hojas de respuestas
type AnswerSheetResponse struct {
	Sheet *AnswerSheet `json:"sheet,omitempty"`
}
