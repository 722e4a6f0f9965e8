package models

// AddQuestionRequest request para agregar una pregunta. ID 0 asigna el siguiente libre.
type AddQuestionRequest struct {
	ID   int          `json:"id"`
	Name string       `json:"name"`
	Type QuestionType `json:"type"`
}

// RenameQuestionRequest request para renombrar una pregunta
type RenameQuestionRequest struct {
	Name string `json:"name"`
}

// ChangeTypeRequest request para cambiar el tipo de una pregunta
type ChangeTypeRequest struct {
	Type QuestionType `json:"type"`
}

// EditOptionRequest request para editar una opción. Sin índice se agrega al final.
type EditOptionRequest struct {
	Index  *int   `json:"index"`
	Option string `json:"option"`
}

// DuplicateQuestionRequest request para duplicar una pregunta
type DuplicateQuestionRequest struct {
	NewID int `json:"newId"`
}

// AnswerSheetCreateRequest request para crear una hoja de respuestas
type AnswerSheetCreateRequest struct {
	PublishedOnly bool `json:"publishedOnly"`
}

// SubmitAnswerRequest request para responder una pregunta de la hoja
type SubmitAnswerRequest struct {
	QuestionID int    `json:"questionId"`
	Text       string `json:"text"`
}
