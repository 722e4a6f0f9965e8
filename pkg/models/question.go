package models

// QuestionType tipo de pregunta del banco
type QuestionType string

const (
	ShortAnswerQuestion    QuestionType = "short_answer_question"
	MultipleChoiceQuestion QuestionType = "multiple_choice_question"
)

// Valid indica si el tipo es uno de los soportados
func (t QuestionType) Valid() bool {
	return t == ShortAnswerQuestion || t == MultipleChoiceQuestion
}

// Question estructura para representar una pregunta del banco
type Question struct {
	ID        int          `json:"id"`
	Name      string       `json:"name"`
	Type      QuestionType `json:"type"`
	Body      string       `json:"body"`
	Expected  string       `json:"expected"`
	Options   []string     `json:"options"`
	Points    int          `json:"points"`
	Published bool         `json:"published"`
}

// Answer respuesta de un estudiante a una pregunta
type Answer struct {
	QuestionID int    `json:"questionId"`
	Text       string `json:"text"`
	Correct    bool   `json:"correct"`
	Submitted  bool   `json:"submitted"`
}
