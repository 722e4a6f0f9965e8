// Package questions contiene las transformaciones puras sobre secuencias de
// preguntas. Ninguna función modifica su entrada: todas devuelven una
// secuencia nueva con registros nuevos, y los slices de opciones nunca se
// comparten entre la entrada y la salida.
package questions

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/backsoul/question-bank/pkg/models"
)

// CSVHeader primera línea de la exportación CSV
const CSVHeader = "id,name,options,points,published"

// CopyPrefix prefijo del nombre de una pregunta duplicada
const CopyPrefix = "Copy of "

// AppendOption índice que EditOption interpreta como "agregar al final"
const AppendOption = -1

// ErrOptionIndexOutOfRange se devuelve cuando EditOption recibe un índice
// que no es AppendOption ni una posición existente
var ErrOptionIndexOutOfRange = errors.New("option index out of range")

// clone copia todos los campos de la pregunta, incluido un slice de opciones propio
func clone(q models.Question) models.Question {
	c := q
	c.Options = make([]string, len(q.Options))
	copy(c.Options, q.Options)
	return c
}

func filter(qs []models.Question, keep func(models.Question) bool) []models.Question {
	out := make([]models.Question, 0, len(qs))
	for _, q := range qs {
		if keep(q) {
			out = append(out, clone(q))
		}
	}
	return out
}

func mapByID(qs []models.Question, targetID int, update func(models.Question) models.Question) []models.Question {
	out := make([]models.Question, 0, len(qs))
	for _, q := range qs {
		c := clone(q)
		if q.ID == targetID {
			c = update(c)
		}
		out = append(out, c)
	}
	return out
}

// GetPublishedQuestions devuelve solo las preguntas publicadas
func GetPublishedQuestions(qs []models.Question) []models.Question {
	return filter(qs, func(q models.Question) bool { return q.Published })
}

// GetNonEmptyQuestions descarta las preguntas con cuerpo, respuesta esperada
// y opciones vacíos a la vez
func GetNonEmptyQuestions(qs []models.Question) []models.Question {
	return filter(qs, func(q models.Question) bool {
		return q.Body != "" || q.Expected != "" || len(q.Options) > 0
	})
}

// FindQuestion devuelve una copia de la primera pregunta con el id dado, o nil
func FindQuestion(qs []models.Question, id int) *models.Question {
	for _, q := range qs {
		if q.ID == id {
			found := clone(q)
			return &found
		}
	}
	return nil
}

// RemoveQuestion elimina todas las preguntas con el id dado
func RemoveQuestion(qs []models.Question, id int) []models.Question {
	return filter(qs, func(q models.Question) bool { return q.ID != id })
}

// GetNames devuelve los nombres en el mismo orden
func GetNames(qs []models.Question) []string {
	names := make([]string, 0, len(qs))
	for _, q := range qs {
		names = append(names, q.Name)
	}
	return names
}

// SumPoints suma los puntos de todas las preguntas
func SumPoints(qs []models.Question) int {
	total := 0
	for _, q := range qs {
		total += q.Points
	}
	return total
}

// SumPublishedPoints suma los puntos de las preguntas publicadas
func SumPublishedPoints(qs []models.Question) int {
	total := 0
	for _, q := range qs {
		if q.Published {
			total += q.Points
		}
	}
	return total
}

// ToCSV exporta las preguntas como CSV sin comillas ni salto de línea final.
// Cada fila es id,name,cantidad de opciones,points,published.
func ToCSV(qs []models.Question) string {
	lines := make([]string, 0, len(qs)+1)
	lines = append(lines, CSVHeader)
	for _, q := range qs {
		lines = append(lines, strings.Join([]string{
			strconv.Itoa(q.ID),
			q.Name,
			strconv.Itoa(len(q.Options)),
			strconv.Itoa(q.Points),
			strconv.FormatBool(q.Published),
		}, ","))
	}
	return strings.Join(lines, "\n")
}

// MakeAnswers crea una respuesta vacía por cada pregunta
func MakeAnswers(qs []models.Question) []models.Answer {
	answers := make([]models.Answer, 0, len(qs))
	for _, q := range qs {
		answers = append(answers, models.Answer{
			QuestionID: q.ID,
			Text:       "",
			Correct:    false,
			Submitted:  false,
		})
	}
	return answers
}

// PublishAll marca todas las preguntas como publicadas
func PublishAll(qs []models.Question) []models.Question {
	out := make([]models.Question, 0, len(qs))
	for _, q := range qs {
		c := clone(q)
		c.Published = true
		out = append(out, c)
	}
	return out
}

// SameType indica si todas las preguntas comparten el tipo de la primera.
// Una secuencia vacía cuenta como homogénea.
func SameType(qs []models.Question) bool {
	if len(qs) == 0 {
		return true
	}
	first := qs[0].Type
	for _, q := range qs[1:] {
		if q.Type != first {
			return false
		}
	}
	return true
}

// AddNewQuestion agrega una pregunta en blanco al final. No verifica que el
// id sea único.
func AddNewQuestion(qs []models.Question, id int, name string, questionType models.QuestionType) []models.Question {
	out := make([]models.Question, 0, len(qs)+1)
	for _, q := range qs {
		out = append(out, clone(q))
	}
	return append(out, models.Question{
		ID:        id,
		Name:      name,
		Type:      questionType,
		Body:      "",
		Expected:  "",
		Options:   []string{},
		Points:    1,
		Published: false,
	})
}

// RenameQuestionByID cambia el nombre de la pregunta con targetID
func RenameQuestionByID(qs []models.Question, targetID int, newName string) []models.Question {
	return mapByID(qs, targetID, func(q models.Question) models.Question {
		q.Name = newName
		return q
	})
}

// ChangeQuestionTypeByID cambia el tipo de la pregunta con targetID. Si el
// nuevo tipo no es de opción múltiple, sus opciones quedan vacías.
func ChangeQuestionTypeByID(qs []models.Question, targetID int, newType models.QuestionType) []models.Question {
	return mapByID(qs, targetID, func(q models.Question) models.Question {
		q.Type = newType
		if newType != models.MultipleChoiceQuestion {
			q.Options = []string{}
		}
		return q
	})
}

// EditOption reemplaza la opción en targetOptionIndex de la pregunta con
// targetID, o la agrega al final cuando el índice es AppendOption.
func EditOption(qs []models.Question, targetID int, targetOptionIndex int, newOption string) ([]models.Question, error) {
	for _, q := range qs {
		if q.ID != targetID || targetOptionIndex == AppendOption {
			continue
		}
		if targetOptionIndex < 0 || targetOptionIndex >= len(q.Options) {
			return nil, fmt.Errorf("question %d, index %d (%d options): %w",
				targetID, targetOptionIndex, len(q.Options), ErrOptionIndexOutOfRange)
		}
	}

	return mapByID(qs, targetID, func(q models.Question) models.Question {
		if targetOptionIndex == AppendOption {
			q.Options = append(q.Options, newOption)
		} else {
			q.Options[targetOptionIndex] = newOption
		}
		return q
	}), nil
}

// DuplicateQuestionInArray inserta una copia inmediatamente después de cada
// pregunta con targetID. La copia recibe newID, el nombre "Copy of ..." y
// queda sin publicar.
func DuplicateQuestionInArray(qs []models.Question, targetID int, newID int) []models.Question {
	out := make([]models.Question, 0, len(qs)+1)
	for _, q := range qs {
		out = append(out, clone(q))
		if q.ID == targetID {
			dup := clone(q)
			dup.ID = newID
			dup.Name = CopyPrefix + q.Name
			dup.Published = false
			out = append(out, dup)
		}
	}
	return out
}

// NextID devuelve el id siguiente al mayor de la secuencia (1 si está vacía)
func NextID(qs []models.Question) int {
	next := 1
	for _, q := range qs {
		if q.ID >= next {
			next = q.ID + 1
		}
	}
	return next
}
