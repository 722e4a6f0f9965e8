package services

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/backsoul/question-bank/pkg/models"
	"github.com/backsoul/question-bank/pkg/questions"
	"github.com/backsoul/question-bank/pkg/redis"
)

const bankJSON = `{
	"questions": [
		{"id": 1, "name": "Addition", "type": "short_answer_question", "body": "What is 2+2?", "expected": "4", "options": [], "points": 1, "published": false},
		{"id": 2, "name": "Letters", "type": "multiple_choice_question", "body": "What is the last letter?", "expected": "Z", "options": ["A", "B", "Z"], "points": 2, "published": true},
		{"id": 5, "name": "Capital", "type": "short_answer_question", "body": "Capital of France?", "expected": "Paris", "options": [], "points": 3, "published": true}
	],
	"metadata": {"title": "Demo", "description": "Banco de prueba", "version": "1.0", "lastUpdated": "2025-08-01"}
}`

// recorder guarda los mensajes difundidos
type recorder struct {
	mu       sync.Mutex
	messages []string
	last     interface{}
}

func (r *recorder) BroadcastMessage(msgType string, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msgType)
	r.last = data
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

// newTestService crea el servicio sobre un Redis en memoria con el banco cargado.
func newTestService(t *testing.T) (*QuestionService, *redis.RedisClient, *recorder) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := redis.NewRedisClient(context.Background(), mr.Addr(), "", 0)
	if err != nil {
		t.Fatalf("NewRedisClient: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	path := filepath.Join(t.TempDir(), "questions.json")
	if err := os.WriteFile(path, []byte(bankJSON), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	rec := &recorder{}
	svc := NewQuestionService(client, rec)
	if _, err := svc.LoadQuestionsFromFile(context.Background(), path); err != nil {
		t.Fatalf("LoadQuestionsFromFile: %v", err)
	}
	return svc, client, rec
}

func TestQuestionService_Reads(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	all, err := svc.GetAllQuestions(ctx)
	if err != nil {
		t.Fatalf("GetAllQuestions: %v", err)
	}
	if len(all) != 3 || all[0].Type != models.ShortAnswerQuestion || all[1].Options[2] != "Z" {
		t.Fatalf("all = %+v", all)
	}

	published, _ := svc.GetPublishedQuestions(ctx)
	if len(published) != 2 {
		t.Errorf("publicadas = %d, esperado 2", len(published))
	}

	nonEmpty, _ := svc.GetNonEmptyQuestions(ctx)
	if len(nonEmpty) != 3 {
		t.Errorf("no vacías = %d, esperado 3", len(nonEmpty))
	}

	names, _ := svc.GetNames(ctx)
	if len(names) != 3 || names[2] != "Capital" {
		t.Errorf("names = %v", names)
	}

	points, _ := svc.GetPoints(ctx)
	if points.Total != 6 || points.Published != 5 {
		t.Errorf("points = %+v", points)
	}

	csv, _ := svc.GetCSV(ctx)
	want := "id,name,options,points,published\n1,Addition,0,1,false\n2,Letters,3,2,true\n5,Capital,0,3,true"
	if csv != want {
		t.Errorf("csv = %q, esperado %q", csv, want)
	}

	same, _ := svc.SameType(ctx)
	if same {
		t.Errorf("SameType = true, esperado false")
	}

	count, _ := svc.GetQuestionCount(ctx)
	if count != 3 {
		t.Errorf("count = %d", count)
	}

	metadata, err := svc.GetMetadata(ctx)
	if err != nil || metadata.Title != "Demo" {
		t.Errorf("metadata = %+v, err = %v", metadata, err)
	}
}

func TestQuestionService_GetQuestion(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	q, err := svc.GetQuestion(ctx, 5)
	if err != nil {
		t.Fatalf("GetQuestion: %v", err)
	}
	if q.Name != "Capital" {
		t.Errorf("name = %q", q.Name)
	}

	if _, err := svc.GetQuestion(ctx, 99); !errors.Is(err, ErrQuestionNotFound) {
		t.Errorf("err = %v, esperado ErrQuestionNotFound", err)
	}
}

func TestQuestionService_Mutations(t *testing.T) {
	svc, _, rec := newTestService(t)
	ctx := context.Background()
	before := rec.count()

	added, err := svc.AddQuestion(ctx, 0, "New", models.MultipleChoiceQuestion)
	if err != nil {
		t.Fatalf("AddQuestion: %v", err)
	}
	last := added[len(added)-1]
	if last.ID != 6 || last.Points != 1 || last.Published || len(last.Options) != 0 {
		t.Errorf("nueva pregunta = %+v", last)
	}

	if _, err := svc.EditOption(ctx, 6, questions.AppendOption, "yes"); err != nil {
		t.Fatalf("EditOption: %v", err)
	}
	if _, err := svc.EditOption(ctx, 6, 0, "no"); err != nil {
		t.Fatalf("EditOption: %v", err)
	}
	q, _ := svc.GetQuestion(ctx, 6)
	if len(q.Options) != 1 || q.Options[0] != "no" {
		t.Errorf("opciones = %v", q.Options)
	}

	if _, err := svc.RenameQuestion(ctx, 6, "Renamed"); err != nil {
		t.Fatalf("RenameQuestion: %v", err)
	}
	dup, err := svc.DuplicateQuestion(ctx, 6, 0)
	if err != nil {
		t.Fatalf("DuplicateQuestion: %v", err)
	}
	if copyQ := dup[len(dup)-1]; copyQ.ID != 7 || copyQ.Name != "Copy of Renamed" || copyQ.Published {
		t.Errorf("copia = %+v", copyQ)
	}

	changed, err := svc.ChangeQuestionType(ctx, 6, models.ShortAnswerQuestion)
	if err != nil {
		t.Fatalf("ChangeQuestionType: %v", err)
	}
	if q := questions.FindQuestion(changed, 6); q.Type != models.ShortAnswerQuestion || len(q.Options) != 0 {
		t.Errorf("pregunta 6 = %+v", q)
	}

	published, err := svc.PublishAll(ctx)
	if err != nil {
		t.Fatalf("PublishAll: %v", err)
	}
	if questions.SumPublishedPoints(published) != questions.SumPoints(published) {
		t.Errorf("no todas las preguntas quedaron publicadas")
	}

	removed, err := svc.RemoveQuestion(ctx, 1)
	if err != nil {
		t.Fatalf("RemoveQuestion: %v", err)
	}
	if questions.FindQuestion(removed, 1) != nil {
		t.Errorf("la pregunta 1 sigue presente")
	}

	stored, _ := svc.GetAllQuestions(ctx)
	if len(stored) != len(removed) {
		t.Errorf("Redis tiene %d preguntas, esperado %d", len(stored), len(removed))
	}

	if got := rec.count() - before; got != 8 {
		t.Errorf("mensajes difundidos = %d, esperado 8", got)
	}
}

func TestQuestionService_EditOptionOutOfRange(t *testing.T) {
	svc, _, rec := newTestService(t)
	ctx := context.Background()
	before := rec.count()

	_, err := svc.EditOption(ctx, 2, 10, "x")
	if !errors.Is(err, questions.ErrOptionIndexOutOfRange) {
		t.Fatalf("err = %v, esperado ErrOptionIndexOutOfRange", err)
	}

	q, _ := svc.GetQuestion(ctx, 2)
	if len(q.Options) != 3 {
		t.Errorf("opciones = %v, el banco no debía cambiar", q.Options)
	}
	if rec.count() != before {
		t.Errorf("no se esperaba difusión tras un error")
	}
}

func TestAnswerService(t *testing.T) {
	svc, client, _ := newTestService(t)
	ctx := context.Background()
	answers := NewAnswerService(client, svc, time.Hour)

	sheet, err := answers.CreateAnswerSheet(ctx, true)
	if err != nil {
		t.Fatalf("CreateAnswerSheet: %v", err)
	}
	if sheet.ID == "" || len(sheet.Answers) != 2 {
		t.Fatalf("sheet = %+v", sheet)
	}
	if sheet.Answers[0] != (models.Answer{QuestionID: 2}) {
		t.Errorf("respuesta inicial = %+v", sheet.Answers[0])
	}

	updated, err := answers.SubmitAnswer(ctx, sheet.ID, 5, "  paris. ")
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if a := updated.Answers[1]; !a.Submitted || !a.Correct || a.Text != "  paris. " {
		t.Errorf("respuesta = %+v", a)
	}

	updated, err = answers.SubmitAnswer(ctx, sheet.ID, 2, "A")
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if a := updated.Answers[0]; !a.Submitted || a.Correct {
		t.Errorf("respuesta = %+v", a)
	}

	loaded, err := answers.GetAnswerSheet(ctx, sheet.ID)
	if err != nil {
		t.Fatalf("GetAnswerSheet: %v", err)
	}
	if !loaded.Answers[1].Correct {
		t.Errorf("la respuesta guardada no quedó correcta")
	}

	if _, err := answers.SubmitAnswer(ctx, sheet.ID, 1, "4"); !errors.Is(err, ErrAnswerNotFound) {
		t.Errorf("err = %v, esperado ErrAnswerNotFound", err)
	}
	if _, err := answers.GetAnswerSheet(ctx, "missing"); !errors.Is(err, ErrAnswerSheetNotFound) {
		t.Errorf("err = %v, esperado ErrAnswerSheetNotFound", err)
	}

	all, err := answers.CreateAnswerSheet(ctx, false)
	if err != nil {
		t.Fatalf("CreateAnswerSheet: %v", err)
	}
	if len(all.Answers) != 3 {
		t.Errorf("respuestas = %d, esperado 3", len(all.Answers))
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Paris", "paris"},
		{"  New   York! ", "new york"},
		{"", ""},
		{"e=mc^2", "e=mc^2"},
	}
	for _, tt := range tests {
		if got := normalize(tt.in); got != tt.want {
			t.Errorf("normalize(%q) = %q, esperado %q", tt.in, got, tt.want)
		}
	}
}

// gatedBroadcaster retiene la primera difusión hasta que se cierra release
type gatedBroadcaster struct {
	once    sync.Once
	entered chan struct{}
	release chan struct{}

	mu   sync.Mutex
	last []models.Question
}

func (g *gatedBroadcaster) BroadcastMessage(_ string, data interface{}) {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.release
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last = data.([]models.Question)
}

func TestQuestionService_BroadcastsInCommitOrder(t *testing.T) {
	_, client, _ := newTestService(t)
	ctx := context.Background()

	gate := &gatedBroadcaster{entered: make(chan struct{}), release: make(chan struct{})}
	svc := NewQuestionService(client, gate)

	doneA := make(chan error, 1)
	go func() {
		_, err := svc.RenameQuestion(ctx, 1, "A-rename")
		doneA <- err
	}()
	<-gate.entered

	doneB := make(chan error, 1)
	go func() {
		_, err := svc.RenameQuestion(ctx, 2, "B-rename")
		doneB <- err
	}()

	select {
	case <-doneB:
		t.Fatal("la segunda edición terminó mientras la primera seguía difundiendo")
	case <-time.After(100 * time.Millisecond):
	}

	close(gate.release)
	if err := <-doneA; err != nil {
		t.Fatalf("RenameQuestion A: %v", err)
	}
	if err := <-doneB; err != nil {
		t.Fatalf("RenameQuestion B: %v", err)
	}

	stored, err := svc.GetNames(ctx)
	if err != nil {
		t.Fatalf("GetNames: %v", err)
	}
	gate.mu.Lock()
	last := questions.GetNames(gate.last)
	gate.mu.Unlock()

	if strings.Join(last, ",") != strings.Join(stored, ",") {
		t.Errorf("última difusión = %v, banco = %v", last, stored)
	}
	if stored[0] != "A-rename" || stored[1] != "B-rename" {
		t.Errorf("banco = %v", stored)
	}
}

func TestAnswerService_ConcurrentSubmits(t *testing.T) {
	svc, client, _ := newTestService(t)
	ctx := context.Background()
	answers := NewAnswerService(client, svc, time.Hour)

	sheet, err := answers.CreateAnswerSheet(ctx, false)
	if err != nil {
		t.Fatalf("CreateAnswerSheet: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(sheet.Answers))
	for _, a := range sheet.Answers {
		wg.Add(1)
		go func(questionID int) {
			defer wg.Done()
			_, err := answers.SubmitAnswer(ctx, sheet.ID, questionID, "x")
			errs <- err
		}(a.QuestionID)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("SubmitAnswer: %v", err)
		}
	}

	loaded, err := answers.GetAnswerSheet(ctx, sheet.ID)
	if err != nil {
		t.Fatalf("GetAnswerSheet: %v", err)
	}
	for _, a := range loaded.Answers {
		if !a.Submitted || a.Text != "x" {
			t.Errorf("respuesta perdida: %+v", a)
		}
	}

	if _, err := answers.SubmitAnswer(ctx, "missing", 1, "4"); !errors.Is(err, ErrAnswerSheetNotFound) {
		t.Errorf("err = %v, esperado ErrAnswerSheetNotFound", err)
	}
}

func TestQuestionService_MissingOptionsAreEmpty(t *testing.T) {
	_, client, _ := newTestService(t)
	ctx := context.Background()

	if _, err := client.LoadBankFromJSON(ctx, []byte(`{"questions": [{"id": 1, "name": "Bare", "type": "short_answer_question"}]}`)); err != nil {
		t.Fatalf("LoadBankFromJSON: %v", err)
	}
	svc := NewQuestionService(client, nil)

	all, err := svc.GetAllQuestions(ctx)
	if err != nil {
		t.Fatalf("GetAllQuestions: %v", err)
	}
	if all[0].Options == nil {
		t.Fatal("Options = nil, esperado slice vacío")
	}

	data, err := json.Marshal(all[0])
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"options":[]`) {
		t.Errorf("json = %s", data)
	}
}
