package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/medfellows/quizforge-api/internal/domain"
)

// QueryExecutor runs one SQL statement against the question bank and
// returns its rows. Statements use ? placeholders; each executor adapts
// them to its own wire format. Non-row-returning statements yield nil rows.
type QueryExecutor interface {
	Execute(ctx context.Context, stmt string, args ...any) ([]map[string]any, error)
}

// Subject is one subject row under a category.
type Subject struct {
	ID   int64  `json:"id"`
	Name string `json:"subjectName"`
}

// Topic is one topic row under a subject.
type Topic struct {
	ID   int64  `json:"id"`
	Name string `json:"topicName"`
}

// QuestionService reads and mutates the external question bank.
type QuestionService struct {
	exec   QueryExecutor
	logger *slog.Logger
}

// NewQuestionService creates a QuestionService backed by the given executor.
func NewQuestionService(exec QueryExecutor, logger *slog.Logger) *QuestionService {
	return &QuestionService{exec: exec, logger: logger}
}

// Question loads one question with its answer options.
func (s *QuestionService) Question(ctx context.Context, questionID int64) (domain.Question, error) {
	rows, err := s.exec.Execute(ctx,
		"SELECT questionId, question FROM tblquestion WHERE questionId = ?", questionID)
	if err != nil {
		return domain.Question{}, fmt.Errorf("failed to load question: %w", err)
	}
	if len(rows) == 0 {
		return domain.Question{}, fmt.Errorf("%w: id %d", ErrQuestionNotFound, questionID)
	}

	q := domain.Question{
		ID:   asInt64(rows[0]["questionId"]),
		Text: asString(rows[0]["question"]),
	}

	options, err := s.optionsFor(ctx, questionID)
	if err != nil {
		return domain.Question{}, err
	}
	if len(options) == 0 {
		return domain.Question{}, fmt.Errorf("%w: question %d", domain.ErrNoOptions, questionID)
	}
	q.Options = options

	if _, ok := q.CorrectOption(); !ok {
		return domain.Question{}, fmt.Errorf("%w: question %d", domain.ErrNoCorrectOption, questionID)
	}
	return q, nil
}

// QuestionsForScope resolves a category/subject/topic scope to the set of
// questions it covers, each with its answer options attached. With
// generateAll set, the topic name is ignored and every question under the
// subject that still lacks an explanation is returned; the resulting set
// may legitimately be empty.
func (s *QuestionService) QuestionsForScope(
	ctx context.Context,
	categoryID int64,
	subjectName string,
	topicName string,
	generateAll bool,
) ([]domain.Question, error) {
	subjectID, err := s.subjectID(ctx, categoryID, subjectName)
	if err != nil {
		return nil, err
	}

	var idRows []map[string]any
	if generateAll {
		idRows, err = s.exec.Execute(ctx, `
			SELECT DISTINCT q.questionId
			FROM tblquestion q
			JOIN topicQueRel rel ON rel.questionId = q.questionId
			JOIN topics t ON t.id = rel.topicId
			WHERE t.subjectId = ? AND (q.description IS NULL OR TRIM(q.description) = '')`,
			subjectID)
	} else {
		var topicID int64
		topicID, err = s.topicID(ctx, subjectID, topicName)
		if err != nil {
			return nil, err
		}
		idRows, err = s.exec.Execute(ctx,
			"SELECT questionId FROM topicQueRel WHERE topicId = ?", topicID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve question ids: %w", err)
	}

	ids := make([]int64, 0, len(idRows))
	for _, row := range idRows {
		ids = append(ids, asInt64(row["questionId"]))
	}
	if len(ids) == 0 {
		if generateAll {
			return nil, nil
		}
		return nil, ErrNoQuestions
	}

	return s.questionsWithOptions(ctx, ids)
}

// SaveExplanation stores a generated explanation on the question.
func (s *QuestionService) SaveExplanation(ctx context.Context, questionID int64, explanation string) error {
	_, err := s.exec.Execute(ctx,
		"UPDATE tblquestion SET description = ? WHERE questionId = ?", explanation, questionID)
	if err != nil {
		return fmt.Errorf("failed to save explanation for question %d: %w", questionID, err)
	}
	s.logger.InfoContext(ctx, "explanation saved",
		"question_id", questionID,
		"explanation_length", len(explanation))
	return nil
}

// Subjects lists the subjects under a category.
func (s *QuestionService) Subjects(ctx context.Context, categoryID int64) ([]Subject, error) {
	rows, err := s.exec.Execute(ctx,
		"SELECT id, subjectName FROM subject WHERE categoryId = ?", categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}

	subjects := make([]Subject, 0, len(rows))
	for _, row := range rows {
		subjects = append(subjects, Subject{
			ID:   asInt64(row["id"]),
			Name: asString(row["subjectName"]),
		})
	}
	return subjects, nil
}

// Topics lists the topics under a subject.
func (s *QuestionService) Topics(ctx context.Context, subjectID int64) ([]Topic, error) {
	rows, err := s.exec.Execute(ctx,
		"SELECT id, topicName FROM topics WHERE subjectId = ?", subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}

	topics := make([]Topic, 0, len(rows))
	for _, row := range rows {
		topics = append(topics, Topic{
			ID:   asInt64(row["id"]),
			Name: asString(row["topicName"]),
		})
	}
	return topics, nil
}

// QuestionsByTopic lists the questions linked to a topic, without options.
func (s *QuestionService) QuestionsByTopic(ctx context.Context, topicID int64) ([]domain.Question, error) {
	idRows, err := s.exec.Execute(ctx,
		"SELECT questionId FROM topicQueRel WHERE topicId = ?", topicID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve question ids: %w", err)
	}
	if len(idRows) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(idRows))
	for _, row := range idRows {
		ids = append(ids, asInt64(row["questionId"]))
	}

	stmt := fmt.Sprintf(
		"SELECT questionId, question, description FROM tblquestion WHERE questionId IN (%s)",
		placeholders(len(ids)))
	rows, err := s.exec.Execute(ctx, stmt, toAnySlice(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}

	questions := make([]domain.Question, 0, len(rows))
	for _, row := range rows {
		questions = append(questions, domain.Question{
			ID:          asInt64(row["questionId"]),
			Text:        asString(row["question"]),
			Explanation: asString(row["description"]),
		})
	}
	return questions, nil
}

// QuestionWithExplanation loads one question including its stored
// explanation and answer options.
func (s *QuestionService) QuestionWithExplanation(ctx context.Context, questionID int64) (domain.Question, error) {
	rows, err := s.exec.Execute(ctx,
		"SELECT questionId, question, description FROM tblquestion WHERE questionId = ?", questionID)
	if err != nil {
		return domain.Question{}, fmt.Errorf("failed to load question: %w", err)
	}
	if len(rows) == 0 {
		return domain.Question{}, fmt.Errorf("%w: id %d", ErrQuestionNotFound, questionID)
	}

	q := domain.Question{
		ID:          asInt64(rows[0]["questionId"]),
		Text:        asString(rows[0]["question"]),
		Explanation: asString(rows[0]["description"]),
	}

	options, err := s.optionsFor(ctx, questionID)
	if err != nil {
		return domain.Question{}, err
	}
	q.Options = options
	return q, nil
}

// ExplanationsByTopic lists the questions under a topic that already carry
// an explanation, each with its answer options.
func (s *QuestionService) ExplanationsByTopic(
	ctx context.Context,
	categoryID int64,
	subjectName string,
	topicName string,
) ([]domain.Question, error) {
	ids, err := s.topicQuestionIDs(ctx, categoryID, subjectName, topicName)
	if err != nil {
		return nil, err
	}

	questions, err := s.questionsWithOptions(ctx, ids)
	if err != nil {
		return nil, err
	}

	explained := make([]domain.Question, 0, len(questions))
	for _, q := range questions {
		if q.HasExplanation() {
			explained = append(explained, q)
		}
	}
	return explained, nil
}

// DeleteExplanation clears the stored explanation of one question.
func (s *QuestionService) DeleteExplanation(ctx context.Context, questionID int64) error {
	rows, err := s.exec.Execute(ctx,
		"SELECT description FROM tblquestion WHERE questionId = ?", questionID)
	if err != nil {
		return fmt.Errorf("failed to check question: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: id %d", ErrQuestionNotFound, questionID)
	}
	if strings.TrimSpace(asString(rows[0]["description"])) == "" {
		return fmt.Errorf("%w: id %d", ErrNoExplanation, questionID)
	}

	_, err = s.exec.Execute(ctx,
		"UPDATE tblquestion SET description = NULL WHERE questionId = ?", questionID)
	if err != nil {
		return fmt.Errorf("failed to delete explanation: %w", err)
	}
	s.logger.InfoContext(ctx, "explanation deleted", "question_id", questionID)
	return nil
}

// DeleteExplanationsByTopic clears the stored explanations of every
// question under a topic and returns how many questions were targeted.
func (s *QuestionService) DeleteExplanationsByTopic(
	ctx context.Context,
	categoryID int64,
	subjectName string,
	topicName string,
) (int, error) {
	ids, err := s.topicQuestionIDs(ctx, categoryID, subjectName, topicName)
	if err != nil {
		return 0, err
	}

	stmt := fmt.Sprintf(
		"UPDATE tblquestion SET description = NULL WHERE questionId IN (%s)",
		placeholders(len(ids)))
	if _, err := s.exec.Execute(ctx, stmt, toAnySlice(ids)...); err != nil {
		return 0, fmt.Errorf("failed to delete explanations: %w", err)
	}

	s.logger.InfoContext(ctx, "topic explanations deleted",
		"topic", topicName,
		"question_count", len(ids))
	return len(ids), nil
}

// HealthCheck verifies the question bank is reachable.
func (s *QuestionService) HealthCheck(ctx context.Context) error {
	rows, err := s.exec.Execute(ctx, "SELECT 1 as test")
	if err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	if len(rows) == 0 || asInt64(rows[0]["test"]) != 1 {
		return fmt.Errorf("database health probe returned unexpected result")
	}
	return nil
}

func (s *QuestionService) subjectID(ctx context.Context, categoryID int64, subjectName string) (int64, error) {
	rows, err := s.exec.Execute(ctx,
		"SELECT id FROM subject WHERE categoryId = ? AND subjectName = ?", categoryID, subjectName)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve subject: %w", err)
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("%w: %q in category %d", ErrSubjectNotFound, subjectName, categoryID)
	}
	return asInt64(rows[0]["id"]), nil
}

func (s *QuestionService) topicID(ctx context.Context, subjectID int64, topicName string) (int64, error) {
	rows, err := s.exec.Execute(ctx,
		"SELECT id FROM topics WHERE subjectId = ? AND topicName = ?", subjectID, topicName)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve topic: %w", err)
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("%w: %q", ErrTopicNotFound, topicName)
	}
	return asInt64(rows[0]["id"]), nil
}

func (s *QuestionService) topicQuestionIDs(
	ctx context.Context,
	categoryID int64,
	subjectName string,
	topicName string,
) ([]int64, error) {
	subjectID, err := s.subjectID(ctx, categoryID, subjectName)
	if err != nil {
		return nil, err
	}
	topicID, err := s.topicID(ctx, subjectID, topicName)
	if err != nil {
		return nil, err
	}

	idRows, err := s.exec.Execute(ctx,
		"SELECT questionId FROM topicQueRel WHERE topicId = ?", topicID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve question ids: %w", err)
	}
	if len(idRows) == 0 {
		return nil, ErrNoQuestions
	}

	ids := make([]int64, 0, len(idRows))
	for _, row := range idRows {
		ids = append(ids, asInt64(row["questionId"]))
	}
	return ids, nil
}

// questionsWithOptions loads the given questions and attaches their answer
// options grouped by question id. Questions without options are kept;
// callers that need options validate per question.
func (s *QuestionService) questionsWithOptions(ctx context.Context, ids []int64) ([]domain.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	args := toAnySlice(ids)
	stmt := fmt.Sprintf(
		"SELECT questionId, question, description FROM tblquestion WHERE questionId IN (%s)",
		placeholders(len(ids)))
	questionRows, err := s.exec.Execute(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	if len(questionRows) == 0 {
		return nil, nil
	}

	stmt = fmt.Sprintf(
		"SELECT questionId, questionImageText, isCorrectAnswer FROM tblquestionoption WHERE questionId IN (%s)",
		placeholders(len(ids)))
	optionRows, err := s.exec.Execute(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load options: %w", err)
	}

	optionsByQuestion := make(map[int64][]domain.Option, len(questionRows))
	for _, row := range optionRows {
		qid := asInt64(row["questionId"])
		optionsByQuestion[qid] = append(optionsByQuestion[qid], domain.Option{
			QuestionID: qid,
			Text:       asString(row["questionImageText"]),
			Correct:    isTrue(row["isCorrectAnswer"]),
		})
	}

	questions := make([]domain.Question, 0, len(questionRows))
	for _, row := range questionRows {
		qid := asInt64(row["questionId"])
		questions = append(questions, domain.Question{
			ID:          qid,
			Text:        asString(row["question"]),
			Explanation: asString(row["description"]),
			Options:     optionsByQuestion[qid],
		})
	}
	return questions, nil
}

func (s *QuestionService) optionsFor(ctx context.Context, questionID int64) ([]domain.Option, error) {
	rows, err := s.exec.Execute(ctx,
		"SELECT questionId, questionImageText, isCorrectAnswer FROM tblquestionoption WHERE questionId = ?",
		questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load options: %w", err)
	}

	options := make([]domain.Option, 0, len(rows))
	for _, row := range rows {
		options = append(options, domain.Option{
			QuestionID: asInt64(row["questionId"]),
			Text:       asString(row["questionImageText"]),
			Correct:    isTrue(row["isCorrectAnswer"]),
		})
	}
	return options, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func toAnySlice(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
