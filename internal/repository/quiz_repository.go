package repository

import (
	"course_quiz_backend/internal/model"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func (r *QuizRepository) CreateQuiz(quiz *model.Quiz) error {
	return r.DB.Create(quiz).Error
}

func (r *QuizRepository) FindQuizByID(id uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.First(&quiz, id).Error
	return &quiz, err
}

func (r *QuizRepository) UpdateQuiz(quiz *model.Quiz) error {
	return r.DB.Save(quiz).Error
}

func (r *QuizRepository) DeleteQuiz(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quiz_id = ?", id).Delete(&model.Question{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Quiz{}, id).Error
	})
}

type QuizListRow struct {
	model.Quiz
	QuestionCount int `json:"questionCount"`
	AttemptCount  int `json:"attemptCount"`
}

func (r *QuizRepository) ListQuizzes(courseID uint, page, limit int) ([]QuizListRow, int64, error) {
	var total int64
	query := r.DB.Model(&model.Quiz{})
	if courseID > 0 {
		query = query.Where("course_id = ?", courseID)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []QuizListRow
	dbQuery := r.DB.Table("quizzes z").
		Select("z.*, " +
			"(SELECT COUNT(*) FROM questions q WHERE q.quiz_id = z.id AND q.deleted_at IS NULL) as question_count, " +
			"(SELECT COUNT(*) FROM quiz_attempts a WHERE a.quiz_id = z.id AND a.deleted_at IS NULL) as attempt_count").
		Where("z.deleted_at IS NULL")
	if courseID > 0 {
		dbQuery = dbQuery.Where("z.course_id = ?", courseID)
	}

	offset := (page - 1) * limit
	err := dbQuery.Order("z.created_at desc").Offset(offset).Limit(limit).Scan(&rows).Error
	return rows, total, err
}

func (r *QuizRepository) CreateQuestion(q *model.Question) error {
	return r.DB.Create(q).Error
}

func (r *QuizRepository) FindQuestionByID(id uint) (*model.Question, error) {
	var q model.Question
	err := r.DB.First(&q, id).Error
	return &q, err
}

func (r *QuizRepository) UpdateQuestion(q *model.Question) error {
	return r.DB.Save(q).Error
}

func (r *QuizRepository) DeleteQuestion(id uint) error {
	return r.DB.Delete(&model.Question{}, id).Error
}

// ListQuestions 按出题顺序返回试卷的全部题目（含答案槽位，
// 只供服务层使用，学生侧视图由服务层裁剪）
func (r *QuizRepository) ListQuestions(quizID uint) ([]model.Question, error) {
	var qs []model.Question
	err := r.DB.Where("quiz_id = ?", quizID).Order("`order` asc, id asc").Find(&qs).Error
	return qs, err
}
