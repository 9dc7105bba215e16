package repository

import (
	"course_quiz_backend/internal/model"

	"gorm.io/gorm"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

func (r *AttemptRepository) Create(attempt *model.QuizAttempt) error {
	return r.DB.Create(attempt).Error
}

func (r *AttemptRepository) Update(attempt *model.QuizAttempt) error {
	return r.DB.Save(attempt).Error
}

func (r *AttemptRepository) FindByID(id string) (*model.QuizAttempt, error) {
	var attempt model.QuizAttempt
	err := r.DB.First(&attempt, "id = ?", id).Error
	return &attempt, err
}

// FindActive 返回用户在某试卷上进行中的答题（如有）
func (r *AttemptRepository) FindActive(userID, quizID uint) (*model.QuizAttempt, error) {
	var attempt model.QuizAttempt
	err := r.DB.Where("user_id = ? AND quiz_id = ? AND status = ?",
		userID, quizID, model.AttemptInProgress).First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

// SaveResult 在一个事务里落库：答题终态 + 结果 + 单题明细。
// 评分结果只写一次，冲突说明该答题已持久化过。
func (r *AttemptRepository) SaveResult(attempt *model.QuizAttempt, result *model.QuizResult) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(attempt).Error; err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&model.QuizResult{}).Where("attempt_id = ?", result.AttemptID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		return tx.Create(result).Error
	})
}

func (r *AttemptRepository) FindResultByAttempt(attemptID string) (*model.QuizResult, error) {
	var result model.QuizResult
	err := r.DB.Preload("PerQuestion").First(&result, "attempt_id = ?", attemptID).Error
	return &result, err
}

type AttemptHistoryRow struct {
	model.QuizAttempt
	QuizTitle  string   `json:"quizTitle"`
	Percentage *int     `json:"percentage,omitempty"`
	Passed     *bool    `json:"passed,omitempty"`
	Earned     *float64 `json:"earnedPoints,omitempty"`
}

// ListByUser 学生答题历史（含成绩），最新在前
func (r *AttemptRepository) ListByUser(userID uint, page, limit int) ([]AttemptHistoryRow, int64, error) {
	var total int64
	if err := r.DB.Model(&model.QuizAttempt{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []AttemptHistoryRow
	offset := (page - 1) * limit
	err := r.DB.Table("quiz_attempts a").
		Select("a.*, z.title as quiz_title, r.percentage, r.passed, r.earned_points as earned").
		Joins("JOIN quizzes z ON a.quiz_id = z.id").
		Joins("LEFT JOIN quiz_results r ON r.attempt_id = a.id").
		Where("a.user_id = ? AND a.deleted_at IS NULL", userID).
		Order("a.created_at desc").
		Offset(offset).Limit(limit).
		Scan(&rows).Error
	return rows, total, err
}

type QuizSubmissionRow struct {
	model.QuizAttempt
	UserName   string   `json:"userName"`
	UserEmail  string   `json:"userEmail"`
	Percentage *int     `json:"percentage,omitempty"`
	Passed     *bool    `json:"passed,omitempty"`
}

// ListByQuiz 教师侧查看某试卷的全部提交
func (r *AttemptRepository) ListByQuiz(quizID uint, page, limit int, studentName string) ([]QuizSubmissionRow, int64, error) {
	query := r.DB.Table("quiz_attempts a").
		Joins("JOIN users u ON a.user_id = u.id").
		Where("a.quiz_id = ? AND a.deleted_at IS NULL", quizID)
	if studentName != "" {
		query = query.Where("u.name LIKE ?", "%"+studentName+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []QuizSubmissionRow
	offset := (page - 1) * limit
	err := query.
		Select("a.*, u.name as user_name, u.email as user_email, r.percentage, r.passed").
		Joins("LEFT JOIN quiz_results r ON r.attempt_id = a.id").
		Order("a.created_at desc").
		Offset(offset).Limit(limit).
		Scan(&rows).Error
	return rows, total, err
}
