package repository

import (
	"course_quiz_backend/internal/model"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) Create(course *model.Course) error {
	return r.DB.Create(course).Error
}

func (r *CourseRepository) FindByID(id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.First(&course, id).Error
	return &course, err
}

func (r *CourseRepository) Update(course *model.Course) error {
	return r.DB.Save(course).Error
}

func (r *CourseRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var quizIDs []uint
		if err := tx.Model(&model.Quiz{}).Where("course_id = ?", id).Pluck("id", &quizIDs).Error; err != nil {
			return err
		}
		if len(quizIDs) > 0 {
			if err := tx.Where("quiz_id IN ?", quizIDs).Delete(&model.Question{}).Error; err != nil {
				return err
			}
			if err := tx.Where("course_id = ?", id).Delete(&model.Quiz{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&model.Course{}, id).Error
	})
}

type CourseListRow struct {
	model.Course
	QuizCount int `json:"quizCount"`
}

func (r *CourseRepository) List(page, limit int, publishedOnly bool) ([]CourseListRow, int64, error) {
	var total int64
	query := r.DB.Model(&model.Course{})
	if publishedOnly {
		query = query.Where("is_published = ?", true)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []CourseListRow
	dbQuery := r.DB.Table("courses c").
		Select("c.*, (SELECT COUNT(*) FROM quizzes q WHERE q.course_id = c.id AND q.deleted_at IS NULL) as quiz_count").
		Where("c.deleted_at IS NULL")
	if publishedOnly {
		dbQuery = dbQuery.Where("c.is_published = ?", true)
	}

	offset := (page - 1) * limit
	err := dbQuery.Order("c.created_at desc").Offset(offset).Limit(limit).Scan(&rows).Error
	return rows, total, err
}
