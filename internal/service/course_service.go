package service

import (
	"course_quiz_backend/internal/model"
	"course_quiz_backend/internal/repository"
	"course_quiz_backend/internal/util"
	"errors"
	"time"
)

type CourseService struct {
	Repo *repository.CourseRepository
}

func NewCourseService(repo *repository.CourseRepository) *CourseService {
	return &CourseService{Repo: repo}
}

type CourseReq struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	CoverImage  *string `json:"coverImage"`
	IsPublished *bool   `json:"isPublished"`
}

func (s *CourseService) CreateCourse(creatorID uint, req CourseReq) (*model.Course, error) {
	if req.Title == nil || *req.Title == "" {
		return nil, errors.New("title is required")
	}

	course := &model.Course{
		Title:     *req.Title,
		CreatorID: creatorID,
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.CoverImage != nil {
		course.CoverImage = *req.CoverImage
	}
	if req.IsPublished != nil && *req.IsPublished {
		course.IsPublished = true
		now := time.Now()
		course.PublishedAt = &now
	}

	if err := s.Repo.Create(course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) UpdateCourse(courseID uint, req CourseReq) (*model.Course, error) {
	course, err := s.Repo.FindByID(courseID)
	if err != nil {
		return nil, util.ErrCourseNotFound
	}

	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.CoverImage != nil {
		course.CoverImage = *req.CoverImage
	}
	if req.IsPublished != nil {
		if *req.IsPublished && !course.IsPublished {
			now := time.Now()
			course.PublishedAt = &now
		}
		course.IsPublished = *req.IsPublished
	}

	if err := s.Repo.Update(course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) DeleteCourse(courseID uint) error {
	return s.Repo.Delete(courseID)
}

func (s *CourseService) GetCourse(courseID uint) (*model.Course, error) {
	course, err := s.Repo.FindByID(courseID)
	if err != nil {
		return nil, util.ErrCourseNotFound
	}
	return course, nil
}

func (s *CourseService) ListCourses(page, limit int, publishedOnly bool) ([]repository.CourseListRow, int64, error) {
	return s.Repo.List(page, limit, publishedOnly)
}
