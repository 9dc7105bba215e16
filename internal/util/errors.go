package util

import "errors"

var (
	ErrUserNotFound        = errors.New("用户不存在")
	ErrEmailRegistered     = errors.New("该邮箱已被注册")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrCourseNotFound      = errors.New("course not found")
	ErrQuizNotFound        = errors.New("quiz not found")
	ErrQuizNotPublished    = errors.New("quiz not published or not accessible")
	ErrQuestionNotFound    = errors.New("question not found")
	ErrQuizInvalid         = errors.New("quiz has validation errors")
	ErrAttemptNotFound     = errors.New("attempt not found")
	ErrAttemptNotActive    = errors.New("attempt is not in progress")
	ErrAttemptFinished     = errors.New("attempt already finished")
	ErrResultPersistFailed = errors.New("result computed but not persisted")
)
