package controller

import (
	"course_quiz_backend/internal/service"
	"course_quiz_backend/internal/util"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService    *service.QuizService
	StorageService *service.StorageService
}

func NewQuizController(quizService *service.QuizService, storageService *service.StorageService) *QuizController {
	return &QuizController{QuizService: quizService, StorageService: storageService}
}

// CreateQuiz godoc
// @Summary 创建试卷
// @Description 创建试卷及题目。存在校验错误时返回 400 和逐题的错误列表。
// @Tags 试卷
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.QuizReq true "试卷及题目"
// @Success 201 {object} util.Response{data=object}
// @Failure 400 {object} util.Response{data=service.QuizValidationResult} "校验失败"
// @Router /api/quizzes [post]
func (c *QuizController) CreateQuiz(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.QuizReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, validation, err := c.QuizService.CreateQuiz(claims.UserID, &req)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrQuizInvalid):
			ctx.JSON(http.StatusBadRequest, util.Response{
				Code:    http.StatusBadRequest,
				Message: err.Error(),
				Data:    validation,
			})
		case errors.Is(err, util.ErrCourseNotFound):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, gin.H{"quiz": quiz, "warnings": validation.Warnings})
}

// UpdateQuiz godoc
// @Summary 更新试卷
// @Description 更新试卷字段；携带 questions 时按 ID 做差量更新。
// @Tags 试卷
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "试卷 ID"
// @Param   body body service.QuizReq true "试卷字段"
// @Success 200 {object} util.Response{data=object}
// @Failure 400 {object} util.Response{data=service.QuizValidationResult} "校验失败"
// @Failure 404 {object} util.Response
// @Router /api/quizzes/{id} [put]
func (c *QuizController) UpdateQuiz(ctx *gin.Context) {
	quizID := util.MustParseUint(ctx.Param("id"))
	if quizID == 0 {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	var req service.QuizReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, validation, err := c.QuizService.UpdateQuiz(quizID, &req)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrQuizInvalid):
			ctx.JSON(http.StatusBadRequest, util.Response{
				Code:    http.StatusBadRequest,
				Message: err.Error(),
				Data:    validation,
			})
		case errors.Is(err, util.ErrQuizNotFound):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, gin.H{"quiz": quiz, "warnings": validation.Warnings})
}

// DeleteQuiz godoc
// @Summary 删除试卷及题目
// @Tags 试卷
// @Security BearerAuth
// @Param   id path int true "试卷 ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/quizzes/{id} [delete]
func (c *QuizController) DeleteQuiz(ctx *gin.Context) {
	quizID := util.MustParseUint(ctx.Param("id"))
	if quizID == 0 {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	if err := c.QuizService.DeleteQuiz(quizID); err != nil {
		if errors.Is(err, util.ErrQuizNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}

// GetQuiz godoc
// @Summary 试卷详情（出题侧，含正确答案）
// @Tags 试卷
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "试卷 ID"
// @Success 200 {object} util.Response{data=service.QuizDetail}
// @Failure 404 {object} util.Response
// @Router /api/quizzes/{id} [get]
func (c *QuizController) GetQuiz(ctx *gin.Context) {
	quizID := util.MustParseUint(ctx.Param("id"))
	if quizID == 0 {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	detail, err := c.QuizService.GetQuizDetail(quizID)
	if err != nil {
		if errors.Is(err, util.ErrQuizNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, detail)
}

// ListQuizzes godoc
// @Summary 试卷列表
// @Tags 试卷
// @Produce  json
// @Security BearerAuth
// @Param   courseId query int false "按课程过滤"
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/quizzes [get]
func (c *QuizController) ListQuizzes(ctx *gin.Context) {
	page, limit := pageParams(ctx)
	courseID := util.MustParseUint(ctx.DefaultQuery("courseId", "0"))

	rows, total, err := c.QuizService.ListQuizzes(courseID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: rows, Total: total, Page: page, Limit: limit})
}

// ValidateQuiz godoc
// @Summary 校验试卷草稿
// @Description 对草稿运行完整校验而不落库，供出题界面预检。
// @Tags 试卷
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.QuizReq true "试卷草稿"
// @Success 200 {object} util.Response{data=service.QuizValidationResult}
// @Router /api/quizzes/validate [post]
func (c *QuizController) ValidateQuiz(ctx *gin.Context) {
	var req service.QuizReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, c.QuizService.ValidateDraft(&req))
}

// UploadQuestionImage godoc
// @Summary 上传题图
// @Tags 试卷
// @Accept  multipart/form-data
// @Produce  json
// @Security BearerAuth
// @Param   file formData file true "图片文件"
// @Success 200 {object} util.Response{data=object}
// @Router /api/quizzes/images [post]
func (c *QuizController) UploadQuestionImage(ctx *gin.Context) {
	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	src, err := file.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer src.Close()

	contentType := file.Header.Get("Content-Type")
	url, err := c.StorageService.UploadQuestionImage(ctx.Request.Context(), file.Filename, src, file.Size, contentType)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, gin.H{"url": url})
}
