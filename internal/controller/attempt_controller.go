package controller

import (
	"course_quiz_backend/internal/service"
	"course_quiz_backend/internal/util"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type AttemptController struct {
	AttemptService *service.AttemptService
}

func NewAttemptController(attemptService *service.AttemptService) *AttemptController {
	return &AttemptController{AttemptService: attemptService}
}

// StartAttempt godoc
// @Summary 开始答题
// @Description 开始（或恢复）一次答题，返回答题状态和学生侧题目。
// @Tags 答题
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "试卷 ID"
// @Success 200 {object} util.Response{data=service.StartedAttempt}
// @Failure 403 {object} util.Response "试卷未发布"
// @Failure 404 {object} util.Response
// @Router /api/quizzes/{id}/attempts [post]
func (c *AttemptController) StartAttempt(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	quizID := util.MustParseUint(ctx.Param("id"))
	if quizID == 0 {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	started, err := c.AttemptService.StartAttempt(claims.UserID, quizID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrQuizNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrQuizNotPublished):
			util.Forbidden(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, started)
}

// GetState godoc
// @Summary 答题状态快照
// @Tags 答题
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "答题 ID"
// @Success 200 {object} util.Response{data=service.AttemptState}
// @Failure 404 {object} util.Response
// @Router /api/attempts/{id} [get]
func (c *AttemptController) GetState(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	state, err := c.AttemptService.GetState(claims.UserID, ctx.Param("id"))
	if err != nil {
		c.attemptError(ctx, err)
		return
	}
	util.Success(ctx, state)
}

// AnswerRequest 作答请求，value 为题型对应的规范形态
type AnswerRequest struct {
	QuestionID uint        `json:"questionId" binding:"required"`
	Value      interface{} `json:"value"`
}

// SubmitAnswer godoc
// @Summary 记录一题作答
// @Description 进行中的答题记录作答；已终结的答题静默忽略写入。
// @Tags 答题
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "答题 ID"
// @Param   body body AnswerRequest true "作答"
// @Success 200 {object} util.Response
// @Router /api/attempts/{id}/answers [put]
func (c *AttemptController) SubmitAnswer(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req AnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.AttemptService.SubmitAnswer(claims.UserID, ctx.Param("id"), req.QuestionID, req.Value); err != nil {
		c.attemptError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// NavigateRequest 题目导航请求
type NavigateRequest struct {
	Index int `json:"index"`
}

// Navigate godoc
// @Summary 移动当前题目游标
// @Tags 答题
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "答题 ID"
// @Param   body body NavigateRequest true "目标题号（从 0 起）"
// @Success 200 {object} util.Response
// @Router /api/attempts/{id}/navigate [put]
func (c *AttemptController) Navigate(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req NavigateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.AttemptService.Navigate(claims.UserID, ctx.Param("id"), req.Index); err != nil {
		c.attemptError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// Submit godoc
// @Summary 交卷
// @Description 交卷并评分。重复交卷幂等返回同一结果；结果落库失败
// 时返回 202，评分结果保留，可调用重试接口补写。
// @Tags 答题
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "答题 ID"
// @Success 200 {object} util.Response{data=model.QuizResult}
// @Success 202 {object} util.Response{data=model.QuizResult} "已评分但未落库"
// @Router /api/attempts/{id}/submit [post]
func (c *AttemptController) Submit(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.AttemptService.Submit(claims.UserID, ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrResultPersistFailed) {
			ctx.JSON(http.StatusAccepted, util.Response{
				Code:    http.StatusAccepted,
				Message: err.Error(),
				Data:    result,
			})
			return
		}
		c.attemptError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// RetryPersist godoc
// @Summary 重试结果落库
// @Description 交卷后落库失败时补写结果，不会重新评分。
// @Tags 答题
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "答题 ID"
// @Success 200 {object} util.Response{data=model.QuizResult}
// @Router /api/attempts/{id}/persist [post]
func (c *AttemptController) RetryPersist(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.AttemptService.RetryPersist(claims.UserID, ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrResultPersistFailed) {
			ctx.JSON(http.StatusAccepted, util.Response{
				Code:    http.StatusAccepted,
				Message: err.Error(),
				Data:    result,
			})
			return
		}
		c.attemptError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// Abandon godoc
// @Summary 放弃答题
// @Tags 答题
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "答题 ID"
// @Success 200 {object} util.Response
// @Router /api/attempts/{id}/abandon [post]
func (c *AttemptController) Abandon(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.AttemptService.Abandon(claims.UserID, ctx.Param("id")); err != nil {
		c.attemptError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

func (c *AttemptController) attemptError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrAttemptNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrAttemptNotActive), errors.Is(err, util.ErrAttemptFinished):
		util.Conflict(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
