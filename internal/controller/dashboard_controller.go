package controller

import (
	"course_quiz_backend/internal/service"
	"course_quiz_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type DashboardController struct {
	AttemptService *service.AttemptService
}

func NewDashboardController(attemptService *service.AttemptService) *DashboardController {
	return &DashboardController{AttemptService: attemptService}
}

// History godoc
// @Summary 学生答题历史
// @Tags 看板
// @Produce  json
// @Security BearerAuth
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/dashboard/history [get]
func (c *DashboardController) History(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	page, limit := pageParams(ctx)

	rows, total, err := c.AttemptService.History(claims.UserID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: rows, Total: total, Page: page, Limit: limit})
}

// Submissions godoc
// @Summary 某试卷的全部提交（教师侧）
// @Tags 看板
// @Produce  json
// @Security BearerAuth
// @Param   quizId path int true "试卷 ID"
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量"
// @Param   student query string false "按学生姓名过滤"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/dashboard/quizzes/{quizId}/submissions [get]
func (c *DashboardController) Submissions(ctx *gin.Context) {
	quizID := util.MustParseUint(ctx.Param("quizId"))
	if quizID == 0 {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}
	page, limit := pageParams(ctx)

	rows, total, err := c.AttemptService.Submissions(quizID, page, limit, ctx.Query("student"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: rows, Total: total, Page: page, Limit: limit})
}
