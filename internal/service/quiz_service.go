package service

import (
	"course_quiz_backend/internal/model"
	"course_quiz_backend/internal/repository"
	"course_quiz_backend/internal/util"
	"course_quiz_backend/pkg/logger"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// QuizService 出题侧的试卷与题目管理。保存路径上强制走校验器和
// 答案编解码器，保证落库的题目总能被评分引擎消费。
type QuizService struct {
	Repo       *repository.QuizRepository
	CourseRepo *repository.CourseRepository
}

func NewQuizService(repo *repository.QuizRepository, courseRepo *repository.CourseRepository) *QuizService {
	return &QuizService{Repo: repo, CourseRepo: courseRepo}
}

// QuestionReq 题目写入请求。Answer 为题型对应的规范形态，由
// 编解码器写入存储槽位。
type QuestionReq struct {
	ID            uint               `json:"id,omitempty"` // 更新时携带已有题目 ID，0 表示新题
	QuestionType  model.QuestionType `json:"questionType"`
	Prompt        string             `json:"prompt"`
	Points        int                `json:"points"`
	Difficulty    model.Difficulty   `json:"difficulty"`
	Order         int                `json:"order"`
	Explanation   string             `json:"explanation"`
	ImageURL      string             `json:"imageUrl"`
	Options       []string           `json:"options,omitempty"`
	LeftItems     []model.MatchItem  `json:"leftItems,omitempty"`
	RightItems    []model.MatchItem  `json:"rightItems,omitempty"`
	Items         []model.MatchItem  `json:"items,omitempty"`
	Shuffle       bool               `json:"shuffle"`
	CaseSensitive bool               `json:"caseSensitive"`
	PartialCredit bool               `json:"partialCredit"`
	MinWords      int                `json:"minWords"`
	MaxWords      int                `json:"maxWords"`
	Answer        interface{}        `json:"answer"`
}

// QuizReq 试卷写入请求。指针字段为 nil 表示不修改；
// TimeLimitSeconds 传 0 表示清除限时。
type QuizReq struct {
	CourseID         *uint          `json:"courseId"`
	Title            *string        `json:"title"`
	Description      *string        `json:"description"`
	TimeLimitSeconds *int           `json:"timeLimitSeconds"`
	PassingScore     *int           `json:"passingScore"`
	ShuffleQuestions *bool          `json:"shuffleQuestions"`
	IsPublished      *bool          `json:"isPublished"`
	Questions        *[]QuestionReq `json:"questions"`
}

// buildQuestion 把写入请求装配成模型，答案经编解码器写入槽位。
// 编码失败（形态与题型不符）转成该题的校验错误而不是硬错误。
func buildQuestion(req *QuestionReq) (*model.Question, *ValidationIssue) {
	q := &model.Question{
		QuestionType:  req.QuestionType,
		Prompt:        req.Prompt,
		Points:        req.Points,
		Difficulty:    req.Difficulty,
		Order:         req.Order,
		Explanation:   req.Explanation,
		ImageURL:      req.ImageURL,
		Shuffle:       req.Shuffle,
		CaseSensitive: req.CaseSensitive,
		PartialCredit: req.PartialCredit,
		MinWords:      req.MinWords,
		MaxWords:      req.MaxWords,
	}
	q.ID = req.ID
	if q.Points <= 0 {
		q.Points = 1
	}
	if q.Difficulty == "" {
		q.Difficulty = model.DifficultyMedium
	}

	if len(req.Options) > 0 {
		raw, _ := json.Marshal(req.Options)
		q.Options = string(raw)
	}
	if len(req.LeftItems) > 0 {
		raw, _ := json.Marshal(req.LeftItems)
		q.LeftItems = string(raw)
	}
	if len(req.RightItems) > 0 {
		raw, _ := json.Marshal(req.RightItems)
		q.RightItems = string(raw)
	}
	if len(req.Items) > 0 {
		raw, _ := json.Marshal(req.Items)
		q.Items = string(raw)
	}

	if req.Answer != nil {
		if err := EncodeCorrectAnswer(q, req.Answer); err != nil {
			return q, &ValidationIssue{Field: "answer", Message: err.Error()}
		}
	}
	return q, nil
}

func buildQuestions(reqs []QuestionReq) ([]model.Question, QuizValidationResult) {
	var res QuizValidationResult
	questions := make([]model.Question, 0, len(reqs))
	for i := range reqs {
		q, issue := buildQuestion(&reqs[i])
		if issue != nil {
			res.Errors = append(res.Errors, QuizIssue{Position: i, Field: issue.Field, Message: issue.Message})
		}
		questions = append(questions, *q)
	}
	return questions, res
}

func mergeIssues(dst *QuizValidationResult, src QuizValidationResult) {
	dst.Errors = append(dst.Errors, src.Errors...)
	dst.Warnings = append(dst.Warnings, src.Warnings...)
}

func (s *QuizService) applyQuizReq(quiz *model.Quiz, req *QuizReq) {
	if req.CourseID != nil {
		quiz.CourseID = *req.CourseID
	}
	if req.Title != nil {
		quiz.Title = *req.Title
	}
	if req.Description != nil {
		quiz.Description = *req.Description
	}
	if req.TimeLimitSeconds != nil {
		if *req.TimeLimitSeconds <= 0 {
			quiz.TimeLimitSeconds = nil
		} else {
			limit := *req.TimeLimitSeconds
			quiz.TimeLimitSeconds = &limit
		}
	}
	if req.PassingScore != nil {
		quiz.PassingScore = *req.PassingScore
	}
	if req.ShuffleQuestions != nil {
		quiz.ShuffleQuestions = *req.ShuffleQuestions
	}
	if req.IsPublished != nil {
		if *req.IsPublished && !quiz.IsPublished {
			now := time.Now()
			quiz.PublishedAt = &now
		}
		quiz.IsPublished = *req.IsPublished
	}
}

// CreateQuiz 创建试卷及题目。存在校验错误时不落库，返回
// ErrQuizInvalid 和聚合的校验结果；警告不阻止保存。
func (s *QuizService) CreateQuiz(creatorID uint, req *QuizReq) (*model.Quiz, *QuizValidationResult, error) {
	quiz := &model.Quiz{CreatorID: creatorID, PassingScore: 60}
	s.applyQuizReq(quiz, req)

	if quiz.Title == "" {
		res := &QuizValidationResult{
			Errors: []QuizIssue{{Position: -1, Field: "title", Message: "title is required"}},
		}
		return nil, res, util.ErrQuizInvalid
	}
	if quiz.CourseID > 0 {
		if _, err := s.CourseRepo.FindByID(quiz.CourseID); err != nil {
			return nil, nil, util.ErrCourseNotFound
		}
	}

	var questions []model.Question
	res := QuizValidationResult{}
	if req.Questions != nil {
		var buildRes QuizValidationResult
		questions, buildRes = buildQuestions(*req.Questions)
		mergeIssues(&res, buildRes)
	}
	mergeIssues(&res, ValidateQuiz(quiz, questions))
	if !res.IsValid() {
		return nil, &res, util.ErrQuizInvalid
	}

	if err := s.Repo.CreateQuiz(quiz); err != nil {
		return nil, nil, err
	}
	for i := range questions {
		questions[i].QuizID = quiz.ID
		if err := s.Repo.CreateQuestion(&questions[i]); err != nil {
			return nil, nil, err
		}
	}

	logger.Log.Info("quiz created",
		zap.Uint("quizId", quiz.ID),
		zap.Uint("creatorId", creatorID),
		zap.Int("questions", len(questions)),
	)
	return quiz, &res, nil
}

// UpdateQuiz 更新试卷。携带 Questions 时按 ID 做差量：已有 ID 更新，
// 新 ID 创建，缺失的删除。发布中的试卷同样允许修改，新答题会拿到
// 新题目，进行中的答题继续使用开始时的快照。
func (s *QuizService) UpdateQuiz(quizID uint, req *QuizReq) (*model.Quiz, *QuizValidationResult, error) {
	quiz, err := s.Repo.FindQuizByID(quizID)
	if err != nil {
		return nil, nil, util.ErrQuizNotFound
	}
	s.applyQuizReq(quiz, req)

	res := QuizValidationResult{}
	var incoming []model.Question
	if req.Questions != nil {
		var buildRes QuizValidationResult
		incoming, buildRes = buildQuestions(*req.Questions)
		mergeIssues(&res, buildRes)
		mergeIssues(&res, ValidateQuiz(quiz, incoming))
	} else {
		existing, err := s.Repo.ListQuestions(quizID)
		if err != nil {
			return nil, nil, err
		}
		mergeIssues(&res, ValidateQuiz(quiz, existing))
	}
	if !res.IsValid() {
		return nil, &res, util.ErrQuizInvalid
	}

	if err := s.Repo.UpdateQuiz(quiz); err != nil {
		return nil, nil, err
	}

	if req.Questions != nil {
		existing, err := s.Repo.ListQuestions(quizID)
		if err != nil {
			return nil, nil, err
		}
		keep := make(map[uint]bool, len(incoming))
		for i := range incoming {
			incoming[i].QuizID = quizID
			if incoming[i].ID > 0 {
				keep[incoming[i].ID] = true
				if err := s.Repo.UpdateQuestion(&incoming[i]); err != nil {
					return nil, nil, err
				}
			} else {
				if err := s.Repo.CreateQuestion(&incoming[i]); err != nil {
					return nil, nil, err
				}
			}
		}
		for i := range existing {
			if !keep[existing[i].ID] {
				if err := s.Repo.DeleteQuestion(existing[i].ID); err != nil {
					return nil, nil, err
				}
			}
		}
	}

	return quiz, &res, nil
}

func (s *QuizService) DeleteQuiz(quizID uint) error {
	if _, err := s.Repo.FindQuizByID(quizID); err != nil {
		return util.ErrQuizNotFound
	}
	return s.Repo.DeleteQuiz(quizID)
}

// AuthorQuestion 出题侧的题目视图，Answer 为解码后的规范形态
type AuthorQuestion struct {
	StudentQuestion
	Explanation string      `json:"explanation,omitempty"`
	Answer      interface{} `json:"answer"`
}

// QuizDetail 出题侧试卷详情
type QuizDetail struct {
	Quiz      *model.Quiz      `json:"quiz"`
	Questions []AuthorQuestion `json:"questions"`
}

// GetQuizDetail 返回试卷及全部题目（含正确答案），供出题侧编辑
func (s *QuizService) GetQuizDetail(quizID uint) (*QuizDetail, error) {
	quiz, err := s.Repo.FindQuizByID(quizID)
	if err != nil {
		return nil, util.ErrQuizNotFound
	}
	questions, err := s.Repo.ListQuestions(quizID)
	if err != nil {
		return nil, err
	}

	views := studentView(questions)
	out := make([]AuthorQuestion, len(questions))
	for i := range questions {
		answer, err := DecodeCorrectAnswer(&questions[i])
		if err != nil {
			answer = nil
		}
		out[i] = AuthorQuestion{
			StudentQuestion: views[i],
			Explanation:     questions[i].Explanation,
			Answer:          answer,
		}
	}
	return &QuizDetail{Quiz: quiz, Questions: out}, nil
}

// ListQuizzes 试卷列表，courseID 为 0 时不过滤课程
func (s *QuizService) ListQuizzes(courseID uint, page, limit int) ([]repository.QuizListRow, int64, error) {
	return s.Repo.ListQuizzes(courseID, page, limit)
}

// ValidateDraft 校验草稿而不落库，供出题界面的预检接口使用
func (s *QuizService) ValidateDraft(req *QuizReq) *QuizValidationResult {
	quiz := &model.Quiz{PassingScore: 60}
	s.applyQuizReq(quiz, req)

	res := QuizValidationResult{}
	var questions []model.Question
	if req.Questions != nil {
		var buildRes QuizValidationResult
		questions, buildRes = buildQuestions(*req.Questions)
		mergeIssues(&res, buildRes)
	}
	mergeIssues(&res, ValidateQuiz(quiz, questions))
	return &res
}
