package service

import (
	"course_quiz_backend/internal/model"
	"course_quiz_backend/pkg/logger"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// 正确答案历史上拆分在三个槽位中存储，这里是唯一允许读写槽位的地方：
//
//	fill_blank / essay                     -> 文本槽 AnswerText
//	multiple_choice / matching / ordering  -> 结构槽 AnswerJSON（JSON 序列化）
//	single_choice / true_false             -> 数值槽 AnswerIndex
//
// 读取侧对坏数据一律降级为空值并记告警，不允许异常传到答题流程。

// DecodeCorrectAnswer 按题型从槽位读出规范化的正确答案。
// 返回值类型依题型而定：
//
//	single_choice: int        multiple_choice: []int
//	true_false:    bool       fill_blank:      string 或 []string
//	essay:         string     matching:        []model.MatchPair
//	ordering:      []string
func DecodeCorrectAnswer(q *model.Question) (interface{}, error) {
	switch q.QuestionType {
	case model.FillBlank:
		// 文本槽可能存单个字符串，也可能存 JSON 数组（多个可接受答案）
		raw := q.AnswerText
		if strings.HasPrefix(strings.TrimSpace(raw), "[") {
			var accepted []string
			if err := json.Unmarshal([]byte(raw), &accepted); err == nil {
				return accepted, nil
			}
			decodeWarn(q, "fill_blank answer looks like a list but failed to parse")
		}
		return raw, nil

	case model.Essay:
		return q.AnswerText, nil

	case model.MultipleChoice:
		var indices []int
		if q.AnswerJSON == "" {
			return []int{}, nil
		}
		if err := json.Unmarshal([]byte(q.AnswerJSON), &indices); err != nil {
			decodeWarn(q, "malformed multiple_choice answer")
			return []int{}, nil
		}
		return indices, nil

	case model.Matching:
		var pairs []model.MatchPair
		if q.AnswerJSON == "" {
			return []model.MatchPair{}, nil
		}
		if err := json.Unmarshal([]byte(q.AnswerJSON), &pairs); err != nil {
			decodeWarn(q, "malformed matching answer")
			return []model.MatchPair{}, nil
		}
		return pairs, nil

	case model.Ordering:
		var order []string
		if q.AnswerJSON == "" {
			return []string{}, nil
		}
		if err := json.Unmarshal([]byte(q.AnswerJSON), &order); err != nil {
			decodeWarn(q, "malformed ordering answer")
			return []string{}, nil
		}
		return order, nil

	case model.SingleChoice:
		return q.AnswerIndex, nil

	case model.TrueFalse:
		return q.AnswerIndex != 0, nil
	}

	return nil, fmt.Errorf("unhandled question type %q", q.QuestionType)
}

// EncodeCorrectAnswer 将规范化答案写回对应槽位，仅供出题保存路径使用。
// 三个槽位先清空再写入，保证旧题型遗留的槽位内容不会泄漏到评分。
func EncodeCorrectAnswer(q *model.Question, answer interface{}) error {
	q.AnswerIndex = 0
	q.AnswerText = ""
	q.AnswerJSON = ""

	switch q.QuestionType {
	case model.FillBlank, model.Essay:
		if list, ok := asStringSlice(answer); ok && q.QuestionType == model.FillBlank {
			raw, err := json.Marshal(list)
			if err != nil {
				return err
			}
			q.AnswerText = string(raw)
			return nil
		}
		s, ok := answer.(string)
		if !ok {
			return fmt.Errorf("%s answer must be a string", q.QuestionType)
		}
		q.AnswerText = s
		return nil

	case model.MultipleChoice:
		indices, ok := asIntSlice(answer)
		if !ok {
			return fmt.Errorf("multiple_choice answer must be a list of option indices")
		}
		raw, err := json.Marshal(indices)
		if err != nil {
			return err
		}
		q.AnswerJSON = string(raw)
		return nil

	case model.Matching:
		pairs, ok := asPairs(answer)
		if !ok {
			return fmt.Errorf("matching answer must be a list of {leftId, rightId} pairs")
		}
		raw, err := json.Marshal(pairs)
		if err != nil {
			return err
		}
		q.AnswerJSON = string(raw)
		return nil

	case model.Ordering:
		order, ok := asStringSlice(answer)
		if !ok {
			return fmt.Errorf("ordering answer must be a list of item ids")
		}
		raw, err := json.Marshal(order)
		if err != nil {
			return err
		}
		q.AnswerJSON = string(raw)
		return nil

	case model.SingleChoice:
		idx, ok := asInt(answer)
		if !ok {
			return fmt.Errorf("single_choice answer must be an option index")
		}
		q.AnswerIndex = idx
		return nil

	case model.TrueFalse:
		b, ok := answer.(bool)
		if !ok {
			return fmt.Errorf("true_false answer must be a boolean")
		}
		if b {
			q.AnswerIndex = 1
		} else {
			q.AnswerIndex = 0
		}
		return nil
	}

	return fmt.Errorf("unhandled question type %q", q.QuestionType)
}

// NormalizeAnswer 校验并规范化学生提交的答案。JSON 解码产生的
// float64/[]interface{} 在这里统一成与正确答案相同的形状；
// 形状不符返回 ok=false，调用方应静默丢弃。
func NormalizeAnswer(q *model.Question, answer interface{}) (interface{}, bool) {
	if answer == nil {
		return nil, false
	}

	switch q.QuestionType {
	case model.SingleChoice:
		idx, ok := asInt(answer)
		if !ok || idx < 0 {
			return nil, false
		}
		if opts := q.OptionList(); opts != nil && idx >= len(opts) {
			return nil, false
		}
		return idx, true

	case model.MultipleChoice:
		indices, ok := asIntSlice(answer)
		if !ok {
			return nil, false
		}
		opts := q.OptionList()
		for _, idx := range indices {
			if idx < 0 || (opts != nil && idx >= len(opts)) {
				return nil, false
			}
		}
		return indices, true

	case model.TrueFalse:
		b, ok := answer.(bool)
		if !ok {
			return nil, false
		}
		return b, true

	case model.FillBlank, model.Essay:
		s, ok := answer.(string)
		if !ok {
			return nil, false
		}
		return s, true

	case model.Matching:
		pairs, ok := asPairs(answer)
		if !ok {
			return nil, false
		}
		return pairs, true

	case model.Ordering:
		order, ok := asStringSlice(answer)
		if !ok {
			return nil, false
		}
		return order, true
	}

	return nil, false
}

func decodeWarn(q *model.Question, msg string) {
	if logger.Log == nil {
		return
	}
	logger.Log.Warn(msg,
		zap.Uint("questionId", q.ID),
		zap.String("questionType", string(q.QuestionType)),
	)
}

func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
	}
	return 0, false
}

func asIntSlice(v interface{}) ([]int, bool) {
	switch s := v.(type) {
	case []int:
		return s, true
	case []interface{}:
		out := make([]int, 0, len(s))
		for _, e := range s {
			n, ok := asInt(e)
			if !ok {
				return nil, false
			}
			out = append(out, n)
		}
		return out, true
	}
	return nil, false
}

func asStringSlice(v interface{}) ([]string, bool) {
	switch s := v.(type) {
	case []string:
		return s, true
	case []interface{}:
		out := make([]string, 0, len(s))
		for _, e := range s {
			str, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return out, true
	}
	return nil, false
}

func asPairs(v interface{}) ([]model.MatchPair, bool) {
	switch p := v.(type) {
	case []model.MatchPair:
		return p, true
	case []interface{}:
		out := make([]model.MatchPair, 0, len(p))
		for _, e := range p {
			m, ok := e.(map[string]interface{})
			if !ok {
				return nil, false
			}
			left, lok := m["leftId"].(string)
			right, rok := m["rightId"].(string)
			if !lok || !rok {
				return nil, false
			}
			out = append(out, model.MatchPair{LeftID: left, RightID: right})
		}
		return out, true
	}
	return nil, false
}
