package view

import "github.com/hitoshi/deepsoal/internal/model"

// GroupByQuestion は回答を親質問ごとに分割する。
// 質問の順序は回答リストでの初出順を保持し、各グループ内の回答の順序も
// 入力の順序のまま変更しない（安定グルーピング）。
func GroupByQuestion(answers []model.Answer) []model.AnswerGroup {
	var groups []model.AnswerGroup
	index := make(map[int]int) // QuestionID -> groupsの添字

	for _, answer := range answers {
		i, seen := index[answer.QuestionID]
		if !seen {
			i = len(groups)
			index[answer.QuestionID] = i
			groups = append(groups, model.AnswerGroup{
				QuestionID:   answer.QuestionID,
				QuestionText: answer.QuestionText,
			})
		}
		groups[i].Answers = append(groups[i].Answers, answer)
	}

	return groups
}
