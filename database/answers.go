package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/siherrmann/matcher/helper"
	"github.com/siherrmann/matcher/model"
	loadSql "github.com/siherrmann/matcher/sql"
)

// AnswersDBHandlerFunctions defines the interface for Answer database operations.
type AnswersDBHandlerFunctions interface {
	StoreAnswer(answer *model.Answer, promptLocator string, completionID string) (*model.Answer, error)
	GetAnswersByPrompt(prompt *model.Prompt, filterValid bool) ([]*model.Answer, error)
}

// AnswersDBHandler handles answer-related database operations
type AnswersDBHandler struct {
	db *helper.Database
}

// NewAnswersDBHandler creates a new answers database handler.
// It loads the answers table schema if it does not exist yet.
func NewAnswersDBHandler(db *helper.Database, force bool) (*AnswersDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	answersDbHandler := &AnswersDBHandler{
		db: db,
	}

	err := loadSql.LoadAnswersSql(answersDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load answers sql", err)
	}

	db.Logger.Info("Initialized AnswersDBHandler")

	return answersDbHandler, nil
}

// StoreAnswer inserts a new answer row linked to its originating prompt and
// the raw completion it came from. completionID may be empty when the raw
// completion could not be logged.
func (h *AnswersDBHandler) StoreAnswer(answer *model.Answer, promptLocator string, completionID string) (*model.Answer, error) {
	promptID, err := locatorFromString(promptLocator)
	if err != nil {
		return nil, helper.NewError("resolve prompt locator", err)
	}

	data, err := json.Marshal(answer)
	if err != nil {
		return nil, helper.NewError("marshal answer", err)
	}

	var externalID sql.NullString
	if completionID != "" {
		externalID = sql.NullString{String: completionID, Valid: true}
	}

	inserted, err := h.db.Instance.Exec(
		`INSERT INTO answers (chatcompletions_id, prompt_id, valid, hash, data) VALUES (?, ?, ?, ?, ?)`,
		externalID,
		promptID,
		answer.Valid,
		answer.Digest(),
		string(data),
	)
	if err != nil {
		return nil, helper.NewError("insert answer", err)
	}

	id, err := inserted.LastInsertId()
	if err != nil {
		return nil, helper.NewError("last insert id", err)
	}

	answer.Meta = answer.Meta.WithPath(strconv.FormatInt(id, 10))

	return answer, nil
}

// GetAnswersByPrompt retrieves the stored answers for a prompt in insertion
// order. With filterValid set, only answers that passed the validity check
// are returned; dispatch uses this to resume partially-completed prompts.
func (h *AnswersDBHandler) GetAnswersByPrompt(prompt *model.Prompt, filterValid bool) ([]*model.Answer, error) {
	promptID, err := locatorID(prompt.Meta)
	if err != nil {
		return nil, helper.NewError("resolve prompt locator", err)
	}

	query := `SELECT id, data FROM answers WHERE prompt_id = ? ORDER BY id`
	if filterValid {
		query = `SELECT id, data FROM answers WHERE prompt_id = ? AND valid = 1 ORDER BY id`
	}

	rows, err := h.db.Instance.Query(query, promptID)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var answers []*model.Answer
	for rows.Next() {
		var id int64
		var data string
		err := rows.Scan(&id, &data)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		answer := &model.Answer{}
		err = json.Unmarshal([]byte(data), answer)
		if err != nil {
			return nil, helper.NewError("unmarshal answer", err)
		}
		answer.Meta = answer.Meta.WithPath(strconv.FormatInt(id, 10))

		answers = append(answers, answer)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return answers, nil
}
