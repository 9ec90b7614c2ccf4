package database

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/siherrmann/matcher/helper"
	"github.com/siherrmann/matcher/model"
	loadSql "github.com/siherrmann/matcher/sql"
)

// PromptsDBHandlerFunctions defines the interface for Prompt database operations.
type PromptsDBHandlerFunctions interface {
	StorePrompt(prompt *model.Prompt) (*model.Prompt, error)
	GetPromptsByParameters(parameters *model.Parameters) ([]*model.Prompt, error)
}

// PromptsDBHandler handles prompt-related database operations
type PromptsDBHandler struct {
	db *helper.Database
}

// NewPromptsDBHandler creates a new prompts database handler.
// It loads the prompts table schema if it does not exist yet.
func NewPromptsDBHandler(db *helper.Database, force bool) (*PromptsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	promptsDbHandler := &PromptsDBHandler{
		db: db,
	}

	err := loadSql.LoadPromptsSql(promptsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load prompts sql", err)
	}

	db.Logger.Info("Initialized PromptsDBHandler")

	return promptsDbHandler, nil
}

// StorePrompt inserts a new prompt row linked to its stored parameters and
// attaches the assigned locator to the prompt's meta.
func (h *PromptsDBHandler) StorePrompt(prompt *model.Prompt) (*model.Prompt, error) {
	parametersID, err := locatorID(prompt.Parameters.Meta)
	if err != nil {
		return nil, helper.NewError("resolve parameters locator", err)
	}

	data, err := json.Marshal(prompt)
	if err != nil {
		return nil, helper.NewError("marshal prompt", err)
	}

	inserted, err := h.db.Instance.Exec(
		`INSERT INTO prompts (parameters_id, hash, data) VALUES (?, ?, ?)`,
		parametersID,
		prompt.Digest(),
		string(data),
	)
	if err != nil {
		return nil, helper.NewError("insert prompt", err)
	}

	id, err := inserted.LastInsertId()
	if err != nil {
		return nil, helper.NewError("last insert id", err)
	}

	prompt.Meta = prompt.Meta.WithPath(strconv.FormatInt(id, 10))

	return prompt, nil
}

// GetPromptsByParameters retrieves all prompts generated from the given
// stored parameters, in creation order.
func (h *PromptsDBHandler) GetPromptsByParameters(parameters *model.Parameters) ([]*model.Prompt, error) {
	parametersID, err := locatorID(parameters.Meta)
	if err != nil {
		return nil, helper.NewError("resolve parameters locator", err)
	}

	rows, err := h.db.Instance.Query(
		`SELECT id, data FROM prompts WHERE parameters_id = ? ORDER BY id`,
		parametersID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var prompts []*model.Prompt
	for rows.Next() {
		var id int64
		var data string
		err := rows.Scan(&id, &data)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		prompt := &model.Prompt{}
		err = json.Unmarshal([]byte(data), prompt)
		if err != nil {
			return nil, helper.NewError("unmarshal prompt", err)
		}
		prompt.Meta = prompt.Meta.WithPath(strconv.FormatInt(id, 10))

		prompts = append(prompts, prompt)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return prompts, nil
}
