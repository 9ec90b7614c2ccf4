package database

import (
	"encoding/json"
	"fmt"

	"github.com/siherrmann/matcher/helper"
	"github.com/siherrmann/matcher/model"
	loadSql "github.com/siherrmann/matcher/sql"
)

// CompletionsDBHandlerFunctions defines the interface for raw completion database operations.
type CompletionsDBHandlerFunctions interface {
	StoreChatCompletion(completion *model.ChatCompletion, promptLocator string) error
}

// CompletionsDBHandler handles raw chat completion logging
type CompletionsDBHandler struct {
	db *helper.Database
}

// NewCompletionsDBHandler creates a new chat completions database handler.
// It loads the chatcompletions table schema if it does not exist yet.
func NewCompletionsDBHandler(db *helper.Database, force bool) (*CompletionsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	completionsDbHandler := &CompletionsDBHandler{
		db: db,
	}

	err := loadSql.LoadCompletionsSql(completionsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load completions sql", err)
	}

	db.Logger.Info("Initialized CompletionsDBHandler")

	return completionsDbHandler, nil
}

// StoreChatCompletion inserts the provider's raw response keyed by its
// external id. Re-logging the same completion id overwrites the previous
// row instead of failing.
func (h *CompletionsDBHandler) StoreChatCompletion(completion *model.ChatCompletion, promptLocator string) error {
	promptID, err := locatorFromString(promptLocator)
	if err != nil {
		return helper.NewError("resolve prompt locator", err)
	}

	data := completion.Raw
	if len(data) == 0 {
		data, err = json.Marshal(completion)
		if err != nil {
			return helper.NewError("marshal completion", err)
		}
	}

	_, err = h.db.Instance.Exec(
		`INSERT OR REPLACE INTO chatcompletions (external_id, prompt_id, data) VALUES (?, ?, ?)`,
		completion.ID,
		promptID,
		string(data),
	)
	if err != nil {
		return helper.NewError("insert completion", err)
	}

	return nil
}

func locatorFromString(locator string) (int64, error) {
	return locatorID(model.Meta{model.MetaPath: locator})
}
