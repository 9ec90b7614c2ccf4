package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/siherrmann/matcher/helper"
	"github.com/siherrmann/matcher/model"
	loadSql "github.com/siherrmann/matcher/sql"
)

// ResultsDBHandlerFunctions defines the interface for Result database operations.
type ResultsDBHandlerFunctions interface {
	StoreResult(result *model.Result) (*model.Result, error)
	GetResultByParameters(parameters *model.Parameters) (*model.Result, error)
}

// ResultsDBHandler handles result-related database operations
type ResultsDBHandler struct {
	db *helper.Database
}

// NewResultsDBHandler creates a new results database handler.
// It loads the results table schema if it does not exist yet.
func NewResultsDBHandler(db *helper.Database, force bool) (*ResultsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	resultsDbHandler := &ResultsDBHandler{
		db: db,
	}

	err := loadSql.LoadResultsSql(resultsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load results sql", err)
	}

	db.Logger.Info("Initialized ResultsDBHandler")

	return resultsDbHandler, nil
}

// StoreResult inserts a new result row linked to its stored parameters and
// attaches the assigned locator to the result's meta. The parameters must
// have been stored first so a foreign key is available.
func (h *ResultsDBHandler) StoreResult(result *model.Result) (*model.Result, error) {
	parametersID, err := locatorID(result.Parameters.Meta)
	if err != nil {
		return nil, helper.NewError("resolve parameters locator", err)
	}

	data, err := json.Marshal(result)
	if err != nil {
		return nil, helper.NewError("marshal result", err)
	}

	inserted, err := h.db.Instance.Exec(
		`INSERT INTO results (parameters_id, name, hash, data) VALUES (?, ?, ?, ?)`,
		parametersID,
		result.Name,
		result.Digest(),
		string(data),
	)
	if err != nil {
		return nil, helper.NewError("insert result", err)
	}

	id, err := inserted.LastInsertId()
	if err != nil {
		return nil, helper.NewError("last insert id", err)
	}

	result.Meta = result.Meta.WithPath(strconv.FormatInt(id, 10))

	return result, nil
}

// GetResultByParameters retrieves the result associated with the given
// stored parameters, or nil if none exists. A parameters row has at most one
// associated result in this design, so lookup goes by foreign key.
func (h *ResultsDBHandler) GetResultByParameters(parameters *model.Parameters) (*model.Result, error) {
	parametersID, err := locatorID(parameters.Meta)
	if err != nil {
		return nil, helper.NewError("resolve parameters locator", err)
	}

	var id int64
	var data string
	err = h.db.Instance.QueryRow(
		`SELECT id, data FROM results WHERE parameters_id = ? ORDER BY id LIMIT 1`,
		parametersID,
	).Scan(&id, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	result := &model.Result{}
	err = json.Unmarshal([]byte(data), result)
	if err != nil {
		return nil, helper.NewError("unmarshal result", err)
	}
	result.Meta = result.Meta.WithPath(strconv.FormatInt(id, 10))

	return result, nil
}

// locatorID converts a store-assigned locator back into a row id.
func locatorID(meta model.Meta) (int64, error) {
	path := meta.Path()
	if path == "" {
		return 0, fmt.Errorf("entity has no store locator")
	}
	id, err := strconv.ParseInt(path, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid store locator %q: %w", path, err)
	}
	return id, nil
}
