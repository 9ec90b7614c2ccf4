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

// ParametersDBHandlerFunctions defines the interface for Parameters database operations.
type ParametersDBHandlerFunctions interface {
	StoreParameters(parameters *model.Parameters) (*model.Parameters, error)
	GetParametersByHash(hash string) (*model.Parameters, error)
}

// ParametersDBHandler handles parameters-related database operations
type ParametersDBHandler struct {
	db *helper.Database
}

// NewParametersDBHandler creates a new parameters database handler.
// It loads the parameters table schema if it does not exist yet.
// If force is true, it will re-execute the schema SQL even if it already exists.
func NewParametersDBHandler(db *helper.Database, force bool) (*ParametersDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	parametersDbHandler := &ParametersDBHandler{
		db: db,
	}

	err := loadSql.LoadParametersSql(parametersDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load parameters sql", err)
	}

	db.Logger.Info("Initialized ParametersDBHandler")

	return parametersDbHandler, nil
}

// StoreParameters inserts a new parameters row and attaches the assigned
// locator to the parameters' meta. Idempotency is not enforced here, callers
// must check GetParametersByHash first.
func (h *ParametersDBHandler) StoreParameters(parameters *model.Parameters) (*model.Parameters, error) {
	data, err := json.Marshal(parameters)
	if err != nil {
		return nil, helper.NewError("marshal parameters", err)
	}

	result, err := h.db.Instance.Exec(
		`INSERT INTO parameters (hash, data) VALUES (?, ?)`,
		parameters.Digest(),
		string(data),
	)
	if err != nil {
		return nil, helper.NewError("insert parameters", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, helper.NewError("last insert id", err)
	}

	parameters.Meta = parameters.Meta.WithPath(strconv.FormatInt(id, 10))

	return parameters, nil
}

// GetParametersByHash retrieves the earliest stored parameters with the
// given digest, or nil if none exist.
func (h *ParametersDBHandler) GetParametersByHash(hash string) (*model.Parameters, error) {
	var id int64
	var data string
	err := h.db.Instance.QueryRow(
		`SELECT id, data FROM parameters WHERE hash = ? ORDER BY id LIMIT 1`,
		hash,
	).Scan(&id, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	parameters := &model.Parameters{}
	err = json.Unmarshal([]byte(data), parameters)
	if err != nil {
		return nil, helper.NewError("unmarshal parameters", err)
	}
	parameters.Meta = parameters.Meta.WithPath(strconv.FormatInt(id, 10))

	return parameters, nil
}
