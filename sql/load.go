package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed parameters.sql
var parametersSQL string

//go:embed results.sql
var resultsSQL string

//go:embed prompts.sql
var promptsSQL string

//go:embed completions.sql
var completionsSQL string

//go:embed answers.sql
var answersSQL string

// Table lists for verification
var ParametersTables = []string{"parameters"}

var ResultsTables = []string{"results"}

var PromptsTables = []string{"prompts"}

var CompletionsTables = []string{"chatcompletions"}

var AnswersTables = []string{"answers"}

// LoadParametersSql loads the parameters table schema
func LoadParametersSql(db *sql.DB, force bool) error {
	return loadSchema(db, force, "parameters", parametersSQL, ParametersTables)
}

// LoadResultsSql loads the results table schema
func LoadResultsSql(db *sql.DB, force bool) error {
	return loadSchema(db, force, "results", resultsSQL, ResultsTables)
}

// LoadPromptsSql loads the prompts table schema
func LoadPromptsSql(db *sql.DB, force bool) error {
	return loadSchema(db, force, "prompts", promptsSQL, PromptsTables)
}

// LoadCompletionsSql loads the chatcompletions table schema
func LoadCompletionsSql(db *sql.DB, force bool) error {
	return loadSchema(db, force, "completions", completionsSQL, CompletionsTables)
}

// LoadAnswersSql loads the answers table schema
func LoadAnswersSql(db *sql.DB, force bool) error {
	return loadSchema(db, force, "answers", answersSQL, AnswersTables)
}

// LoadAllSql loads all table schemas in foreign key order
func LoadAllSql(db *sql.DB, force bool) error {
	if err := LoadParametersSql(db, force); err != nil {
		return err
	}

	if err := LoadResultsSql(db, force); err != nil {
		return err
	}

	if err := LoadPromptsSql(db, force); err != nil {
		return err
	}

	if err := LoadCompletionsSql(db, force); err != nil {
		return err
	}

	if err := LoadAnswersSql(db, force); err != nil {
		return err
	}

	return nil
}

func loadSchema(db *sql.DB, force bool, name string, schemaSQL string, tables []string) error {
	if !force {
		exist, err := checkTables(db, tables)
		if err != nil {
			return fmt.Errorf("error checking existing %s tables: %w", name, err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(schemaSQL)
	if err != nil {
		return fmt.Errorf("error executing %s SQL: %w", name, err)
	}

	exist, err := checkTables(db, tables)
	if err != nil {
		return fmt.Errorf("error checking existing tables: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required tables were created")
	}

	log.Printf("SQL %s schema loaded successfully", name)
	return nil
}

// checkTables verifies that all required tables exist in the database
func checkTables(db *sql.DB, tables []string) (bool, error) {
	var allExist bool
	for _, t := range tables {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?);`,
			t,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of table %s: %w", t, err)
		}
		if !allExist {
			log.Printf("Table %s does not exist", t)
			break
		}
	}
	return allExist, nil
}
