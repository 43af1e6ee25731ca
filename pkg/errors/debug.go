package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"go.mongodb.org/mongo-driver/mongo"
)

// maxChain bounds how many wrapped errors LogFields walks.
const maxChain = 16

// LogFields flattens err into structured log fields, including driver
// diagnostics when a store error sits in the chain. Empty values are left out.
func LogFields(err error) map[string]any {
	if err == nil {
		return map[string]any{}
	}
	fields := map[string]any{
		"error_message": err.Error(),
		"error_code":    string(CodeOf(err)),
		"error_chain":   chain(err),
	}
	put := func(key string, value any) {
		switch v := value.(type) {
		case string:
			if v == "" {
				return
			}
		case int:
			if v == 0 {
				return
			}
		}
		fields[key] = value
	}

	var pgErr *pgconn.PgError
	var pqErr *pq.Error
	var writeErr mongo.WriteException
	var cmdErr mongo.CommandError
	switch {
	case errors.As(err, &pgErr):
		put("db_code", pgErr.Code)
		put("db_message", pgErr.Message)
		put("db_detail", pgErr.Detail)
		put("db_table", pgErr.TableName)
		put("db_column", pgErr.ColumnName)
		put("db_constraint", pgErr.ConstraintName)
	case errors.As(err, &pqErr):
		put("db_code", string(pqErr.Code))
		put("db_message", pqErr.Message)
		put("db_detail", pqErr.Detail)
		put("db_table", pqErr.Table)
		put("db_column", pqErr.Column)
		put("db_constraint", pqErr.Constraint)
	case errors.As(err, &writeErr) && len(writeErr.WriteErrors) > 0:
		put("mongo_code", writeErr.WriteErrors[0].Code)
		put("mongo_message", writeErr.WriteErrors[0].Message)
	case errors.As(err, &cmdErr):
		put("mongo_code", int(cmdErr.Code))
		put("mongo_message", cmdErr.Message)
	}
	if mongo.IsDuplicateKeyError(err) {
		fields["duplicate_key"] = true
	}
	return fields
}

// chain lists each layer as "<type>: <message>", following joined errors too.
func chain(err error) []string {
	var out []string
	queue := []error{err}
	for len(queue) > 0 && len(out) < maxChain {
		e := queue[0]
		queue = queue[1:]
		if e == nil {
			continue
		}
		out = append(out, fmt.Sprintf("%T: %v", e, e))
		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			queue = append(queue, u.Unwrap()...)
		case interface{ Unwrap() error }:
			queue = append(queue, u.Unwrap())
		}
	}
	return out
}
