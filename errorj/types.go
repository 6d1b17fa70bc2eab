package errorj

import (
	"github.com/joomcode/errorx"
)

var (
	//loaderErrors is a namespace for all errors which are reported to the user with the error class
	loaderErrors = errorx.NewNamespace("sheetloader")

	//ParseError is returned when the source file is missing, unreadable or malformed
	ParseError = loaderErrors.NewType("parse")
	//NormalizationError is returned when column names can't be normalized (e.g. they collide)
	NormalizationError = loaderErrors.NewType("normalization")
	//ConfigError is returned on invalid destination or source configuration
	ConfigError = loaderErrors.NewType("config")
	//UploadError is returned when the dataset can't be written into the warehouse
	UploadError = loaderErrors.NewType("upload")
	//VerificationError is returned when verification queries fail or counts mismatch
	VerificationError = loaderErrors.NewType("verification")

	sqlError                 = loaderErrors.NewType("sql")
	BeginTransactionError    = sqlError.NewSubtype("begin_transaction")
	CommitTransactionError   = sqlError.NewSubtype("commit_transaction")
	RollbackTransactionError = sqlError.NewSubtype("rollback_transaction")
	ConnectionError          = sqlError.NewSubtype("connection")
	CreateSchemaError        = sqlError.NewSubtype("create_schema")
	CreateTableError         = sqlError.NewSubtype("create_table")
	PatchTableError          = sqlError.NewSubtype("patch_table")
	GetTableError            = sqlError.NewSubtype("get_table")
	DropError                = sqlError.NewSubtype("drop_table")
	RenameError              = sqlError.NewSubtype("rename_table")
	ExecuteInsertError       = sqlError.NewSubtype("execute_insert")
	QueryError               = sqlError.NewSubtype("query")

	DBInfo          = errorx.RegisterPrintableProperty("db_info")
	DBObjects       = errorx.RegisterPrintableProperty("db_objects")
	DestinationType = errorx.RegisterPrintableProperty("destination_type")
	FilePath        = errorx.RegisterPrintableProperty("file_path")
	Column          = errorx.RegisterPrintableProperty("column")
)

//Decorate adds message to the error keeping its type
func Decorate(err error, msg string, args ...interface{}) *errorx.Error {
	return errorx.Decorate(err, msg, args...)
}

//Group multiple errors where first one is a main error
func Group(errs ...error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	main := errorx.Cast(errs[0])
	if main == nil {
		main = errorx.Decorate(errs[0], "")
	}

	return main.WithUnderlyingErrors(errs[1:]...)
}

//IsSQLError returns true if err or any of its causes is of sql type
func IsSQLError(err error) bool {
	for e := errorx.Cast(err); e != nil; e = errorx.Cast(e.Cause()) {
		if e.IsOfType(sqlError) {
			return true
		}
	}

	return false
}

//Class returns the error class for the user report: parse, normalization, upload, verification, etc.
//returns "internal" for errors out of the namespace
func Class(err error) string {
	switch {
	case err == nil:
		return ""
	case errorx.IsOfType(err, ParseError):
		return "parse"
	case errorx.IsOfType(err, NormalizationError):
		return "normalization"
	case errorx.IsOfType(err, ConfigError):
		return "config"
	case errorx.IsOfType(err, VerificationError):
		return "verification"
	case errorx.IsOfType(err, UploadError), errorx.IsOfType(err, sqlError):
		return "upload"
	default:
		return "internal"
	}
}
