package service

import "github.com/samber/oops"

// Error codes carried by errors returned from Service
const (
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeDuplicateEntity    = "DUPLICATE_ENTITY"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeValidation         = "VALIDATION_FAILED"
	CodeNotFound           = "NOT_FOUND"
	CodePersistence        = "PERSISTENCE_ERROR"
	CodeInternal           = "INTERNAL_ERROR"
)

// HasCode reports whether err is an oops error with the given code
func HasCode(err error, code string) bool {
	oopsErr, ok := oops.AsOops(err)
	return ok && oopsErr.Code() == code
}

func invalidCredentials() error {
	return oops.Code(CodeInvalidCredentials).Errorf("No valid Credentials")
}

func unauthorized(reason string) error {
	return oops.Code(CodeUnauthorized).Errorf("%s", reason)
}

func persistence(operation string, err error) error {
	return oops.Code(CodePersistence).With("operation", operation).Wrap(err)
}
