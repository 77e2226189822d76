package service

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/colegio-api/internal/repository"
	appErrors "github.com/noah-isme/colegio-api/pkg/errors"
)

// validationError converts validator failures into the API validation error
// carrying one detail line per offending field.
func validationError(err error, message string) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		details := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			detail := fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag())
			if fe.Param() != "" {
				detail += "=" + fe.Param()
			}
			details = append(details, detail)
		}
		return appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, message), details)
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

// duplicateFieldError maps a unique-constraint violation to a 400 naming the
// conflicting field; returns nil when err is not a uniqueness conflict.
func duplicateFieldError(err error, fields map[string]string) error {
	constraint, ok := repository.UniqueViolation(err)
	if !ok {
		return nil
	}
	if field, found := fields[constraint]; found {
		return appErrors.Clone(appErrors.ErrDuplicateKey, fmt.Sprintf("duplicate value for %s", field))
	}
	return appErrors.Clone(appErrors.ErrDuplicateKey, "")
}

func internalError(err error, message string) error {
	if repository.InvalidTextRepresentation(err) {
		return appErrors.Clone(appErrors.ErrInvalidID, "")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
