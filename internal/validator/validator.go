package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/linguadesk/quiz-session-service/internal/errors"
	"github.com/linguadesk/quiz-session-service/internal/models"
)

// Validator wraps go-playground/validator with the custom rules used by
// session requests.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New()
	registerCustomValidators(v)
	return &Validator{validate: v}
}

// Validate checks a request struct and returns field-level errors.
func (v *Validator) Validate(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		if ve := apperrors.ToValidationErrors(err); len(ve) > 0 {
			return ve
		}
		return err
	}
	return nil
}

func validateQuestionType(fl validator.FieldLevel) bool {
	validTypes := []models.QuestionType{
		models.SingleChoice,
		models.TrueFalse,
		models.FillBlank,
		models.AudioPronunciation,
		models.WordMatching,
		models.SentenceTranslation,
	}

	value := fl.Field().String()
	for _, validType := range validTypes {
		if string(validType) == value {
			return true
		}
	}
	return false
}

// -1 means unlimited retakes; anything below that is nonsense.
func validateMaxRetakes(fl validator.FieldLevel) bool {
	return fl.Field().Int() >= -1
}

func validatePageNumber(fl validator.FieldLevel) bool {
	return fl.Field().Int() >= 1
}

func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_type", validateQuestionType)
	validate.RegisterValidation("max_retakes", validateMaxRetakes)
	validate.RegisterValidation("page_number", validatePageNumber)

	// Report json field names in error messages.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}
