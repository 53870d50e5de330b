package usecase

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"seatledger.io/ledger/internal/domain"
	apperrors "seatledger.io/ledger/internal/pkg/errors"
)

// EventInfoInput is the caller-supplied event info. Times are decimal strings
// of integer nanoseconds.
type EventInfoInput struct {
	Name        string `json:"name" validate:"notblank,max=256"`
	Description string `json:"description" validate:"notblank,max=4096"`
	StartTime   string `json:"start_time" validate:"required,nanos"`
	EndTime     string `json:"end_time" validate:"required,nanos"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("notblank", validators.NotBlank)
		_ = validate.RegisterValidation("nanos", func(fl validator.FieldLevel) bool {
			_, err := parseNanos(fl.Field().String())
			return err == nil
		})
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// parseNanos parses a non-negative integer nanosecond timestamp.
func parseNanos(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, strconv.ErrRange
	}
	return n, nil
}

// ToEventInfo validates the input and converts it to domain.EventInfo.
func (in EventInfoInput) ToEventInfo() (domain.EventInfo, error) {
	if err := getValidator().Struct(in); err != nil {
		return domain.EventInfo{}, translateValidationError(err)
	}

	start, _ := parseNanos(in.StartTime)
	end, _ := parseNanos(in.EndTime)
	if end <= start {
		return domain.EventInfo{}, apperrors.InvalidPayload(apperrors.CodeValidationFailed, "end_time must be after start_time").
			WithParams(map[string]interface{}{"start_time": in.StartTime, "end_time": in.EndTime})
	}

	return domain.EventInfo{
		Name:        in.Name,
		Description: in.Description,
		StartTime:   start,
		EndTime:     end,
	}, nil
}

func translateValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.ErrInvalidPayloadf("invalid event info: %v", err)
	}

	fields := make([]string, 0, len(verrs))
	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
		messages = append(messages, fieldMessage(fe))
	}
	return apperrors.InvalidPayload(apperrors.CodeValidationFailed, strings.Join(messages, "; ")).
		WithParams(map[string]interface{}{"fields": fields})
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank", "required":
		return fe.Field() + " is required"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	case "nanos":
		return fe.Field() + " must be a non-negative integer nanosecond timestamp"
	default:
		return fe.Field() + " failed " + fe.Tag()
	}
}
