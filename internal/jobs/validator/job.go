package validator

import (
	"errors"
	"fmt"
	"strings"

	apperrors "fixly/pkg/errors"
	"fixly/pkg/logger"
	"fixly/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// asAppError folds field errors into the shared error taxonomy so the
// response writer maps them to a 400 rather than an opaque internal failure.
func (v ValidationErrors) asAppError() error {
	if len(v) == 0 {
		return nil
	}
	details := make(map[string]any, len(v))
	for _, fieldErr := range v {
		details[fieldErr.Field] = fieldErr.Message
	}
	return apperrors.InvalidInput("Request validation failed").WithDetails(details)
}

type JobValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewJobValidator(log *logger.Logger) *JobValidator {
	v := validator.New()

	if err := v.RegisterValidation("job_status", validateJobStatus); err != nil {
		log.Fatal("Failed to register 'job_status' validator", "error", err)
	}

	log.Info("Job validator initialized successfully")

	return &JobValidator{
		validate: v,
		logger:   log,
	}
}

func validateJobStatus(fl validator.FieldLevel) bool {
	status, ok := fl.Field().Interface().(model.JobStatus)
	if !ok {
		return false
	}
	return status.Valid()
}

func (v *JobValidator) ValidateBooking(booking *model.Booking) error {
	if err := v.validate.Struct(booking); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs).asAppError()
		}
		return err
	}

	if booking.Coordinates != nil {
		if errs := validateCoordinates(booking.Coordinates); len(errs) > 0 {
			return errs.asAppError()
		}
	}

	return nil
}

// AcceptRequest is the body of the accept operation.
type AcceptRequest struct {
	ProviderID string `json:"provider_id" validate:"required,min=1,max=64"`
}

// StatusRequest is the body of the status-advance operation.
type StatusRequest struct {
	ProviderID string `json:"provider_id" validate:"required,min=1,max=64"`
	Target     string `json:"target" validate:"required"`
}

// CompleteRequest is the body of the completion handshake.
type CompleteRequest struct {
	ProviderID string `json:"provider_id" validate:"required,min=1,max=64"`
	OTP        string `json:"otp" validate:"required,len=6,numeric"`
}

// OptimizeRequest is the body of the route optimization operation.
type OptimizeRequest struct {
	ProviderID      string             `json:"provider_id,omitempty" validate:"omitempty,max=64"`
	CurrentPosition model.Position     `json:"current_position" validate:"required"`
	Jobs            []OptimizeJobInput `json:"jobs,omitempty" validate:"omitempty,dive"`
}

// OptimizeJobInput lets callers optimize an explicit job list instead of the
// provider's ongoing feed.
type OptimizeJobInput struct {
	BookingID   string             `json:"booking_id" validate:"required"`
	ServiceName string             `json:"service_name,omitempty"`
	Coordinates *model.Coordinates `json:"coordinates,omitempty"`
}

// CallTokenRequest is the body of the voice-call token operation.
type CallTokenRequest struct {
	BookingID  string `json:"booking_id" validate:"required,min=1,max=64"`
	ProviderID string `json:"provider_id" validate:"required,min=1,max=64"`
	Role       string `json:"role" validate:"required,oneof=publisher subscriber"`
}

func (v *JobValidator) ValidateAccept(req *AcceptRequest) error {
	return v.validateStruct(req)
}

func (v *JobValidator) ValidateCallToken(req *CallTokenRequest) error {
	return v.validateStruct(req)
}

func (v *JobValidator) ValidateStatus(req *StatusRequest) error {
	if err := v.validateStruct(req); err != nil {
		return err
	}
	if status, ok := model.ParseStatus(req.Target); !ok || !status.Valid() {
		return ValidationErrors{
			ValidationError{Field: "Target", Message: fmt.Sprintf("unknown status %q", req.Target)},
		}.asAppError()
	}
	return nil
}

func (v *JobValidator) ValidateComplete(req *CompleteRequest) error {
	return v.validateStruct(req)
}

func (v *JobValidator) ValidateOptimize(req *OptimizeRequest) error {
	if err := v.validateStruct(req); err != nil {
		return err
	}

	errs := validateCoordinates(&model.Coordinates{
		Latitude:  req.CurrentPosition.Latitude,
		Longitude: req.CurrentPosition.Longitude,
	})
	for i := range errs {
		errs[i].Field = "CurrentPosition." + errs[i].Field
	}
	for idx, job := range req.Jobs {
		if job.Coordinates == nil {
			continue
		}
		for _, coordErr := range validateCoordinates(job.Coordinates) {
			coordErr.Field = fmt.Sprintf("Jobs[%d].%s", idx, coordErr.Field)
			errs = append(errs, coordErr)
		}
	}
	if len(errs) > 0 {
		return errs.asAppError()
	}
	return nil
}

func validateCoordinates(c *model.Coordinates) ValidationErrors {
	var errs ValidationErrors
	if c.Latitude < -90 || c.Latitude > 90 {
		errs = append(errs, ValidationError{
			Field:   "Latitude",
			Message: fmt.Sprintf("latitude %v out of range [-90, 90]", c.Latitude),
		})
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		errs = append(errs, ValidationError{
			Field:   "Longitude",
			Message: fmt.Sprintf("longitude %v out of range [-180, 180]", c.Longitude),
		})
	}
	return errs
}

func (v *JobValidator) validateStruct(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs).asAppError()
		}
		return err
	}
	return nil
}

func (v *JobValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		var message string
		switch err.Tag() {
		case "required":
			message = "is required"
		case "min":
			message = fmt.Sprintf("must be at least %s characters", err.Param())
		case "max":
			message = fmt.Sprintf("must be at most %s characters", err.Param())
		case "len":
			message = fmt.Sprintf("must be exactly %s characters", err.Param())
		case "numeric":
			message = "must contain only digits"
		case "e164":
			message = "must be a valid E.164 phone number"
		case "gt":
			message = fmt.Sprintf("must be greater than %s", err.Param())
		case "gte":
			message = fmt.Sprintf("must be at least %s", err.Param())
		case "lte":
			message = fmt.Sprintf("must be at most %s", err.Param())
		case "oneof":
			message = fmt.Sprintf("must be one of: %s", err.Param())
		case "job_status":
			message = "must be a valid job status"
		default:
			message = fmt.Sprintf("failed %s validation", err.Tag())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
