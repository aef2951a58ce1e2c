package validator

import (
	"net/http"
	"testing"

	apperrors "fixly/pkg/errors"
	"fixly/pkg/logger"
	"fixly/pkg/model"
)

func newTestValidator() *JobValidator {
	return NewJobValidator(logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	}))
}

func TestValidateAccept(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name    string
		req     AcceptRequest
		wantErr bool
	}{
		{name: "valid", req: AcceptRequest{ProviderID: "prv_1"}},
		{name: "missing provider", req: AcceptRequest{}, wantErr: true},
		{name: "overlong provider", req: AcceptRequest{ProviderID: string(make([]byte, 65))}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateAccept(&tt.req)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAccept() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateStatus(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name    string
		req     StatusRequest
		wantErr bool
	}{
		{name: "arrived", req: StatusRequest{ProviderID: "prv_1", Target: "arrived"}},
		{name: "case insensitive", req: StatusRequest{ProviderID: "prv_1", Target: "In_Progress"}},
		{name: "unknown target", req: StatusRequest{ProviderID: "prv_1", Target: "teleported"}, wantErr: true},
		{name: "missing target", req: StatusRequest{ProviderID: "prv_1"}, wantErr: true},
		{name: "missing provider", req: StatusRequest{Target: "arrived"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateStatus(&tt.req)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStatus() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateComplete(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name    string
		req     CompleteRequest
		wantErr bool
	}{
		{name: "valid", req: CompleteRequest{ProviderID: "prv_1", OTP: "123456"}},
		{name: "short otp", req: CompleteRequest{ProviderID: "prv_1", OTP: "123"}, wantErr: true},
		{name: "alphabetic otp", req: CompleteRequest{ProviderID: "prv_1", OTP: "abcdef"}, wantErr: true},
		{name: "missing otp", req: CompleteRequest{ProviderID: "prv_1"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateComplete(&tt.req)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateComplete() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateOptimize(t *testing.T) {
	v := newTestValidator()

	valid := OptimizeRequest{
		ProviderID:      "prv_1",
		CurrentPosition: model.Position{Latitude: 12.97, Longitude: 77.59},
	}
	if err := v.ValidateOptimize(&valid); err != nil {
		t.Errorf("valid request rejected: %v", err)
	}

	badLat := OptimizeRequest{
		CurrentPosition: model.Position{Latitude: 95, Longitude: 77.59},
	}
	if err := v.ValidateOptimize(&badLat); err == nil {
		t.Error("latitude 95 must be rejected")
	}

	badJobCoords := OptimizeRequest{
		CurrentPosition: model.Position{Latitude: 12.97, Longitude: 77.59},
		Jobs: []OptimizeJobInput{
			{BookingID: "bkg_1", Coordinates: &model.Coordinates{Latitude: 12.97, Longitude: 200}},
		},
	}
	if err := v.ValidateOptimize(&badJobCoords); err == nil {
		t.Error("job longitude 200 must be rejected")
	}
}

func TestValidateCallToken(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name    string
		req     CallTokenRequest
		wantErr bool
	}{
		{name: "publisher", req: CallTokenRequest{BookingID: "bkg_1", ProviderID: "prv_1", Role: "publisher"}},
		{name: "subscriber", req: CallTokenRequest{BookingID: "bkg_1", ProviderID: "prv_1", Role: "subscriber"}},
		{name: "bad role", req: CallTokenRequest{BookingID: "bkg_1", ProviderID: "prv_1", Role: "host"}, wantErr: true},
		{name: "missing booking", req: CallTokenRequest{ProviderID: "prv_1", Role: "publisher"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateCallToken(&tt.req)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCallToken() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidationFailuresMapToInvalidInput(t *testing.T) {
	v := newTestValidator()

	err := v.ValidateComplete(&CompleteRequest{ProviderID: "prv_1", OTP: "12"})
	if !apperrors.IsCode(err, apperrors.CodeInvalidInput) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodeInvalidInput)
	}

	appErr := apperrors.AsAppError(err)
	if appErr.StatusCode() != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", appErr.StatusCode(), http.StatusBadRequest)
	}
	if _, ok := appErr.Details["OTP"]; !ok {
		t.Errorf("details missing OTP field: %v", appErr.Details)
	}
}

func TestCoordinateFailuresMapToInvalidInput(t *testing.T) {
	v := newTestValidator()

	err := v.ValidateOptimize(&OptimizeRequest{
		CurrentPosition: model.Position{Latitude: 95, Longitude: 77.6},
	})
	if !apperrors.IsCode(err, apperrors.CodeInvalidInput) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodeInvalidInput)
	}
}
