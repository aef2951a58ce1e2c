package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fixly/internal/jobs/validator"
	"fixly/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockTokenIssuer struct {
	generateFunc func(ctx context.Context, channelName, uid, role string) (string, error)
}

func (m *mockTokenIssuer) GenerateAgoraToken(ctx context.Context, channelName, uid, role string) (string, error) {
	if m.generateFunc != nil {
		return m.generateFunc(ctx, channelName, uid, role)
	}
	return "tok", nil
}

type assignedJobService struct {
	mockJobService
	job *model.Job
}

func (s *assignedJobService) GetJob(ctx context.Context, bookingID string) (*model.Job, error) {
	return s.job, nil
}

func TestIssueToken_RejectsUnassignedProvider(t *testing.T) {
	log := testLogger()
	svc := &assignedJobService{job: &model.Job{BookingID: "bkg_1", ProviderID: "prv_1", Status: model.StatusAccepted}}
	issuer := &mockTokenIssuer{
		generateFunc: func(ctx context.Context, channelName, uid, role string) (string, error) {
			t.Error("token must not be issued to an unassigned provider")
			return "", nil
		},
	}
	h := NewCallHandler(svc, issuer, validator.NewJobValidator(log), log)

	body := `{"booking_id":"bkg_1","provider_id":"prv_2","role":"publisher"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/calls/token", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.IssueToken(w, req, httprouter.Params{})

	if w.Code != http.StatusForbidden {
		t.Errorf("expected status %d, got %d", http.StatusForbidden, w.Code)
	}
}

func TestIssueToken_ChannelIsBookingID(t *testing.T) {
	log := testLogger()
	svc := &assignedJobService{job: &model.Job{BookingID: "bkg_1", ProviderID: "prv_1", Status: model.StatusAccepted}}
	var gotChannel, gotUID string
	issuer := &mockTokenIssuer{
		generateFunc: func(ctx context.Context, channelName, uid, role string) (string, error) {
			gotChannel, gotUID = channelName, uid
			return "tok_abc", nil
		},
	}
	h := NewCallHandler(svc, issuer, validator.NewJobValidator(log), log)

	body := `{"booking_id":"bkg_1","provider_id":"prv_1","role":"publisher"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/calls/token", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.IssueToken(w, req, httprouter.Params{})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	if gotChannel != "bkg_1" || gotUID != "prv_1" {
		t.Errorf("issued for channel=%q uid=%q", gotChannel, gotUID)
	}

	var resp struct {
		Data callTokenResponse `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Token != "tok_abc" || resp.Data.Channel != "bkg_1" {
		t.Errorf("unexpected payload: %+v", resp.Data)
	}
}

func TestIssueToken_InvalidRole(t *testing.T) {
	log := testLogger()
	svc := &assignedJobService{job: &model.Job{BookingID: "bkg_1", ProviderID: "prv_1"}}
	h := NewCallHandler(svc, &mockTokenIssuer{}, validator.NewJobValidator(log), log)

	body := `{"booking_id":"bkg_1","provider_id":"prv_1","role":"admin"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/calls/token", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.IssueToken(w, req, httprouter.Params{})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}
