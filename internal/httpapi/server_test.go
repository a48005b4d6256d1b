package httpapi

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/plannio/plannio/internal/analytics"
	"github.com/plannio/plannio/internal/app/access"
	appbilling "github.com/plannio/plannio/internal/app/billing"
	"github.com/plannio/plannio/internal/app/crm"
	"github.com/plannio/plannio/internal/app/directory"
	"github.com/plannio/plannio/internal/app/scheduling"
	"github.com/plannio/plannio/internal/auth"
	bboltstore "github.com/plannio/plannio/internal/storage/bbolt"
	"github.com/plannio/plannio/internal/storage/sqlite"
)

const (
	testIssuer   = "plannio-test"
	testAudience = "plannio-api"
)

type testAPI struct {
	handler       http.Handler
	ownerToken    string
	adminToken    string
	strangerToken string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	dir := t.TempDir()
	db, err := sqlite.Open(filepath.Join(dir, "plannio.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	events, err := bboltstore.Open(filepath.Join(dir, "events.db"))
	if err != nil {
		t.Fatalf("open event store: %v", err)
	}
	t.Cleanup(func() { _ = events.Close() })

	emitter := analytics.NewEmitter(events, nil)
	accessSvc := access.NewService(db, emitter, nil, nil)
	billingSvc := appbilling.NewService(db, db, db, db, db, accessSvc, emitter, nil, nil)
	directorySvc := directory.NewService(db, db, db, db, db, accessSvc, billingSvc, emitter, nil, nil)
	schedulingSvc := scheduling.NewService(db, db, db, db, accessSvc, billingSvc, emitter, nil, nil)
	crmSvc := crm.NewService(db, accessSvc, emitter, nil, nil)

	public, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate keypair: %v", err)
	}
	verifier := auth.VerifierConfig{Issuer: testIssuer, Audience: testAudience, Key: public}

	server := NewServer(Services{
		Access:     accessSvc,
		Billing:    billingSvc,
		Directory:  directorySvc,
		Scheduling: schedulingSvc,
		CRM:        crmSvc,
		Audit:      emitter,
	}, verifier)

	return &testAPI{
		handler:       server.Handler(),
		ownerToken:    mintToken(t, private, "user-owner", false),
		adminToken:    mintToken(t, private, "user-admin", true),
		strangerToken: mintToken(t, private, "user-stranger", false),
	}
}

func mintToken(t *testing.T, key ed25519.PrivateKey, userID string, platformAdmin bool) string {
	t.Helper()
	token, err := auth.MintAccessToken(key, auth.MintInput{
		Issuer:        testIssuer,
		Audience:      testAudience,
		UserID:        userID,
		PlatformAdmin: platformAdmin,
		TTL:           time.Hour,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func (api *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload *bytes.Buffer
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode request body: %v", err)
		}
		payload = bytes.NewBuffer(encoded)
	} else {
		payload = &bytes.Buffer{}
	}
	request := httptest.NewRequest(method, path, payload)
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	api.handler.ServeHTTP(recorder, request)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("decode response %q: %v", recorder.Body.String(), err)
	}
}

func errorCode(t *testing.T, recorder *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope errorEnvelope
	decodeBody(t, recorder, &envelope)
	return envelope.Error.Code
}

func (api *testAPI) createBusiness(t *testing.T, name string) string {
	t.Helper()
	recorder := api.do(t, http.MethodPost, "/v1/businesses", api.ownerToken, map[string]string{
		"name":     name,
		"timezone": "UTC",
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("create business status = %d, body %s", recorder.Code, recorder.Body.String())
	}
	var created businessPayload
	decodeBody(t, recorder, &created)
	return created.ID
}

func TestHealthProbe(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	recorder := api.do(t, http.MethodGet, "/up", "", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d", recorder.Code)
	}
}

func TestAuthenticationGate(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)

	recorder := api.do(t, http.MethodPost, "/v1/businesses", "", map[string]string{"name": "x"})
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("missing token status = %d", recorder.Code)
	}
	if code := errorCode(t, recorder); code != "AUTH_UNAUTHENTICATED" {
		t.Fatalf("missing token code = %s", code)
	}

	recorder = api.do(t, http.MethodPost, "/v1/businesses", "not-a-jwt", map[string]string{"name": "x"})
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token status = %d", recorder.Code)
	}
	if code := errorCode(t, recorder); code != "AUTH_TOKEN_INVALID" {
		t.Fatalf("garbage token code = %s", code)
	}
}

func TestBusinessLifecycle(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)

	// Sector creation is platform scoped.
	recorder := api.do(t, http.MethodPost, "/v1/sectors", api.ownerToken, map[string]string{"name": "beauty"})
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("sector as owner status = %d", recorder.Code)
	}
	recorder = api.do(t, http.MethodPost, "/v1/sectors", api.adminToken, map[string]string{"name": "beauty"})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("sector as admin status = %d, body %s", recorder.Code, recorder.Body.String())
	}
	var sector sectorPayload
	decodeBody(t, recorder, &sector)
	if sector.Name != "BEAUTY" {
		t.Fatalf("sector name = %s", sector.Name)
	}

	recorder = api.do(t, http.MethodPost, "/v1/businesses", api.ownerToken, map[string]string{
		"name":      "Corte Fino",
		"sector_id": sector.ID,
		"timezone":  "America/Sao_Paulo",
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("create business status = %d, body %s", recorder.Code, recorder.Body.String())
	}
	var created businessPayload
	decodeBody(t, recorder, &created)
	if created.Status != "ACTIVE" {
		t.Fatalf("status = %s", created.Status)
	}

	// The founder can read it, strangers see a 404.
	recorder = api.do(t, http.MethodGet, "/v1/businesses/"+created.ID, api.ownerToken, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("get as owner status = %d", recorder.Code)
	}
	recorder = api.do(t, http.MethodGet, "/v1/businesses/"+created.ID, api.strangerToken, nil)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("get as stranger status = %d", recorder.Code)
	}
	if code := errorCode(t, recorder); code != "NOT_FOUND" {
		t.Fatalf("stranger code = %s", code)
	}

	// Tenant creation opened a trial subscription.
	recorder = api.do(t, http.MethodGet, "/v1/businesses/"+created.ID+"/subscription", api.ownerToken, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("get subscription status = %d", recorder.Code)
	}
	var subscription subscriptionPayload
	decodeBody(t, recorder, &subscription)
	if subscription.PlanCode != "FREE" || subscription.Status != "TRIALING" {
		t.Fatalf("subscription = %s/%s", subscription.PlanCode, subscription.Status)
	}

	// The audit trail recorded the creation.
	recorder = api.do(t, http.MethodGet, "/v1/businesses/"+created.ID+"/events", api.ownerToken, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("list events status = %d", recorder.Code)
	}
	var events eventPagePayload
	decodeBody(t, recorder, &events)
	found := false
	for _, event := range events.Events {
		if event.Action == "business.created" {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing business.created event in %v", events.Events)
	}
}

func TestBookingFlow(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	businessID := api.createBusiness(t, "Estetica Prima")

	recorder := api.do(t, http.MethodPost, "/v1/businesses/"+businessID+"/services", api.ownerToken, map[string]any{
		"name":             "Haircut",
		"duration_minutes": 60,
		"price_amount":     "35",
		"currency":         "USD",
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("create service status = %d, body %s", recorder.Code, recorder.Body.String())
	}
	var service servicePayload
	decodeBody(t, recorder, &service)

	// No configured hours keeps the calendar open around the clock.
	recorder = api.do(t, http.MethodPost, "/v1/businesses/"+businessID+"/calendars", api.ownerToken, map[string]any{
		"name": "Main Room",
		"kind": "BUSINESS",
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("create calendar status = %d, body %s", recorder.Code, recorder.Body.String())
	}
	var cal calendarPayload
	decodeBody(t, recorder, &cal)
	if cal.Timezone != "UTC" {
		t.Fatalf("calendar timezone = %s, want business default", cal.Timezone)
	}

	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Hour)
	recorder = api.do(t, http.MethodPost, "/v1/businesses/"+businessID+"/appointments", api.ownerToken, map[string]any{
		"calendar_id": cal.ID,
		"service_id":  service.ID,
		"customer":    map[string]string{"name": "Dana Cruz", "email": "dana@example.com"},
		"start_time":  start.Format(time.RFC3339),
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("book status = %d, body %s", recorder.Code, recorder.Body.String())
	}
	var booked appointmentPayload
	decodeBody(t, recorder, &booked)
	if booked.Status != "PENDING" {
		t.Fatalf("status = %s", booked.Status)
	}
	if !booked.EndTime.Equal(start.Add(time.Hour)) {
		t.Fatalf("end = %v, want %v", booked.EndTime, start.Add(time.Hour))
	}

	base := "/v1/businesses/" + businessID + "/appointments/" + booked.ID
	recorder = api.do(t, http.MethodPost, base+"/confirm", api.ownerToken, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("confirm status = %d, body %s", recorder.Code, recorder.Body.String())
	}

	// The confirmed slot blocks overlapping bookings.
	recorder = api.do(t, http.MethodPost, "/v1/businesses/"+businessID+"/appointments", api.ownerToken, map[string]any{
		"calendar_id": cal.ID,
		"service_id":  service.ID,
		"customer":    map[string]string{"name": "Lee Park"},
		"start_time":  start.Add(30 * time.Minute).Format(time.RFC3339),
	})
	if recorder.Code != http.StatusConflict {
		t.Fatalf("overlap status = %d", recorder.Code)
	}
	if code := errorCode(t, recorder); code != "APPOINTMENT_CONFLICT" {
		t.Fatalf("overlap code = %s", code)
	}

	recorder = api.do(t, http.MethodPost, base+"/cancel", api.ownerToken, map[string]string{})
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("cancel without reason status = %d", recorder.Code)
	}
	recorder = api.do(t, http.MethodPost, base+"/cancel", api.ownerToken, map[string]string{"reason": "customer request"})
	if recorder.Code != http.StatusOK {
		t.Fatalf("cancel status = %d, body %s", recorder.Code, recorder.Body.String())
	}
	var cancelled appointmentPayload
	decodeBody(t, recorder, &cancelled)
	if cancelled.Status != "CANCELLED" {
		t.Fatalf("status = %s", cancelled.Status)
	}
}

func TestSlotListing(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	businessID := api.createBusiness(t, "Studio Luz")

	recorder := api.do(t, http.MethodPost, "/v1/businesses/"+businessID+"/services", api.ownerToken, map[string]any{
		"name":             "Consultation",
		"duration_minutes": 60,
		"price_amount":     "0",
		"currency":         "USD",
	})
	var service servicePayload
	decodeBody(t, recorder, &service)

	recorder = api.do(t, http.MethodPost, "/v1/businesses/"+businessID+"/calendars", api.ownerToken, map[string]any{
		"name": "Front Desk",
		"kind": "BUSINESS",
	})
	var cal calendarPayload
	decodeBody(t, recorder, &cal)

	day := time.Now().UTC().AddDate(0, 0, 2).Format("2006-01-02")
	path := fmt.Sprintf("/v1/businesses/%s/calendars/%s/slots?service_id=%s&date=%s", businessID, cal.ID, service.ID, day)
	recorder = api.do(t, http.MethodGet, path, api.ownerToken, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("slots status = %d, body %s", recorder.Code, recorder.Body.String())
	}
	var payload struct {
		Slots []slotPayload `json:"slots"`
	}
	decodeBody(t, recorder, &payload)
	if len(payload.Slots) != 24 {
		t.Fatalf("slots = %d, want 24 for an open day", len(payload.Slots))
	}

	recorder = api.do(t, http.MethodGet, fmt.Sprintf("/v1/businesses/%s/calendars/%s/slots?date=%s", businessID, cal.ID, day), api.ownerToken, nil)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("missing service_id status = %d", recorder.Code)
	}
}

func TestPlanChangeRejectsUnknownPlanLocalized(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	businessID := api.createBusiness(t, "Clinique Nord")

	encoded, err := json.Marshal(map[string]string{"plan": "ENTERPRISE"})
	if err != nil {
		t.Fatalf("encode body: %v", err)
	}
	request := httptest.NewRequest(http.MethodPut, "/v1/businesses/"+businessID+"/subscription/plan", bytes.NewReader(encoded))
	request.Header.Set("Authorization", "Bearer "+api.ownerToken)
	request.Header.Set("Accept-Language", "fr-FR")
	recorder := httptest.NewRecorder()
	api.handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", recorder.Code, recorder.Body.String())
	}
	var envelope errorEnvelope
	decodeBody(t, recorder, &envelope)
	if envelope.Error.Code != "BILLING_UNKNOWN_PLAN" {
		t.Fatalf("code = %s", envelope.Error.Code)
	}
	if envelope.Error.LocalizedMessage != "Le forfait ENTERPRISE n'existe pas." {
		t.Fatalf("localized = %q", envelope.Error.LocalizedMessage)
	}
}

func TestUnknownFieldsRejected(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	recorder := api.do(t, http.MethodPost, "/v1/businesses", api.ownerToken, map[string]string{"nombre": "x"})
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", recorder.Code)
	}
	if code := errorCode(t, recorder); code != "INVALID_REQUEST" {
		t.Fatalf("code = %s", code)
	}
}

func TestRoleAssignmentsOverHTTP(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	businessID := api.createBusiness(t, "Atelier Um")

	recorder := api.do(t, http.MethodPost, "/v1/businesses/"+businessID+"/role-assignments", api.ownerToken, map[string]string{
		"user_id": "user-manager",
		"role":    "MANAGER",
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("grant status = %d, body %s", recorder.Code, recorder.Body.String())
	}
	var granted assignmentPayload
	decodeBody(t, recorder, &granted)
	if granted.Role != "MANAGER" {
		t.Fatalf("role = %s", granted.Role)
	}

	recorder = api.do(t, http.MethodGet, "/v1/businesses/"+businessID+"/role-assignments", api.ownerToken, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("list status = %d", recorder.Code)
	}
	var listed struct {
		Assignments []assignmentPayload `json:"assignments"`
	}
	decodeBody(t, recorder, &listed)
	if len(listed.Assignments) != 2 {
		t.Fatalf("assignments = %d, want owner and manager", len(listed.Assignments))
	}

	recorder = api.do(t, http.MethodDelete, "/v1/role-assignments/"+granted.ID, api.ownerToken, nil)
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("revoke status = %d, body %s", recorder.Code, recorder.Body.String())
	}
}
