package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"vouch/internal/attestor"
	"vouch/internal/experience/models"
	"vouch/internal/experience/service"
	"vouch/internal/experience/store"
	"vouch/internal/platform/middleware"
	id "vouch/pkg/domain"
)

// tokenIsAddress treats the bearer token itself as the caller address, so
// tests can authenticate as anyone without minting real tokens.
type tokenIsAddress struct{}

func (tokenIsAddress) ValidateToken(token string) (*middleware.TokenClaims, error) {
	addr, err := id.ParseAddress(token)
	if err != nil {
		return nil, err
	}
	return &middleware.TokenClaims{Address: addr}, nil
}

type stubAttestor struct{ next id.CredentialID }

func (s stubAttestor) Attest(context.Context, id.SchemaID, []byte, [32]byte, []id.Address) (id.CredentialID, error) {
	return s.next, nil
}

type stubSchema struct{}

func (stubSchema) SchemaID() id.SchemaID { return "experience-v1" }

type HandlerSuite struct {
	suite.Suite
	svc    *service.Service
	router http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.svc = service.New(store.NewInMemoryStore(), service.NewScope(),
		stubAttestor{next: 9001}, stubSchema{})

	r := chi.NewRouter()
	r.Use(middleware.RequireAuth(tokenIsAddress{}, logger))
	New(s.svc, logger).Register(r)
	s.router = r
}

var _ attestor.Attestor = stubAttestor{}

func (s *HandlerSuite) do(method, path string, caller id.Address, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if !caller.IsZero() {
		req.Header.Set("Authorization", "Bearer "+caller.String())
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func (s *HandlerSuite) createBody(employerEmail string) map[string]any {
	return map[string]any{
		"seeker_name":    "Alice",
		"seeker_handle":  "alice.eth",
		"employer_name":  "Initech",
		"employer_email": employerEmail,
		"role":           "Engineer",
	}
}

// createClaim creates an email-path claim over HTTP and returns its id.
func (s *HandlerSuite) createClaim() id.ClaimID {
	rr := s.do(http.MethodPost, "/experiences", "0xseeker", s.createBody("hr@initech.example"))
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())

	var resp struct {
		ID id.ClaimID `json:"id"`
	}
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &resp))
	s.Require().False(resp.ID.IsZero())
	return resp.ID
}

func (s *HandlerSuite) TestRequiresAuthentication() {
	rr := s.do(http.MethodGet, "/experiences?owner=0xseeker", "", nil)
	s.Equal(http.StatusUnauthorized, rr.Code)
}

func (s *HandlerSuite) TestCreateAndGet() {
	claimID := s.createClaim()

	rr := s.do(http.MethodGet, fmt.Sprintf("/experiences/%s", claimID), "0xseeker", nil)
	s.Require().Equal(http.StatusOK, rr.Code)

	var rec models.Experience
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &rec))
	s.Equal(claimID, rec.ID)
	s.Equal(id.Address("0xseeker"), rec.Owner)
	s.Equal(models.AttestationNotInitiated, rec.AttestationStatus)
}

func (s *HandlerSuite) TestCreateRejectsMalformedBody() {
	req := httptest.NewRequest(http.MethodPost, "/experiences", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer 0xseeker")
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	s.Equal(http.StatusBadRequest, rr.Code)
}

func (s *HandlerSuite) TestCreateValidationErrorIs400() {
	body := s.createBody("hr@initech.example")
	body["role"] = ""
	rr := s.do(http.MethodPost, "/experiences", "0xseeker", body)
	s.Equal(http.StatusBadRequest, rr.Code)
}

func (s *HandlerSuite) TestGetUnknownIDs() {
	rr := s.do(http.MethodGet, "/experiences/12345", "0xseeker", nil)
	s.Equal(http.StatusNotFound, rr.Code)

	// Zero and non-numeric ids are a 404, not a parse error.
	rr = s.do(http.MethodGet, "/experiences/0", "0xseeker", nil)
	s.Equal(http.StatusNotFound, rr.Code)
	rr = s.do(http.MethodGet, "/experiences/abc", "0xseeker", nil)
	s.Equal(http.StatusNotFound, rr.Code)
}

func (s *HandlerSuite) TestFullLifecycleOverHTTP() {
	claimID := s.createClaim()
	path := fmt.Sprintf("/experiences/%s", claimID)

	rr := s.do(http.MethodPost, path+"/register", "0xemployer", map[string]any{
		"employer_address": "0xemployer",
		"employer_handle":  "initech.eth",
	})
	s.Require().Equal(http.StatusNoContent, rr.Code, rr.Body.String())

	rr = s.do(http.MethodPost, path+"/sign", "0xemployer", map[string]any{
		"seeker_address": "0xseeker",
	})
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())

	var signed struct {
		CredentialID id.CredentialID `json:"credential_id"`
	}
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &signed))
	s.Equal(id.CredentialID(9001), signed.CredentialID)

	rr = s.do(http.MethodGet, path, "0xseeker", nil)
	s.Require().Equal(http.StatusOK, rr.Code)
	var rec models.Experience
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &rec))
	s.Equal(models.AttestationSigned, rec.AttestationStatus)
}

func (s *HandlerSuite) TestChooseEmployer() {
	rr := s.do(http.MethodPost, "/experiences", "0xseeker", map[string]any{
		"seeker_name":      "Alice",
		"seeker_handle":    "alice.eth",
		"employer_name":    "Initech",
		"employer_address": "0xemployer",
		"employer_handle":  "initech.eth",
		"role":             "Engineer",
	})
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	var created struct {
		ID id.ClaimID `json:"id"`
	}
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &created))

	path := fmt.Sprintf("/experiences/%s/employer", created.ID)

	// Only the owner may choose.
	rr = s.do(http.MethodPost, path, "0xstranger", map[string]any{"employer_address": "0xemployer"})
	s.Equal(http.StatusForbidden, rr.Code)

	rr = s.do(http.MethodPost, path, "0xseeker", map[string]any{"employer_address": "0xemployer"})
	s.Equal(http.StatusNoContent, rr.Code, rr.Body.String())
}

func (s *HandlerSuite) TestRegisterEmployerConflictIs409() {
	first := s.createClaim()
	second := s.createClaim()

	register := func(claimID id.ClaimID, addr string) *httptest.ResponseRecorder {
		return s.do(http.MethodPost, fmt.Sprintf("/experiences/%s/register", claimID), "0xemployer", map[string]any{
			"employer_address": addr,
			"employer_handle":  "initech.eth",
		})
	}
	s.Require().Equal(http.StatusNoContent, register(first, "0xemployer").Code)
	s.Equal(http.StatusConflict, register(second, "0ximpostor").Code)
}

func (s *HandlerSuite) TestSignByWrongCallerIs403() {
	claimID := s.createClaim()
	path := fmt.Sprintf("/experiences/%s", claimID)
	rr := s.do(http.MethodPost, path+"/register", "0xemployer", map[string]any{
		"employer_address": "0xemployer",
		"employer_handle":  "initech.eth",
	})
	s.Require().Equal(http.StatusNoContent, rr.Code)

	rr = s.do(http.MethodPost, path+"/sign", "0xseeker", map[string]any{"seeker_address": "0xseeker"})
	s.Equal(http.StatusForbidden, rr.Code)
}

func (s *HandlerSuite) TestRejectOverHTTP() {
	claimID := s.createClaim()
	path := fmt.Sprintf("/experiences/%s", claimID)
	rr := s.do(http.MethodPost, path+"/register", "0xemployer", map[string]any{
		"employer_address": "0xemployer",
		"employer_handle":  "initech.eth",
	})
	s.Require().Equal(http.StatusNoContent, rr.Code)

	rr = s.do(http.MethodPost, path+"/reject", "0xemployer", nil)
	s.Equal(http.StatusNoContent, rr.Code)

	// Terminal: a later sign attempt maps to 422.
	rr = s.do(http.MethodPost, path+"/sign", "0xemployer", map[string]any{"seeker_address": "0xseeker"})
	s.Equal(http.StatusUnprocessableEntity, rr.Code)
}

func (s *HandlerSuite) TestListDispatch() {
	claimID := s.createClaim()

	rr := s.do(http.MethodGet, "/experiences?owner=0xseeker", "0xseeker", nil)
	s.Require().Equal(http.StatusOK, rr.Code)
	var resp struct {
		Experiences []models.Experience `json:"experiences"`
	}
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &resp))
	s.Require().Len(resp.Experiences, 1)
	s.Equal(claimID, resp.Experiences[0].ID)

	rr = s.do(http.MethodGet, "/experiences?employer_email=hr@initech.example", "0xseeker", nil)
	s.Require().Equal(http.StatusOK, rr.Code)
	resp.Experiences = nil
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &resp))
	s.Len(resp.Experiences, 1)

	rr = s.do(http.MethodGet, "/experiences?employer=0xemployer", "0xseeker", nil)
	s.Require().Equal(http.StatusOK, rr.Code)
	resp.Experiences = nil
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &resp))
	s.Empty(resp.Experiences)

	// No recognized query key.
	rr = s.do(http.MethodGet, "/experiences", "0xseeker", nil)
	s.Equal(http.StatusBadRequest, rr.Code)

	rr = s.do(http.MethodGet, "/experiences?owner=bogus", "0xseeker", nil)
	s.Equal(http.StatusBadRequest, rr.Code)
}

func TestClaimIDParamRejectsZero(t *testing.T) {
	r := chi.NewRouter()
	var got id.ClaimID
	var gotErr error
	r.Get("/x/{id}", func(w http.ResponseWriter, r *http.Request) {
		got, gotErr = claimIDParam(r)
	})
	req := httptest.NewRequest(http.MethodGet, "/x/0", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)
	require.Error(t, gotErr)
	require.True(t, got.IsZero())
}
