package attestor

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
)

// EndpointProvider supplies the signer's base URL. The administrator can
// repoint it at runtime, so the client resolves it per call instead of
// capturing it at construction.
type EndpointProvider interface {
	AttestorEndpoint() string
}

// Client talks to the external attestation signer over HTTP JSON.
type Client struct {
	endpoints EndpointProvider
	http      *http.Client
}

func NewClient(endpoints EndpointProvider, timeout time.Duration) *Client {
	return &Client{
		endpoints: endpoints,
		http:      &http.Client{Timeout: timeout},
	}
}

type attestRequest struct {
	SchemaID   string   `json:"schema_id"`
	Payload    string   `json:"payload"`
	Digest     string   `json:"digest"`
	Recipients []string `json:"recipients"`
}

type attestResponse struct {
	CredentialID uint64 `json:"credential_id"`
}

// Attest submits the payload and its precomputed digest for signing. Any
// transport failure, non-200 response, or zero credential id is surfaced as
// a collaborator failure; the caller decides what that means for local
// state.
func (c *Client) Attest(ctx context.Context, schemaID id.SchemaID, payload []byte, digest [32]byte, recipients []id.Address) (id.CredentialID, error) {
	endpoint := c.endpoints.AttestorEndpoint()
	if endpoint == "" {
		return 0, dErrors.New(dErrors.CodeCollaborator, "attestation signer endpoint is not configured")
	}

	req := attestRequest{
		SchemaID:   string(schemaID),
		Payload:    base64.StdEncoding.EncodeToString(payload),
		Digest:     hex.EncodeToString(digest[:]),
		Recipients: make([]string, 0, len(recipients)),
	}
	for _, r := range recipients {
		req.Recipients = append(req.Recipients, r.String())
	}

	body, err := json.Marshal(req)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "encode attest request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/attestations", bytes.NewReader(body))
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "build attest request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeCollaborator, "attestation signer unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, dErrors.Newf(dErrors.CodeCollaborator, "attestation signer returned status %d", resp.StatusCode)
	}

	var out attestResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeCollaborator, "decode attest response")
	}
	credID := id.CredentialID(out.CredentialID)
	if credID.IsZero() {
		return 0, dErrors.New(dErrors.CodeCollaborator, "attestation signer rejected the payload")
	}
	return credID, nil
}
