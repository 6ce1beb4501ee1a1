// Package identity wraps the World ID cloud verification endpoint behind a
// single Verifier interface. Verification failures are terminal for the
// request; no fallback identity is ever fabricated.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrVerificationFailed indicates the provider rejected the proof.
var ErrVerificationFailed = errors.New("identity: verification failed")

// Proof carries the zero-knowledge proof fields submitted by the client.
type Proof struct {
	Proof             string `json:"proof"`
	MerkleRoot        string `json:"merkle_root"`
	NullifierHash     string `json:"nullifier_hash"`
	VerificationLevel string `json:"verification_level"`
	Signal            string `json:"signal"`
}

// Verification is the provider's answer for a submitted proof.
type Verification struct {
	Success       bool
	NullifierHash string
	ErrorDetail   string
}

// Verifier checks a proof against the identity provider.
type Verifier interface {
	Verify(ctx context.Context, proof Proof) (Verification, error)
}

const defaultBaseURL = "https://developer.worldcoin.org/api/v2/verify"

// HTTPVerifier calls the World ID cloud verify endpoint.
type HTTPVerifier struct {
	client  *http.Client
	baseURL string
	appID   string
	action  string
}

// NewHTTPVerifier constructs an HTTPVerifier for the given app and action.
func NewHTTPVerifier(appID, action string) *HTTPVerifier {
	return &HTTPVerifier{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: defaultBaseURL,
		appID:   strings.TrimSpace(appID),
		action:  strings.TrimSpace(action),
	}
}

// Verify posts the proof to the provider and interprets the response.
func (v *HTTPVerifier) Verify(ctx context.Context, proof Proof) (Verification, error) {
	if v.appID == "" {
		return Verification{}, fmt.Errorf("identity: missing app id")
	}

	payload := map[string]string{
		"proof":              proof.Proof,
		"merkle_root":        proof.MerkleRoot,
		"nullifier_hash":     proof.NullifierHash,
		"verification_level": proof.VerificationLevel,
		"action":             v.action,
		"signal":             proof.Signal,
	}
	body, errMarshal := json.Marshal(payload)
	if errMarshal != nil {
		return Verification{}, fmt.Errorf("identity: marshal proof: %w", errMarshal)
	}

	url := v.baseURL + "/" + v.appID
	req, errReq := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if errReq != nil {
		return Verification{}, fmt.Errorf("identity: build request: %w", errReq)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, errDo := v.client.Do(req)
	if errDo != nil {
		return Verification{}, fmt.Errorf("identity: verify request: %w", errDo)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, errRead := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if errRead != nil {
		return Verification{}, fmt.Errorf("identity: read response: %w", errRead)
	}

	if resp.StatusCode != http.StatusOK {
		var failure struct {
			Detail string `json:"detail"`
			Code   string `json:"code"`
		}
		_ = json.Unmarshal(raw, &failure)
		detail := failure.Detail
		if detail == "" {
			detail = failure.Code
		}
		return Verification{Success: false, ErrorDetail: detail}, ErrVerificationFailed
	}

	var success struct {
		Success       bool   `json:"success"`
		NullifierHash string `json:"nullifier_hash"`
	}
	if errUnmarshal := json.Unmarshal(raw, &success); errUnmarshal != nil {
		return Verification{}, fmt.Errorf("identity: decode response: %w", errUnmarshal)
	}
	if !success.Success {
		return Verification{Success: false}, ErrVerificationFailed
	}

	nullifier := success.NullifierHash
	if nullifier == "" {
		nullifier = proof.NullifierHash
	}
	return Verification{Success: true, NullifierHash: nullifier}, nil
}

// StaticVerifier accepts or rejects every proof; used in tests.
type StaticVerifier struct {
	Accept    bool
	Nullifier string
}

// Verify returns the configured static outcome.
func (v StaticVerifier) Verify(_ context.Context, proof Proof) (Verification, error) {
	if !v.Accept {
		return Verification{Success: false}, ErrVerificationFailed
	}
	nullifier := v.Nullifier
	if nullifier == "" {
		nullifier = proof.NullifierHash
	}
	return Verification{Success: true, NullifierHash: nullifier}, nil
}
