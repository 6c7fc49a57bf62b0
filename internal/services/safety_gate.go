package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"pazargate/internal/apperr"
	"pazargate/internal/config"
	"pazargate/internal/models"
	"pazargate/pkg/logger"
)

// SafetyStore is the persistence surface the safety gate needs
type SafetyStore interface {
	Insert(ctx context.Context, flag *models.ImageSafetyFlag) error
}

// Verdict is the gate's sum-typed result over an image
type Verdict struct {
	Safe       bool
	FlagType   models.FlagType
	Confidence models.Confidence
	Message    string
	Product    map[string]interface{}
}

type classifierRequest struct {
	ImageRef string `json:"image_ref"`
}

type classifierResponse struct {
	Safe         bool                   `json:"safe"`
	FlagType     string                 `json:"flag_type"`
	Confidence   string                 `json:"confidence"`
	Message      string                 `json:"message"`
	AllowListing bool                   `json:"allow_listing"`
	Product      map[string]interface{} `json:"product,omitempty"`
}

// SafetyGate classifies inbound images through the external
// classifier before any routing decision. Only the first image is
// evaluated; the rest inherit the verdict. A classifier outage
// fails open by default (availability over strictness; the product
// does not auto-ban), flipped by SAFETY_FAIL_CLOSED.
type SafetyGate struct {
	store  SafetyStore
	client *http.Client
	cfg    config.SafetyConfig
	logger *logger.Logger
}

// NewSafetyGate creates a new safety gate
func NewSafetyGate(store SafetyStore, cfg config.SafetyConfig, log *logger.Logger) *SafetyGate {
	return &SafetyGate{
		store:  store,
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		logger: log,
	}
}

// Evaluate classifies the first image reference. On a block the flag
// is persisted with status pending before the verdict returns.
func (g *SafetyGate) Evaluate(ctx context.Context, userID *uuid.UUID, imageRefs []string) (Verdict, error) {
	if len(imageRefs) == 0 {
		return Verdict{Safe: true}, nil
	}

	imageRef := imageRefs[0]

	resp, err := g.classify(ctx, imageRef)
	if err != nil {
		if g.cfg.FailClosed {
			verdict := Verdict{
				Safe:       false,
				FlagType:   models.FlagTypeUnknown,
				Confidence: models.ConfidenceLow,
				Message:    "classifier unavailable",
			}
			g.persistFlag(ctx, userID, imageRef, verdict)
			return verdict, nil
		}
		g.logger.Warn("safety classifier unavailable, failing open: %v", err)
		return Verdict{Safe: true}, nil
	}

	if resp.Safe && resp.AllowListing {
		return Verdict{Safe: true, Product: resp.Product}, nil
	}

	flagType := models.FlagType(resp.FlagType)
	if !flagType.IsValid() || flagType == models.FlagTypeNone {
		flagType = models.FlagTypeUnknown
	}
	confidence := models.Confidence(resp.Confidence)
	if !confidence.IsValid() {
		confidence = models.ConfidenceLow
	}

	verdict := Verdict{
		Safe:       false,
		FlagType:   flagType,
		Confidence: confidence,
		Message:    resp.Message,
	}
	g.persistFlag(ctx, userID, imageRef, verdict)

	return verdict, nil
}

func (g *SafetyGate) classify(ctx context.Context, imageRef string) (*classifierResponse, error) {
	const op = "safety_gate.classify"

	if g.cfg.ClassifierURL == "" {
		return nil, apperr.E(apperr.KindExternalUnavailable, op, "classifier not configured", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(classifierRequest{ImageRef: imageRef})
	if err != nil {
		return nil, apperr.E(apperr.KindExternalUnavailable, op, "", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.ClassifierURL, bytes.NewReader(body))
	if err != nil {
		return nil, apperr.E(apperr.KindExternalUnavailable, op, "", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := g.client.Do(req)
	if err != nil {
		return nil, apperr.E(apperr.KindExternalUnavailable, op, "", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, apperr.E(apperr.KindExternalUnavailable, op, fmt.Sprintf("status %d", httpResp.StatusCode), nil)
	}

	var resp classifierResponse
	decoder := json.NewDecoder(httpResp.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&resp); err != nil {
		return nil, apperr.E(apperr.KindExternalUnavailable, op, "malformed classifier response", err)
	}

	return &resp, nil
}

// persistFlag writes the audit row; a store failure downgrades to a
// log line so the user still gets the refusal
func (g *SafetyGate) persistFlag(ctx context.Context, userID *uuid.UUID, imageRef string, v Verdict) {
	flag := &models.ImageSafetyFlag{
		UserID:     userID,
		ImageRef:   &imageRef,
		FlagType:   v.FlagType,
		Confidence: v.Confidence,
		Message:    v.Message,
		Status:     models.FlagStatusPending,
	}
	if err := g.store.Insert(ctx, flag); err != nil {
		g.logger.Error("failed to persist safety flag: %v", err)
	}
}
