package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"rentara/internal/domain"
)

// MomoClient talks to the MTN MoMo collection API (request-to-pay).
type MomoClient struct {
	http            *http.Client
	baseURL         string
	targetEnv       string
	subscriptionKey string
	userID          string
	apiKey          string
}

type MomoConfig struct {
	BaseURL         string
	TargetEnv       string
	SubscriptionKey string
	UserID          string
	APIKey          string
	Timeout         time.Duration
}

func NewMomoClient(cfg MomoConfig) *MomoClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &MomoClient{
		http:            &http.Client{Timeout: timeout},
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		targetEnv:       cfg.TargetEnv,
		subscriptionKey: cfg.SubscriptionKey,
		userID:          cfg.UserID,
		apiKey:          cfg.APIKey,
	}
}

func (c *MomoClient) token(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/collection/token/", nil)
	if err != nil {
		return "", err
	}
	basic := base64.StdEncoding.EncodeToString([]byte(c.userID + ":" + c.apiKey))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Ocp-Apim-Subscription-Key", c.subscriptionKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token request returned %d", ErrUnavailable, resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return body.AccessToken, nil
}

type momoPayRequest struct {
	Amount       string    `json:"amount"`
	Currency     string    `json:"currency"`
	ExternalID   string    `json:"externalId"`
	Payer        momoPayer `json:"payer"`
	PayerMessage string    `json:"payerMessage"`
	PayeeNote    string    `json:"payeeNote"`
}

type momoPayer struct {
	PartyIDType string `json:"partyIdType"`
	PartyID     string `json:"partyId"`
}

func (c *MomoClient) RequestPayment(ctx context.Context, r Request) (*Result, error) {
	tok, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	payload := momoPayRequest{
		Amount:     strconv.FormatFloat(r.Amount, 'f', -1, 64),
		Currency:   r.Currency,
		ExternalID: r.Reference,
		Payer: momoPayer{
			PartyIDType: "MSISDN",
			PartyID:     normalizeMsisdn(r.Details.Phone),
		},
		PayerMessage: "Property rental payment",
		PayeeNote:    "Rentara booking",
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/collection/v1_0/requesttopay", bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, tok)
	req.Header.Set("X-Reference-Id", r.Reference)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	// MoMo acknowledges with 202 and confirms asynchronously.
	if resp.StatusCode != http.StatusAccepted {
		return &Result{
			TransactionID: r.Reference,
			Status:        domain.PaymentFailed,
			Message:       fmt.Sprintf("request to pay rejected with status %d", resp.StatusCode),
			Raw:           string(raw),
		}, nil
	}

	return &Result{
		TransactionID: r.Reference,
		Status:        domain.PaymentPending,
		Message:       "awaiting payer confirmation",
		Raw:           string(raw),
	}, nil
}

func (c *MomoClient) QueryStatus(ctx context.Context, transactionID string) (*Result, error) {
	tok, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/collection/v1_0/requesttopay/"+transactionID, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, tok)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status query returned %d", ErrUnavailable, resp.StatusCode)
	}

	var body struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return &Result{
		TransactionID: transactionID,
		Status:        MapMomoStatus(body.Status),
		Message:       body.Reason,
		Raw:           string(raw),
	}, nil
}

func (c *MomoClient) setHeaders(req *http.Request, token string) {
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Target-Environment", c.targetEnv)
	req.Header.Set("Ocp-Apim-Subscription-Key", c.subscriptionKey)
}

// MapMomoStatus translates MoMo wire statuses into payment statuses.
func MapMomoStatus(s string) domain.PaymentStatus {
	switch strings.ToUpper(s) {
	case "SUCCESSFUL":
		return domain.PaymentCompleted
	case "FAILED", "REJECTED", "TIMEOUT":
		return domain.PaymentFailed
	}
	return domain.PaymentPending
}

func normalizeMsisdn(phone string) string {
	phone = strings.TrimPrefix(strings.TrimSpace(phone), "+")
	if strings.HasPrefix(phone, "250") {
		return phone
	}
	return "250" + strings.TrimPrefix(phone, "0")
}
