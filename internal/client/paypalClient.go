package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"linkcart/internal/config"
	"linkcart/internal/model"
)

const maxDescriptionLen = 127

// truncateDescription caps s at maxDescriptionLen characters without
// splitting a multi-byte rune.
func truncateDescription(s string) string {
	runes := []rune(s)
	if len(runes) <= maxDescriptionLen {
		return s
	}
	return string(runes[:maxDescriptionLen])
}

type PaypalClient interface {
	PaymentGateway
	CaptureOrder(ctx context.Context, paypalOrderID string) error
	VerifyWebhookSignature(ctx context.Context, headers http.Header, body []byte) error
}

type paypalClientImpl struct {
	httpClient         *http.Client
	baseApiURL         string
	serviceBaseURL     string
	paypalClientID     string
	paypalClientSecret string
	webhookID          string
}

func NewPaypalClient(paypalCfg *config.Paypal, serviceBaseURL string) PaypalClient {
	return &paypalClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL:         paypalCfg.BaseApiURL,
		serviceBaseURL:     serviceBaseURL,
		paypalClientID:     paypalCfg.ClientID,
		paypalClientSecret: paypalCfg.ClientSecret,
		webhookID:          paypalCfg.WebhookID,
	}
}

func (c *paypalClientImpl) Ready() bool {
	return c.baseApiURL != "" && c.paypalClientID != "" && c.paypalClientSecret != ""
}

func (c *paypalClientImpl) getAccessToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseApiURL+"/v1/oauth2/token",
		bytes.NewBufferString("grant_type=client_credentials"))
	if err != nil {
		return "", fmt.Errorf("http new request: %w", err)
	}
	req.SetBasicAuth(c.paypalClientID, c.paypalClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("paypal oauth error %d: %s", resp.StatusCode, string(b))
	}

	var res struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", fmt.Errorf("decode paypal token: %w", err)
	}

	return res.AccessToken, nil
}

func (c *paypalClientImpl) Initiate(ctx context.Context, pr model.PaymentRequest) (*Initiation, error) {
	if !c.Ready() {
		return nil, ErrGatewayNotConfigured
	}

	accessToken, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("get paypal access token: %w", err)
	}

	description := truncateDescription(pr.ItemSummary)

	orderQuery := url.Values{"order_id": {pr.OrderID}}.Encode()
	payload := map[string]interface{}{
		"intent": "CAPTURE",
		"purchase_units": []map[string]interface{}{
			{
				"reference_id": pr.OrderID,
				"custom_id":    pr.OrderID,
				"description":  description,
				"amount": map[string]string{
					"currency_code": pr.Currency,
					"value":         pr.Amount,
				},
			},
		},
		"payer": map[string]string{
			"email_address": pr.BuyerEmail,
		},
		"application_context": map[string]string{
			"return_url": fmt.Sprintf("%s/api/paypal/success?%s", c.serviceBaseURL, orderQuery),
			"cancel_url": fmt.Sprintf("%s/api/paypal/cancel?%s", c.serviceBaseURL, orderQuery),
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal req payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseApiURL+"/v2/checkout/orders",
		bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	// PayPal dedupes order creation on this header
	req.Header.Set("PayPal-Request-Id", pr.OrderID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("paypal create order request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("paypal error %d: %s", resp.StatusCode, string(b))
	}

	var result model.PaypalResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode paypal response: %w", err)
	}

	return &Initiation{
		GatewayOrderID: result.ID,
		ApprovalURL:    extractApproveURL(result.Links),
	}, nil
}

func (c *paypalClientImpl) CaptureOrder(ctx context.Context, paypalOrderID string) error {
	accessToken, err := c.getAccessToken(ctx)
	if err != nil {
		return fmt.Errorf("get paypal access token: %w", err)
	}

	captureURL := fmt.Sprintf(
		"%s/v2/checkout/orders/%s/capture",
		c.baseApiURL,
		paypalOrderID,
	)

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		captureURL,
		nil,
	)
	if err != nil {
		return fmt.Errorf("create capture request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("paypal capture request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	// 422 ORDER_ALREADY_CAPTURED means a previous redirect already did the work
	if resp.StatusCode == http.StatusUnprocessableEntity && bytes.Contains(body, []byte("ORDER_ALREADY_CAPTURED")) {
		return nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf(
			"paypal capture failed: status=%d body=%s",
			resp.StatusCode,
			string(body),
		)
	}

	return nil
}

func (c *paypalClientImpl) VerifyWebhookSignature(ctx context.Context, headers http.Header, body []byte) error {
	if c.webhookID == "" {
		return fmt.Errorf("verify webhook: %w", ErrGatewayNotConfigured)
	}

	accessToken, err := c.getAccessToken(ctx)
	if err != nil {
		return fmt.Errorf("get paypal access token: %w", err)
	}

	payload := map[string]interface{}{
		"auth_algo":         headers.Get("PAYPAL-AUTH-ALGO"),
		"cert_url":          headers.Get("PAYPAL-CERT-URL"),
		"transmission_id":   headers.Get("PAYPAL-TRANSMISSION-ID"),
		"transmission_sig":  headers.Get("PAYPAL-TRANSMISSION-SIG"),
		"transmission_time": headers.Get("PAYPAL-TRANSMISSION-TIME"),
		"webhook_id":        c.webhookID,
		"webhook_event":     json.RawMessage(body),
	}
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal verify payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseApiURL+"/v1/notifications/verify-webhook-signature",
		bytes.NewBuffer(reqBody))
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("paypal verify request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("paypal verify error %d: %s", resp.StatusCode, string(b))
	}

	var res struct {
		VerificationStatus string `json:"verification_status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return fmt.Errorf("decode verify response: %w", err)
	}
	if res.VerificationStatus != "SUCCESS" {
		return fmt.Errorf("webhook signature status %s", res.VerificationStatus)
	}

	return nil
}

func extractApproveURL(links []model.PaypalLink) string {
	for _, link := range links {
		if link.Rel == "approve" || link.Rel == "payer-action" {
			return link.Href
		}
	}
	return ""
}
