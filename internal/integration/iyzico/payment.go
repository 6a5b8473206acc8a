package iyzico

import (
	"context"
	"fmt"
	"time"

	"github.com/wodoo-app/subscription-service/internal/domain"
)

// paymentRequest is the body for POST /payment/create
type paymentRequest struct {
	Locale         string       `json:"locale"`
	ConversationID string       `json:"conversationId"`
	Price          string       `json:"price"`
	PaidPrice      string       `json:"paidPrice"`
	Currency       string       `json:"currency"`
	Installment    int          `json:"installment"`
	BasketID       string       `json:"basketId"`
	PaymentChannel string       `json:"paymentChannel"`
	PaymentGroup   string       `json:"paymentGroup"`
	PaymentMethod  string       `json:"cardUserKey"`
	BasketItems    []basketItem `json:"basketItems"`
}

type basketItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category1 string `json:"category1"`
	Category2 string `json:"category2"`
	ItemType  string `json:"itemType"`
	Price     string `json:"price"`
}

// paymentResponse is the iyzico response for create and retrieve calls
type paymentResponse struct {
	Status        string `json:"status"`
	PaymentID     string `json:"paymentId"`
	PaymentStatus string `json:"paymentStatus"`
	AuthCode      string `json:"authCode"`
	ErrorCode     string `json:"errorCode"`
	ErrorMessage  string `json:"errorMessage"`
}

// Charge bills the stored payment method for one subscription period
func (c *Client) Charge(ctx context.Context, req domain.ChargeRequest) (*domain.ChargeResult, error) {
	c.log.Debug("Creating iyzico payment for user %s, plan %s", req.UserID, req.Plan)

	price := fmt.Sprintf("%.2f", req.Amount)
	payload := paymentRequest{
		Locale:         "tr",
		ConversationID: fmt.Sprintf("subscription_%s_%d", req.UserID, time.Now().UnixMilli()),
		Price:          price,
		PaidPrice:      price,
		Currency:       "TRY",
		Installment:    1,
		BasketID:       fmt.Sprintf("subscription_%s", req.Plan),
		PaymentChannel: "WEB",
		PaymentGroup:   "SUBSCRIPTION",
		PaymentMethod:  req.PaymentMethod,
		BasketItems: []basketItem{
			{
				ID:        string(req.Plan),
				Name:      fmt.Sprintf("Wodoo %s Subscription", req.Plan),
				Category1: "Subscription",
				Category2: "Fitness",
				ItemType:  "VIRTUAL",
				Price:     price,
			},
		},
	}

	var resp paymentResponse
	if err := c.post(ctx, "/payment/create", payload, &resp); err != nil {
		return nil, err
	}

	if resp.Status != "success" {
		message := resp.ErrorMessage
		if message == "" {
			message = "payment declined"
		}
		c.log.Warn("Iyzico payment declined for user %s: %s", req.UserID, message)
		return &domain.ChargeResult{
			Success:      false,
			ErrorMessage: message,
		}, nil
	}

	c.log.Info("Successfully created iyzico payment %s for user %s", resp.PaymentID, req.UserID)
	return &domain.ChargeResult{
		Success:       true,
		PaymentID:     resp.PaymentID,
		TransactionID: resp.AuthCode,
	}, nil
}

// VerifyPayment checks that a payment completed successfully on the
// gateway side. Used before activating a subscription from a client-side
// purchase.
func (c *Client) VerifyPayment(ctx context.Context, paymentID string, amount float64) (bool, error) {
	status, err := c.RetrievePaymentStatus(ctx, paymentID)
	if err != nil {
		return false, err
	}
	return status == "SUCCESS", nil
}

// RetrievePaymentStatus queries the current state of one payment
func (c *Client) RetrievePaymentStatus(ctx context.Context, paymentID string) (string, error) {
	c.log.Debug("Retrieving iyzico payment status for payment %s", paymentID)

	payload := map[string]string{
		"locale":         "tr",
		"conversationId": "status_" + paymentID,
		"paymentId":      paymentID,
	}

	var resp paymentResponse
	if err := c.post(ctx, "/payment/retrieve", payload, &resp); err != nil {
		return "", err
	}

	if resp.Status != "success" {
		return "", fmt.Errorf("iyzico API error: %s", resp.ErrorMessage)
	}

	return resp.PaymentStatus, nil
}
