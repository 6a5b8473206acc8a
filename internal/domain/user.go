package domain

import "time"

// User represents a user document. The subscription is embedded and owned
// exclusively by this user; Version guards concurrent subscription updates
// between the sweep and webhook paths.
type User struct {
	ID                      string          `json:"id"`
	Email                   string          `json:"email"`
	DisplayName             string          `json:"display_name,omitempty"`
	FCMToken                string          `json:"fcm_token,omitempty"`
	NotificationPreferences map[string]bool `json:"notification_preferences,omitempty"`
	AutoRenewal             bool            `json:"auto_renewal"`
	PaymentMethod           string          `json:"payment_method,omitempty"`
	Subscription            Subscription    `json:"subscription"`
	Version                 int64           `json:"version"`
	CreatedAt               time.Time       `json:"created_at"`
	UpdatedAt               time.Time       `json:"updated_at"`
}

// NotificationEnabled reports whether the user accepts notifications of the
// given type. Absence of a key means enabled; only an explicit false disables.
func (u *User) NotificationEnabled(notificationType string) bool {
	if u.NotificationPreferences == nil {
		return true
	}
	enabled, ok := u.NotificationPreferences[notificationType]
	if !ok {
		return true
	}
	return enabled
}

// AutoRenewalEligible reports whether the user has opted into auto-renewal
// and has a stored payment method.
func (u *User) AutoRenewalEligible() bool {
	return u.AutoRenewal && u.PaymentMethod != ""
}
