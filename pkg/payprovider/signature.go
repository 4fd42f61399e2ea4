package payprovider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignConfirmation reproduces the signature the provider hands to the
// browser after a successful checkout: hex HMAC-SHA256 over
// "<orderID>|<paymentID>" keyed with the order secret.
func SignConfirmation(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyConfirmation checks a client-side confirmation signature in
// constant time.
func VerifyConfirmation(orderID, paymentID, signature, secret string) bool {
	expected := SignConfirmation(orderID, paymentID, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// SignWebhook computes the hex HMAC-SHA256 of a raw webhook body.
func SignWebhook(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyWebhook checks a webhook signature against the raw request body in
// constant time. An empty secret always fails.
func VerifyWebhook(body []byte, signature, secret string) bool {
	if secret == "" {
		return false
	}
	expected := SignWebhook(body, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
