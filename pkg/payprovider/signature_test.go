package payprovider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifyConfirmation(t *testing.T) {
	secret := "order-secret"
	sig := SignConfirmation("order_abc", "pay_xyz", secret)

	assert.True(t, VerifyConfirmation("order_abc", "pay_xyz", sig, secret))
	assert.False(t, VerifyConfirmation("order_abc", "pay_other", sig, secret))
	assert.False(t, VerifyConfirmation("order_abc", "pay_xyz", sig, "wrong-secret"))
}

func TestVerifyConfirmationFlippedByte(t *testing.T) {
	secret := "order-secret"
	sig := SignConfirmation("order_abc", "pay_xyz", secret)

	tampered := []byte(sig)
	if tampered[0] == 'a' {
		tampered[0] = 'b'
	} else {
		tampered[0] = 'a'
	}
	assert.False(t, VerifyConfirmation("order_abc", "pay_xyz", string(tampered), secret))
}

func TestVerifyWebhook(t *testing.T) {
	body := []byte(`{"event":"payment.captured"}`)
	secret := "hook-secret"
	sig := SignWebhook(body, secret)

	assert.True(t, VerifyWebhook(body, sig, secret))
	assert.False(t, VerifyWebhook([]byte(`{"event":"payment.failed"}`), sig, secret))
	assert.False(t, VerifyWebhook(body, sig, ""))
}
