package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// PasswordResetMessage asks the mail pipeline to send a reset link.
type PasswordResetMessage struct {
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	ResetURL  string    `json:"reset_url"`
	ExpiresAt time.Time `json:"expires_at"`
	Timestamp time.Time `json:"timestamp"`
}

func NewPasswordResetMessage(email, username, resetURL string, expires time.Time) *PasswordResetMessage {
	return &PasswordResetMessage{
		Email:     email,
		Username:  username,
		ResetURL:  resetURL,
		ExpiresAt: expires.UTC(),
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *PasswordResetMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func PasswordResetMessageFromJSON(data []byte) (*PasswordResetMessage, error) {
	var msg PasswordResetMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Email == "" || msg.ResetURL == "" {
		return nil, fmt.Errorf("password reset message missing email or reset_url")
	}
	return &msg, nil
}
