package entity

// PendingRegistration is carried inside a signed registration token until the
// email address is confirmed. Nothing is persisted before that.
type PendingRegistration struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	PasswordHash     string `json:"password_hash"`
	ImageURL         string `json:"image_url,omitempty"`
	ImageContentType string `json:"image_content_type,omitempty"`
}

// PendingReset is carried inside a signed reset token. The new password is
// already hashed when the token is issued.
type PendingReset struct {
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
}
