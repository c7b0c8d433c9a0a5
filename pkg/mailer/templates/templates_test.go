package templates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderVerifyEmail(t *testing.T) {
	data := EmailData{
		Name:      "Alice",
		Email:     "alice@x.com",
		AppName:   "Accounts",
		ActionURL: "http://client.test/api/users/activate?token=abc",
		ExpiresAt: time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC),
	}
	subject, text, html, err := Render(VerifyEmail, data)
	require.NoError(t, err)

	assert.Equal(t, "Activate your Accounts account", subject)
	assert.Contains(t, text, "Hello Alice!")
	assert.Contains(t, text, "02 January 2026, 03:04 UTC")
	assert.Contains(t, html, `href="http://client.test/api/users/activate?token=abc"`)
}

func TestRenderEscapesHTML(t *testing.T) {
	_, _, html, err := Render(ResetPassword, EmailData{Name: "<script>x</script>", ActionURL: "http://c.test"})
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
}

func TestRenderDefaults(t *testing.T) {
	subject, _, _, err := Render(AccountDeleted, EmailData{Name: "Bob", Email: "bob@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "Your user account was deleted", subject)
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, _, err := Render("missing", EmailData{})
	assert.Error(t, err)
}
