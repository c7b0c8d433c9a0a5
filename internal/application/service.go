package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-account-service/config"
	"github.com/oksasatya/go-account-service/internal/domain/entity"
	repo "github.com/oksasatya/go-account-service/internal/domain/repository"
	"github.com/oksasatya/go-account-service/pkg/apperror"
	"github.com/oksasatya/go-account-service/pkg/helpers"
	"github.com/oksasatya/go-account-service/pkg/mailer"
	"github.com/oksasatya/go-account-service/pkg/mailer/templates"
	"github.com/oksasatya/go-account-service/pkg/validation"
)

// MaxImageBytes is the largest accepted profile image.
const MaxImageBytes = 1_000_000

// Deps are the collaborators shared by the account services.
// Images may be nil, in which case image uploads are rejected.
type Deps struct {
	Accounts repo.AccountRepository
	Sessions repo.SessionStore
	Ledger   repo.TokenLedger
	Images   repo.ImageStore
	Index    repo.AccountIndex
	Mailer   mailer.Dispatcher
	Hasher   *helpers.PasswordHasher
	Tokens   *helpers.TokenManager
	Logger   *logrus.Logger
	Cfg      *config.Config
}

// ImageUpload is a profile image received from a client.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

func (d *Deps) log() *logrus.Logger {
	if d.Logger == nil {
		return helpers.NewDiscardLogger()
	}
	return d.Logger
}

func checkPassword(pw string) error {
	if len(pw) < validation.MinPasswordLength {
		return apperror.Validation(fmt.Sprintf("minimum length of password is %d", validation.MinPasswordLength))
	}
	return nil
}

func (d *Deps) hash(pw string) (string, error) {
	h, err := d.Hasher.Hash(pw)
	if err != nil {
		return "", apperror.Internal("could not hash password", err)
	}
	return h, nil
}

// uploadImage validates and stores img, returning its URL and content type.
func (d *Deps) uploadImage(ctx context.Context, img *ImageUpload) (string, string, error) {
	if img == nil {
		return "", "", nil
	}
	if img.Size > MaxImageBytes {
		return "", "", apperror.Validation("maximum size for image is 1mb")
	}
	ct := strings.ToLower(strings.TrimSpace(img.ContentType))
	if !strings.HasPrefix(ct, "image/") {
		return "", "", apperror.Validation("image must be an image file")
	}
	if d.Images == nil {
		return "", "", apperror.Validation("image uploads are not enabled")
	}
	// Size comes from the client; cap the reader as well.
	body := io.LimitReader(img.Body, MaxImageBytes+1)
	url, err := d.Images.Upload(ctx, body, img.Filename, ct)
	if err != nil {
		return "", "", apperror.Internal("could not store image", err)
	}
	return url, ct, nil
}

// findAccount maps repository lookups to application errors.
func (d *Deps) findAccount(ctx context.Context, id string) (*entity.Account, error) {
	a, err := d.Accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperror.NotFound("account not found")
		}
		return nil, apperror.Internal("could not load account", err)
	}
	return a, nil
}

// sendEmail renders and dispatches an email. Failures are logged, never returned.
func (d *Deps) sendEmail(ctx context.Context, name string, data templates.EmailData) {
	data.AppName = d.Cfg.AppName
	data.CompanyName = d.Cfg.CompanyName
	data.SupportURL = d.Cfg.SupportURL
	subject, text, html, err := templates.Render(name, data)
	if err != nil {
		d.log().WithError(err).WithField("template", name).Error("render email failed")
		return
	}
	if d.Mailer == nil {
		return
	}
	msg := mailer.EmailMessage{To: data.Email, Subject: subject, Text: text, HTML: html}
	if err := d.Mailer.Send(ctx, msg); err != nil {
		d.log().WithError(err).WithFields(logrus.Fields{"template": name, "to": data.Email}).Warn("dispatch email failed")
	}
}

func (d *Deps) index(ctx context.Context, a *entity.Account) {
	if d.Index == nil || !d.Index.Enabled() {
		return
	}
	if err := d.Index.Index(ctx, a); err != nil {
		d.log().WithError(err).WithField("account_id", a.ID).Warn("index account failed")
	}
}

func (d *Deps) unindex(ctx context.Context, id string) {
	if d.Index == nil || !d.Index.Enabled() {
		return
	}
	if err := d.Index.Remove(ctx, id); err != nil {
		d.log().WithError(err).WithField("account_id", id).Warn("remove account from index failed")
	}
}

// revokeSessions drops every session of an account; failures are logged.
func (d *Deps) revokeSessions(ctx context.Context, accountID string) {
	if err := d.Sessions.DeleteByAccount(ctx, accountID); err != nil {
		d.log().WithError(err).WithField("account_id", accountID).Warn("revoke sessions failed")
	}
}

// consume verifies a pending token and marks it used.
func (d *Deps) consume(ctx context.Context, token string, purpose helpers.TokenPurpose) (*helpers.PendingToken, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperror.Validation("token is missing")
	}
	pt, err := d.Tokens.Verify(token, purpose)
	if err != nil {
		if errors.Is(err, helpers.ErrTokenExpired) {
			return nil, apperror.Auth("token is expired", err)
		}
		return nil, apperror.Auth("token is invalid", err)
	}
	ok, err := d.Ledger.Consume(ctx, pt.ID, d.Tokens.Remaining(pt))
	if err != nil {
		return nil, apperror.Internal("could not record token use", err)
	}
	if !ok {
		return nil, apperror.Auth("token was already used", nil)
	}
	return pt, nil
}

// release makes a consumed token usable again after an internal failure.
func (d *Deps) release(ctx context.Context, pt *helpers.PendingToken) {
	if err := d.Ledger.Release(ctx, pt.ID); err != nil {
		d.log().WithError(err).WithField("token_id", pt.ID).Warn("release token failed")
	}
}
