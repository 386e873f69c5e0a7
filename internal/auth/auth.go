// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package auth verifies the single administrator account configured through
// the environment: a bcrypt password hash and an optional TOTP secret.
package auth

import (
	"crypto/subtle"
	"fmt"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/crypto/bcrypt"
)

// Issuer is the name shown by authenticator apps.
const Issuer = "Blog CMS"

// Admin holds the configured administrator credentials.
// A nil or zero Admin means authentication is disabled.
type Admin struct {
	username     string
	passwordHash []byte
	totpSecret   string
}

// NewAdmin returns the administrator described by the given settings.
// An empty passwordHash disables authentication.
func NewAdmin(username, passwordHash, totpSecret string) *Admin {
	return &Admin{
		username:     username,
		passwordHash: []byte(passwordHash),
		totpSecret:   totpSecret,
	}
}

// Enabled reports whether admin routes require a login.
func (a *Admin) Enabled() bool {
	return a != nil && len(a.passwordHash) > 0
}

// RequiresTOTP reports whether a second factor is configured.
func (a *Admin) RequiresTOTP() bool {
	return a.Enabled() && a.totpSecret != ""
}

// Username returns the configured administrator name.
func (a *Admin) Username() string {
	if a == nil {
		return ""
	}
	return a.username
}

// CheckCredentials compares username and password against the configured
// account. The password is always hashed so timing does not reveal whether
// the username matched.
func (a *Admin) CheckCredentials(username, password string) bool {
	if !a.Enabled() {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passOK := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)) == nil
	return userOK && passOK
}

// ValidateCode checks a TOTP code against the configured secret.
func (a *Admin) ValidateCode(code string) bool {
	if !a.RequiresTOTP() {
		return false
	}
	return totp.Validate(code, a.totpSecret)
}

// HashPassword returns the bcrypt hash to store in ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("hash password: empty password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// TOTPSetup is a freshly generated TOTP secret and its enrollment QR code.
type TOTPSetup struct {
	Secret string
	URL    string
	QRCode []byte // PNG
}

// GenerateTOTP creates a new TOTP secret for account and renders the
// otpauth URL as a PNG QR code.
func GenerateTOTP(account string) (*TOTPSetup, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      Issuer,
		AccountName: account,
	})
	if err != nil {
		return nil, fmt.Errorf("totp generate: %w", err)
	}

	png, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("qr code: %w", err)
	}

	return &TOTPSetup{Secret: key.Secret(), URL: key.URL(), QRCode: png}, nil
}
