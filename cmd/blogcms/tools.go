// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/natefinch/atomic"

	"blogcms/internal/auth"
	"blogcms/internal/sitemap"
)

// hashPassword reads one line from in and writes its bcrypt hash to out,
// ready to be used as ADMIN_PASSWORD_HASH.
func hashPassword(in io.Reader, out io.Writer) error {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return errors.New("password must not be empty")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, hash)
	return err
}

// adminAccount is the account name shown in authenticator apps.
func adminAccount() string {
	if u := os.Getenv("ADMIN_USER"); u != "" {
		return u
	}
	return "admin"
}

// totpSetup generates a new TOTP secret, writes the enrollment QR code to
// path and prints the secret and otpauth URL to out.
func totpSetup(account, path string, out io.Writer) error {
	setup, err := auth.GenerateTOTP(account)
	if err != nil {
		return err
	}
	if err := atomic.WriteFile(path, bytes.NewReader(setup.QRCode)); err != nil {
		return fmt.Errorf("write qr code: %w", err)
	}

	fmt.Fprintf(out, "ADMIN_TOTP_SECRET=%s\n", setup.Secret)
	fmt.Fprintf(out, "otpauth URL: %s\n", setup.URL)
	fmt.Fprintf(out, "QR code written to %s\n", path)
	return nil
}

// writeSitemap renders the sitemap and replaces path atomically, so a web
// server serving the file never sees a partial write.
func writeSitemap(ctx context.Context, path, baseURL string, posts sitemap.PostSource, categories sitemap.CategorySource) error {
	out, err := sitemap.Generate(ctx, baseURL, posts, categories)
	if err != nil {
		return err
	}
	if err := atomic.WriteFile(path, bytes.NewReader(out)); err != nil {
		return fmt.Errorf("write sitemap: %w", err)
	}
	slog.Info("sitemap written", "path", path, "bytes", len(out))
	return nil
}
