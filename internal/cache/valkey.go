// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package cache holds the Valkey connection shared by the page cache and
// the admin session store, and the rendered-page cache of the public site.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options locates a Valkey server.
type Options struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port.
func (o Options) Addr() string {
	return net.JoinHostPort(o.Host, o.Port)
}

// ConnectValkey opens a client and pings it. Short dial and I/O timeouts
// keep a slow cache from stalling page renders. The client is nil on error.
func ConnectValkey(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr(),
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("valkey ping %s: %w", opts.Addr(), err)
	}

	slog.Info("valkey connected", "addr", opts.Addr(), "db", opts.DB)
	return client, nil
}
