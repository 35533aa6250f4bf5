// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials hides whether the username or password was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

const bcryptCost = 12

// Credentials holds the administrator login. The password is kept only as
// a bcrypt hash.
type Credentials struct {
	username string
	hash     []byte
}

// NewCredentials hashes password.
func NewCredentials(username, password string) (*Credentials, error) {
	return newCredentialsWithCost(username, password, bcryptCost)
}

func newCredentialsWithCost(username, password string, cost int) (*Credentials, error) {
	if username == "" || password == "" {
		return nil, errors.New("admin username and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin password: %w", err)
	}
	return &Credentials{username: username, hash: hash}, nil
}

// Verify checks a login attempt. The password hash is compared even for a
// wrong username so both failures take the same time.
func (c *Credentials) Verify(username, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.username)) == 1
	passOK := bcrypt.CompareHashAndPassword(c.hash, []byte(password)) == nil
	if !userOK || !passOK {
		return ErrInvalidCredentials
	}
	return nil
}
