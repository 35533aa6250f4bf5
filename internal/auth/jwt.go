// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/sensorboard/internal/config"
)

// Roles carried in Claims.Role.
const (
	RoleAdmin  = "admin"
	RoleDevice = "device"
)

const issuer = "sensorboard"

// ErrInvalidToken is returned for tokens that fail parsing or verification.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the JWT claims of both principals. Subject is the admin
// username or the device id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IsDevice reports whether the token belongs to deviceID.
func (c *Claims) IsDevice(deviceID string) bool {
	return c.Role == RoleDevice && c.Subject == deviceID
}

// JWTManager signs and verifies tokens.
type JWTManager struct {
	secret    []byte
	adminTTL  time.Duration
	deviceTTL time.Duration
	now       func() time.Time
}

// NewJWTManager requires a non-empty secret. Config validation already
// enforces the minimum length.
func NewJWTManager(cfg *config.SecurityConfig) (*JWTManager, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required but was empty")
	}
	return &JWTManager{
		secret:    []byte(cfg.JWTSecret),
		adminTTL:  cfg.SessionTimeout,
		deviceTTL: cfg.DeviceTokenTTL,
		now:       time.Now,
	}, nil
}

// GenerateAdminToken issues a session token for the administrator.
func (m *JWTManager) GenerateAdminToken(username string) (string, time.Time, error) {
	return m.generate(username, RoleAdmin, m.adminTTL)
}

// GenerateDeviceToken issues a token a device uses to post readings.
func (m *JWTManager) GenerateDeviceToken(deviceID string) (string, time.Time, error) {
	return m.generate(deviceID, RoleDevice, m.deviceTTL)
}

func (m *JWTManager) generate(subject, role string, ttl time.Duration) (string, time.Time, error) {
	now := m.now()
	expires := now.Add(ttl)
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expires, nil
}

// ValidateToken verifies the signature, algorithm, issuer and time claims.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	switch claims.Role {
	case RoleAdmin, RoleDevice:
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}
	return claims, nil
}
