// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "time"

// # Authentication Constraints

const (
	// AccessTokenTTL is how long a bearer token issued at login stays valid.
	// It covers one office shift; logout revokes it earlier.
	AccessTokenTTL = 12 * time.Hour

	// MinPasswordLength applies to self-service password changes.
	MinPasswordLength = 6

	// MaxFullNameLength bounds profile updates.
	MaxFullNameLength = 255

	// MaxUserAgentLength matches users.staff.last_login_agent.
	MaxUserAgentLength = 255
)

// # Field Identifiers

// Field names used in validation errors and request payloads.
const (
	FieldEmail                   = "email"
	FieldPassword                = "password"
	FieldUsername                = "username"
	FieldFullName                = "full_name"
	FieldCurrentPassword         = "current_password"
	FieldNewPassword             = "new_password"
	FieldNewPasswordConfirmation = "new_password_confirmation"
)

// # Messages

const (
	messageBadCredentials  = "The provided credentials are incorrect."
	messageDeactivated     = "Your account has been deactivated. Please contact an administrator."
	messageWrongPassword   = "The current password is incorrect."
	messageEmailTaken      = "The email has already been taken."
	messageUsernameTaken   = "The username has already been taken."
	messageLoggedOut       = "Logged out successfully"
	messageProfileUpdated  = "Profile updated successfully."
	messagePasswordUpdated = "Password updated successfully."
)
