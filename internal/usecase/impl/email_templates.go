package impl

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	verificationSubject = "Verify Your Account"
	resetSubject        = "Reset Your Password"
)

func linkWithToken(frontendURL, path, rawToken, email string) string {
	query := url.Values{}
	query.Set("token", rawToken)
	query.Set("email", email)

	return strings.TrimRight(frontendURL, "/") + path + "?" + query.Encode()
}

func verificationEmail(frontendURL, email, rawToken string, expiresInMinutes int) (string, string) {
	link := linkWithToken(frontendURL, "/authenticate", rawToken, email)

	return verificationSubject, fmt.Sprintf(
		"Please click the following link to verify your account: %s\nThe link will expire in %d minutes from the time this email was sent.",
		link, expiresInMinutes,
	)
}

func resetEmail(frontendURL, email, rawToken string, expiresInMinutes int) (string, string) {
	link := linkWithToken(frontendURL, "/reset-password", rawToken, email)

	return resetSubject, fmt.Sprintf(
		"Please click the following link to reset your password: %s\nThe link will expire in %d minutes from the time this email was sent.",
		link, expiresInMinutes,
	)
}
