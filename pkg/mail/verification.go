package mail

import "fmt"

// VerificationCodeMessage builds the confirmation-code email sent during signup.
func VerificationCodeMessage(code int, email string) Message {
	body := fmt.Sprintf(
		"Hi,\n\nSomeone tried to sign up for a Connect account with %s. If it was you, enter this confirmation code in the app:\n\n%d\n",
		email, code,
	)

	return Message{
		To:      []string{email},
		Subject: fmt.Sprintf("%d is your Connect code", code),
		Body:    body,
	}
}
