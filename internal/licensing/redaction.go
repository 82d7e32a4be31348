package licensing

import "strings"

const redactionPlaceholderConstant = "REDACTED"

// secretRedactor masks a credential in user-facing text.
type secretRedactor struct {
	secret string
}

func newSecretRedactor(secret string) secretRedactor {
	return secretRedactor{secret: strings.TrimSpace(secret)}
}

func (redactor secretRedactor) redact(text string) string {
	if len(redactor.secret) == 0 {
		return text
	}
	return strings.ReplaceAll(text, redactor.secret, redactionPlaceholderConstant)
}
