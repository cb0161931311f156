package logger

// RedactToken masks an access token or other credential for safe logging.
// "EAABwzLixnjYBO7rZC1x" → "EAAB***"
// Tokens of 4 chars or fewer are fully masked.
func RedactToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 4 {
		return "***"
	}
	return token[:4] + "***"
}
