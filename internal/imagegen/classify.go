package imagegen

import (
	"strings"

	"golang.org/x/text/cases"
)

// Class is the user-facing category of a failure.
type Class string

const (
	ClassQuotaExceeded  Class = "quota_exceeded"
	ClassAuthFailure    Class = "auth_failure"
	ClassInvalidRequest Class = "invalid_request"
	ClassGeneric        Class = "generic"
)

var classPhrases = []struct {
	class   Class
	phrases []string
}{
	{ClassQuotaExceeded, []string{"resource_exhausted", "resource exhausted", "quota exceeded", "quota_exceeded"}},
	{ClassAuthFailure, []string{"api key", "authentication", "unauthorized"}},
	{ClassInvalidRequest, []string{"invalid_argument", "invalid argument"}},
}

// Classify maps a failure message to a Class using case-insensitive phrase
// matching. It is best effort and only selects presentation text.
func Classify(message string) Class {
	folded := cases.Fold().String(message)
	for _, entry := range classPhrases {
		for _, phrase := range entry.phrases {
			if strings.Contains(folded, phrase) {
				return entry.class
			}
		}
	}
	return ClassGeneric
}

var userMessages = map[string]map[Class]string{
	"en": {
		ClassQuotaExceeded:  "I've reached the daily image generation limit for this service. Please try again later or contact support to upgrade your plan for unlimited access.",
		ClassAuthFailure:    "There's an issue with the image generation service authentication. Please contact support.",
		ClassInvalidRequest: "The image request couldn't be processed. Please try rephrasing your image description.",
		ClassGeneric:        "I encountered an issue while generating the image. Please try again or rephrase your request.",
	},
	"id": {
		ClassQuotaExceeded:  "Batas harian pembuatan gambar untuk layanan ini sudah tercapai. Silakan coba lagi nanti atau hubungi dukungan untuk meningkatkan paket Anda.",
		ClassAuthFailure:    "Terjadi masalah autentikasi pada layanan pembuatan gambar. Silakan hubungi dukungan.",
		ClassInvalidRequest: "Permintaan gambar tidak dapat diproses. Coba ubah deskripsi gambar Anda.",
		ClassGeneric:        "Terjadi kendala saat membuat gambar. Silakan coba lagi atau ubah permintaan Anda.",
	},
}

// UserMessage returns the presentable text for class in locale, falling back
// to English for unknown locales.
func UserMessage(class Class, locale string) string {
	messages, ok := userMessages[strings.ToLower(strings.TrimSpace(locale))]
	if !ok {
		messages = userMessages["en"]
	}
	if msg, ok := messages[class]; ok {
		return msg
	}
	return messages[ClassGeneric]
}
