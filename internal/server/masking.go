package server

import "strings"

// Masking applies to display paths only. The hashed snapshot always
// holds the unmasked ledger facts; redaction happens at the edge.

// maskEmail keeps the first two characters of the local part and the
// first character of the domain's first label.
func maskEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return maskWord(email)
	}

	local := email[:at]
	domain := email[at+1:]

	keep := 2
	if len(local) < keep {
		keep = len(local)
	}
	maskedLocal := local[:keep] + "***"

	labels := strings.Split(domain, ".")
	labels[0] = maskWord(labels[0])
	return maskedLocal + "@" + strings.Join(labels, ".")
}

// maskName keeps the first character of each word.
func maskName(name string) string {
	words := strings.Fields(name)
	for i, word := range words {
		words[i] = maskWord(word)
	}
	return strings.Join(words, " ")
}

// maskPhone keeps only the last four digits.
func maskPhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if len(phone) <= 4 {
		return phone
	}
	return "***" + phone[len(phone)-4:]
}

func maskWord(word string) string {
	if word == "" {
		return ""
	}
	return word[:1] + "***"
}
