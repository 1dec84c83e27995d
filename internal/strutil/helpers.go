package strutil

func LStripWS(str string) string {
	for i := 0; i < len(str); i++ {
		if !IsWS(str[i]) {
			return str[i:]
		}
	}

	return ""
}

func RStripWS(str string) string {
	for i := len(str); i > 0; i-- {
		if !IsWS(str[i-1]) {
			return str[:i]
		}
	}

	return ""
}

func StripWS(str string) string {
	return RStripWS(LStripWS(str))
}

// IsWS reports whether c is an optional whitespace, as defined by RFC 9110 (OWS).
func IsWS(c byte) bool {
	return c == ' ' || c == '\t'
}
