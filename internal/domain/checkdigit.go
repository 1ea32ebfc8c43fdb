package domain

import "strings"

// CheckDigit derives the verification digit for a location code: the last
// character of its last run of digits, or "0" when the code has none.
func CheckDigit(locationCode string) string {
	end := -1
	for i := len(locationCode) - 1; i >= 0; i-- {
		if isDigit(locationCode[i]) {
			end = i
			break
		}
	}
	if end < 0 {
		return "0"
	}
	return locationCode[end : end+1]
}

// ExpectedCheckDigit prefers the row's explicit digit over the derived one
func ExpectedCheckDigit(row ListRow) string {
	if d := strings.TrimSpace(row.CheckDigit); d != "" {
		return d
	}
	return CheckDigit(row.LocationCode)
}

// VerifyCheckDigit compares the candidate with the expected digit as strings
func VerifyCheckDigit(row ListRow, candidate string) error {
	if strings.TrimSpace(candidate) != ExpectedCheckDigit(row) {
		return ErrLocationMismatch
	}
	return nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
