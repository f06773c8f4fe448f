package bot

import "strconv"

// rupiah renders a minor-unit amount with dot thousand separators, the way
// the provider prints prices: 156275 -> "Rp 156.275".
func rupiah(n uint64) string {
	s := strconv.FormatUint(n, 10)
	out := make([]byte, 0, len(s)+len(s)/3)
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, c)
	}
	return "Rp " + string(out)
}

// truncate bounds choice labels so long catalog names stay readable. Counted
// in runes so a multi-byte name is never cut mid-character.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
