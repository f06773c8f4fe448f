package otomax

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// The remote API is not contractually consistent in its response shape:
// depending on deployment and operation it answers with a JSON object, a
// pipe-delimited line, a bare "OK", or free text with status markers. The
// normalizer runs an ordered list of pure parse attempts and takes the first
// match, so the fallback policy stays explicit and testable per format.
// It is total: every body ends up as exactly one Result, nothing panics.

// operation selects the positional layout for pipe-delimited bodies.
type operation int

const (
	opBalance operation = iota
	opTransaction
	opList
)

const rawExcerptLimit = 200

type parseAttempt func(body string) (*Result, bool)

func normalize(op operation, body string) *Result {
	body = strings.TrimSpace(body)

	attempts := []parseAttempt{
		parseJSON,
		pipeParser(op),
		parseLiteralOK,
		markerParser(op),
	}
	for _, attempt := range attempts {
		if res, ok := attempt(body); ok {
			return res
		}
	}

	res := failure("could not parse response")
	res.Raw = excerpt(body)
	return res
}

func excerpt(body string) string {
	if len(body) > rawExcerptLimit {
		return body[:rawExcerptLimit]
	}
	return body
}

// successTokens are status values the remote uses to signal success across
// its JSON and pipe-delimited shapes.
var successTokens = map[string]bool{
	"success": true,
	"OK":      true,
	"SUKSES":  true,
	"20":      true,
	"0":       true,
}

// pendingTokens signal the remote has accepted but not resolved the request.
var pendingTokens = map[string]bool{
	"pending": true,
	"PENDING": true,
	"2":       true,
}

// statusDescriptions maps the provider's numeric status codes.
var statusDescriptions = map[string]string{
	"20": "Sukses",
	"2":  "Menunggu Jawaban",
	"40": "Gagal",
	"45": "Stok Kosong",
	"47": "Produk Gangguan",
	"50": "Dibatalkan",
	"52": "Tujuan Salah",
	"53": "Tujuan Diluar Wilayah",
	"55": "TimeOut",
	"56": "Nomor Blacklist",
	"69": "CutOff",
}

// StatusDescription returns the provider's description for a numeric status
// code, or "Unknown" when the code is not documented.
func StatusDescription(code string) string {
	if d, ok := statusDescriptions[code]; ok {
		return d
	}
	return "Unknown"
}

// StatusFromCode classifies a provider status token (numeric code or textual
// marker) into the three-valued outcome. Unknown tokens count as failed.
func StatusFromCode(code string) Status {
	switch {
	case successTokens[code]:
		return StatusSuccess
	case pendingTokens[code]:
		return StatusPending
	default:
		return StatusFailed
	}
}

// parseJSON matches a JSON object carrying a `status` field.
func parseJSON(body string) (*Result, bool) {
	if !strings.HasPrefix(body, "{") {
		return nil, false
	}

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return nil, false
	}
	rawStatus, ok := payload["status"]
	if !ok {
		return nil, false
	}

	status := fmt.Sprint(rawStatus)
	fields := make(map[string]string, len(payload))
	for k, v := range payload {
		fields[k] = fmt.Sprint(v)
	}

	switch {
	case successTokens[status]:
		return success(fields), true
	case pendingTokens[status]:
		res := pending(fields[FieldMessage])
		res.Fields = fields
		return res, true
	default:
		reason := fields[FieldMessage]
		if reason == "" {
			reason = "status " + status
		}
		res := failure(reason)
		res.Fields = fields
		return res, true
	}
}

// pipeParser matches `status|field|field|...` with the positional layout of
// the given operation. For listings every line is one `id|name|price` product.
func pipeParser(op operation) parseAttempt {
	return func(body string) (*Result, bool) {
		if !strings.Contains(body, "|") || strings.HasPrefix(body, "{") {
			return nil, false
		}
		if op == opList {
			return parsePipeList(body)
		}

		parts := strings.Split(strings.SplitN(body, "\n", 2)[0], "|")
		status := strings.TrimSpace(parts[0])
		if !looksLikeStatus(status) {
			return nil, false
		}

		fields := map[string]string{FieldStatus: status}
		switch op {
		case opBalance:
			// status|saldo|message
			if len(parts) > 1 {
				fields[FieldSaldo] = strings.TrimSpace(parts[1])
			}
			if len(parts) > 2 {
				fields[FieldMessage] = strings.TrimSpace(parts[2])
			}
		case opTransaction:
			// status|refid|product|price|serial|remaining-balance
			keys := []string{FieldRefID, FieldProduct, FieldPrice, FieldSN, FieldSaldo}
			for i, key := range keys {
				if i+1 < len(parts) {
					fields[key] = strings.TrimSpace(parts[i+1])
				}
			}
		}

		switch {
		case successTokens[status]:
			return success(fields), true
		case pendingTokens[status]:
			res := pending(StatusDescription(status))
			res.Fields = fields
			return res, true
		default:
			reason := fields[FieldMessage]
			if reason == "" {
				reason = StatusDescription(status)
			}
			res := failure(reason)
			res.Fields = fields
			return res, true
		}
	}
}

func parsePipeList(body string) (*Result, bool) {
	var products []Product
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Split(line, "|")
		if len(parts) != 3 {
			return nil, false
		}
		price, err := parsePrice(parts[2])
		if err != nil {
			return nil, false
		}
		products = append(products, Product{
			ID:    strings.TrimSpace(parts[0]),
			Name:  strings.TrimSpace(parts[1]),
			Price: price,
		})
	}
	if len(products) == 0 {
		return nil, false
	}

	res := success(nil)
	res.Products = products
	return res, true
}

func looksLikeStatus(s string) bool {
	if s == "" {
		return false
	}
	if _, err := strconv.Atoi(s); err == nil {
		return true
	}
	return successTokens[s] || pendingTokens[s]
}

// parseLiteralOK matches the bare "OK" some deployments answer with:
// unconditional success, no structured payload.
func parseLiteralOK(body string) (*Result, bool) {
	if body != "OK" {
		return nil, false
	}
	return success(nil), true
}

var (
	snPattern     = regexp.MustCompile(`SN/Ref:\s*([^.]+)`)
	saldoPattern  = regexp.MustCompile(`Saldo\s+([\d.,]+)(?:-([\d.,]+))?\s*=\s*([\d.,]+)`)
	gagalPattern  = regexp.MustCompile(`GAGAL\.\s*([^.]+)`)
	packedProduct = regexp.MustCompile(`^(\S+)#(.+)#Rp?\s*([\d.,]+)$`)
	pricePattern  = regexp.MustCompile(`SN/Ref:\s*Rp([\d.,]+)/([^.]+)`)
)

// markerParser matches the free-text report format, keying off the provider's
// case-sensitive status markers. Failure markers like "Invalid" and "Error"
// also catch the plain-text rejections the gateway sends for bad signatures.
func markerParser(op operation) parseAttempt {
	return func(body string) (*Result, bool) {
		if body == "" {
			return nil, false
		}

		switch {
		case strings.Contains(body, "SUKSES"):
			return parseSuccessReport(op, body), true
		case strings.Contains(body, "GAGAL"):
			reason := body
			if m := gagalPattern.FindStringSubmatch(body); m != nil {
				reason = strings.TrimSpace(m[1])
			}
			res := failure(reason)
			res.Raw = excerpt(body)
			return res, true
		case strings.Contains(body, "PENDING"), strings.Contains(body, "Menunggu"):
			res := pending(excerpt(body))
			res.Raw = excerpt(body)
			return res, true
		case strings.Contains(body, "Invalid"), strings.Contains(body, "Error"):
			return failure(body), true
		}
		return nil, false
	}
}

func parseSuccessReport(op operation, body string) *Result {
	sn := ""
	if m := snPattern.FindStringSubmatch(body); m != nil {
		sn = strings.TrimSpace(m[1])
	}

	if op == opList && sn != "" {
		if products := parsePackedProducts(sn); len(products) > 0 {
			res := success(nil)
			res.Products = products
			return res
		}
	}

	fields := make(map[string]string)
	if sn != "" {
		fields[FieldSN] = sn
	}
	if m := pricePattern.FindStringSubmatch(body); m != nil {
		fields[FieldPrice] = stripThousands(m[1])
		fields[FieldMessage] = strings.TrimSpace(m[2])
	}
	if m := saldoPattern.FindStringSubmatch(body); m != nil {
		fields[FieldSaldo] = stripThousands(m[3])
		if m[2] != "" {
			fields[FieldPrice] = stripThousands(m[2])
		}
	}

	res := success(fields)
	res.Raw = excerpt(body)
	return res
}

// parsePackedProducts decodes the packed catalog the gateway returns inside
// the SN/Ref slot: `id#name#Rp156275;id#name#Rp3775;...`
func parsePackedProducts(packed string) []Product {
	var products []Product
	for _, item := range strings.Split(packed, ";") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		m := packedProduct.FindStringSubmatch(item)
		if m == nil {
			continue
		}
		price, err := parsePrice(m[3])
		if err != nil {
			continue
		}
		products = append(products, Product{
			ID:    m[1],
			Name:  strings.TrimSpace(m[2]),
			Price: price,
		})
	}
	return products
}

func parsePrice(s string) (uint64, error) {
	return strconv.ParseUint(stripThousands(strings.TrimPrefix(strings.TrimSpace(s), "Rp")), 10, 64)
}

func stripThousands(s string) string {
	s = strings.ReplaceAll(s, ".", "")
	return strings.ReplaceAll(s, ",", "")
}
