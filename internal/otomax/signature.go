package otomax

import (
	"crypto/sha1"
	"encoding/base64"
	"strings"
)

// Signature derivation per the OtomaX H2H scheme: the documented fields are
// joined with `|`, hashed with SHA-1, base64-encoded without padding, and the
// `+`/`/` characters replaced with their URL-safe variants. Any deviation in
// field order or separator produces a signature the remote rejects, so the
// helpers below keep every variant byte-exact.

func sign(parts ...string) string {
	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	s := base64.StdEncoding.EncodeToString(sum[:])
	s = strings.TrimRight(s, "=")
	s = strings.ReplaceAll(s, "+", "-")
	return strings.ReplaceAll(s, "/", "_")
}

// BalanceSignature covers the tagged balance-check variant:
// {tag}|CheckBalance|{member}|{pin}|{password}
func BalanceSignature(tag string, c Credentials) string {
	return sign(tag, "CheckBalance", c.MemberID, c.PIN, c.Password)
}

// BalanceSignatureEmptySlots covers the deployment variant that keeps the
// field count aligned with the transaction signature by sending literal
// empty placeholders: {tag}|{member}||||{pin}|{password}
// The empty slots change the digest and must not be omitted.
func BalanceSignatureEmptySlots(tag string, c Credentials) string {
	return sign(tag, c.MemberID, "", "", "", c.PIN, c.Password)
}

// TransactionSignature covers orders, product listings and price checks:
// {tag}|{member}|{product}|{dest}|{refID}|{pin}|{password}
func TransactionSignature(tag string, c Credentials, product, dest, refID string) string {
	return sign(tag, c.MemberID, product, dest, refID, c.PIN, c.Password)
}

// DepositSignature covers deposit-ticket requests:
// {tag}|ticket|{member}|{pin}|{password}|{amount}
func DepositSignature(tag string, c Credentials, amount string) string {
	return sign(tag, "ticket", c.MemberID, c.PIN, c.Password, amount)
}
