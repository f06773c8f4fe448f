package otomax

import "net/http"

// BalanceScheme selects which balance-check signature variant a deployment
// expects. The provider's documentation is the source of truth here, and it
// differs between deployments, so the choice lives in the profile.
type BalanceScheme int

const (
	// BalanceTagged signs {tag}|CheckBalance|{member}|{pin}|{password}.
	BalanceTagged BalanceScheme = iota
	// BalanceEmptySlots signs {tag}|{member}||||{pin}|{password}.
	BalanceEmptySlots
)

// Profile describes one deployment's wire conventions: the signature scheme
// tag, endpoint paths, HTTP method and the exact query/form field names.
// Field names vary between deployments (memberID vs member_id, dest vs
// destination), so none of them are hardcoded in the client.
type Profile struct {
	Tag           string
	BalanceScheme BalanceScheme
	Method        string // http.MethodGet or http.MethodPost

	BalancePath string
	OrderPath   string

	MemberIDField  string
	PINField       string
	PasswordField  string
	ProductField   string
	DestField      string
	RefIDField     string
	QtyField       string
	ProductIDField string
	SignField      string
}

// DefaultProfile reproduces the reference deployment's conventions.
func DefaultProfile() Profile {
	return Profile{
		Tag:            "OtomaX",
		BalanceScheme:  BalanceTagged,
		Method:         http.MethodGet,
		BalancePath:    "/cek",
		OrderPath:      "/trx",
		MemberIDField:  "memberID",
		PINField:       "pin",
		PasswordField:  "password",
		ProductField:   "product",
		DestField:      "dest",
		RefIDField:     "refID",
		QtyField:       "qty",
		ProductIDField: "idproduk",
		SignField:      "sign",
	}
}
