package otomax

// Credentials hold the reseller account secrets. Loaded once at startup,
// immutable for the process lifetime.
type Credentials struct {
	MemberID string
	PIN      string
	Password string
}

// Status is the normalized outcome of a reseller call.
type Status int

const (
	// StatusSuccess — the remote confirmed the operation.
	StatusSuccess Status = iota
	// StatusFailed — the remote rejected the operation, or the call failed
	// before it could have been applied.
	StatusFailed
	// StatusPending — the outcome is unknown: the request may have been
	// applied remotely. Callers must not retry with a fresh reference ID.
	StatusPending
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUKSES"
	case StatusPending:
		return "PENDING"
	default:
		return "GAGAL"
	}
}

// Product is one catalog entry from a product-listing call. Ephemeral:
// produced by ListProducts, consumed within the same conversation turn.
type Product struct {
	ID    string
	Name  string
	Price uint64 // minor currency unit
}

// Result is the uniform shape every client operation returns. Callers never
// see raw transport details: failures of any kind are folded in here.
type Result struct {
	Status Status
	// Fields carries named payload values: saldo, refid, price, sn, message.
	Fields map[string]string
	// Products is filled by listing calls only.
	Products []Product
	// Reason holds the failure/pending explanation relayed to the user.
	Reason string
	// Raw keeps a bounded excerpt of the response body for diagnostics.
	Raw string
}

// Well-known Fields keys.
const (
	FieldSaldo   = "saldo"
	FieldRefID   = "refid"
	FieldProduct = "product"
	FieldPrice   = "price"
	FieldSN      = "sn"
	FieldMessage = "message"
	FieldStatus  = "status"
)

func success(fields map[string]string) *Result {
	if fields == nil {
		fields = make(map[string]string)
	}
	return &Result{Status: StatusSuccess, Fields: fields}
}

func failure(reason string) *Result {
	return &Result{Status: StatusFailed, Reason: reason, Fields: make(map[string]string)}
}

func pending(reason string) *Result {
	return &Result{Status: StatusPending, Reason: reason, Fields: make(map[string]string)}
}
