package enum

// ── State machines (CHECK constrained in DB) ──

const (
	SessionStatusOpen   = "OPEN"
	SessionStatusClosed = "CLOSED"
)

const (
	EntryTypeIn  = "IN"
	EntryTypeOut = "OUT"
)

// ── Roles (CHECK constrained in DB) ──

const (
	UserRoleOwner    = "OWNER"
	UserRoleKaryawan = "KARYAWAN"
)

// ── Cashbook categories ──

const (
	CategoryPenjualan     = "PENJUALAN"
	CategoryBahanDagangan = "BAHAN_DAGANGAN"
	CategoryOpex          = "OPEX"
	CategoryModalIn       = "MODAL_IN"
	CategoryModalOut      = "MODAL_OUT"
)

// IsValidCategory reports whether the category is one of the known
// cashbook categories, including PENJUALAN.
func IsValidCategory(category string) bool {
	switch category {
	case CategoryPenjualan, CategoryBahanDagangan, CategoryOpex,
		CategoryModalIn, CategoryModalOut:
		return true
	}
	return false
}

// EntryTypeForCategory returns the ledger direction a manual-input category
// implies. PENJUALAN is excluded: sales entries are only written
// by the session close flow, never by manual input.
func EntryTypeForCategory(category string) (string, bool) {
	switch category {
	case CategoryModalIn:
		return EntryTypeIn, true
	case CategoryBahanDagangan, CategoryOpex, CategoryModalOut:
		return EntryTypeOut, true
	}
	return "", false
}
