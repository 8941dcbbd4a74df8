package dto

import "time"

// BillingRunResponse summarizes one billing pass.
type BillingRunResponse struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Expired   int `json:"expired"`
	Skipped   int `json:"skipped"`
}

// LifecycleRunResponse summarizes one canceled-subscription sweep.
type LifecycleRunResponse struct {
	Expired int `json:"expired"`
}

// MemorialExpiryRunResponse summarizes one memorial access
// reconciliation pass.
type MemorialExpiryRunResponse struct {
	Checked int `json:"checked"`
	Expired int `json:"expired"`
}

// ExpiringMemorialResponse is one memorial approaching the end of its
// paid window.
type ExpiringMemorialResponse struct {
	MemorialID    string    `json:"memorial_id"`
	MemorialName  string    `json:"memorial_name"`
	OwnerID       string    `json:"owner_id"`
	ExpiresAt     time.Time `json:"expires_at"`
	DaysRemaining int       `json:"days_remaining"`
}

// ExpiringMemorialsResponse lists memorials expiring within the
// reminder lookahead window.
type ExpiringMemorialsResponse struct {
	Memorials []ExpiringMemorialResponse `json:"memorials"`
	Count     int                        `json:"count"`
}
