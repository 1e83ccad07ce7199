// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

// Package strata implements the domain operators: validated
// workspace/vault/item/setting mutations that combine the entity cache
// facades with conditional counter updates. Business rejections are
// reason codes, never errors; errors are reserved for store failures.
package strata

// Reason explains why a mutation was rejected.
type Reason string

const (
	// ReasonNameInvalid means the name contains forbidden characters.
	ReasonNameInvalid Reason = "name-invalid"
	// ReasonNameColor means the name carries formatting color codes.
	ReasonNameColor Reason = "name-color"
	// ReasonNameLength means the name is too short or too long.
	ReasonNameLength Reason = "name-length"
	// ReasonNameBlacklisted means the name is on the blocked list.
	ReasonNameBlacklisted Reason = "name-blacklisted"
	// ReasonAlreadyExists means a sibling with the same name exists.
	ReasonAlreadyExists Reason = "already-exists"
	// ReasonQuotaExceeded means the account's limit would be exceeded.
	ReasonQuotaExceeded Reason = "quota-exceeded"
	// ReasonTypeInvalid means an unknown workspace type was given.
	ReasonTypeInvalid Reason = "type-invalid"
	// ReasonLimitBelowUsage means a limit cannot drop below current use.
	ReasonLimitBelowUsage Reason = "limit-below-usage"
	// ReasonSizeInvalid means a size change would go negative.
	ReasonSizeInvalid Reason = "size-invalid"
	// ReasonSizeInUse means a shrink would cut off occupied slots.
	ReasonSizeInUse Reason = "size-in-use"
	// ReasonSlotInvalid means the page or slot is out of range.
	ReasonSlotInvalid Reason = "slot-invalid"
	// ReasonNotFound means the target entity does not exist.
	ReasonNotFound Reason = "not-found"
	// ReasonConflict means a concurrent mutation won the counter race.
	// Callers decide whether to retry.
	ReasonConflict Reason = "conflict"
)

// Result is the outcome of a domain mutation.
type Result struct {
	OK     bool
	Reason Reason
}

func ok() Result {
	return Result{OK: true}
}

func fail(r Reason) Result {
	return Result{Reason: r}
}
