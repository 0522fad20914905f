// Package quota derives storage and translation allowances from the
// user's signed access token and tracks usage against an external
// ledger. Tracking is fail-open: a broken ledger never blocks reading,
// it only degrades reporting (visibly, via logs).
package quota

import (
	"os"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// Plan is the subscription tier embedded in the access token.
type Plan string

const (
	PlanFree     Plan = "free"
	PlanPlus     Plan = "plus"
	PlanPro      Plan = "pro"
	PlanPurchase Plan = "purchase"
)

// StorageGraceBytes is the fixed allowance applied on top of the storage
// quota for admission checks only; reported quotas never include it.
const StorageGraceBytes = 10 * 1024 * 1024

// Per-plan quota tables. Purchased storage is additive and carried in
// the token separately from the plan.
var defaultStorageQuota = map[Plan]int64{
	PlanFree:     500 * 1024 * 1024,
	PlanPlus:     5 * 1024 * 1024 * 1024,
	PlanPro:      20 * 1024 * 1024 * 1024,
	PlanPurchase: 500 * 1024 * 1024,
}

var defaultDailyTranslationQuota = map[Plan]int64{
	PlanFree:     10_000,
	PlanPlus:     100_000,
	PlanPro:      500_000,
	PlanPurchase: 10_000,
}

// Environment overrides for self-hosted deployments.
const (
	envStorageFixedQuota     = "FOLIO_STORAGE_FIXED_QUOTA"
	envTranslationFixedQuota = "FOLIO_TRANSLATION_FIXED_QUOTA"
)

// StoragePlan is the storage view derived from one access token.
type StoragePlan struct {
	Plan  Plan
	Usage int64
	Quota int64
}

// TranslationPlan is the daily translation allowance for one token.
type TranslationPlan struct {
	Plan  Plan
	Quota int64
}

// tokenClaims reads the plan and usage fields without verifying the
// signature: the token was already verified by the auth layer that
// issued the session, and quota display must work offline.
func tokenClaims(token string) jwt.MapClaims {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return jwt.MapClaims{}
	}
	return claims
}

func claimString(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

func claimInt64(claims jwt.MapClaims, key string) int64 {
	if v, ok := claims[key].(float64); ok {
		return int64(v)
	}
	return 0
}

// Subject returns the user ID the token was issued for, or empty when
// the token carries no subject.
func Subject(token string) string {
	return claimString(tokenClaims(token), "sub")
}

// SubscriptionPlan returns the plan named by the token, defaulting to
// free.
func SubscriptionPlan(token string) Plan {
	plan := Plan(claimString(tokenClaims(token), "plan"))
	if plan == "" {
		return PlanFree
	}
	return plan
}

// ProfilePlan is the plan shown to the user: free accounts holding
// purchased storage present as the purchase tier.
func ProfilePlan(token string) Plan {
	claims := tokenClaims(token)
	plan := Plan(claimString(claims, "plan"))
	if plan == "" {
		plan = PlanFree
	}
	if plan == PlanFree && claimInt64(claims, "storage_purchased_bytes") > 0 {
		plan = PlanPurchase
	}
	return plan
}

// StoragePlanData derives the storage plan, usage and quota from the
// token's embedded fields, the per-plan table, any purchased storage and
// the environment override.
func StoragePlanData(token string) StoragePlan {
	claims := tokenClaims(token)
	plan := Plan(claimString(claims, "plan"))
	if plan == "" {
		plan = PlanFree
	}

	planQuota := envQuota(envStorageFixedQuota)
	if planQuota == 0 {
		var ok bool
		if planQuota, ok = defaultStorageQuota[plan]; !ok {
			planQuota = defaultStorageQuota[PlanFree]
		}
	}

	return StoragePlan{
		Plan:  plan,
		Usage: claimInt64(claims, "storage_usage_bytes"),
		Quota: planQuota + claimInt64(claims, "storage_purchased_bytes"),
	}
}

// CanUpload reports whether sizeBytes more storage fits within the quota
// plus the fixed grace allowance.
func (p StoragePlan) CanUpload(sizeBytes int64) bool {
	return p.Usage+sizeBytes <= p.Quota+StorageGraceBytes
}

// TranslationPlanData derives the daily translation character allowance
// from the token and the environment override.
func TranslationPlanData(token string) TranslationPlan {
	plan := SubscriptionPlan(token)

	q := envQuota(envTranslationFixedQuota)
	if q == 0 {
		var ok bool
		if q, ok = defaultDailyTranslationQuota[plan]; !ok {
			q = defaultDailyTranslationQuota[PlanFree]
		}
	}
	return TranslationPlan{Plan: plan, Quota: q}
}

func envQuota(key string) int64 {
	v, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil {
		return 0
	}
	return v
}
