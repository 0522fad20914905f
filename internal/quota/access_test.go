package quota

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestSubscriptionPlan(t *testing.T) {
	assert.Equal(t, PlanPro, SubscriptionPlan(signedToken(t, jwt.MapClaims{"plan": "pro"})))
	assert.Equal(t, PlanFree, SubscriptionPlan(signedToken(t, jwt.MapClaims{})))
	assert.Equal(t, PlanFree, SubscriptionPlan("not-a-token"))
}

func TestProfilePlan_PurchasedStoragePresentsAsPurchase(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{
		"plan":                    "free",
		"storage_purchased_bytes": float64(1024 * 1024),
	})
	assert.Equal(t, PlanPurchase, ProfilePlan(token))

	// A paid plan keeps its own name regardless of purchases.
	token = signedToken(t, jwt.MapClaims{
		"plan":                    "plus",
		"storage_purchased_bytes": float64(1024),
	})
	assert.Equal(t, PlanPlus, ProfilePlan(token))
}

func TestStoragePlanData(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{
		"plan":                    "free",
		"storage_usage_bytes":     float64(1000),
		"storage_purchased_bytes": float64(2048),
	})

	p := StoragePlanData(token)
	assert.Equal(t, PlanFree, p.Plan)
	assert.Equal(t, int64(1000), p.Usage)
	assert.Equal(t, defaultStorageQuota[PlanFree]+2048, p.Quota)
}

func TestStoragePlanData_EnvOverride(t *testing.T) {
	t.Setenv(envStorageFixedQuota, "4096")

	p := StoragePlanData(signedToken(t, jwt.MapClaims{"plan": "pro"}))
	assert.Equal(t, int64(4096), p.Quota)
}

func TestCanUpload_GraceAppliesToAdmissionOnly(t *testing.T) {
	p := StoragePlan{Usage: 100, Quota: 200}

	// Within quota.
	assert.True(t, p.CanUpload(100))
	// Over quota but inside the grace allowance.
	assert.True(t, p.CanUpload(100+StorageGraceBytes))
	// Past quota plus grace.
	assert.False(t, p.CanUpload(101+StorageGraceBytes))
	// The reported quota itself never includes grace.
	assert.Equal(t, int64(200), p.Quota)
}

func TestTranslationPlanData(t *testing.T) {
	p := TranslationPlanData(signedToken(t, jwt.MapClaims{"plan": "plus"}))
	assert.Equal(t, PlanPlus, p.Plan)
	assert.Equal(t, defaultDailyTranslationQuota[PlanPlus], p.Quota)

	p = TranslationPlanData(signedToken(t, jwt.MapClaims{"plan": "unknown-tier"}))
	assert.Equal(t, defaultDailyTranslationQuota[PlanFree], p.Quota)
}
