package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint(t *testing.T) {
	base := Reconcile(squatDays(4), nil)
	fp := Fingerprint(base)
	assert.Len(t, fp, 32)
	assert.Equal(t, fp, Fingerprint(Reconcile(squatDays(4), nil)))

	// prefixed ids hash the same
	prefixed := Reconcile(squatDays(4), nil)
	for i := range prefixed {
		prefixed[i].ID = "session_" + prefixed[i].ID
	}
	assert.Equal(t, fp, Fingerprint(prefixed))

	added := append(Reconcile(squatDays(4), nil), sessionAt("z", day0.AddDate(0, 0, 30), workSet("squat", 100, 5, nil)))
	assert.NotEqual(t, fp, Fingerprint(added))

	edited := Reconcile(squatDays(4), nil)
	edited[1].Sets[0].Weight = 102.5
	assert.NotEqual(t, fp, Fingerprint(edited))

	moved := Reconcile(squatDays(4), nil)
	moved[2].EndTime = moved[2].EndTime.Add(time.Minute)
	assert.NotEqual(t, fp, Fingerprint(moved))

	assert.NotEmpty(t, Fingerprint(nil))
	assert.NotEqual(t, Fingerprint(nil), Fingerprint(base[:1]))
}

func TestModelKey(t *testing.T) {
	fp := Fingerprint(Reconcile(squatDays(4), nil))
	cfg := DefaultHierarchicalConfig()

	key := ModelKey(fp, cfg)
	assert.Len(t, key, 32)
	assert.Equal(t, key, ModelKey(fp, DefaultHierarchicalConfig()))
	assert.NotEqual(t, fp, key)

	stronger := cfg
	stronger.PriorStrength = 40
	assert.NotEqual(t, key, ModelKey(fp, stronger))

	gap := cfg
	gap.MaxRecoveryGapDays = 21
	assert.NotEqual(t, key, ModelKey(fp, gap))

	assert.NotEqual(t, key, ModelKey(Fingerprint(nil), cfg))
}
