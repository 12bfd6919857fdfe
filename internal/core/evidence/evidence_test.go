package evidence

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() map[string]interface{} {
	return map[string]interface{}{
		"conditions": []interface{}{
			map[string]interface{}{"name": "Chronic Migraine", "status": "chronic"},
			map[string]interface{}{"name": "Hypertension", "status": "chronic"},
		},
		"labs": []interface{}{
			map[string]interface{}{"test": "Blood Pressure", "value": "142/88", "unit": "mmHg"},
		},
		"lifestyle": map[string]interface{}{
			"notes": "Headaches worsened by skipping meals",
		},
	}
}

func TestFindEvidenceBasicMatch(t *testing.T) {
	hits := FindEvidence(sampleRecord(), "Recurring headaches consistent with prior migraine history")

	require.NotEmpty(t, hits)
	var foundMigraine bool
	for _, h := range hits {
		if strings.Contains(h.Value, "Migraine") {
			foundMigraine = true
			assert.True(t, strings.HasSuffix(h.Path, ".name"))
		}
	}
	assert.True(t, foundMigraine)
}

func TestFindEvidenceEmptyInputs(t *testing.T) {
	assert.Empty(t, FindEvidence(nil, "headache"))
	assert.Empty(t, FindEvidence(sampleRecord(), ""))
	assert.Empty(t, FindEvidence(map[string]interface{}{}, "headache"))
}

func TestShortTokensNeverMatch(t *testing.T) {
	// "bad", "BP", "now" are all under the 5-char keyword threshold.
	hits := FindEvidence(sampleRecord(), "bad BP now")
	assert.Empty(t, hits)

	// A long-enough token matches via substring even across word forms.
	hits = FindEvidence(sampleRecord(), "headache worsened")
	require.NotEmpty(t, hits)
	assert.Contains(t, hits[0].Value, "Headaches worsened")
}

func TestFindEvidenceDeterministic(t *testing.T) {
	record := sampleRecord()
	text := "chronic migraine with elevated blood pressure"
	first := FindEvidence(record, text)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, FindEvidence(record, text))
	}
}

func TestHitCap(t *testing.T) {
	record := make(map[string]interface{})
	for i := 0; i < 50; i++ {
		record[fmt.Sprintf("field%02d", i)] = "persistent headache"
	}
	hits := FindEvidence(record, "persistent headache")
	assert.Len(t, hits, MaxHits)
}

func TestPathFormat(t *testing.T) {
	hits := FindEvidence(sampleRecord(), "hypertension")
	require.Len(t, hits, 1)
	assert.Equal(t, "emr.conditions.[1].name", hits[0].Path)
	assert.Equal(t, "Hypertension", hits[0].Value)
}

func TestDedupeOnPathAndValue(t *testing.T) {
	record := map[string]interface{}{
		"a": "migraine episode",
	}
	// Two keywords hitting the same leaf must produce one hit.
	hits := FindEvidence(record, "migraine episode")
	assert.Len(t, hits, 1)
}

func TestNumericAndBooleanLeaves(t *testing.T) {
	record := map[string]interface{}{
		"medications": []interface{}{
			map[string]interface{}{"name": "Ibuprofen", "active": true, "doseMg": float64(20025)},
		},
	}
	hits := FindEvidence(record, "ibuprofen 20025")
	require.Len(t, hits, 2)
	values := []string{hits[0].Value, hits[1].Value}
	assert.Contains(t, values, "Ibuprofen")
	assert.Contains(t, values, "20025")
}

func TestDepthCap(t *testing.T) {
	// Build a record nested far beyond the cap; the walk must terminate
	// and simply skip the too-deep branch.
	leaf := map[string]interface{}{"deep": "migraine"}
	node := interface{}(leaf)
	for i := 0; i < 100; i++ {
		node = map[string]interface{}{"n": node}
	}
	record := map[string]interface{}{
		"wrapped": node,
		"shallow": "migraine history",
	}
	hits := FindEvidence(record, "migraine")
	require.Len(t, hits, 1)
	assert.Equal(t, "emr.shallow", hits[0].Path)
}
