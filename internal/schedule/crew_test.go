package schedule

import (
	"testing"

	"github.com/hvac-crew/schedule/backend/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestCrewMapFromSettings(t *testing.T) {
	settings := domain.Snapshot{
		"Lead:01":       domain.String("Dana"),
		"Apprentice:01": domain.String("Lee"),
		"Lead:2":        domain.String(" Sam "),
		"Apprentice:03": domain.String("Kim"),
		"Lead:04":       domain.String(""),
		"Lead:xx":       domain.String("Nobody"),
		"jobs":          domain.String("Install,Repair"),
		"Lead:05":       domain.Bool(true),
	}

	crews := CrewMapFromSettings(settings)
	assert.Equal(t, CrewMap{
		"01": "Dana / Lee",
		"02": "Sam",
		"03": "Kim",
	}, crews)
}

func TestCrewMapNilIsSafe(t *testing.T) {
	var crews CrewMap
	assert.Equal(t, "", crews.Name("01"))
}

func TestCrewMapMergeOverrides(t *testing.T) {
	base := CrewMap{"01": "Dana", "02": "Sam"}
	merged := base.Merge(map[string]string{"1": "Acme Crew", "02": "  ", "bad": "x"})
	assert.Equal(t, CrewMap{"01": "Acme Crew", "02": "Sam"}, merged)
	assert.Equal(t, "Dana", base["01"])
}
