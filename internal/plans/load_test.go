package plans_test

import (
	"strings"
	"testing"

	"github.com/2beens/liftlog/internal/plans"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlPlan = `
id: upper-lower
name: Upper / Lower
durationWeeks: 6
schedule:
  Monday:
    dayTemplateId: upper
  thursday:
    dayTemplateId: lower
  sunday:
    dayTemplateId: rest
    isRestDay: true
dayTemplates:
  - id: upper
    key: upper
    name: Upper
    focus: Upper body
    exercises:
      - id: press
        name: Bench Press
        equipment: bar
        sets:
          - targetReps: 5
            targetWeight: 80
            rir: 1
          - targetReps: 5
            tempo: "3-1-1"
  - id: lower
    key: lower
    name: Lower
    focus: Legs
    exercises: []
`

func TestLoad_YAML(t *testing.T) {
	plan, err := plans.Load(strings.NewReader(yamlPlan), plans.FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "Upper / Lower", plan.Name)
	require.NotNil(t, plan.DurationWeeks)
	assert.Equal(t, 6, *plan.DurationWeeks)
	assert.Equal(t, []string{"monday", "thursday", "sunday"}, plan.ScheduledDays())
	assert.True(t, plan.Schedule["sunday"].IsRestDay)

	press := plan.DayTemplates[0].Exercises[0]
	assert.Equal(t, 80.0, *press.Sets[0].TargetWeight)
	assert.Equal(t, "3-1-1", *press.Sets[1].Tempo)

	assert.Equal(t, []string{`No template found for day "sunday" (expected id: rest).`}, plans.ValidateSchedule(*plan))
}

func TestLoad_JSON(t *testing.T) {
	raw := `{"name":"Full body","schedule":{"friday":{"dayTemplateId":"fb"}},
		"dayTemplates":[{"id":"fb","key":"fb","name":"Full body","focus":"Other","exercises":[]}]}`
	plan, err := plans.Load(strings.NewReader(raw), plans.FormatJSON)
	require.NoError(t, err)
	assert.NoError(t, plans.Validate(*plan))
	assert.NotNil(t, plans.DayTemplateFor(*plan, "friday"))
}

func TestLoad_Errors(t *testing.T) {
	_, err := plans.Load(strings.NewReader(`{"name":"x","colour":"red"}`), plans.FormatJSON)
	assert.Error(t, err)

	_, err = plans.Load(strings.NewReader("name: x\ncolour: red\n"), plans.FormatYAML)
	assert.Error(t, err)

	_, err = plans.Load(strings.NewReader(`{`), plans.FormatJSON)
	assert.Error(t, err)

	_, err = plans.Load(strings.NewReader(`{}`), plans.Format("toml"))
	assert.Error(t, err)
}

func TestFormatOf(t *testing.T) {
	assert.Equal(t, plans.FormatYAML, plans.FormatOf("plans/ppl.YML"))
	assert.Equal(t, plans.FormatYAML, plans.FormatOf("ppl.yaml"))
	assert.Equal(t, plans.FormatJSON, plans.FormatOf("ppl.json"))
	assert.Equal(t, plans.FormatJSON, plans.FormatOf("ppl"))
}
