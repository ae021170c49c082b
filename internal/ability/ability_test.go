package ability

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const sampleYAML = `
- id: flare
  kind: damage
  amount: 3
  add_source_power: true
  target: single_enemy
- id: gamble
  kind: condition
  condition: chance
  threshold: 0.5
  success:
    kind: damage
    amount: 6
    target: all_enemies
  fail:
    kind: heal
    amount: 2
    target: player
- id: meteor
  kind: channel
  wait: 3
  deferred:
    kind: composite
    children:
      - kind: damage
        amount: 10
        target: all_enemies
      - kind: draw_card
        count: 1
`

func TestRegistryFromYAML(t *testing.T) {
	var defs []Definition
	require.NoError(t, yaml.Unmarshal([]byte(sampleYAML), &defs))

	reg, err := NewRegistry(defs)
	require.NoError(t, err)

	flare, ok := reg.Ability("flare")
	require.True(t, ok)
	assert.True(t, flare.AddSourcePower)
	assert.Equal(t, TargetSingleEnemy, flare.Target)

	meteor, ok := reg.Ability("meteor")
	require.True(t, ok)
	require.NotNil(t, meteor.Deferred)
	assert.Len(t, meteor.Deferred.Children, 2)

	_, ok = reg.Ability("")
	assert.False(t, ok)
}

func TestValidateReportsNestedPaths(t *testing.T) {
	d := Definition{
		ID:        "broken",
		Kind:      KindCondition,
		Condition: ConditionChance,
		Threshold: 2,
		Success: &Definition{
			Kind:     KindComposite,
			Children: []Definition{{Kind: KindDamage, Target: TargetSelf}},
		},
	}
	err := Validate(d)
	require.Error(t, err)
	msg := err.Error()
	assert.True(t, strings.Contains(msg, "broken: chance threshold"), msg)
	assert.True(t, strings.Contains(msg, "broken.success.children[0]: damage target"), msg)
}

func TestValidateKinds(t *testing.T) {
	bad := []Definition{
		{Kind: "teleport"},
		{Kind: KindHeal, Target: TargetAllEnemies},
		{Kind: KindApplyStatus, Status: &StatusSpec{Kind: StatusShield}},
		{Kind: KindApplyStatus, Status: &StatusSpec{Kind: "frozen"}, ToSelf: true},
		{Kind: KindBuffDebuff, Stat: "speed"},
		{Kind: KindChannel, Wait: 0},
		{Kind: KindDrawCard},
		{Kind: KindScript},
		{Kind: KindComposite},
	}
	for _, d := range bad {
		assert.Error(t, Validate(d), "kind %s", d.Kind)
	}

	good := []Definition{
		{Kind: KindGeneric, Description: "todo"},
		{Kind: KindBuffDebuff, Stat: StatDefense, Delta: -1, Duration: 2},
		{Kind: KindApplyStatus, Status: &StatusSpec{Kind: StatusPoison, Duration: 2, Magnitude: 1}, ToAllEnemies: true},
		{Kind: KindScript, Script: "damage_target(1)"},
	}
	for _, d := range good {
		assert.NoError(t, Validate(d), "kind %s", d.Kind)
	}
}

func TestNewRegistryRejectsDuplicatesAndMissingIDs(t *testing.T) {
	_, err := NewRegistry([]Definition{
		{ID: "a", Kind: KindGeneric},
		{ID: "a", Kind: KindGeneric},
		{Kind: KindGeneric},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate ability id a")
	assert.Contains(t, err.Error(), "abilities[2]: id is required")
}
