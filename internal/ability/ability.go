// Package ability describes card abilities as immutable data. Evaluation
// against a battle lives in the battle package.
package ability

// Kind selects which node of the effect graph a Definition is.
type Kind string

const (
	KindDamage      Kind = "damage"
	KindHeal        Kind = "heal"
	KindApplyStatus Kind = "apply_status"
	KindBuffDebuff  Kind = "buff_debuff"
	KindCondition   Kind = "condition"
	KindComposite   Kind = "composite"
	KindChannel     Kind = "channel"
	KindDrawCard    Kind = "draw_card"
	KindGeneric     Kind = "generic"
	KindScript      Kind = "script"
)

// Target is a target policy for damage, heal and stat abilities.
type Target string

const (
	TargetSingleEnemy Target = "single_enemy"
	TargetAllEnemies  Target = "all_enemies"
	TargetSelf        Target = "self"
	TargetAlly        Target = "target_ally"
	TargetAllAllies   Target = "all_allies"
	TargetPlayer      Target = "player" // the HP pool, not a unit
)

// ConditionKind is what a condition node branches on.
type ConditionKind string

const (
	ConditionChance      ConditionKind = "chance"
	ConditionChargeLevel ConditionKind = "charge_level"
	ConditionTurnsInHand ConditionKind = "turns_in_hand"
)

// Stat is a unit stat a buff/debuff modifies.
type Stat string

const (
	StatPower   Stat = "power"
	StatDefense Stat = "defense"
)

// StatusKind names a status effect implementation.
type StatusKind string

const (
	StatusShield     StatusKind = "shield"
	StatusAttackBuff StatusKind = "attack_buff"
	StatusPoison     StatusKind = "poison"
	StatusReflect    StatusKind = "reflect"
)

// StatusSpec is the template a status instance is created from.
type StatusSpec struct {
	Kind      StatusKind `yaml:"kind" json:"kind"`
	ID        string     `yaml:"id,omitempty" json:"id,omitempty"`
	Name      string     `yaml:"name,omitempty" json:"name,omitempty"`
	Duration  int        `yaml:"duration" json:"duration"` // turns; 0 = permanent
	Stackable bool       `yaml:"stackable,omitempty" json:"stackable,omitempty"`
	Magnitude int        `yaml:"magnitude" json:"magnitude"` // shield points, bonus, poison per turn, reflect charges
}

// Definition is one node of an ability graph. Only the fields relevant to
// Kind are read.
type Definition struct {
	ID          string `yaml:"id,omitempty" json:"id,omitempty"`
	Kind        Kind   `yaml:"kind" json:"kind"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// damage / heal
	Amount         int    `yaml:"amount,omitempty" json:"amount,omitempty"`
	AddSourcePower bool   `yaml:"add_source_power,omitempty" json:"add_source_power,omitempty"`
	AddSourceHeal  bool   `yaml:"add_source_heal,omitempty" json:"add_source_heal,omitempty"`
	Target         Target `yaml:"target,omitempty" json:"target,omitempty"`

	// apply_status; precedence AllEnemies > Self > TargetCard
	Status       *StatusSpec `yaml:"status,omitempty" json:"status,omitempty"`
	ToAllEnemies bool        `yaml:"to_all_enemies,omitempty" json:"to_all_enemies,omitempty"`
	ToSelf       bool        `yaml:"to_self,omitempty" json:"to_self,omitempty"`
	ToTarget     bool        `yaml:"to_target,omitempty" json:"to_target,omitempty"`

	// buff_debuff
	Stat     Stat `yaml:"stat,omitempty" json:"stat,omitempty"`
	Delta    int  `yaml:"delta,omitempty" json:"delta,omitempty"`
	Duration int  `yaml:"duration,omitempty" json:"duration,omitempty"` // 0 = permanent

	// condition
	Condition ConditionKind `yaml:"condition,omitempty" json:"condition,omitempty"`
	Threshold float64       `yaml:"threshold,omitempty" json:"threshold,omitempty"`
	Success   *Definition   `yaml:"success,omitempty" json:"success,omitempty"`
	Fail      *Definition   `yaml:"fail,omitempty" json:"fail,omitempty"`

	// composite
	Children []Definition `yaml:"children,omitempty" json:"children,omitempty"`

	// channel
	Wait     int         `yaml:"wait,omitempty" json:"wait,omitempty"`
	Deferred *Definition `yaml:"deferred,omitempty" json:"deferred,omitempty"`

	// draw_card
	Count int `yaml:"count,omitempty" json:"count,omitempty"`

	// script
	Script string `yaml:"script,omitempty" json:"script,omitempty"`
}
