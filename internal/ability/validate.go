package ability

import (
	"errors"
	"fmt"
)

// Validate checks a definition tree and returns every problem found, each
// prefixed with its path inside the tree.
func Validate(d Definition) error {
	var errs []error
	validate(d, pathOf(d), &errs)
	return errors.Join(errs...)
}

func pathOf(d Definition) string {
	if d.ID != "" {
		return d.ID
	}
	return string(d.Kind)
}

func validate(d Definition, path string, errs *[]error) {
	fail := func(format string, args ...any) {
		*errs = append(*errs, fmt.Errorf("%s: %s", path, fmt.Sprintf(format, args...)))
	}
	switch d.Kind {
	case KindDamage:
		switch d.Target {
		case TargetSingleEnemy, TargetAllEnemies:
		default:
			fail("damage target must be single_enemy or all_enemies, got %q", d.Target)
		}
		if d.Amount < 0 {
			fail("amount must be >= 0")
		}
	case KindHeal:
		switch d.Target {
		case TargetSelf, TargetAlly, TargetAllAllies, TargetPlayer:
		default:
			fail("heal target must be self, target_ally, all_allies or player, got %q", d.Target)
		}
		if d.Amount < 0 {
			fail("amount must be >= 0")
		}
	case KindApplyStatus:
		if d.Status == nil {
			fail("status is required")
			break
		}
		switch d.Status.Kind {
		case StatusShield, StatusAttackBuff, StatusPoison, StatusReflect:
		default:
			fail("unknown status kind %q", d.Status.Kind)
		}
		if d.Status.Duration < 0 {
			fail("status duration must be >= 0")
		}
		if !d.ToAllEnemies && !d.ToSelf && !d.ToTarget {
			fail("one of to_all_enemies, to_self, to_target must be set")
		}
	case KindBuffDebuff:
		if d.Stat != StatPower && d.Stat != StatDefense {
			fail("stat must be power or defense, got %q", d.Stat)
		}
		if d.Duration < 0 {
			fail("duration must be >= 0")
		}
	case KindCondition:
		switch d.Condition {
		case ConditionChance:
			if d.Threshold < 0 || d.Threshold > 1 {
				fail("chance threshold must be in [0,1]")
			}
		case ConditionChargeLevel, ConditionTurnsInHand:
		default:
			fail("unknown condition %q", d.Condition)
		}
		if d.Success == nil {
			fail("success branch is required")
		} else {
			validate(*d.Success, path+".success", errs)
		}
		if d.Fail != nil {
			validate(*d.Fail, path+".fail", errs)
		}
	case KindComposite:
		if len(d.Children) == 0 {
			fail("composite needs children")
		}
		for i, c := range d.Children {
			validate(c, fmt.Sprintf("%s.children[%d]", path, i), errs)
		}
	case KindChannel:
		if d.Wait <= 0 {
			fail("wait must be >= 1")
		}
		if d.Deferred == nil {
			fail("deferred ability is required")
		} else {
			validate(*d.Deferred, path+".deferred", errs)
		}
	case KindDrawCard:
		if d.Count <= 0 {
			fail("count must be >= 1")
		}
	case KindGeneric:
	case KindScript:
		if d.Script == "" {
			fail("script body is required")
		}
	default:
		fail("unknown ability kind %q", d.Kind)
	}
}
