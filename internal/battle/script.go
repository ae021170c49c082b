package battle

import (
	lua "github.com/Shopify/go-lua"

	"github.com/xtding233/gacha-battle/internal/ability"
)

// scriptLibs are the Lua libraries visible to ability scripts. io, os and
// package are left out, and hiddenGlobals are cleared from base, so card
// data cannot touch the host.
var scriptLibs = []lua.RegistryFunction{
	{Name: "_G", Function: lua.BaseOpen},
	{Name: "table", Function: lua.TableOpen},
	{Name: "string", Function: lua.StringOpen},
	{Name: "math", Function: lua.MathOpen},
}

var hiddenGlobals = []string{"dofile", "loadfile"}

// A script runs at most scriptBudget VM instructions, checked every
// scriptHookEvery.
const (
	scriptBudget    = 1_000_000
	scriptHookEvery = 1000
)

// runScript evaluates a script ability. The script sees a global "battle"
// table bound to ctx; errors are logged and the ability has no further
// effect.
func (e *Engine) runScript(def *ability.Definition, ctx Context) {
	state := lua.NewState()
	for _, lib := range scriptLibs {
		lua.Require(state, lib.Name, lib.Function, true)
		state.Pop(1)
	}
	for _, name := range hiddenGlobals {
		state.PushNil()
		state.SetGlobal(name)
	}
	state.NewTable()
	lua.SetFunctions(state, e.scriptBindings(ctx), 0)
	state.SetGlobal("battle")

	steps := 0
	lua.SetDebugHook(state, func(l *lua.State, _ lua.Debug) {
		steps += scriptHookEvery
		if steps > scriptBudget {
			lua.Errorf(l, "instruction budget of %d exceeded", scriptBudget)
		}
	}, lua.MaskCount, scriptHookEvery)

	if err := lua.DoString(state, def.Script); err != nil {
		e.log.Warn("ability script failed", "id", def.ID, "card", sourceCard(ctx.Source), "err", err)
	}
}

func (e *Engine) scriptBindings(ctx Context) []lua.RegistryFunction {
	return []lua.RegistryFunction{
		{Name: "damage_target", Function: func(state *lua.State) int {
			n := lua.CheckInteger(state, 1)
			state.PushInteger(e.DealDamage(ctx.Source, ctx.Target, n))
			return 1
		}},
		{Name: "damage_enemies", Function: func(state *lua.State) int {
			n := lua.CheckInteger(state, 1)
			total := 0
			for _, u := range e.enemies(ctx) {
				total += e.DealDamage(ctx.Source, u, n)
			}
			state.PushInteger(total)
			return 1
		}},
		{Name: "heal_target", Function: func(state *lua.State) int {
			n := lua.CheckInteger(state, 1)
			state.PushInteger(e.HealUnit(ctx.Target, n))
			return 1
		}},
		{Name: "heal_player", Function: func(state *lua.State) int {
			n := lua.CheckInteger(state, 1)
			state.PushInteger(e.healPlayer(ctx.Player, n))
			return 1
		}},
		{Name: "draw", Function: func(state *lua.State) int {
			n := lua.OptInteger(state, 1, 1)
			drawn := 0
			for range n {
				if e.draw(ctx.Player) != nil {
					drawn++
				}
			}
			state.PushInteger(drawn)
			return 1
		}},
		{Name: "has_target", Function: func(state *lua.State) int {
			state.PushBoolean(ctx.Target.OnField())
			return 1
		}},
		{Name: "source_power", Function: func(state *lua.State) int {
			v := 0
			if ctx.Source != nil {
				v = ctx.Source.Power
			}
			state.PushInteger(v)
			return 1
		}},
		{Name: "charge", Function: func(state *lua.State) int {
			v := 0
			if ctx.Source != nil {
				v = ctx.Source.Card.Charge
			}
			state.PushInteger(v)
			return 1
		}},
		{Name: "turns_in_hand", Function: func(state *lua.State) int {
			v := 0
			if ctx.Source != nil {
				v = ctx.Source.TurnsInHand
			}
			state.PushInteger(v)
			return 1
		}},
		{Name: "player_hp", Function: func(state *lua.State) int {
			state.PushInteger(ctx.Player.HP)
			return 1
		}},
		{Name: "chance", Function: func(state *lua.State) int {
			p := lua.CheckNumber(state, 1)
			state.PushBoolean(e.chance(p))
			return 1
		}},
		{Name: "log", Function: func(state *lua.State) int {
			e.log.Info("ability script", "card", sourceCard(ctx.Source), "msg", lua.CheckString(state, 1))
			return 0
		}},
	}
}
