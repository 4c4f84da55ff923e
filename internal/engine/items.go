package engine

import "strings"

type Kind string

const (
	KindDamage Kind = "damage"
	KindHeal   Kind = "heal"
	KindDodge  Kind = "dodge"
)

type Item struct {
	Name  string
	Kind  Kind
	Power int
}

var Items = map[string]Item{
	"sword":  {Name: "sword", Kind: KindDamage, Power: 3},
	"axe":    {Name: "axe", Kind: KindDamage, Power: 5},
	"dagger": {Name: "dagger", Kind: KindDamage, Power: 2},
	"heal":   {Name: "heal", Kind: KindHeal, Power: 3},
	"potion": {Name: "potion", Kind: KindHeal, Power: 5},
	"dodge":  {Name: "dodge", Kind: KindDodge, Power: 0},
	"cloak":  {Name: "cloak", Kind: KindDodge, Power: 1},
}

var DefaultLoadout = []string{"sword", "heal", "dodge"}

func LookupItem(name string) (Item, error) {
	it, ok := Items[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Item{}, ErrUnknownItem
	}
	return it, nil
}

// NormalizeLoadout drops unknown item names and falls back to DefaultLoadout
// when nothing usable is left. The result never aliases names.
func NormalizeLoadout(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		it, err := LookupItem(n)
		if err != nil {
			continue
		}
		out = append(out, it.Name)
	}
	if len(out) == 0 {
		return append([]string(nil), DefaultLoadout...)
	}
	return out
}

func itemAt(loadout []string, slot int) Item {
	if slot < 0 || slot >= len(loadout) {
		return Item{}
	}
	it, _ := LookupItem(loadout[slot])
	return it
}
