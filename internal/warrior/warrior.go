package warrior

import "strings"

type Class string

const (
	ClassArtificer Class = "Artificer"
	ClassBarbarian Class = "Barbarian"
	ClassBard      Class = "Bard"
	ClassCleric    Class = "Cleric"
	ClassDruid     Class = "Druid"
	ClassFighter   Class = "Fighter"
	ClassMonk      Class = "Monk"
	ClassPaladin   Class = "Paladin"
	ClassRanger    Class = "Ranger"
	ClassRogue     Class = "Rogue"
	ClassSorcerer  Class = "Sorcerer"
	ClassWarlock   Class = "Warlock"
	ClassWizard    Class = "Wizard"
)

var Classes = []Class{
	ClassArtificer,
	ClassBarbarian,
	ClassBard,
	ClassCleric,
	ClassDruid,
	ClassFighter,
	ClassMonk,
	ClassPaladin,
	ClassRanger,
	ClassRogue,
	ClassSorcerer,
	ClassWarlock,
	ClassWizard,
}

func ValidClass(s string) bool {
	for _, c := range Classes {
		if string(c) == s {
			return true
		}
	}
	return false
}

// Warrior is the local view of one on-chain entity. Owner is not part of
// the record; it is fetched separately when building the population view.
type Warrior struct {
	ID        uint64 `json:"id"`
	Name      string `json:"name"`
	Class     Class  `json:"class"`
	Power     uint64 `json:"power"`
	Defense   uint64 `json:"defense"`
	Level     uint64 `json:"level"`
	WinCount  uint64 `json:"win_count"`
	LossCount uint64 `json:"loss_count"`
	ReadyAt   int64  `json:"ready_at"` // unix seconds
	TokenURI  string `json:"token_uri"`
}

// Owned annotates a warrior with its current owner for the population view.
type Owned struct {
	Warrior
	Owner   string `json:"owner"`
	IsOwned bool   `json:"is_owned"`
}

// SameOwner compares two addresses the way wallets render them:
// hex with arbitrary casing.
func SameOwner(a, b string) bool {
	return strings.EqualFold(a, b)
}

// FindByID returns the warrior with the given id from a roster snapshot.
func FindByID(roster []Warrior, id uint64) (Warrior, bool) {
	for _, w := range roster {
		if w.ID == id {
			return w, true
		}
	}
	return Warrior{}, false
}
