// Package types defines the JSON wire format between the client daemon and
// its UI.
package types

import "github.com/eakarabulut/warriors-dapp/internal/app"

// Client -> Server
//
// Connect: {}
// CreateWarrior: name, class, power, defense, token_uri
// LevelUp: warrior_id
// Battle: ally_id, enemy_id
// Refresh: population (bool; false refreshes the roster)
// SwitchView: view ("roster" | "create" | "battle")
type ClientMessage struct {
	Type       string `json:"type"`
	Name       string `json:"name,omitempty"`
	Class      string `json:"class,omitempty"`
	Power      uint64 `json:"power,omitempty"`
	Defense    uint64 `json:"defense,omitempty"`
	TokenURI   string `json:"token_uri,omitempty"`
	WarriorID  uint64 `json:"warrior_id,omitempty"`
	AllyID     uint64 `json:"ally_id,omitempty"`
	EnemyID    uint64 `json:"enemy_id,omitempty"`
	Population bool   `json:"population,omitempty"`
	View       string `json:"view,omitempty"`
}

// Server -> Client
type ServerMessage struct {
	Type     string        `json:"type"` // "StateSnapshot" | "Error"
	Version  int           `json:"version,omitempty"`
	Snapshot *app.Snapshot `json:"snapshot,omitempty"`
	Error    string        `json:"error,omitempty"`
}
