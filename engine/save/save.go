// Package save implements JSON serialization and deserialization of game state.
package save

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tsellier/ghostpatch/types"
)

// SaveData is the JSON-serializable save format.
type SaveData struct {
	Version        string                      `json:"version"`
	Game           string                      `json:"game"`
	Stability      int                         `json:"stability"`
	Insight        int                         `json:"insight"`
	CurrentRoom    string                      `json:"current_room"`
	Sessions       []types.EncounterSession    `json:"sessions"`
	Timeline       []types.TimelineEntry       `json:"timeline"`
	UnlockedRooms  []string                    `json:"unlocked_rooms"`
	ResolvedGhosts []string                    `json:"resolved_ghosts"`
	Accessibility  types.AccessibilitySettings `json:"accessibility"`
	Performance    types.PerformanceSettings   `json:"performance"`
	RNGSeed        int64                       `json:"rng_seed"`
	RNGPosition    int                         `json:"rng_position"`
}

// Marshal serializes save data to JSON bytes.
func Marshal(sd SaveData) ([]byte, error) {
	return json.MarshalIndent(sd, "", "  ")
}

// Unmarshal deserializes JSON bytes into SaveData.
func Unmarshal(data []byte) (*SaveData, error) {
	var sd SaveData
	if err := json.Unmarshal(data, &sd); err != nil {
		return nil, err
	}
	// Ensure slices are never nil after load.
	if sd.Sessions == nil {
		sd.Sessions = []types.EncounterSession{}
	}
	if sd.Timeline == nil {
		sd.Timeline = []types.TimelineEntry{}
	}
	if sd.UnlockedRooms == nil {
		sd.UnlockedRooms = []string{}
	}
	if sd.ResolvedGhosts == nil {
		sd.ResolvedGhosts = []string{}
	}
	if sd.Accessibility.IntensityScale <= 0 {
		sd.Accessibility.IntensityScale = 1.0
	}
	return &sd, nil
}

// Store persists opaque save blobs keyed by slot name. Persistence itself
// lives outside the engine; this is the seam it plugs into.
type Store interface {
	Write(slot string, data []byte) error
	Read(slot string) ([]byte, error)
	List() ([]string, error)
}

// DirStore keeps save slots as files in one directory.
type DirStore struct {
	Dir string
}

func (s DirStore) path(slot string) string {
	return filepath.Join(s.Dir, slot+".json")
}

func (s DirStore) Write(slot string, data []byte) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("creating save dir: %w", err)
	}
	return os.WriteFile(s.path(slot), data, 0o644)
}

func (s DirStore) Read(slot string) ([]byte, error) {
	data, err := os.ReadFile(s.path(slot))
	if err != nil {
		return nil, fmt.Errorf("reading save %s: %w", slot, err)
	}
	return data, nil
}

func (s DirStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var slots []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if name := e.Name(); filepath.Ext(name) == ".json" {
			slots = append(slots, name[:len(name)-len(".json")])
		}
	}
	return slots, nil
}
