package loader

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/tsellier/ghostpatch/types"
)

// rawRoom holds a room table before compilation.
type rawRoom struct {
	id    string
	table *lua.LTable
}

// rawGhost holds a ghost table before compilation.
type rawGhost struct {
	id    string
	table *lua.LTable
}

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	v := tbl.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getBool returns a bool field from a Lua table, or the default if missing.
func getBool(tbl *lua.LTable, key string, def bool) bool {
	v := tbl.RawGetString(key)
	if b, ok := v.(lua.LBool); ok {
		return bool(b)
	}
	return def
}

// getNumber returns a numeric field from a Lua table, or 0 if missing.
func getNumber(tbl *lua.LTable, key string) float64 {
	v := tbl.RawGetString(key)
	if n, ok := v.(lua.LNumber); ok {
		return float64(n)
	}
	return 0
}

// getInt returns an int field from a Lua table, or 0 if missing.
func getInt(tbl *lua.LTable, key string) int {
	return int(getNumber(tbl, key))
}

// getTable returns a table field from a Lua table, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	v := tbl.RawGetString(key)
	if t, ok := v.(*lua.LTable); ok {
		return t
	}
	return nil
}

// tableToStringMap converts a Lua table to a map[string]string.
func tableToStringMap(tbl *lua.LTable) map[string]string {
	if tbl == nil {
		return nil
	}
	m := map[string]string{}
	tbl.ForEach(func(k, v lua.LValue) {
		if ks, ok := k.(lua.LString); ok {
			if vs, ok := v.(lua.LString); ok {
				m[string(ks)] = string(vs)
			}
		}
	})
	return m
}

// tableToStringSlice converts a Lua array table to a []string.
func tableToStringSlice(tbl *lua.LTable) []string {
	if tbl == nil {
		return nil
	}
	var out []string
	for i := 1; i <= tbl.MaxN(); i++ {
		if s, ok := tbl.RawGetInt(i).(lua.LString); ok {
			out = append(out, string(s))
		}
	}
	return out
}

// compile converts all collected Lua data into a Defs struct.
func compile(coll *collector) (*Defs, error) {
	defs := &Defs{
		Rooms:  map[string]types.RoomDef{},
		Ghosts: map[string]types.Ghost{},
	}

	if coll.game == nil {
		return nil, fmt.Errorf("no Game{} definition found")
	}
	defs.Game = compileGame(coll.game)

	for _, raw := range coll.rooms {
		defs.Rooms[raw.id] = compileRoom(raw)
	}

	for _, raw := range coll.ghosts {
		ghost, err := compileGhost(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling ghost %s: %w", raw.id, err)
		}
		defs.Ghosts[raw.id] = ghost
	}

	return defs, nil
}

func compileGame(tbl *lua.LTable) types.GameDef {
	return types.GameDef{
		Title:   getString(tbl, "title"),
		Author:  getString(tbl, "author"),
		Version: getString(tbl, "version"),
		Start:   getString(tbl, "start"),
		Intro:   getString(tbl, "intro"),
	}
}

func compileRoom(raw rawRoom) types.RoomDef {
	tbl := raw.table
	return types.RoomDef{
		ID:          raw.id,
		Name:        getString(tbl, "name"),
		Description: getString(tbl, "description"),
		Complexity:  getNumber(tbl, "complexity"),
		Exits:       tableToStringMap(getTable(tbl, "exits")),
		UnlockAt:    getInt(tbl, "unlock_at"),
	}
}

func compileGhost(raw rawGhost) (types.Ghost, error) {
	tbl := raw.table
	ghost := types.Ghost{
		ID:          raw.id,
		Name:        getString(tbl, "name"),
		Smell:       types.Smell(getString(tbl, "smell")),
		Severity:    getInt(tbl, "severity"),
		Rooms:       tableToStringSlice(getTable(tbl, "rooms")),
		Description: getString(tbl, "description"),
	}

	if topicsTbl := getTable(tbl, "topics"); topicsTbl != nil {
		ghost.Topics = compileTopics(topicsTbl)
	}

	if patternsTbl := getTable(tbl, "fix_patterns"); patternsTbl != nil {
		patterns, err := compileFixPatterns(patternsTbl)
		if err != nil {
			return types.Ghost{}, err
		}
		ghost.FixPatterns = patterns
	}

	return ghost, nil
}

func compileTopics(tbl *lua.LTable) map[string]types.Topic {
	topics := map[string]types.Topic{}
	tbl.ForEach(func(k, v lua.LValue) {
		key, ok := k.(lua.LString)
		if !ok {
			return
		}
		topicTbl, ok := v.(*lua.LTable)
		if !ok {
			return
		}
		topic := types.Topic{
			Text:          getString(topicTbl, "text"),
			ReadySignal:   getBool(topicTbl, "ready", false),
			RequiresFlags: tableToStringSlice(getTable(topicTbl, "requires")),
		}
		if effTbl := getTable(topicTbl, "effects"); effTbl != nil {
			topic.Effects = types.MeterEffects{
				Stability:   getInt(effTbl, "stability"),
				Insight:     getInt(effTbl, "insight"),
				Description: getString(effTbl, "description"),
			}
		}
		topics[string(key)] = topic
	})
	return topics
}

func compileFixPatterns(tbl *lua.LTable) ([]types.FixPattern, error) {
	var patterns []types.FixPattern
	for i := 1; i <= tbl.MaxN(); i++ {
		pTbl, ok := tbl.RawGetInt(i).(*lua.LTable)
		if !ok {
			return nil, fmt.Errorf("fix_patterns[%d] is not a table", i)
		}
		patterns = append(patterns, types.FixPattern{
			ID:          getString(pTbl, "id"),
			Description: getString(pTbl, "description"),
			Diff:        getString(pTbl, "diff"),
			Risk:        getNumber(pTbl, "risk"),
			Stability:   getInt(pTbl, "stability"),
			Insight:     getInt(pTbl, "insight"),
		})
	}
	return patterns, nil
}
