package session

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/MJE43/dodepa/internal/games"
)

// Record is the persisted form of a session.
type Record struct {
	Money      int      `json:"money"`
	Energy     int      `json:"energy"`
	Reputation int      `json:"reputation"`
	Debt       int      `json:"debt"`
	Bet        int      `json:"bet"`
	Logs       []string `json:"logs"`
}

func newRecord(st games.State, logs []string) Record {
	if logs == nil {
		logs = []string{}
	}
	return Record{
		Money:      st.Money,
		Energy:     st.Energy,
		Reputation: st.Reputation,
		Debt:       st.Debt,
		Bet:        st.Bet,
		Logs:       logs,
	}
}

const recordSchemaURL = "dodepa://record.schema.json"

var recordSchema = jsonschema.MustCompileString(recordSchemaURL, `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["money", "energy", "reputation", "debt", "bet"],
	"properties": {
		"money": {"type": "number"},
		"energy": {"type": "number"},
		"reputation": {"type": "number"},
		"debt": {"type": "number"},
		"bet": {"type": "number"},
		"logs": {"type": "array", "items": {"type": "string"}}
	}
}`)

// ValidateRecord checks raw against the record schema.
func ValidateRecord(raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("session: record is not JSON: %w", err)
	}
	if err := recordSchema.Validate(v); err != nil {
		return fmt.Errorf("session: invalid record: %w", err)
	}
	return nil
}

// decodeRecord salvages what it can from raw: fields that are missing,
// null or not numbers take their default, every number is floored and the
// result is clamped. Only a payload that is not a JSON object fails.
func decodeRecord(raw []byte, rules games.Rules) (games.State, []string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return games.State{}, nil, err
	}
	d := rules.Defaults
	st := games.State{
		Money:      numberField(fields, "money", d.Money),
		Energy:     numberField(fields, "energy", d.Energy),
		Reputation: numberField(fields, "reputation", d.Reputation),
		Debt:       numberField(fields, "debt", d.Debt),
		Bet:        numberField(fields, "bet", d.Bet),
	}
	return rules.Clamp(st), logsField(fields["logs"], rules.LogLimit), nil
}

func numberField(fields map[string]json.RawMessage, name string, def int) int {
	raw, ok := fields[name]
	if !ok || string(raw) == "null" {
		return def
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return def
	}
	n, ok := floorInt(f)
	if !ok {
		return def
	}
	return n
}

// floorInt floors f, refusing values an int cannot hold.
func floorInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	f = math.Floor(f)
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int(f), true
}

// logsField accepts any JSON array; non-string entries keep their JSON text.
func logsField(raw json.RawMessage, limit int) []string {
	var items []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return []string{}
	}
	entries := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			entries = append(entries, s)
			continue
		}
		entries = append(entries, strings.TrimSpace(string(item)))
	}
	return games.NormalizeLogs(entries, limit)
}
