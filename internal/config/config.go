// Package config loads and merges Aer.toml profiles. Grounded on the
// original implementation's profile-merge contract
// (original_source/src/tool.rs) and, for its ambient shape (Load
// reading a file, returning a resolved value), on the teacher's own
// internal/config.Load.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/aerstatic/aer/internal/value"
)

// DefaultProfileName is the profile always loaded as the base layer.
const DefaultProfileName = "default"

// DefaultFileName is the config file Load reads when none is given.
const DefaultFileName = "Aer.toml"

// Paths holds a resolved profile's source/target directories and
// clean-URL setting.
type Paths struct {
	Source    string
	Target    string
	CleanURLs bool
}

// Events holds the optional NATS publishing configuration for a
// profile. An empty URL means events are disabled.
type Events struct {
	URL     string
	Subject string
}

// Schedule holds the optional periodic-rebuild configuration for a
// profile. An empty Every means no scheduled rebuild runs.
type Schedule struct {
	Every string
}

// ProcEntry is one named processor and its options table, in the order
// it was declared.
type ProcEntry struct {
	Name    string
	Options map[string]value.Value
}

// Profile is a fully resolved (possibly merged) configuration profile:
// the source/target paths, the shared build context, and the ordered
// processor pipeline.
type Profile struct {
	Paths    Paths
	Context  *value.Table
	Procs    []ProcEntry
	Events   Events
	Schedule Schedule
}

type rawPaths struct {
	Source    *string `toml:"source"`
	Target    *string `toml:"target"`
	CleanURLs *bool   `toml:"clean_urls"`
}

type rawEvents struct {
	URL     *string `toml:"url"`
	Subject *string `toml:"subject"`
}

type rawSchedule struct {
	Every *string `toml:"every"`
}

type rawProfile struct {
	Paths    rawPaths                  `toml:"paths"`
	Context  map[string]any            `toml:"context"`
	Procs    map[string]map[string]any `toml:"procs"`
	Events   rawEvents                 `toml:"events"`
	Schedule rawSchedule               `toml:"schedule"`
}

// Load reads and resolves the profile named by profileName from the
// TOML file at path. An empty profileName resolves to "default".
func Load(path, profileName string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return LoadFromString(string(data), profileName)
}

// LoadFromString parses src as an Aer.toml document and resolves
// profileName, deep-merging it over the mandatory "default" profile.
func LoadFromString(src, profileName string) (*Profile, error) {
	if profileName == "" {
		profileName = DefaultProfileName
	}

	var raw map[string]rawProfile
	if err := toml.Unmarshal([]byte(src), &raw); err != nil {
		return nil, fmt.Errorf("config: invalid TOML: %w", err)
	}

	defRaw, ok := raw[DefaultProfileName]
	if !ok {
		return nil, fmt.Errorf("config: missing %q profile", DefaultProfileName)
	}
	defTable, err := profileTable(defRaw, procOrder(src, DefaultProfileName))
	if err != nil {
		return nil, err
	}

	merged := defTable
	if profileName != DefaultProfileName {
		selRaw, ok := raw[profileName]
		if !ok {
			return nil, fmt.Errorf("config: missing profile %q", profileName)
		}
		selTable, err := profileTable(selRaw, procOrder(src, profileName))
		if err != nil {
			return nil, err
		}
		merged = defTable.Merge(selTable)
	}

	return toProfile(merged)
}

// profileTable converts one raw TOML profile into the generic
// value.Table shape (paths/context/procs/events/schedule) so profile
// merging can reuse value.Table.Merge's deep-merge semantics uniformly
// across all five sections, per the "scalars and lists are replaced;
// tables are merged" rule.
func profileTable(raw rawProfile, procNames []string) (*value.Table, error) {
	t := value.NewTable()

	paths := value.NewTable()
	if raw.Paths.Source != nil {
		paths.Set("source", value.Text(*raw.Paths.Source))
	}
	if raw.Paths.Target != nil {
		paths.Set("target", value.Text(*raw.Paths.Target))
	}
	if raw.Paths.CleanURLs != nil {
		paths.Set("clean_urls", value.Text(strconv.FormatBool(*raw.Paths.CleanURLs)))
	}
	t.Set("paths", value.TableValue(paths))

	// TableFromTOML inserts keys in sorted order, so context tables
	// iterate deterministically rather than in Go's map order.
	ctx := value.TableFromTOML(raw.Context)
	t.Set("context", value.TableValue(ctx))

	procs := value.NewTable()
	seen := make(map[string]bool, len(procNames))
	for _, name := range procNames {
		opts, ok := raw.Procs[name]
		if !ok {
			continue
		}
		seen[name] = true
		procs.Set(name, value.TableValue(optionsTable(opts)))
	}
	// procOrder is a best-effort scan of the source text; fall back to
	// whatever the TOML decoder gave us for any name it missed (e.g. a
	// processor declared with a `[profile.procs.name]` table header
	// instead of the documented inline-table style).
	for name, opts := range raw.Procs {
		if seen[name] {
			continue
		}
		procs.Set(name, value.TableValue(optionsTable(opts)))
	}
	t.Set("procs", value.TableValue(procs))

	events := value.NewTable()
	if raw.Events.URL != nil {
		events.Set("url", value.Text(*raw.Events.URL))
	}
	if raw.Events.Subject != nil {
		events.Set("subject", value.Text(*raw.Events.Subject))
	}
	t.Set("events", value.TableValue(events))

	schedule := value.NewTable()
	if raw.Schedule.Every != nil {
		schedule.Set("every", value.Text(*raw.Schedule.Every))
	}
	t.Set("schedule", value.TableValue(schedule))

	return t, nil
}

func optionsTable(opts map[string]any) *value.Table {
	t := value.NewTable()
	for k, v := range opts {
		t.Set(k, anyToValue(v))
	}
	return t
}

func anyToValue(v any) value.Value {
	switch x := v.(type) {
	case string:
		return value.Text(x)
	case bool:
		return value.Text(strconv.FormatBool(x))
	case int64:
		return value.Text(strconv.FormatInt(x, 10))
	case float64:
		return value.Text(strconv.FormatFloat(x, 'g', -1, 64))
	case []any:
		items := make([]value.Value, len(x))
		for i, item := range x {
			items[i] = anyToValue(item)
		}
		return value.ListOf(items)
	case map[string]any:
		return value.TableValue(optionsTable(x))
	default:
		return value.Text(fmt.Sprint(x))
	}
}

// toProfile lowers the generic merged value.Table back into a Profile,
// with defaulted paths and processor options ready for construction.
func toProfile(t *value.Table) (*Profile, error) {
	p := &Profile{Context: value.NewTable()}

	if pathsVal, ok := t.Get("paths"); ok {
		if pathsTable, ok := pathsVal.AsTable(); ok {
			if v, ok := pathsTable.Get("source"); ok {
				p.Paths.Source, _ = v.AsText()
			}
			if v, ok := pathsTable.Get("target"); ok {
				p.Paths.Target, _ = v.AsText()
			}
			if v, ok := pathsTable.Get("clean_urls"); ok {
				text, _ := v.AsText()
				p.Paths.CleanURLs = text == "true"
			}
		}
	}

	if ctxVal, ok := t.Get("context"); ok {
		if ctxTable, ok := ctxVal.AsTable(); ok {
			p.Context = ctxTable
		}
	}

	if eventsVal, ok := t.Get("events"); ok {
		if eventsTable, ok := eventsVal.AsTable(); ok {
			if v, ok := eventsTable.Get("url"); ok {
				p.Events.URL, _ = v.AsText()
			}
			if v, ok := eventsTable.Get("subject"); ok {
				p.Events.Subject, _ = v.AsText()
			}
		}
	}

	if scheduleVal, ok := t.Get("schedule"); ok {
		if scheduleTable, ok := scheduleVal.AsTable(); ok {
			if v, ok := scheduleTable.Get("every"); ok {
				p.Schedule.Every, _ = v.AsText()
			}
		}
	}

	if procsVal, ok := t.Get("procs"); ok {
		if procsTable, ok := procsVal.AsTable(); ok {
			for _, name := range procsTable.Keys() {
				v, _ := procsTable.Get(name)
				optsTable, _ := v.AsTable()
				opts := make(map[string]value.Value)
				for _, k := range optsTable.Keys() {
					ov, _ := optsTable.Get(k)
					opts[k] = ov
				}
				p.Procs = append(p.Procs, ProcEntry{Name: name, Options: opts})
			}
		}
	}

	return p, nil
}

// procOrder scans src's raw text for the declared order of processor
// names under "[<profile>.procs]", as written using the documented
// inline-table style (`name = { ... }`, one per line). TOML's decoder
// discards key order when unmarshaling into a Go map, and the ordered
// invocation of processors is behaviorally significant, so this
// recovers it directly from the source text rather than the parsed
// structure.
func procOrder(src, profile string) []string {
	header := "[" + profile + ".procs]"
	var names []string
	inSection := false
	scanner := bufio.NewScanner(strings.NewReader(src))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			inSection = line == header
			continue
		}
		if !inSection {
			continue
		}
		if eq := strings.Index(line, "="); eq > 0 {
			names = append(names, strings.TrimSpace(line[:eq]))
		}
	}
	return names
}
