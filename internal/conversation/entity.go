package conversation

// EntityType identifies a semantic slot extracted from user text.
type EntityType string

const (
	EntitySubject EntityType = "subject"
	EntitySkill   EntityType = "skill"
	EntityLevel   EntityType = "level"
	EntityFormat  EntityType = "format"
	EntityGoal    EntityType = "goal"
	EntityTime    EntityType = "time"
)

// AllEntityTypes returns the closed set of entity types in priority order.
// The order matters: missing-information prompts surface in this order.
func AllEntityTypes() []EntityType {
	return []EntityType{EntitySubject, EntitySkill, EntityLevel, EntityFormat, EntityGoal, EntityTime}
}

// EntitySet holds extracted entity values per type. Values within a type are
// deduplicated and insertion-ordered. The six fields are the complete set of
// entity types; there is no open string-keyed map by design.
type EntitySet struct {
	Subjects []string `json:"subject"`
	Skills   []string `json:"skill"`
	Levels   []string `json:"level"`
	Formats  []string `json:"format"`
	Goals    []string `json:"goal"`
	Times    []string `json:"time"`
}

// Get returns the values for an entity type. Unknown types return nil.
func (e *EntitySet) Get(t EntityType) []string {
	switch t {
	case EntitySubject:
		return e.Subjects
	case EntitySkill:
		return e.Skills
	case EntityLevel:
		return e.Levels
	case EntityFormat:
		return e.Formats
	case EntityGoal:
		return e.Goals
	case EntityTime:
		return e.Times
	}
	return nil
}

// Add appends a value to an entity type, preserving insertion order and
// skipping duplicates.
func (e *EntitySet) Add(t EntityType, value string) {
	if value == "" {
		return
	}
	add := func(values []string) []string {
		for _, v := range values {
			if v == value {
				return values
			}
		}
		return append(values, value)
	}
	switch t {
	case EntitySubject:
		e.Subjects = add(e.Subjects)
	case EntitySkill:
		e.Skills = add(e.Skills)
	case EntityLevel:
		e.Levels = add(e.Levels)
	case EntityFormat:
		e.Formats = add(e.Formats)
	case EntityGoal:
		e.Goals = add(e.Goals)
	case EntityTime:
		e.Times = add(e.Times)
	}
}

// Merge adds every value from other into e, deduplicating per type.
func (e *EntitySet) Merge(other EntitySet) {
	for _, t := range AllEntityTypes() {
		for _, v := range other.Get(t) {
			e.Add(t, v)
		}
	}
}

// TypesCovered counts entity types that have at least one value.
func (e *EntitySet) TypesCovered() int {
	covered := 0
	for _, t := range AllEntityTypes() {
		if len(e.Get(t)) > 0 {
			covered++
		}
	}
	return covered
}

// Total counts all values across all types.
func (e *EntitySet) Total() int {
	total := 0
	for _, t := range AllEntityTypes() {
		total += len(e.Get(t))
	}
	return total
}

// IsEmpty reports whether no entity of any type has been collected.
func (e *EntitySet) IsEmpty() bool {
	return e.Total() == 0
}

// Clone returns a deep copy of the set.
func (e *EntitySet) Clone() EntitySet {
	clone := EntitySet{}
	for _, t := range AllEntityTypes() {
		values := e.Get(t)
		if len(values) == 0 {
			continue
		}
		copied := make([]string, len(values))
		copy(copied, values)
		switch t {
		case EntitySubject:
			clone.Subjects = copied
		case EntitySkill:
			clone.Skills = copied
		case EntityLevel:
			clone.Levels = copied
		case EntityFormat:
			clone.Formats = copied
		case EntityGoal:
			clone.Goals = copied
		case EntityTime:
			clone.Times = copied
		}
	}
	return clone
}
