package conversation

import (
	"sort"
	"strings"
	"time"
)

// Preference strength levels assigned from lexical cues in the message.
const (
	StrengthWeak   = 0.3
	StrengthMedium = 0.6
	StrengthStrong = 0.9
)

const (
	// DefaultDecayFactor is applied multiplicatively to every stored strength
	// each turn, so unreinforced preferences fade.
	DefaultDecayFactor = 0.9
	// PruneThreshold removes preferences whose strength decays below it.
	PruneThreshold = 0.1
	// negationProximity is how many tokens a negation word may sit from an
	// entity mention and still apply to it.
	negationProximity = 5
)

// PreferenceEvent records one preference update for the audit trail.
type PreferenceEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Entities  EntitySet `json:"entities"`
	Message   string    `json:"message"`
}

// Preferences is a decaying-strength profile of user interests. Strengths are
// always in [0,1]. A value present in Negations never simultaneously appears
// as a positive preference.
//
// History is append-only and unbounded; a long conversation grows it without
// limit. Kept that way deliberately as the full audit trail.
type Preferences struct {
	Subjects        map[string]float64 `json:"subjects"`
	Skills          map[string]float64 `json:"skills"`
	Levels          map[string]float64 `json:"levels"`
	Formats         map[string]float64 `json:"formats"`
	Goals           map[string]float64 `json:"goals"`
	TimeCommitments map[string]float64 `json:"time_commitments"`
	Providers       map[string]float64 `json:"providers"`
	Negations       []string           `json:"negations"`
	History         []PreferenceEvent  `json:"history"`
}

// NewPreferences returns an empty preference profile.
func NewPreferences() Preferences {
	return Preferences{
		Subjects:        map[string]float64{},
		Skills:          map[string]float64{},
		Levels:          map[string]float64{},
		Formats:         map[string]float64{},
		Goals:           map[string]float64{},
		TimeCommitments: map[string]float64{},
		Providers:       map[string]float64{},
		Negations:       []string{},
		History:         []PreferenceEvent{},
	}
}

func cloneStrengthMap(m map[string]float64) map[string]float64 {
	clone := make(map[string]float64, len(m))
	for k, v := range m {
		clone[k] = v
	}
	return clone
}

// Clone returns a deep copy of the profile.
func (p Preferences) Clone() Preferences {
	clone := Preferences{
		Subjects:        cloneStrengthMap(p.Subjects),
		Skills:          cloneStrengthMap(p.Skills),
		Levels:          cloneStrengthMap(p.Levels),
		Formats:         cloneStrengthMap(p.Formats),
		Goals:           cloneStrengthMap(p.Goals),
		TimeCommitments: cloneStrengthMap(p.TimeCommitments),
		Providers:       cloneStrengthMap(p.Providers),
		Negations:       append([]string{}, p.Negations...),
		History:         make([]PreferenceEvent, len(p.History)),
	}
	for i, ev := range p.History {
		clone.History[i] = PreferenceEvent{
			Timestamp: ev.Timestamp,
			Entities:  ev.Entities.Clone(),
			Message:   ev.Message,
		}
	}
	return clone
}

func (p *Preferences) categoryFor(t EntityType) map[string]float64 {
	switch t {
	case EntitySubject:
		return p.Subjects
	case EntitySkill:
		return p.Skills
	case EntityLevel:
		return p.Levels
	case EntityFormat:
		return p.Formats
	case EntityGoal:
		return p.Goals
	case EntityTime:
		return p.TimeCommitments
	}
	return nil
}

func (p *Preferences) allCategories() []map[string]float64 {
	return []map[string]float64{
		p.Subjects, p.Skills, p.Levels, p.Formats, p.Goals, p.TimeCommitments, p.Providers,
	}
}

// PreferenceTrackerOptions are tunables for preference extraction.
type PreferenceTrackerOptions struct {
	DecayFactor   float64
	NegationWords []string
	StrongCues    []string
	WeakCues      []string
}

// PreferenceTracker derives a preference profile from conversation turns.
// The tracker holds tunables only; all mutable state lives in the Preferences
// value passed explicitly into each call.
type PreferenceTracker struct {
	decayFactor   float64
	negationWords []string
	strongCues    []string
	weakCues      []string
}

// NewPreferenceTracker creates a preference tracker with defaults for zero
// options.
func NewPreferenceTracker(opts PreferenceTrackerOptions) *PreferenceTracker {
	t := &PreferenceTracker{
		decayFactor:   opts.DecayFactor,
		negationWords: opts.NegationWords,
		strongCues:    opts.StrongCues,
		weakCues:      opts.WeakCues,
	}
	if t.decayFactor <= 0 {
		t.decayFactor = DefaultDecayFactor
	}
	if len(t.negationWords) == 0 {
		t.negationWords = []string{"not", "don't", "doesn't", "didn't", "no", "never"}
	}
	if len(t.strongCues) == 0 {
		t.strongCues = []string{"really", "very", "extremely", "definitely", "absolutely", "love", "passionate"}
	}
	if len(t.weakCues) == 0 {
		t.weakCues = []string{"somewhat", "kind of", "a bit", "slightly", "maybe", "perhaps"}
	}
	return t
}

// UpdatePreferences folds one turn's extracted entities into the profile.
// Pure: the input profile is never mutated. Every existing entry decays by the
// decay factor regardless of whether it was reinforced this turn; entries
// below PruneThreshold are removed.
func (t *PreferenceTracker) UpdatePreferences(prefs Preferences, entities EntitySet, message string) Preferences {
	next := prefs.Clone()

	hasNegation := t.containsNegation(message)
	strength := t.determineStrength(message)

	for _, entityType := range AllEntityTypes() {
		category := next.categoryFor(entityType)
		for _, value := range entities.Get(entityType) {
			if hasNegation && t.negationApplies(value, message) {
				next.addNegation(value)
				delete(category, value)
				continue
			}
			next.removeNegation(value)
			current := category[value]
			updated := current + strength
			if updated > 1 {
				updated = 1
			}
			category[value] = updated
		}
	}

	t.applyDecay(&next)

	next.History = append(next.History, PreferenceEvent{
		Timestamp: time.Now().UTC(),
		Entities:  entities.Clone(),
		Message:   message,
	})

	return next
}

func (p *Preferences) addNegation(value string) {
	for _, n := range p.Negations {
		if n == value {
			return
		}
	}
	p.Negations = append(p.Negations, value)
}

func (p *Preferences) removeNegation(value string) {
	for i, n := range p.Negations {
		if n == value {
			p.Negations = append(p.Negations[:i], p.Negations[i+1:]...)
			return
		}
	}
}

func (t *PreferenceTracker) containsNegation(message string) bool {
	lower := strings.ToLower(message)
	words := strings.Fields(lower)
	for _, w := range words {
		trimmed := strings.Trim(w, ".,!?;:")
		for _, neg := range t.negationWords {
			if trimmed == neg {
				return true
			}
		}
	}
	return false
}

// negationApplies reports whether a negation word sits within
// negationProximity tokens of the entity mention.
func (t *PreferenceTracker) negationApplies(entity, message string) bool {
	lower := strings.ToLower(message)
	lowerEntity := strings.ToLower(entity)

	entityIdx := strings.Index(lower, lowerEntity)
	if entityIdx == -1 {
		return false
	}

	for _, neg := range t.negationWords {
		negIdx := strings.Index(lower, neg)
		if negIdx == -1 {
			continue
		}
		start, end := negIdx, entityIdx
		if start > end {
			start, end = end, start
		}
		between := lower[start:end]
		if len(strings.Fields(between)) <= negationProximity {
			return true
		}
	}
	return false
}

func (t *PreferenceTracker) determineStrength(message string) float64 {
	lower := strings.ToLower(message)
	for _, cue := range t.strongCues {
		if strings.Contains(lower, cue) {
			return StrengthStrong
		}
	}
	for _, cue := range t.weakCues {
		if strings.Contains(lower, cue) {
			return StrengthWeak
		}
	}
	return StrengthMedium
}

func (t *PreferenceTracker) applyDecay(prefs *Preferences) {
	for _, category := range prefs.allCategories() {
		for key, strength := range category {
			decayed := strength * t.decayFactor
			if decayed < PruneThreshold {
				delete(category, key)
				continue
			}
			category[key] = decayed
		}
	}
}

// RankedPreference is a preference value with its current strength.
type RankedPreference struct {
	Value    string  `json:"value"`
	Strength float64 `json:"strength"`
}

// TopPreferences is the strongest preferences per category.
type TopPreferences struct {
	Subjects        []RankedPreference `json:"subjects"`
	Skills          []RankedPreference `json:"skills"`
	Levels          []RankedPreference `json:"levels"`
	Formats         []RankedPreference `json:"formats"`
	Goals           []RankedPreference `json:"goals"`
	TimeCommitments []RankedPreference `json:"time_commitments"`
	Providers       []RankedPreference `json:"providers"`
	Negations       []string           `json:"negations"`
}

func topForCategory(category map[string]float64, limit int) []RankedPreference {
	ranked := make([]RankedPreference, 0, len(category))
	for value, strength := range category {
		ranked = append(ranked, RankedPreference{Value: value, Strength: strength})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Strength != ranked[j].Strength {
			return ranked[i].Strength > ranked[j].Strength
		}
		return ranked[i].Value < ranked[j].Value
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// GetTopPreferences returns the strongest preferences per category. Pure read.
func (t *PreferenceTracker) GetTopPreferences(prefs Preferences, limit int) TopPreferences {
	if limit <= 0 {
		limit = 3
	}
	return TopPreferences{
		Subjects:        topForCategory(prefs.Subjects, limit),
		Skills:          topForCategory(prefs.Skills, limit),
		Levels:          topForCategory(prefs.Levels, limit),
		Formats:         topForCategory(prefs.Formats, limit),
		Goals:           topForCategory(prefs.Goals, limit),
		TimeCommitments: topForCategory(prefs.TimeCommitments, limit),
		Providers:       topForCategory(prefs.Providers, limit),
		Negations:       append([]string{}, prefs.Negations...),
	}
}

// QueryParams are recommendation query parameters derived from a profile.
// Empty fields are omitted when serialized.
type QueryParams struct {
	Subjects         []string `json:"subjects,omitempty"`
	Skills           []string `json:"skills,omitempty"`
	Level            string   `json:"level,omitempty"`
	Format           string   `json:"format,omitempty"`
	Goal             string   `json:"goal,omitempty"`
	TimeCommitment   string   `json:"time_commitment,omitempty"`
	ExcludeSubjects  []string `json:"exclude_subjects,omitempty"`
	ExcludeProviders []string `json:"exclude_providers,omitempty"`
}

func rankedValues(ranked []RankedPreference) []string {
	values := make([]string, 0, len(ranked))
	for _, r := range ranked {
		values = append(values, r.Value)
	}
	return values
}

// ToQueryParams flattens top preferences into recommendation query parameters.
// A negated value only becomes an exclusion if it is not simultaneously held
// as a positive preference in the corresponding category.
func (t *PreferenceTracker) ToQueryParams(prefs Preferences) QueryParams {
	top := t.GetTopPreferences(prefs, 3)

	params := QueryParams{
		Subjects: rankedValues(top.Subjects),
		Skills:   rankedValues(top.Skills),
	}
	if len(top.Levels) > 0 {
		params.Level = top.Levels[0].Value
	}
	if len(top.Formats) > 0 {
		params.Format = top.Formats[0].Value
	}
	if len(top.Goals) > 0 {
		params.Goal = top.Goals[0].Value
	}
	if len(top.TimeCommitments) > 0 {
		params.TimeCommitment = top.TimeCommitments[0].Value
	}
	for _, negated := range prefs.Negations {
		if _, ok := prefs.Subjects[negated]; !ok {
			params.ExcludeSubjects = append(params.ExcludeSubjects, negated)
		}
		if _, ok := prefs.Providers[negated]; !ok {
			params.ExcludeProviders = append(params.ExcludeProviders, negated)
		}
	}
	return params
}
