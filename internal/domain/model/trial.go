// Package model contains domain models passed between layers.
package model

// FixationSentinel is the reserved stimulus value meaning "show a blank
// fixation trial, not an image".
const FixationSentinel = "fixation"

// StimulusRow is one record from the input stimulus table: the mandatory
// stimulus identifier plus any extra columns carried through verbatim.
type StimulusRow struct {
	Stimulus string            // asset reference or FixationSentinel
	Run      int               // 0 when the table declares no run column
	Extra    map[string]string // caller-defined columns, untouched
}

// Clone returns a deep copy so replicated rows never share the Extra map.
func (r StimulusRow) Clone() StimulusRow {
	c := r
	if r.Extra != nil {
		c.Extra = make(map[string]string, len(r.Extra))
		for k, v := range r.Extra {
			c.Extra[k] = v
		}
	}
	return c
}

// StimulusTable is an ordered sequence of rows with a fixed column set.
type StimulusTable struct {
	Rows    []StimulusRow
	Columns []string // extra column names, in file order
	HasRun  bool     // true when the source table declared a run column
}

// Len returns the number of rows.
func (t StimulusTable) Len() int { return len(t.Rows) }

// ButtonMapping is the deterministic response-key/instruction assignment
// for one (subject, run) pair.
type ButtonMapping struct {
	MapID    string // "A" or "B", distinguishing the two orderings
	YesKey   string // key answering the first logical response
	NoKey    string // key answering the second logical response
	YesInstr string
	NoInstr  string
}

// Trial is one scheduled stimulus/fixation presentation unit.
type Trial struct {
	TrialNumber int // 1-based, global across the experiment
	Run         int // 1-based
	SubjectID   string
	Stimulus    string
	Extra       map[string]string
	Mapping     ButtonMapping
	IdealOnset  float64 // seconds relative to run start

	// Response placeholders, filled in by the presentation loop.
	ResponseKey   string  // empty until a response is observed
	ResponseOnset float64 // seconds; NaN-free, zero until observed
	Responded     bool
}

// IsFixation reports whether this trial shows the fixation sentinel.
func (t Trial) IsFixation() bool { return t.Stimulus == FixationSentinel }

// TrialSchedule is the full ordered schedule for one participant,
// created once and persisted, then read back unchanged on later runs.
type TrialSchedule struct {
	SubjectID string
	Trials    []Trial
}

// Len returns the number of trials.
func (s TrialSchedule) Len() int { return len(s.Trials) }

// RunTrials returns the trials belonging to run, in schedule order.
func (s TrialSchedule) RunTrials(run int) []Trial {
	out := make([]Trial, 0)
	for _, t := range s.Trials {
		if t.Run == run {
			out = append(out, t)
		}
	}
	return out
}

// Runs returns the highest run number present in the schedule.
func (s TrialSchedule) Runs() int {
	max := 0
	for _, t := range s.Trials {
		if t.Run > max {
			max = t.Run
		}
	}
	return max
}
