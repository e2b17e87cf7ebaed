// Package buttons computes counterbalanced response-button assignments.
//
// The assignment is a pure function of (subject, run): the two configured
// response keys swap order between consecutive runs of the same subject, and
// the subject's starting order depends on the subject id so that not every
// participant begins the sequence with the same mapping.
package buttons

import (
	"hash/fnv"

	"github.com/TimManiquet/fmritask/internal/config"
	"github.com/TimManiquet/fmritask/internal/domain/model"
)

// Map identifiers for the two possible key orderings.
const (
	MapA = "A"
	MapB = "B"
)

// MapFor returns the button mapping for the given subject and 1-based run
// number. It is deterministic and total: the same pair always yields the
// same mapping, and consecutive runs of one subject alternate between the
// two orderings.
func MapFor(cfg *config.Config, subjectID string, run int) model.ButtonMapping {
	parity := (startingParity(subjectID) + run) % 2

	keys := cfg.ResponseKeys
	instr := cfg.ResponseInstructions
	if parity == 0 {
		return model.ButtonMapping{
			MapID:    MapA,
			YesKey:   keys[0],
			NoKey:    keys[1],
			YesInstr: instr[0],
			NoInstr:  instr[1],
		}
	}
	return model.ButtonMapping{
		MapID:    MapB,
		YesKey:   keys[1],
		NoKey:    keys[0],
		YesInstr: instr[1],
		NoInstr:  instr[0],
	}
}

// startingParity derives a stable 0/1 offset from the subject id. Ids that
// end in a number ("sub-07") use that number's parity so sequentially
// numbered participants alternate starting maps; anything else falls back
// to a hash of the full id.
func startingParity(subjectID string) int {
	if n := len(subjectID); n > 0 {
		if c := subjectID[n-1]; c >= '0' && c <= '9' {
			return int(c-'0') % 2
		}
	}

	h := fnv.New32a()
	h.Write([]byte(subjectID))
	return int(h.Sum32() % 2)
}
