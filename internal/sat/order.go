package sat

import "github.com/rhartert/yagh"

// rephaseMode names a stage in the rephasing cycle. The schedule is
// policy rather than a fixed requirement, so a single deterministic
// cycle is used here (see DESIGN.md's Open Question #1).
type rephaseMode int

const (
	rephaseGeneric rephaseMode = iota
	rephaseBest
	rephaseClear
	rephaseLastAssigned
)

// VarSelector implements variable selection: an activity max-heap (via
// yagh.IntMap, keyed negated since yagh is a min-heap) with phase
// saving and periodic rephasing.
//
// Extends a plain activity-ordered heap with a "best phase" snapshot
// and a rephasing stage machine.
type VarSelector struct {
	heap *yagh.IntMap[float64]

	scores   []float64
	scoreInc float64
	decay    float64

	bestPhase   []LBool // snapshot taken when the trail hits a new max length
	rephaseAt   int     // trail length at which bestPhase was last captured
	stage       rephaseMode
	conflictsAtStage int
}

// NewVarSelector returns an empty VarSelector.
func NewVarSelector(decay float64) *VarSelector {
	return &VarSelector{
		heap:     yagh.New[float64](0),
		scoreInc: 1,
		decay:    decay,
		stage:    rephaseGeneric,
	}
}

// AddVar registers a new variable with zero activity, inserted into the
// selection heap.
func (vs *VarSelector) AddVar() {
	v := len(vs.scores)
	vs.scores = append(vs.scores, 0)
	vs.bestPhase = append(vs.bestPhase, Unknown)
	vs.heap.GrowBy(1)
	vs.heap.Put(v, -vs.scores[v])
}

// Reinsert adds variable v back into the heap of selectable variables.
// Must be called whenever v becomes unassigned (e.g. on backtrack).
func (vs *VarSelector) Reinsert(v int) {
	vs.heap.Put(v, -vs.scores[v])
}

// BumpActivity increases v's activity by the current score increment,
// rescaling every score if the dynamic range overflows.
func (vs *VarSelector) BumpActivity(v int) {
	vs.scores[v] += vs.scoreInc
	if vs.heap.Contains(v) {
		vs.heap.Put(v, -vs.scores[v])
	}
	if vs.scores[v] > 1e100 {
		vs.rescale()
	}
}

func (vs *VarSelector) rescale() {
	vs.scoreInc *= 1e-100
	for v, s := range vs.scores {
		vs.scores[v] = s * 1e-100
		if vs.heap.Contains(v) {
			vs.heap.Put(v, -vs.scores[v])
		}
	}
}

// DecayActivity grows the score increment, equivalent to decaying every
// variable's activity without touching each one individually.
func (vs *VarSelector) DecayActivity() {
	vs.scoreInc /= vs.decay
	if vs.scoreInc > 1e100 {
		vs.rescale()
	}
}

// Activity returns v's current activity.
func (vs *VarSelector) Activity(v int) float64 {
	return vs.scores[v]
}

// popRoot pops the variable with the highest activity (lowest negated
// key), without checking whether it is assignable.
func (vs *VarSelector) popRoot() (int, bool) {
	item, ok := vs.heap.Pop()
	if !ok {
		return 0, false
	}
	return item.Elem, true
}

// SelectDecisionLiteral pops heap roots until an unassigned,
// non-eliminated variable is found, and returns the literal whose
// polarity is determined by the rephasing stage (if active) or the
// variable's saved phase otherwise. Returns LitUndef if every variable
// is already assigned or eliminated.
func (vs *VarSelector) SelectDecisionLiteral(vd *VarDB) Literal {
	for {
		v, ok := vs.popRoot()
		if !ok {
			return LitUndef
		}
		if vd.Value(v) != Unknown || vd.IsEliminated(v) {
			continue
		}

		var sign LBool
		switch vs.stage {
		case rephaseBest:
			sign = vs.bestPhase[v]
		case rephaseClear:
			sign = Unknown
		default:
			sign = vd.SavedPhase(v)
		}
		if sign == Unknown {
			sign = True
		}
		if sign == True {
			return PositiveLiteral(v)
		}
		return NegativeLiteral(v)
	}
}

// NoteTrailLength is called by the solver every time BCP reaches a
// fixpoint. It captures a "best assignment so far" snapshot whenever
// the trail grows past its previous maximum.
func (vs *VarSelector) NoteTrailLength(vd *VarDB, trailLen int) {
	if trailLen <= vs.rephaseAt {
		return
	}
	vs.rephaseAt = trailLen
	for v := range vs.bestPhase {
		if vd.Value(v) != Unknown {
			vs.bestPhase[v] = vd.Value(v)
		}
	}
}

// AdvanceStage cycles the rephasing policy. Called periodically by the
// solver loop (e.g. alongside clause-DB reduction).
func (vs *VarSelector) AdvanceStage() {
	switch vs.stage {
	case rephaseGeneric:
		vs.stage = rephaseBest
	case rephaseBest:
		vs.stage = rephaseClear
	case rephaseClear:
		vs.stage = rephaseLastAssigned
	default:
		vs.stage = rephaseGeneric
	}
}
