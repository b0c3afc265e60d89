package sat

// reason records why a variable was assigned: either a decision (Clause
// == NullClauseID), or an implication by clause Clause. Lit caches the
// other literal of a binary reason clause so conflict analysis and
// minimization can skip loading the clause body; it is LitUndef for
// decisions and for reasons that must be explained by walking the full
// clause.
type reason struct {
	Clause ClauseID
	Lit    Literal
}

var decisionReason = reason{Clause: NullClauseID, Lit: LitUndef}

// VarDB holds the per-variable state: assignment, decision level,
// reason, flags, and (while the eliminator is linked) occurrence lists.
// It is laid out as a struct-of-arrays, one slice per field indexed by
// variable ID, to keep the hot assign/level/reason lookups cache-dense.
type VarDB struct {
	assign   []LBool
	level    []int
	reasons  []reason
	flags    []varFlag
	posOccur [][]ClauseID
	negOccur [][]ClauseID
}

// NewVarDB returns an empty VarDB.
func NewVarDB() *VarDB {
	return &VarDB{}
}

// NumVars returns the number of variables created so far.
func (vd *VarDB) NumVars() int {
	return len(vd.assign)
}

// AddVar creates a new variable and returns its ID.
func (vd *VarDB) AddVar() int {
	v := len(vd.assign)
	vd.assign = append(vd.assign, Unknown)
	vd.level = append(vd.level, -1)
	vd.reasons = append(vd.reasons, decisionReason)
	vd.flags = append(vd.flags, 0)
	vd.posOccur = append(vd.posOccur, nil)
	vd.negOccur = append(vd.negOccur, nil)
	return v
}

// Value returns the current lifted value of variable v.
func (vd *VarDB) Value(v int) LBool {
	return vd.assign[v]
}

// LitValue returns the current lifted value of literal l.
func (vd *VarDB) LitValue(l Literal) LBool {
	v := vd.assign[l.VarID()]
	if l.IsPositive() {
		return v
	}
	return v.Opposite()
}

// Level returns the decision level at which v was assigned, or -1 if
// v is currently unassigned.
func (vd *VarDB) Level(v int) int {
	return vd.level[v]
}

// Reason returns the reason v was assigned.
func (vd *VarDB) Reason(v int) reason {
	return vd.reasons[v]
}

// assignVar records that variable v has just been given value val at
// the given decision level for the given reason. It does not touch the
// trail; callers (AssignStack) own that.
func (vd *VarDB) assignVar(v int, val LBool, level int, r reason) {
	vd.assign[v] = val
	vd.level[v] = level
	vd.reasons[v] = r
}

// unassignVar clears v's assignment, saving its last sign into the
// PHASE flag for phase saving, and returns the sign that was saved.
func (vd *VarDB) unassignVar(v int) LBool {
	last := vd.assign[v]
	if last == True {
		vd.flags[v] |= flagPhase
	} else {
		vd.flags[v] &^= flagPhase
	}
	vd.flags[v] |= flagPhaseSet
	vd.assign[v] = Unknown
	vd.level[v] = -1
	vd.reasons[v] = decisionReason
	return last
}

func (vd *VarDB) hasFlag(v int, f varFlag) bool {
	return vd.flags[v]&f != 0
}

func (vd *VarDB) setFlag(v int, f varFlag) {
	vd.flags[v] |= f
}

func (vd *VarDB) clearFlag(v int, f varFlag) {
	vd.flags[v] &^= f
}

// IsEliminated returns whether v has been eliminated by the preprocessor.
func (vd *VarDB) IsEliminated(v int) bool {
	return vd.hasFlag(v, flagEliminated)
}

// SavedPhase returns the last sign v held before being unassigned, or
// Unknown if v was never assigned (and so has no saved phase yet).
func (vd *VarDB) SavedPhase(v int) LBool {
	if !vd.hasFlag(v, flagPhaseSet) {
		return Unknown
	}
	if vd.hasFlag(v, flagPhase) {
		return True
	}
	return False
}

// linkOccur records that clause cid contains literal l, used only while
// the eliminator holds the Running state.
func (vd *VarDB) linkOccur(l Literal, cid ClauseID) {
	v := l.VarID()
	if l.IsPositive() {
		vd.posOccur[v] = append(vd.posOccur[v], cid)
	} else {
		vd.negOccur[v] = append(vd.negOccur[v], cid)
	}
}

// clearOccurs drops all occurrence lists, called when the eliminator
// stops running.
func (vd *VarDB) clearOccurs() {
	for v := range vd.posOccur {
		vd.posOccur[v] = nil
		vd.negOccur[v] = nil
	}
}
