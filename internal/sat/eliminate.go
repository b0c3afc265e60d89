package sat

import "github.com/rhartert/yagh"

// eliminatorState names where the eliminator sits in its lifecycle.
type eliminatorState int

const (
	eliminatorDeactive eliminatorState = iota
	eliminatorWaiting
	eliminatorRunning
)

// extFrame is one entry of the extension stack used to reconstruct
// values for eliminated variables after a model is found. A clause
// frame records an original clause that mentioned the eliminated
// variable, with that variable's literal first. A unit frame records
// the eliminated variable's default value: the polarity opposite to the
// literal its clause frames carry.
type extFrame struct {
	lits    []Literal
	isUnit  bool
	unitVar int
	unitLit Literal
}

// Eliminator implements bounded variable elimination with backward
// subsumption and self-subsuming resolution, run at decision level 0
// before search and periodically during search.
type Eliminator struct {
	s *Solver

	state eliminatorState

	clauseQueue *Queue[ClauseID]
	varHeap     *yagh.IntMap[int]

	extStack []extFrame

	lastRun       int // conflict count at the last run
	runEveryNConf int

	resolveBuf []Literal
}

// NewEliminator returns an Eliminator bound to s, initially Waiting so
// it runs once before the first decision.
func NewEliminator(s *Solver) *Eliminator {
	return &Eliminator{
		s:             s,
		state:         eliminatorWaiting,
		clauseQueue:   NewQueue[ClauseID](256),
		varHeap:       yagh.New[int](0),
		runEveryNConf: 5000,
	}
}

func (e *Eliminator) addVar() {
	e.varHeap.GrowBy(1)
}

// due reports whether enough conflicts have passed since the last run
// to justify another inprocessing pass.
func (e *Eliminator) due(conflicts int) bool {
	if e.state == eliminatorDeactive {
		return false
	}
	return conflicts-e.lastRun >= e.runEveryNConf
}

// run executes the eliminator's main loop at decision level 0: enqueue
// every live variable and clause, then alternate backward subsumption
// and variable elimination until both queues drain and BCP finds no
// new unit. Returns ErrInconsistent if a contradiction is found.
func (e *Eliminator) run() error {
	if e.s.decisionLevel() != 0 {
		return nil
	}
	e.lastRun = e.s.conflicts
	e.state = eliminatorRunning
	defer func() {
		e.clearOccurs()
		e.state = eliminatorWaiting
	}()

	e.linkAllOccurs()
	e.enqueueAllClauses()
	e.enqueueAllVars()

	for {
		progressed := false

		for !e.clauseQueue.IsEmpty() {
			cid := e.clauseQueue.Pop()
			c := e.s.cdb.Clause(cid)
			if c.isDead() {
				continue
			}
			if e.backwardSubsume(cid) {
				progressed = true
			}
			if err := e.propagateToFixpoint(); err != nil {
				return err
			}
		}

		for {
			v, ok := e.popVar()
			if !ok {
				break
			}
			elim, err := e.tryEliminate(v)
			if err != nil {
				return err
			}
			if elim {
				progressed = true
			}
			if err := e.propagateToFixpoint(); err != nil {
				return err
			}
		}

		if !progressed {
			break
		}
	}

	e.s.cdb.garbageCollect()
	return nil
}

func (e *Eliminator) propagateToFixpoint() error {
	if c := e.s.propagate(); c != NullClauseID {
		return ErrInconsistent
	}
	return nil
}

func (e *Eliminator) linkAllOccurs() {
	for cid := ClauseID(1); int(cid) < len(e.s.cdb.clauses); cid++ {
		c := &e.s.cdb.clauses[cid]
		if c.isDead() {
			continue
		}
		e.s.cdb.linkOccur(cid, e.s.vars)
	}
}

func (e *Eliminator) clearOccurs() {
	for cid := ClauseID(1); int(cid) < len(e.s.cdb.clauses); cid++ {
		c := &e.s.cdb.clauses[cid]
		if c.isOccurLinked() {
			e.s.cdb.unlinkOccur(cid, e.s.vars)
		}
	}
	e.s.vars.clearOccurs()
}

func (e *Eliminator) enqueueAllClauses() {
	e.clauseQueue.Clear()
	for cid := ClauseID(1); int(cid) < len(e.s.cdb.clauses); cid++ {
		c := &e.s.cdb.clauses[cid]
		if !c.isDead() {
			e.clauseQueue.Push(cid)
		}
	}
}

func (e *Eliminator) enqueueAllVars() {
	for v := 0; v < e.s.vars.NumVars(); v++ {
		if e.s.vars.Value(v) != Unknown || e.s.vars.IsEliminated(v) {
			continue
		}
		e.varHeap.Put(v, e.occurScore(v))
	}
}

func (e *Eliminator) occurScore(v int) int {
	p := len(e.s.vars.posOccur[v])
	n := len(e.s.vars.negOccur[v])
	if p < n {
		return p
	}
	return n
}

func (e *Eliminator) popVar() (int, bool) {
	for {
		item, ok := e.varHeap.Pop()
		if !ok {
			return 0, false
		}
		v := item.Elem
		if e.s.vars.Value(v) != Unknown || e.s.vars.IsEliminated(v) {
			continue
		}
		return v, true
	}
}

// backwardSubsume checks clause cid against the occur lists of its
// smallest-occurrence variable, detaching clauses it subsumes and
// strengthening clauses it self-subsumes. Returns true if any change
// was made.
func (e *Eliminator) backwardSubsume(cid ClauseID) bool {
	c := e.s.cdb.Clause(cid)
	if len(c.literals) == 0 {
		return false
	}

	pivot := c.literals[0].VarID()
	for _, l := range c.literals[1:] {
		if e.occurScore(l.VarID()) < e.occurScore(pivot) {
			pivot = l.VarID()
		}
	}

	changed := false
	for _, candidates := range [2][]ClauseID{e.s.vars.posOccur[pivot], e.s.vars.negOccur[pivot]} {
		for _, did := range append([]ClauseID(nil), candidates...) {
			if did == cid {
				continue
			}
			d := e.s.cdb.Clause(did)
			if d.isDead() {
				continue
			}
			if subsumes(c.literals, d.literals) {
				e.s.cdb.detach(did, e.s.vars)
				changed = true
				continue
			}
			if l, ok := selfSubsumes(c.literals, d.literals); ok {
				e.strengthen(did, l)
				changed = true
			}
		}
	}
	return changed
}

// subsumes reports whether every literal of c appears in d.
func subsumes(c, d []Literal) bool {
	if len(c) > len(d) {
		return false
	}
	for _, l := range c {
		found := false
		for _, m := range d {
			if l == m {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// selfSubsumes reports whether c self-subsumes d: (c \ {l}) ⊂ d and
// ¬l ∈ d for exactly one literal l of c. Returns that l.
func selfSubsumes(c, d []Literal) (Literal, bool) {
	var flipped Literal = LitUndef
	for _, l := range c {
		inD := false
		for _, m := range d {
			if l == m {
				inD = true
				break
			}
		}
		if inD {
			continue
		}
		oppInD := false
		for _, m := range d {
			if l.Opposite() == m {
				oppInD = true
				break
			}
		}
		if !oppInD {
			return LitUndef, false
		}
		if flipped != LitUndef {
			return LitUndef, false // more than one mismatch: not self-subsumption
		}
		flipped = l
	}
	if flipped == LitUndef {
		return LitUndef, false
	}
	return flipped, true
}

// strengthen removes ¬l from clause cid (the self-subsumed literal),
// re-linking watches and occur lists as needed. If the clause becomes
// a unit it is asserted at the root level immediately.
func (e *Eliminator) strengthen(cid ClauseID, l Literal) {
	c := e.s.cdb.Clause(cid)
	drop := l.Opposite()

	wasWatched := len(c.literals) >= 2 && (c.literals[0] == drop || c.literals[1] == drop)
	if c.isOccurLinked() {
		e.s.cdb.unlinkOccur(cid, e.s.vars)
	}

	k := 0
	for _, q := range c.literals {
		if q == drop {
			continue
		}
		c.literals[k] = q
		k++
	}
	c.literals = c.literals[:k]

	e.s.cdb.cert.DeleteClause(append(c.literals, drop))
	e.s.cdb.cert.AddClause(c.literals)

	if len(c.literals) == 1 {
		// The clause was binary, so its watches were on drop and on the
		// remaining literal; detach only unwatches clauses of length >= 2,
		// so both entries are removed here first. The clause is now
		// represented purely by the root assignment.
		e.s.cdb.unwatch(cid, drop.Opposite())
		e.s.cdb.unwatch(cid, c.literals[0].Opposite())
		e.s.cdb.detach(cid, e.s.vars)
		e.s.assignAtRootLevel(c.literals[0])
		return
	}

	e.s.cdb.linkOccur(cid, e.s.vars)
	if wasWatched {
		// The old watched pair was drop and the literal now at index 0.
		e.s.cdb.unwatch(cid, c.literals[0].Opposite())
		e.s.cdb.unwatch(cid, drop.Opposite())
		e.s.cdb.watch(cid, c.literals[0].Opposite(), c.literals[1], len(c.literals) == 2)
		e.s.cdb.watch(cid, c.literals[1].Opposite(), c.literals[0], len(c.literals) == 2)
	}
	if e.varHeap.Contains(drop.VarID()) {
		e.varHeap.Put(drop.VarID(), e.occurScore(drop.VarID()))
	}
	e.clauseQueue.Push(cid)
}

// tryEliminate attempts to eliminate variable v via resolution.
// Returns true if v was eliminated.
func (e *Eliminator) tryEliminate(v int) (bool, error) {
	pos := append([]ClauseID(nil), e.s.vars.posOccur[v]...)
	neg := append([]ClauseID(nil), e.s.vars.negOccur[v]...)

	resolvents := make([][]Literal, 0, len(pos)*len(neg))
	for _, pcid := range pos {
		pc := e.s.cdb.Clause(pcid)
		for _, ncid := range neg {
			nc := e.s.cdb.Clause(ncid)
			r, tautology := resolve(pc.literals, nc.literals, v)
			if tautology {
				continue
			}
			if e.s.cfg.ElimLitLimit > 0 && len(r) > e.s.cfg.ElimLitLimit {
				return false, nil
			}
			resolvents = append(resolvents, r)
		}
	}

	grow := len(resolvents) - (len(pos) + len(neg))
	if grow > e.s.cfg.ElimGrowLimit {
		return false, nil
	}

	// Record the extension frames (the smaller occurrence side is
	// enough: its clauses determine a value for v that, combined with
	// the resolvents replacing the larger side, satisfies everything)
	// before detaching the original clauses. The unit frame pushed after
	// them holds the opposite polarity, v's value unless one of those
	// clauses is left unsatisfied by its other literals.
	side := pos
	chosenLit := PositiveLiteral(v)
	if len(pos) > len(neg) {
		side = neg
		chosenLit = NegativeLiteral(v)
	}
	for _, cid := range side {
		e.pushClauseFrame(e.s.cdb.Clause(cid).literals, chosenLit)
	}
	e.extStack = append(e.extStack, extFrame{isUnit: true, unitVar: v, unitLit: chosenLit.Opposite()})

	for _, cid := range pos {
		e.s.cdb.detach(cid, e.s.vars)
	}
	for _, cid := range neg {
		e.s.cdb.detach(cid, e.s.vars)
	}
	e.s.vars.setFlag(v, flagEliminated)

	for _, r := range resolvents {
		if len(r) == 0 {
			return false, ErrInconsistent
		}
		if len(r) == 1 {
			if err := e.s.assignAtRootLevel(r[0]); err != nil {
				return false, err
			}
			continue
		}
		cid := e.s.cdb.alloc(r, false)
		c := e.s.cdb.Clause(cid)
		e.s.cdb.watch(cid, c.literals[0].Opposite(), c.literals[1], len(c.literals) == 2)
		e.s.cdb.watch(cid, c.literals[1].Opposite(), c.literals[0], len(c.literals) == 2)
		e.s.cdb.linkOccur(cid, e.s.vars)
		e.clauseQueue.Push(cid)
	}

	return true, nil
}

// pushClauseFrame records an eliminated clause on the extension stack,
// with the eliminated variable's literal moved to the front.
func (e *Eliminator) pushClauseFrame(lits []Literal, varLit Literal) {
	frame := make([]Literal, 0, len(lits))
	v := varLit.VarID()
	var own Literal
	for _, l := range lits {
		if l.VarID() == v {
			own = l
			continue
		}
		frame = append(frame, l)
	}
	full := append([]Literal{own}, frame...)
	e.extStack = append(e.extStack, extFrame{lits: full})
}

// resolve computes the resolvent of c and d on variable v (c contains
// v positively, d negatively, or vice versa), returning (nil, true) if
// the resolvent is a tautology.
func resolve(c, d []Literal, v int) ([]Literal, bool) {
	out := make([]Literal, 0, len(c)+len(d)-2)
	seen := map[Literal]bool{}
	for _, l := range c {
		if l.VarID() == v {
			continue
		}
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	for _, l := range d {
		if l.VarID() == v {
			continue
		}
		if seen[l.Opposite()] {
			return nil, true
		}
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out, false
}

// extendModel replays the extension stack in reverse, fixing the value
// of every eliminated variable so that all of its original clauses are
// satisfied. A variable's unit frame, replayed before its clause frames,
// sets its default value; a clause frame whose other literals are all
// not true then sets the variable to that frame's polarity. All clause
// frames of a variable share one polarity, so none undoes another.
func (e *Eliminator) extendModel(model []LBool) {
	for i := len(e.extStack) - 1; i >= 0; i-- {
		f := e.extStack[i]
		if f.isUnit {
			model[f.unitVar] = Lift(f.unitLit.IsPositive())
			continue
		}
		own := f.lits[0]
		satisfied := false
		for _, l := range f.lits[1:] {
			if modelValue(model, l) == True {
				satisfied = true
				break
			}
		}
		if !satisfied {
			model[own.VarID()] = Lift(own.IsPositive())
		}
	}
	for v, val := range model {
		if val == Unknown {
			model[v] = True
		}
	}
}

func modelValue(model []LBool, l Literal) LBool {
	v := model[l.VarID()]
	if v == Unknown {
		return Unknown
	}
	if l.IsPositive() {
		return v
	}
	return v.Opposite()
}
