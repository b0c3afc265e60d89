package sat

import "testing"

// newTestSolver returns a solver with nVars fresh variables already
// allocated.
func newTestSolver(nVars int) (*Solver, []int) {
	s := NewDefaultSolver()
	vars := make([]int, nVars)
	for i := range vars {
		vars[i] = s.AddVariable()
	}
	return s, vars
}

func lit(v int, positive bool) Literal {
	if positive {
		return PositiveLiteral(v)
	}
	return NegativeLiteral(v)
}

// checkWatchesWellFormed asserts invariant 1: for every live clause of
// length >= 2, each of its two watched literals' negation has this
// clause registered in its watcher list.
func checkWatchesWellFormed(t *testing.T, s *Solver) {
	t.Helper()
	for cid := ClauseID(1); int(cid) < len(s.cdb.clauses); cid++ {
		c := &s.cdb.clauses[cid]
		if c.isDead() || len(c.literals) < 2 {
			continue
		}
		for _, w := range []Literal{c.literals[0], c.literals[1]} {
			if !watcherListContains(s, w.Opposite(), cid) {
				t.Errorf("clause %d: watch %s has no matching watcher-list entry", cid, w)
			}
		}
	}
}

func watcherListContains(s *Solver, key Literal, cid ClauseID) bool {
	for _, w := range s.cdb.watchers[key] {
		if w.Clause == cid {
			return true
		}
	}
	return false
}

// checkTrailConsistency asserts invariant 2: every trail entry's
// variable is assigned to match its literal's polarity, at a level not
// exceeding the current decision level.
func checkTrailConsistency(t *testing.T, s *Solver) {
	t.Helper()
	for _, l := range s.trail {
		v := l.VarID()
		want := Lift(l.IsPositive())
		if s.vars.Value(v) != want {
			t.Errorf("trail literal %s: variable assigned %s, want %s", l, s.vars.Value(v), want)
		}
		if s.vars.Level(v) > s.decisionLevel() {
			t.Errorf("trail literal %s: level %d exceeds current level %d", l, s.vars.Level(v), s.decisionLevel())
		}
	}
}

func TestSolve_unitClauseSAT(t *testing.T) {
	s, v := newTestSolver(1)
	if err := s.AddClause([]Literal{lit(v[0], true)}); err != nil {
		t.Fatalf("AddClause: %s", err)
	}

	res, err := s.Solve()
	if err != nil {
		t.Fatalf("Solve: %s", err)
	}
	if res.Status != StatusSAT {
		t.Fatalf("Solve: got %s, want SAT", res.Status)
	}
	if res.Model[v[0]] != True {
		t.Errorf("x%d = %s, want true", v[0], res.Model[v[0]])
	}
	if len(s.trail) != 1 || s.trail[0] != PositiveLiteral(v[0]) {
		t.Errorf("trail = %v, want [x%d]", s.trail, v[0])
	}
}

func TestSolve_twoUnitsUNSAT(t *testing.T) {
	s, v := newTestSolver(1)
	if err := s.AddClause([]Literal{lit(v[0], true)}); err != nil {
		t.Fatalf("AddClause: %s", err)
	}
	if err := s.AddClause([]Literal{lit(v[0], false)}); err != nil {
		// An immediate contradiction is reported synchronously.
		if err != ErrInconsistent {
			t.Fatalf("AddClause: got %s, want ErrInconsistent", err)
		}
		return
	}

	res, err := s.Solve()
	if err != nil {
		t.Fatalf("Solve: %s", err)
	}
	if res.Status != StatusUNSAT {
		t.Fatalf("Solve: got %s, want UNSAT", res.Status)
	}
}

func TestSolve_chainedImplicationSAT(t *testing.T) {
	s, v := newTestSolver(3)
	clauses := [][]Literal{
		{lit(v[0], true), lit(v[1], true)},
		{lit(v[0], false), lit(v[1], true)},
		{lit(v[0], true), lit(v[1], false)},
	}
	for _, c := range clauses {
		if err := s.AddClause(c); err != nil {
			t.Fatalf("AddClause(%v): %s", c, err)
		}
	}

	res, err := s.Solve()
	if err != nil {
		t.Fatalf("Solve: %s", err)
	}
	if res.Status != StatusSAT {
		t.Fatalf("Solve: got %s, want SAT", res.Status)
	}
	if res.Model[v[0]] != True || res.Model[v[1]] != True {
		t.Errorf("model = %v, want x0=true x1=true", res.Model)
	}
	if !satisfies(clauses, res.Model) {
		t.Errorf("model %v does not satisfy input clauses", res.Model)
	}
}

func TestSolve_unsatAfterBCP(t *testing.T) {
	s, v := newTestSolver(3)
	clauses := [][]Literal{
		{lit(v[0], true), lit(v[1], true)},
		{lit(v[0], false), lit(v[1], true)},
		{lit(v[0], true), lit(v[1], false)},
		{lit(v[0], false), lit(v[1], false)},
	}
	for _, c := range clauses {
		if err := s.AddClause(c); err != nil {
			t.Fatalf("AddClause(%v): %s", c, err)
		}
	}

	res, err := s.Solve()
	if err != nil {
		t.Fatalf("Solve: %s", err)
	}
	if res.Status != StatusUNSAT {
		t.Fatalf("Solve: got %s, want UNSAT", res.Status)
	}
}

// TestSolve_invariantsHoldAtRootFixpoint runs a slightly larger instance,
// checks watch/trail invariants at the root-level BCP fixpoint before
// search, then solves and checks that any model satisfies the clauses.
func TestSolve_invariantsHoldAtRootFixpoint(t *testing.T) {
	s, v := newTestSolver(6)
	clauses := [][]Literal{
		{lit(v[0], true), lit(v[1], true), lit(v[2], true)},
		{lit(v[0], false), lit(v[3], true)},
		{lit(v[1], false), lit(v[4], true)},
		{lit(v[2], false), lit(v[5], true)},
		{lit(v[3], false), lit(v[4], false), lit(v[5], false)},
	}
	for _, c := range clauses {
		if err := s.AddClause(c); err != nil {
			t.Fatalf("AddClause(%v): %s", c, err)
		}
	}

	confl := s.propagate()
	checkWatchesWellFormed(t, s)
	checkTrailConsistency(t, s)
	if confl != NullClauseID {
		t.Fatalf("unexpected initial conflict")
	}

	res, err := s.Solve()
	if err != nil {
		t.Fatalf("Solve: %s", err)
	}
	if res.Status == StatusSAT && !satisfies(clauses, res.Model) {
		t.Errorf("model %v does not satisfy input clauses", res.Model)
	}
}

// TestPropagate_isIdempotentAtFixpoint checks the round-trip law: a
// second call to propagate after reaching a fixpoint returns no
// conflict and does not move qHead further in a way that finds new
// work.
func TestPropagate_isIdempotentAtFixpoint(t *testing.T) {
	s, v := newTestSolver(2)
	if err := s.AddClause([]Literal{lit(v[0], true), lit(v[1], true)}); err != nil {
		t.Fatalf("AddClause: %s", err)
	}
	s.assignByDecision(lit(v[0], false))
	if c := s.propagate(); c != NullClauseID {
		t.Fatalf("propagate: unexpected conflict")
	}
	head := s.qHead
	if c := s.propagate(); c != NullClauseID {
		t.Fatalf("second propagate: unexpected conflict")
	}
	if s.qHead != head {
		t.Errorf("second propagate advanced qHead from %d to %d", head, s.qHead)
	}
}

// TestCancelUntil_restoresUnassigned checks that decisions above the
// target level are unassigned after cancelUntil.
func TestCancelUntil_restoresUnassigned(t *testing.T) {
	s, v := newTestSolver(2)
	s.assignByDecision(lit(v[0], true))
	s.assignByDecision(lit(v[1], true))

	if s.vars.Value(v[1]) != True {
		t.Fatalf("precondition: x%d should be assigned", v[1])
	}

	s.cancelUntil(1)

	if s.vars.Value(v[1]) != Unknown {
		t.Errorf("x%d = %s after cancelUntil(1), want Unknown", v[1], s.vars.Value(v[1]))
	}
	if s.vars.Value(v[0]) != True {
		t.Errorf("x%d = %s after cancelUntil(1), want True (still decided)", v[0], s.vars.Value(v[0]))
	}
	if s.decisionLevel() != 1 {
		t.Errorf("decisionLevel = %d, want 1", s.decisionLevel())
	}
}

func satisfies(clauses [][]Literal, model []LBool) bool {
	for _, c := range clauses {
		ok := false
		for _, l := range c {
			v := model[l.VarID()]
			if (l.IsPositive() && v == True) || (!l.IsPositive() && v == False) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}
