package sat

// ConflictAnalyzer derives a First-UIP learnt clause from a conflicting
// clause, minimizes it, computes its LBD, and decides the backjump
// level. It owns scratch state (seen set, analysis stack, the learnt
// literal buffer) so repeated conflicts don't reallocate.
type ConflictAnalyzer struct {
	seen ResetSet

	learnt  []Literal
	toClear []int // variable IDs marked seen this analysis

	levelSeen ResetSet // which decision levels appear in the learnt clause (for LBD)

	minStack []int // scratch for the minimization DFS
}

// NewConflictAnalyzer returns an analyzer for a problem with nVars
// variables. levelSeen is sized for decision levels, which never exceed
// the variable count.
func NewConflictAnalyzer(nVars int) *ConflictAnalyzer {
	ca := &ConflictAnalyzer{}
	for i := 0; i < nVars+1; i++ {
		ca.seen.Expand()
		ca.levelSeen.Expand()
	}
	return ca
}

// AddVar grows the analyzer's scratch state for a newly added variable.
func (ca *ConflictAnalyzer) AddVar() {
	ca.seen.Expand()
	ca.levelSeen.Expand()
}

// analyzeResult is the outcome of deriving a learnt clause from a
// conflict: the clause itself (first literal is the asserting/UIP
// literal), its LBD, and the level to backjump to.
type analyzeResult struct {
	learnt      []Literal
	lbd         int
	backjumpLvl int
}

// chronoBTShortcut checks for the cheap special case where the
// conflicting clause carries exactly one literal at the current
// decision level: rather than deriving and learning a clause, cancel
// back to just below the clause's second-highest level and decide
// that one literal the other way. Reports ok=false when the shortcut
// does not apply, in which case the caller falls through to the full
// analyze/learn path.
//
// Grounded on original_source/src/solver/conflict.rs's lcnt==1 case.
func (s *Solver) chronoBTShortcut(confl ClauseID) (decision Literal, target int, ok bool) {
	if s.cfg.ChronoBT < 0 {
		return LitUndef, 0, false
	}

	origLevel := s.decisionLevel()
	c := s.cdb.Clause(confl)

	lcnt := 0
	sndLvl := 0
	for _, l := range c.literals {
		lv := s.vars.Level(l.VarID())
		if lv == origLevel {
			lcnt++
			decision = l
		} else if lv > sndLvl {
			sndLvl = lv
		}
	}
	if lcnt != 1 || sndLvl == 0 {
		return LitUndef, 0, false
	}
	return decision, sndLvl - 1, true
}

// analyze walks the implication graph backward from the conflicting
// clause to the first unique implication point at the conflict's
// decision level, producing an asserting clause: one literal at the
// conflict level (the UIP) and the rest at strictly lower levels.
//
// Grounded on the classic MiniSat/Glucose analyze routine: repeatedly
// resolve the growing conflict side against the reason of the most
// recently assigned seen variable until exactly one seen variable
// remains at the conflict level.
func (s *Solver) analyze(confl ClauseID) analyzeResult {
	ca := s.analyzer
	ca.seen.Clear()
	ca.toClear = ca.toClear[:0]
	ca.learnt = ca.learnt[:0]

	confLevel := s.decisionLevel()
	pending := 0  // number of seen vars at confLevel not yet resolved
	trailIdx := len(s.trail) - 1
	var p Literal = LitUndef

	c := s.cdb.Clause(confl)
	antecedents := c.explain(nil, LitUndef)
	s.cdb.bumpActivity(confl)
	s.bumpClauseVars(c)

	for {
		for _, q := range antecedents {
			v := q.VarID()
			if ca.seen.Contains(v) || s.vars.Value(v) == Unknown {
				continue
			}
			ca.seen.Add(v)
			ca.toClear = append(ca.toClear, v)
			s.order.BumpActivity(v)
			if s.vars.Level(v) >= confLevel {
				pending++
			} else {
				ca.learnt = append(ca.learnt, q)
			}
		}

		// Find the next seen variable on the trail, walking backward.
		for !ca.seen.Contains(s.trail[trailIdx].VarID()) {
			trailIdx--
		}
		p = s.trail[trailIdx]
		v := p.VarID()
		trailIdx--
		pending--

		if pending == 0 {
			break
		}

		r := s.vars.Reason(v)
		antecedents = s.explainReason(r, p)
	}

	// p is the UIP: its negation is the asserting literal.
	ca.learnt = append(ca.learnt, LitUndef)
	copy(ca.learnt[1:], ca.learnt[:len(ca.learnt)-1])
	ca.learnt[0] = p.Opposite()

	ca.learnt = s.minimize(ca.learnt)
	lbd := s.computeLBD(ca.learnt)

	backjump := s.pickBackjumpLevel(ca.learnt, confLevel)

	out := make([]Literal, len(ca.learnt))
	copy(out, ca.learnt)
	return analyzeResult{learnt: out, lbd: lbd, backjumpLvl: backjump}
}

// explainReason returns the antecedents of assigning lit via reason r,
// in negated form (each returned literal is currently false).
func (s *Solver) explainReason(r reason, lit Literal) []Literal {
	if r.Lit != LitUndef {
		return []Literal{r.Lit}
	}
	c := s.cdb.Clause(r.Clause)
	s.cdb.bumpActivity(r.Clause)
	s.bumpClauseVars(c)
	return c.explain(nil, lit)
}

func (s *Solver) bumpClauseVars(c *Clause) {
	if c.isLearnt() {
		c.setJustUsed()
	}
}

// pickBackjumpLevel chooses the level to cancel back to. Under NCB
// (non-chronological backjump) this is always the second-highest level
// among the learnt clause's literals (0 if the clause is a unit),
// swapped into learnt[1] so the asserting literal's implied level
// (computed from literals[1:] by impliedLevel) comes out right either
// way.
//
// Under chronoBT, the backjump instead stops at confLevel-1, a weaker
// jump that's cheaper to re-propagate from. Whether to take it follows
// original_source/src/solver/conflict.rs: chronoBT is used when the
// second-highest level is 0, or the level gap reaches the configured
// threshold, or the first-UIP variable is less active than the
// decision variable at the second-highest level. Otherwise the jump
// stays non-chronological.
func (s *Solver) pickBackjumpLevel(learnt []Literal, confLevel int) int {
	if len(learnt) == 1 {
		return 0
	}
	maxI, maxLvl := 1, s.vars.Level(learnt[1].VarID())
	for i := 2; i < len(learnt); i++ {
		lv := s.vars.Level(learnt[i].VarID())
		if lv > maxLvl {
			maxLvl = lv
			maxI = i
		}
	}
	learnt[1], learnt[maxI] = learnt[maxI], learnt[1]

	if s.cfg.ChronoBT < 0 {
		return maxLvl
	}

	useChronoBT := maxLvl == 0 ||
		confLevel-maxLvl >= s.cfg.ChronoBT ||
		s.order.Activity(learnt[0].VarID()) < s.order.Activity(s.decisionVarAt(maxLvl))
	if !useChronoBT {
		return maxLvl
	}
	return confLevel - 1
}

// minimize removes literals from the learnt clause that are redundant:
// a literal l can be dropped if every chain of reasons from it
// (followed transitively) ends in a variable of the learnt clause or
// one assigned at level 0. The check is a DFS over the reason graph
// per literal (litRedundant).
func (s *Solver) minimize(learnt []Literal) []Literal {
	out := learnt[:1]
	for _, l := range learnt[1:] {
		if s.litRedundant(l) {
			continue
		}
		out = append(out, l)
	}
	return out
}

// litRedundant reports whether l's assignment is implied entirely by
// other literals already in the seen set, via a DFS over the reason
// chain. Variables the DFS marks seen stay marked only when it
// succeeds; on failure their marks are removed again.
func (s *Solver) litRedundant(l Literal) bool {
	ca := s.analyzer
	ca.minStack = ca.minStack[:0]
	ca.minStack = append(ca.minStack, int(l.VarID()))
	base := len(ca.toClear)
	fail := func() bool {
		for _, u := range ca.toClear[base:] {
			ca.seen.addedAt[u] = ca.seen.addedTimestamp - 1
		}
		ca.toClear = ca.toClear[:base]
		return false
	}

	for len(ca.minStack) > 0 {
		v := ca.minStack[len(ca.minStack)-1]
		ca.minStack = ca.minStack[:len(ca.minStack)-1]

		r := s.vars.Reason(v)
		if r.Clause == NullClauseID {
			return fail()
		}

		var antecedents []Literal
		lit := PositiveLiteral(v)
		if s.vars.Value(v) == False {
			lit = NegativeLiteral(v)
		}
		if r.Lit != LitUndef {
			antecedents = []Literal{r.Lit}
		} else {
			antecedents = s.cdb.Clause(r.Clause).explain(nil, lit)
		}

		for _, q := range antecedents {
			qv := q.VarID()
			if qv == v || ca.seen.Contains(qv) {
				continue
			}
			if s.vars.Level(qv) == 0 {
				continue
			}
			if s.vars.Reason(qv).Clause == NullClauseID {
				return fail()
			}
			ca.seen.Add(qv)
			ca.toClear = append(ca.toClear, qv)
			ca.minStack = append(ca.minStack, qv)
		}
	}
	return true
}

// computeLBD returns the number of distinct decision levels represented
// in the learnt clause, the Glucose quality metric used by reduction
// and by the restart trend signal.
func (s *Solver) computeLBD(lits []Literal) int {
	ca := s.analyzer
	ca.levelSeen.Clear()
	n := 0
	for _, l := range lits {
		lv := s.vars.Level(l.VarID())
		if !ca.levelSeen.Contains(lv) {
			ca.levelSeen.Add(lv)
			n++
		}
	}
	return n
}
