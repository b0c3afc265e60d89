package sat

import "strings"

// Clause holds a disjunction of literals plus the bookkeeping needed by
// BCP, conflict analysis, and reduction. Positions 0 and 1 are always
// the two watched literals for clauses of length >= 2 (data model
// invariant 3).
type Clause struct {
	literals []Literal
	activity float64
	lbd      int
	flags    clauseFlag

	// searchFrom caches the index just past the last literal examined
	// by propagate's scan for a new watch, so the next call resumes
	// there instead of restarting at 2 every time.
	searchFrom int
}

func (c *Clause) isDead() bool       { return c.flags&clauseDead != 0 }
func (c *Clause) isLearnt() bool     { return c.flags&clauseLearnt != 0 }
func (c *Clause) isJustUsed() bool   { return c.flags&clauseJustUsed != 0 }
func (c *Clause) isOccurLinked() bool { return c.flags&clauseOccurLinked != 0 }

func (c *Clause) setJustUsed()   { c.flags |= clauseJustUsed }
func (c *Clause) clearJustUsed() { c.flags &^= clauseJustUsed }

// Literals returns the clause's current literals. The returned slice
// must not be retained past the next call that might mutate the clause.
func (c *Clause) Literals() []Literal { return c.literals }

// Len returns the number of literals currently in the clause.
func (c *Clause) Len() int { return len(c.literals) }

// LBD returns the clause's cached literal block distance.
func (c *Clause) LBD() int { return c.lbd }

func (c *Clause) String() string {
	if len(c.literals) == 0 {
		return "Clause[]"
	}
	sb := strings.Builder{}
	sb.WriteString("Clause[")
	sb.WriteString(c.literals[0].String())
	for _, l := range c.literals[1:] {
		sb.WriteByte(' ')
		sb.WriteString(l.String())
	}
	sb.WriteByte(']')
	return sb.String()
}

// propagate is invoked when the watched literal keyed by p (i.e. ¬p) has
// just become false because p was assigned true. It restores the
// invariant that literals[0]/literals[1] are the watched pair, possibly
// picking a new watch elsewhere in the clause. It never touches the
// ClauseDB's watcher lists itself: the caller (Solver.propagateLiteral
// in trail.go) owns list compaction, since only it knows which list is
// currently being iterated.
//
// Return values:
//   - ok=false: the clause is now a conflict.
//   - ok=true, moved=false: the clause still watches ¬p; the caller
//     keeps the existing watcher-list entry, refreshing its blocker.
//   - ok=true, moved=true: the clause now watches ¬newWatch instead;
//     the caller removes the p-list entry and adds one under newWatch.
//
// If no alternative watch exists, literals[0] is the sole remaining
// unassigned literal and is enqueued as an implication (ok=false if
// that assignment conflicts with an existing one).
//
// Returns its outcome rather than mutating watcher state directly, and
// uses a cached searchFrom position to resume scanning where the
// previous call left off instead of restarting at index 2 every time.
func (c *Clause) propagate(s *Solver, cid ClauseID, p Literal) (newWatch Literal, moved bool, ok bool) {
	opp := p.Opposite()
	if c.literals[0] == opp {
		c.literals[0] = c.literals[1]
		c.literals[1] = opp
	}

	if s.vars.LitValue(c.literals[0]) == True {
		return LitUndef, false, true
	}

	if c.searchFrom < 2 || c.searchFrom >= len(c.literals) {
		c.searchFrom = 2
	}

	n := len(c.literals)
	for i := 0; i < n-2; i++ {
		idx := c.searchFrom
		c.searchFrom++
		if c.searchFrom >= n {
			c.searchFrom = 2
		}
		if s.vars.LitValue(c.literals[idx]) != False {
			c.literals[1], c.literals[idx] = c.literals[idx], c.literals[1]
			return c.literals[1].Opposite(), true, true
		}
	}

	// All other literals are false: literals[0] must become true, or
	// the clause is a conflict.
	return LitUndef, false, s.enqueueImplied(c.literals[0], reason{Clause: cid, Lit: binaryReasonLit(c)})
}

// binaryReasonLit returns the cached second literal for a binary-clause
// reason, or LitUndef for longer clauses.
func binaryReasonLit(c *Clause) Literal {
	if len(c.literals) == 2 {
		return c.literals[1]
	}
	return LitUndef
}

// simplify drops every literal of c that is false at the root level and
// reports whether the clause is now satisfied (in which case the caller
// should detach it). Only meaningful at decision level 0.
func (c *Clause) simplify(vd *VarDB) bool {
	k := 0
	for _, l := range c.literals {
		switch vd.LitValue(l) {
		case True:
			return true
		case False:
			// drop
		default:
			c.literals[k] = l
			k++
		}
	}
	c.literals = c.literals[:k]
	return false
}

// explain appends the antecedents of l (or, if l == LitUndef, of the
// conflict itself) to dst: the clause's literals other than l (all of
// them for a conflict), as used by resolution. Every literal returned
// is false in the current assignment. It returns the extended slice.
func (c *Clause) explain(dst []Literal, l Literal) []Literal {
	if l == LitUndef {
		for _, q := range c.literals {
			dst = append(dst, q)
		}
		return dst
	}
	for _, q := range c.literals[1:] {
		dst = append(dst, q)
	}
	return dst
}
