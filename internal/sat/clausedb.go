package sat

import "sort"

// Watch is an entry in a per-literal watcher list: it names a clause
// that must be re-examined when the watched literal (implicit: the
// negation of the key of the list it lives in) becomes false, plus a cached Blocker literal
// that lets BCP skip loading the clause when the blocker is already
// true.
type Watch struct {
	Blocker Literal
	Clause  ClauseID
	Binary  bool
}

// Certifier receives the DRAT event stream the ClauseDB produces:
// clause additions (input clauses added through AddClause, learnt
// clauses, elimination resolvents, strengthened clauses) and
// deletions (clause-DB reduction, elimination, strengthening). The core
// only depends on this interface; concrete DRAT file emission lives in
// the sibling drat package.
type Certifier interface {
	AddClause(lits []Literal)
	DeleteClause(lits []Literal)
}

// noopCertifier discards the event stream; used when certification is
// disabled so the hot path pays no cost.
type noopCertifier struct{}

func (noopCertifier) AddClause([]Literal)    {}
func (noopCertifier) DeleteClause([]Literal) {}

// ClauseDB owns clause storage, per-literal watcher lists, and
// activity-based reduction. Clause IDs are stable for the lifetime of a
// clause: clauses are never relocated, only logically deleted (flagged
// dead) and later physically reclaimed via a free list.
type ClauseDB struct {
	clauses []Clause
	free    []ClauseID

	watchers [][]Watch // indexed by literal code

	clauseInc   float64
	clauseDecay float64

	nLearnts     int
	nConstraints int

	nextReduction int
	incReduce     int

	cert Certifier
}

// NewClauseDB returns an empty ClauseDB with no watcher lists; growLits
// sizes them as variables are added. A nil cert selects the no-op sink.
func NewClauseDB(decay float64, cert Certifier) *ClauseDB {
	if cert == nil {
		cert = noopCertifier{}
	}
	cdb := &ClauseDB{
		clauseInc:     1,
		clauseDecay:   decay,
		incReduce:     300,
		nextReduction: 2000,
		cert:          cert,
	}
	// Index 0 is the permanently-dead sentinel clause.
	cdb.clauses = append(cdb.clauses, Clause{flags: clauseDead})
	return cdb
}

// growLits ensures the watcher table can index literal codes up to
// 2*nVars-1.
func (cdb *ClauseDB) growLits(nVars int) {
	for len(cdb.watchers) < 2*nVars {
		cdb.watchers = append(cdb.watchers, nil)
	}
}

// Clause returns a pointer to the clause with the given ID. The pointer
// is invalidated by any call that may grow cdb.clauses (alloc).
func (cdb *ClauseDB) Clause(cid ClauseID) *Clause {
	return &cdb.clauses[cid]
}

// alloc reserves storage for a new clause with the given literals and
// returns its ID. It does not register watches; the caller does that
// once the two watched literals are chosen.
func (cdb *ClauseDB) alloc(lits []Literal, learnt bool) ClauseID {
	litStore := allocLits(len(lits))
	litStore = append(litStore, lits...)

	c := Clause{
		literals:   litStore,
		searchFrom: 2,
	}
	if learnt {
		c.flags |= clauseLearnt
	}

	var cid ClauseID
	if n := len(cdb.free); n > 0 {
		cid = cdb.free[n-1]
		cdb.free = cdb.free[:n-1]
		cdb.clauses[cid] = c
	} else {
		cid = ClauseID(len(cdb.clauses))
		cdb.clauses = append(cdb.clauses, c)
	}

	if learnt {
		cdb.nLearnts++
	} else {
		cdb.nConstraints++
	}
	cdb.cert.AddClause(lits)
	return cid
}

// watch registers clause cid to be woken up when literal watch becomes
// true: the entry is stored in watchers[watch], so it is found when
// trail.go's BCP loop scans that list on watch's assignment.
func (cdb *ClauseDB) watch(cid ClauseID, watch Literal, blocker Literal, binary bool) {
	cdb.watchers[watch] = append(cdb.watchers[watch], Watch{Blocker: blocker, Clause: cid, Binary: binary})
}

// unwatch removes clause cid from the watcher list of literal watch.
func (cdb *ClauseDB) unwatch(cid ClauseID, watch Literal) {
	ws := cdb.watchers[watch]
	for i, w := range ws {
		if w.Clause == cid {
			ws[i] = ws[len(ws)-1]
			cdb.watchers[watch] = ws[:len(ws)-1]
			return
		}
	}
}

// detach marks a clause dead and removes it from both its watcher
// lists. Physical reclamation is deferred to garbageCollect.
func (cdb *ClauseDB) detach(cid ClauseID, vd *VarDB) {
	c := &cdb.clauses[cid]
	if c.isDead() {
		return
	}
	c.flags |= clauseDead
	if len(c.literals) >= 2 {
		cdb.unwatch(cid, c.literals[0].Opposite())
		cdb.unwatch(cid, c.literals[1].Opposite())
	}
	if c.isOccurLinked() {
		cdb.unlinkOccur(cid, vd)
	}
	if c.isLearnt() {
		cdb.nLearnts--
	} else {
		cdb.nConstraints--
	}
	cdb.cert.DeleteClause(c.literals)
}

func (cdb *ClauseDB) unlinkOccur(cid ClauseID, vd *VarDB) {
	c := &cdb.clauses[cid]
	for _, l := range c.literals {
		v := l.VarID()
		var list *[]ClauseID
		if l.IsPositive() {
			list = &vd.posOccur[v]
		} else {
			list = &vd.negOccur[v]
		}
		for i, id := range *list {
			if id == cid {
				(*list)[i] = (*list)[len(*list)-1]
				*list = (*list)[:len(*list)-1]
				break
			}
		}
	}
	c.flags &^= clauseOccurLinked
}

// linkOccur registers clause cid in the occur lists of every variable
// it mentions. Used by the eliminator while Running.
func (cdb *ClauseDB) linkOccur(cid ClauseID, vd *VarDB) {
	c := &cdb.clauses[cid]
	if c.isOccurLinked() {
		return
	}
	for _, l := range c.literals {
		vd.linkOccur(l, cid)
	}
	c.flags |= clauseOccurLinked
}

// garbageCollect reclaims storage for every dead clause whose literal
// slice has not yet been freed, returning their backing arrays to the
// allocator pool and adding their IDs to the free list.
func (cdb *ClauseDB) garbageCollect() {
	for cid := ClauseID(1); int(cid) < len(cdb.clauses); cid++ {
		c := &cdb.clauses[cid]
		if c.isDead() && c.literals != nil {
			freeLits(c.literals)
			c.literals = nil
			cdb.free = append(cdb.free, cid)
		}
	}
}

// locked reports whether clause cid is the reason the current value of
// its first literal's variable was assigned; locked clauses must never
// be deleted by reduce.
func (cdb *ClauseDB) locked(cid ClauseID, vd *VarDB) bool {
	c := &cdb.clauses[cid]
	if len(c.literals) == 0 {
		return false
	}
	v := c.literals[0].VarID()
	return vd.Value(v) != Unknown && vd.reasons[v].Clause == cid
}

// bumpActivity increases clause cid's activity; once that activity
// exceeds 1e20, every clause's activity and the increment are rescaled
// by 1e-20.
func (cdb *ClauseDB) bumpActivity(cid ClauseID) {
	c := &cdb.clauses[cid]
	c.activity += cdb.clauseInc
	if c.activity > 1e20 {
		for i := range cdb.clauses {
			cdb.clauses[i].activity *= 1e-20
		}
		cdb.clauseInc *= 1e-20
	}
}

// decayActivity grows the activity increment, equivalent to decaying
// every clause's activity without touching each one.
func (cdb *ClauseDB) decayActivity() {
	cdb.clauseInc /= cdb.clauseDecay
}

// reduce purges roughly half of the removable learnt clauses: those not
// locked, with LBD > 2, and not used in conflict analysis since the
// previous reduction (the just-used mark is cleared on every learnt
// clause here), ordered by LBD ascending then activity descending
// (i.e. the worst half by that order is removed).
func (cdb *ClauseDB) reduce(vd *VarDB, learnts []ClauseID) []ClauseID {
	type scored struct {
		id  ClauseID
		lbd int
		act float64
	}
	removable := make([]scored, 0, len(learnts))
	keep := learnts[:0]

	for _, cid := range learnts {
		c := &cdb.clauses[cid]
		if c.isDead() {
			continue
		}
		wasJustUsed := c.isJustUsed()
		c.clearJustUsed()
		if cdb.locked(cid, vd) || c.lbd <= 2 || wasJustUsed {
			keep = append(keep, cid)
			continue
		}
		removable = append(removable, scored{id: cid, lbd: c.lbd, act: c.activity})
	}

	sort.Slice(removable, func(i, j int) bool {
		if removable[i].lbd != removable[j].lbd {
			return removable[i].lbd < removable[j].lbd
		}
		return removable[i].act > removable[j].act
	})

	half := len(removable) / 2
	for i, r := range removable {
		if i < half {
			keep = append(keep, r.id)
		} else {
			cdb.detach(r.id, vd)
		}
	}

	cdb.nextReduction += cdb.incReduce
	cdb.incReduce += 50
	return keep
}

// NumLearnts returns the number of live learnt clauses.
func (cdb *ClauseDB) NumLearnts() int { return cdb.nLearnts }

// NumConstraints returns the number of live input (non-learnt) clauses.
func (cdb *ClauseDB) NumConstraints() int { return cdb.nConstraints }
