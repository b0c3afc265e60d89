package sat

import (
	"fmt"
	"time"
)

// Config enumerates every user-tunable knob of the solver. A zero
// Config is not a usable configuration (a zero VarDecay or ClauseDecay
// divides the activity increments by zero); use DefaultConfig to get a
// fully populated struct.
type Config struct {
	ClauseLimit int // soft cap on learnt clause count; 0 = auto (unbounded, reduce decides)

	ElimGrowLimit int // max permitted increase in #clauses from eliminating one variable (0 permits no growth at all)
	ElimLitLimit  int // max literal count of a resolvent considered during elimination

	RestartASGLen    int     // EMA window for trail-length trend
	RestartLBDLen    int     // EMA window for LBD trend
	RestartBlockingR float64 // blocking-restart multiplier
	RestartThreshold float64 // forcing-restart multiplier
	RestartStep      int     // minimum conflicts between restarts
	UseLubyRestart   bool

	ChronoBT         int  // level-gap threshold at or above which chronoBT kicks in; <0 disables chronoBT entirely
	UseCertification bool // records that DRAT output is wanted; the solver does not read it: records go only to a Certifier installed with SetCertifier

	WithoutElim             bool
	WithoutReduce           bool
	WithoutAdaptiveStrategy bool

	Timeout time.Duration // 0 = no timeout

	VarDecay   float64
	ClauseDecay float64
}

// DefaultConfig returns Glucose-style defaults.
func DefaultConfig() Config {
	return Config{
		ElimGrowLimit:     4,
		ElimLitLimit:      20,
		RestartASGLen:     5000,
		RestartLBDLen:     50,
		RestartBlockingR:  1.4,
		RestartThreshold:  0.8,
		RestartStep:       50,
		ChronoBT:          100,
		VarDecay:          0.95,
		ClauseDecay:       0.999,
	}
}

// Status is the outcome of a solve.
type Status int

const (
	StatusUnknown Status = iota
	StatusSAT
	StatusUNSAT
)

func (s Status) String() string {
	switch s {
	case StatusSAT:
		return "SATISFIABLE"
	case StatusUNSAT:
		return "UNSATISFIABLE"
	default:
		return "UNKNOWN"
	}
}

// Result is returned by Solve.
type Result struct {
	Status Status
	Model  []LBool // indexed by variable ID, valid only if Status == StatusSAT
}

// Solver composes every core component and runs the main CDCL loop.
type Solver struct {
	cfg Config

	vars *VarDB
	cdb  *ClauseDB
	order *VarSelector
	restarter *Restarter
	eliminator *Eliminator
	analyzer *ConflictAnalyzer

	trail    []Literal
	trailLim []int
	qHead    int

	learnts []ClauseID

	conflicts   int
	decisions   int
	propagations int

	deadline time.Time
	hasDeadline bool
}

// NewSolver returns an empty Solver configured with cfg.
func NewSolver(cfg Config) *Solver {
	// Certification defaults to the no-op sink; callers that set
	// UseCertification wire a real drat.Writer via SetCertifier before
	// adding any clause.
	s := &Solver{
		cfg:       cfg,
		vars:      NewVarDB(),
		cdb:       NewClauseDB(cfg.ClauseDecay, nil),
		order:     NewVarSelector(cfg.VarDecay),
		restarter: NewRestarter(cfg.RestartASGLen, cfg.RestartLBDLen, cfg.RestartBlockingR, cfg.RestartThreshold, cfg.RestartStep, cfg.UseLubyRestart),
		analyzer:  NewConflictAnalyzer(0),
	}
	s.eliminator = NewEliminator(s)
	if cfg.Timeout > 0 {
		s.hasDeadline = true
		s.deadline = time.Now().Add(cfg.Timeout)
	}
	return s
}

// NewDefaultSolver returns a Solver with Glucose-style defaults.
func NewDefaultSolver() *Solver {
	return NewSolver(DefaultConfig())
}

// SetCertifier installs a DRAT event sink. Must be called before any
// clause is added if certification is to cover the whole run.
func (s *Solver) SetCertifier(c Certifier) {
	s.cdb.cert = c
}

// AddVariable allocates a fresh variable and returns its ID.
func (s *Solver) AddVariable() int {
	v := s.vars.AddVar()
	s.order.AddVar()
	s.analyzer.AddVar()
	s.eliminator.addVar()
	s.cdb.growLits(s.vars.NumVars())
	return v
}

// AddClause adds an input clause over the given literals. It performs
// root-level simplification (dropping duplicate/false literals,
// detecting tautologies) immediately. Returns ErrInconsistent if the
// clause is already falsified at the root level (an immediate
// contradiction), in which case the solver is permanently UNSAT.
func (s *Solver) AddClause(lits []Literal) error {
	s.cancelUntil(0)
	buf := append([]Literal(nil), lits...)
	buf = dedupeSortLiterals(buf)
	if buf == nil && len(lits) > 0 {
		return nil // tautology: always satisfied, nothing to add
	}

	k := 0
	for _, l := range buf {
		switch s.vars.LitValue(l) {
		case True:
			return nil // satisfied at the root, nothing to add
		case False:
			continue // drop
		default:
			buf[k] = l
			k++
		}
	}
	buf = buf[:k]

	if len(buf) == 0 {
		return ErrInconsistent
	}
	if len(buf) == 1 {
		return s.assignAtRootLevel(buf[0])
	}

	cid := s.cdb.alloc(buf, false)
	c := s.cdb.Clause(cid)
	s.cdb.watch(cid, c.literals[0].Opposite(), c.literals[1], len(c.literals) == 2)
	s.cdb.watch(cid, c.literals[1].Opposite(), c.literals[0], len(c.literals) == 2)
	return nil
}

// dedupeSortLiterals sorts literals by variable and removes duplicates;
// detects tautologies by returning nil if both polarities of a variable
// are present.
func dedupeSortLiterals(lits []Literal) []Literal {
	for i := 1; i < len(lits); i++ {
		for j := i; j > 0 && lits[j-1].VarID() > lits[j].VarID(); j-- {
			lits[j-1], lits[j] = lits[j], lits[j-1]
		}
	}
	k := 0
	for i, l := range lits {
		if i > 0 && l.VarID() == lits[i-1].VarID() {
			if l != lits[i-1] {
				return nil // tautology: v and ¬v both present
			}
			continue
		}
		lits[k] = l
		k++
	}
	return lits[:k]
}

// reductionDue reports whether the learnt clause count has crossed the
// next scheduled reduction threshold, or reached Config.ClauseLimit
// when that is positive.
func (s *Solver) reductionDue() bool {
	if s.cfg.WithoutReduce {
		return false
	}
	if s.cfg.ClauseLimit > 0 && s.cdb.NumLearnts() >= s.cfg.ClauseLimit {
		return true
	}
	return s.cdb.NumLearnts() >= s.cdb.nextReduction
}

// simplifyDue reports whether inprocessing elimination should run
// again, following a fixed conflict-count cadence.
func (s *Solver) simplifyDue() bool {
	if s.cfg.WithoutElim {
		return false
	}
	return s.decisionLevel() == 0 && s.eliminator.due(s.conflicts)
}

// checkDeadline reports a TimeOut if the configured deadline has
// passed. Checked once per conflict and once per restart decision, per
// the cooperative cancellation contract.
func (s *Solver) checkDeadline() bool {
	return s.hasDeadline && !time.Now().Before(s.deadline)
}

// Solve runs the CDCL main loop to completion (or until the deadline
// expires), returning the result.
func (s *Solver) Solve() (Result, error) {
	if err := s.propagateInitial(); err != nil {
		return Result{Status: StatusUNSAT}, nil
	}

	if !s.cfg.WithoutElim {
		if err := s.eliminator.run(); err != nil {
			if err == ErrInconsistent {
				return Result{Status: StatusUNSAT}, nil
			}
			return Result{}, err
		}
	}

	for {
		if s.checkDeadline() {
			return Result{}, ErrTimeOut
		}

		confl := s.propagate()

		if confl != NullClauseID {
			s.conflicts++
			if s.decisionLevel() == 0 {
				return Result{Status: StatusUNSAT}, nil
			}
			if err := s.handleConflict(confl); err != nil {
				if err == ErrNullLearnt {
					return Result{Status: StatusUNSAT}, nil
				}
				return Result{}, err
			}
			continue
		}
		s.order.NoteTrailLength(s.vars, len(s.trail))

		if s.restarter.BlockRestart() {
			continue
		}
		if s.restarter.ForceRestart() {
			s.cancelUntil(0)
			continue
		}
		if s.reductionDue() {
			s.learnts = s.cdb.reduce(s.vars, s.learnts)
			s.order.AdvanceStage()
		}
		if s.simplifyDue() {
			if err := s.eliminator.run(); err != nil {
				if err == ErrInconsistent {
					return Result{Status: StatusUNSAT}, nil
				}
				return Result{}, err
			}
		}

		l := s.order.SelectDecisionLiteral(s.vars)
		if l == LitUndef {
			return Result{Status: StatusSAT, Model: s.extractModel()}, nil
		}
		s.decisions++
		s.assignByDecision(l)
	}
}

// propagateInitial runs BCP once before search starts, catching any
// root-level contradiction present in the input clauses themselves.
func (s *Solver) propagateInitial() error {
	if c := s.propagate(); c != NullClauseID {
		return ErrInconsistent
	}
	return nil
}

// handleConflict analyzes a conflict, records the learnt clause,
// backjumps, and feeds the restart and variable-order signals. When
// the conflicting clause carries exactly one literal at the current
// level, it takes a cheaper shortcut instead: cancel to just below the
// clause's second-highest level and decide that literal the other way,
// skipping clause learning entirely.
func (s *Solver) handleConflict(confl ClauseID) error {
	if decision, target, ok := s.chronoBTShortcut(confl); ok {
		s.cancelUntil(target)
		s.assignByDecision(decision)
		return nil
	}

	res := s.analyze(confl)
	if len(res.learnt) == 0 {
		return ErrNullLearnt
	}

	s.restarter.UpdateASG(len(s.trail))
	s.restarter.UpdateLBD(res.lbd)
	s.order.DecayActivity()
	s.cdb.decayActivity()

	s.cancelUntil(res.backjumpLvl)

	if len(res.learnt) == 1 {
		return s.assignAtRootLevel(res.learnt[0])
	}

	cid := s.cdb.alloc(res.learnt, true)
	c := s.cdb.Clause(cid)
	c.lbd = res.lbd
	c.activity = 0
	s.cdb.bumpActivity(cid)
	s.learnts = append(s.learnts, cid)

	s.cdb.watch(cid, c.literals[0].Opposite(), c.literals[1], len(c.literals) == 2)
	s.cdb.watch(cid, c.literals[1].Opposite(), c.literals[0], len(c.literals) == 2)

	return s.enqueueImpliedOrFail(c.literals[0], reason{Clause: cid, Lit: binaryReasonLit(c)})
}

// enqueueImpliedOrFail enqueues the asserting literal of a freshly
// learnt clause. A failure here would mean the backjump level was
// computed incorrectly, a solver bug rather than a recoverable
// condition, so it panics instead of returning a typed error.
func (s *Solver) enqueueImpliedOrFail(l Literal, r reason) error {
	if !s.enqueueImplied(l, r) {
		panic(fmt.Sprintf("sat: asserting literal %s conflicts immediately after backjump", l))
	}
	return nil
}

// extractModel returns the current full assignment, with the
// eliminator's extension stack applied to reconstruct values for
// variables removed during preprocessing.
func (s *Solver) extractModel() []LBool {
	model := make([]LBool, s.vars.NumVars())
	for v := 0; v < s.vars.NumVars(); v++ {
		val := s.vars.Value(v)
		if val == Unknown {
			val = True // unconstrained variable: any value is a model
		}
		model[v] = val
	}
	s.eliminator.extendModel(model)
	return model
}

// Stats returns a snapshot of search counters for logging.
type Stats struct {
	Conflicts    int
	Decisions    int
	Propagations int
	Learnts      int
	Constraints  int
}

func (s *Solver) Stats() Stats {
	return Stats{
		Conflicts:    s.conflicts,
		Decisions:    s.decisions,
		Propagations: s.propagations,
		Learnts:      s.cdb.NumLearnts(),
		Constraints:  s.cdb.NumConstraints(),
	}
}
