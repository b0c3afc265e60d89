package sat

import (
	"math/rand"
	"testing"
)

// randomCNF generates a random CNF formula with nVars variables and
// nClauses clauses, each of width clauseWidth literals, using rng for
// all randomness so a fixed seed reproduces the same formula.
func randomCNF(rng *rand.Rand, nVars, nClauses, clauseWidth int) [][]Literal {
	clauses := make([][]Literal, nClauses)
	for i := range clauses {
		c := make([]Literal, clauseWidth)
		for j := range c {
			v := rng.Intn(nVars)
			if rng.Intn(2) == 0 {
				c[j] = NegativeLiteral(v)
			} else {
				c[j] = PositiveLiteral(v)
			}
		}
		clauses[i] = c
	}
	return clauses
}

// bruteForceSAT evaluates every one of the 2^nVars assignments and
// returns whether any of them satisfies every clause, along with one
// such assignment if found.
func bruteForceSAT(nVars int, clauses [][]Literal) (bool, []bool) {
	assignment := make([]bool, nVars)
	total := 1 << uint(nVars)
	for mask := 0; mask < total; mask++ {
		for v := 0; v < nVars; v++ {
			assignment[v] = mask&(1<<uint(v)) != 0
		}
		if cnfSatisfiedBy(clauses, assignment) {
			out := make([]bool, nVars)
			copy(out, assignment)
			return true, out
		}
	}
	return false, nil
}

func cnfSatisfiedBy(clauses [][]Literal, assignment []bool) bool {
	for _, c := range clauses {
		ok := false
		for _, l := range c {
			v := assignment[l.VarID()]
			if v == l.IsPositive() {
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

func modelSatisfiesCNF(clauses [][]Literal, model []LBool) bool {
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

// TestProperty_agreesWithBruteForce checks, for a batch of small random
// CNF instances, that the engine's satisfiability verdict matches a
// brute-force truth-table evaluation, and that any returned model
// actually satisfies the input.
func TestProperty_agreesWithBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	const trials = 150
	for trial := 0; trial < trials; trial++ {
		nVars := 1 + rng.Intn(8)
		nClauses := 1 + rng.Intn(16)
		width := 1 + rng.Intn(3)
		if width > nVars {
			width = nVars
		}
		clauses := randomCNF(rng, nVars, nClauses, width)

		wantSAT, _ := bruteForceSAT(nVars, clauses)

		s := NewDefaultSolver()
		vars := make([]int, nVars)
		for i := range vars {
			vars[i] = s.AddVariable()
		}
		addErr := false
		for _, c := range clauses {
			if err := s.AddClause(c); err != nil {
				addErr = true
				break
			}
		}

		if addErr {
			if wantSAT {
				t.Fatalf("trial %d: AddClause reported unsat but brute force found a model; clauses=%v", trial, clauses)
			}
			continue
		}

		res, err := s.Solve()
		if err != nil {
			t.Fatalf("trial %d: Solve: %s", trial, err)
		}

		gotSAT := res.Status == StatusSAT
		if gotSAT != wantSAT {
			t.Fatalf("trial %d: Solve returned %s, brute force says SAT=%v; clauses=%v", trial, res.Status, wantSAT, clauses)
		}
		if gotSAT && !modelSatisfiesCNF(clauses, res.Model) {
			t.Fatalf("trial %d: returned model %v does not satisfy clauses %v", trial, res.Model, clauses)
		}
	}
}

// TestProperty_largerInstancesTerminate exercises the full pipeline
// (elimination, restarts, chronoBT) on instances too large to brute
// force, checking only internal consistency of any returned model.
func TestProperty_largerInstancesTerminate(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	const trials = 20
	for trial := 0; trial < trials; trial++ {
		nVars := 40 + rng.Intn(60)
		nClauses := 150 + rng.Intn(250)
		clauses := randomCNF(rng, nVars, nClauses, 3)

		s := NewDefaultSolver()
		for i := 0; i < nVars; i++ {
			s.AddVariable()
		}
		addErr := false
		for _, c := range clauses {
			if err := s.AddClause(c); err != nil {
				addErr = true
				break
			}
		}
		if addErr {
			continue
		}

		res, err := s.Solve()
		if err != nil {
			t.Fatalf("trial %d: Solve: %s", trial, err)
		}
		if res.Status == StatusSAT && !modelSatisfiesCNF(clauses, res.Model) {
			t.Fatalf("trial %d: returned model does not satisfy clauses", trial)
		}
	}
}
