package main

import (
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rhartert/yass/internal/sat"
	"github.com/rhartert/yass/parsers"
)

// This test suite evaluates the solver's correctness by checking that it
// finds the exact set of models for every instance in testdataDir.
//
// The test set includes instances with known solutions, worked out by hand
// for the small cases seeded here and cross-checked mentally against a
// truth table; larger regression instances can be dropped into the same
// directory following the same naming convention.

// Directory containing the test cases used to validate the solver. Each
// test case is provided as two files:
//
//   - An instance file with the ".cnf" extension containing a DIMACS CNF
//     formula.
//   - A models file with the same name plus ".models" containing the
//     (possibly empty) set of the instance's models, one per line, using
//     the same literal convention as the instance file.
var testdataDir = "testdata"

type testCase struct {
	instanceName string
	instanceFile string
	modelsFile   string
}

func listTestCases(dir string) ([]testCase, error) {
	var testCases []testCase
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".cnf") {
			return nil
		}
		testCases = append(testCases, testCase{
			instanceName: d.Name(),
			instanceFile: path,
			modelsFile:   path + ".models",
		})
		return nil
	})
	return testCases, err
}

// toString returns a binary string representation of a model, e.g.
// [true, false, false] becomes "100".
func toString(model []bool) string {
	s := make([]byte, 0, len(model))
	for _, b := range model {
		if b {
			s = append(s, '1')
		} else {
			s = append(s, '0')
		}
	}
	return string(s)
}

func toSet(models [][]bool) map[string]struct{} {
	set := map[string]struct{}{}
	for _, m := range models {
		set[toString(m)] = struct{}{}
	}
	return set
}

// solveAll enumerates every model of s by repeatedly solving, blocking the
// model just found, and solving again.
func solveAll(t *testing.T, s *sat.Solver) [][]bool {
	t.Helper()
	var models [][]bool
	for {
		res, err := s.Solve()
		if err != nil {
			t.Fatalf("Solve(): %s", err)
		}
		if res.Status != sat.StatusSAT {
			break
		}
		model := make([]bool, len(res.Model))
		block := make([]sat.Literal, len(res.Model))
		for i, v := range res.Model {
			model[i] = v == sat.True
			if v == sat.True {
				block[i] = sat.NegativeLiteral(i)
			} else {
				block[i] = sat.PositiveLiteral(i)
			}
		}
		models = append(models, model)
		if err := s.AddClause(block); err != nil {
			break // blocking clause is immediately unsatisfiable: no more models
		}
	}
	return models
}

// TestSolveAll verifies that the solver finds every model of each instance
// under testdataDir. Test cases run in parallel.
func TestSolveAll(t *testing.T) {
	testCases, err := listTestCases(testdataDir)
	if err != nil {
		t.Fatalf("Error listing test cases: %s", err)
	}
	if len(testCases) == 0 {
		t.Fatalf("no test cases found under %q", testdataDir)
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.instanceName, func(t *testing.T) {
			t.Parallel()

			want, err := parsers.ReadModels(tc.modelsFile)
			if err != nil {
				t.Fatalf("Model parsing error: %s", err)
			}

			s := sat.NewDefaultSolver()
			if err := parsers.LoadDIMACS(tc.instanceFile, false, s); err != nil {
				t.Fatalf("Instance parsing error: %s", err)
			}

			got := solveAll(t, s)

			if len(got) != len(want) {
				t.Errorf("Incorrect number of models: got %d, want %d", len(got), len(want))
			}
			if diff := cmp.Diff(toSet(want), toSet(got)); diff != "" {
				t.Errorf("Model mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
