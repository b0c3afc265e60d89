package parsers

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rhartert/yass/internal/sat"
)

// instance is a minimal SATSolver recording every variable and clause
// it is handed, used to check that LoadDIMACS drives the builder
// correctly without needing a full solver.
type instance struct {
	Variables int
	Clauses   [][]sat.Literal
}

func (i *instance) AddVariable() int {
	i.Variables++
	return i.Variables - 1
}

func (i *instance) AddClause(tmpClause []sat.Literal) error {
	clause := make([]sat.Literal, len(tmpClause))
	copy(clause, tmpClause)
	i.Clauses = append(i.Clauses, clause)
	return nil
}

var wantInstance = instance{
	Variables: 3,
	Clauses: [][]sat.Literal{
		{sat.PositiveLiteral(0), sat.PositiveLiteral(1)},
		{sat.NegativeLiteral(0), sat.PositiveLiteral(2)},
		{sat.PositiveLiteral(1), sat.NegativeLiteral(2)},
	},
}

func TestLoadDIMACS_cnf(t *testing.T) {
	got := instance{}
	if err := LoadDIMACS("testdata/test_instance.cnf", false, &got); err != nil {
		t.Fatalf("LoadDIMACS(): want no error, got %s", err)
	}
	if diff := cmp.Diff(wantInstance, got); diff != "" {
		t.Errorf("LoadDIMACS(): mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadDIMACS_gzip(t *testing.T) {
	got := instance{}
	if err := LoadDIMACS("testdata/test_instance.cnf.gz", true, &got); err != nil {
		t.Fatalf("LoadDIMACS(): want no error, got %s", err)
	}
	if diff := cmp.Diff(wantInstance, got); diff != "" {
		t.Errorf("LoadDIMACS(): mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadDIMACS_missingFile(t *testing.T) {
	got := instance{}
	if err := LoadDIMACS("testdata/does_not_exist.cnf", false, &got); err == nil {
		t.Errorf("LoadDIMACS(): want error, got none")
	}
}

func TestLoadDIMACS_gzipFlagOnPlainFile(t *testing.T) {
	got := instance{}
	if err := LoadDIMACS("testdata/test_instance.cnf", true, &got); err == nil {
		t.Errorf("LoadDIMACS(): want error reading a non-gzip file as gzip, got none")
	}
}

func TestReadModels(t *testing.T) {
	got, err := ReadModels("testdata/test_instance.cnf.models")
	if err != nil {
		t.Fatalf("ReadModels(): want no error, got %s", err)
	}
	want := [][]bool{{true, true, true}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadModels(): mismatch (-want +got):\n%s", diff)
	}
}

func TestReadModels_missingFile(t *testing.T) {
	if _, err := ReadModels("testdata/does_not_exist.cnf.models"); err == nil {
		t.Errorf("ReadModels(): want error, got none")
	}
}
