package hdetest_test

import (
	"testing"

	"github.com/db47h/hde"
	"github.com/db47h/hde/hdelib"
	"github.com/db47h/hde/hdetest"
)

func TestCompareVariants(t *testing.T) {
	lib := hdelib.Builtin()
	// OR built from NANDs: nand(nand(a, a), nand(b, b))
	nand := func(a, b bool) bool { return !(a && b) }
	or := &hdelib.Variant{
		Tag: "CUSTOM_OR",
		Spec: &hde.Spec{
			Name:   "CUSTOM_OR",
			Ports:  []string{"I1", "I2", "O"},
			Inputs: []string{"I1", "I2"},
			Output: "O",
			Active: "O",
			Fn:     func(in []bool) bool { return nand(nand(in[0], in[0]), nand(in[1], in[1])) },
		},
		Footprint: hdelib.Or.Footprint,
	}
	if err := lib.Register(or); err != nil {
		t.Fatal(err)
	}
	hdetest.CompareVariants(t, lib, hdelib.TagOr, "CUSTOM_OR")
}

func TestTruthTable(t *testing.T) {
	hdetest.TruthTable(t, hdelib.Builtin(), hdelib.TagBuffer, []bool{false, true})
}
