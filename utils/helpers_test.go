package utils

import (
	"testing"
)

func Test_MinMaxSum(t *testing.T) {
	assertEqual(t, 7, Max(3, 7), "max")
	assertEqual(t, 3, Min(3, 7), "min")
	assertEqual(t, 9, MaxSlice([]int{4, 9, 1}), "max slice")
	assertEqual(t, 1, MinSlice([]int{4, 9, 1}), "min slice")
	assertEqual(t, 14, Sum([]int{4, 9, 1}), "sum")
	assertEqual(t, uint64(16), RoundUpPow(9), "round up pow")
}

func Test_Percentile(t *testing.T) {
	vals := []int{4, 1, 3, 2}
	assertEqual(t, 3, Median(vals), "median")
	assertEqual(t, 4, Percentile(vals, 99), "p99")
	// Input untouched.
	assertEqual(t, []int{4, 1, 3, 2}, vals, "input order")
}

func Test_ParseUint32(t *testing.T) {
	if v, ok := ParseUint32("4096"); !ok || v != 4096 {
		t.Fatalf("parse 4096 gave %v %v", v, ok)
	}
	for _, bad := range []string{"", "-1", "12x", "4294967296", "99999999999"} {
		if _, ok := ParseUint32(bad); ok {
			t.Fatalf("expected reject of %q", bad)
		}
	}
}

func Test_FastFields(t *testing.T) {
	buff := make([]string, 8)
	n := FastFields(buff, []byte("  12\t34  5.5  "))
	assertEqual(t, 3, n, "field count")
	assertEqual(t, []string{"12", "34", "5.5"}, buff[:3], "fields")

	n = FastFields(buff, []byte("edge 1 2"))
	assertEqual(t, 3, n, "field count no trailing space")
	assertEqual(t, "edge", buff[0], "first field")
}

func Test_FindTopN(t *testing.T) {
	arr := []float64{0.5, 9.0, 3.0, 7.5, 1.0}
	top := FindTopN(arr, 3)
	assertEqual(t, 3, len(top), "top len")
	assertEqual(t, uint32(1), top[0].First, "top 1 idx")
	assertEqual(t, uint32(3), top[1].First, "top 2 idx")
	assertEqual(t, uint32(2), top[2].First, "top 3 idx")

	idxs := SortGiveIndexesLargestFirst(arr)
	assertEqual(t, []int{1, 3, 2, 4, 0}, idxs, "sorted indexes")
}
