package stats

import "testing"

func TestClassifyFile(t *testing.T) {
	cases := []struct {
		name string
		want FileKind
	}{
		{"root.bolt", KindSegments},
		{"store/root.bolt", KindSegments},
		{"index_meta.json", KindSegmentsGen},
		{"store/000000000001.zap", KindCompoundFile},
		{"000000000abc.zap", KindCompoundFile},
		{"something.tmp", KindUnknown},
		{"LOCK", KindUnknown},
	}
	for _, tc := range cases {
		if got := ClassifyFile(tc.name); got != tc.want {
			t.Errorf("ClassifyFile(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestDeletedDocsTolerantLookup(t *testing.T) {
	if n := deletedDocs(map[string]interface{}{}); n != 0 {
		t.Errorf("empty stats: got %d, want 0", n)
	}
	stats := map[string]interface{}{
		"index": map[string]interface{}{"num_recs_to_reclaim": uint64(3)},
	}
	if n := deletedDocs(stats); n != 3 {
		t.Errorf("got %d, want 3", n)
	}
	stats = map[string]interface{}{
		"index": map[string]interface{}{"num_recs_to_reclaim": float64(5)},
	}
	if n := deletedDocs(stats); n != 5 {
		t.Errorf("float stats: got %d, want 5", n)
	}
}
