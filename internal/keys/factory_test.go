package keys

import (
	"testing"

	"github.com/dbsmedya/godecomp/internal/types"
)

func row(entity int64, tech string, period, industry int) types.PanelRow {
	return types.PanelRow{
		EntityID:     entity,
		Technology:   tech,
		Period:       period,
		Side:         types.SideCause,
		IndustryCode: industry,
	}
}

func TestBuild_FirstAppearanceOrder(t *testing.T) {
	rows := []types.PanelRow{
		row(20, "Cloud", 5, 3711),
		row(10, "AI", 4, 2800),
		row(20, "AI", 5, 3711),
		row(10, "Cloud", 4, 2800),
	}

	s, err := Build(rows, 4)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	// Ids follow first appearance, not sort order of the raw values.
	wantEntity := []int{0, 1, 0, 1}
	wantTech := []int{0, 1, 1, 0}
	wantTime := []int{0, 1, 0, 1}
	wantIndustry := []int{0, 1, 0, 1}
	for i := range rows {
		if s.Entity[i] != wantEntity[i] {
			t.Errorf("Entity[%d] = %d, want %d", i, s.Entity[i], wantEntity[i])
		}
		if s.Tech[i] != wantTech[i] {
			t.Errorf("Tech[%d] = %d, want %d", i, s.Tech[i], wantTech[i])
		}
		if s.Time[i] != wantTime[i] {
			t.Errorf("Time[%d] = %d, want %d", i, s.Time[i], wantTime[i])
		}
		if s.Industry[i] != wantIndustry[i] {
			t.Errorf("Industry[%d] = %d, want %d", i, s.Industry[i], wantIndustry[i])
		}
	}
	if s.NumRows() != 4 {
		t.Errorf("NumRows() = %d, want 4", s.NumRows())
	}
}

func TestBuild_Deterministic(t *testing.T) {
	rows := []types.PanelRow{
		row(1, "AI", 1, 3711),
		row(2, "Cloud", 2, 2800),
		row(3, "AI", 1, 3559),
		row(1, "Cloud", 2, 3711),
	}

	a, err := Build(rows, 3)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	b, err := Build(rows, 3)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	for i := range rows {
		if a.Entity[i] != b.Entity[i] || a.TechTime[i] != b.TechTime[i] || a.IndustryTime[i] != b.IndustryTime[i] {
			t.Fatalf("two builds over the same rows disagree at row %d", i)
		}
	}
}

func TestBuild_CompositeKeys(t *testing.T) {
	rows := []types.PanelRow{
		row(1, "AI", 1, 3711),
		row(2, "AI", 1, 3711),    // same tech x time, same industry x time
		row(1, "AI", 2, 3711),    // new time: both composites change
		row(1, "Cloud", 1, 3711), // new tech, old time
		row(1, "AI", 1, 2800),    // new industry, old time
	}

	s, err := Build(rows, 4)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	if s.TechTime[0] != s.TechTime[1] {
		t.Error("rows 0 and 1 share technology and period but got distinct tech-time ids")
	}
	if s.IndustryTime[0] != s.IndustryTime[1] {
		t.Error("rows 0 and 1 share industry and period but got distinct industry-time ids")
	}
	if s.TechTime[2] == s.TechTime[0] {
		t.Error("a different period must yield a different tech-time id")
	}
	if s.TechTime[3] == s.TechTime[0] {
		t.Error("a different technology must yield a different tech-time id")
	}
	if s.IndustryTime[4] == s.IndustryTime[0] {
		t.Error("a different industry must yield a different industry-time id")
	}
}

func TestBuild_CoarseningMergesIndustries(t *testing.T) {
	rows := []types.PanelRow{
		row(1, "AI", 1, 3711),
		row(2, "AI", 1, 3714), // same 3-digit prefix 371
		row(3, "AI", 1, 3559),
	}

	fine, err := Build(rows, 4)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	coarse, err := Build(rows, 3)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	if fine.Industry[0] == fine.Industry[1] {
		t.Error("4-digit keys must separate 3711 and 3714")
	}
	if coarse.Industry[0] != coarse.Industry[1] {
		t.Error("3-digit keys must merge 3711 and 3714")
	}
	if coarse.Industry[0] == coarse.Industry[2] {
		t.Error("3-digit keys must still separate 371x from 355x")
	}

	if got := coarse.DistinctIndustries(nil); got != 2 {
		t.Errorf("DistinctIndustries(nil) = %d, want 2", got)
	}
}

func TestDistinctIndustries_Masked(t *testing.T) {
	rows := []types.PanelRow{
		row(1, "AI", 1, 3711),
		row(2, "AI", 1, 2800),
		row(3, "AI", 1, 3559),
	}

	s, err := Build(rows, 4)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	mask := []bool{true, false, true}
	if got := s.DistinctIndustries(mask); got != 2 {
		t.Errorf("DistinctIndustries(mask) = %d, want 2", got)
	}
	if got := s.DistinctIndustries([]bool{false, false, false}); got != 0 {
		t.Errorf("DistinctIndustries(all false) = %d, want 0", got)
	}
}

func TestBuild_EmptyRows(t *testing.T) {
	s, err := Build(nil, 3)
	if err != nil {
		t.Fatalf("Build() failed on empty input: %v", err)
	}
	if s.NumRows() != 0 {
		t.Errorf("NumRows() = %d, want 0", s.NumRows())
	}
}
