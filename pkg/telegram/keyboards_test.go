package telegram

import "testing"

func TestApproveCorrectionData(t *testing.T) {
	id, ok := ParseApproveCorrection(ApproveCorrectionData(42))
	if !ok || id != 42 {
		t.Errorf("expected 42, got %d %v", id, ok)
	}

	for _, data := range []string{"", "approve_correction_", "approve_correction_x", "approve_correction_0", "other_42"} {
		if _, ok := ParseApproveCorrection(data); ok {
			t.Errorf("%q must not parse", data)
		}
	}
}
