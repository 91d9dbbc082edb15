package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestRiskLevelOrder(t *testing.T) {
	levels := RiskLevels()
	if len(levels) != 5 {
		t.Fatalf("got %d levels", len(levels))
	}
	for i := 1; i < len(levels); i++ {
		if levels[i] <= levels[i-1] {
			t.Errorf("levels not ascending at %d", i)
		}
	}
}

func TestParseRiskLevel(t *testing.T) {
	for in, want := range map[string]RiskLevel{
		"minimal":  RiskMinimal,
		"HIGH":     RiskHigh,
		" extreme": RiskExtreme,
	} {
		got, err := ParseRiskLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseRiskLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseRiskLevel("severe"); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown level err = %v", err)
	}
}

func TestEnumJSON(t *testing.T) {
	in := struct {
		Risk       RiskLevel       `json:"risk"`
		Size       SizeCategory    `json:"size"`
		Confidence ConfidenceLevel `json:"confidence"`
		Quality    DataQuality     `json:"quality"`
	}{RiskModerate, SizeCatastrophic, ConfidenceMedium, QualityIncomplete}

	b, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"risk":"moderate","size":"catastrophic","confidence":"medium","quality":"incomplete"}`
	if string(b) != want {
		t.Errorf("json = %s", b)
	}

	out := in
	out.Risk, out.Size = RiskMinimal, SizeNegligible
	if err := json.Unmarshal(b, &out); err != nil || out != in {
		t.Errorf("decoded %+v, %v", out, err)
	}
}

func TestEnumRejectsOutOfRange(t *testing.T) {
	if _, err := json.Marshal(RiskLevel(7)); err == nil {
		t.Error("marshal of out-of-range risk level succeeded")
	}
	if got := SizeCategory(-1).String(); got != "invalid(-1)" {
		t.Errorf("String() = %q", got)
	}
	var s DataSource
	if err := json.Unmarshal([]byte(`"guessed"`), &s); err == nil {
		t.Error("unknown source accepted")
	}
}
