package classifier

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/nvandessel/ecalab/internal/automaton"
	"github.com/nvandessel/ecalab/internal/logging"
)

func TestClassifyRule_Literature(t *testing.T) {
	c := New(DefaultConfig())

	tests := []struct {
		rule int
		want Class
	}{
		{0, ClassHomogeneous},
		{30, ClassChaotic},
		{90, ClassPeriodic},
		{110, ClassComplex},
		{54, ClassComplex},
		{124, ClassComplex},
		{137, ClassComplex},
	}

	for _, tt := range tests {
		got, err := c.ClassifyRule(tt.rule, 101, 200, true)
		if err != nil {
			t.Fatalf("ClassifyRule(%d) error = %v", tt.rule, err)
		}
		if got.Class != tt.want {
			t.Errorf("ClassifyRule(%d).Class = %v, want %v", tt.rule, got.Class, tt.want)
		}
		if got.Confidence != 1.0 {
			t.Errorf("ClassifyRule(%d).Confidence = %v, want 1.0", tt.rule, got.Confidence)
		}
		if got.Source != SourceLiterature {
			t.Errorf("ClassifyRule(%d).Source = %q, want %q", tt.rule, got.Source, SourceLiterature)
		}
		if got.Metrics != nil {
			t.Errorf("ClassifyRule(%d) literature result has metrics", tt.rule)
		}
	}
}

func TestClassifyRule_AnalysisRule0(t *testing.T) {
	c := New(DefaultConfig())

	got, err := c.ClassifyRule(0, 101, 200, false)
	if err != nil {
		t.Fatalf("ClassifyRule() error = %v", err)
	}
	if got.Source != SourceAnalysis {
		t.Errorf("Source = %q, want %q", got.Source, SourceAnalysis)
	}
	if got.Class != ClassHomogeneous {
		t.Errorf("Class = %v, want %v", got.Class, ClassHomogeneous)
	}
	if got.Confidence != 0.9 {
		t.Errorf("Confidence = %v, want 0.9", got.Confidence)
	}
	if got.Metrics == nil {
		t.Fatal("expected metrics on analysis result")
	}
	if got.Metrics.Homogeneity != 1 {
		t.Errorf("Homogeneity = %v, want 1", got.Metrics.Homogeneity)
	}
	if got.ClassName != "Class I - Homogeneous" {
		t.Errorf("ClassName = %q", got.ClassName)
	}
}

func TestClassifyRule_InvalidRule(t *testing.T) {
	c := New(DefaultConfig())

	for _, rule := range []int{-1, 256} {
		_, err := c.ClassifyRule(rule, 101, 50, true)
		if !errors.Is(err, automaton.ErrInvalidArgument) {
			t.Errorf("ClassifyRule(%d) error = %v, want ErrInvalidArgument", rule, err)
		}
	}
}

func TestDecide(t *testing.T) {
	p2 := 2
	p7 := 7

	tests := []struct {
		name       string
		m          Metrics
		want       Class
		confidence float64
		branch     string
	}{
		{
			name:       "homogeneous",
			m:          Metrics{Homogeneity: 0.95, Stability: 0.85},
			want:       ClassHomogeneous,
			confidence: 0.9,
			branch:     "homogeneous",
		},
		{
			name:       "homogeneous needs stability",
			m:          Metrics{Homogeneity: 0.95, Stability: 0.7},
			want:       ClassPeriodic,
			confidence: 0.5,
			branch:     "fallback_stable",
		},
		{
			name:       "strict period",
			m:          Metrics{Periodicity: Periodicity{Period: &p2, IsPeriodic: true, Kind: PeriodStrict}},
			want:       ClassPeriodic,
			confidence: 0.85,
			branch:     "periodic",
		},
		{
			name:       "quasi period",
			m:          Metrics{Periodicity: Periodicity{Period: &p2, IsPeriodic: true, Kind: PeriodQuasi}, Complexity: 0.9},
			want:       ClassPeriodic,
			confidence: 0.85,
			branch:     "periodic",
		},
		{
			name:       "long period is not periodic",
			m:          Metrics{Periodicity: Periodicity{Period: &p7, IsPeriodic: true, Kind: PeriodLong}, Stability: 0.2},
			want:       ClassChaotic,
			confidence: 0.5,
			branch:     "fallback_unstable",
		},
		{
			name:       "complex and unstable",
			m:          Metrics{Complexity: 0.5, Stability: 0.3},
			want:       ClassChaotic,
			confidence: 0.7,
			branch:     "complex_unstable",
		},
		{
			name:       "complex and stable",
			m:          Metrics{Complexity: 0.5, Stability: 0.9},
			want:       ClassComplex,
			confidence: 0.6,
			branch:     "complex_stable",
		},
		{
			name:       "complexity at threshold falls through",
			m:          Metrics{Complexity: 0.3, Stability: 0.65},
			want:       ClassPeriodic,
			confidence: 0.5,
			branch:     "fallback_stable",
		},
		{
			name:       "all zero",
			m:          Metrics{},
			want:       ClassChaotic,
			confidence: 0.5,
			branch:     "fallback_unstable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.m)
			if got.Class != tt.want {
				t.Errorf("Decide().Class = %v, want %v", got.Class, tt.want)
			}
			if got.Confidence != tt.confidence {
				t.Errorf("Decide().Confidence = %v, want %v", got.Confidence, tt.confidence)
			}
			if got.Branch != tt.branch {
				t.Errorf("Decide().Branch = %q, want %q", got.Branch, tt.branch)
			}
		})
	}
}

func TestAnalyze_DecisionLog(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Decisions = logging.NewDecisionWriter(&buf)
	c := New(cfg)

	if _, err := c.ClassifyRule(0, 51, 100, false); err != nil {
		t.Fatalf("ClassifyRule() error = %v", err)
	}
	if _, err := c.ClassifyRule(30, 51, 100, true); err != nil {
		t.Fatalf("ClassifyRule() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d decision lines, want 1 (literature answers are not traced)", len(lines))
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry["branch"] != "homogeneous" {
		t.Errorf("branch = %v, want homogeneous", entry["branch"])
	}
	if entry["rule"] != float64(0) {
		t.Errorf("rule = %v, want 0", entry["rule"])
	}
}

func TestClassNames(t *testing.T) {
	tests := []struct {
		class Class
		want  string
	}{
		{ClassHomogeneous, "Class I - Homogeneous"},
		{ClassPeriodic, "Class II - Periodic"},
		{ClassChaotic, "Class III - Chaotic"},
		{ClassComplex, "Class IV - Complex"},
		{ClassUnknown, "Unknown"},
		{Class(9), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.class.Name(); got != tt.want {
			t.Errorf("Class(%d).Name() = %q, want %q", int(tt.class), got, tt.want)
		}
	}
}

func TestLiteratureTable(t *testing.T) {
	seen := map[Class]bool{}
	for rule := 0; rule < 256; rule++ {
		if class, ok := LiteratureClass(rule); ok {
			seen[class] = true
		}
	}
	for _, class := range Classes {
		if !seen[class] {
			t.Errorf("literature table has no rule in %v", class)
		}
	}
	if _, ok := LiteratureClass(300); ok {
		t.Error("LiteratureClass(300) should be absent")
	}
	if LiteratureRules() == 0 {
		t.Error("LiteratureRules() = 0")
	}
}
