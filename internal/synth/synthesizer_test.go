package synth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/claimlens/claimlens/internal/llm"
	"github.com/claimlens/claimlens/internal/model"
)

type stubProvider struct {
	responses []string
	errs      []error
	calls     int
}

func (s *stubProvider) Name() string                     { return "stub" }
func (s *stubProvider) IsAvailable(context.Context) bool { return true }

func (s *stubProvider) Complete(_ context.Context, _ llm.Request) (*llm.Response, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	content := ""
	if i < len(s.responses) {
		content = s.responses[i]
	}
	return &llm.Response{Content: content, Model: "stub-deep"}, nil
}

func denialRecord() *model.ExtractedRecord {
	return &model.ExtractedRecord{
		DocumentID:          "doc-1",
		DocumentType:        model.DocTypeDenialLetter,
		ConfidenceThreshold: 0.60,
		Fields: map[string]model.FieldValue{
			"denial_code": {
				Name: "denial_code", Type: model.FieldTypeCode, Value: "CO-50",
				Confidence: 0.95, Provenance: model.Provenance{Page: 0, Quote: "Denial Code: CO-50"},
			},
			"denial_reason": {
				Name: "denial_reason", Type: model.FieldTypeString, Value: "not medically necessary",
				Confidence: 0.9, Provenance: model.Provenance{Page: 0},
			},
			"claim_number": {Name: "claim_number", Type: model.FieldTypeCode, Missing: true},
		},
	}
}

func testEval() *model.EvaluationResult {
	return &model.EvaluationResult{
		Insurer:   "bluecross_ppo",
		RiskScore: 40,
		Findings: []model.Finding{
			{
				Rule:      model.Rule{ID: "r1", Field: "denial_code", Description: "denial code documented", Severity: model.SeverityModerate},
				Satisfied: true,
				State:     model.EvidenceSatisfied,
				Counted:   true,
			},
		},
	}
}

func newTestSynthesizer(p llm.Provider) *Synthesizer {
	s := NewSynthesizer(p, "stub-deep", 1000, 3)
	s.policy.BaseDelay = time.Millisecond
	return s
}

func TestSynthesize_Success(t *testing.T) {
	stub := &stubProvider{responses: []string{"Your claim was denied with denial_code CO-50 because the insurer judged it not medically necessary."}}
	s := newTestSynthesizer(stub)

	v, err := s.Synthesize(context.Background(), []*model.ExtractedRecord{denialRecord()}, testEval(), model.WorkflowDenialExplanation)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if v.Degraded {
		t.Error("successful synthesis must not be degraded")
	}
	if v.Workflow != model.WorkflowDenialExplanation {
		t.Errorf("verdict tagged with wrong workflow: %s", v.Workflow)
	}
}

func TestSynthesize_TimeoutOnceThenSucceeds(t *testing.T) {
	stub := &stubProvider{
		errs:      []error{errors.New("request timeout")},
		responses: []string{"", "The denial_code CO-50 indicates the service was judged not medically necessary."},
	}
	s := newTestSynthesizer(stub)

	v, err := s.Synthesize(context.Background(), []*model.ExtractedRecord{denialRecord()}, testEval(), model.WorkflowDenialExplanation)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if v.Degraded {
		t.Error("a retry that succeeds must not set the degraded flag")
	}
	if stub.calls != 2 {
		t.Errorf("expected 2 calls, got %d", stub.calls)
	}
}

func TestSynthesize_PersistentFailureDegradesToTemplate(t *testing.T) {
	boom := errors.New("service unavailable")
	stub := &stubProvider{errs: []error{boom, boom, boom}}
	s := newTestSynthesizer(stub)

	v, err := s.Synthesize(context.Background(), []*model.ExtractedRecord{denialRecord()}, testEval(), model.WorkflowAppealLetter)
	if err != nil {
		t.Fatalf("expected degraded verdict, not error: %v", err)
	}
	if !v.Degraded {
		t.Fatal("expected degraded flag after retry budget exhaustion")
	}
	if !strings.Contains(v.Content, "APPEAL LETTER DRAFT") {
		t.Errorf("expected appeal template, got: %s", v.Content)
	}
	if !strings.Contains(v.Content, "CO-50") {
		t.Error("template should carry the denial code from the record")
	}
}

func TestSynthesize_UngroundedResponseRejected(t *testing.T) {
	// Model references a field that is not in any record; the first response
	// must be rejected and the grounded retry accepted.
	stub := &stubProvider{responses: []string{
		"Your policy's lifetime_maximum_benefit was exceeded.",
		"The denial_reason given was: not medically necessary.",
	}}
	s := newTestSynthesizer(stub)

	v, err := s.Synthesize(context.Background(), []*model.ExtractedRecord{denialRecord()}, testEval(), model.WorkflowDenialExplanation)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if stub.calls != 2 {
		t.Errorf("ungrounded response should be retried, got %d calls", stub.calls)
	}
	if v.Degraded {
		t.Error("grounded retry must not be degraded")
	}
}

func TestUngroundedFields(t *testing.T) {
	records := []*model.ExtractedRecord{denialRecord()}

	if leaked := ungroundedFields("the denial_code and denial_reason are shown", records, testEval()); len(leaked) != 0 {
		t.Errorf("known fields flagged as ungrounded: %v", leaked)
	}
	leaked := ungroundedFields("your out_of_pocket_maximum applies", records, testEval())
	if len(leaked) != 1 || leaked[0] != "out_of_pocket_maximum" {
		t.Errorf("expected leak detection, got %v", leaked)
	}
}

func TestUngroundedFields_PromptTokensAreGrounded(t *testing.T) {
	// The prompt itself names the document type and insurer key; a response
	// echoing them must not be rejected.
	records := []*model.ExtractedRecord{denialRecord()}
	content := "Your denial_letter was evaluated against the bluecross_ppo requirements."

	if leaked := ungroundedFields(content, records, testEval()); len(leaked) != 0 {
		t.Errorf("prompt-fed tokens flagged as ungrounded: %v", leaked)
	}
	// Without an evaluation the insurer key never enters the prompt
	if leaked := ungroundedFields(content, records, nil); len(leaked) != 1 || leaked[0] != "bluecross_ppo" {
		t.Errorf("expected bluecross_ppo leak without evaluation, got %v", leaked)
	}
}

func TestSynthesize_ResponseEchoingPromptTokensNotDegraded(t *testing.T) {
	stub := &stubProvider{responses: []string{
		"The denial_letter shows denial_code CO-50; bluecross_ppo judged the denial_explanation requirements unmet.",
	}}
	s := newTestSynthesizer(stub)

	v, err := s.Synthesize(context.Background(), []*model.ExtractedRecord{denialRecord()}, testEval(), model.WorkflowDenialExplanation)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if v.Degraded {
		t.Errorf("grounded response was degraded: %v", v.Warnings)
	}
	if stub.calls != 1 {
		t.Errorf("grounded response should be accepted first try, got %d calls", stub.calls)
	}
}

func TestSynthesize_CancelledContextDoesNotDegrade(t *testing.T) {
	stub := &stubProvider{errs: []error{context.Canceled}}
	s := newTestSynthesizer(stub)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Synthesize(ctx, []*model.ExtractedRecord{denialRecord()}, testEval(), model.WorkflowPreClaim)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("cancellation must abort, got %v", err)
	}
}
