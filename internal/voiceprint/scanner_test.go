package voiceprint

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tmnguyen/scamshield/internal/llm"
)

func TestScanRejectsEmptySample(t *testing.T) {
	s := NewScanner(llm.NewStubClient("AUTHENTIC | 90 | clean"), time.Second)
	if _, err := s.Scan(context.Background(), nil, "audio/wav"); !errors.Is(err, ErrEmptySample) {
		t.Fatalf("err = %v, want ErrEmptySample", err)
	}
}

func TestScanParsesModelReply(t *testing.T) {
	tests := []struct {
		name       string
		reply      string
		verdict    Verdict
		confidence int
	}{
		{"authentic", "AUTHENTIC | 92 | natural prosody and breathing", VerdictAuthentic, 92},
		{"synthetic", "SYNTHETIC | 78 | uniform spectral envelope", VerdictSynthetic, 78},
		{"unsure", "UNSURE | 40 | sample too short", VerdictUnsure, 40},
		{"lowercase", "synthetic | 60 | cloned voice markers", VerdictSynthetic, 60},
		{"no confidence", "AUTHENTIC", VerdictAuthentic, 0},
		{"garbage confidence", "SYNTHETIC | lots | odd", VerdictSynthetic, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScanner(llm.NewStubClient(tt.reply), time.Second)
			res, err := s.Scan(context.Background(), []byte{1, 2, 3}, "audio/wav")
			if err != nil {
				t.Fatalf("Scan: %v", err)
			}
			if res.Verdict != tt.verdict {
				t.Errorf("verdict = %q, want %q", res.Verdict, tt.verdict)
			}
			if res.Confidence != tt.confidence {
				t.Errorf("confidence = %d, want %d", res.Confidence, tt.confidence)
			}
			if res.Source != "model" {
				t.Errorf("source = %q, want model", res.Source)
			}
		})
	}
}

func TestScanFallsBackOnModelError(t *testing.T) {
	stub := NewErrStub(errors.New("boom"))
	s := NewScanner(stub, time.Second)

	res, err := s.Scan(context.Background(), []byte{1}, "audio/wav")
	if err != nil {
		t.Fatalf("Scan should not surface model errors, got %v", err)
	}
	if res.Verdict != VerdictUnsure || res.Confidence != 0 {
		t.Errorf("got %+v, want inconclusive fallback", res)
	}
	if res.Source != "fallback" {
		t.Errorf("source = %q, want fallback", res.Source)
	}
}

func TestScanFallsBackOnUnparseableReply(t *testing.T) {
	s := NewScanner(llm.NewStubClient("I cannot analyze audio."), time.Second)

	res, err := s.Scan(context.Background(), []byte{1}, "audio/wav")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if res.Verdict != VerdictUnsure {
		t.Errorf("verdict = %q, want unsure", res.Verdict)
	}
}

func TestScanWithoutModel(t *testing.T) {
	s := NewScanner(nil, time.Second)

	res, err := s.Scan(context.Background(), []byte{1}, "audio/wav")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if res.Verdict != VerdictUnsure || res.Source != "fallback" {
		t.Errorf("got %+v, want inconclusive fallback", res)
	}
}

// NewErrStub wraps the llm stub to always fail.
func NewErrStub(err error) llm.Client {
	stub := llm.NewStubClient()
	stub.Err = err
	return stub
}
