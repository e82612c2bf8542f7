package domain

import (
	"encoding/json"
	"testing"
)

func TestNormalizeOptionsObject(t *testing.T) {
	q := NormalizeQuestion(RawQuestion{
		ID:            "q1",
		Type:          string(QuestionMultipleChoice),
		Options:       json.RawMessage(`{"a":"Jakarta","B":"Bandung"}`),
		CorrectAnswer: "b",
		Points:        10,
	})
	if len(q.OptionsByLetter) != 2 {
		t.Fatalf("expected 2 options, got %+v", q.OptionsByLetter)
	}
	if q.OptionsByLetter["A"] != "Jakarta" {
		t.Fatalf("expected lowercase key normalized to A, got %+v", q.OptionsByLetter)
	}
	if q.CorrectLetter != "B" {
		t.Fatalf("expected correct letter B, got %q", q.CorrectLetter)
	}
}

func TestNormalizeOptionsArray(t *testing.T) {
	q := NormalizeQuestion(RawQuestion{
		Type:          string(QuestionMultipleChoice),
		Options:       json.RawMessage(`["red","green","blue"]`),
		CorrectAnswer: "2",
	})
	if q.OptionsByLetter["C"] != "blue" {
		t.Fatalf("expected array index 2 mapped to C, got %+v", q.OptionsByLetter)
	}
	if q.CorrectLetter != "C" {
		t.Fatalf("expected numeric index resolved to C, got %q", q.CorrectLetter)
	}
}

func TestNormalizeTextLookupBeatsIndexSniffing(t *testing.T) {
	// The correct answer "4" is the text of option B, not index 4.
	q := NormalizeQuestion(RawQuestion{
		Type:          string(QuestionMultipleChoice),
		Options:       json.RawMessage(`{"A":"3","B":"4","C":"5"}`),
		CorrectAnswer: "4",
	})
	if q.CorrectLetter != "B" {
		t.Fatalf("expected text match to win over index, got %q", q.CorrectLetter)
	}
}

func TestNormalizeCorrectAnswerByText(t *testing.T) {
	q := NormalizeQuestion(RawQuestion{
		Type:          string(QuestionMultipleChoice),
		Options:       json.RawMessage(`{"A":"Selamat pagi","B":"Selamat malam"}`),
		CorrectAnswer: "Selamat malam",
	})
	if q.CorrectLetter != "B" {
		t.Fatalf("expected text reverse lookup to yield B, got %q", q.CorrectLetter)
	}
}

func TestNormalizeMalformedOptionsDegrade(t *testing.T) {
	q := NormalizeQuestion(RawQuestion{
		Type:          string(QuestionMultipleChoice),
		Options:       json.RawMessage(`{"broken`),
		CorrectAnswer: "A",
	})
	if q.OptionsByLetter != nil {
		t.Fatalf("expected no options for malformed JSON, got %+v", q.OptionsByLetter)
	}
	// A bare letter still resolves; a text answer could not.
	if q.CorrectLetter != "A" {
		t.Fatalf("expected letter answer to survive, got %q", q.CorrectLetter)
	}

	q = NormalizeQuestion(RawQuestion{
		Type:          string(QuestionMultipleChoice),
		Options:       json.RawMessage(`42`),
		CorrectAnswer: "Selamat pagi",
	})
	if q.CorrectLetter != "" {
		t.Fatalf("expected unresolvable answer, got %q", q.CorrectLetter)
	}
}

func TestNormalizeOutOfRangeIndex(t *testing.T) {
	q := NormalizeQuestion(RawQuestion{
		Type:          string(QuestionMultipleChoice),
		Options:       json.RawMessage(`["a","b"]`),
		CorrectAnswer: "7",
	})
	if q.CorrectLetter != "" {
		t.Fatalf("expected index 7 unresolvable, got %q", q.CorrectLetter)
	}
}

func TestNormalizeTrueFalseLabels(t *testing.T) {
	cases := map[string]string{
		"true":    LabelTrue,
		"False":   LabelFalse,
		"benar":   LabelTrue,
		"Salah":   LabelFalse,
		"unknown": "unknown",
	}
	for authored, want := range cases {
		q := NormalizeQuestion(RawQuestion{Type: string(QuestionTrueFalse), CorrectAnswer: authored})
		if q.CorrectAnswer != want {
			t.Fatalf("authored %q: expected %q, got %q", authored, want, q.CorrectAnswer)
		}
	}
}

func TestNormalizeQuestOrdersQuestions(t *testing.T) {
	quest := RawQuest{
		ID: "quest-1",
		Questions: []RawQuestQuestion{
			{ID: "qq2", Order: 2, Question: RawQuestion{Type: string(QuestionShortAnswer)}},
			{ID: "qq1", Order: 1, Question: RawQuestion{Type: string(QuestionShortAnswer)}},
		},
	}.Normalize()
	if quest.Questions[0].ID != "qq1" || quest.Questions[1].ID != "qq2" {
		t.Fatalf("expected questions ordered by Order, got %+v", quest.Questions)
	}
}

func TestEffectivePoints(t *testing.T) {
	override := 15.0
	qq := QuestQuestion{PointsOverride: &override, Question: Question{Points: 10}}
	if qq.EffectivePoints() != 15 {
		t.Fatalf("expected override 15, got %v", qq.EffectivePoints())
	}
	qq.PointsOverride = nil
	if qq.EffectivePoints() != 10 {
		t.Fatalf("expected base points 10, got %v", qq.EffectivePoints())
	}
}
