package domain

import "testing"

func TestVisibility_ReplyVisibility(t *testing.T) {
	cases := map[Visibility]Visibility{
		VisibilityPublic:   VisibilityUnlisted,
		VisibilityUnlisted: VisibilityUnlisted,
		VisibilityPrivate:  VisibilityUnlisted,
		VisibilityDirect:   VisibilityDirect,
	}
	for in, want := range cases {
		if got := in.ReplyVisibility(); got != want {
			t.Errorf("%s: expected %s, got %s", in, want, got)
		}
	}
}

func TestParseVisibility_Unknown(t *testing.T) {
	if got := ParseVisibility("limited"); got != VisibilityPublic {
		t.Errorf("Expected public fallback, got %s", got)
	}
	if got := ParseVisibility("direct"); got != VisibilityDirect {
		t.Errorf("Expected direct, got %s", got)
	}
}

func TestNotification_IsMention(t *testing.T) {
	n := &Notification{Type: "mention", Status: &Status{ID: "1"}}
	if !n.IsMention() {
		t.Error("Expected mention with status to be a mention")
	}

	favourite := &Notification{Type: "favourite", Status: &Status{ID: "1"}}
	if favourite.IsMention() {
		t.Error("Expected favourite not to be a mention")
	}

	empty := &Notification{Type: "mention"}
	if empty.IsMention() {
		t.Error("Expected mention without status to be ignored")
	}
}

func TestVerdict_Classes(t *testing.T) {
	for _, v := range []Verdict{RejectOrigin, RejectFanOut, RejectCooldown} {
		if !v.Silent() || v.Soft() {
			t.Errorf("%s should be silent", v)
		}
	}
	for _, v := range []Verdict{RejectEmptyQuestion, RejectContainsLink, RejectOverLimit} {
		if v.Silent() || !v.Soft() {
			t.Errorf("%s should be soft", v)
		}
	}
	if Pass.Silent() || Pass.Soft() {
		t.Error("pass is neither silent nor soft")
	}
}
