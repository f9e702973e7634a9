package queue

import "testing"

func TestParseStatus(t *testing.T) {
	if status, ok := ParseStatus(" Script_Ready "); !ok || status != StatusScriptReady {
		t.Fatalf("parse = %q ok=%v", status, ok)
	}
	if _, ok := ParseStatus("ripping"); ok {
		t.Fatal("unknown status should not parse")
	}
}

func TestValidTransition(t *testing.T) {
	if !ValidTransition(StatusDrafting, StatusScriptReady) {
		t.Fatal("drafting -> script_ready should be valid")
	}
	if ValidTransition(StatusScriptReady, StatusCompleted) {
		t.Fatal("script_ready -> completed should be invalid")
	}
	if !ValidTransition(StatusFailed, StatusDrafting) {
		t.Fatal("failed -> drafting (retry) should be valid")
	}
	if !ValidTransition(StatusScriptReady, StatusDrafting) {
		t.Fatal("script_ready -> drafting (script regeneration) should be valid")
	}
	if ValidTransition(StatusCompleted, StatusDrafting) {
		t.Fatal("completed -> drafting should be invalid")
	}
}

func TestMarkFallbackOrderAndDedup(t *testing.T) {
	var run Run
	run.MarkFallback("illustration")
	run.MarkFallback("narration")
	run.MarkFallback("illustration")

	list := run.FallbackList()
	if len(list) != 2 || list[0] != "illustration" || list[1] != "narration" {
		t.Fatalf("fallback list = %v", list)
	}
}
