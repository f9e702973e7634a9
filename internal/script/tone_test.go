package script

import "testing"

func TestClassifyTone(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"The old house creaked in the dark.", ToneMysterious},
		{"She laughed and danced with joy.", ToneJoyful},
		{"He wept alone, lost in sorrow.", ToneSomber},
		{"Her heart pounded as she ran from the danger.", ToneTense},
		{"They kissed under the roses.", ToneRomantic},
		{"The expedition crossed the mountains to the sea.", ToneAdventurous},
		{"Thunder and flames shattered the walls.", ToneDramatic},
		{"A gentle breeze drifted over the quiet meadow.", TonePeaceful},
		{"The report was filed on Tuesday.", ToneNeutral},
		{"", ToneNeutral},
	}
	for _, tc := range cases {
		if got := ClassifyTone(tc.text); got != tc.want {
			t.Errorf("ClassifyTone(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestClassifyToneTieBreaksByOrder(t *testing.T) {
	// One mysterious keyword and one tense keyword; mysterious comes first.
	if got := ClassifyTone("a shadow made her nervous"); got != ToneMysterious {
		t.Fatalf("tie broke to %q, want %q", got, ToneMysterious)
	}
}

func TestBuildImagePrompt(t *testing.T) {
	prompt := BuildImagePrompt("The old house creaked while Mary stepped inside.", ToneMysterious)
	if prompt != "mysterious digital illustration of house, creaked, mary, stepped, inside, storybook style, cinematic lighting" {
		t.Fatalf("prompt = %q", prompt)
	}
	if BuildImagePrompt("", ToneNeutral) != "neutral digital illustration, storybook style" {
		t.Fatalf("empty narration prompt = %q", BuildImagePrompt("", ToneNeutral))
	}
}

func TestKnownTone(t *testing.T) {
	for _, tone := range Tones() {
		if !KnownTone(tone) {
			t.Fatalf("tone %q should be known", tone)
		}
	}
	if KnownTone("sarcastic") {
		t.Fatal("unexpected tone accepted")
	}
}
