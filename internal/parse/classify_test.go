package parse

import (
	"testing"

	"github.com/pyrrhio/annalist/internal/model"
)

type phraseMap map[string]string

func (p phraseMap) TrainerForPhrase(body string) (string, bool) {
	name, ok := p[body]
	return name, ok
}

func testExtractor() *Extractor {
	return NewExtractor(phraseMap{
		"Your combat ability improves.":                    "Bangus Anmash",
		"You notice your balance recovering more quickly.": "Regia",
		"You notice yourself dealing more damage.":         "Darkus",
		"You seem to fight more effectively now.":          "Evus",
	})
}

func TestClassify(t *testing.T) {
	x := testExtractor()

	tests := []struct {
		name string
		msg  string
		want Event
	}{
		{"solo kill a", "You slaughtered a Rat.",
			Event{Kind: KindSoloKill, Verb: VerbSlaughtered, Creature: "Rat"}},
		{"solo kill an", "You slaughtered an Orga Anger.",
			Event{Kind: KindSoloKill, Verb: VerbSlaughtered, Creature: "Orga Anger"}},
		{"solo kill boss keeps the", "You killed the Ramandu.",
			Event{Kind: KindSoloKill, Verb: VerbKilled, Creature: "the Ramandu"}},
		{"assisted kill", "You helped vanquish a Greater Death.",
			Event{Kind: KindAssistedKill, Verb: VerbVanquished, Creature: "Greater Death"}},
		{"assisted kill boss", "You helped vanquish the Ramandu.",
			Event{Kind: KindAssistedKill, Verb: VerbVanquished, Creature: "the Ramandu"}},

		{"welcome", "Welcome to Clan Lord, Fen!",
			Event{Kind: KindWelcome, Name: "Fen"}},
		{"welcome back", "Welcome back, pip!",
			Event{Kind: KindReconnect, Name: "pip"}},

		{"fallen", "Fen has fallen to a Large Vermine.",
			Event{Kind: KindFallen, Name: "Fen", Creature: "Large Vermine"}},
		{"fallen to hazard", "Fen has fallen to a spray of acid.",
			Event{Kind: KindFallen, Name: "Fen", Creature: "spray of acid"}},
		{"fallen no article", "Fen has fallen to Dredwood.",
			Event{Kind: KindFallen, Name: "Fen", Creature: "Dredwood"}},

		{"first depart", "This is the first time your spirit has departed your body.",
			Event{Kind: KindFirstDepart}},
		{"depart count", "Your spirit has departed your body 42 times.",
			Event{Kind: KindDepartCount, Count: 42}},

		{"coins picked up", "* You pick up 50 coins.",
			Event{Kind: KindCoinsPickedUp, Amount: 50}},
		{"loot share fur", "* Fen recovers the Dark Vermine fur, worth 20c. Your share is 10c.",
			Event{Kind: KindLoot, Creature: "Dark Vermine", LootType: LootFur, Worth: 20, Amount: 10}},
		{"loot share mandibles", "* You recover the Noble Myrm mandibles, worth 2c. Your share is 1c.",
			Event{Kind: KindLoot, Creature: "Noble Myrm", LootType: LootMandible, Worth: 2, Amount: 1}},
		{"loot solo fur", "* You recover the Dark Vermine fur, worth 20c.",
			Event{Kind: KindLoot, Creature: "Dark Vermine", LootType: LootFur, Worth: 20, Amount: 20}},
		{"loot solo mandibles", "* You recover the Noble Myrm mandibles, worth 2c.",
			Event{Kind: KindLoot, Creature: "Noble Myrm", LootType: LootMandible, Worth: 2, Amount: 2}},

		{"bell broken", "* Your bell crumbles to dust.", Event{Kind: KindBellBroken}},
		{"chain break", "Your chain breaks as you try to use it.", Event{Kind: KindChainBroken}},
		{"chain shatter", "A link in your chain shatters.", Event{Kind: KindChainBroken}},
		{"chain used", "You start dragging Ava.", Event{Kind: KindChainUsed, Name: "Ava"}},
		{"shieldstone used", "* You activate your shieldstone.", Event{Kind: KindShieldstoneUsed}},
		{"shieldstone broken", "Your Shieldstone goes inert.", Event{Kind: KindShieldstoneBroken}},
		{"portal opened", "You open an ethereal portal.", Event{Kind: KindPortalOpened}},
		{"portal stone spent", "Your ethereal portal stone disappears into the ether.",
			Event{Kind: KindPortalStoneSpent}},

		{"esteem", "* You gain esteem.", Event{Kind: KindEsteem}},
		{"esteem with experience", "* You gain experience and esteem.", Event{Kind: KindEsteem}},

		{"karma good", "You just received good karma from Fen.",
			Event{Kind: KindKarma, Good: true}},
		{"karma bad", "You just received bad karma from Troll.",
			Event{Kind: KindKarma, Good: false}},
		{"karma anonymous", "You just received anonymous good karma.",
			Event{Kind: KindKarma, Good: true}},

		{"apply learning full",
			`Aitnos says, "Congratulations, Ajahn. You should now understand much more of Evus's teachings."`,
			Event{Kind: KindApplyLearning, Name: "Ajahn", Trainer: "Evus", Full: true}},
		{"apply learning partial",
			"Aitnos says, \"Congratulations, Ajahn. You should now understand more of Evus’s teachings.\"",
			Event{Kind: KindApplyLearning, Name: "Ajahn", Trainer: "Evus"}},

		{"circle test fighter",
			`Honor thinks, "Congratulations go out to Camo, who has just passed the seventh circle fighter test."`,
			Event{Kind: KindProfession, Name: "Camo", Profession: model.ProfessionFighter}},
		{"circle test healer",
			`Glory thinks, "Congratulations go out to Squib, who has just passed the sixth circle healer test."`,
			Event{Kind: KindProfession, Name: "Squib", Profession: model.ProfessionHealer}},
		{"become bloodmage",
			`Haima Myrtillus thinks, "Congratulations to Kargan, who has just become a Bloodmage."`,
			Event{Kind: KindProfession, Name: "Kargan", Profession: model.ProfessionBloodmage}},

		{"untrained", `Untrainus says, "Squib, your mind is less cluttered now."`,
			Event{Kind: KindUntrained}},

		{"trainer rank yen", "¥Your combat ability improves.",
			Event{Kind: KindTrainerRank, Trainer: "Bangus Anmash"}},
		{"trainer rank regia", "¥You notice your balance recovering more quickly.",
			Event{Kind: KindTrainerRank, Trainer: "Regia"}},
		{"trainer rank bullet", "•You notice yourself dealing more damage.",
			Event{Kind: KindTrainerRank, Trainer: "Darkus"}},
		{"trainer rank bullet space", "• Your combat ability improves.",
			Event{Kind: KindTrainerRank, Trainer: "Bangus Anmash"}},

		{"study charge", "¥ You have been charged 100 coins for advanced studies.",
			Event{Kind: KindStudyCharge, Amount: 100}},
		{"study abandon", "¥You abandon your study of the Orga Anger.",
			Event{Kind: KindLastyAbandon, Creature: "Orga Anger"}},
		{"study abandon bullet", "•You abandon your study of the Maha Ruknee.",
			Event{Kind: KindLastyAbandon, Creature: "Maha Ruknee"}},

		{"lasty begin ways", "¥You begin studying the ways of the Purple Arachnoid.",
			Event{Kind: KindLastyBegin, LastyType: model.LastyBefriend, Creature: "Purple Arachnoid"}},
		{"lasty begin movements", "¥You begin studying the movements of the Darshak Liche.",
			Event{Kind: KindLastyBegin, LastyType: model.LastyMovements, Creature: "Darshak Liche"}},
		{"lasty learn progress", "¥ You have almost nothing left to learn about the movements of the Vermine.",
			Event{Kind: KindLastyProgress, LastyType: model.LastyMovements, Creature: "Vermine"}},
		{"lasty befriend finished", "¥You learn to befriend the Maha Ruknee.",
			Event{Kind: KindLastyFinished, LastyType: model.LastyBefriend, Creature: "Maha Ruknee"}},
		{"lasty befriend with space", "¥ You learn to befriend the Vermine.",
			Event{Kind: KindLastyFinished, LastyType: model.LastyBefriend, Creature: "Vermine"}},
		{"lasty morph finished", "¥You learn to assume the form of the Orga Anger.",
			Event{Kind: KindLastyFinished, LastyType: model.LastyMorph, Creature: "Orga Anger"}},
		{"lasty movements finished", "¥You learn to fight the Large Vermine more effectively.",
			Event{Kind: KindLastyFinished, LastyType: model.LastyMovements, Creature: "Large Vermine"}},
		{"lasty completed", "¥You have completed your training with Sespus.",
			Event{Kind: KindLastyCompleted, Trainer: "Sespus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := x.Classify(tt.msg)
			if !ok {
				t.Fatalf("Classify(%q) = no event, want %+v", tt.msg, tt.want)
			}
			if got != tt.want {
				t.Errorf("Classify(%q)\n got %+v\nwant %+v", tt.msg, got, tt.want)
			}
		})
	}
}

func TestClassifyNoEvent(t *testing.T) {
	x := testExtractor()

	msgs := []string{
		"",
		// Reconnect-while-dead status, not a death.
		"Fen has fallen.",
		"Fen is no longer fallen.",
		// Speech and emotes.
		`Donk thinks, "south"`,
		`Fen says, "hello"`,
		`Fen yells, "help!"`,
		"(Fen waves)",
		// NPC prompts that must not count as events.
		`Aitnos says, "Would you like to apply some of your learning to Evus's lessons?"`,
		`Untrainus says, "Greetings, Lord Squib."`,
		`Untrainus asks, "Squib, are you certain you wish to undertake this irrevocable step?"`,
		// Balance line and plain experience carry no counter.
		"You have 101 coins.",
		"* You gain experience.",
		"* You grow more mindful.",
		// System chatter.
		"¥You sense healing energy from Fen.",
		"¥The Sun rises.",
		"¥ You gain experience from your adventures.",
		"• You gain experience from your recent studies.",
		"¥You can study up to 2 creatures concurrently.",
		"¥You are currently studying the Rat, and have almost nothing left to learn.",
		"¥Some message nobody has catalogued.",
		"*** We are no longer connected to the Clan Lord game server. ***",
		"Borzon is now Clanning.",
	}
	for _, msg := range msgs {
		if ev, ok := x.Classify(msg); ok {
			t.Errorf("Classify(%q) = %+v, want no event", msg, ev)
		}
	}
}

func TestParseLine(t *testing.T) {
	x := testExtractor()

	ev, ok := x.ParseLine("4/9/18 7:39:54p You slaughtered a Rat.")
	if !ok {
		t.Fatal("ParseLine returned no event")
	}
	if ev.Kind != KindSoloKill || ev.Creature != "Rat" {
		t.Errorf("event = %+v", ev)
	}
	if !ev.HasTime || ev.Date() != "2018-04-09 19:39:54" {
		t.Errorf("Date() = %q, HasTime = %v", ev.Date(), ev.HasTime)
	}

	// Missing timestamp still classifies, just without a date.
	ev, ok = x.ParseLine("You slaughtered a Rat.")
	if !ok || ev.HasTime || ev.Date() != "" {
		t.Errorf("timestampless line: ok=%v ev=%+v", ok, ev)
	}
}

func TestSplitTimestamp(t *testing.T) {
	tests := []struct {
		line    string
		date    string
		msg     string
		ok      bool
	}{
		{"11/20/17 7:31:48a You have 101 coins.", "2017-11-20 07:31:48", "You have 101 coins.", true},
		{"4/9/18 7:39:54p You slaughtered a Rat.", "2018-04-09 19:39:54", "You slaughtered a Rat.", true},
		{"1/1/20 12:00:00p noon", "2020-01-01 12:00:00", "noon", true},
		{"1/1/20 12:00:00a midnight", "2020-01-01 00:00:00", "midnight", true},
		{"12/26/21 10:33:22p Welcome back, Ruuk!", "2021-12-26 22:33:22", "Welcome back, Ruuk!", true},
		{"1/2/03 1:05:09a test", "2003-01-02 01:05:09", "test", true},
		{"This has no timestamp", "", "This has no timestamp", false},
		{"", "", "", false},
	}
	for _, tt := range tests {
		ts, msg, ok := SplitTimestamp(tt.line)
		if ok != tt.ok {
			t.Errorf("SplitTimestamp(%q) ok = %v, want %v", tt.line, ok, tt.ok)
			continue
		}
		if msg != tt.msg {
			t.Errorf("SplitTimestamp(%q) msg = %q, want %q", tt.line, msg, tt.msg)
		}
		if ok {
			if got := ts.Format(DateLayout); got != tt.date {
				t.Errorf("SplitTimestamp(%q) ts = %q, want %q", tt.line, got, tt.date)
			}
		}
	}
}
