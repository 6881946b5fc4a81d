package parse

import "regexp"

var (
	reWelcome     = regexp.MustCompile(`^Welcome to Clan Lord, (.+)!$`)
	reWelcomeBack = regexp.MustCompile(`^Welcome back, (.+)!$`)

	// Karma and the NPC confirmations below look like speech and must be
	// matched before the speech filter drops them.
	reKarma = regexp.MustCompile(`^You just received (?:anonymous )?(good|bad) karma(?: from .+)?\.$`)

	reApplyFull    = regexp.MustCompile(`^.+ says, "Congratulations, (.+)\. You should now understand much more of (.+)['’]s teachings\."$`)
	reApplyPartial = regexp.MustCompile(`^.+ says, "Congratulations, (.+)\. You should now understand more of (.+)['’]s teachings\."$`)

	reCircleTest = regexp.MustCompile(`^.+ thinks, "Congratulations go out to (.+), who has just passed the \w+ circle (\w+) test\."$`)
	reBecome     = regexp.MustCompile(`^.+ thinks, "Congratulations to (.+), who has just become an? (\w+)\."$`)
	reUntrained  = regexp.MustCompile(`^Untrainus says, ".+, your mind is less cluttered now\."$`)

	reSpeech = regexp.MustCompile(`^.+ (?:says|exclaims|yells|ponders|thinks|asks), "`)
	reEmote  = regexp.MustCompile(`^\(.+ .+\)$`)

	reSoloKill     = regexp.MustCompile(`^You (killed|slaughtered|vanquished|dispatched) (.+)\.$`)
	reAssistedKill = regexp.MustCompile(`^You helped (kill|slaughter|vanquish|dispatch) (.+)\.$`)

	// "X has fallen." with no cause is a reconnect-while-dead status line
	// and deliberately does not match.
	reFallen = regexp.MustCompile(`^(.+) has fallen to (?:an? )?(.+)\.$`)

	reFirstDepart = regexp.MustCompile(`^This is the first time your spirit has departed your body\.$`)
	reDepartCount = regexp.MustCompile(`^Your spirit has departed your body (\d+) times?\.$`)

	reCoinsPickedUp = regexp.MustCompile(`^\* You pick up (\d+) coins?\.$`)
	reLootShare     = regexp.MustCompile(`^\* .+ recovers? the (.+) (fur|blood|mandibles?), worth (\d+)c\. Your share is (\d+)c\.$`)
	reLootSolo      = regexp.MustCompile(`^\* You recover the (.+) (fur|blood|mandibles?), worth (\d+)c\.$`)

	reBellBroken        = regexp.MustCompile(`^\* Your bell crumbles to dust\.$`)
	reBellUsed          = regexp.MustCompile(`^\* The bell rings soundlessly into the void, summoning`)
	reChainBreak        = regexp.MustCompile(`^Your chain breaks as you try to use it\.$`)
	reChainShatter      = regexp.MustCompile(`^A link in your chain shatters\.$`)
	reChainSnap         = regexp.MustCompile(`^Your chain snaps as you try to use it\.$`)
	reChainDrag         = regexp.MustCompile(`^You start dragging (.+)\.$`)
	reShieldstoneUsed   = regexp.MustCompile(`^\* You activate your shieldstone\.$`)
	reShieldstoneBroken = regexp.MustCompile(`^Your Shieldstone goes inert\.$`)
	rePortalOpened      = regexp.MustCompile(`^You open an ethereal portal\.$`)
	rePortalStoneSpent  = regexp.MustCompile(`^Your ethereal portal stone disappears into the ether\.$`)

	reEsteem = regexp.MustCompile(`^\* You gain (?:experience and )?esteem\.`)

	// System-prefixed message bodies (after the sentinel is stripped).
	reStudyCharge   = regexp.MustCompile(`^You have been charged (\d+) coins? for advanced studies\.$`)
	reStudyProgress = regexp.MustCompile(`^You are (?:currently studying|remembering your studies of) the (.+), and have (.+) left to learn\.$`)
	reStudyAbandon  = regexp.MustCompile(`^You abandon your study of the (.+)\.$`)

	reLastyBegin    = regexp.MustCompile(`^You begin studying the (ways|movements|essence) of the (.+)\.$`)
	reLastyLearn    = regexp.MustCompile(`^You have .+ left to learn about the (ways|movements|essence) of the (.+)\.$`)
	reLastyBefriend = regexp.MustCompile(`^You learn to befriend the (.+)\.$`)
	reLastyMorph    = regexp.MustCompile(`^You learn to assume the form of the (.+)\.$`)
	reLastyFight    = regexp.MustCompile(`^You learn to fight the (.+) more effectively\.$`)
	reLastyComplete = regexp.MustCompile(`^You have completed your training with (.+)\.$`)

	reSysHealingSense    = regexp.MustCompile(`^You sense healing energy from .+\.$`)
	reSysSunEvent        = regexp.MustCompile(`^The Sun (?:rises|sets)\.$`)
	reSysStudyGain       = regexp.MustCompile(`^You gain experience from your`)
	reSysStudyConcurrent = regexp.MustCompile(`^You can study up to \d+ creatures? concurrently\.$`)
)
