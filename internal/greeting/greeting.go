// Package greeting selects the agent's opening line for a new call.
// Selection is pure and stateless: one uniform random pick from a fixed
// pool keyed by call direction.
package greeting

import "math/rand/v2"

// Direction values as reported by the telephony layer on call setup.
// Anything other than DirectionInbound falls back to the outbound pool.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound-api"
)

var outboundPool = []string{
	"Yooo! Did I catch you at a good time?",
	"Heeeyyyyy, this is Onyx from Apex AI!",
	"Sup? Onyx here—hope your day's awesome!",
	"Heyyy, got a sec? I'm Onyx.",
	"Yo! Quick question for you—Onyx calling!",
	"Hi there—Onyx here, hope I'm not interrupting.",
	"Hey! Onyx from Apex AI—got a minute?",
	"What's up? This is Onyx on the line.",
	"Heeey, thought I'd check in—Onyx here.",
	"Yo! Onyx here, can we chat real quick?",
}

var inboundPool = []string{
	"Yoooo, thanks for calling Apex AI—Onyx speaking!",
	"Heeeyyyyy, you've reached Onyx—what's up?",
	"Sup? This is Onyx at Apex AI—how can I help?",
	"Heyyy! Onyx on the line—what's on your mind?",
	"Yo! Onyx here—thanks for calling.",
	"Hi there—Onyx from Apex AI speaking.",
	"Hey, it's Onyx—what can I do for you today?",
	"What's good? Onyx here—how may I assist?",
	"Hello! Onyx at your service—what do you need?",
	"Thanks for calling—Onyx here, how can I help?",
}

// Pick returns a random greeting for the call direction.
func Pick(direction string) string {
	pool := outboundPool
	if direction == DirectionInbound {
		pool = inboundPool
	}
	return pool[rand.IntN(len(pool))]
}

// Pool returns the greeting pool for a direction. Exposed for tests.
func Pool(direction string) []string {
	if direction == DirectionInbound {
		return inboundPool
	}
	return outboundPool
}
